// Package logging builds the diagnostic logger shared by all components
package logging

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
)

type Options struct {
	// Format is "text" or "json".
	Format string
	Debug  bool
	Quiet  bool
}

func New(out io.Writer, opts Options) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(out)

	switch opts.Format {
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("unknown log format: %s", opts.Format)
	}

	switch {
	case opts.Debug:
		logger.SetLevel(logrus.DebugLevel)
	case opts.Quiet:
		logger.SetLevel(logrus.WarnLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	return logger, nil
}

// Discard is a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
