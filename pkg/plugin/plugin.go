// Package plugin post-processes assistant replies and may produce a follow-up user message
package plugin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

var ErrUnknownPlugin = errors.New("unknown plugin")

// Func inspects an assistant reply. A non-empty result is sent back to the
// model as the next user message.
type Func func(ctx context.Context, reply string) (string, error)

type Registry struct {
	plugins map[string]Func
	log     logrus.FieldLogger
}

// NewRegistry returns a registry holding the built-in plugins.
func NewRegistry(log logrus.FieldLogger) *Registry {
	r := &Registry{plugins: make(map[string]Func), log: log}
	r.Register("read_file", ReadFile)
	return r
}

func (r *Registry) Register(name string, f Func) {
	r.plugins[name] = f
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Check fails for the first name that is not registered.
func (r *Registry) Check(names []string) error {
	for _, name := range names {
		if _, ok := r.plugins[name]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownPlugin, name)
		}
	}
	return nil
}

// Evaluate runs the named plugins on reply in order and joins their
// follow-ups. An empty result means no follow-up.
func (r *Registry) Evaluate(ctx context.Context, reply string, names []string) (string, error) {
	if err := r.Check(names); err != nil {
		return "", err
	}

	var followUps []string
	for _, name := range names {
		followUp, err := r.plugins[name](ctx, reply)
		if err != nil {
			return "", fmt.Errorf("plugin %s: %w", name, err)
		}
		if followUp == "" {
			continue
		}
		r.log.WithFields(logrus.Fields{"plugin": name, "bytes": len(followUp)}).Debug("plugin produced follow-up")
		followUps = append(followUps, followUp)
	}

	return strings.Join(followUps, "\n\n"), nil
}
