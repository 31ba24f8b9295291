// Package logstore persists conversation snapshots in an append-only JSONL file
package logstore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sirupsen/logrus"
)

// CurrentVersion is written in the header line of every log.
const CurrentVersion = "0.4"

// DefaultFileName is the conventional name searched for by Find.
const DefaultFileName = ".chatcli.log"

type header struct {
	Version string `json:"version"`
}

// Store is the log file at a fixed path. Writes are single-line appends; no
// lock is taken, so concurrent processes only rely on O_APPEND semantics.
type Store struct {
	path string
	log  logrus.FieldLogger
	now  func() time.Time
}

func New(path string, log logrus.FieldLogger) *Store {
	return &Store{path: path, log: log, now: time.Now}
}

func (s *Store) Path() string {
	return s.path
}

// Init creates the log with a version header and appends seeds to it. An
// existing log is only accepted when reinit is set; it is migrated first.
func (s *Store) Init(reinit bool, seeds []*conversation.Conversation) error {
	_, err := os.Stat(s.path)
	switch {
	case err == nil && !reinit:
		return fmt.Errorf("%s: %w", s.path, ErrAlreadyExists)
	case err == nil:
		if _, err := s.Migrate(); err != nil {
			return err
		}
	case errors.Is(err, fs.ErrNotExist):
		if err := s.create(); err != nil {
			return err
		}
	default:
		return err
	}

	for _, seed := range seeds {
		if err := s.Append(seed); err != nil {
			return err
		}
	}

	s.log.WithFields(logrus.Fields{"path": s.path, "seeds": len(seeds)}).Info("conversation log initialized")
	return nil
}

func (s *Store) create() error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%s: %w", s.path, ErrAlreadyExists)
	}
	if err != nil {
		return err
	}

	if err := writeHeader(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeHeader(w io.Writer) error {
	data, err := json.Marshal(header{Version: CurrentVersion})
	if err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// Append writes a full snapshot of c as one line, stamped with the current
// UTC time. On success c.Timestamp carries the persisted stamp.
func (s *Store) Append(c *conversation.Conversation) error {
	if len(c.Messages) == 0 {
		return ErrEmptyConversation
	}

	snapshot := *c
	snapshot.Timestamp = s.now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(&snapshot)
	if err != nil {
		return fmt.Errorf("encode conversation: %w", err)
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	c.Timestamp = snapshot.Timestamp
	s.log.WithField("messages", len(c.Messages)).Debug("conversation appended")
	return nil
}

// ReadAll returns every snapshot, oldest first. Each call decodes fresh
// copies. A log without version header yields ErrNeedsMigration.
func (s *Store) ReadAll() ([]*conversation.Conversation, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	first, err := readLine(r)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	version, err := parseVersion(first)
	if err != nil {
		return nil, fmt.Errorf("%s: line 1: %w", s.path, err)
	}
	if version == "" {
		return nil, fmt.Errorf("%s: %w", s.path, ErrNeedsMigration)
	}

	var conversations []*conversation.Conversation
	for lineNo := 2; ; lineNo++ {
		line, err := readLine(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}

		c := &conversation.Conversation{}
		if err := json.Unmarshal(line, c); err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", s.path, lineNo, err)
		}
		conversations = append(conversations, c)
	}

	return conversations, nil
}

func parseVersion(line []byte) (string, error) {
	if len(line) == 0 {
		return "", fmt.Errorf("%w: line is blank", ErrBadHeader)
	}
	var h header
	if err := json.Unmarshal(line, &h); err != nil {
		return "", fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	return h.Version, nil
}

// readLine returns the next line without its terminator, or io.EOF once the
// reader is exhausted.
func readLine(r *bufio.Reader) ([]byte, error) {
	line, err := r.ReadBytes('\n')
	if err == io.EOF && len(line) > 0 {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(line), nil
}
