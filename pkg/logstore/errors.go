package logstore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no log file could be discovered.
	ErrNotFound = errors.New("conversation log not found")

	// ErrAlreadyExists indicates init was asked to create an existing log.
	ErrAlreadyExists = errors.New("conversation log already exists")

	// ErrNeedsMigration indicates the log has no version header and must be
	// migrated before it can be read.
	ErrNeedsMigration = errors.New("conversation log uses the legacy format")

	// ErrBadHeader indicates the first line of the log is neither a version
	// header nor a legacy entry.
	ErrBadHeader = errors.New("first line is not a version header")

	// ErrMalformedLegacy indicates a legacy entry failed structural checks.
	ErrMalformedLegacy = errors.New("malformed legacy log entry")

	// ErrEmptyConversation indicates an attempt to persist a conversation
	// without messages.
	ErrEmptyConversation = errors.New("conversation has no messages")
)

// MigrationError reports the legacy line that stopped a migration.
type MigrationError struct {
	Line   int
	Reason string
}

func (e *MigrationError) Error() string {
	return fmt.Sprintf("line %d: %s: %s", e.Line, ErrMalformedLegacy, e.Reason)
}

func (e *MigrationError) Unwrap() error {
	return ErrMalformedLegacy
}
