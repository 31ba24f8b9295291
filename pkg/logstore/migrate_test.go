package logstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyLog = `{"messages": [{"role": "user", "content": "hi"}, {"role": "assistant", "content": "hello"}], "usage": {"request_tokens": 10, "completion_tokens": 2, "total_tokens": 12}, "response": {"id": "cmpl-1", "created": 1680000000, "model": "gpt-3.5-turbo-0301", "choices": [{"index": 0, "message": {"role": "assistant", "content": "hello"}, "finish_reason": "stop"}]}}
{"messages": [{"role": "system", "content": "be brief"}], "usage": null, "tags": ["^concise"], "timestamp": "2023-03-02T10:00:00+00:00", "plugins": ["read_file"], "model": "gpt-4"}
`

func writeLegacy(t *testing.T, s *Store, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0o644))
}

func backups(t *testing.T, s *Store) []string {
	t.Helper()
	matches, err := filepath.Glob(s.Path() + ".bak.*")
	require.NoError(t, err)
	return matches
}

func TestMigrate(t *testing.T) {
	s := newTestStore(t)
	writeLegacy(t, s, legacyLog)

	migrated, err := s.Migrate()
	require.NoError(t, err)
	assert.True(t, migrated)

	history, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, history, 2)

	first := history[0]
	require.NotNil(t, first.Usage)
	assert.Equal(t, 10, first.Usage.PromptTokens)
	assert.Equal(t, 12, first.Usage.TotalTokens)
	require.NotNil(t, first.Completion)
	assert.Equal(t, "gpt-3.5-turbo-0301", first.Completion.Model)
	assert.Equal(t, "2023-03-28T10:40:00Z", first.Timestamp)
	assert.Empty(t, first.Tags)
	assert.Empty(t, first.Plugins)
	assert.Empty(t, first.Model)

	second := history[1]
	assert.Equal(t, "concise", second.Personality)
	assert.Equal(t, "2023-03-02T10:00:00+00:00", second.Timestamp)
	assert.Equal(t, []string{"read_file"}, second.Plugins)
	assert.Equal(t, "gpt-4", second.Model)
	assert.Nil(t, second.Completion)
}

func TestMigrate_RenamesRequestTokens(t *testing.T) {
	s := newTestStore(t)
	writeLegacy(t, s, legacyLog)

	_, err := s.Migrate()
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.JSONEq(t, `{"version": "0.4"}`, lines[0])

	var entry struct {
		Usage      map[string]any `json:"usage"`
		Completion map[string]any `json:"completion"`
	}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &entry))
	assert.NotContains(t, entry.Usage, "request_tokens")
	assert.Equal(t, float64(10), entry.Usage["prompt_tokens"])
	assert.Equal(t, "cmpl-1", entry.Completion["id"])
}

func TestMigrate_KeepsBackupAndRunsOnce(t *testing.T) {
	s := newTestStore(t)
	writeLegacy(t, s, legacyLog)

	migrated, err := s.Migrate()
	require.NoError(t, err)
	require.True(t, migrated)

	found := backups(t, s)
	require.Len(t, found, 1)
	assert.Equal(t, s.Path()+".bak.0_3-20261015T123000Z", found[0])
	backup, err := os.ReadFile(found[0])
	require.NoError(t, err)
	assert.Equal(t, legacyLog, string(backup))

	migrated, err = s.Migrate()
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Len(t, backups(t, s), 1)
}

func TestMigrate_MalformedLeavesFileUntouched(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"messages not a list", `{"messages": "hi", "usage": null}`},
		{"messages empty", `{"messages": [], "usage": null}`},
		{"message not an object", `{"messages": ["hi"], "usage": null}`},
		{"tags not a list", `{"messages": [{"role": "user", "content": "q"}], "tags": "work", "usage": null}`},
		{"tags null", `{"messages": [{"role": "user", "content": "q"}], "tags": null, "usage": null}`},
		{"tag not a string", `{"messages": [{"role": "user", "content": "q"}], "tags": [1], "usage": null}`},
		{"plugins not a list", `{"messages": [{"role": "user", "content": "q"}], "plugins": "read_file", "usage": null}`},
		{"completion not an object", `{"messages": [{"role": "user", "content": "q"}], "completion": [1], "usage": null}`},
		{"usage not an object", `{"messages": [{"role": "user", "content": "q"}], "usage": 12}`},
		{"usage not numeric", `{"messages": [{"role": "user", "content": "q"}], "usage": {"total_tokens": "many"}}`},
		{"not json", `{"messages": [`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			content := legacyLog + tt.line + "\n"
			writeLegacy(t, s, content)

			migrated, err := s.Migrate()
			assert.False(t, migrated)
			require.ErrorIs(t, err, ErrMalformedLegacy)

			var migrationErr *MigrationError
			require.ErrorAs(t, err, &migrationErr)
			assert.Equal(t, 3, migrationErr.Line)

			data, err := os.ReadFile(s.Path())
			require.NoError(t, err)
			assert.Equal(t, content, string(data))
			assert.Empty(t, backups(t, s))
		})
	}
}

func TestMigrate_TimestampFallsBackToNow(t *testing.T) {
	s := newTestStore(t)
	writeLegacy(t, s, `{"messages": [{"role": "user", "content": "q"}], "usage": null}`+"\n")

	_, err := s.Migrate()
	require.NoError(t, err)

	history, err := s.ReadAll()
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2026-10-15T12:30:00Z", history[0].Timestamp)
}

func TestMigrate_BlankFirstLine(t *testing.T) {
	s := newTestStore(t)
	writeLegacy(t, s, "\n"+legacyLog)

	_, err := s.Migrate()
	assert.ErrorIs(t, err, ErrBadHeader)
	assert.ErrorContains(t, err, "line 1")

	_, err = s.ReadAll()
	assert.ErrorIs(t, err, ErrBadHeader)
	assert.Empty(t, backups(t, s))
}

func TestMigrate_CurrentLogIsUntouched(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Init(false, nil))

	migrated, err := s.Migrate()
	require.NoError(t, err)
	assert.False(t, migrated)
	assert.Empty(t, backups(t, s))
}

func TestTruthy(t *testing.T) {
	assert.False(t, truthy(nil))
	assert.False(t, truthy(map[string]any{}))
	assert.False(t, truthy(json.Number("0")))
	assert.True(t, truthy(map[string]any{"id": "x"}))
	assert.True(t, truthy([]any{1}))
}
