package logstore

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sealor/chatcli/pkg/conversation"
	"github.com/sirupsen/logrus"
)

// legacyVersion names the format without header line in backup file names.
const legacyVersion = "0_3"

// legacyEntry fixes the field order of a converted entry.
type legacyEntry struct {
	Messages   any    `json:"messages"`
	Completion any    `json:"completion"`
	Tags       any    `json:"tags"`
	Usage      any    `json:"usage"`
	Timestamp  string `json:"timestamp"`
	Plugins    any    `json:"plugins"`
	Model      any    `json:"model"`
}

// Migrate upgrades a legacy log in place and reports whether it did. The
// original is copied to a timestamped backup first. Logs that already carry
// a version header are left alone, so calling Migrate repeatedly is safe.
// A malformed legacy entry aborts before anything is written.
func (s *Store) Migrate() (bool, error) {
	legacy, err := s.isLegacy()
	if err != nil || !legacy {
		return false, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return false, err
	}
	lines, err := convertLegacy(f, s.now().UTC())
	f.Close()
	if err != nil {
		return false, fmt.Errorf("migrate %s: %w", s.path, err)
	}

	backup := fmt.Sprintf("%s.bak.%s-%s", s.path, legacyVersion, s.now().UTC().Format("20060102T150405Z"))
	s.log.WithFields(logrus.Fields{"path": s.path, "backup": backup}).Info("upgrading conversation log")

	if err := copyFile(s.path, backup); err != nil {
		return false, fmt.Errorf("backup %s: %w", s.path, err)
	}
	if err := s.rewrite(lines); err != nil {
		return false, fmt.Errorf("rewrite %s: %w", s.path, err)
	}
	return true, nil
}

func (s *Store) isLegacy() (bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	first, err := readLine(bufio.NewReader(f))
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	version, err := parseVersion(first)
	if err != nil {
		return false, fmt.Errorf("%s: line 1: %w", s.path, err)
	}
	return version == "", nil
}

// rewrite replaces the log with a header followed by lines, going through a
// temp file in the same directory so readers never see a half-written log.
func (s *Store) rewrite(lines [][]byte) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	err = writeHeader(w)
	for _, line := range lines {
		if err != nil {
			break
		}
		_, err = w.Write(append(line, '\n'))
	}
	if err == nil {
		err = w.Flush()
	}
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return err
	}

	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// convertLegacy turns every legacy line into a current-schema entry.
func convertLegacy(r io.Reader, now time.Time) ([][]byte, error) {
	var converted [][]byte

	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(line) == 0 {
			continue
		}

		entry, err := convertLegacyEntry(line, now)
		if err != nil {
			return nil, &MigrationError{Line: lineNo, Reason: err.Error()}
		}

		data, err := json.Marshal(entry)
		if err != nil {
			return nil, &MigrationError{Line: lineNo, Reason: err.Error()}
		}
		if err := checkConverted(data); err != nil {
			return nil, &MigrationError{Line: lineNo, Reason: err.Error()}
		}
		converted = append(converted, data)
	}

	return converted, nil
}

// checkConverted decodes a converted entry the way ReadAll will, so a log is
// only rewritten when every entry can be read back.
func checkConverted(data []byte) error {
	var c conversation.Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return err
	}
	if len(c.Messages) == 0 {
		return ErrEmptyConversation
	}
	return nil
}

func convertLegacyEntry(line []byte, now time.Time) (*legacyEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()

	var data map[string]any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("invalid JSON: %v", err)
	}
	if data == nil {
		return nil, fmt.Errorf("entry is not an object")
	}

	messages, ok := data["messages"].([]any)
	if !ok {
		return nil, fmt.Errorf("messages is not a list")
	}

	tags := []any{}
	if raw, present := data["tags"]; present {
		if tags, ok = raw.([]any); !ok {
			return nil, fmt.Errorf("tags is not a list")
		}
	}

	completion := data["completion"]
	if !truthy(completion) {
		completion = data["response"]
	}
	completionMap, ok := completion.(map[string]any)
	if completion != nil && !ok {
		return nil, fmt.Errorf("completion is not an object")
	}

	usage := data["usage"]
	usageMap, ok := usage.(map[string]any)
	if usage != nil && !ok {
		return nil, fmt.Errorf("usage is not an object")
	}
	if requestTokens, ok := usageMap["request_tokens"]; ok {
		usageMap["prompt_tokens"] = requestTokens
		delete(usageMap, "request_tokens")
	}

	plugins := data["plugins"]
	if plugins == nil {
		plugins = []any{}
	}

	return &legacyEntry{
		Messages:   messages,
		Completion: completion,
		Tags:       tags,
		Usage:      usage,
		Timestamp:  legacyTimestamp(data, completionMap, now),
		Plugins:    plugins,
		Model:      data["model"],
	}, nil
}

// legacyTimestamp prefers the stored timestamp, then the completion's
// creation time, then now.
func legacyTimestamp(data, completion map[string]any, now time.Time) string {
	if ts, ok := data["timestamp"].(string); ok && ts != "" {
		return ts
	}
	if created, ok := completion["created"].(json.Number); ok {
		if seconds, err := created.Float64(); err == nil && seconds > 0 {
			sec := int64(seconds)
			nsec := int64((seconds - float64(sec)) * 1e9)
			return time.Unix(sec, nsec).UTC().Format(time.RFC3339Nano)
		}
	}
	return now.Format(time.RFC3339Nano)
}

// truthy mirrors how the legacy writer decided a field was set.
func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		f, err := v.Float64()
		return err != nil || f != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	}
	return true
}
