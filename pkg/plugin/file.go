package plugin

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ReadFileDirective starts a reply line asking for a file's contents.
const ReadFileDirective = "READ_FILE "

// FormatFile renders a file as a user message for the conversation.
func FormatFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("The file %q contains:\n```\n%s```", path, data), nil
}

// ReadFile answers every READ_FILE line of the reply with the file's contents.
// Failures are reported back in the follow-up so the model can react to them.
func ReadFile(ctx context.Context, reply string) (string, error) {
	var answers []string

	scanner := bufio.NewScanner(strings.NewReader(reply))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, ReadFileDirective) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		path := strings.TrimSpace(strings.TrimPrefix(line, ReadFileDirective))
		if path == "" {
			answers = append(answers, fmt.Sprint("Error calling plugin read_file(): ", "parameter path is empty"))
			continue
		}

		content, err := FormatFile(path)
		if err != nil {
			answers = append(answers, fmt.Sprint("Error calling plugin read_file(): ", err))
			continue
		}
		answers = append(answers, content)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}

	return strings.Join(answers, "\n\n"), nil
}

// ExpandFiles resolves glob patterns (with ** support) to file paths, keeping
// the order of the patterns. Plain paths must exist.
func ExpandFiles(patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		if !strings.ContainsAny(pattern, "*?[{") {
			if _, err := os.Stat(pattern); err != nil {
				return nil, err
			}
			paths = append(paths, pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: no matching files", pattern)
		}
		slices.Sort(matches)
		paths = append(paths, matches...)
	}
	return paths, nil
}
