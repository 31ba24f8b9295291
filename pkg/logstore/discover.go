package logstore

import (
	"fmt"
	"os"
	"path/filepath"
)

// Find locates the log called name in start or the closest parent of start.
// A start that is not a directory is taken as the log path itself, and an
// absolute name is used as is.
func Find(start, name string) (string, error) {
	if filepath.IsAbs(name) {
		if _, err := os.Stat(name); err != nil {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		return name, nil
	}

	if start == "" {
		start = "."
	}
	if info, err := os.Stat(start); err != nil || !info.IsDir() {
		return start, nil
	}

	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%s: %w", name, ErrNotFound)
		}
		dir = parent
	}
}
