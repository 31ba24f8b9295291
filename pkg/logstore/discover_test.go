package logstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// uniqueName keeps stray logs in parents of the temp dir out of the search.
const uniqueName = ".chatcli-discover-test.log"

func TestFind_WalksUpToParent(t *testing.T) {
	root := t.TempDir()
	logPath := filepath.Join(root, uniqueName)
	require.NoError(t, os.WriteFile(logPath, nil, 0o644))

	nested := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	found, err := Find(nested, uniqueName)
	require.NoError(t, err)
	assert.Equal(t, logPath, found)
}

func TestFind_PrefersClosest(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "project")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, uniqueName), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, uniqueName), nil, 0o644))

	found, err := Find(nested, uniqueName)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(nested, uniqueName), found)
}

func TestFind_NotFound(t *testing.T) {
	_, err := Find(t.TempDir(), ".chatcli-surely-missing-7f3a.log")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFind_NonDirectoryIsTheLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.log")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	found, err := Find(path, uniqueName)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}

func TestFind_AbsoluteName(t *testing.T) {
	path := filepath.Join(t.TempDir(), "abs.log")

	_, err := Find(".", path)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, os.WriteFile(path, nil, 0o644))
	found, err := Find(".", path)
	require.NoError(t, err)
	assert.Equal(t, path, found)
}
