package ui

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterFilesRanksMatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	matches, err := FilterFiles(dir, "spec")
	require.NoError(t, err)
	require.Contains(t, matches, "spec.md")
}

func TestFilterFilesSkipsBearAndGitDirs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".bear", "20260101"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".bear", "20260101", "hidden.md"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visible.md"), []byte("x"), 0o644))

	matches, err := FilterFiles(dir, "")
	require.NoError(t, err)
	require.Contains(t, matches, "visible.md")
	require.NotContains(t, matches, filepath.Join(".bear", "20260101", "hidden.md"))
}
