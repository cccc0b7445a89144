package journal

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStoreWriteAndReadArtifacts(t *testing.T) {
	tmp := t.TempDir()
	store, err := Open(tmp, "20260101", "my-session")
	require.NoError(t, err)

	require.NoError(t, store.WriteUserRequest("build a widget"))
	require.NoError(t, store.WriteSpec("# spec"))
	require.NoError(t, store.WritePlan("# plan"))
	require.NoError(t, store.WriteTaskReport("TASK-00", "done"))

	report, err := store.ReadTaskReport("TASK-00")
	require.NoError(t, err)
	require.Equal(t, "done", report)

	require.FileExists(t, store.SpecPath())
	require.FileExists(t, store.PlanPath())
}

func TestStoreRelocate(t *testing.T) {
	tmp := t.TempDir()
	store, err := Open(tmp, "20260101", "pending")
	require.NoError(t, err)
	require.NoError(t, store.WriteSpec("# spec"))

	require.NoError(t, store.Relocate(tmp, "20260101", "my-real-slug"))
	require.NoFileExists(t, filepath.Join(tmp, ".bear", "20260101", "pending", "spec.md"))
	require.FileExists(t, store.SpecPath())
	require.Equal(t, filepath.Join(tmp, ".bear", "20260101", "my-real-slug"), store.Dir())

	// Relocating to the same location again is a no-op, not an error.
	require.NoError(t, store.Relocate(tmp, "20260101", "my-real-slug"))
}

func TestStoreRelPaths(t *testing.T) {
	tmp := t.TempDir()
	store, err := Open(tmp, "20260101", "my-session")
	require.NoError(t, err)

	require.Equal(t, filepath.Join(".bear", "20260101", "my-session"), store.RelDir())
	require.Equal(t, filepath.Join(".bear", "20260101", "my-session", "TASK-00.md"), store.RelTaskReportPath("TASK-00"))

	// RelDir must stay correct after a relocation, since the executor
	// computes it after the session slug is known, well before any task
	// runs.
	require.NoError(t, store.Relocate(tmp, "20260101", "renamed-session"))
	require.Equal(t, filepath.Join(".bear", "20260101", "renamed-session", "TASK-00.md"), store.RelTaskReportPath("TASK-00"))
}

func TestStoreAdoptRebindsToExistingDirectory(t *testing.T) {
	tmp := t.TempDir()
	store, err := Open(tmp, "20260101", "pending")
	require.NoError(t, err)

	imported, err := Open(tmp, "20250101", "old-session")
	require.NoError(t, err)
	require.NoError(t, imported.WriteSpec("# imported spec"))

	require.NoError(t, store.Adopt(tmp, imported.Dir()))
	require.Equal(t, imported.Dir(), store.Dir())
	require.Equal(t, filepath.Join(".bear", "20250101", "old-session"), store.RelDir())
	require.FileExists(t, store.SpecPath())

	// The empty placeholder directory is cleaned up.
	require.NoDirExists(t, filepath.Join(tmp, ".bear", "20260101", "pending"))
}

func TestStoreAdoptRejectsDirectoryOutsideWorkspace(t *testing.T) {
	tmp := t.TempDir()
	other := t.TempDir()
	store, err := Open(tmp, "20260101", "pending")
	require.NoError(t, err)

	require.Error(t, store.Adopt(tmp, other))
}

func TestStoreManifestRoundTrip(t *testing.T) {
	tmp := t.TempDir()
	store, err := Open(tmp, "20260101", "my-session")
	require.NoError(t, err)

	want := Manifest{Workspace: tmp, DateDir: "20260101", Slug: "my-session", Status: "in_progress"}
	require.NoError(t, store.WriteManifest(want))

	got, err := store.ReadManifest()
	require.NoError(t, err)
	require.Equal(t, want, got)
}
