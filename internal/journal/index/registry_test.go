package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpsertAndListForWorkspace(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "bear.db"))
	require.NoError(t, err)
	defer Close(db)

	require.NoError(t, Upsert(db, Session{Slug: "widget", DateDir: "20260101", Workspace: "/ws", Status: "in_progress"}))
	require.NoError(t, Upsert(db, Session{Slug: "gizmo", DateDir: "20260101", Workspace: "/ws", Status: "done", IntegrationBranch: "bear/integration/gizmo-abc"}))
	require.NoError(t, Upsert(db, Session{Slug: "other-ws", DateDir: "20260101", Workspace: "/elsewhere", Status: "in_progress"}))

	sessions, err := ListForWorkspace(db, "/ws")
	require.NoError(t, err)
	require.Len(t, sessions, 2)

	slugs := []string{sessions[0].Slug, sessions[1].Slug}
	require.ElementsMatch(t, []string{"widget", "gizmo"}, slugs)
}

func TestUpsertUpdatesExistingRow(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "bear.db"))
	require.NoError(t, err)
	defer Close(db)

	key := Session{Slug: "widget", DateDir: "20260101", Workspace: "/ws", Status: "in_progress"}
	require.NoError(t, Upsert(db, key))

	key.Status = "done"
	key.IntegrationBranch = "bear/integration/widget-xyz"
	require.NoError(t, Upsert(db, key))

	sessions, err := ListForWorkspace(db, "/ws")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, "done", sessions[0].Status)
	require.Equal(t, "bear/integration/widget-xyz", sessions[0].IntegrationBranch)
}
