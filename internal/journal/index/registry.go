package index

import (
	"database/sql"
	"time"
)

// Session is one row of the registry, as surfaced to the UI's
// mode-selection screen.
type Session struct {
	Slug              string
	DateDir           string
	Workspace         string
	IntegrationBranch string
	Status            string
	UpdatedAt         time.Time
}

// Upsert records or updates a session's registry row.
func Upsert(db *sql.DB, s Session) error {
	_, err := db.Exec(`
		INSERT INTO sessions (slug, date_dir, workspace, integration_branch, status, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (workspace, date_dir, slug) DO UPDATE SET
			integration_branch = excluded.integration_branch,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, s.Slug, s.DateDir, s.Workspace, s.IntegrationBranch, s.Status)
	return err
}

// ListForWorkspace returns every known session for workspace, most
// recently updated first.
func ListForWorkspace(db *sql.DB, workspace string) ([]Session, error) {
	rows, err := db.Query(`
		SELECT slug, date_dir, workspace, integration_branch, status, updated_at
		FROM sessions WHERE workspace = ? ORDER BY updated_at DESC
	`, workspace)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.Slug, &s.DateDir, &s.Workspace, &s.IntegrationBranch, &s.Status, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
