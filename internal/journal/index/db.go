// Package index maintains a best-effort sqlite registry of journal
// sessions so the UI's mode-selection screen can list prior sessions
// without walking the .bear directory tree on every keypress. A missing
// index file is created empty; existing sessions are not re-imported from
// the filesystem. An index that fails to open or migrate is reported as an
// error, which the caller logs before continuing without the registry.
package index

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Open opens (creating if necessary) the sqlite registry at dbPath and
// brings its schema up to date.
func Open(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create index directory: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	goose.SetBaseFS(migrationsFS)
	defer goose.SetBaseFS(nil)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	goose.SetLogger(goose.NopLogger())
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("migrate index db: %w", err)
	}
	return nil
}

// Close checkpoints and closes the database.
func Close(db *sql.DB) error {
	_, _ = db.Exec("PRAGMA optimize")
	return db.Close()
}
