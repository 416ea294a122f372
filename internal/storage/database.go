package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// timeLayout is a fixed-width RFC3339 variant so stored timestamps sort
// lexicographically in SQL (ORDER BY created_at DESC).
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// New opens a SQLite database connection at the given path.
// It enables foreign keys, sets a busy timeout so concurrent writers queue
// instead of failing immediately, and configures the connection pool.
// Transactions begin with BEGIN IMMEDIATE so a read-then-write transaction
// takes the write lock up front and waits on the busy timeout rather than
// aborting with a busy error when another writer holds the lock.
func New(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_txlock=immediate")
	if err != nil {
		return nil, err
	}

	// Enable foreign keys (disabled by default in SQLite)
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS sheets (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			content_key TEXT NOT NULL,
			size_bytes INTEGER NOT NULL,
			content_kind TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS setlists (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS setlist_sheets (
			setlist_id TEXT NOT NULL,
			sheet_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (setlist_id, sheet_id),
			FOREIGN KEY (setlist_id) REFERENCES setlists(id),
			FOREIGN KEY (sheet_id) REFERENCES sheets(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_setlist_sheets_sheet ON setlist_sheets(sheet_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Rows written by other tooling may carry plain RFC3339.
		return time.Parse(time.RFC3339, s)
	}
	return t, nil
}
