// Package history records completed ingestions in a local SQLite database
// so past runs can be reviewed with `anybib log`.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Entry is one recorded ingestion.
type Entry struct {
	ID          int64
	DOI         string
	CiteKey     string
	Title       string
	Action      string // created, updated, aborted, dry-run
	ObjectID    string
	PDFAttached bool
	CreatedAt   time.Time
}

// DB wraps the SQLite connection holding the ingestion log.
type DB struct {
	db *sql.DB
}

// DefaultPath returns the history database location. Respects
// XDG_DATA_HOME, defaults to ~/.local/share/anybib/history.db.
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "anybib", "history.db")
}

// Open opens or creates the history database at the given path, creating
// parent directories as needed.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS ingestions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			doi TEXT NOT NULL,
			cite_key TEXT NOT NULL,
			title TEXT NOT NULL,
			action TEXT NOT NULL,
			object_id TEXT,
			pdf_attached INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_ingestions_doi ON ingestions(doi);
	`
	_, err := db.Exec(schema)
	return err
}

// Append records a completed ingestion.
func (d *DB) Append(e Entry) error {
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := d.db.Exec(`
		INSERT INTO ingestions (doi, cite_key, title, action, object_id, pdf_attached, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.DOI, e.CiteKey, e.Title, e.Action, e.ObjectID, boolToInt(e.PDFAttached), createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("recording ingestion: %w", err)
	}
	return nil
}

// Recent returns the most recent ingestions, newest first.
func (d *DB) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := d.db.Query(`
		SELECT id, doi, cite_key, title, action, object_id, pdf_attached, created_at
		FROM ingestions
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying ingestions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var attached int
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.DOI, &e.CiteKey, &e.Title, &e.Action, &e.ObjectID, &attached, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning ingestion row: %w", err)
		}
		e.PDFAttached = attached != 0
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
