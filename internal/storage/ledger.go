package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Download is one completed PDF download.
type Download struct {
	CiteKey      string    `json:"cite_key"`
	PaperID      string    `json:"paper_id"`
	URL          string    `json:"url"`
	LinkKind     string    `json:"link_kind"`
	Path         string    `json:"path"`
	Bytes        int64     `json:"bytes"`
	Pages        int       `json:"pages"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Ledger records downloads in a SQLite database.
type Ledger struct {
	db *sql.DB
}

// OpenLedger opens or creates the ledger database at the given path.
func OpenLedger(path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createLedgerSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	return l.db.Close()
}

func createLedgerSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS downloads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			cite_key TEXT NOT NULL,
			paper_id TEXT NOT NULL,
			url TEXT NOT NULL,
			link_kind TEXT NOT NULL,
			path TEXT NOT NULL,
			bytes INTEGER NOT NULL,
			pages INTEGER NOT NULL,
			downloaded_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_downloads_paper ON downloads(paper_id);
	`

	_, err := db.Exec(schema)
	return err
}

// Record appends a download to the ledger.
func (l *Ledger) Record(ctx context.Context, d Download) error {
	if d.DownloadedAt.IsZero() {
		d.DownloadedAt = time.Now()
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO downloads (cite_key, paper_id, url, link_kind, path, bytes, pages, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.CiteKey, d.PaperID, d.URL, d.LinkKind, d.Path, d.Bytes, d.Pages, d.DownloadedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("recording download: %w", err)
	}
	return nil
}

// Recent returns up to limit downloads, newest first.
// A limit of zero or less returns everything.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Download, error) {
	query := `
		SELECT cite_key, paper_id, url, link_kind, path, bytes, pages, downloaded_at
		FROM downloads ORDER BY downloaded_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying downloads: %w", err)
	}
	defer rows.Close()

	var downloads []Download
	for rows.Next() {
		var d Download
		var ts int64
		if err := rows.Scan(&d.CiteKey, &d.PaperID, &d.URL, &d.LinkKind, &d.Path, &d.Bytes, &d.Pages, &ts); err != nil {
			return nil, fmt.Errorf("scanning download: %w", err)
		}
		d.DownloadedAt = time.Unix(0, ts)
		downloads = append(downloads, d)
	}
	return downloads, rows.Err()
}

// Count returns the number of recorded downloads.
func (l *Ledger) Count(ctx context.Context) (int, error) {
	var n int
	if err := l.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM downloads").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting downloads: %w", err)
	}
	return n, nil
}
