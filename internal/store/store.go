package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS protocols (
			digest TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			title TEXT NOT NULL,
			raw_text TEXT NOT NULL,
			section_count INTEGER NOT NULL,
			last_seen_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS review_runs (
			protocol_digest TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			roles TEXT NOT NULL,
			feedback_json TEXT NOT NULL,
			risks_json TEXT NOT NULL,
			risk_ok INTEGER NOT NULL,
			score INTEGER NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to migrate db: %w", err)
		}
	}
	return nil
}

// Protocol is the last text seen for a digest. Source is the file path or
// "generated".
type Protocol struct {
	Digest       string
	Source       string
	Title        string
	RawText      string
	SectionCount int
	LastSeenAt   sql.NullTime
}

func (s *Store) UpsertProtocol(p Protocol) error {
	if p.Digest == "" {
		return fmt.Errorf("digest is required")
	}
	_, err := s.db.Exec(`
		INSERT INTO protocols (digest, source, title, raw_text, section_count, last_seen_at)
		VALUES (?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(digest) DO UPDATE SET
			source = excluded.source,
			title = excluded.title,
			raw_text = excluded.raw_text,
			section_count = excluded.section_count,
			last_seen_at = excluded.last_seen_at
	`, p.Digest, p.Source, p.Title, p.RawText, p.SectionCount)
	if err != nil {
		return fmt.Errorf("failed to upsert protocol: %w", err)
	}
	return nil
}
