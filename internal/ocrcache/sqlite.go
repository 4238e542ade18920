package ocrcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ocr_cache (
	image_hash  TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	confidence  REAL NOT NULL,
	words_count INTEGER NOT NULL,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`

// SQLite is the default single-node cache backend (cgo-free driver).
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (and if needed creates) the cache database at path.
// Use ":memory:" for tests.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ocr_cache table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	err := s.db.QueryRowContext(ctx,
		`SELECT text, confidence, words_count FROM ocr_cache WHERE image_hash = ?`, key,
	).Scan(&e.Text, &e.Confidence, &e.WordsCount)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache get: %w", err)
	}
	return e, true, nil
}

func (s *SQLite) Put(ctx context.Context, key string, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ocr_cache (image_hash, text, confidence, words_count) VALUES (?, ?, ?, ?)
		 ON CONFLICT(image_hash) DO UPDATE SET
			text = excluded.text,
			confidence = excluded.confidence,
			words_count = excluded.words_count`,
		key, e.Text, e.Confidence, e.WordsCount,
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error { return s.db.Close() }
