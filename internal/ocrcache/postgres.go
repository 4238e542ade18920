package ocrcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS ocr_cache (
	image_hash  TEXT PRIMARY KEY,
	text        TEXT NOT NULL,
	confidence  DOUBLE PRECISION NOT NULL,
	words_count INTEGER NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

// Postgres backs the cache with a shared database, for multi-node setups.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pgx pool and ensures the cache table exists.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse cache dsn: %w", err)
	}
	pc.MaxConns = 10
	pc.MaxConnLifetime = 30 * time.Minute
	pc.MaxConnIdleTime = 5 * time.Minute
	pc.ConnConfig.RuntimeParams["application_name"] = "rxscan"

	dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(dialCtx, pc)
	if err != nil {
		return nil, fmt.Errorf("connect cache db: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create ocr_cache table: %w", err)
	}
	logger.Info("ocrcache.postgres.connected")
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Get(ctx context.Context, key string) (Entry, bool, error) {
	var e Entry
	err := p.pool.QueryRow(ctx,
		`SELECT text, confidence, words_count FROM ocr_cache WHERE image_hash = $1`, key,
	).Scan(&e.Text, &e.Confidence, &e.WordsCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("cache get: %w", err)
	}
	return e, true, nil
}

func (p *Postgres) Put(ctx context.Context, key string, e Entry) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO ocr_cache (image_hash, text, confidence, words_count) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (image_hash) DO UPDATE SET
			text = EXCLUDED.text,
			confidence = EXCLUDED.confidence,
			words_count = EXCLUDED.words_count`,
		key, e.Text, e.Confidence, e.WordsCount,
	)
	if err != nil {
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
