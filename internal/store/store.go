package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS ui_config_predictions (
	id            UUID PRIMARY KEY,
	session_id    TEXT NOT NULL DEFAULT '',
	source        TEXT NOT NULL,
	model_version TEXT NOT NULL DEFAULT '',
	features      DOUBLE PRECISION[] NOT NULL,
	ui_config     JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS ui_config_predictions_session_idx
	ON ui_config_predictions (session_id);

CREATE TABLE IF NOT EXISTS unmapped_vocabulary (
	field      TEXT NOT NULL,
	value      TEXT NOT NULL,
	count      BIGINT NOT NULL DEFAULT 0,
	first_seen TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_seen  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (field, value)
);
`

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Migrate creates the tables the service writes to. It is idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}
