package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// EnsureSchema creates the tables the service needs when they do not exist
// yet. Schema evolution beyond that is handled outside the service.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS posting_configs (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			api_key TEXT NOT NULL,
			api_secret TEXT NOT NULL,
			access_token TEXT NOT NULL,
			access_token_secret TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			schedule_interval_minutes INT NOT NULL DEFAULT 300,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS posted_records (
			id BIGSERIAL PRIMARY KEY,
			config_id BIGINT NOT NULL REFERENCES posting_configs(id),
			post_text TEXT NOT NULL,
			image_url TEXT,
			source_url TEXT NOT NULL,
			source_title TEXT,
			source_media VARCHAR(100),
			posted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_posted_records_config_id ON posted_records (config_id, posted_at DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}

	return nil
}
