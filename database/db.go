package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type PostgresStore struct {
	DB *sql.DB
}

func NewPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	log.Println("Successfully connected to the database")
	return &PostgresStore{DB: db}, nil
}

// EnsureSchema creates the required tables if they do not already exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS scan_records (
            id UUID PRIMARY KEY,
            owner_id TEXT,
            session_token TEXT,
            tool TEXT NOT NULL,
            brand_name TEXT NOT NULL,
            website TEXT DEFAULT '',
            locale TEXT DEFAULT 'nl',
            prompts TEXT[] DEFAULT '{}'::TEXT[],
            results JSONB DEFAULT '[]'::jsonb,
            provider_found JSONB DEFAULT '{}'::jsonb,
            total_mentions INT DEFAULT 0,
            duration_ms BIGINT DEFAULT 0,
            created_at TIMESTAMPTZ DEFAULT NOW(),
            claimed_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_scan_records_owner ON scan_records(owner_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_scan_records_token ON scan_records(session_token) WHERE owner_id IS NULL`,
		`CREATE TABLE IF NOT EXISTS scan_events (
            id UUID PRIMARY KEY,
            identity TEXT NOT NULL,
            tool TEXT NOT NULL,
            payload TEXT DEFAULT '',
            duration_ms BIGINT DEFAULT 0,
            created_at TIMESTAMPTZ DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_scan_events_identity ON scan_events(identity, tool, created_at DESC)`,
		`CREATE TABLE IF NOT EXISTS discovery_results (
            id UUID PRIMARY KEY,
            owner_id TEXT,
            session_token TEXT,
            brand_name TEXT NOT NULL,
            website TEXT DEFAULT '',
            prompts TEXT[] DEFAULT '{}'::TEXT[],
            status TEXT DEFAULT 'discovered',
            created_at TIMESTAMPTZ DEFAULT NOW(),
            claimed_at TIMESTAMPTZ
        )`,
		`CREATE INDEX IF NOT EXISTS idx_discovery_results_token ON discovery_results(session_token) WHERE owner_id IS NULL`,
	}

	for _, stmt := range stmts {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}
