package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	apperrors "geoscan/errors"
	"geoscan/quota"

	"github.com/google/uuid"
)

// CountScanEventsSince counts an identity's recorded scans for a tool at or
// after the period start.
func (s *PostgresStore) CountScanEventsSince(ctx context.Context, identity, tool string, since time.Time) (int, error) {
	query := `
        SELECT COUNT(*) FROM scan_events
        WHERE identity = $1 AND tool = $2 AND created_at >= $3
    `
	var count int
	if err := s.DB.QueryRowContext(ctx, query, identity, tool, since).Scan(&count); err != nil {
		return 0, apperrors.WrapError(err, "count scan events")
	}
	return count, nil
}

// LastScanEventAt returns the identity's most recent scan time for a tool,
// or nil when none exists.
func (s *PostgresStore) LastScanEventAt(ctx context.Context, identity, tool string) (*time.Time, error) {
	query := `
        SELECT created_at FROM scan_events
        WHERE identity = $1 AND tool = $2
        ORDER BY created_at DESC
        LIMIT 1
    `
	var last time.Time
	err := s.DB.QueryRowContext(ctx, query, identity, tool).Scan(&last)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, apperrors.WrapError(err, "last scan event")
	}
	return &last, nil
}

// InsertScanEvent appends one scan event to the quota history.
func (s *PostgresStore) InsertScanEvent(ctx context.Context, event quota.ScanEvent) error {
	query := `
        INSERT INTO scan_events (id, identity, tool, payload, duration_ms, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `
	_, err := s.DB.ExecContext(ctx, query,
		uuid.New(), event.Identity, event.Tool, event.Payload, event.DurationMS, event.CreatedAt)
	if err != nil {
		return apperrors.WrapError(err, "insert scan event")
	}
	return nil
}
