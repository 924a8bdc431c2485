package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "geoscan/errors"
	"geoscan/providers"
	"geoscan/web/types"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// InsertScanRecord persists a completed scan with its full result set.
func (s *PostgresStore) InsertScanRecord(ctx context.Context, rec *types.ScanRecord) error {
	resultsJSON, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("marshal scan results: %w", err)
	}
	foundJSON, err := json.Marshal(rec.ProviderFound)
	if err != nil {
		return fmt.Errorf("marshal provider counts: %w", err)
	}

	query := `
        INSERT INTO scan_records
            (id, owner_id, session_token, tool, brand_name, website, locale,
             prompts, results, provider_found, total_mentions, duration_ms, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
    `
	_, err = s.DB.ExecContext(ctx, query,
		rec.ID, nullString(rec.OwnerID), nullString(rec.SessionToken),
		rec.Tool, rec.BrandName, rec.Website, rec.Locale,
		pq.Array(rec.Prompts), resultsJSON, foundJSON,
		rec.TotalMentions, rec.DurationMS, rec.CreatedAt)
	if err != nil {
		return apperrors.WrapError(err, "insert scan record")
	}
	return nil
}

// ReplaceScanResults overwrites a record's results in place for a rescan.
func (s *PostgresStore) ReplaceScanResults(ctx context.Context, rec *types.ScanRecord) error {
	resultsJSON, err := json.Marshal(rec.Results)
	if err != nil {
		return fmt.Errorf("marshal scan results: %w", err)
	}
	foundJSON, err := json.Marshal(rec.ProviderFound)
	if err != nil {
		return fmt.Errorf("marshal provider counts: %w", err)
	}

	query := `
        UPDATE scan_records
        SET prompts = $2, results = $3, provider_found = $4,
            total_mentions = $5, duration_ms = $6
        WHERE id = $1
    `
	_, err = s.DB.ExecContext(ctx, query, rec.ID,
		pq.Array(rec.Prompts), resultsJSON, foundJSON, rec.TotalMentions, rec.DurationMS)
	if err != nil {
		return apperrors.WrapError(err, "replace scan results")
	}
	return nil
}

// GetScanRecord loads one scan by id.
func (s *PostgresStore) GetScanRecord(ctx context.Context, id uuid.UUID) (*types.ScanRecord, error) {
	query := `
        SELECT id, owner_id, session_token, tool, brand_name, website, locale,
               prompts, results, provider_found, total_mentions, duration_ms,
               created_at, claimed_at
        FROM scan_records WHERE id = $1
    `
	rec, err := scanRecordRow(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.WrapError(err, "get scan record")
	}
	return rec, nil
}

// ListScanRecords returns the owner's most recent scans, newest first.
func (s *PostgresStore) ListScanRecords(ctx context.Context, ownerID string, limit int) ([]types.ScanRecord, error) {
	query := `
        SELECT id, owner_id, session_token, tool, brand_name, website, locale,
               prompts, results, provider_found, total_mentions, duration_ms,
               created_at, claimed_at
        FROM scan_records
        WHERE owner_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `
	rows, err := s.DB.QueryContext(ctx, query, ownerID, limit)
	if err != nil {
		return nil, apperrors.WrapError(err, "list scan records")
	}
	defer rows.Close()

	var records []types.ScanRecord
	for rows.Next() {
		rec, err := scanRecordRow(rows)
		if err != nil {
			return nil, apperrors.WrapError(err, "scan record row")
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// InsertDiscoveryResult stores a discovered prompt set so an anonymous
// session's work survives until the account claims it.
func (s *PostgresStore) InsertDiscoveryResult(ctx context.Context, d *types.DiscoveryResult) error {
	query := `
        INSERT INTO discovery_results
            (id, owner_id, session_token, brand_name, website, prompts, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := s.DB.ExecContext(ctx, query,
		d.ID, nullString(d.OwnerID), nullString(d.SessionToken),
		d.BrandName, d.Website, pq.Array(d.Prompts), d.Status, d.CreatedAt)
	if err != nil {
		return apperrors.WrapError(err, "insert discovery result")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecordRow(row rowScanner) (*types.ScanRecord, error) {
	var rec types.ScanRecord
	var ownerID, sessionToken sql.NullString
	var claimedAt sql.NullTime
	var resultsJSON, foundJSON []byte
	var prompts pq.StringArray

	err := row.Scan(&rec.ID, &ownerID, &sessionToken, &rec.Tool, &rec.BrandName,
		&rec.Website, &rec.Locale, &prompts, &resultsJSON, &foundJSON,
		&rec.TotalMentions, &rec.DurationMS, &rec.CreatedAt, &claimedAt)
	if err != nil {
		return nil, err
	}

	rec.Prompts = prompts
	if ownerID.Valid {
		rec.OwnerID = &ownerID.String
	}
	if sessionToken.Valid {
		rec.SessionToken = &sessionToken.String
	}
	if claimedAt.Valid {
		rec.ClaimedAt = &claimedAt.Time
	}
	if len(resultsJSON) > 0 {
		if err := json.Unmarshal(resultsJSON, &rec.Results); err != nil {
			return nil, fmt.Errorf("unmarshal scan results: %w", err)
		}
	}
	rec.ProviderFound = make(map[providers.ID]int)
	if len(foundJSON) > 0 {
		if err := json.Unmarshal(foundJSON, &rec.ProviderFound); err != nil {
			return nil, fmt.Errorf("unmarshal provider counts: %w", err)
		}
	}
	return &rec, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
