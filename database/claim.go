package database

import (
	"context"
	"time"

	apperrors "geoscan/errors"
)

// ClaimResult reports how many rows a claim transferred per table.
type ClaimResult struct {
	Scans       int64 `json:"scans"`
	Discoveries int64 `json:"discoveries"`
}

// Total is the combined number of claimed rows.
func (c ClaimResult) Total() int64 {
	return c.Scans + c.Discoveries
}

// ClaimSession transfers every ownerless scan and discovery row tagged with
// the session token to the account. The WHERE clause makes the operation
// idempotent and keeps rows already owned by another account untouched: only
// owner IS NULL rows ever change.
func (s *PostgresStore) ClaimSession(ctx context.Context, accountID, sessionToken string) (ClaimResult, error) {
	var result ClaimResult
	now := time.Now()

	res, err := s.DB.ExecContext(ctx, `
        UPDATE scan_records
        SET owner_id = $1, claimed_at = $2
        WHERE owner_id IS NULL AND session_token = $3
    `, accountID, now, sessionToken)
	if err != nil {
		return result, apperrors.WrapError(err, "claim scan records")
	}
	result.Scans, _ = res.RowsAffected()

	res, err = s.DB.ExecContext(ctx, `
        UPDATE discovery_results
        SET owner_id = $1, claimed_at = $2
        WHERE owner_id IS NULL AND session_token = $3
    `, accountID, now, sessionToken)
	if err != nil {
		return result, apperrors.WrapError(err, "claim discovery results")
	}
	result.Discoveries, _ = res.RowsAffected()

	return result, nil
}
