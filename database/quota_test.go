package database

import (
	"context"
	"testing"
	"time"

	"geoscan/quota"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestCountScanEventsSince(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM scan_events\s+WHERE identity = \$1 AND tool = \$2 AND created_at >= \$3`).
		WithArgs("ip:1.2.3.4", "ai-visibility", since).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := store.CountScanEventsSince(context.Background(), "ip:1.2.3.4", "ai-visibility", since)
	if err != nil {
		t.Fatalf("CountScanEventsSince error: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestLastScanEventAt(t *testing.T) {
	store, mock := newMockStore(t)
	last := time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`(?s)SELECT created_at FROM scan_events.+ORDER BY created_at DESC\s+LIMIT 1`).
		WithArgs("acct:acct-1", "ai-visibility").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(last))

	got, err := store.LastScanEventAt(context.Background(), "acct:acct-1", "ai-visibility")
	if err != nil {
		t.Fatalf("LastScanEventAt error: %v", err)
	}
	if got == nil || !got.Equal(last) {
		t.Errorf("last = %v, want %v", got, last)
	}
}

func TestLastScanEventAtNoHistory(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT created_at FROM scan_events`).
		WithArgs("ip:9.9.9.9", "ai-visibility").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}))

	got, err := store.LastScanEventAt(context.Background(), "ip:9.9.9.9", "ai-visibility")
	if err != nil {
		t.Fatalf("LastScanEventAt error: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for no history, got %v", got)
	}
}

func TestInsertScanEvent(t *testing.T) {
	store, mock := newMockStore(t)
	event := quota.ScanEvent{
		Identity:   "ip:1.2.3.4",
		Tool:       "ai-visibility",
		Payload:    "Acme Clinic",
		DurationMS: 12000,
		CreatedAt:  time.Date(2025, 6, 15, 13, 30, 0, 0, time.UTC),
	}

	mock.ExpectExec(`INSERT INTO scan_events`).
		WithArgs(sqlmock.AnyArg(), event.Identity, event.Tool, event.Payload, event.DurationMS, event.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.InsertScanEvent(context.Background(), event); err != nil {
		t.Fatalf("InsertScanEvent error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
