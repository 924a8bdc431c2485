package scanner

import (
	"context"
	"testing"

	apperrors "geoscan/errors"
	"geoscan/providers"
	"geoscan/web/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type fakeReportStore struct {
	records map[uuid.UUID]*types.ScanRecord
	loads   int
}

func (f *fakeReportStore) GetScanRecord(ctx context.Context, id uuid.UUID) (*types.ScanRecord, error) {
	f.loads++
	rec, ok := f.records[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return rec, nil
}

func sampleRecord() *types.ScanRecord {
	return &types.ScanRecord{
		ID:        uuid.New(),
		BrandName: "Acme Clinic",
		Prompts:   []string{"best clinic", "top dentist"},
		Results: []providers.PromptResult{
			mentionedResult(providers.ProviderChatGPT, "best clinic", 1, "s"),
			mentionedResult(providers.ProviderPerplexity, "best clinic", 2, "s"),
			missedResult(providers.ProviderChatGPT, "top dentist"),
			missedResult(providers.ProviderPerplexity, "top dentist"),
		},
	}
}

func newTestBuilder(t *testing.T, store RecordStore) *ReportBuilder {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	builder, err := NewReportBuilder(store, 8, logger)
	if err != nil {
		t.Fatalf("NewReportBuilder: %v", err)
	}
	return builder
}

func TestBuildReport(t *testing.T) {
	rec := sampleRecord()
	store := &fakeReportStore{records: map[uuid.UUID]*types.ScanRecord{rec.ID: rec}}
	builder := newTestBuilder(t, store)

	report, err := builder.BuildReport(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("BuildReport error: %v", err)
	}

	if report.ScanID != rec.ID {
		t.Errorf("scan id = %v, want %v", report.ScanID, rec.ID)
	}
	if report.GeoScore <= 0 || report.GeoScore > 100 {
		t.Errorf("geo score = %d, want within (0,100]", report.GeoScore)
	}
	if len(report.Providers) != 2 {
		t.Fatalf("got %d provider breakdowns, want 2", len(report.Providers))
	}
	for _, pb := range report.Providers {
		if pb.Found != 1 || pb.Total != 2 {
			t.Errorf("provider %s breakdown = %+v, want 1/2", pb.Provider, pb)
		}
	}
	if len(report.Prompts) != 2 {
		t.Fatalf("got %d prompt breakdowns, want 2", len(report.Prompts))
	}
	if report.Prompts[0].Prompt != "best clinic" || report.Prompts[0].Mentioned != 2 {
		t.Errorf("first prompt breakdown = %+v", report.Prompts[0])
	}
	if report.Prompts[1].Mentioned != 0 {
		t.Errorf("second prompt breakdown = %+v", report.Prompts[1])
	}
	if len(report.Recommendations) == 0 {
		t.Error("expected recommendations")
	}
}

func TestBuildReportCaches(t *testing.T) {
	rec := sampleRecord()
	store := &fakeReportStore{records: map[uuid.UUID]*types.ScanRecord{rec.ID: rec}}
	builder := newTestBuilder(t, store)

	for i := 0; i < 3; i++ {
		if _, err := builder.BuildReport(context.Background(), rec.ID); err != nil {
			t.Fatalf("BuildReport error: %v", err)
		}
	}
	if store.loads != 1 {
		t.Errorf("store loads = %d, want 1 (cached afterwards)", store.loads)
	}

	builder.Invalidate(rec.ID)
	if _, err := builder.BuildReport(context.Background(), rec.ID); err != nil {
		t.Fatalf("BuildReport error: %v", err)
	}
	if store.loads != 2 {
		t.Errorf("store loads after invalidate = %d, want 2", store.loads)
	}
}

func TestBuildReportNotFound(t *testing.T) {
	store := &fakeReportStore{records: map[uuid.UUID]*types.ScanRecord{}}
	builder := newTestBuilder(t, store)

	_, err := builder.BuildReport(context.Background(), uuid.New())
	if !apperrors.IsNotFound(err) {
		t.Errorf("expected not found error, got %v", err)
	}
}
