package scanner

import (
	"context"

	apperrors "geoscan/errors"
	"geoscan/providers"
	"geoscan/web/types"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// RecordStore loads persisted scans for report assembly.
type RecordStore interface {
	GetScanRecord(ctx context.Context, id uuid.UUID) (*types.ScanRecord, error)
}

// ReportBuilder derives scored reports from stored scan records. Reports are
// pure functions of the record, so a small LRU cache keyed by scan id avoids
// recomputing them for repeated views. The cache entry is dropped whenever a
// rescan replaces the underlying results.
type ReportBuilder struct {
	store  RecordStore
	cache  *lru.Cache
	logger *zap.Logger
}

func NewReportBuilder(store RecordStore, cacheSize int, logger *zap.Logger) (*ReportBuilder, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, apperrors.WrapError(err, "create report cache")
	}
	return &ReportBuilder{store: store, cache: cache, logger: logger}, nil
}

// BuildReport returns the scored report for a scan, computing and caching it
// on first request.
func (b *ReportBuilder) BuildReport(ctx context.Context, scanID uuid.UUID) (*types.ScanReport, error) {
	if cached, ok := b.cache.Get(scanID); ok {
		return cached.(*types.ScanReport), nil
	}

	rec, err := b.store.GetScanRecord(ctx, scanID)
	if err != nil {
		return nil, err
	}

	report := buildReport(rec)
	b.cache.Add(scanID, report)
	b.logger.Debug("Report computed", zap.String("scan_id", scanID.String()), zap.Int("geo_score", report.GeoScore))
	return report, nil
}

// Invalidate drops the cached report for a scan whose results changed.
func (b *ReportBuilder) Invalidate(scanID uuid.UUID) {
	b.cache.Remove(scanID)
}

func buildReport(rec *types.ScanRecord) *types.ScanReport {
	providerIDs := providerOrder(rec)

	providerTotals := make(map[providers.ID]*types.ProviderBreakdown, len(providerIDs))
	breakdowns := make([]types.ProviderBreakdown, len(providerIDs))
	for i, id := range providerIDs {
		breakdowns[i] = types.ProviderBreakdown{Provider: id}
		providerTotals[id] = &breakdowns[i]
	}

	promptTotals := make(map[string]*types.PromptBreakdown, len(rec.Prompts))
	promptBreakdowns := make([]types.PromptBreakdown, len(rec.Prompts))
	for i, p := range rec.Prompts {
		promptBreakdowns[i] = types.PromptBreakdown{Prompt: p}
		promptTotals[p] = &promptBreakdowns[i]
	}

	for _, r := range rec.Results {
		if pb, ok := providerTotals[r.Provider]; ok {
			pb.Total++
			if r.Mentioned {
				pb.Found++
			}
		}
		if pb, ok := promptTotals[r.Prompt]; ok {
			pb.Total++
			if r.Mentioned {
				pb.Mentioned++
			}
		}
	}

	return &types.ScanReport{
		ScanID:          rec.ID,
		GeoScore:        ComputeScore(rec.Results, providerIDs),
		Providers:       breakdowns,
		Prompts:         promptBreakdowns,
		Recommendations: Recommendations(rec.Results),
	}
}

// providerOrder recovers the provider set of a stored scan in first-seen
// result order, so reports stay stable across recomputation.
func providerOrder(rec *types.ScanRecord) []providers.ID {
	seen := make(map[providers.ID]bool, len(rec.ProviderFound))
	var ids []providers.ID
	for _, r := range rec.Results {
		if !seen[r.Provider] {
			seen[r.Provider] = true
			ids = append(ids, r.Provider)
		}
	}
	return ids
}
