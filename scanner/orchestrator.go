package scanner

import (
	"context"
	"strings"
	"sync"
	"time"

	"geoscan/config"
	apperrors "geoscan/errors"
	"geoscan/matcher"
	"geoscan/providers"
	"geoscan/web/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence the orchestrator needs for finished scans.
type Store interface {
	InsertScanRecord(ctx context.Context, rec *types.ScanRecord) error
	ReplaceScanResults(ctx context.Context, rec *types.ScanRecord) error
}

// Request describes one scan to run.
type Request struct {
	Tool         string
	BrandName    string
	Website      string
	SiteLabel    string
	Locale       string
	Prompts      []string
	OwnerID      *string
	SessionToken *string
}

// Orchestrator fans prompts out across the enabled providers in small
// sequential batches and assembles the combined scan record.
type Orchestrator struct {
	cfg       *config.Config
	providers []providers.Provider
	store     Store
	notifier  *Notifier
	logger    *zap.Logger
}

func NewOrchestrator(cfg *config.Config, provs []providers.Provider, store Store, notifier *Notifier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		providers: provs,
		store:     store,
		notifier:  notifier,
		logger:    logger,
	}
}

// Providers returns the ids of the enabled providers, in scan order.
func (o *Orchestrator) Providers() []providers.ID {
	ids := make([]providers.ID, len(o.providers))
	for i, p := range o.providers {
		ids[i] = p.ID()
	}
	return ids
}

// Run executes the scan: prompts are partitioned into batches, every prompt
// in a batch runs on every provider concurrently, and batches run strictly
// one after another. The assembled record is persisted before returning;
// a failed write is logged and the computed result still returned, so a
// persistence outage degrades durability, never availability.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*types.ScanRecord, error) {
	prompts := cleanPrompts(req.Prompts, o.cfg.MaxPromptsPerScan)
	if len(prompts) == 0 {
		return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "at least one prompt is required")
	}

	variants := matcher.BuildVariants(req.BrandName, req.Website, req.SiteLabel)
	if variants.Empty() {
		return nil, apperrors.WrapError(apperrors.ErrInvalidInput, "brand name or website is required")
	}

	locale := req.Locale
	if locale == "" {
		locale = o.cfg.DefaultLocale
	}

	o.logger.Info("Starting scan",
		zap.String("brand", req.BrandName),
		zap.Int("prompts", len(prompts)),
		zap.Int("providers", len(o.providers)))
	started := time.Now()

	results := o.runBatches(ctx, prompts, variants, locale)
	rec := o.assemble(req, prompts, results, time.Since(started))

	if err := o.store.InsertScanRecord(ctx, rec); err != nil {
		o.logger.Error("Failed to persist scan record",
			zap.String("scan_id", rec.ID.String()),
			zap.Error(err))
	}
	o.notifier.NotifyScanComplete(rec)

	o.logger.Info("Scan complete",
		zap.String("scan_id", rec.ID.String()),
		zap.Int("total_mentions", rec.TotalMentions),
		zap.Int64("duration_ms", rec.DurationMS))
	return rec, nil
}

// Rescan re-runs a stored scan's prompts and replaces its results in place.
// The record keeps its id and owner; only the result payload and timing
// change. The cached report for the scan must be invalidated by the caller.
func (o *Orchestrator) Rescan(ctx context.Context, rec *types.ScanRecord) error {
	prompts := cleanPrompts(rec.Prompts, o.cfg.MaxPromptsPerScan)
	if len(prompts) == 0 {
		return apperrors.WrapError(apperrors.ErrInvalidInput, "scan record has no prompts")
	}
	variants := matcher.BuildVariants(rec.BrandName, rec.Website, "")
	if variants.Empty() {
		return apperrors.WrapError(apperrors.ErrInvalidInput, "scan record has no usable brand")
	}

	locale := rec.Locale
	if locale == "" {
		locale = o.cfg.DefaultLocale
	}

	o.logger.Info("Starting rescan",
		zap.String("scan_id", rec.ID.String()),
		zap.Int("prompts", len(prompts)))
	started := time.Now()

	results := o.runBatches(ctx, prompts, variants, locale)
	found, totalMentions := o.tally(results)

	rec.Prompts = prompts
	rec.Results = results
	rec.ProviderFound = found
	rec.TotalMentions = totalMentions
	rec.DurationMS = time.Since(started).Milliseconds()

	if err := o.store.ReplaceScanResults(ctx, rec); err != nil {
		o.logger.Error("Failed to replace scan results",
			zap.String("scan_id", rec.ID.String()),
			zap.Error(err))
	}
	o.notifier.NotifyScanComplete(rec)
	return nil
}

// runBatches partitions the prompts into batches and scans every prompt in a
// batch on every provider concurrently. Results land in a pre-sized slice
// indexed by prompt and provider, so output order is deterministic regardless
// of goroutine scheduling.
func (o *Orchestrator) runBatches(ctx context.Context, prompts []string, variants *matcher.VariantSet, locale string) []providers.PromptResult {
	results := make([]providers.PromptResult, len(prompts)*len(o.providers))
	batchSize := o.cfg.ScanBatchSize
	if batchSize < 1 {
		batchSize = 1
	}

	for start := 0; start < len(prompts); start += batchSize {
		end := start + batchSize
		if end > len(prompts) {
			end = len(prompts)
		}

		var wg sync.WaitGroup
		for pi := start; pi < end; pi++ {
			for vi, provider := range o.providers {
				wg.Add(1)
				go func(pi, vi int, provider providers.Provider) {
					defer wg.Done()
					results[pi*len(o.providers)+vi] = provider.Scan(ctx, prompts[pi], variants, locale)
				}(pi, vi, provider)
			}
		}
		wg.Wait()
	}
	return results
}

func (o *Orchestrator) tally(results []providers.PromptResult) (map[providers.ID]int, int) {
	found := make(map[providers.ID]int, len(o.providers))
	for _, p := range o.providers {
		found[p.ID()] = 0
	}
	totalMentions := 0
	for _, r := range results {
		if r.Mentioned {
			found[r.Provider]++
			totalMentions++
		}
	}
	return found, totalMentions
}

func (o *Orchestrator) assemble(req Request, prompts []string, results []providers.PromptResult, elapsed time.Duration) *types.ScanRecord {
	found, totalMentions := o.tally(results)

	return &types.ScanRecord{
		ID:            uuid.New(),
		OwnerID:       req.OwnerID,
		SessionToken:  req.SessionToken,
		Tool:          req.Tool,
		BrandName:     req.BrandName,
		Website:       req.Website,
		Locale:        req.Locale,
		Prompts:       prompts,
		Results:       results,
		ProviderFound: found,
		TotalMentions: totalMentions,
		DurationMS:    elapsed.Milliseconds(),
		CreatedAt:     time.Now(),
	}
}

func cleanPrompts(prompts []string, max int) []string {
	cleaned := make([]string, 0, len(prompts))
	for _, p := range prompts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		cleaned = append(cleaned, p)
		if len(cleaned) == max {
			break
		}
	}
	return cleaned
}
