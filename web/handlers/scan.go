package handlers

import (
	"net/http"
	"time"

	"geoscan/database"
	apperrors "geoscan/errors"
	"geoscan/quota"
	"geoscan/scanner"
	"geoscan/web/middleware"
	"geoscan/web/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ScanHandler struct {
	orchestrator *scanner.Orchestrator
	quota        *quota.Manager
	reports      *scanner.ReportBuilder
	store        *database.PostgresStore
	logger       *zap.Logger
}

type ScanRequest struct {
	Tool      string   `json:"tool"`
	BrandName string   `json:"brandName"`
	Website   string   `json:"website"`
	SiteLabel string   `json:"siteLabel"`
	Locale    string   `json:"locale"`
	Prompts   []string `json:"prompts"`
}

func NewScanHandler(orch *scanner.Orchestrator, quotaMgr *quota.Manager, reports *scanner.ReportBuilder, store *database.PostgresStore, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{
		orchestrator: orch,
		quota:        quotaMgr,
		reports:      reports,
		store:        store,
		logger:       logger,
	}
}

// Scan runs a full visibility scan for the caller. The quota check happens
// before any provider call; a denial carries the cooldown and reset metadata
// so the client can render a precise message.
func (h *ScanHandler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Tool == "" {
		req.Tool = "ai-visibility"
	}

	identity := middleware.ResolveIdentity(c)
	decision, err := h.quota.CanScan(c.Request.Context(), identity, req.Tool)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Could not verify scan quota", h.logger)
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, quotaResponse(decision))
		return
	}

	scanReq := scanner.Request{
		Tool:      req.Tool,
		BrandName: req.BrandName,
		Website:   req.Website,
		SiteLabel: req.SiteLabel,
		Locale:    req.Locale,
		Prompts:   req.Prompts,
	}
	sessionToken := middleware.SessionToken(c)
	if identity.Anonymous() {
		scanReq.SessionToken = &sessionToken
	} else {
		scanReq.OwnerID = &identity.AccountID
	}

	started := time.Now()
	rec, err := h.orchestrator.Run(c.Request.Context(), scanReq)
	if err != nil {
		if apperrors.IsInvalidInput(err) {
			respondWithClientError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(c, http.StatusInternalServerError, err, "Scan failed", h.logger,
			zap.String("brand", req.BrandName))
		return
	}

	h.quota.RecordScan(identity, req.Tool, req.BrandName, time.Since(started))
	if identity.Anonymous() {
		h.saveDiscovery(c, rec, sessionToken)
	}

	c.JSON(http.StatusOK, gin.H{
		"scanId":                 rec.ID.String(),
		"perProviderFoundCounts": rec.ProviderFound,
		"totalMentions":          rec.TotalMentions,
		"totalDurationMs":        rec.DurationMS,
	})
}

// saveDiscovery keeps an anonymous caller's prompt set in its own claimable
// row. Best-effort: the scan already succeeded.
func (h *ScanHandler) saveDiscovery(c *gin.Context, rec *types.ScanRecord, sessionToken string) {
	d := &types.DiscoveryResult{
		ID:           uuid.New(),
		SessionToken: &sessionToken,
		BrandName:    rec.BrandName,
		Website:      rec.Website,
		Prompts:      rec.Prompts,
		Status:       "scanned",
		CreatedAt:    time.Now(),
	}
	if err := h.store.InsertDiscoveryResult(c.Request.Context(), d); err != nil {
		h.logger.Warn("Failed to save discovery result",
			zap.String("scan_id", rec.ID.String()), zap.Error(err))
	}
}

// Rescan re-runs a stored scan's prompts and replaces its results in place.
// Only the record's owner (or the anonymous session that created it) may
// trigger one, and a rescan spends quota like a fresh scan.
func (h *ScanHandler) Rescan(c *gin.Context) {
	scanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid scan ID")
		return
	}

	rec, err := h.store.GetScanRecord(c.Request.Context(), scanID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			respondWithClientError(c, http.StatusNotFound, "Scan not found")
			return
		}
		respondWithError(c, http.StatusInternalServerError, err, "Could not load scan", h.logger)
		return
	}

	identity := middleware.ResolveIdentity(c)
	if !canRescan(rec, identity, middleware.SessionToken(c)) {
		respondWithClientError(c, http.StatusForbidden, "You do not own this scan")
		return
	}

	decision, err := h.quota.CanScan(c.Request.Context(), identity, rec.Tool)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Could not verify scan quota", h.logger)
		return
	}
	if !decision.Allowed {
		c.JSON(http.StatusTooManyRequests, quotaResponse(decision))
		return
	}

	started := time.Now()
	if err := h.orchestrator.Rescan(c.Request.Context(), rec); err != nil {
		if apperrors.IsInvalidInput(err) {
			respondWithClientError(c, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(c, http.StatusInternalServerError, err, "Rescan failed", h.logger,
			zap.String("scan_id", scanID.String()))
		return
	}

	h.quota.RecordScan(identity, rec.Tool, rec.BrandName, time.Since(started))
	h.reports.Invalidate(scanID)

	c.JSON(http.StatusOK, gin.H{
		"scanId":                 rec.ID.String(),
		"perProviderFoundCounts": rec.ProviderFound,
		"totalMentions":          rec.TotalMentions,
		"totalDurationMs":        rec.DurationMS,
	})
}

func canRescan(rec *types.ScanRecord, identity quota.Identity, sessionToken string) bool {
	if rec.OwnerID != nil {
		return identity.AccountID == *rec.OwnerID
	}
	return rec.SessionToken != nil && *rec.SessionToken == sessionToken
}

// Quota is the side-effect-free probe the frontend polls before showing the
// scan button. It never records anything.
func (h *ScanHandler) Quota(c *gin.Context) {
	tool := c.Query("tool")
	if tool == "" {
		tool = "ai-visibility"
	}

	identity := middleware.ResolveIdentity(c)
	decision, err := h.quota.CanScan(c.Request.Context(), identity, tool)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Could not verify scan quota", h.logger)
		return
	}
	c.JSON(http.StatusOK, quotaResponse(decision))
}

// Report returns the scored report for a stored scan.
func (h *ScanHandler) Report(c *gin.Context) {
	scanID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondWithClientError(c, http.StatusBadRequest, "Invalid scan ID")
		return
	}

	report, err := h.reports.BuildReport(c.Request.Context(), scanID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			respondWithClientError(c, http.StatusNotFound, "Scan not found")
			return
		}
		respondWithError(c, http.StatusInternalServerError, err, "Could not build report", h.logger,
			zap.String("scan_id", scanID.String()))
		return
	}
	c.JSON(http.StatusOK, report)
}

// History lists the authenticated caller's recent scans, newest first.
func (h *ScanHandler) History(c *gin.Context) {
	identity := middleware.ResolveIdentity(c)
	if identity.Anonymous() {
		respondWithClientError(c, http.StatusUnauthorized, "Sign in to view scan history")
		return
	}

	records, err := h.store.ListScanRecords(c.Request.Context(), identity.AccountID, 20)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err, "Could not load scan history", h.logger)
		return
	}
	c.JSON(http.StatusOK, gin.H{"scans": records})
}

// quotaResponse shapes a quota decision for the wire. Cooldown is null when no
// cooldown is active so clients can distinguish "none" from "zero".
func quotaResponse(d quota.Decision) gin.H {
	var cooldown *int
	if d.CooldownSecondsLeft > 0 {
		cooldown = &d.CooldownSecondsLeft
	}
	resp := gin.H{
		"allowed":             d.Allowed,
		"remaining":           d.Remaining,
		"cooldownSecondsLeft": cooldown,
		"resetsAt":            d.ResetsAt,
	}
	if d.Unlimited {
		resp["unlimited"] = true
	}
	if d.Reason != "" {
		resp["reason"] = d.Reason
	}
	return resp
}
