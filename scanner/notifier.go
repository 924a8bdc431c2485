package scanner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"geoscan/web/types"

	"go.uber.org/zap"
)

// Notifier posts a one-line scan summary to a webhook. Notification is
// fire-and-forget: the scan response never waits for it and a failed post is
// only logged.
type Notifier struct {
	webhookURL string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewNotifier(webhookURL string, logger *zap.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// NotifyScanComplete spawns the webhook post in the background.
func (n *Notifier) NotifyScanComplete(rec *types.ScanRecord) {
	if n == nil || n.webhookURL == "" {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		payload, err := json.Marshal(map[string]string{"text": summaryLine(rec)})
		if err != nil {
			return
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := n.httpClient.Do(req)
		if err != nil {
			n.logger.Warn("Scan notification failed", zap.Error(err))
			return
		}
		resp.Body.Close()
	}()
}

func summaryLine(rec *types.ScanRecord) string {
	parts := make([]string, 0, len(rec.ProviderFound))
	for id, found := range rec.ProviderFound {
		parts = append(parts, fmt.Sprintf("%s %d/%d", id, found, len(rec.Prompts)))
	}
	return fmt.Sprintf("Scan %s (%s) — %d prompts → %s (%.0fs)",
		rec.BrandName, rec.Website, len(rec.Prompts),
		strings.Join(parts, ", "), float64(rec.DurationMS)/1000)
}
