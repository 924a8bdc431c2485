package types

import (
	"time"

	"geoscan/providers"

	"github.com/google/uuid"
)

// ScanRecord is the aggregate of all prompt results for one scan request.
// Exactly one identity owns it at a time: the anonymous session token until a
// claim transfers it, the account id afterwards.
type ScanRecord struct {
	ID            uuid.UUID                `json:"id"`
	OwnerID       *string                  `json:"owner_id,omitempty"`
	SessionToken  *string                  `json:"session_token,omitempty"`
	Tool          string                   `json:"tool"`
	BrandName     string                   `json:"brand_name"`
	Website       string                   `json:"website"`
	Locale        string                   `json:"locale"`
	Prompts       []string                 `json:"prompts"`
	Results       []providers.PromptResult `json:"results"`
	ProviderFound map[providers.ID]int     `json:"provider_found"`
	TotalMentions int                      `json:"total_mentions"`
	DurationMS    int64                    `json:"duration_ms"`
	CreatedAt     time.Time                `json:"created_at"`
	ClaimedAt     *time.Time               `json:"claimed_at,omitempty"`
}

// DiscoveryResult is a stored prompt set discovered for a brand, claimable by
// session token the same way scans are.
type DiscoveryResult struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      *string    `json:"owner_id,omitempty"`
	SessionToken *string    `json:"session_token,omitempty"`
	BrandName    string     `json:"brand_name"`
	Website      string     `json:"website"`
	Prompts      []string   `json:"prompts"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	ClaimedAt    *time.Time `json:"claimed_at,omitempty"`
}

// Recommendation is one improvement suggestion from the rule ladder.
type Recommendation struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ProviderBreakdown summarizes one provider's share of a scan.
type ProviderBreakdown struct {
	Provider providers.ID `json:"provider"`
	Found    int          `json:"found"`
	Total    int          `json:"total"`
}

// PromptBreakdown summarizes one prompt across all providers.
type PromptBreakdown struct {
	Prompt    string `json:"prompt"`
	Mentioned int    `json:"mentioned"`
	Total     int    `json:"total"`
}

// ScanReport is the derived score view of a persisted scan. GeoScore is not
// an independent entity; it is recomputed from the stored results on demand.
type ScanReport struct {
	ScanID          uuid.UUID           `json:"scan_id"`
	GeoScore        int                 `json:"geo_score"`
	Providers       []ProviderBreakdown `json:"providers"`
	Prompts         []PromptBreakdown   `json:"prompts"`
	Recommendations []Recommendation    `json:"recommendations"`
}
