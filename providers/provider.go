package providers

import (
	"context"

	"geoscan/matcher"
)

// ID names one external AI answer surface.
type ID string

const (
	ProviderChatGPT    ID = "chatgpt"
	ProviderPerplexity ID = "perplexity"
	ProviderOverview   ID = "google-overview"
)

// Source is a citation the provider attached to its answer.
type Source struct {
	Link    string `json:"link"`
	Title   string `json:"title"`
	Domain  string `json:"domain"`
	IsBrand bool   `json:"is_brand"`
}

// PromptResult is the normalized outcome of scanning one prompt on one
// provider. It is immutable once created; adapter-specific payloads never
// leak past the adapter that produced it.
type PromptResult struct {
	Provider     ID       `json:"provider"`
	Prompt       string   `json:"prompt"`
	Mentioned    bool     `json:"mentioned"`
	MentionCount int      `json:"mention_count"`
	Position     int      `json:"position,omitempty"` // decile bucket 1..10, 0 when unknown
	Snippet      string   `json:"snippet,omitempty"`
	Competitors  []string `json:"competitors,omitempty"`
	Sources      []Source `json:"sources,omitempty"`
	HasOverview  bool     `json:"has_overview,omitempty"` // overview provider only
	Error        string   `json:"error,omitempty"`
}

// Provider scans a single prompt and reports whether any brand variant shows
// up in the generated answer. Implementations must never return an error:
// failures are folded into the PromptResult so one bad call cannot abort an
// orchestrated scan.
type Provider interface {
	ID() ID
	Scan(ctx context.Context, prompt string, variants *matcher.VariantSet, locale string) PromptResult
}

// failedResult converts an adapter failure into an unmentioned PromptResult.
func failedResult(id ID, prompt string, err error) PromptResult {
	return PromptResult{
		Provider: id,
		Prompt:   prompt,
		Error:    err.Error(),
	}
}

// resultFromText runs mention detection over a provider answer and fills the
// shared PromptResult fields every text-based adapter needs.
func resultFromText(id ID, prompt, text string, variants *matcher.VariantSet, extractor CompetitorExtractor) PromptResult {
	mention := matcher.DetectMention(text, variants)

	result := PromptResult{
		Provider:     id,
		Prompt:       prompt,
		Mentioned:    mention.Mentioned,
		MentionCount: mention.Count,
		Position:     mention.PositionBucket,
	}
	if mention.Mentioned {
		result.Snippet = matcher.ExtractSnippet(text, mention.MatchedTerm)
	}
	if extractor != nil {
		result.Competitors = extractor.Extract(text, variants)
	}
	return result
}
