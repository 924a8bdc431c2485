package scanner

import (
	"strings"
	"testing"

	"geoscan/providers"
)

func hasRecommendation(recs []string, title string) bool {
	for _, t := range recs {
		if t == title {
			return true
		}
	}
	return false
}

func titlesOf(results []providers.PromptResult) []string {
	recs := Recommendations(results)
	titles := make([]string, len(recs))
	for i, r := range recs {
		titles[i] = r.Title
	}
	return titles
}

func TestRecommendationsZeroMentions(t *testing.T) {
	results := []providers.PromptResult{
		missedResult(providers.ProviderChatGPT, "best clinic"),
		missedResult(providers.ProviderPerplexity, "best clinic"),
	}

	titles := titlesOf(results)
	for _, want := range []string{
		"Not mentioned in AI answers",
		"Answer the search intent directly",
		"Add concrete facts and entities",
		"Add FAQ structured markup",
		"Verify AI crawler access",
	} {
		if !hasRecommendation(titles, want) {
			t.Errorf("missing recommendation %q, got %v", want, titles)
		}
	}
}

func TestRecommendationsHighVisibility(t *testing.T) {
	results := []providers.PromptResult{
		mentionedResult(providers.ProviderChatGPT, "best clinic", 1, "s"),
		mentionedResult(providers.ProviderPerplexity, "best clinic", 1, "s"),
	}

	titles := titlesOf(results)
	for _, absent := range []string{
		"Not mentioned in AI answers",
		"Answer the search intent directly",
		"Add concrete facts and entities",
	} {
		if hasRecommendation(titles, absent) {
			t.Errorf("unexpected recommendation %q for full visibility", absent)
		}
	}
	// The structural pair is always present.
	if !hasRecommendation(titles, "Add FAQ structured markup") || !hasRecommendation(titles, "Verify AI crawler access") {
		t.Errorf("structural recommendations missing, got %v", titles)
	}
}

func TestRecommendationsPrioritySorted(t *testing.T) {
	recs := Recommendations([]providers.PromptResult{
		missedResult(providers.ProviderChatGPT, "best clinic"),
	})

	order := map[string]int{"critical": 0, "high": 1, "medium": 2, "low": 3}
	for i := 1; i < len(recs); i++ {
		if order[recs[i-1].Priority] > order[recs[i].Priority] {
			t.Errorf("recommendations not sorted by priority: %s before %s",
				recs[i-1].Priority, recs[i].Priority)
		}
	}
}

func TestRecommendationsCompetitorCallout(t *testing.T) {
	results := []providers.PromptResult{
		{Provider: providers.ProviderChatGPT, Prompt: "p1", Competitors: []string{"Tandarts Visser", "Kliniek Noord"}},
		{Provider: providers.ProviderPerplexity, Prompt: "p1", Competitors: []string{"Tandarts Visser"}},
	}

	recs := Recommendations(results)
	var callout string
	for _, r := range recs {
		if r.Category == "competitive" {
			callout = r.Description
		}
	}
	if callout == "" {
		t.Fatal("expected a competitor callout")
	}
	if !strings.Contains(callout, "Tandarts Visser (2x)") {
		t.Errorf("callout should name the top competitor with its count: %q", callout)
	}
	if !strings.Contains(callout, "Kliniek Noord (1x)") {
		t.Errorf("callout should include the runner-up: %q", callout)
	}
}

func TestTopCompetitorsLimit(t *testing.T) {
	results := []providers.PromptResult{
		{Competitors: []string{"A", "B", "C", "D", "E"}},
	}
	top := topCompetitors(results, 3)
	if len(top) != 3 {
		t.Errorf("topCompetitors returned %d entries, want 3", len(top))
	}
}
