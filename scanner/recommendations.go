package scanner

import (
	"fmt"
	"sort"
	"strings"

	"geoscan/providers"
	"geoscan/web/types"
)

// Recommendations runs the deterministic rule ladder over a result set.
// Rules key on the mention rate, with an always-on structural pair and a
// callout for the most frequently extracted competitor. Output is sorted by
// priority.
func Recommendations(results []providers.PromptResult) []types.Recommendation {
	var recs []types.Recommendation

	mentionedCount := 0
	for _, r := range results {
		if r.Mentioned {
			mentionedCount++
		}
	}
	mentionRate := 0.0
	if len(results) > 0 {
		mentionRate = float64(mentionedCount) / float64(len(results))
	}

	if mentionRate == 0 {
		recs = append(recs, types.Recommendation{
			Category: "content", Priority: "high",
			Title:       "Not mentioned in AI answers",
			Description: "Your brand appears in zero prompts. Make your brand name, expertise and unique value clearly visible on the pages AI models draw from.",
		})
	}
	if mentionRate < 0.3 {
		recs = append(recs, types.Recommendation{
			Category: "content", Priority: "high",
			Title:       "Answer the search intent directly",
			Description: "Open key pages with a direct answer to the question users ask. AI models prefer sources that resolve the intent in the first paragraph.",
		})
	}
	if mentionRate < 0.5 {
		recs = append(recs, types.Recommendation{
			Category: "content", Priority: "medium",
			Title:       "Add concrete facts and entities",
			Description: "AI answer engines cite specific, verifiable information. Add statistics, years of experience, locations and named services.",
		})
	}

	recs = append(recs,
		types.Recommendation{
			Category: "schema", Priority: "high",
			Title:       "Add FAQ structured markup",
			Description: "Answer 3-5 customer questions with FAQPage structured data so answer engines can cite them directly.",
		},
		types.Recommendation{
			Category: "technical", Priority: "medium",
			Title:       "Verify AI crawler access",
			Description: "Check robots.txt and meta robots for rules blocking GPTBot, PerplexityBot or Google-Extended; a blocked crawler means no citations.",
		},
	)

	if top := topCompetitors(results, 3); len(top) > 0 {
		recs = append(recs, types.Recommendation{
			Category: "competitive", Priority: "medium",
			Title:       "Competitors in AI answers",
			Description: fmt.Sprintf("Most mentioned competitors: %s. Analyze their content to see what they do well.", strings.Join(top, ", ")),
		})
	}

	priorityOrder := map[string]int{"critical": 0, "high": 1, "medium": 2, "low": 3}
	sort.SliceStable(recs, func(i, j int) bool {
		return priorityOrder[recs[i].Priority] < priorityOrder[recs[j].Priority]
	})
	return recs
}

// topCompetitors tallies extracted competitor names across every result and
// returns the most frequent ones formatted with their counts.
func topCompetitors(results []providers.PromptResult, limit int) []string {
	counts := make(map[string]int)
	for _, r := range results {
		for _, c := range r.Competitors {
			counts[c]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > limit {
		names = names[:limit]
	}

	formatted := make([]string, len(names))
	for i, name := range names {
		formatted[i] = fmt.Sprintf("%s (%dx)", name, counts[name])
	}
	return formatted
}
