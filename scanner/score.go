package scanner

import (
	"math"

	"geoscan/providers"
)

// ComputeScore reduces raw prompt results to the 0-100 visibility score.
// The weights: mention rate 40, average position 20, provider coverage 15,
// prompt coverage 15, snippet quality 10. Pure function of its inputs.
func ComputeScore(results []providers.PromptResult, providerList []providers.ID) int {
	if len(results) == 0 {
		return 0
	}

	total := float64(len(results))
	var mentioned []providers.PromptResult
	for _, r := range results {
		if r.Mentioned {
			mentioned = append(mentioned, r)
		}
	}

	mentionScore := float64(len(mentioned)) / total * 40

	// Average position bucket over mentioned results that carry one; a brand
	// never seen near the top defaults to the worst bucket.
	avgPos := 10.0
	var positions []int
	for _, r := range mentioned {
		if r.Position > 0 {
			positions = append(positions, r.Position)
		}
	}
	if len(positions) > 0 {
		sum := 0
		for _, p := range positions {
			sum += p
		}
		avgPos = float64(sum) / float64(len(positions))
	}
	positionScore := math.Max(0, 1-(avgPos-1)/9) * 20

	providersWithMention := make(map[providers.ID]bool)
	promptsWithMention := make(map[string]bool)
	withSnippet := 0
	for _, r := range mentioned {
		providersWithMention[r.Provider] = true
		promptsWithMention[r.Prompt] = true
		if r.Snippet != "" {
			withSnippet++
		}
	}

	distinctPrompts := make(map[string]bool)
	for _, r := range results {
		distinctPrompts[r.Prompt] = true
	}

	platformScore := 0.0
	if len(providerList) > 0 {
		platformScore = float64(len(providersWithMention)) / float64(len(providerList)) * 15
	}
	promptScore := 0.0
	if len(distinctPrompts) > 0 {
		promptScore = float64(len(promptsWithMention)) / float64(len(distinctPrompts)) * 15
	}
	qualityScore := math.Min(1, float64(withSnippet)/total) * 10

	score := math.Round(mentionScore + positionScore + platformScore + promptScore + qualityScore)
	return int(math.Min(100, math.Max(0, score)))
}
