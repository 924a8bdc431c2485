package scanner

import (
	"testing"

	"geoscan/providers"
)

var scoreProviders = []providers.ID{providers.ProviderChatGPT, providers.ProviderPerplexity}

func mentionedResult(provider providers.ID, prompt string, position int, snippet string) providers.PromptResult {
	return providers.PromptResult{
		Provider:  provider,
		Prompt:    prompt,
		Mentioned: true,
		Position:  position,
		Snippet:   snippet,
	}
}

func missedResult(provider providers.ID, prompt string) providers.PromptResult {
	return providers.PromptResult{Provider: provider, Prompt: prompt}
}

func TestComputeScore(t *testing.T) {
	tests := []struct {
		name    string
		results []providers.PromptResult
		want    int
	}{
		{
			name:    "no_results",
			results: nil,
			want:    0,
		},
		{
			name: "zero_mentions",
			results: []providers.PromptResult{
				missedResult(providers.ProviderChatGPT, "best clinic"),
				missedResult(providers.ProviderPerplexity, "best clinic"),
			},
			want: 0,
		},
		{
			name: "perfect_visibility",
			results: []providers.PromptResult{
				mentionedResult(providers.ProviderChatGPT, "best clinic", 1, "snippet"),
				mentionedResult(providers.ProviderPerplexity, "best clinic", 1, "snippet"),
				mentionedResult(providers.ProviderChatGPT, "top dentist", 1, "snippet"),
				mentionedResult(providers.ProviderPerplexity, "top dentist", 1, "snippet"),
			},
			want: 100,
		},
		{
			name: "half_mentioned_single_provider",
			// 2 of 4 mentioned (20), avg position 1 (20), 1 of 2 providers
			// (7.5), 1 of 2 prompts (7.5), 2 of 4 snippets (5) = 60
			results: []providers.PromptResult{
				mentionedResult(providers.ProviderChatGPT, "best clinic", 1, "snippet"),
				mentionedResult(providers.ProviderChatGPT, "best clinic", 1, "snippet"),
				missedResult(providers.ProviderPerplexity, "top dentist"),
				missedResult(providers.ProviderPerplexity, "top dentist"),
			},
			want: 60,
		},
		{
			name: "worst_position_scores_nothing_for_position",
			// 1 of 1 mentioned (40), avg position 10 (0), 1 of 2 providers
			// (7.5), 1 of 1 prompts (15), no snippet (0) = 63 rounded
			results: []providers.PromptResult{
				mentionedResult(providers.ProviderChatGPT, "best clinic", 10, ""),
			},
			want: 63,
		},
		{
			name: "mentioned_without_position_defaults_to_worst",
			results: []providers.PromptResult{
				mentionedResult(providers.ProviderChatGPT, "best clinic", 0, ""),
			},
			want: 63,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeScore(tt.results, scoreProviders); got != tt.want {
				t.Errorf("ComputeScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestComputeScoreBounds(t *testing.T) {
	// Whatever the mix, the score stays inside 0..100.
	mixes := [][]providers.PromptResult{
		{mentionedResult(providers.ProviderChatGPT, "p", 1, "s")},
		{mentionedResult(providers.ProviderChatGPT, "p", 5, "")},
		{missedResult(providers.ProviderChatGPT, "p"), mentionedResult(providers.ProviderPerplexity, "q", 3, "s")},
	}
	for _, results := range mixes {
		got := ComputeScore(results, scoreProviders)
		if got < 0 || got > 100 {
			t.Errorf("ComputeScore() = %d, out of bounds", got)
		}
	}
}
