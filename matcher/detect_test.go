package matcher

import (
	"strings"
	"testing"
)

func TestDetectMention(t *testing.T) {
	variants := BuildVariants("Acme Clinic", "https://acme-clinic.nl", "")

	tests := []struct {
		name          string
		text          string
		wantMentioned bool
		wantMinCount  int
	}{
		{
			name:          "case_insensitive_name_match",
			text:          "Many patients recommend ACME CLINIC for checkups.",
			wantMentioned: true,
			wantMinCount:  1,
		},
		{
			name:          "domain_match",
			text:          "See acme-clinic.nl for opening hours.",
			wantMentioned: true,
			wantMinCount:  1,
		},
		{
			name:          "no_match",
			text:          "Other providers dominate this market.",
			wantMentioned: false,
		},
		{
			name:          "multiple_occurrences_counted",
			text:          "Acme Clinic is popular. Acme Clinic also offers weekend slots.",
			wantMentioned: true,
			wantMinCount:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectMention(tt.text, variants)
			if got.Mentioned != tt.wantMentioned {
				t.Errorf("DetectMention() mentioned = %v, want %v", got.Mentioned, tt.wantMentioned)
			}
			if tt.wantMentioned && got.Count < tt.wantMinCount {
				t.Errorf("DetectMention() count = %d, want at least %d", got.Count, tt.wantMinCount)
			}
			if tt.wantMentioned && got.FirstIndex < 0 {
				t.Errorf("DetectMention() first index = %d, want >= 0", got.FirstIndex)
			}
		})
	}
}

func TestDetectMentionPositionBucket(t *testing.T) {
	variants := BuildVariants("acme", "", "")
	filler := strings.Repeat("x ", 450) // 900 chars of padding

	early := DetectMention("acme "+filler, variants)
	if early.PositionBucket != 1 {
		t.Errorf("early mention bucket = %d, want 1", early.PositionBucket)
	}

	late := DetectMention(filler+" acme", variants)
	if late.PositionBucket != 10 {
		t.Errorf("late mention bucket = %d, want 10", late.PositionBucket)
	}
}

func TestDetectMentionEmptyInputs(t *testing.T) {
	variants := BuildVariants("acme", "", "")
	if got := DetectMention("", variants); got.Mentioned {
		t.Error("empty text should not mention")
	}
	if got := DetectMention("acme", nil); got.Mentioned {
		t.Error("nil variant set should not mention")
	}
	if got := DetectMention("text", BuildVariants("", "", "")); got.Mentioned {
		t.Error("empty variant set should not mention")
	}
}

func TestExtractSnippet(t *testing.T) {
	text := strings.Repeat("a", 150) + "Acme Clinic is the best" + strings.Repeat("b", 300)
	snippet := ExtractSnippet(text, "acme clinic")
	if snippet == "" {
		t.Fatal("expected a snippet")
	}
	if !strings.Contains(strings.ToLower(snippet), "acme clinic") {
		t.Errorf("snippet does not contain the match: %q", snippet)
	}
	if len(snippet) > 300 {
		t.Errorf("snippet too long: %d chars", len(snippet))
	}

	if got := ExtractSnippet(text, "missing"); got != "" {
		t.Errorf("expected empty snippet for absent variant, got %q", got)
	}
}
