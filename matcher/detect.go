package matcher

import (
	"regexp"
	"strings"
)

// Mention is the outcome of matching a variant set against one piece of
// generated text.
type Mention struct {
	Mentioned      bool
	Count          int
	FirstIndex     int    // byte offset of the earliest match, -1 if none
	MatchedTerm    string // variant that produced the earliest match
	PositionBucket int    // decile bucket 1..10 of FirstIndex within the text, 0 if none
}

// DetectMention runs a case-insensitive substring search for every variant.
// Count sums the matches of all variants; FirstIndex is the earliest starting
// offset among them. The position bucket places that offset in a decile of the
// text (1 = earliest tenth, 10 = latest).
func DetectMention(text string, variants *VariantSet) Mention {
	result := Mention{FirstIndex: -1}
	if text == "" || variants == nil || variants.Empty() {
		return result
	}

	textLower := strings.ToLower(text)
	for _, variant := range variants.Variants() {
		idx := strings.Index(textLower, variant)
		if idx == -1 {
			continue
		}
		result.Mentioned = true
		if result.FirstIndex == -1 || idx < result.FirstIndex {
			result.FirstIndex = idx
			result.MatchedTerm = variant
		}
		re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(variant))
		result.Count += len(re.FindAllStringIndex(text, -1))
	}

	if result.Mentioned {
		if result.Count == 0 {
			result.Count = 1
		}
		result.PositionBucket = positionBucket(result.FirstIndex, len(text))
	}
	return result
}

// positionBucket maps a match offset to its decile within the text.
func positionBucket(firstIndex, textLen int) int {
	if textLen <= 0 {
		return 1
	}
	bucket := (firstIndex*10)/textLen + 1
	if bucket < 1 {
		bucket = 1
	}
	if bucket > 10 {
		bucket = 10
	}
	return bucket
}

// ExtractSnippet returns roughly 300 characters of context centered on the
// first occurrence of the matched variant, or an empty string when the variant
// does not occur.
func ExtractSnippet(text, matchedVariant string) string {
	if text == "" || matchedVariant == "" {
		return ""
	}
	idx := strings.Index(strings.ToLower(text), strings.ToLower(matchedVariant))
	if idx == -1 {
		return ""
	}
	start := idx - 100
	if start < 0 {
		start = 0
	}
	end := idx + 200
	if end > len(text) {
		end = len(text)
	}
	return strings.TrimSpace(text[start:end])
}
