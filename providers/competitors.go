package providers

import (
	"regexp"
	"strings"

	"geoscan/matcher"
)

// CompetitorExtractor pulls competitor brand names out of a generated answer.
// The heuristics here are low-confidence by design: no score is attached and
// false positives are possible. Keeping the strategy behind an interface lets
// the heuristic be swapped or tested in isolation.
type CompetitorExtractor interface {
	Extract(text string, variants *matcher.VariantSet) []string
}

const maxCompetitors = 10

// LinePatternExtractor matches listing lines the models tend to produce:
// a leading bullet or number, a short name, then a dash or colon before the
// description ("1. Acme Clinic - a clinic in Rotterdam").
type LinePatternExtractor struct{}

var listLineRe = regexp.MustCompile(`^(?:[•▪\d]+[.)]*\s*)\*?\*?([\p{L}\p{N}][\p{L}\p{N}\s&'.-]+?)\*?\*?\s*[–—\-:]`)

func (LinePatternExtractor) Extract(text string, variants *matcher.VariantSet) []string {
	var competitors []string
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		match := listLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if match == nil {
			continue
		}
		name := strings.TrimSpace(strings.ReplaceAll(match[1], "**", ""))
		if len(name) < 2 || len(name) > 60 {
			continue
		}
		if isBrandName(name, variants) {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		competitors = append(competitors, name)
		if len(competitors) == maxCompetitors {
			break
		}
	}
	return competitors
}

// DomainExtractor collects bare domains mentioned in the answer text,
// skipping the brand's own domains and well-known reference sites.
type DomainExtractor struct{}

var domainRe = regexp.MustCompile(`(?:https?://)?(?:www\.)?([a-zA-Z0-9-]+\.[a-zA-Z]{2,})`)

var ignoredDomains = []string{"wikipedia", "perplexity", "openai", "google"}

func (DomainExtractor) Extract(text string, variants *matcher.VariantSet) []string {
	var competitors []string
	seen := make(map[string]bool)

	for _, match := range domainRe.FindAllStringSubmatch(text, -1) {
		domain := strings.ToLower(match[1])
		if seen[domain] || isBrandDomain(domain, variants) || isIgnoredDomain(domain) {
			continue
		}
		seen[domain] = true
		competitors = append(competitors, domain)
		if len(competitors) == maxCompetitors {
			break
		}
	}
	return competitors
}

func isBrandName(name string, variants *matcher.VariantSet) bool {
	if variants == nil {
		return false
	}
	nameLower := strings.ToLower(name)
	for _, v := range variants.Variants() {
		if strings.Contains(nameLower, v) {
			return true
		}
	}
	return false
}

func isBrandDomain(domain string, variants *matcher.VariantSet) bool {
	if variants == nil {
		return false
	}
	bare := strings.SplitN(domain, ".", 2)[0]
	for _, v := range variants.Variants() {
		if strings.Contains(domain, v) || strings.Contains(v, bare) {
			return true
		}
	}
	return false
}

func isIgnoredDomain(domain string) bool {
	for _, ignored := range ignoredDomains {
		if strings.Contains(domain, ignored) {
			return true
		}
	}
	return false
}

// CleanCompetitorTitle derives a display name from a source title: the part
// before a " - " or " | " separator when it looks like a name, otherwise the
// full trimmed title.
func CleanCompetitorTitle(title string) string {
	name := title
	for _, sep := range []string{" - ", " | ", " – "} {
		if idx := strings.Index(name, sep); idx > 0 {
			name = name[:idx]
			break
		}
	}
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 60 {
		return ""
	}
	return name
}
