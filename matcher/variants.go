package matcher

import (
	"regexp"
	"strings"
)

// VariantSet is an ordered set of lowercase candidate strings considered
// equivalent to the brand for matching purposes. Order follows insertion so
// the most specific candidates (brand name, full domain) are tried first.
type VariantSet struct {
	variants []string
	seen     map[string]bool
}

var genericTokens = map[string]bool{
	"www": true, "cdn": true, "staging": true, "dev": true, "test": true,
	"nl": true, "com": true, "eu": true, "org": true, "net": true,
}

var (
	protocolRe   = regexp.MustCompile(`^https?://`)
	hostPrefixRe = regexp.MustCompile(`^(cdn|www|staging|dev)\.`)
	tldSuffixRe  = regexp.MustCompile(`\.(nl|com|eu|org|net)$`)
	separatorRe  = regexp.MustCompile(`[-_.]`)
)

// BuildVariants derives the candidate set from a brand name, a website URL and
// an optional site label. All candidates are lowercased; single-character and
// generic tokens (www, com, nl, ...) never make it into the set.
func BuildVariants(brandName, websiteURL, siteLabel string) *VariantSet {
	vs := &VariantSet{seen: make(map[string]bool)}

	if name := strings.ToLower(strings.TrimSpace(brandName)); len(name) > 1 {
		vs.add(name)
	}
	if label := strings.ToLower(strings.TrimSpace(siteLabel)); len(label) > 2 {
		vs.add(label)
	}

	if domain := ExtractDomain(websiteURL); domain != "" {
		vs.add(domain)
		withoutPrefix := hostPrefixRe.ReplaceAllString(domain, "")
		vs.add(withoutPrefix)
		brand := tldSuffixRe.ReplaceAllString(withoutPrefix, "")
		if len(brand) > 2 {
			vs.add(brand)
			spaced := separatorRe.ReplaceAllString(brand, " ")
			if spaced != brand {
				vs.add(spaced)
			}
		}
	}

	return vs
}

func (vs *VariantSet) add(candidate string) {
	candidate = strings.TrimSpace(candidate)
	if len(candidate) < 2 || genericTokens[candidate] || vs.seen[candidate] {
		return
	}
	vs.seen[candidate] = true
	vs.variants = append(vs.variants, candidate)
}

// Variants returns the candidates in insertion order.
func (vs *VariantSet) Variants() []string {
	return vs.variants
}

// Empty reports whether no usable candidate could be derived.
func (vs *VariantSet) Empty() bool {
	return len(vs.variants) == 0
}

// Contains reports whether the candidate is part of the set.
func (vs *VariantSet) Contains(candidate string) bool {
	return vs.seen[strings.ToLower(candidate)]
}

// ExtractDomain pulls the bare hostname out of a URL-ish string: protocol and
// path are stripped, the leading www. is not (prefix handling happens in
// BuildVariants where the prefixed and bare forms are both kept).
func ExtractDomain(rawURL string) string {
	s := strings.ToLower(strings.TrimSpace(rawURL))
	if s == "" {
		return ""
	}
	s = protocolRe.ReplaceAllString(s, "")
	if idx := strings.IndexAny(s, "/?#"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSuffix(s, ".")
	if len(s) < 2 {
		return ""
	}
	return s
}
