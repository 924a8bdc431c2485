package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"geoscan/config"
	apperrors "geoscan/errors"
	"geoscan/matcher"

	"go.uber.org/zap"
)

// overviewBlock mirrors the nested shape of generated-overview content:
// text blocks carrying a snippet plus optional sub-lists and expandable
// sections that nest further blocks.
type overviewBlock struct {
	Snippet    string          `json:"snippet"`
	Text       string          `json:"text"`
	List       []overviewBlock `json:"list"`
	TextBlocks []overviewBlock `json:"text_blocks"`
}

type overviewReference struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Source  string `json:"source"`
	Snippet string `json:"snippet"`
}

type aiOverview struct {
	// A page token instead of content means a second call is needed to
	// resolve the full overview. Tokens expire quickly; never cache them.
	PageToken  string              `json:"page_token"`
	Text       string              `json:"text"`
	TextBlocks []overviewBlock     `json:"text_blocks"`
	References []overviewReference `json:"references"`
	Sources    []overviewReference `json:"sources"`
}

type searchResponse struct {
	AIOverview *aiOverview `json:"ai_overview"`
}

// OverviewProvider scans prompts against a search engine's generated-overview
// feature through a search API. The flow is two-phase: a regular search first,
// then a follow-up by continuation token when the overview content is not
// inlined.
type OverviewProvider struct {
	cfg        *config.Config
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOverviewProvider(cfg *config.Config, logger *zap.Logger) (*OverviewProvider, error) {
	if cfg.SerpAPIKey == "" {
		return nil, apperrors.WrapError(apperrors.ErrProviderConfig, "SERPAPI_KEY is not set")
	}
	return &OverviewProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.OverviewTimeout},
		logger:     logger,
	}, nil
}

func (p *OverviewProvider) ID() ID {
	return ProviderOverview
}

func (p *OverviewProvider) Scan(ctx context.Context, prompt string, variants *matcher.VariantSet, locale string) PromptResult {
	overview, err := p.fetchOverview(ctx, prompt, locale)
	if err != nil {
		p.logger.Warn("Overview scan failed",
			zap.String("prompt", truncate(prompt, 60)),
			zap.Error(err))
		return failedResult(ProviderOverview, prompt, err)
	}

	result := PromptResult{Provider: ProviderOverview, Prompt: prompt}
	if overview == nil {
		// No generated overview for this query; that is data, not an error.
		return result
	}
	result.HasOverview = true

	text := flattenOverviewText(overview)
	mention := matcher.DetectMention(text, variants)
	result.Mentioned = mention.Mentioned
	result.MentionCount = mention.Count
	result.Position = mention.PositionBucket
	if mention.Mentioned {
		result.Snippet = matcher.ExtractSnippet(text, mention.MatchedTerm)
	}

	seen := make(map[string]bool)
	for _, ref := range append(overview.References, overview.Sources...) {
		src := classifySource(ref, variants)
		result.Sources = append(result.Sources, src)

		// A brand hit in the cited sources counts as a mention even when the
		// overview prose itself does not name the brand.
		if src.IsBrand && !result.Mentioned {
			result.Mentioned = true
			result.MentionCount = 1
		}
		if !src.IsBrand {
			name := CleanCompetitorTitle(ref.Title)
			if name == "" {
				name = cleanDomain(ref.Link)
			}
			key := strings.ToLower(name)
			if name != "" && !seen[key] && len(result.Competitors) < maxCompetitors {
				seen[key] = true
				result.Competitors = append(result.Competitors, name)
			}
		}
	}
	return result
}

// fetchOverview runs the search call and, when the overview arrives as a
// continuation token, the follow-up call that resolves the full content.
// A nil overview with nil error means the query produced no overview at all.
func (p *OverviewProvider) fetchOverview(ctx context.Context, prompt, locale string) (*aiOverview, error) {
	params := url.Values{
		"engine":   {"google"},
		"q":        {prompt},
		"api_key":  {p.cfg.SerpAPIKey},
		"gl":       {strings.ToLower(countryForLocale(locale))},
		"hl":       {strings.ToLower(locale)},
		"no_cache": {"true"},
	}

	overview, err := p.search(ctx, params)
	if err != nil {
		return nil, err
	}
	if overview == nil || overview.PageToken == "" {
		return overview, nil
	}

	followUp := url.Values{
		"engine":     {"google_ai_overview"},
		"page_token": {overview.PageToken},
		"api_key":    {p.cfg.SerpAPIKey},
	}
	resolved, err := p.search(ctx, followUp)
	if err != nil {
		return nil, fmt.Errorf("resolve overview token: %w", err)
	}
	return resolved, nil
}

func (p *OverviewProvider) search(ctx context.Context, params url.Values) (*aiOverview, error) {
	endpoint := fmt.Sprintf("%s/search.json?%s", strings.TrimRight(p.cfg.SerpAPIHost, "/"), params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send search request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search server status %s: %s", resp.Status, truncate(string(bodyBytes), 200))
	}

	var sr searchResponse
	if err := json.Unmarshal(bodyBytes, &sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return sr.AIOverview, nil
}

// flattenOverviewText walks the nested block structure recursively and
// concatenates every leaf snippet, including reference titles and snippets so
// mentions in cited material are detectable too.
func flattenOverviewText(overview *aiOverview) string {
	var sb strings.Builder
	if overview.Text != "" {
		sb.WriteString(overview.Text)
		sb.WriteString(" ")
	}
	for _, block := range overview.TextBlocks {
		flattenBlock(block, &sb)
	}
	for _, ref := range append(overview.References, overview.Sources...) {
		if ref.Title != "" {
			sb.WriteString(ref.Title)
			sb.WriteString(" ")
		}
		if ref.Snippet != "" {
			sb.WriteString(ref.Snippet)
			sb.WriteString(" ")
		}
	}
	return strings.TrimSpace(sb.String())
}

func flattenBlock(block overviewBlock, sb *strings.Builder) {
	if block.Snippet != "" {
		sb.WriteString(block.Snippet)
		sb.WriteString(" ")
	}
	if block.Text != "" {
		sb.WriteString(block.Text)
		sb.WriteString(" ")
	}
	for _, item := range block.List {
		flattenBlock(item, sb)
	}
	for _, nested := range block.TextBlocks {
		flattenBlock(nested, sb)
	}
}

// classifySource marks a cited source as the brand's own when its title, link
// or source name matches any variant.
func classifySource(ref overviewReference, variants *matcher.VariantSet) Source {
	src := Source{
		Link:   ref.Link,
		Title:  ref.Title,
		Domain: cleanDomain(ref.Link),
	}
	if variants != nil {
		haystack := strings.Join([]string{ref.Title, ref.Link, ref.Source}, " ")
		src.IsBrand = matchesVariants(haystack, variants)
	}
	return src
}

func cleanDomain(link string) string {
	u, err := url.Parse(link)
	if err != nil || u.Hostname() == "" {
		return matcher.ExtractDomain(link)
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}
