package providers

import (
	"bytes"
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

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model            string           `json:"model"`
	Messages         []chatMessage    `json:"messages"`
	MaxTokens        int              `json:"max_tokens,omitempty"`
	WebSearchOptions *webSearchOption `json:"web_search_options,omitempty"`
}

type webSearchOption struct {
	SearchContextSize string        `json:"search_context_size,omitempty"`
	UserLocation      *userLocation `json:"user_location,omitempty"`
}

type userLocation struct {
	Type        string `json:"type"`
	Approximate struct {
		Country string `json:"country"`
		City    string `json:"city,omitempty"`
	} `json:"approximate"`
}

type chatAnnotation struct {
	Type        string `json:"type"`
	URLCitation struct {
		URL   string `json:"url"`
		Title string `json:"title"`
	} `json:"url_citation"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content     string           `json:"content"`
			Annotations []chatAnnotation `json:"annotations"`
		} `json:"message"`
	} `json:"choices"`
	Citations []string `json:"citations"`
}

// ChatGPTProvider scans prompts against the conversational completion
// endpoint with live web search enabled.
type ChatGPTProvider struct {
	cfg        *config.Config
	httpClient *http.Client
	extractor  CompetitorExtractor
	logger     *zap.Logger
}

func NewChatGPTProvider(cfg *config.Config, logger *zap.Logger) (*ChatGPTProvider, error) {
	if cfg.OpenAIAPIKey == "" {
		return nil, apperrors.WrapError(apperrors.ErrProviderConfig, "OPENAI_API_KEY is not set")
	}
	return &ChatGPTProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.ProviderTimeout},
		extractor:  LinePatternExtractor{},
		logger:     logger,
	}, nil
}

func (p *ChatGPTProvider) ID() ID {
	return ProviderChatGPT
}

func (p *ChatGPTProvider) Scan(ctx context.Context, prompt string, variants *matcher.VariantSet, locale string) PromptResult {
	loc := &userLocation{Type: "approximate"}
	loc.Approximate.Country = countryForLocale(locale)

	reqBody := chatRequest{
		Model:     p.cfg.OpenAIModel,
		MaxTokens: 1500,
		WebSearchOptions: &webSearchOption{
			SearchContextSize: "medium",
			UserLocation:      loc,
		},
		Messages: []chatMessage{
			{Role: "system", Content: localSystemInstruction(locale)},
			{Role: "user", Content: prompt},
		},
	}

	body, annotations, err := p.complete(ctx, reqBody)
	if err != nil {
		p.logger.Warn("ChatGPT scan failed",
			zap.String("prompt", truncate(prompt, 60)),
			zap.Error(err))
		return failedResult(ProviderChatGPT, prompt, err)
	}

	result := resultFromText(ProviderChatGPT, prompt, body, variants, p.extractor)
	for _, ann := range annotations {
		if ann.Type != "url_citation" || ann.URLCitation.URL == "" {
			continue
		}
		domain := ""
		if u, perr := url.Parse(ann.URLCitation.URL); perr == nil {
			domain = u.Hostname()
		}
		result.Sources = append(result.Sources, Source{
			Link:    ann.URLCitation.URL,
			Title:   ann.URLCitation.Title,
			Domain:  domain,
			IsBrand: variants != nil && matchesVariants(ann.URLCitation.Title+" "+domain, variants),
		})
	}
	return result
}

func (p *ChatGPTProvider) complete(ctx context.Context, reqBody chatRequest) (string, []chatAnnotation, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", nil, fmt.Errorf("marshal chat request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/chat/completions", strings.TrimRight(p.cfg.OpenAIHost, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.OpenAIAPIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("chat server status %s: %s", resp.Status, truncate(string(bodyBytes), 200))
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return "", nil, fmt.Errorf("decode chat response: %w", err)
	}
	if len(cr.Choices) == 0 || cr.Choices[0].Message.Content == "" {
		return "", nil, fmt.Errorf("no response choices from chat server")
	}
	return cr.Choices[0].Message.Content, cr.Choices[0].Message.Annotations, nil
}

// localSystemInstruction biases the model toward concrete local and smaller
// businesses instead of global household names, so mention results reflect
// the market the brand actually competes in.
func localSystemInstruction(locale string) string {
	market := marketForLocale(locale)
	return fmt.Sprintf("You are a helpful assistant answering search questions for users in %s. "+
		"Search the web and give a concise, informative answer with concrete company names and recommendations active in %s. "+
		"Prefer naming local, smaller to mid-sized businesses and specialist providers over very well-known global consumer brands, "+
		"tech platforms, or SEO tools.", market, market)
}

func countryForLocale(locale string) string {
	switch strings.ToLower(locale) {
	case "nl":
		return "NL"
	case "de":
		return "DE"
	case "en", "us":
		return "US"
	default:
		return "NL"
	}
}

func marketForLocale(locale string) string {
	switch strings.ToLower(locale) {
	case "nl":
		return "the Netherlands"
	case "de":
		return "Germany"
	case "en", "us":
		return "the United States"
	default:
		return "the Netherlands"
	}
}

func matchesVariants(text string, variants *matcher.VariantSet) bool {
	textLower := strings.ToLower(text)
	for _, v := range variants.Variants() {
		if strings.Contains(textLower, v) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
