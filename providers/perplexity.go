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

// PerplexityProvider scans prompts against a web-grounded completion model.
// Citations come back as a flat list of URLs alongside the answer.
type PerplexityProvider struct {
	cfg        *config.Config
	httpClient *http.Client
	extractor  CompetitorExtractor
	logger     *zap.Logger
}

func NewPerplexityProvider(cfg *config.Config, logger *zap.Logger) (*PerplexityProvider, error) {
	if cfg.PerplexityAPIKey == "" {
		return nil, apperrors.WrapError(apperrors.ErrProviderConfig, "PERPLEXITY_API_KEY is not set")
	}
	return &PerplexityProvider{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.OverviewTimeout},
		extractor:  LinePatternExtractor{},
		logger:     logger,
	}, nil
}

func (p *PerplexityProvider) ID() ID {
	return ProviderPerplexity
}

func (p *PerplexityProvider) Scan(ctx context.Context, prompt string, variants *matcher.VariantSet, locale string) PromptResult {
	reqBody := chatRequest{
		Model:     p.cfg.PerplexityModel,
		MaxTokens: 1500,
		Messages: []chatMessage{
			{Role: "system", Content: localSystemInstruction(locale)},
			{Role: "user", Content: prompt},
		},
	}
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return failedResult(ProviderPerplexity, prompt, fmt.Errorf("marshal chat request: %w", err))
	}

	endpoint := fmt.Sprintf("%s/chat/completions", strings.TrimRight(p.cfg.PerplexityHost, "/"))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return failedResult(ProviderPerplexity, prompt, fmt.Errorf("create chat request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.PerplexityAPIKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("Perplexity scan failed",
			zap.String("prompt", truncate(prompt, 60)),
			zap.Error(err))
		return failedResult(ProviderPerplexity, prompt, fmt.Errorf("send chat request: %w", err))
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return failedResult(ProviderPerplexity, prompt, fmt.Errorf("read chat response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return failedResult(ProviderPerplexity, prompt,
			fmt.Errorf("chat server status %s: %s", resp.Status, truncate(string(bodyBytes), 200)))
	}

	var cr chatResponse
	if err := json.Unmarshal(bodyBytes, &cr); err != nil {
		return failedResult(ProviderPerplexity, prompt, fmt.Errorf("decode chat response: %w", err))
	}
	if len(cr.Choices) == 0 {
		return failedResult(ProviderPerplexity, prompt, fmt.Errorf("no response choices from chat server"))
	}

	content := cr.Choices[0].Message.Content
	result := resultFromText(ProviderPerplexity, prompt, content, variants, p.extractor)

	// Provider-native citations arrive as a plain URL list.
	for _, raw := range cr.Citations {
		src := Source{Link: raw}
		if u, perr := url.Parse(raw); perr == nil {
			src.Domain = u.Hostname()
		}
		src.IsBrand = variants != nil && matchesVariants(src.Domain, variants)
		result.Sources = append(result.Sources, src)
	}
	return result
}
