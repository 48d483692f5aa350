package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Provider turns a (template content, custom content) pair into a
// personalization score between 0 and 100.
type Provider interface {
	Score(ctx context.Context, templateContent, customContent string) (int, error)
	Name() string
}

type scoreRequest struct {
	TemplateContent string `json:"template_content"`
	CustomContent   string `json:"custom_content"`
}

type scoreResponse struct {
	Score int `json:"score"`
}

// HTTPProvider calls one external scoring endpoint.
type HTTPProvider struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
}

func NewHTTPProvider(endpoint, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

func (p *HTTPProvider) Name() string {
	return p.endpoint
}

// Score posts the template/custom pair to the scoring endpoint
func (p *HTTPProvider) Score(ctx context.Context, templateContent, customContent string) (int, error) {
	payload, err := json.Marshal(scoreRequest{
		TemplateContent: templateContent,
		CustomContent:   customContent,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call scoring endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("scoring API error: %d - %s", resp.StatusCode, string(body))
	}

	var result scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to decode score response: %w", err)
	}

	if result.Score < 0 || result.Score > 100 {
		return 0, fmt.Errorf("scoring API returned out-of-range score: %d", result.Score)
	}

	return result.Score, nil
}
