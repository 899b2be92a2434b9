// Package texts provides reference text for typing sessions: an HTTP client
// for the external text-generation service and a local fallback pool used
// when that service is unavailable.
package texts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mattsre/keysprint/go/internal/typing"
)

// GeneratorClient calls the external text-generation service.
type GeneratorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGeneratorClient creates a client for the generation service at baseURL.
// An empty baseURL yields a client whose Generate always fails, which callers
// treat as "fall back to the local pool".
func NewGeneratorClient(baseURL string) *GeneratorClient {
	return &GeneratorClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type generateRequest struct {
	Mode            string `json:"mode"`
	DurationSeconds int    `json:"duration_seconds"`
	Punctuation     bool   `json:"punctuation"`
	Numbers         bool   `json:"numbers"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// Generate requests a text matching the session configuration.
func (c *GeneratorClient) Generate(ctx context.Context, cfg typing.Config) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("text generator not configured")
	}

	body, err := json.Marshal(generateRequest{
		Mode:            string(cfg.Mode),
		DurationSeconds: cfg.DurationSec,
		Punctuation:     cfg.Punctuation,
		Numbers:         cfg.Numbers,
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("call text generator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("text generator returned status %d", resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode generator response: %w", err)
	}
	if out.Text == "" {
		return "", fmt.Errorf("text generator returned empty text")
	}
	return out.Text, nil
}
