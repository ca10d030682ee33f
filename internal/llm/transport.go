package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultMaxTokens = 1024

// APIError is a provider response with a non-200 status.
type APIError struct {
	Provider   string
	Body       string
	StatusCode int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Provider, e.StatusCode, e.Body)
}

// endpoint posts JSON to one provider API.
type endpoint struct {
	httpClient *http.Client
	header     http.Header
	provider   string
	baseURL    string
}

func newEndpoint(provider, baseURL, defaultBaseURL string, cfg Config, header http.Header) endpoint {
	baseURL = strings.TrimSuffix(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	header.Set("Content-Type", "application/json")
	return endpoint{
		httpClient: newHTTPClient(cfg.Timeout),
		header:     header,
		provider:   provider,
		baseURL:    baseURL,
	}
}

// post sends in to path and decodes a 200 response into out.
func (e endpoint) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header = e.header.Clone()

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return &APIError{Provider: e.provider, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// sampling holds the generation settings shared by providers.
type sampling struct {
	model       string
	temperature float64
	maxTokens   int
}

func newSampling(cfg Config, defaultModel string) sampling {
	s := sampling{
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
	if s.model == "" {
		s.model = defaultModel
	}
	if s.maxTokens <= 0 {
		s.maxTokens = defaultMaxTokens
	}
	return s
}
