package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	anthropicBaseURL = "https://api.anthropic.com/v1"
	anthropicVersion = "2023-06-01"

	// Anthropic has no JSON mode; the system prompt asks for bare JSON.
	anthropicJSONSuffix = "\n\nRespond with ONLY the JSON object. Start your response with { and end with }."
)

// anthropicClient calls the messages API.
type anthropicClient struct {
	api endpoint
	sampling
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system"`
	Messages    []anthropicMessage `json:"messages"`
	Temperature float64            `json:"temperature"`
	MaxTokens   int                `json:"max_tokens"`
}

type anthropicResponse struct {
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func newAnthropicClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}

	header := http.Header{}
	header.Set("x-api-key", cfg.APIKey)
	header.Set("anthropic-version", anthropicVersion)

	return &anthropicClient{
		api:      newEndpoint("anthropic", cfg.BaseURL, anthropicBaseURL, cfg, header),
		sampling: newSampling(cfg, "claude-3-5-haiku-latest"),
	}, nil
}

// Infer implements Client.
func (c *anthropicClient) Infer(ctx context.Context, r Request) (string, error) {
	req := anthropicRequest{
		Model:       c.model,
		System:      r.SystemPrompt() + anthropicJSONSuffix,
		Messages:    []anthropicMessage{{Role: "user", Content: r.Input}},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}

	var resp anthropicResponse
	if err := c.api.post(ctx, "/messages", req, &resp); err != nil {
		return "", err
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", errors.New("no content in response")
	}
	return text.String(), nil
}
