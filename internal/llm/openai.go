package llm

import (
	"context"
	"errors"
	"net/http"
)

const openAIBaseURL = "https://api.openai.com/v1"

// openAIClient calls the chat completions API in JSON mode.
type openAIClient struct {
	api endpoint
	sampling
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponseFormat struct {
	Type string `json:"type"`
}

type openAIRequest struct {
	ResponseFormat openAIResponseFormat `json:"response_format"`
	Model          string               `json:"model"`
	Messages       []openAIMessage      `json:"messages"`
	Temperature    float64              `json:"temperature"`
	MaxTokens      int                  `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message      openAIMessage `json:"message"`
		FinishReason string        `json:"finish_reason"`
	} `json:"choices"`
}

func newOpenAIClient(cfg Config) (Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key is required")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+cfg.APIKey)

	return &openAIClient{
		api:      newEndpoint("OpenAI", cfg.BaseURL, openAIBaseURL, cfg, header),
		sampling: newSampling(cfg, "gpt-4o-mini"),
	}, nil
}

// Infer implements Client.
func (c *openAIClient) Infer(ctx context.Context, r Request) (string, error) {
	req := openAIRequest{
		Model: c.model,
		Messages: []openAIMessage{
			{Role: "system", Content: r.SystemPrompt()},
			{Role: "user", Content: r.Input},
		},
		Temperature:    c.temperature,
		MaxTokens:      c.maxTokens,
		ResponseFormat: openAIResponseFormat{Type: "json_object"},
	}

	var resp openAIResponse
	if err := c.api.post(ctx, "/chat/completions", req, &resp); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no completion choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
