package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOpenAIClient(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config",
			config: Config{
				APIKey: "test-key",
			},
			wantErr: false,
		},
		{
			name: "missing API key",
			config: Config{
				APIKey: "",
			},
			wantErr: true,
		},
		{
			name: "custom model and settings",
			config: Config{
				APIKey:      "test-key",
				Model:       "gpt-4",
				Temperature: 0.5,
				MaxTokens:   200,
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := newOpenAIClient(tt.config)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.NotNil(t, client)
			}
		})
	}
}

func TestOpenAIClient_Infer(t *testing.T) {
	var captured map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"intent\":\"general\"}"}}]
		}`))
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL + "/"})
	require.NoError(t, err)

	content, err := client.Infer(context.Background(), Request{
		Task:         TaskClassify,
		Instructions: "classify it",
		Schema:       "{}",
		Input:        `{"text":"hello"}`,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"intent":"general"}`, content)

	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.Equal(t, map[string]any{"type": "json_object"}, captured["response_format"])

	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
	system, ok := messages[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "classify it\n\n{}", system["content"])
	user, ok := messages[1].(map[string]any)
	require.True(t, ok)
	assert.JSONEq(t, `{"text":"hello"}`, user["content"].(string))
}

func TestOpenAIClient_InferErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{
			name:    "api error",
			status:  http.StatusUnauthorized,
			body:    `{"error":"bad key"}`,
			wantErr: "status 401",
		},
		{
			name:    "no choices",
			status:  http.StatusOK,
			body:    `{"choices":[]}`,
			wantErr: "no completion choices",
		},
		{
			name:    "malformed body",
			status:  http.StatusOK,
			body:    `not json`,
			wantErr: "failed to parse response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
			require.NoError(t, err)

			_, err = client.Infer(context.Background(), Request{Task: TaskDecide, Input: "{}"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOpenAIClient_ContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := newOpenAIClient(Config{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.Infer(ctx, Request{Task: TaskAssess, Input: "{}"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
