package llm

import (
	"context"
	"time"
)

// Client defines the interface for LLM providers.
type Client interface {
	// Infer sends one structured task to the model and returns its raw text
	// response. Implementations must honor ctx cancellation.
	Infer(ctx context.Context, req Request) (string, error)
}

// Task names the prompt template a request was rendered from.
type Task string

// Tasks issued by the pipeline stages.
const (
	TaskClassify Task = "classify"
	TaskDecide   Task = "decide"
	TaskAssess   Task = "assess"
)

// Request is a rendered prompt: the template's instructions and output
// schema plus the JSON-encoded structured input.
type Request struct {
	Task         Task
	Instructions string
	Schema       string
	Input        string
}

// SystemPrompt joins the instructions and the output schema.
func (r Request) SystemPrompt() string {
	if r.Schema == "" {
		return r.Instructions
	}
	return r.Instructions + "\n\n" + r.Schema
}

// Config holds configuration for an LLM provider.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}
