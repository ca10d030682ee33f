package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Veraticus/arcwise/internal/common"
)

// Prompt is a template bound to an output schema.
type Prompt struct {
	Task         Task
	Instructions string
	Schema       string
}

// Render encodes input as JSON and binds it to the prompt.
func (p Prompt) Render(input any) (Request, error) {
	data, err := json.Marshal(input)
	if err != nil {
		return Request{}, fmt.Errorf("failed to encode %s input: %w", p.Task, err)
	}
	return Request{
		Task:         p.Task,
		Instructions: p.Instructions,
		Schema:       p.Schema,
		Input:        string(data),
	}, nil
}

// Infer renders the prompt, calls the client, and decodes the structured
// output into T. Transport and provider failures wrap
// common.ErrCapabilityFailure; output that does not decode into T wraps
// common.ErrSchemaViolation.
func Infer[T any](ctx context.Context, client Client, prompt Prompt, input any) (T, error) {
	var zero T

	req, err := prompt.Render(input)
	if err != nil {
		return zero, err
	}

	content, err := client.Infer(ctx, req)
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", common.ErrCapabilityFailure, prompt.Task, err)
	}

	out, err := Parse[T](content)
	if err != nil {
		if errors.Is(err, common.ErrSchemaViolation) {
			return zero, fmt.Errorf("%s output: %w", prompt.Task, err)
		}
		return zero, fmt.Errorf("%w: %s output: %w", common.ErrSchemaViolation, prompt.Task, err)
	}

	return out, nil
}
