// Package llm is the boundary to the external inference capability.
// Pipeline stages describe a task (instructions, output schema, structured
// input) and receive the model's structured output; the providers here
// (OpenAI, Anthropic, and an offline heuristic provider) decide how that
// request reaches a model.
package llm
