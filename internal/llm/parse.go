package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrParseFailed is returned when content cannot be parsed as JSON,
// either directly, from a markdown code fence, or from the outermost braces.
var ErrParseFailed = errors.New("failed to parse response")

var jsonBlockRegex = regexp.MustCompile(`(?s)` + "```" + `(?:json)?\s*\n?(.*?)\n?` + "```")

// Parse unmarshals model output into T. Output wrapped in a markdown fence or
// surrounded by prose is unwrapped first. A value that decodes but whose
// custom unmarshalers reject it returns that error unchanged.
func Parse[T any](content string) (T, error) {
	var result T
	var lastErr error

	for _, candidate := range candidates(content) {
		var v T
		err := json.Unmarshal([]byte(candidate), &v)
		if err == nil {
			return v, nil
		}

		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			return result, err
		}
		lastErr = err
	}

	if lastErr == nil {
		return result, fmt.Errorf("%w: empty response", ErrParseFailed)
	}
	return result, fmt.Errorf("%w: %v: %s", ErrParseFailed, lastErr, truncate(content, 200))
}

func candidates(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	out := []string{content}

	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) >= 2 {
		out = append(out, strings.TrimSpace(matches[1]))
	}

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		out = append(out, content[start:end+1])
	}

	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
