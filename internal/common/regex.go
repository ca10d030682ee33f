package common

import (
	"fmt"
	"regexp"
)

// CompilePatterns compiles every pattern, failing on the first invalid one.
func CompilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid pattern %q: %w", ErrInvalidConfig, p, err)
		}
		out = append(out, re)
	}
	return out, nil
}

// MatchAny reports whether any of the compiled patterns matches text.
func MatchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
