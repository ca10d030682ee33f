// Package storage provides the append-only SQLite journal of pipeline runs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidRun   = errors.New("invalid run")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateRun(run *Run) error {
	if run == nil {
		return fmt.Errorf("%w: run", ErrNilParameter)
	}
	if strings.TrimSpace(run.ID) == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidRun)
	}
	switch run.Status {
	case RunCompleted:
		if len(run.Result) == 0 {
			return fmt.Errorf("%w: completed run %s has no result", ErrInvalidRun, run.ID)
		}
	case RunFailed:
		if run.Error == "" {
			return fmt.Errorf("%w: failed run %s has no error", ErrInvalidRun, run.ID)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidRun, run.Status)
	}
	if !run.Stage.Valid() {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidRun, run.Stage)
	}
	if run.CreatedAt.IsZero() {
		return fmt.Errorf("%w: missing created_at", ErrInvalidRun)
	}
	return nil
}
