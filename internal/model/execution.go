package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/arcwise/internal/common"
)

// ExecutionStatus reports whether settlement went through.
type ExecutionStatus string

// Execution statuses.
const (
	ExecutionSuccess ExecutionStatus = "success"
	ExecutionFailed  ExecutionStatus = "failed"
)

// UnmarshalJSON rejects unknown statuses.
func (s *ExecutionStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := ExecutionStatus(raw); v {
	case ExecutionSuccess, ExecutionFailed:
		*s = v
		return nil
	default:
		return common.SchemaViolation("execution decision must be success or failed, got %q", raw)
	}
}

// ExecutionResult is the executor's output.
type ExecutionResult struct {
	TransactionID string          `json:"transaction_id"`
	Decision      ExecutionStatus `json:"decision"`
	Reason        string          `json:"reason"`
	Amount        decimal.Decimal `json:"amount"`
	Recipient     string          `json:"recipient"`
	Message       string          `json:"message,omitempty"`
}

// Succeeded reports whether the transaction settled.
func (r ExecutionResult) Succeeded() bool {
	return r.Decision == ExecutionSuccess
}

// Validate checks the record's invariants.
func (r ExecutionResult) Validate() error {
	if strings.TrimSpace(r.TransactionID) == "" {
		return common.SchemaViolation("execution requires a transaction_id")
	}
	switch r.Decision {
	case ExecutionSuccess, ExecutionFailed:
	default:
		return common.SchemaViolation("unknown execution decision %q", r.Decision)
	}
	return nil
}

// NewExecutionResult validates r and returns it.
func NewExecutionResult(r ExecutionResult) (ExecutionResult, error) {
	if err := r.Validate(); err != nil {
		return ExecutionResult{}, err
	}
	return r, nil
}
