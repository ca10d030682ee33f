package model

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/arcwise/internal/common"
)

// ComplianceStatus is the validator's final determination.
type ComplianceStatus string

// Compliance statuses.
const (
	ComplianceApproved ComplianceStatus = "approved"
	ComplianceRejected ComplianceStatus = "rejected"
)

// UnmarshalJSON rejects unknown statuses.
func (s *ComplianceStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := ComplianceStatus(raw); v {
	case ComplianceApproved, ComplianceRejected:
		*s = v
		return nil
	default:
		return common.SchemaViolation("compliance_status must be approved or rejected, got %q", raw)
	}
}

// ValidationResult is the validator's output.
type ValidationResult struct {
	Amount           decimal.Decimal  `json:"amount"`
	Recipient        string           `json:"recipient"`
	ReviewData       string           `json:"review_data"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	Confidence       float64          `json:"confidence"`
	RiskScore        float64          `json:"risk_score"`
	Recommendation   NextAction       `json:"recommendation"`
	Decision         Decision         `json:"decision"`
	TransactionID    string           `json:"transaction_id,omitempty"`
	Message          string           `json:"message,omitempty"`
}

// Approved reports whether the validator cleared the transaction.
func (r ValidationResult) Approved() bool {
	return r.ComplianceStatus == ComplianceApproved
}

// Validate checks the record's invariants. An approved result must carry a
// transaction id and recommend execution; a rejected one must carry no
// transaction id and recommend notifying an admin.
func (r ValidationResult) Validate() error {
	if err := ValidateUnit("confidence", r.Confidence); err != nil {
		return err
	}
	if err := ValidateUnit("risk_score", r.RiskScore); err != nil {
		return err
	}

	switch r.ComplianceStatus {
	case ComplianceApproved:
		if strings.TrimSpace(r.TransactionID) == "" {
			return common.SchemaViolation("approved validation requires a transaction_id")
		}
		if r.Recommendation != NextActionExecuteTransaction || r.Decision != DecisionApprove {
			return common.SchemaViolation("approved validation must recommend %s", NextActionExecuteTransaction)
		}
	case ComplianceRejected:
		if r.TransactionID != "" {
			return common.SchemaViolation("rejected validation must not carry a transaction_id")
		}
		if r.Recommendation != NextActionNotifyAdmin || r.Decision != DecisionReject {
			return common.SchemaViolation("rejected validation must recommend %s", NextActionNotifyAdmin)
		}
	default:
		return common.SchemaViolation("unknown compliance_status %q", r.ComplianceStatus)
	}

	return nil
}

// NewValidationResult validates r and returns it. Rejected results have
// their transaction id cleared before validation so it never leaks into a
// terminal record.
func NewValidationResult(r ValidationResult) (ValidationResult, error) {
	if r.ComplianceStatus == ComplianceRejected {
		r.TransactionID = ""
	}
	if err := r.Validate(); err != nil {
		return ValidationResult{}, err
	}
	return r, nil
}
