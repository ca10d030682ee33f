package model

import (
	"encoding/json"
	"slices"

	"github.com/Veraticus/arcwise/internal/common"
)

// Intent is the classifier's label for a request.
type Intent string

// Request intents.
const (
	IntentTransaction Intent = "transaction"
	IntentInformation Intent = "information"
	IntentInvestment  Intent = "investment"
	IntentGeneral     Intent = "general"
)

var intents = []Intent{
	IntentTransaction,
	IntentInformation,
	IntentInvestment,
	IntentGeneral,
}

// Intents returns the accepted intent values.
func Intents() []Intent {
	return slices.Clone(intents)
}

// ParseIntent validates s as a known intent.
func ParseIntent(s string) (Intent, error) {
	v := Intent(s)
	if !slices.Contains(intents, v) {
		return "", common.SchemaViolation("intent must be one of %v, got %q", intents, s)
	}
	return v, nil
}

// UnmarshalJSON rejects intents outside the enumerated set.
func (i *Intent) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseIntent(raw)
	if err != nil {
		return err
	}
	*i = v
	return nil
}

// AnalysisResult is the classifier's output.
type AnalysisResult struct {
	Intent      Intent              `json:"intent"`
	Confidence  float64             `json:"confidence"`
	Reason      string              `json:"reason"`
	Transaction *TransactionDetails `json:"transaction,omitempty"`
	SafetyFlag  bool                `json:"safety_flag"`
}

// NewAnalysisResult builds a validated AnalysisResult.
func NewAnalysisResult(intent Intent, confidence float64, reason string, txn *TransactionDetails, safetyFlag bool) (AnalysisResult, error) {
	r := AnalysisResult{
		Intent:      intent,
		Confidence:  confidence,
		Reason:      reason,
		SafetyFlag:  safetyFlag,
		Transaction: txn,
	}
	if err := r.Validate(); err != nil {
		return AnalysisResult{}, err
	}
	return r, nil
}

// Validate checks the record's invariants.
func (r AnalysisResult) Validate() error {
	if _, err := ParseIntent(string(r.Intent)); err != nil {
		return err
	}
	if err := ValidateUnit("confidence", r.Confidence); err != nil {
		return err
	}
	if r.Transaction != nil {
		if err := r.Transaction.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Details returns the transaction details, or an empty value when absent.
func (r AnalysisResult) Details() TransactionDetails {
	if r.Transaction == nil {
		return TransactionDetails{}
	}
	return *r.Transaction
}

// HandoffPayload carries a classification from the classifier to the
// decision stage.
type HandoffPayload struct {
	SourceAgent string              `json:"source_agent"`
	Intent      Intent              `json:"intent"`
	Confidence  float64             `json:"confidence"`
	Reason      string              `json:"reason"`
	Transaction *TransactionDetails `json:"transaction,omitempty"`
	SafetyFlag  bool                `json:"safety_flag"`
}

// Handoff converts the result into the payload handed to the decision stage.
func (r AnalysisResult) Handoff() HandoffPayload {
	return HandoffPayload{
		SourceAgent: StageClassifier.Agent(),
		Intent:      r.Intent,
		Confidence:  r.Confidence,
		Reason:      r.Reason,
		Transaction: r.Transaction,
		SafetyFlag:  r.SafetyFlag,
	}
}

// Details returns the transaction details, or an empty value when absent.
func (p HandoffPayload) Details() TransactionDetails {
	if p.Transaction == nil {
		return TransactionDetails{}
	}
	return *p.Transaction
}
