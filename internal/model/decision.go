package model

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/Veraticus/arcwise/internal/common"
)

// Decision is the decision stage's verdict.
type Decision string

// Decision values.
const (
	DecisionApprove Decision = "approve"
	DecisionReview  Decision = "review"
	DecisionReject  Decision = "reject"
)

var decisions = []Decision{
	DecisionApprove,
	DecisionReview,
	DecisionReject,
}

// ParseDecision validates s as a known decision.
func ParseDecision(s string) (Decision, error) {
	v := Decision(s)
	if !slices.Contains(decisions, v) {
		return "", common.SchemaViolation("decision must be one of %v, got %q", decisions, s)
	}
	return v, nil
}

// UnmarshalJSON rejects decisions outside the enumerated set.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseDecision(raw)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// NextAction is advisory metadata suggested alongside a decision. Routing
// never depends on it.
type NextAction string

// Suggested next actions.
const (
	NextActionFollowUp           NextAction = "follow_up"
	NextActionNotifyAdmin        NextAction = "notify_admin"
	NextActionExecuteTransaction NextAction = "execute_transaction"
)

var nextActions = []NextAction{
	NextActionFollowUp,
	NextActionNotifyAdmin,
	NextActionExecuteTransaction,
}

// ParseNextAction validates s as a known next action. An empty string is
// accepted and means no suggestion.
func ParseNextAction(s string) (NextAction, error) {
	v := NextAction(strings.TrimSpace(s))
	if v == "" || slices.Contains(nextActions, v) {
		return v, nil
	}
	return "", common.SchemaViolation("next_action must be one of %v, got %q", nextActions, s)
}

// UnmarshalJSON rejects unknown next actions.
func (a *NextAction) UnmarshalJSON(data []byte) error {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*a = ""
		return nil
	}
	v, err := ParseNextAction(*raw)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// DecisionResult is the decision stage's output.
type DecisionResult struct {
	Decision   Decision   `json:"decision"`
	Confidence float64    `json:"confidence"`
	Reason     string     `json:"reason"`
	NextAction NextAction `json:"next_action,omitempty"`
}

// NewDecisionResult builds a validated DecisionResult.
func NewDecisionResult(decision Decision, confidence float64, reason string, next NextAction) (DecisionResult, error) {
	r := DecisionResult{
		Decision:   decision,
		Confidence: confidence,
		Reason:     reason,
		NextAction: next,
	}
	if err := r.Validate(); err != nil {
		return DecisionResult{}, err
	}
	return r, nil
}

// Validate checks the record's invariants.
func (r DecisionResult) Validate() error {
	if _, err := ParseDecision(string(r.Decision)); err != nil {
		return err
	}
	if err := ValidateUnit("confidence", r.Confidence); err != nil {
		return err
	}
	if strings.TrimSpace(r.Reason) == "" {
		return common.SchemaViolation("decision reason is required")
	}
	if _, err := ParseNextAction(string(r.NextAction)); err != nil {
		return err
	}
	return nil
}

// DecisionHandoffPayload carries a decision to the validator or executor.
// TransactionID is set only when the validator approved the transaction.
type DecisionHandoffPayload struct {
	HandoffPayload
	Decision      Decision   `json:"decision"`
	NextAction    NextAction `json:"next_action,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
}

// NewDecisionHandoff extends an upstream payload with a decision made by
// source.
func NewDecisionHandoff(source Stage, upstream HandoffPayload, result DecisionResult) DecisionHandoffPayload {
	upstream.SourceAgent = source.Agent()
	return DecisionHandoffPayload{
		HandoffPayload: upstream,
		Decision:       result.Decision,
		NextAction:     result.NextAction,
	}
}
