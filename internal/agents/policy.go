package agents

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/llm"
	"github.com/Veraticus/arcwise/internal/model"
)

// RiskThreshold is the risk score at or above which the validator rejects.
const RiskThreshold = 0.4

// DefaultAmountLimit is the amount above which a transaction is flagged.
var DefaultAmountLimit = decimal.NewFromInt(10000)

// DefaultSuspiciousPatterns match recipients that warrant a safety flag.
var DefaultSuspiciousPatterns = []string{
	`(?i)suspicious`,
	`(?i)scam`,
	`(?i)fraud`,
	`(?i)mixer`,
	`(?i)^unknown`,
	`^0x0+$`,
}

// SuspicionCheck reports whether a recipient looks suspicious.
type SuspicionCheck func(recipient string) bool

// PatternSuspicionCheck builds a SuspicionCheck from regular expressions.
func PatternSuspicionCheck(patterns []string) (SuspicionCheck, error) {
	compiled, err := common.CompilePatterns(patterns)
	if err != nil {
		return nil, err
	}
	return func(recipient string) bool {
		return recipient != "" && common.MatchAny(compiled, recipient)
	}, nil
}

// SafetyPolicy decides when the classifier must raise the safety flag.
type SafetyPolicy struct {
	AmountLimit decimal.Decimal
	Suspicious  SuspicionCheck
}

// DefaultSafetyPolicy flags amounts over 10000 and recipients matching
// DefaultSuspiciousPatterns.
func DefaultSafetyPolicy() SafetyPolicy {
	check, err := PatternSuspicionCheck(DefaultSuspiciousPatterns)
	if err != nil {
		panic(fmt.Sprintf("default suspicious patterns: %v", err))
	}
	return SafetyPolicy{
		AmountLimit: DefaultAmountLimit,
		Suspicious:  check,
	}
}

// Flag reports whether the transaction requires heightened scrutiny.
func (p SafetyPolicy) Flag(d model.TransactionDetails) bool {
	if d.Amount != nil && d.Amount.GreaterThan(p.AmountLimit) {
		return true
	}
	return p.Suspicious != nil && p.Suspicious(d.RecipientValue())
}

// RiskAssessment is a scorer's view of a transaction.
type RiskAssessment struct {
	RiskScore  float64 `json:"risk_score"`
	Confidence float64 `json:"confidence"`
	ReviewData string  `json:"review_data"`
}

// Validate checks that both scores lie in [0,1].
func (a RiskAssessment) Validate() error {
	if err := model.ValidateUnit("risk_score", a.RiskScore); err != nil {
		return err
	}
	return model.ValidateUnit("confidence", a.Confidence)
}

// RiskScorer computes a risk score for a transaction under review.
type RiskScorer interface {
	Score(ctx context.Context, payload model.DecisionHandoffPayload) (RiskAssessment, error)
}

// LLMRiskScorer asks the inference capability to assess risk.
type LLMRiskScorer struct {
	client llm.Client
}

// NewLLMRiskScorer creates a scorer backed by client.
func NewLLMRiskScorer(client llm.Client) *LLMRiskScorer {
	return &LLMRiskScorer{client: client}
}

// Score implements RiskScorer.
func (s *LLMRiskScorer) Score(ctx context.Context, payload model.DecisionHandoffPayload) (RiskAssessment, error) {
	a, err := llm.Infer[RiskAssessment](ctx, s.client, assessPrompt, payload)
	if err != nil {
		return RiskAssessment{}, err
	}
	if err := a.Validate(); err != nil {
		return RiskAssessment{}, err
	}
	return a, nil
}

var _ RiskScorer = (*LLMRiskScorer)(nil)
