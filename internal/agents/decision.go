package agents

import (
	"context"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/llm"
	"github.com/Veraticus/arcwise/internal/model"
)

// Decider chooses approve, review or reject for a classified transaction.
type Decider struct {
	client llm.Client
}

// NewDecider creates a decision stage.
func NewDecider(client llm.Client) *Decider {
	return &Decider{client: client}
}

// Decide evaluates the classifier's hand-off. A flagged request is never
// approved outright: an approve on a flagged payload becomes review.
func (d *Decider) Decide(ctx context.Context, payload model.HandoffPayload) (model.DecisionResult, error) {
	logger := common.LoggerFrom(ctx)
	logger.Info("Handoff received",
		"from", payload.SourceAgent,
		"safety_flag", payload.SafetyFlag)

	raw, err := llm.Infer[model.DecisionResult](ctx, d.client, decidePrompt, payload)
	if err != nil {
		return model.DecisionResult{}, err
	}

	if payload.SafetyFlag && raw.Decision == model.DecisionApprove {
		logger.Warn("Escalating approval of flagged transaction to review")
		raw.Decision = model.DecisionReview
		raw.NextAction = model.NextActionNotifyAdmin
		raw.Reason += " (escalated to review: safety flag raised)"
	}

	result, err := model.NewDecisionResult(raw.Decision, raw.Confidence, raw.Reason, raw.NextAction)
	if err != nil {
		return model.DecisionResult{}, err
	}

	logger.Info("Decision made",
		"decision", result.Decision,
		"confidence", result.Confidence,
		"next_action", result.NextAction)
	return result, nil
}
