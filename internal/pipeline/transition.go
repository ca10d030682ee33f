package pipeline

import (
	"fmt"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
)

// Transition maps a stage output to the next step. It has no side effects:
// the returned Context is a new value and pc is left untouched. Outputs that
// match no known transition return ErrRoutingViolation.
func Transition(pc Context, out Output) (Context, Step, error) {
	switch o := out.(type) {
	case ClassifierOutput:
		return fromClassifier(pc, o)
	case DecisionOutput:
		return fromDecision(pc, o)
	case ValidatorOutput:
		return fromValidator(pc, o)
	case ExecutorOutput:
		return pc, Terminate{Output: o}, nil
	default:
		return pc, nil, fmt.Errorf("%w: unknown output %T", common.ErrRoutingViolation, out)
	}
}

func fromClassifier(pc Context, o ClassifierOutput) (Context, Step, error) {
	switch o.Result.Intent {
	case model.IntentTransaction:
		next, err := pc.WithAnalysis(o.Result.Handoff())
		if err != nil {
			return pc, nil, err
		}
		return next, Handoff{From: model.StageClassifier, To: model.StageDecision}, nil
	case model.IntentInformation, model.IntentInvestment, model.IntentGeneral:
		return pc, Terminate{Output: o}, nil
	default:
		return pc, nil, fmt.Errorf("%w: classifier intent %q", common.ErrRoutingViolation, o.Result.Intent)
	}
}

func fromDecision(pc Context, o DecisionOutput) (Context, Step, error) {
	var to model.Stage
	switch o.Result.Decision {
	case model.DecisionApprove:
		to = model.StageExecutor
	case model.DecisionReview:
		to = model.StageValidator
	case model.DecisionReject:
		return pc, Terminate{Output: o}, nil
	default:
		return pc, nil, fmt.Errorf("%w: decision %q", common.ErrRoutingViolation, o.Result.Decision)
	}

	upstream, ok := pc.Analysis()
	if !ok {
		return pc, nil, fmt.Errorf("%w: decision output without a classifier hand-off", common.ErrRoutingViolation)
	}

	next, err := pc.WithDecision(model.NewDecisionHandoff(model.StageDecision, upstream, o.Result))
	if err != nil {
		return pc, nil, err
	}
	return next, Handoff{From: model.StageDecision, To: to}, nil
}

func fromValidator(pc Context, o ValidatorOutput) (Context, Step, error) {
	switch o.Result.ComplianceStatus {
	case model.ComplianceApproved:
	case model.ComplianceRejected:
		return pc, Terminate{Output: o}, nil
	default:
		return pc, nil, fmt.Errorf("%w: compliance status %q", common.ErrRoutingViolation, o.Result.ComplianceStatus)
	}

	upstream, ok := pc.Decision()
	if !ok {
		return pc, nil, fmt.Errorf("%w: validator output without a decision hand-off", common.ErrRoutingViolation)
	}

	payload := upstream
	payload.SourceAgent = model.StageValidator.Agent()
	payload.Decision = o.Result.Decision
	payload.NextAction = o.Result.Recommendation
	payload.TransactionID = o.Result.TransactionID

	next, err := pc.WithValidation(payload)
	if err != nil {
		return pc, nil, err
	}
	return next, Handoff{From: model.StageValidator, To: model.StageExecutor}, nil
}
