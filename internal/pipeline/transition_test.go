package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
)

func analysis(t *testing.T, intent model.Intent) model.AnalysisResult {
	t.Helper()
	var txn *model.TransactionDetails
	if intent == model.IntentTransaction {
		d := model.NewTransactionDetails(decimal.NewFromInt(10), "USDC", "alice", "")
		txn = &d
	}
	r, err := model.NewAnalysisResult(intent, 0.9, "because", txn, false)
	require.NoError(t, err)
	return r
}

func decision(t *testing.T, d model.Decision) model.DecisionResult {
	t.Helper()
	r, err := model.NewDecisionResult(d, 0.8, "reasoned", "")
	require.NoError(t, err)
	return r
}

func afterClassifier(t *testing.T) Context {
	t.Helper()
	pc, step, err := Transition(Context{}, ClassifierOutput{Result: analysis(t, model.IntentTransaction)})
	require.NoError(t, err)
	require.IsType(t, Handoff{}, step)
	return pc
}

func afterReview(t *testing.T) Context {
	t.Helper()
	pc, step, err := Transition(afterClassifier(t), DecisionOutput{Result: decision(t, model.DecisionReview)})
	require.NoError(t, err)
	require.Equal(t, Handoff{From: model.StageDecision, To: model.StageValidator}, step)
	return pc
}

func TestTransition_Classifier(t *testing.T) {
	tests := []struct {
		intent   model.Intent
		wantStep Step
	}{
		{intent: model.IntentTransaction, wantStep: Handoff{From: model.StageClassifier, To: model.StageDecision}},
		{intent: model.IntentInformation},
		{intent: model.IntentInvestment},
		{intent: model.IntentGeneral},
	}

	for _, tt := range tests {
		t.Run(string(tt.intent), func(t *testing.T) {
			out := ClassifierOutput{Result: analysis(t, tt.intent)}
			pc, step, err := Transition(Context{}, out)
			require.NoError(t, err)

			if tt.wantStep != nil {
				assert.Equal(t, tt.wantStep, step)
				assert.Equal(t, 1, pc.Len())
				payload, ok := pc.Analysis()
				require.True(t, ok)
				assert.Equal(t, "Analyzer Agent", payload.SourceAgent)
				return
			}

			assert.Equal(t, Terminate{Output: out}, step)
			assert.Equal(t, 0, pc.Len())
		})
	}
}

func TestTransition_ClassifierUnknownIntent(t *testing.T) {
	out := ClassifierOutput{Result: model.AnalysisResult{Intent: "gamble"}}
	_, step, err := Transition(Context{}, out)
	require.ErrorIs(t, err, common.ErrRoutingViolation)
	assert.Nil(t, step)
}

func TestTransition_DecisionExhaustive(t *testing.T) {
	tests := []struct {
		decision model.Decision
		wantTo   model.Stage
		terminal bool
	}{
		{decision: model.DecisionApprove, wantTo: model.StageExecutor},
		{decision: model.DecisionReview, wantTo: model.StageValidator},
		{decision: model.DecisionReject, terminal: true},
	}

	for _, tt := range tests {
		t.Run(string(tt.decision), func(t *testing.T) {
			pc := afterClassifier(t)
			out := DecisionOutput{Result: decision(t, tt.decision)}

			next, step, err := Transition(pc, out)
			require.NoError(t, err)

			if tt.terminal {
				assert.Equal(t, Terminate{Output: out}, step)
				assert.Equal(t, 1, next.Len())
				return
			}

			assert.Equal(t, Handoff{From: model.StageDecision, To: tt.wantTo}, step)
			assert.Equal(t, 2, next.Len())
			payload, ok := next.Decision()
			require.True(t, ok)
			assert.Equal(t, tt.decision, payload.Decision)
			assert.Equal(t, "Decision Agent", payload.SourceAgent)
			assert.Equal(t, model.IntentTransaction, payload.Intent)
		})
	}

	_, _, err := Transition(afterClassifier(t), DecisionOutput{Result: model.DecisionResult{Decision: "escalate"}})
	require.ErrorIs(t, err, common.ErrRoutingViolation)
}

func TestTransition_DecisionWithoutUpstream(t *testing.T) {
	_, _, err := Transition(Context{}, DecisionOutput{Result: decision(t, model.DecisionApprove)})
	require.ErrorIs(t, err, common.ErrRoutingViolation)
}

func TestTransition_Validator(t *testing.T) {
	approved := model.ValidationResult{
		ComplianceStatus: model.ComplianceApproved,
		Confidence:       0.9,
		RiskScore:        0.1,
		Recommendation:   model.NextActionExecuteTransaction,
		Decision:         model.DecisionApprove,
		TransactionID:    "0xabc",
	}

	next, step, err := Transition(afterReview(t), ValidatorOutput{Result: approved})
	require.NoError(t, err)
	assert.Equal(t, Handoff{From: model.StageValidator, To: model.StageExecutor}, step)
	assert.Equal(t, 3, next.Len())

	payload, ok := next.Validation()
	require.True(t, ok)
	assert.Equal(t, "0xabc", payload.TransactionID)
	assert.Equal(t, "Validator Agent", payload.SourceAgent)
	assert.Equal(t, model.DecisionApprove, payload.Decision)

	rejected := ValidatorOutput{Result: model.ValidationResult{
		ComplianceStatus: model.ComplianceRejected,
		RiskScore:        0.4,
		Recommendation:   model.NextActionNotifyAdmin,
		Decision:         model.DecisionReject,
	}}
	next, step, err = Transition(afterReview(t), rejected)
	require.NoError(t, err)
	assert.Equal(t, Terminate{Output: rejected}, step)
	assert.Equal(t, 2, next.Len())

	_, _, err = Transition(afterReview(t), ValidatorOutput{Result: model.ValidationResult{ComplianceStatus: "pending"}})
	require.ErrorIs(t, err, common.ErrRoutingViolation)

	_, _, err = Transition(afterClassifier(t), ValidatorOutput{Result: approved})
	require.ErrorIs(t, err, common.ErrRoutingViolation)
}

func TestTransition_ExecutorTerminates(t *testing.T) {
	out := ExecutorOutput{Result: model.ExecutionResult{TransactionID: "0x1", Decision: model.ExecutionSuccess}}
	pc := afterClassifier(t)

	next, step, err := Transition(pc, out)
	require.NoError(t, err)
	assert.Equal(t, Terminate{Output: out}, step)
	assert.Equal(t, pc, next)
}

func TestTransition_UnknownOutput(t *testing.T) {
	_, _, err := Transition(Context{}, nil)
	require.ErrorIs(t, err, common.ErrRoutingViolation)
}

func TestTransition_DoesNotMutateInput(t *testing.T) {
	pc := afterClassifier(t)
	before := pc.Stages()

	_, _, err := Transition(pc, DecisionOutput{Result: decision(t, model.DecisionApprove)})
	require.NoError(t, err)

	assert.Equal(t, before, pc.Stages())
	_, ok := pc.Decision()
	assert.False(t, ok)
}
