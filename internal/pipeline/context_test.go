package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
)

func TestContext_AppendOnly(t *testing.T) {
	var pc Context
	assert.Equal(t, 0, pc.Len())

	pc, err := pc.WithAnalysis(model.HandoffPayload{SourceAgent: "first", Intent: model.IntentTransaction})
	require.NoError(t, err)

	again, err := pc.WithAnalysis(model.HandoffPayload{SourceAgent: "second"})
	require.ErrorIs(t, err, common.ErrRoutingViolation)
	first, _ := again.Analysis()
	assert.Equal(t, "first", first.SourceAgent)

	pc, err = pc.WithDecision(model.DecisionHandoffPayload{Decision: model.DecisionReview})
	require.NoError(t, err)
	_, err = pc.WithDecision(model.DecisionHandoffPayload{Decision: model.DecisionApprove})
	require.ErrorIs(t, err, common.ErrRoutingViolation)

	pc, err = pc.WithValidation(model.DecisionHandoffPayload{Decision: model.DecisionApprove, TransactionID: "0x1"})
	require.NoError(t, err)
	_, err = pc.WithValidation(model.DecisionHandoffPayload{})
	require.ErrorIs(t, err, common.ErrRoutingViolation)

	assert.Equal(t, 3, pc.Len())
	assert.Equal(t, []model.Stage{model.StageClassifier, model.StageDecision, model.StageValidator}, pc.Stages())

	d, ok := pc.Decision()
	require.True(t, ok)
	assert.Equal(t, model.DecisionReview, d.Decision)
}

func TestContext_WithReturnsNewValue(t *testing.T) {
	var base Context
	next, err := base.WithAnalysis(model.HandoffPayload{SourceAgent: "x"})
	require.NoError(t, err)

	assert.Equal(t, 0, base.Len())
	assert.Equal(t, 1, next.Len())
}

func TestContext_MarshalJSON(t *testing.T) {
	var pc Context
	pc, err := pc.WithAnalysis(model.HandoffPayload{SourceAgent: "Analyzer Agent", Intent: model.IntentTransaction, Confidence: 0.5, Reason: "r"})
	require.NoError(t, err)

	data, err := json.Marshal(pc)
	require.NoError(t, err)

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "classifier")
	assert.NotContains(t, decoded, "decision")

	empty, err := json.Marshal(Context{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(empty))
}
