package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/llm"
	"github.com/Veraticus/arcwise/internal/model"
)

type stubClient struct {
	err      error
	response string
	requests []llm.Request
}

func (s *stubClient) Infer(_ context.Context, req llm.Request) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

type stubScorer struct {
	err        error
	assessment RiskAssessment
}

func (s stubScorer) Score(context.Context, model.DecisionHandoffPayload) (RiskAssessment, error) {
	return s.assessment, s.err
}

func transferPayload(amount int64, recipient string, flagged bool) model.DecisionHandoffPayload {
	details := model.NewTransactionDetails(decimal.NewFromInt(amount), "USDC", recipient, "")
	return model.DecisionHandoffPayload{
		HandoffPayload: model.HandoffPayload{
			SourceAgent: model.StageDecision.Agent(),
			Intent:      model.IntentTransaction,
			Confidence:  0.9,
			Reason:      "transfer",
			Transaction: &details,
			SafetyFlag:  flagged,
		},
		Decision:   model.DecisionReview,
		NextAction: model.NextActionNotifyAdmin,
	}
}

func TestSafetyPolicy_Flag(t *testing.T) {
	policy := DefaultSafetyPolicy()

	tests := []struct {
		name      string
		amount    int64
		recipient string
		want      bool
	}{
		{name: "small clean transfer", amount: 10, recipient: "0xAbC1234ef5678", want: false},
		{name: "limit is not over the limit", amount: 10000, recipient: "alice", want: false},
		{name: "over the limit", amount: 10001, recipient: "alice", want: true},
		{name: "suspicious recipient", amount: 5, recipient: "suspicious_user", want: true},
		{name: "case insensitive", amount: 5, recipient: "ScamWallet", want: true},
		{name: "zero address", amount: 5, recipient: "0x0000", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := model.NewTransactionDetails(decimal.NewFromInt(tt.amount), "USDC", tt.recipient, "")
			assert.Equal(t, tt.want, policy.Flag(d))
		})
	}

	assert.False(t, policy.Flag(model.TransactionDetails{}))
}

func TestPatternSuspicionCheck_InvalidPattern(t *testing.T) {
	_, err := PatternSuspicionCheck([]string{"("})
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestClassifier_Classify(t *testing.T) {
	client := &stubClient{response: `{
		"intent": "transaction",
		"confidence": 0.93,
		"reason": "transfer request",
		"transaction": {"amount": 20000, "asset": "USDC", "recipient": "bob"},
		"safety_flag": false
	}`}

	c := NewClassifier(client, DefaultSafetyPolicy())
	result, err := c.Classify(context.Background(), "Send 20000 USDC to bob")
	require.NoError(t, err)

	assert.Equal(t, model.IntentTransaction, result.Intent)
	assert.True(t, result.SafetyFlag, "policy must raise the flag for large amounts")
	assert.True(t, result.Details().AmountValue().Equal(decimal.NewFromInt(20000)))

	require.Len(t, client.requests, 1)
	assert.Equal(t, llm.TaskClassify, client.requests[0].Task)
	assert.JSONEq(t, `{"text":"Send 20000 USDC to bob"}`, client.requests[0].Input)
}

func TestClassifier_PolicyNeverLowersFlag(t *testing.T) {
	client := &stubClient{response: `{"intent":"transaction","confidence":0.8,"reason":"odd","transaction":{"amount":1,"recipient":"carol"},"safety_flag":true}`}

	result, err := NewClassifier(client, DefaultSafetyPolicy()).Classify(context.Background(), "pay carol 1")
	require.NoError(t, err)
	assert.True(t, result.SafetyFlag)
}

func TestClassifier_Errors(t *testing.T) {
	tests := []struct {
		client  *stubClient
		wantErr error
		name    string
	}{
		{
			name:    "unknown intent",
			client:  &stubClient{response: `{"intent":"gamble","confidence":0.5,"reason":"x"}`},
			wantErr: common.ErrSchemaViolation,
		},
		{
			name:    "confidence out of range",
			client:  &stubClient{response: `{"intent":"general","confidence":1.5,"reason":"x"}`},
			wantErr: common.ErrSchemaViolation,
		},
		{
			name:    "negative amount",
			client:  &stubClient{response: `{"intent":"transaction","confidence":0.5,"reason":"x","transaction":{"amount":-4}}`},
			wantErr: common.ErrSchemaViolation,
		},
		{
			name:    "not json",
			client:  &stubClient{response: `sorry`},
			wantErr: common.ErrSchemaViolation,
		},
		{
			name:    "capability down",
			client:  &stubClient{err: errors.New("connection refused")},
			wantErr: common.ErrCapabilityFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClassifier(tt.client, DefaultSafetyPolicy()).Classify(context.Background(), "text")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecider_Decide(t *testing.T) {
	payload := transferPayload(10, "alice", false).HandoffPayload

	client := &stubClient{response: `{"decision":"approve","confidence":0.9,"reason":"normal","next_action":"execute_transaction"}`}
	result, err := NewDecider(client).Decide(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionApprove, result.Decision)
	assert.Equal(t, model.NextActionExecuteTransaction, result.NextAction)
	assert.Equal(t, llm.TaskDecide, client.requests[0].Task)
}

func TestDecider_EscalatesFlaggedApproval(t *testing.T) {
	payload := transferPayload(20000, "alice", true).HandoffPayload

	client := &stubClient{response: `{"decision":"approve","confidence":0.9,"reason":"looks fine","next_action":"execute_transaction"}`}
	result, err := NewDecider(client).Decide(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, model.DecisionReview, result.Decision)
	assert.Equal(t, model.NextActionNotifyAdmin, result.NextAction)
	assert.Contains(t, result.Reason, "safety flag")
}

func TestDecider_Errors(t *testing.T) {
	payload := transferPayload(10, "alice", false).HandoffPayload

	_, err := NewDecider(&stubClient{response: `{"decision":"maybe","confidence":0.5,"reason":"x"}`}).Decide(context.Background(), payload)
	require.ErrorIs(t, err, common.ErrSchemaViolation)

	_, err = NewDecider(&stubClient{response: `{"decision":"reject","confidence":0.5,"reason":"  "}`}).Decide(context.Background(), payload)
	require.ErrorIs(t, err, common.ErrSchemaViolation)

	_, err = NewDecider(&stubClient{err: context.DeadlineExceeded}).Decide(context.Background(), payload)
	require.ErrorIs(t, err, common.ErrCapabilityFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestValidator_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		score  float64
		status model.ComplianceStatus
	}{
		{name: "no risk", score: 0.0, status: model.ComplianceApproved},
		{name: "just below", score: 0.3999, status: model.ComplianceApproved},
		{name: "boundary rejects", score: 0.4, status: model.ComplianceRejected},
		{name: "above", score: 0.41, status: model.ComplianceRejected},
		{name: "maximum", score: 1.0, status: model.ComplianceRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(stubScorer{assessment: RiskAssessment{RiskScore: tt.score, Confidence: 0.8, ReviewData: "checked"}}, RiskThreshold)
			result, err := v.Validate(context.Background(), transferPayload(500, "alice", true))
			require.NoError(t, err)

			assert.Equal(t, tt.status, result.ComplianceStatus)
			assert.InDelta(t, tt.score, result.RiskScore, 1e-9)
			assert.Equal(t, "alice", result.Recipient)
			assert.True(t, result.Amount.Equal(decimal.NewFromInt(500)))

			if tt.status == model.ComplianceApproved {
				assert.NotEmpty(t, result.TransactionID)
				assert.Equal(t, model.NextActionExecuteTransaction, result.Recommendation)
				assert.Equal(t, model.DecisionApprove, result.Decision)
			} else {
				assert.Empty(t, result.TransactionID)
				assert.Equal(t, model.NextActionNotifyAdmin, result.Recommendation)
				assert.Equal(t, model.DecisionReject, result.Decision)
			}
		})
	}
}

func TestNewValidator_ThresholdFallback(t *testing.T) {
	assert.InDelta(t, RiskThreshold, NewValidator(stubScorer{}, 0).Threshold(), 1e-9)
	assert.InDelta(t, RiskThreshold, NewValidator(stubScorer{}, 3).Threshold(), 1e-9)
	assert.InDelta(t, 0.7, NewValidator(stubScorer{}, 0.7).Threshold(), 1e-9)
}

func TestValidator_Errors(t *testing.T) {
	payload := transferPayload(500, "alice", true)

	_, err := NewValidator(stubScorer{assessment: RiskAssessment{RiskScore: 1.5, Confidence: 0.5}}, RiskThreshold).Validate(context.Background(), payload)
	require.ErrorIs(t, err, common.ErrSchemaViolation)

	scorerErr := errors.New("scorer down")
	_, err = NewValidator(stubScorer{err: scorerErr}, RiskThreshold).Validate(context.Background(), payload)
	require.ErrorIs(t, err, scorerErr)
}

func TestLLMRiskScorer(t *testing.T) {
	scorer := NewLLMRiskScorer(llm.NewOfflineClient())

	low, err := scorer.Score(context.Background(), transferPayload(50, "alice", false))
	require.NoError(t, err)
	assert.Less(t, low.RiskScore, RiskThreshold)

	high, err := scorer.Score(context.Background(), transferPayload(20000, "suspicious_user", true))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, high.RiskScore, RiskThreshold)
	assert.NotEmpty(t, high.ReviewData)

	_, err = NewLLMRiskScorer(&stubClient{response: `{"risk_score":-1,"confidence":0.5,"review_data":""}`}).
		Score(context.Background(), transferPayload(50, "alice", false))
	require.ErrorIs(t, err, common.ErrSchemaViolation)
}

func TestExecutor_Execute(t *testing.T) {
	payload := transferPayload(10, "0xAbC1234ef5678", false)
	payload.Decision = model.DecisionApprove

	result, err := NewExecutor(nil).Execute(context.Background(), payload)
	require.NoError(t, err)

	assert.True(t, result.Succeeded())
	assert.NotEmpty(t, result.TransactionID)
	assert.True(t, result.Amount.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "0xAbC1234ef5678", result.Recipient)
	assert.Equal(t, "Sent 10 USDC to 0xAbC1234ef5678", result.Message)
}

func TestExecutor_ReusesValidatorTransactionID(t *testing.T) {
	payload := transferPayload(10, "alice", true)
	payload.TransactionID = "0xfeed"

	result, err := NewExecutor(&MockSettlement{}).Execute(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "0xfeed", result.TransactionID)
}

func TestExecutor_SimulatedFailure(t *testing.T) {
	payload := transferPayload(10, "", false)

	result, err := NewExecutor(&MockSettlement{MintID: func() string { return "0xabc" }}).Execute(context.Background(), payload)
	require.NoError(t, err)

	assert.False(t, result.Succeeded())
	assert.Equal(t, "0xabc", result.TransactionID)
	assert.Equal(t, "recipient is missing", result.Reason)
	assert.Equal(t, "Transaction failed: recipient is missing", result.Message)
}

func TestExecutor_CustomRejectPolicy(t *testing.T) {
	settlement := &MockSettlement{
		Reject: func(d model.TransactionDetails) string {
			if d.AssetValue() != "USDC" {
				return "unsupported asset"
			}
			return ""
		},
	}

	details := model.NewTransactionDetails(decimal.NewFromInt(3), "BTC", "alice", "")
	payload := transferPayload(3, "alice", false)
	payload.Transaction = &details

	result, err := NewExecutor(settlement).Execute(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionFailed, result.Decision)
	assert.Equal(t, "unsupported asset", result.Reason)
}

type brokenSettlement struct{}

func (brokenSettlement) Submit(context.Context, string, model.TransactionDetails) (Receipt, error) {
	return Receipt{}, errors.New("node unreachable")
}

func TestExecutor_SettlementError(t *testing.T) {
	_, err := NewExecutor(brokenSettlement{}).Execute(context.Background(), transferPayload(10, "alice", false))
	require.ErrorIs(t, err, common.ErrCapabilityFailure)
}

func TestMintTransactionID(t *testing.T) {
	a, b := MintTransactionID(), MintTransactionID()
	assert.Len(t, a, 34)
	assert.True(t, len(a) > 2 && a[:2] == "0x")
	assert.NotEqual(t, a, b)
}
