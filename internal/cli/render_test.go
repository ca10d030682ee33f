package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/arcwise/internal/model"
	"github.com/Veraticus/arcwise/internal/pipeline"
	"github.com/Veraticus/arcwise/internal/storage"
	"github.com/Veraticus/arcwise/internal/testutil"
)

func runOffline(t *testing.T, text string) *pipeline.Result {
	t.Helper()
	result, err := testutil.OfflinePipeline().Run(context.Background(), text)
	require.NoError(t, err)
	return result
}

func TestRenderResult(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{
			input: "Transfer 10 USDC to 0xAbC1234ef5678 for invoice #223",
			want:  []string{"Executor Agent", "Analyzer Agent → Decision Agent → Executor Agent", "success", "0xAbC1234ef5678"},
		},
		{
			input: "Send 20000 USDC to suspicious_user",
			want:  []string{"Validator Agent", "rejected", "notify_admin", "suspicious_user"},
		},
		{
			input: "What's my USDC balance?",
			want:  []string{"Analyzer Agent", "information", "clear"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := runOffline(t, tt.input)
			out := RenderResult(result)
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			assert.Contains(t, out, result.RunID)
		})
	}
}

func TestRenderResult_RejectedOmitsTransaction(t *testing.T) {
	out := RenderResult(runOffline(t, "Send 20000 USDC to suspicious_user"))
	assert.NotContains(t, out, "Transaction")
}

func TestRenderRuns(t *testing.T) {
	runs := []storage.Run{
		{
			ID:           "0f0e0d0c-aaaa-bbbb-cccc-000000000001",
			CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			Input:        "Send 20000 USDC to suspicious_user",
			Status:       storage.RunCompleted,
			Stage:        model.StageValidator,
			Outcome:      "rejected",
			HandoffCount: 2,
		},
		{
			ID:        "0f0e0d0c-aaaa-bbbb-cccc-000000000002",
			CreatedAt: time.Date(2025, 1, 2, 3, 5, 5, 0, time.UTC),
			Input:     "Transfer 10 USDC to bob",
			Status:    storage.RunFailed,
			Stage:     model.StageClassifier,
			Error:     "capability failure",
		},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderRuns(&buf, runs))

	out := buf.String()
	assert.Contains(t, out, "0f0e0d0c-aaaa-bbbb-cccc-000000000001")
	assert.Contains(t, out, "validator")
	assert.Contains(t, out, "rejected")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "Transfer 10 USDC to bob")
}

func TestRenderRun(t *testing.T) {
	run := &storage.Run{
		ID:           "run-1",
		CreatedAt:    time.Now(),
		Input:        "Send 20000 USDC to suspicious_user",
		Status:       storage.RunCompleted,
		Stage:        model.StageValidator,
		Outcome:      "rejected",
		Result:       json.RawMessage(`{"compliance_status":"rejected"}`),
		Handoffs:     json.RawMessage(`{"classifier":{"intent":"transaction"}}`),
		HandoffCount: 1,
	}

	out := RenderRun(run)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, `"compliance_status": "rejected"`)
	assert.Contains(t, out, `"intent": "transaction"`)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}

func TestProgress(t *testing.T) {
	var buf syncBuffer
	p := NewProgress(&buf, 2, "Processing")
	p.Done()
	p.Done()
	p.Finish()

	assert.NotEmpty(t, buf.String())

	var nilProgress *Progress
	nilProgress.Done()
	nilProgress.Finish()
}
