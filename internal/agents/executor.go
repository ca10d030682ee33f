package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
)

// Executor carries out approved transactions through a Settlement.
type Executor struct {
	settlement Settlement
}

// NewExecutor creates an executor stage. A nil settlement uses
// MockSettlement.
func NewExecutor(settlement Settlement) *Executor {
	if settlement == nil {
		settlement = &MockSettlement{}
	}
	return &Executor{settlement: settlement}
}

// Execute submits the transaction and reports the outcome. It reuses the
// payload's transaction id when the validator already minted one.
func (e *Executor) Execute(ctx context.Context, payload model.DecisionHandoffPayload) (model.ExecutionResult, error) {
	logger := common.LoggerFrom(ctx)
	logger.Info("Received approved handoff", "from", payload.SourceAgent)

	d := payload.Details()
	receipt, err := e.settlement.Submit(ctx, payload.TransactionID, d)
	if err != nil {
		return model.ExecutionResult{}, fmt.Errorf("%w: settlement: %w", common.ErrCapabilityFailure, err)
	}

	result := model.ExecutionResult{
		TransactionID: receipt.TransactionID,
		Decision:      receipt.Status,
		Reason:        receipt.Reason,
		Amount:        d.AmountValue(),
		Recipient:     d.RecipientValue(),
		Message:       summarize(receipt, d),
	}

	result, err = model.NewExecutionResult(result)
	if err != nil {
		return model.ExecutionResult{}, err
	}

	logger.Info("Execution complete",
		"transaction_id", result.TransactionID,
		"decision", result.Decision)
	return result, nil
}

func summarize(r Receipt, d model.TransactionDetails) string {
	if r.Status != model.ExecutionSuccess {
		return "Transaction failed: " + r.Reason
	}

	parts := []string{"Sent", d.AmountValue().String()}
	if asset := d.AssetValue(); asset != "" {
		parts = append(parts, asset)
	}
	parts = append(parts, "to", d.RecipientValue())
	if memo := d.MemoValue(); memo != "" {
		parts = append(parts, "for", memo)
	}
	return strings.Join(parts, " ")
}
