package agents

import (
	"context"

	"github.com/Veraticus/arcwise/internal/model"
)

// Receipt is a settlement system's answer to a submission.
type Receipt struct {
	TransactionID string
	Status        model.ExecutionStatus
	Reason        string
}

// Settlement submits approved transactions. A returned error means the
// settlement system itself was unreachable; a declined transaction is a
// Receipt with Status failed.
type Settlement interface {
	Submit(ctx context.Context, txID string, details model.TransactionDetails) (Receipt, error)
}

// MockSettlement accepts everything its Reject policy lets through. It
// performs no network calls.
type MockSettlement struct {
	// Reject returns a non-empty reason to fail a submission. Nil means
	// DefaultRejectPolicy.
	Reject func(model.TransactionDetails) string
	// MintID generates ids for submissions without one. Nil means
	// MintTransactionID.
	MintID func() string
}

// DefaultRejectPolicy fails transactions without a positive amount or a
// recipient.
func DefaultRejectPolicy(d model.TransactionDetails) string {
	switch {
	case d.Amount == nil || !d.Amount.IsPositive():
		return "amount is missing"
	case d.RecipientValue() == "":
		return "recipient is missing"
	default:
		return ""
	}
}

// Submit implements Settlement.
func (m *MockSettlement) Submit(ctx context.Context, txID string, details model.TransactionDetails) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	if txID == "" {
		mint := m.MintID
		if mint == nil {
			mint = MintTransactionID
		}
		txID = mint()
	}

	reject := m.Reject
	if reject == nil {
		reject = DefaultRejectPolicy
	}

	if reason := reject(details); reason != "" {
		return Receipt{TransactionID: txID, Status: model.ExecutionFailed, Reason: reason}, nil
	}
	return Receipt{TransactionID: txID, Status: model.ExecutionSuccess, Reason: "settled on mock network"}, nil
}

var _ Settlement = (*MockSettlement)(nil)
