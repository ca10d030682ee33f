package model

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/arcwise/internal/common"
)

// TransactionDetails holds the transfer extracted from a request.
// Every field is optional; the classifier fills what the text mentions.
type TransactionDetails struct {
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	Asset     *string          `json:"asset,omitempty"`
	Recipient *string          `json:"recipient,omitempty"`
	Memo      *string          `json:"memo,omitempty"`
}

// Validate checks that a present amount is positive.
func (t TransactionDetails) Validate() error {
	if t.Amount != nil && !t.Amount.IsPositive() {
		return common.SchemaViolation("transaction amount must be positive, got %s", t.Amount.String())
	}
	return nil
}

// AmountValue returns the amount, or zero when absent.
func (t TransactionDetails) AmountValue() decimal.Decimal {
	if t.Amount == nil {
		return decimal.Zero
	}
	return *t.Amount
}

// RecipientValue returns the recipient, or "" when absent.
func (t TransactionDetails) RecipientValue() string {
	if t.Recipient == nil {
		return ""
	}
	return *t.Recipient
}

// AssetValue returns the asset symbol, or "" when absent.
func (t TransactionDetails) AssetValue() string {
	if t.Asset == nil {
		return ""
	}
	return *t.Asset
}

// MemoValue returns the memo, or "" when absent.
func (t TransactionDetails) MemoValue() string {
	if t.Memo == nil {
		return ""
	}
	return *t.Memo
}

// NewTransactionDetails builds details from plain values. Empty strings and a
// zero amount are treated as absent.
func NewTransactionDetails(amount decimal.Decimal, asset, recipient, memo string) TransactionDetails {
	var t TransactionDetails
	if !amount.IsZero() {
		t.Amount = &amount
	}
	t.Asset = optional(asset)
	t.Recipient = optional(recipient)
	t.Memo = optional(memo)
	return t
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
