package agents

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/google/uuid"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
)

// Validator re-scores transactions sent to review and clears or blocks
// them against a fixed risk threshold.
type Validator struct {
	scorer    RiskScorer
	mintID    func() string
	threshold float64
}

// NewValidator creates a validator stage. A threshold outside (0,1] falls
// back to RiskThreshold.
func NewValidator(scorer RiskScorer, threshold float64) *Validator {
	if threshold <= 0 || threshold > 1 {
		threshold = RiskThreshold
	}
	return &Validator{
		scorer:    scorer,
		threshold: threshold,
		mintID:    MintTransactionID,
	}
}

// Threshold returns the risk score at or above which transactions are
// rejected.
func (v *Validator) Threshold() float64 {
	return v.threshold
}

// Validate scores the payload. Scores below the threshold are approved and
// receive a transaction id; scores at or above it are rejected.
func (v *Validator) Validate(ctx context.Context, payload model.DecisionHandoffPayload) (model.ValidationResult, error) {
	logger := common.LoggerFrom(ctx)
	logger.Info("Handoff received",
		"from", payload.SourceAgent,
		"safety_flag", payload.SafetyFlag)

	assessment, err := v.scorer.Score(ctx, payload)
	if err != nil {
		return model.ValidationResult{}, err
	}
	if err := assessment.Validate(); err != nil {
		return model.ValidationResult{}, err
	}

	d := payload.Details()
	result := model.ValidationResult{
		Amount:     d.AmountValue(),
		Recipient:  d.RecipientValue(),
		ReviewData: assessment.ReviewData,
		Confidence: assessment.Confidence,
		RiskScore:  assessment.RiskScore,
	}

	if assessment.RiskScore < v.threshold {
		result.ComplianceStatus = model.ComplianceApproved
		result.Recommendation = model.NextActionExecuteTransaction
		result.Decision = model.DecisionApprove
		result.TransactionID = v.mintID()
		result.Message = fmt.Sprintf("risk score %.2f below threshold %.2f", assessment.RiskScore, v.threshold)
	} else {
		result.ComplianceStatus = model.ComplianceRejected
		result.Recommendation = model.NextActionNotifyAdmin
		result.Decision = model.DecisionReject
		result.Message = fmt.Sprintf("risk score %.2f at or above threshold %.2f", assessment.RiskScore, v.threshold)
	}

	result, err = model.NewValidationResult(result)
	if err != nil {
		return model.ValidationResult{}, err
	}

	logger.Info("Validation complete",
		"compliance_status", result.ComplianceStatus,
		"risk_score", result.RiskScore)
	return result, nil
}

// MintTransactionID returns a mock transaction hash.
func MintTransactionID() string {
	id := uuid.New()
	return "0x" + hex.EncodeToString(id[:])
}
