package agents

import (
	"context"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/llm"
	"github.com/Veraticus/arcwise/internal/model"
)

// Classifier maps free text to an intent, transaction details and a
// safety flag.
type Classifier struct {
	client llm.Client
	policy SafetyPolicy
}

// NewClassifier creates a classifier stage.
func NewClassifier(client llm.Client, policy SafetyPolicy) *Classifier {
	return &Classifier{
		client: client,
		policy: policy,
	}
}

// Classify analyzes text. The safety policy can raise the model's safety
// flag but never lowers it.
func (c *Classifier) Classify(ctx context.Context, text string) (model.AnalysisResult, error) {
	logger := common.LoggerFrom(ctx)
	logger.Debug("Analyzing input", "text", text)

	raw, err := llm.Infer[model.AnalysisResult](ctx, c.client, classifyPrompt, map[string]string{"text": text})
	if err != nil {
		return model.AnalysisResult{}, err
	}

	flag := raw.SafetyFlag
	if raw.Transaction != nil && c.policy.Flag(*raw.Transaction) {
		if !flag {
			logger.Info("Safety policy raised flag",
				"amount", raw.Details().AmountValue().String(),
				"recipient", raw.Details().RecipientValue())
		}
		flag = true
	}

	result, err := model.NewAnalysisResult(raw.Intent, raw.Confidence, raw.Reason, raw.Transaction, flag)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	logger.Info("Analysis complete",
		"intent", result.Intent,
		"confidence", result.Confidence,
		"safety_flag", result.SafetyFlag)
	return result, nil
}
