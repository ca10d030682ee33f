package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/arcwise/internal/model"
)

// OfflineClient is a deterministic, network-free provider. It answers each
// task with keyword heuristics so the pipeline can run locally and in tests.
type OfflineClient struct {
	calls []Request
	mu    sync.Mutex
}

// NewOfflineClient creates a new offline client.
func NewOfflineClient() *OfflineClient {
	return &OfflineClient{
		calls: make([]Request, 0),
	}
}

// Calls returns the requests received so far.
func (c *OfflineClient) Calls() []Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Request, len(c.calls))
	copy(out, c.calls)
	return out
}

// Infer answers a request based on its task.
func (c *OfflineClient) Infer(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	c.calls = append(c.calls, req)
	c.mu.Unlock()

	var resp any
	var err error

	switch req.Task {
	case TaskClassify:
		resp, err = offlineClassify(req.Input)
	case TaskDecide:
		resp, err = offlineDecide(req.Input)
	case TaskAssess:
		resp, err = offlineAssess(req.Input)
	default:
		return "", fmt.Errorf("offline provider: unsupported task %q", req.Task)
	}
	if err != nil {
		return "", fmt.Errorf("offline provider: %w", err)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("offline provider: failed to marshal response: %w", err)
	}
	return string(data), nil
}

var (
	amountPattern    = regexp.MustCompile(`(\d[\d,]*(?:\.\d+)?)\s*([A-Za-z]{2,6})?`)
	recipientPattern = regexp.MustCompile(`(?i)\bto\s+([^\s,]+)`)
	memoPattern      = regexp.MustCompile(`(?i)\bfor\s+(.+)$`)

	transferWords    = []string{"send", "transfer", "pay", "wire", "remit"}
	investWords      = []string{"invest", "buy", "stake", "portfolio"}
	informationWords = []string{"balance", "what", "how", "price", "rate", "history", "?"}
	suspiciousWords  = []string{"suspicious", "scam", "fraud", "mixer", "unknown"}
	assetStopWords   = []string{"to", "for", "in", "into", "from", "of"}
)

type offlineAnalysis struct {
	Intent      model.Intent              `json:"intent"`
	Confidence  float64                   `json:"confidence"`
	Reason      string                    `json:"reason"`
	Transaction *model.TransactionDetails `json:"transaction,omitempty"`
	SafetyFlag  bool                      `json:"safety_flag"`
}

func offlineClassify(input string) (offlineAnalysis, error) {
	var in struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(input), &in); err != nil {
		return offlineAnalysis{}, fmt.Errorf("invalid classify input: %w", err)
	}

	text := strings.TrimSpace(in.Text)
	lower := strings.ToLower(text)
	amount, asset, hasAmount := extractAmount(text)

	switch {
	case containsAny(lower, transferWords) && hasAmount:
		details := model.NewTransactionDetails(amount, asset, firstGroup(recipientPattern, text), firstGroup(memoPattern, text))
		flag := amount.GreaterThan(decimal.NewFromInt(10000)) || looksSuspicious(details.RecipientValue())
		return offlineAnalysis{
			Intent:      model.IntentTransaction,
			Confidence:  0.95,
			Reason:      fmt.Sprintf("request asks to move %s %s", amount.String(), details.AssetValue()),
			Transaction: &details,
			SafetyFlag:  flag,
		}, nil
	case containsAny(lower, investWords):
		return offlineAnalysis{
			Intent:     model.IntentInvestment,
			Confidence: 0.85,
			Reason:     "request describes an investment",
		}, nil
	case containsAny(lower, informationWords):
		return offlineAnalysis{
			Intent:     model.IntentInformation,
			Confidence: 0.9,
			Reason:     "request asks for information",
		}, nil
	default:
		return offlineAnalysis{
			Intent:     model.IntentGeneral,
			Confidence: 0.6,
			Reason:     "no financial action recognized",
		}, nil
	}
}

type offlineDecision struct {
	Decision   model.Decision   `json:"decision"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
	NextAction model.NextAction `json:"next_action,omitempty"`
}

func offlineDecide(input string) (offlineDecision, error) {
	var p model.HandoffPayload
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		return offlineDecision{}, fmt.Errorf("invalid decide input: %w", err)
	}

	d := p.Details()
	switch {
	case d.Amount == nil || d.RecipientValue() == "":
		return offlineDecision{
			Decision:   model.DecisionReject,
			Confidence: 0.9,
			Reason:     "transaction is missing an amount or recipient",
			NextAction: model.NextActionFollowUp,
		}, nil
	case p.SafetyFlag || d.AmountValue().GreaterThan(decimal.NewFromInt(10000)):
		return offlineDecision{
			Decision:   model.DecisionReview,
			Confidence: 0.8,
			Reason:     "transaction is flagged or unusually large",
			NextAction: model.NextActionNotifyAdmin,
		}, nil
	default:
		return offlineDecision{
			Decision:   model.DecisionApprove,
			Confidence: 0.92,
			Reason:     "ordinary transfer to a well-formed recipient",
			NextAction: model.NextActionExecuteTransaction,
		}, nil
	}
}

type offlineAssessment struct {
	RiskScore  float64 `json:"risk_score"`
	Confidence float64 `json:"confidence"`
	ReviewData string  `json:"review_data"`
}

func offlineAssess(input string) (offlineAssessment, error) {
	var p model.DecisionHandoffPayload
	if err := json.Unmarshal([]byte(input), &p); err != nil {
		return offlineAssessment{}, fmt.Errorf("invalid assess input: %w", err)
	}

	d := p.Details()
	score := 0.1
	var notes []string

	if d.AmountValue().GreaterThan(decimal.NewFromInt(10000)) {
		score += 0.35
		notes = append(notes, "amount exceeds 10000")
	}
	if looksSuspicious(d.RecipientValue()) {
		score += 0.4
		notes = append(notes, "recipient matches a suspicious pattern")
	}
	if p.SafetyFlag {
		score += 0.15
		notes = append(notes, "safety flag raised upstream")
	}
	if len(notes) == 0 {
		notes = append(notes, "no risk indicators")
	}

	return offlineAssessment{
		RiskScore:  min(score, 1.0),
		Confidence: 0.9,
		ReviewData: strings.Join(notes, "; "),
	}, nil
}

func extractAmount(text string) (decimal.Decimal, string, bool) {
	m := amountPattern.FindStringSubmatch(text)
	if m == nil {
		return decimal.Zero, "", false
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, "", false
	}

	asset := m[2]
	if containsWord(strings.ToLower(asset), assetStopWords) {
		asset = ""
	}

	return amount, strings.ToUpper(asset), true
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

func looksSuspicious(recipient string) bool {
	return recipient != "" && containsAny(strings.ToLower(recipient), suspiciousWords)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func containsWord(s string, words []string) bool {
	for _, w := range words {
		if s == w {
			return true
		}
	}
	return false
}
