package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
)

// Classifier is the first stage.
type Classifier interface {
	Classify(ctx context.Context, text string) (model.AnalysisResult, error)
}

// Decider is the decision stage.
type Decider interface {
	Decide(ctx context.Context, payload model.HandoffPayload) (model.DecisionResult, error)
}

// Validator is the optional compliance stage.
type Validator interface {
	Validate(ctx context.Context, payload model.DecisionHandoffPayload) (model.ValidationResult, error)
}

// Executor is the final stage.
type Executor interface {
	Execute(ctx context.Context, payload model.DecisionHandoffPayload) (model.ExecutionResult, error)
}

// Entry is one run as seen by a Journal. Exactly one of Result and Err is set.
type Entry struct {
	Err       error
	Result    *Result
	CreatedAt time.Time
	RunID     string
	Input     string
}

// Journal records finished runs. The pipeline never reads it back.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
}

// Pipeline drives one request through the stages.
type Pipeline struct {
	classifier Classifier
	decider    Decider
	validator  Validator
	executor   Executor
	journal    Journal
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithJournal records every finished run in j.
func WithJournal(j Journal) Option {
	return func(p *Pipeline) {
		p.journal = j
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithClock sets the time source for run timestamps. The default is
// time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a pipeline. The validator may be nil, in which case a review
// decision fails the run with ErrRoutingViolation.
func New(classifier Classifier, decider Decider, validator Validator, executor Executor, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classifier,
		decider:    decider,
		validator:  validator,
		executor:   executor,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes text until a stage produces a terminal output. Failures are
// returned as *StageError.
func (p *Pipeline) Run(ctx context.Context, text string) (*Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	logger.Info("Pipeline started", "input", text)

	result, err := p.run(common.ContextWithLogger(ctx, logger), logger, text)
	createdAt := p.now().UTC()
	if result != nil {
		result.RunID = runID
		result.Input = text
		result.CreatedAt = createdAt
		logger.Info("Pipeline finished", "stage", result.Stage(), "handoffs", result.Context.Len())
	} else {
		logger.Error("Pipeline failed", "error", err)
	}

	p.record(ctx, logger, Entry{
		RunID:     runID,
		Input:     text,
		Result:    result,
		Err:       err,
		CreatedAt: createdAt,
	})

	return result, err
}

func (p *Pipeline) run(ctx context.Context, logger *slog.Logger, text string) (*Result, error) {
	analysis, err := p.classifier.Classify(ctx, text)
	if err != nil {
		return nil, &StageError{Stage: model.StageClassifier, Err: err}
	}

	var pc Context
	var out Output = ClassifierOutput{Result: analysis}

	for {
		next, step, err := Transition(pc, out)
		if err != nil {
			return nil, &StageError{Stage: out.Stage(), Err: err}
		}
		pc = next

		switch s := step.(type) {
		case Terminate:
			return &Result{Output: s.Output, Context: pc}, nil
		case Handoff:
			logger.Info("Handoff", "from", s.From.Agent(), "to", s.To.Agent())
			out, err = p.dispatch(ctx, pc, s.To)
			if err != nil {
				return nil, &StageError{Stage: s.To, Err: err}
			}
		default:
			return nil, &StageError{Stage: out.Stage(), Err: fmt.Errorf("%w: unknown step %T", common.ErrRoutingViolation, step)}
		}
	}
}

func (p *Pipeline) dispatch(ctx context.Context, pc Context, to model.Stage) (Output, error) {
	switch to {
	case model.StageDecision:
		payload, ok := pc.Analysis()
		if !ok {
			return nil, missingPayload(to)
		}
		r, err := p.decider.Decide(ctx, payload)
		if err != nil {
			return nil, err
		}
		return DecisionOutput{Result: r}, nil

	case model.StageValidator:
		if p.validator == nil {
			return nil, fmt.Errorf("%w: no validator configured for review", common.ErrRoutingViolation)
		}
		payload, ok := pc.Decision()
		if !ok {
			return nil, missingPayload(to)
		}
		r, err := p.validator.Validate(ctx, payload)
		if err != nil {
			return nil, err
		}
		return ValidatorOutput{Result: r}, nil

	case model.StageExecutor:
		payload, ok := pc.Validation()
		if !ok {
			payload, ok = pc.Decision()
		}
		if !ok {
			return nil, missingPayload(to)
		}
		r, err := p.executor.Execute(ctx, payload)
		if err != nil {
			return nil, err
		}
		return ExecutorOutput{Result: r}, nil

	default:
		return nil, fmt.Errorf("%w: cannot hand off to %q", common.ErrRoutingViolation, to)
	}
}

func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, entry Entry) {
	if p.journal == nil {
		return
	}
	// The journal must not change the outcome of the run, including when the
	// run was canceled.
	if err := p.journal.Append(context.WithoutCancel(ctx), entry); err != nil {
		logger.Warn("Failed to journal run", "error", err)
	}
}

func missingPayload(to model.Stage) error {
	return fmt.Errorf("%w: no payload for %s", common.ErrRoutingViolation, to)
}

// FailedStage reports the stage a Run error came from.
func FailedStage(err error) (model.Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}
