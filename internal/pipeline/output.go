package pipeline

import "github.com/Veraticus/arcwise/internal/model"

// Output is the structured result of one stage. The set of implementations
// is closed.
type Output interface {
	// Stage reports which stage produced the output.
	Stage() model.Stage
	record() any
}

// ClassifierOutput wraps the classifier's analysis.
type ClassifierOutput struct {
	Result model.AnalysisResult
}

// DecisionOutput wraps the decision stage's result.
type DecisionOutput struct {
	Result model.DecisionResult
}

// ValidatorOutput wraps the validator's compliance result.
type ValidatorOutput struct {
	Result model.ValidationResult
}

// ExecutorOutput wraps the executor's settlement result.
type ExecutorOutput struct {
	Result model.ExecutionResult
}

// Stage implements Output.
func (ClassifierOutput) Stage() model.Stage { return model.StageClassifier }

// Stage implements Output.
func (DecisionOutput) Stage() model.Stage { return model.StageDecision }

// Stage implements Output.
func (ValidatorOutput) Stage() model.Stage { return model.StageValidator }

// Stage implements Output.
func (ExecutorOutput) Stage() model.Stage { return model.StageExecutor }

func (o ClassifierOutput) record() any { return o.Result }
func (o DecisionOutput) record() any   { return o.Result }
func (o ValidatorOutput) record() any  { return o.Result }
func (o ExecutorOutput) record() any   { return o.Result }

// Step is the router's verdict on an output: Handoff or Terminate.
type Step interface {
	isStep()
}

// Handoff forwards control to the next stage. The payload for To is the
// entry From added to the Context.
type Handoff struct {
	From model.Stage
	To   model.Stage
}

// Terminate ends the run with Output as its result.
type Terminate struct {
	Output Output
}

func (Handoff) isStep()   {}
func (Terminate) isStep() {}
