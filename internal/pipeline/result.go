package pipeline

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/arcwise/internal/model"
)

// Result is the terminal record of a run, tagged with the stage that
// produced it.
type Result struct {
	Output    Output
	CreatedAt time.Time
	RunID     string
	Input     string
	Context   Context
}

// Stage returns the stage that produced the terminal output.
func (r *Result) Stage() model.Stage {
	return r.Output.Stage()
}

// Record returns the terminal record itself.
func (r *Result) Record() any {
	return r.Output.record()
}

// Analysis returns the terminal analysis, if the classifier ended the run.
func (r *Result) Analysis() (model.AnalysisResult, bool) {
	o, ok := r.Output.(ClassifierOutput)
	return o.Result, ok
}

// Decision returns the terminal decision, if the decision stage ended the run.
func (r *Result) Decision() (model.DecisionResult, bool) {
	o, ok := r.Output.(DecisionOutput)
	return o.Result, ok
}

// Validation returns the terminal validation, if the validator ended the run.
func (r *Result) Validation() (model.ValidationResult, bool) {
	o, ok := r.Output.(ValidatorOutput)
	return o.Result, ok
}

// Execution returns the execution record, if the executor ended the run.
func (r *Result) Execution() (model.ExecutionResult, bool) {
	o, ok := r.Output.(ExecutorOutput)
	return o.Result, ok
}

// MarshalJSON encodes the result with its stage tag.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		CreatedAt time.Time   `json:"created_at"`
		Result    any         `json:"result"`
		RunID     string      `json:"run_id"`
		Input     string      `json:"input"`
		Stage     model.Stage `json:"stage"`
		Handoffs  Context     `json:"handoffs"`
	}{
		RunID:     r.RunID,
		Input:     r.Input,
		Stage:     r.Stage(),
		Result:    r.Record(),
		Handoffs:  r.Context,
		CreatedAt: r.CreatedAt,
	})
}

// StageError tags a failure with the stage it happened in.
type StageError struct {
	Err   error
	Stage model.Stage
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
