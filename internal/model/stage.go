// Package model defines the records exchanged between pipeline stages.
//
// Every record is a value type. A stage builds its record once, validates it,
// and hands a copy to the next stage; nothing mutates a record afterwards.
package model

import (
	"encoding/json"
	"math"
	"slices"

	"github.com/Veraticus/arcwise/internal/common"
)

// Stage identifies one step of the pipeline.
type Stage string

// Pipeline stages.
const (
	StageClassifier Stage = "classifier"
	StageDecision   Stage = "decision"
	StageValidator  Stage = "validator"
	StageExecutor   Stage = "executor"
)

var stages = []Stage{
	StageClassifier,
	StageDecision,
	StageValidator,
	StageExecutor,
}

// Stages returns every pipeline stage in execution order.
func Stages() []Stage {
	return slices.Clone(stages)
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	return slices.Contains(stages, s)
}

// Agent returns the agent label used as source_agent in hand-off payloads.
func (s Stage) Agent() string {
	switch s {
	case StageClassifier:
		return "Analyzer Agent"
	case StageDecision:
		return "Decision Agent"
	case StageValidator:
		return "Validator Agent"
	case StageExecutor:
		return "Executor Agent"
	default:
		return string(s)
	}
}

// UnmarshalJSON rejects unknown stages.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v := Stage(raw)
	if !v.Valid() {
		return common.SchemaViolation("unknown stage %q", raw)
	}
	*s = v
	return nil
}

// ValidateUnit checks that v lies in the closed interval [0,1].
func ValidateUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return common.SchemaViolation("%s must be between 0.0 and 1.0, got %v", name, v)
	}
	return nil
}
