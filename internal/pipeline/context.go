package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/Veraticus/arcwise/internal/common"
	"github.com/Veraticus/arcwise/internal/model"
)

// Context accumulates hand-off payloads keyed by the stage that handed off.
// It is a value: With methods return a new Context and never overwrite an
// existing entry.
type Context struct {
	analysis   *model.HandoffPayload
	decision   *model.DecisionHandoffPayload
	validation *model.DecisionHandoffPayload
}

// Len returns the number of hand-offs recorded.
func (c Context) Len() int {
	n := 0
	if c.analysis != nil {
		n++
	}
	if c.decision != nil {
		n++
	}
	if c.validation != nil {
		n++
	}
	return n
}

// Stages lists the stages that have handed off, in pipeline order.
func (c Context) Stages() []model.Stage {
	var out []model.Stage
	if c.analysis != nil {
		out = append(out, model.StageClassifier)
	}
	if c.decision != nil {
		out = append(out, model.StageDecision)
	}
	if c.validation != nil {
		out = append(out, model.StageValidator)
	}
	return out
}

// Analysis returns the classifier's hand-off.
func (c Context) Analysis() (model.HandoffPayload, bool) {
	if c.analysis == nil {
		return model.HandoffPayload{}, false
	}
	return *c.analysis, true
}

// Decision returns the decision stage's hand-off.
func (c Context) Decision() (model.DecisionHandoffPayload, bool) {
	if c.decision == nil {
		return model.DecisionHandoffPayload{}, false
	}
	return *c.decision, true
}

// Validation returns the validator's hand-off.
func (c Context) Validation() (model.DecisionHandoffPayload, bool) {
	if c.validation == nil {
		return model.DecisionHandoffPayload{}, false
	}
	return *c.validation, true
}

// WithAnalysis records the classifier's hand-off.
func (c Context) WithAnalysis(p model.HandoffPayload) (Context, error) {
	if c.analysis != nil {
		return c, overwrite(model.StageClassifier)
	}
	c.analysis = &p
	return c, nil
}

// WithDecision records the decision stage's hand-off.
func (c Context) WithDecision(p model.DecisionHandoffPayload) (Context, error) {
	if c.decision != nil {
		return c, overwrite(model.StageDecision)
	}
	c.decision = &p
	return c, nil
}

// WithValidation records the validator's hand-off.
func (c Context) WithValidation(p model.DecisionHandoffPayload) (Context, error) {
	if c.validation != nil {
		return c, overwrite(model.StageValidator)
	}
	c.validation = &p
	return c, nil
}

// MarshalJSON encodes the context as an object keyed by stage name.
func (c Context) MarshalJSON() ([]byte, error) {
	m := make(map[model.Stage]any, c.Len())
	if c.analysis != nil {
		m[model.StageClassifier] = c.analysis
	}
	if c.decision != nil {
		m[model.StageDecision] = c.decision
	}
	if c.validation != nil {
		m[model.StageValidator] = c.validation
	}
	return json.Marshal(m)
}

func overwrite(stage model.Stage) error {
	return fmt.Errorf("%w: %s hand-off already recorded", common.ErrRoutingViolation, stage)
}
