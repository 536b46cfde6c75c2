package plan

import "fmt"

// ExecutionFeedback is a structured assessment of one completed step's
// quality, produced by the feedback generator and consumed by the evaluator.
type ExecutionFeedback struct {
	StepCompleted        string   `json:"step_completed"`
	FindingsQuality      float64  `json:"findings_quality"`
	DataGaps             []string `json:"data_gaps"`
	UnexpectedFindings   []string `json:"unexpected_findings"`
	SuggestedAdjustments []string `json:"suggested_adjustments"`
	ConfidenceLevel      float64  `json:"confidence_level"`
}

// Validate enforces the [0,1] bounds on quality and confidence scores.
func (f ExecutionFeedback) Validate() error {
	if err := checkUnit("findings_quality", f.FindingsQuality); err != nil {
		return err
	}
	return checkUnit("confidence_level", f.ConfidenceLevel)
}

// UpdateRequest is the payload handed to the reasoning service when the
// evaluator decides the remaining plan may need revision.
type UpdateRequest struct {
	CurrentStepIndex int               `json:"current_step_index"`
	Feedback         ExecutionFeedback `json:"feedback"`
	RemainingSteps   []Step            `json:"remaining_steps"`
}

// AdaptationDecision is the reasoning service's verdict on an UpdateRequest.
// UpdatedSteps is only meaningful when ShouldUpdate is true.
type AdaptationDecision struct {
	ShouldUpdate bool    `json:"should_update"`
	UpdatedSteps []Step  `json:"updated_steps,omitempty"`
	Reasoning    string  `json:"reasoning"`
	Confidence   float64 `json:"confidence"`
}

// Validate enforces the confidence bound and, when an update is requested,
// the step-count bound on the replacement queue.
func (d AdaptationDecision) Validate() error {
	if err := checkUnit("confidence", d.Confidence); err != nil {
		return err
	}
	if d.ShouldUpdate && len(d.UpdatedSteps) > 0 {
		if len(d.UpdatedSteps) > MaxSteps {
			return &PlanShapeError{Count: len(d.UpdatedSteps)}
		}
	}
	return nil
}

func checkUnit(field string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0,1], got %g", field, v)
	}
	return nil
}
