// Package plan defines the research plan data model: the immutable Plan
// produced by the planner and the mutable AdaptivePlan tracking one session's
// execution progress and adaptation history.
package plan

import (
	"fmt"
)

// Plans are bounded at construction. A reasoning service that returns a plan
// outside these bounds has violated its contract and the session never starts.
const (
	MinSteps = 2
	MaxSteps = 4
)

// StepStatus represents the lifecycle of a plan step.
type StepStatus string

const (
	StepStatusPending   StepStatus = "pending"
	StepStatusCompleted StepStatus = "completed"
	StepStatusFailed    StepStatus = "failed"
)

// Step is a single unit of planned work. Result and Error are populated once
// the step leaves pending; Result holds the raw tool output as opaque JSON.
type Step struct {
	ID          string     `json:"id"`
	Description string     `json:"description"`
	Status      StepStatus `json:"status"`
	ToolUsed    string     `json:"tool_used,omitempty"`
	Result      string     `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// PlanShapeError indicates a constructed plan violates the step-count bound.
// Fatal at session start.
type PlanShapeError struct {
	Count int
}

func (e *PlanShapeError) Error() string {
	return fmt.Sprintf("plan must have between %d and %d steps, got %d", MinSteps, MaxSteps, e.Count)
}

// Plan is an ordered sequence of steps with the planner's rationale.
type Plan struct {
	Steps     []Step `json:"steps"`
	Reasoning string `json:"reasoning"`
}

// New constructs a Plan, enforcing the step-count invariant and assigning
// sequential step IDs to any step missing one.
func New(steps []Step, reasoning string) (Plan, error) {
	if len(steps) < MinSteps || len(steps) > MaxSteps {
		return Plan{}, &PlanShapeError{Count: len(steps)}
	}
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = fmt.Sprintf("step_%d", i+1)
		}
		if steps[i].Status == "" {
			steps[i].Status = StepStatusPending
		}
	}
	return Plan{Steps: steps, Reasoning: reasoning}, nil
}

// AdaptivePlan wraps a Plan's execution state for one session. It is created
// once by the planner, mutated only through the methods below, and discarded
// at session end; callers may serialize it for audit.
type AdaptivePlan struct {
	OriginalPlan      Plan    `json:"original_plan"`
	CurrentSteps      []Step  `json:"current_steps"`
	CompletedSteps    []Step  `json:"completed_steps"`
	AdaptationHistory []string `json:"adaptation_history"`
	TotalAdaptations  int     `json:"total_adaptations"`
	CurrentConfidence float64 `json:"current_confidence"`
}

// NewAdaptive creates the session state for a freshly planned session.
// OriginalPlan keeps an immutable snapshot; CurrentSteps is the work queue.
func NewAdaptive(p Plan) *AdaptivePlan {
	queue := make([]Step, len(p.Steps))
	copy(queue, p.Steps)
	return &AdaptivePlan{
		OriginalPlan:      p,
		CurrentSteps:      queue,
		CompletedSteps:    []Step{},
		AdaptationHistory: []string{},
		CurrentConfidence: 1.0,
	}
}

// Pop removes and returns the head of the work queue.
func (ap *AdaptivePlan) Pop() (Step, bool) {
	if len(ap.CurrentSteps) == 0 {
		return Step{}, false
	}
	head := ap.CurrentSteps[0]
	ap.CurrentSteps = ap.CurrentSteps[1:]
	return head, true
}

// Record appends an executed step to the append-only history.
func (ap *AdaptivePlan) Record(step Step) {
	ap.CompletedSteps = append(ap.CompletedSteps, step)
}

// Adapt replaces the remaining work queue wholesale per an accepted
// AdaptationDecision and logs the rationale.
func (ap *AdaptivePlan) Adapt(decision AdaptationDecision) {
	steps := make([]Step, len(decision.UpdatedSteps))
	copy(steps, decision.UpdatedSteps)
	for i := range steps {
		if steps[i].ID == "" {
			steps[i].ID = fmt.Sprintf("adapted_%d_%d", ap.TotalAdaptations+1, i+1)
		}
		if steps[i].Status == "" {
			steps[i].Status = StepStatusPending
		}
	}
	ap.CurrentSteps = steps
	ap.AdaptationHistory = append(ap.AdaptationHistory, decision.Reasoning)
	ap.TotalAdaptations++
	ap.CurrentConfidence = decision.Confidence
}
