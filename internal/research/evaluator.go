package research

import (
	"context"

	"github.com/ChamsBouzaiene/scout/internal/plan"
	"github.com/ChamsBouzaiene/scout/internal/reasoning"
)

// EvaluatorConfig holds the thresholds below which execution feedback
// triggers a plan re-evaluation.
type EvaluatorConfig struct {
	QualityThreshold    float64
	ConfidenceThreshold float64
}

// DefaultEvaluatorConfig returns the standard adaptation thresholds.
func DefaultEvaluatorConfig() EvaluatorConfig {
	return EvaluatorConfig{QualityThreshold: 0.6, ConfidenceThreshold: 0.5}
}

// FeedbackEvaluator decides, after each executed step, whether the remaining
// plan should be revised. The expensive reasoning call happens only when the
// feedback crosses a trigger; good feedback skips it entirely.
type FeedbackEvaluator struct {
	rs  reasoning.Service
	cfg EvaluatorConfig
}

// NewFeedbackEvaluator creates a FeedbackEvaluator. Zero thresholds in cfg
// fall back to the defaults.
func NewFeedbackEvaluator(rs reasoning.Service, cfg EvaluatorConfig) *FeedbackEvaluator {
	def := DefaultEvaluatorConfig()
	if cfg.QualityThreshold == 0 {
		cfg.QualityThreshold = def.QualityThreshold
	}
	if cfg.ConfidenceThreshold == 0 {
		cfg.ConfidenceThreshold = def.ConfidenceThreshold
	}
	return &FeedbackEvaluator{rs: rs, cfg: cfg}
}

// Triggered reports whether fb warrants re-planning of remaining steps.
func (e *FeedbackEvaluator) Triggered(fb plan.ExecutionFeedback, remaining []plan.Step) bool {
	if len(remaining) == 0 {
		return false
	}
	return fb.FindingsQuality < e.cfg.QualityThreshold ||
		fb.ConfidenceLevel < e.cfg.ConfidenceThreshold ||
		len(fb.SuggestedAdjustments) > 0
}

// MaybeAdapt returns a decision when the feedback triggers re-evaluation and
// the reasoning service produces a valid one. A nil decision with nil error
// means the trigger did not fire; a non-nil error means evaluation was
// attempted but failed, and the caller should continue with the plan
// unmodified.
func (e *FeedbackEvaluator) MaybeAdapt(ctx context.Context, stepIndex int, fb plan.ExecutionFeedback, remaining []plan.Step) (*plan.AdaptationDecision, error) {
	if !e.Triggered(fb, remaining) {
		return nil, nil
	}
	req := plan.UpdateRequest{
		CurrentStepIndex: stepIndex,
		Feedback:         fb,
		RemainingSteps:   remaining,
	}
	decision, err := e.rs.EvaluateUpdate(ctx, req)
	if err != nil {
		return nil, err
	}
	return &decision, nil
}
