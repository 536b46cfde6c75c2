// Package reasoning defines the reasoning-service contract consumed by the
// research session and provides the LLM-backed implementation. The session
// never reaches for ambient state: a Service handle is injected into every
// component that needs one.
package reasoning

import (
	"context"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/plan"
)

// ExecutionContext is the per-step input bundle handed to tool selection.
// It is created fresh for each step and never persisted.
type ExecutionContext struct {
	Query                string
	Context              string
	AccumulatedKnowledge string
	StepID               string
	StepDescription      string
	// History is the trimmed conversation carried across steps, already
	// processed by the memory manager.
	History []engine.ChatMessage
}

// Service is the reasoning collaborator. All methods are synchronous
// request/response calls; outputs that violate the plan/feedback schema
// bounds surface as *engine.ContractError and are never retried here.
type Service interface {
	// Plan produces the initial 2-4 step research plan.
	Plan(ctx context.Context, query, researchContext string) (plan.Plan, error)

	// SelectTool picks the tool for one step given the focused context.
	SelectTool(ctx context.Context, ec ExecutionContext) (engine.ToolSelection, error)

	// EvaluateUpdate decides whether the remaining plan should be replaced.
	EvaluateUpdate(ctx context.Context, req plan.UpdateRequest) (plan.AdaptationDecision, error)

	// Summarize condenses old conversation turns into one synthesized turn.
	Summarize(ctx context.Context, turns []engine.ChatMessage) (engine.ChatMessage, error)
}

// FeedbackGenerator produces an ExecutionFeedback from a completed step. The
// session only consumes its output; a failed assessment is recovered with
// neutral feedback.
type FeedbackGenerator interface {
	Assess(ctx context.Context, step plan.Step, accumulatedKnowledge string) (plan.ExecutionFeedback, error)
}
