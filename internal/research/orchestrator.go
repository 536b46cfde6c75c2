// Package research drives one adaptive research session: planning, stepwise
// tool execution, feedback-driven plan adaptation, and conversation-memory
// upkeep.
package research

import (
	"context"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/knowledge"
	"github.com/ChamsBouzaiene/scout/internal/plan"
	"github.com/ChamsBouzaiene/scout/internal/reasoning"
)

// State is the mutable per-session state owned by the session driver.
// Everything here is exclusive to one session; independent sessions share
// nothing.
type State struct {
	Query                string
	Context              string
	AccumulatedKnowledge string
	History              []engine.ChatMessage

	KnowledgeLimit  int
	ToolOutputLimit int
}

// StepResult is the outcome of executing one plan step.
type StepResult struct {
	Step      plan.Step // status, tool, and result/error filled in
	Selection engine.ToolSelection
	Finding   knowledge.Finding
	Final     bool // the terminal tool was selected
	Err       error
}

// Orchestrator executes a single plan step: it builds the focused execution
// context, asks the reasoning service for a tool selection, dispatches it,
// and folds the summarized output into the session's accumulated knowledge.
type Orchestrator struct {
	rs         reasoning.Service
	dispatcher *engine.Dispatcher
}

// NewOrchestrator creates an Orchestrator with an injected reasoning service.
func NewOrchestrator(rs reasoning.Service, dispatcher *engine.Dispatcher) *Orchestrator {
	return &Orchestrator{rs: rs, dispatcher: dispatcher}
}

// ExecuteStep runs one step against the current session state. Any dispatch
// failure marks the step failed; the caller halts the remaining plan.
func (o *Orchestrator) ExecuteStep(ctx context.Context, step plan.Step, st *State) StepResult {
	focusedQuery, focusedContext := knowledge.CreateFocusedContext(
		st.Query, st.Context, st.AccumulatedKnowledge, step.Description)

	ec := reasoning.ExecutionContext{
		Query:                focusedQuery,
		Context:              focusedContext,
		AccumulatedKnowledge: st.AccumulatedKnowledge,
		StepID:               step.ID,
		StepDescription:      step.Description,
		History:              st.History,
	}

	sel, err := o.rs.SelectTool(ctx, ec)
	if err != nil {
		step.Status = plan.StepStatusFailed
		step.Error = err.Error()
		return StepResult{Step: step, Err: err}
	}

	raw, err := o.dispatcher.Execute(ctx, sel)
	if err != nil {
		step.Status = plan.StepStatusFailed
		step.ToolUsed = string(sel.Kind)
		step.Error = err.Error()
		return StepResult{Step: step, Selection: sel, Err: err}
	}

	if st.ToolOutputLimit > 0 && len(raw) > st.ToolOutputLimit {
		raw = raw[:st.ToolOutputLimit]
	}

	finding := knowledge.SummarizeStepResult(step.Description, raw, sel.Kind)
	st.AccumulatedKnowledge = knowledge.MergeContexts(
		st.AccumulatedKnowledge, finding.String(), st.KnowledgeLimit)

	step.Status = plan.StepStatusCompleted
	step.ToolUsed = string(sel.Kind)
	step.Result = raw

	return StepResult{
		Step:      step,
		Selection: sel,
		Finding:   finding,
		Final:     sel.Kind == engine.KindFinal,
	}
}
