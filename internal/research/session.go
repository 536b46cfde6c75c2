package research

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/memory"
	"github.com/ChamsBouzaiene/scout/internal/plan"
	"github.com/ChamsBouzaiene/scout/internal/reasoning"
)

// Config bundles the session-level knobs.
type Config struct {
	MaxAdaptations  int // plan revisions allowed per session
	KnowledgeLimit  int // accumulated knowledge cap, characters
	ToolOutputLimit int // raw tool output cap, characters
	TranscriptLimit int // rendered history size that forces summarization

	Evaluator EvaluatorConfig
	Memory    memory.Config
}

// DefaultConfig returns the standard session configuration.
func DefaultConfig() Config {
	return Config{
		MaxAdaptations:  3,
		KnowledgeLimit:  2000,
		ToolOutputLimit: 50000,
		TranscriptLimit: 380000,
		Evaluator:       DefaultEvaluatorConfig(),
		Memory:          memory.DefaultConfig(),
	}
}

// Session runs the full plan-execute-adapt loop for one research query. It is
// the only component that mutates the adaptive plan and the conversation
// history; the orchestrator and evaluator operate on what it hands them.
type Session struct {
	rs   reasoning.Service
	fg   reasoning.FeedbackGenerator
	orch *Orchestrator
	eval *FeedbackEvaluator
	mem  *memory.Manager
	cfg  Config
}

// NewSession wires a session from its collaborators. Zero cfg fields fall
// back to DefaultConfig values.
func NewSession(rs reasoning.Service, fg reasoning.FeedbackGenerator, dispatcher *engine.Dispatcher, cfg Config) *Session {
	def := DefaultConfig()
	if cfg.MaxAdaptations == 0 {
		cfg.MaxAdaptations = def.MaxAdaptations
	}
	if cfg.KnowledgeLimit == 0 {
		cfg.KnowledgeLimit = def.KnowledgeLimit
	}
	if cfg.ToolOutputLimit == 0 {
		cfg.ToolOutputLimit = def.ToolOutputLimit
	}
	if cfg.TranscriptLimit == 0 {
		cfg.TranscriptLimit = def.TranscriptLimit
	}
	return &Session{
		rs:   rs,
		fg:   fg,
		orch: NewOrchestrator(rs, dispatcher),
		eval: NewFeedbackEvaluator(rs, cfg.Evaluator),
		mem:  memory.NewManager(cfg.Memory),
		cfg:  cfg,
	}
}

// Report is the final outcome of a session. On a halted session Success is
// false but the partial plan state and accumulated knowledge are preserved.
type Report struct {
	ID                   string              `json:"id"`
	Query                string              `json:"query"`
	Context              string              `json:"context,omitempty"`
	Plan                 *plan.AdaptivePlan  `json:"plan"`
	AccumulatedKnowledge string              `json:"accumulated_knowledge"`
	Findings             []string            `json:"findings"`
	Success              bool                `json:"success"`
	FailureReason        string              `json:"failure_reason,omitempty"`
	Summary              string              `json:"summary"`
}

// Run executes the adaptive loop for query until the plan is exhausted, the
// terminal tool fires, or a step fails.
func (s *Session) Run(ctx context.Context, query, researchContext string) (*Report, error) {
	initial, err := s.rs.Plan(ctx, query, researchContext)
	if err != nil {
		return nil, err
	}
	ap := plan.NewAdaptive(initial)
	log.Printf("session: planned %d steps: %s", len(initial.Steps), initial.Reasoning)

	st := &State{
		Query:           query,
		Context:         researchContext,
		KnowledgeLimit:  s.cfg.KnowledgeLimit,
		ToolOutputLimit: s.cfg.ToolOutputLimit,
	}

	success := true
	failure := ""
	for stepIndex := 0; ; stepIndex++ {
		step, ok := ap.Pop()
		if !ok {
			break
		}
		log.Printf("session: executing %s: %s", step.ID, step.Description)

		res := s.orch.ExecuteStep(ctx, step, st)
		ap.Record(res.Step)
		st.History = appendStepTurns(st.History, res)

		if res.Err != nil {
			log.Printf("session: step %s failed: %v", step.ID, res.Err)
			success = false
			failure = res.Err.Error()
			break
		}
		if res.Final {
			break
		}

		s.adapt(ctx, ap, stepIndex, res, st)
		st.History = s.compact(ctx, st.History)
	}

	return s.report(uuid.NewString(), st, ap, success, failure), nil
}

// adapt runs the post-step feedback pass and, when warranted and within the
// adaptation budget, replaces the remaining steps. Feedback or evaluation
// failures never halt the session.
func (s *Session) adapt(ctx context.Context, ap *plan.AdaptivePlan, stepIndex int, res StepResult, st *State) {
	if len(ap.CurrentSteps) == 0 {
		return
	}
	fb, err := s.fg.Assess(ctx, res.Step, st.AccumulatedKnowledge)
	if err != nil {
		log.Printf("session: feedback generation failed, keeping plan: %v", err)
		return
	}
	if ap.TotalAdaptations >= s.cfg.MaxAdaptations {
		if s.eval.Triggered(fb, ap.CurrentSteps) {
			log.Printf("session: adaptation budget exhausted (%d), keeping plan", ap.TotalAdaptations)
		}
		return
	}
	decision, err := s.eval.MaybeAdapt(ctx, stepIndex, fb, ap.CurrentSteps)
	if err != nil {
		log.Printf("session: plan evaluation failed, keeping plan: %v", err)
		return
	}
	if decision == nil || !decision.ShouldUpdate || len(decision.UpdatedSteps) == 0 {
		return
	}
	ap.Adapt(*decision)
	log.Printf("session: plan adapted (%d total): %s", ap.TotalAdaptations, decision.Reasoning)
}

// compact applies the turn-count memory strategy and, when the rendered
// transcript still exceeds the limit, collapses older turns into a summary.
func (s *Session) compact(ctx context.Context, history []engine.ChatMessage) []engine.ChatMessage {
	history = s.mem.Process(history)
	if len(memory.Render(history)) > s.cfg.TranscriptLimit {
		history = s.mem.Summarize(ctx, history, s.rs.Summarize)
	}
	return history
}

func (s *Session) report(id string, st *State, ap *plan.AdaptivePlan, success bool, failure string) *Report {
	return &Report{
		ID:                   id,
		Query:                st.Query,
		Context:              st.Context,
		Plan:                 ap,
		AccumulatedKnowledge: st.AccumulatedKnowledge,
		Findings:             findingsOf(ap),
		Success:              success,
		FailureReason:        failure,
		Summary:              renderSummary(ap, success),
	}
}

// appendStepTurns extends the conversation history with the turns produced by
// one executed step: the step request, the assistant's tool call, and the
// paired tool result. A step that failed before a tool was selected
// contributes only the request turn.
func appendStepTurns(history []engine.ChatMessage, res StepResult) []engine.ChatMessage {
	history = append(history, engine.ChatMessage{
		Role:    engine.RoleUser,
		Content: "Step " + res.Step.ID + ": " + res.Step.Description,
	})
	if res.Step.ToolUsed == "" {
		return history
	}

	callID := uuid.NewString()
	history = append(history, engine.ChatMessage{
		Role: engine.RoleAssistant,
		ToolCalls: []engine.ToolCall{{
			ID:   callID,
			Name: res.Step.ToolUsed,
			Args: res.Selection.Parameters,
		}},
	})

	content := res.Finding.String()
	if res.Err != nil {
		content = "ERROR: " + res.Err.Error()
	}
	history = append(history, engine.ChatMessage{
		Role:    engine.RoleTool,
		Name:    callID,
		Content: content,
	})
	return history
}
