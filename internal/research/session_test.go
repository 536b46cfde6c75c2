package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/plan"
	"github.com/ChamsBouzaiene/scout/internal/reasoning"
)

// scriptedReasoner implements reasoning.Service and reasoning.FeedbackGenerator
// with canned responses for driving the session loop.
type scriptedReasoner struct {
	plan      plan.Plan
	planErr   error
	selection engine.ToolSelection
	selectErr error
	feedback  plan.ExecutionFeedback
	assessErr error
	decision  plan.AdaptationDecision
	evalErr   error

	selectCalls int
	assessCalls int
	evalCalls   int
}

func (s *scriptedReasoner) Plan(ctx context.Context, query, researchContext string) (plan.Plan, error) {
	return s.plan, s.planErr
}

func (s *scriptedReasoner) SelectTool(ctx context.Context, ec reasoning.ExecutionContext) (engine.ToolSelection, error) {
	s.selectCalls++
	return s.selection, s.selectErr
}

func (s *scriptedReasoner) EvaluateUpdate(ctx context.Context, req plan.UpdateRequest) (plan.AdaptationDecision, error) {
	s.evalCalls++
	return s.decision, s.evalErr
}

func (s *scriptedReasoner) Summarize(ctx context.Context, turns []engine.ChatMessage) (engine.ChatMessage, error) {
	return engine.ChatMessage{Role: engine.RoleUser, Content: "[HISTORY SUMMARY]\nsummary\n[/HISTORY SUMMARY]"}, nil
}

func (s *scriptedReasoner) Assess(ctx context.Context, step plan.Step, accumulatedKnowledge string) (plan.ExecutionFeedback, error) {
	s.assessCalls++
	return s.feedback, s.assessErr
}

func searchRegistry(results int) engine.ToolRegistry {
	reg := make(engine.ToolRegistry)
	reg[engine.KindWebSearch] = engine.Tool{
		Kind:       engine.KindWebSearch,
		SchemaJSON: `{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			var items []string
			for i := 0; i < results; i++ {
				items = append(items, fmt.Sprintf(`{"title":"result %d","url":"https://example.com/%d"}`, i+1, i+1))
			}
			return fmt.Sprintf(`{"results":[%s],"count":%d}`, strings.Join(items, ","), results), nil
		},
	}
	reg[engine.KindFinal] = engine.Tool{
		Kind:       engine.KindFinal,
		SchemaJSON: `{"type":"object","properties":{"answer":{"type":"string"}},"required":["answer"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			out, err := json.Marshal(map[string]any{"answer": args["answer"]})
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
	return reg
}

func twoStepPlan(t *testing.T) plan.Plan {
	t.Helper()
	p, err := plan.New([]plan.Step{
		{Description: "search for recent filings"},
		{Description: "assess the findings"},
	}, "start broad, then narrow")
	if err != nil {
		t.Fatalf("plan.New failed: %v", err)
	}
	return p
}

func goodFeedback() plan.ExecutionFeedback {
	return plan.ExecutionFeedback{FindingsQuality: 0.9, ConfidenceLevel: 0.9}
}

func TestRunAccumulatesSearchFindings(t *testing.T) {
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindWebSearch,
			Parameters: map[string]any{"query": "acme filings"},
		},
		feedback: goodFeedback(),
	}
	rs.plan = twoStepPlan(t)
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(3)), DefaultConfig())

	report, err := sess.Run(context.Background(), "investigate acme", "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !report.Success {
		t.Errorf("report.Success = false: %s", report.FailureReason)
	}
	if !strings.Contains(report.AccumulatedKnowledge, "Step: search for recent filings | Result:") {
		t.Errorf("knowledge missing tagged finding: %q", report.AccumulatedKnowledge)
	}
	if !strings.Contains(report.AccumulatedKnowledge, "found 3 results") {
		t.Errorf("knowledge missing search summary: %q", report.AccumulatedKnowledge)
	}
	if len(report.Plan.CompletedSteps) != 2 {
		t.Errorf("completed %d steps, want 2", len(report.Plan.CompletedSteps))
	}
}

func TestRunGoodFeedbackSkipsEvaluation(t *testing.T) {
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindWebSearch,
			Parameters: map[string]any{"query": "x"},
		},
		feedback: goodFeedback(), // above both thresholds, no adjustments
	}
	rs.plan = twoStepPlan(t)
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(1)), DefaultConfig())

	report, err := sess.Run(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rs.evalCalls != 0 {
		t.Errorf("plan evaluation ran %d times despite good feedback", rs.evalCalls)
	}
	if report.Plan.TotalAdaptations != 0 {
		t.Errorf("TotalAdaptations = %d, want 0", report.Plan.TotalAdaptations)
	}
}

func TestRunPoorFeedbackTriggersAdaptation(t *testing.T) {
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindWebSearch,
			Parameters: map[string]any{"query": "x"},
		},
		feedback: plan.ExecutionFeedback{FindingsQuality: 0.4, ConfidenceLevel: 0.3},
		decision: plan.AdaptationDecision{
			ShouldUpdate: true,
			UpdatedSteps: []plan.Step{{Description: "try the local documents instead"}},
			Reasoning:    "web results were thin",
			Confidence:   0.7,
		},
	}
	rs.plan = twoStepPlan(t)
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(0)), DefaultConfig())

	report, err := sess.Run(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if rs.evalCalls == 0 {
		t.Fatal("poor feedback did not trigger plan evaluation")
	}
	if report.Plan.TotalAdaptations == 0 {
		t.Error("plan was never adapted")
	}
	if len(report.Plan.AdaptationHistory) == 0 || report.Plan.AdaptationHistory[0] != "web results were thin" {
		t.Errorf("AdaptationHistory = %v", report.Plan.AdaptationHistory)
	}
}

func TestRunAdaptationBudget(t *testing.T) {
	// Every step reports poor feedback and every evaluation replaces the
	// remaining plan, so only the budget stops the adaptation churn.
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindWebSearch,
			Parameters: map[string]any{"query": "x"},
		},
		feedback: plan.ExecutionFeedback{FindingsQuality: 0.1, ConfidenceLevel: 0.1},
		decision: plan.AdaptationDecision{
			ShouldUpdate: true,
			UpdatedSteps: []plan.Step{{Description: "yet another angle"}, {Description: "and one more"}},
			Reasoning:    "still thin",
			Confidence:   0.5,
		},
	}
	rs.plan = twoStepPlan(t)

	cfg := DefaultConfig()
	cfg.MaxAdaptations = 3
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(0)), cfg)

	report, err := sess.Run(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Plan.TotalAdaptations > cfg.MaxAdaptations {
		t.Errorf("TotalAdaptations = %d, budget is %d", report.Plan.TotalAdaptations, cfg.MaxAdaptations)
	}
}

func TestRunEvaluationFailureKeepsPlan(t *testing.T) {
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindWebSearch,
			Parameters: map[string]any{"query": "x"},
		},
		feedback: plan.ExecutionFeedback{FindingsQuality: 0.2, ConfidenceLevel: 0.2},
		evalErr:  errors.New("model refused"),
	}
	rs.plan = twoStepPlan(t)
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(1)), DefaultConfig())

	report, err := sess.Run(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !report.Success {
		t.Error("evaluation failure halted the session")
	}
	if report.Plan.TotalAdaptations != 0 {
		t.Errorf("TotalAdaptations = %d after failed evaluation", report.Plan.TotalAdaptations)
	}
	if len(report.Plan.CompletedSteps) != 2 {
		t.Errorf("completed %d steps, want 2", len(report.Plan.CompletedSteps))
	}
}

func TestRunHaltsOnStepFailure(t *testing.T) {
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindWebSearch,
			Parameters: map[string]any{}, // missing required query: validation failure
		},
		feedback: goodFeedback(),
	}
	rs.plan = twoStepPlan(t)
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(1)), DefaultConfig())

	report, err := sess.Run(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Success {
		t.Error("report.Success = true after a failed step")
	}
	if report.FailureReason == "" {
		t.Error("FailureReason empty on halted session")
	}
	if len(report.Plan.CompletedSteps) != 1 {
		t.Errorf("recorded %d steps, want the single failed step", len(report.Plan.CompletedSteps))
	}
	if report.Plan.CompletedSteps[0].Status != plan.StepStatusFailed {
		t.Errorf("step status = %q, want failed", report.Plan.CompletedSteps[0].Status)
	}
	// Partial state survives the halt.
	if report.Plan == nil || len(report.Plan.CurrentSteps) != 1 {
		t.Error("remaining plan state not preserved")
	}
}

func TestRunFinalToolEndsSession(t *testing.T) {
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindFinal,
			Parameters: map[string]any{"answer": "the answer"},
		},
		feedback: goodFeedback(),
	}
	rs.plan = twoStepPlan(t)
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(1)), DefaultConfig())

	report, err := sess.Run(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !report.Success {
		t.Error("final tool produced an unsuccessful report")
	}
	if rs.selectCalls != 1 {
		t.Errorf("selection ran %d times after the terminal tool, want 1", rs.selectCalls)
	}
	if rs.assessCalls != 0 {
		t.Errorf("feedback ran %d times after the terminal tool", rs.assessCalls)
	}
	if !strings.Contains(report.AccumulatedKnowledge, "Final answer: the answer") {
		t.Errorf("knowledge missing final answer: %q", report.AccumulatedKnowledge)
	}
}

func TestRunPlanFailureIsFatal(t *testing.T) {
	rs := &scriptedReasoner{
		planErr: &engine.ContractError{Op: "plan", Err: errors.New("bad shape")},
	}
	sess := NewSession(rs, rs, engine.NewDispatcher(searchRegistry(1)), DefaultConfig())

	if _, err := sess.Run(context.Background(), "q", ""); !engine.IsContractError(err) {
		t.Errorf("Run error = %v, want contract error", err)
	}
}

func TestRunHistoryKeepsToolPairs(t *testing.T) {
	rs := &scriptedReasoner{
		selection: engine.ToolSelection{
			Kind:       engine.KindWebSearch,
			Parameters: map[string]any{"query": "x"},
		},
		feedback: goodFeedback(),
	}
	rs.plan = twoStepPlan(t)

	var history []engine.ChatMessage
	st := &State{Query: "q", KnowledgeLimit: 2000}
	orch := NewOrchestrator(rs, engine.NewDispatcher(searchRegistry(2)))

	step, _ := plan.NewAdaptive(rs.plan).Pop()
	res := orch.ExecuteStep(context.Background(), step, st)
	history = appendStepTurns(history, res)

	if len(history) != 3 {
		t.Fatalf("history has %d turns, want request, call, result", len(history))
	}
	if !history[1].IsToolCallTurn() {
		t.Error("second turn is not a tool-call turn")
	}
	if history[2].Role != engine.RoleTool || history[2].Name != history[1].ToolCalls[0].ID {
		t.Error("tool result turn not paired with its call ID")
	}
	if !strings.Contains(history[2].Content, "Step: search for recent filings | Result:") {
		t.Errorf("tool result content = %q", history[2].Content)
	}
}
