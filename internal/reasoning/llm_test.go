package reasoning

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/plan"
)

// mockLLM returns scripted responses and records the last request.
type mockLLM struct {
	resp engine.LLMResponse
	err  error

	lastMessages []engine.ChatMessage
	lastSchemas  []engine.ToolSchema
	lastOpts     engine.ChatOptions
}

func (m *mockLLM) Chat(ctx context.Context, model string, messages []engine.ChatMessage, toolSchemas []engine.ToolSchema, opts engine.ChatOptions) (engine.LLMResponse, error) {
	m.lastMessages = messages
	m.lastSchemas = toolSchemas
	m.lastOpts = opts
	return m.resp, m.err
}

func textResponse(content string) engine.LLMResponse {
	return engine.LLMResponse{
		Assistant:    engine.ChatMessage{Role: engine.RoleAssistant, Content: content},
		FinishReason: "stop",
	}
}

func testTools() engine.ToolRegistry {
	reg := make(engine.ToolRegistry)
	reg[engine.KindWebSearch] = engine.Tool{
		Kind:       engine.KindWebSearch,
		SchemaJSON: `{"type":"object","properties":{"query":{"type":"string"}},"required":["query"]}`,
	}
	return reg
}

func TestPlanDecodesSteps(t *testing.T) {
	llm := &mockLLM{resp: textResponse(`{"steps":[{"description":"a"},{"description":"b"},{"description":"c"}],"reasoning":"broad then narrow"}`)}
	svc := NewLLMService(llm, "test-model", testTools())

	p, err := svc.Plan(context.Background(), "query", "context")
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(p.Steps) != 3 || p.Steps[0].ID != "step_1" {
		t.Errorf("plan = %+v", p)
	}
	if p.Reasoning != "broad then narrow" {
		t.Errorf("reasoning = %q", p.Reasoning)
	}
	if !llm.lastOpts.JSONOnly {
		t.Error("planning call did not request JSON-only output")
	}
}

func TestPlanToleratesFencedJSON(t *testing.T) {
	llm := &mockLLM{resp: textResponse("Here is the plan:\n```json\n{\"steps\":[{\"description\":\"a\"},{\"description\":\"b\"}],\"reasoning\":\"r\"}\n```")}
	svc := NewLLMService(llm, "test-model", testTools())

	p, err := svc.Plan(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("Plan failed on fenced JSON: %v", err)
	}
	if len(p.Steps) != 2 {
		t.Errorf("steps = %d, want 2", len(p.Steps))
	}
}

func TestPlanShapeViolation(t *testing.T) {
	llm := &mockLLM{resp: textResponse(`{"steps":[{"description":"only one"}],"reasoning":"r"}`)}
	svc := NewLLMService(llm, "test-model", testTools())

	_, err := svc.Plan(context.Background(), "q", "")
	if !engine.IsContractError(err) {
		t.Fatalf("error = %v, want contract error", err)
	}
	var shapeErr *plan.PlanShapeError
	if !errors.As(err, &shapeErr) {
		t.Errorf("error does not wrap PlanShapeError: %v", err)
	}
}

func TestPlanMalformedJSON(t *testing.T) {
	llm := &mockLLM{resp: textResponse("I could not produce a plan.")}
	svc := NewLLMService(llm, "test-model", testTools())

	if _, err := svc.Plan(context.Background(), "q", ""); !engine.IsContractError(err) {
		t.Errorf("error = %v, want contract error", err)
	}
}

func TestSelectToolUsesFunctionCalling(t *testing.T) {
	llm := &mockLLM{resp: engine.LLMResponse{
		Assistant: engine.ChatMessage{Role: engine.RoleAssistant},
		ToolCalls: []engine.ToolCall{{
			ID: "c1", Name: "web_search", Args: map[string]any{"query": "acme"},
		}},
		FinishReason: "tool_calls",
	}}
	svc := NewLLMService(llm, "test-model", testTools())

	sel, err := svc.SelectTool(context.Background(), ExecutionContext{
		Query:           "q",
		StepID:          "step_1",
		StepDescription: "search",
	})
	if err != nil {
		t.Fatalf("SelectTool failed: %v", err)
	}
	if sel.Kind != engine.KindWebSearch {
		t.Errorf("kind = %q", sel.Kind)
	}
	if sel.Parameters["query"] != "acme" {
		t.Errorf("parameters = %v", sel.Parameters)
	}
	if len(llm.lastSchemas) != 1 || llm.lastSchemas[0].Name != "web_search" {
		t.Errorf("tool schemas not forwarded: %v", llm.lastSchemas)
	}
}

func TestSelectToolForwardsHistory(t *testing.T) {
	llm := &mockLLM{resp: engine.LLMResponse{
		ToolCalls: []engine.ToolCall{{ID: "c1", Name: "web_search", Args: map[string]any{}}},
	}}
	svc := NewLLMService(llm, "test-model", testTools())

	history := []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "Step step_1: earlier work"},
	}
	_, err := svc.SelectTool(context.Background(), ExecutionContext{History: history})
	if err != nil {
		t.Fatalf("SelectTool failed: %v", err)
	}

	found := false
	for _, msg := range llm.lastMessages {
		if strings.Contains(msg.Content, "earlier work") {
			found = true
		}
	}
	if !found {
		t.Error("conversation history not forwarded to the model")
	}
}

func TestSelectToolNoCallIsContractError(t *testing.T) {
	llm := &mockLLM{resp: textResponse("I think we should search the web.")}
	svc := NewLLMService(llm, "test-model", testTools())

	if _, err := svc.SelectTool(context.Background(), ExecutionContext{}); !engine.IsContractError(err) {
		t.Errorf("error = %v, want contract error", err)
	}
}

func TestSelectToolUnknownKind(t *testing.T) {
	llm := &mockLLM{resp: engine.LLMResponse{
		ToolCalls: []engine.ToolCall{{ID: "c1", Name: "teleport", Args: map[string]any{}}},
	}}
	svc := NewLLMService(llm, "test-model", testTools())

	_, err := svc.SelectTool(context.Background(), ExecutionContext{})
	if !engine.IsContractError(err) {
		t.Fatalf("error = %v, want contract error", err)
	}
	var unknownErr *engine.UnknownToolError
	if !errors.As(err, &unknownErr) {
		t.Errorf("error does not wrap UnknownToolError: %v", err)
	}
}

func TestEvaluateUpdateValidatesDecision(t *testing.T) {
	llm := &mockLLM{resp: textResponse(`{"should_update":true,"updated_steps":[{"description":"x"}],"reasoning":"r","confidence":1.4}`)}
	svc := NewLLMService(llm, "test-model", testTools())

	_, err := svc.EvaluateUpdate(context.Background(), plan.UpdateRequest{})
	if !engine.IsContractError(err) {
		t.Errorf("error = %v, want contract error for out-of-range confidence", err)
	}
}

func TestEvaluateUpdateDecodes(t *testing.T) {
	llm := &mockLLM{resp: textResponse(`{"should_update":false,"reasoning":"plan is fine","confidence":0.9}`)}
	svc := NewLLMService(llm, "test-model", testTools())

	d, err := svc.EvaluateUpdate(context.Background(), plan.UpdateRequest{})
	if err != nil {
		t.Fatalf("EvaluateUpdate failed: %v", err)
	}
	if d.ShouldUpdate || d.Confidence != 0.9 {
		t.Errorf("decision = %+v", d)
	}
}

func TestAssessValidatesBounds(t *testing.T) {
	llm := &mockLLM{resp: textResponse(`{"step_completed":"s","findings_quality":1.7,"confidence_level":0.5}`)}
	svc := NewLLMService(llm, "test-model", testTools())

	_, err := svc.Assess(context.Background(), plan.Step{}, "")
	if !engine.IsContractError(err) {
		t.Errorf("error = %v, want contract error for out-of-range quality", err)
	}
}

func TestSummarizeWrapsContent(t *testing.T) {
	llm := &mockLLM{resp: textResponse("the investigation so far")}
	svc := NewLLMService(llm, "test-model", testTools())

	msg, err := svc.Summarize(context.Background(), []engine.ChatMessage{
		{Role: engine.RoleUser, Content: "earlier"},
	})
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if msg.Role != engine.RoleUser {
		t.Errorf("summary role = %q", msg.Role)
	}
	if !strings.HasPrefix(msg.Content, "[HISTORY SUMMARY]") || !strings.HasSuffix(msg.Content, "[/HISTORY SUMMARY]") {
		t.Errorf("summary content = %q", msg.Content)
	}
}
