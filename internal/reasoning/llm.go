package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/memory"
	"github.com/ChamsBouzaiene/scout/internal/plan"
)

// LLMService implements Service and FeedbackGenerator over an injected
// engine.LLMClient.
type LLMService struct {
	llm   engine.LLMClient
	model string
	tools engine.ToolRegistry
}

// NewLLMService creates the LLM-backed reasoning service. The registry is
// used to expose tool schemas during tool selection.
func NewLLMService(llm engine.LLMClient, model string, tools engine.ToolRegistry) *LLMService {
	return &LLMService{llm: llm, model: model, tools: tools}
}

// Plan implements Service.
func (s *LLMService) Plan(ctx context.Context, query, researchContext string) (plan.Plan, error) {
	userPrompt := fmt.Sprintf("Research Query: %s\n\nContext: %s\n\nCreate a research plan to thoroughly investigate this query.", query, researchContext)

	msgs := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: plannerSystemPrompt},
		{Role: engine.RoleUser, Content: userPrompt},
	}

	resp, err := s.llm.Chat(ctx, s.model, msgs, nil, engine.ChatOptions{
		Temperature:     0.1,
		MaxOutputTokens: 1024,
		JSONOnly:        true,
	})
	if err != nil {
		return plan.Plan{}, fmt.Errorf("planning call failed: %w", err)
	}

	var decoded struct {
		Steps []struct {
			Description string `json:"description"`
		} `json:"steps"`
		Reasoning string `json:"reasoning"`
	}
	if err := decodeJSON(resp.Assistant.Content, &decoded); err != nil {
		return plan.Plan{}, &engine.ContractError{Op: "plan", Err: err}
	}

	steps := make([]plan.Step, 0, len(decoded.Steps))
	for _, s := range decoded.Steps {
		steps = append(steps, plan.Step{Description: s.Description})
	}

	p, err := plan.New(steps, decoded.Reasoning)
	if err != nil {
		return plan.Plan{}, &engine.ContractError{Op: "plan", Err: err}
	}
	return p, nil
}

// SelectTool implements Service. It relies on provider function calling: the
// model must request exactly one of the registered tools.
func (s *LLMService) SelectTool(ctx context.Context, ec ExecutionContext) (engine.ToolSelection, error) {
	userPrompt := fmt.Sprintf(
		"Research Query: %s\n\nResearch Context: %s\n\nAccumulated Knowledge:\n%s\n\nCurrent Step (%s): %s\n\nSelect one tool to execute this step.",
		ec.Query, ec.Context, emptyAs(ec.AccumulatedKnowledge, "(none yet)"), ec.StepID, ec.StepDescription,
	)

	msgs := make([]engine.ChatMessage, 0, len(ec.History)+2)
	msgs = append(msgs, engine.ChatMessage{Role: engine.RoleSystem, Content: selectorSystemPrompt})
	msgs = append(msgs, ec.History...)
	msgs = append(msgs, engine.ChatMessage{Role: engine.RoleUser, Content: userPrompt})

	resp, err := s.llm.Chat(ctx, s.model, msgs, s.tools.Schemas(), engine.ChatOptions{
		Temperature:     0.1,
		MaxOutputTokens: 1024,
	})
	if err != nil {
		return engine.ToolSelection{}, fmt.Errorf("tool selection call failed: %w", err)
	}

	if len(resp.ToolCalls) == 0 {
		return engine.ToolSelection{}, &engine.ContractError{
			Op:  "select_tool",
			Err: fmt.Errorf("model returned no tool call (finish=%s)", resp.FinishReason),
		}
	}

	call := resp.ToolCalls[0]
	kind, err := engine.ParseToolKind(call.Name)
	if err != nil {
		return engine.ToolSelection{}, &engine.ContractError{Op: "select_tool", Err: err}
	}

	return engine.ToolSelection{Kind: kind, Parameters: call.Args}, nil
}

// EvaluateUpdate implements Service.
func (s *LLMService) EvaluateUpdate(ctx context.Context, req plan.UpdateRequest) (plan.AdaptationDecision, error) {
	reqJSON, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		return plan.AdaptationDecision{}, fmt.Errorf("failed to encode update request: %w", err)
	}

	msgs := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: evaluatorSystemPrompt},
		{Role: engine.RoleUser, Content: fmt.Sprintf("Step feedback and remaining plan:\n%s", reqJSON)},
	}

	resp, err := s.llm.Chat(ctx, s.model, msgs, nil, engine.ChatOptions{
		Temperature:     0.1,
		MaxOutputTokens: 1024,
		JSONOnly:        true,
	})
	if err != nil {
		return plan.AdaptationDecision{}, fmt.Errorf("update evaluation call failed: %w", err)
	}

	var decision plan.AdaptationDecision
	if err := decodeJSON(resp.Assistant.Content, &decision); err != nil {
		return plan.AdaptationDecision{}, &engine.ContractError{Op: "evaluate_update", Err: err}
	}
	if err := decision.Validate(); err != nil {
		return plan.AdaptationDecision{}, &engine.ContractError{Op: "evaluate_update", Err: err}
	}
	return decision, nil
}

// Summarize implements Service. The synthesized turn replaces older history
// when the memory manager runs its summarization strategy.
func (s *LLMService) Summarize(ctx context.Context, turns []engine.ChatMessage) (engine.ChatMessage, error) {
	msgs := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: summarySystemPrompt},
		{Role: engine.RoleUser, Content: fmt.Sprintf("Summarize this research conversation:\n\n%s", memory.Render(turns))},
	}

	resp, err := s.llm.Chat(ctx, s.model, msgs, nil, engine.ChatOptions{
		Temperature:     0.1,
		MaxOutputTokens: 512,
	})
	if err != nil {
		return engine.ChatMessage{}, fmt.Errorf("summarization call failed: %w", err)
	}

	content := strings.TrimSpace(resp.Assistant.Content)
	if content == "" {
		return engine.ChatMessage{}, &engine.ContractError{Op: "summarize", Err: fmt.Errorf("empty summary")}
	}

	return engine.ChatMessage{
		Role:    engine.RoleUser,
		Content: fmt.Sprintf("[HISTORY SUMMARY]\n%s\n[/HISTORY SUMMARY]", content),
	}, nil
}

// Assess implements FeedbackGenerator.
func (s *LLMService) Assess(ctx context.Context, step plan.Step, accumulatedKnowledge string) (plan.ExecutionFeedback, error) {
	userPrompt := fmt.Sprintf(
		"Completed step: %s\nTool used: %s\nStatus: %s\n\nAccumulated knowledge so far:\n%s",
		step.Description, step.ToolUsed, step.Status, emptyAs(accumulatedKnowledge, "(none)"),
	)

	msgs := []engine.ChatMessage{
		{Role: engine.RoleSystem, Content: feedbackSystemPrompt},
		{Role: engine.RoleUser, Content: userPrompt},
	}

	resp, err := s.llm.Chat(ctx, s.model, msgs, nil, engine.ChatOptions{
		Temperature:     0.1,
		MaxOutputTokens: 512,
		JSONOnly:        true,
	})
	if err != nil {
		return plan.ExecutionFeedback{}, fmt.Errorf("feedback call failed: %w", err)
	}

	var fb plan.ExecutionFeedback
	if err := decodeJSON(resp.Assistant.Content, &fb); err != nil {
		return plan.ExecutionFeedback{}, &engine.ContractError{Op: "feedback", Err: err}
	}
	if err := fb.Validate(); err != nil {
		return plan.ExecutionFeedback{}, &engine.ContractError{Op: "feedback", Err: err}
	}
	return fb, nil
}

// decodeJSON extracts and decodes the first JSON object in raw. Models
// sometimes wrap JSON in code fences or prose.
func decodeJSON(raw string, v any) error {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return fmt.Errorf("no JSON object in response: %q", clipForError(raw))
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), v); err != nil {
		return fmt.Errorf("malformed JSON response: %w", err)
	}
	return nil
}

func clipForError(s string) string {
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}

func emptyAs(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
