package memory

import (
	"testing"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

func systemTurn() engine.ChatMessage {
	return engine.ChatMessage{Role: engine.RoleSystem, Content: "You are a research assistant."}
}

func userTurn(content string) engine.ChatMessage {
	return engine.ChatMessage{Role: engine.RoleUser, Content: content}
}

func assistantTurn(content string) engine.ChatMessage {
	return engine.ChatMessage{Role: engine.RoleAssistant, Content: content}
}

func toolCallTurn(callID string) engine.ChatMessage {
	return engine.ChatMessage{
		Role:      engine.RoleAssistant,
		ToolCalls: []engine.ToolCall{{ID: callID, Name: "web_search", Args: map[string]any{"query": "x"}}},
	}
}

func toolResultTurn(callID string) engine.ChatMessage {
	return engine.ChatMessage{Role: engine.RoleTool, Name: callID, Content: `{"count":1}`}
}

func TestProcessShortPassesThrough(t *testing.T) {
	m := NewManager(Config{})
	msgs := []engine.ChatMessage{
		systemTurn(),
		userTurn("question"),
		assistantTurn("ok"),
	}
	got := m.Process(msgs)
	if len(got) != 3 {
		t.Errorf("short conversation trimmed: %d turns, want 3", len(got))
	}
}

func TestProcessMediumFiltersAndCaps(t *testing.T) {
	m := NewManager(Config{})
	msgs := []engine.ChatMessage{systemTurn()}
	for i := 0; i < 4; i++ {
		msgs = append(msgs, userTurn("step request"))
		msgs = append(msgs, assistantTurn("ok")) // short, no keyword: filtered
	}
	msgs = append(msgs, userTurn("final request"))
	// 10 turns total: medium strategy.
	got := m.Process(msgs)

	if len(got) > 8 {
		t.Errorf("medium strategy kept %d turns, cap is 8", len(got))
	}
	for _, msg := range got {
		if msg.Role == engine.RoleAssistant && msg.Content == "ok" {
			t.Error("low-value assistant response survived filtering")
		}
	}
}

func TestProcessFilterKeepsKeywordResponses(t *testing.T) {
	m := NewManager(Config{})
	short := assistantTurn("strong growth") // short but carries a keyword

	got := m.filterLowValue([]engine.ChatMessage{short})
	if len(got) != 1 {
		t.Error("keyword-bearing short response was filtered")
	}

	noise := assistantTurn("ok then")
	got = m.filterLowValue([]engine.ChatMessage{noise})
	if len(got) != 0 {
		t.Error("short keyword-free response survived")
	}
}

func TestProcessLongPreservesSystemTurn(t *testing.T) {
	m := NewManager(Config{})
	msgs := []engine.ChatMessage{systemTurn()}
	for i := 0; i < 13; i++ {
		msgs = append(msgs, userTurn("step request with enough substance to survive"))
	}
	// 14 turns: long strategy with the aggressive cap.
	got := m.Process(msgs)

	if len(got) == 0 || got[0].Role != engine.RoleSystem {
		t.Fatal("leading system turn lost under the long strategy")
	}
	if len(got) > 7 { // cap of 6 plus the reinserted system turn at most
		t.Errorf("long strategy kept %d turns", len(got))
	}
}

func TestProcessPreservesToolPairs(t *testing.T) {
	m := NewManager(Config{})
	var msgs []engine.ChatMessage
	msgs = append(msgs, systemTurn())
	for i := 0; i < 5; i++ {
		id := string(rune('a' + i))
		msgs = append(msgs, userTurn("step request"))
		msgs = append(msgs, toolCallTurn(id))
		msgs = append(msgs, toolResultTurn(id))
	}
	// 16 turns: long strategy.
	got := m.Process(msgs)

	for i, msg := range got {
		if msg.Role == engine.RoleTool {
			if i == 0 || !got[i-1].IsToolCallTurn() {
				t.Errorf("turn %d: tool result not preceded by its call turn", i)
			}
		}
	}
}

func TestRepairDropsOrphans(t *testing.T) {
	msgs := []engine.ChatMessage{
		userTurn("question"),
		toolResultTurn("orphan-1"), // no preceding tool call
		toolCallTurn("call-1"),
		toolResultTurn("call-1"),
		assistantTurn("a substantive answer about the findings"),
		toolResultTurn("orphan-2"),
	}

	got := Repair(msgs)
	if len(got) != 4 {
		t.Fatalf("Repair kept %d turns, want 4", len(got))
	}
	for _, msg := range got {
		if msg.Role == engine.RoleTool && msg.Name != "call-1" {
			t.Errorf("orphan tool result %q survived", msg.Name)
		}
	}
}

func TestRepairIdempotent(t *testing.T) {
	msgs := []engine.ChatMessage{
		systemTurn(),
		toolResultTurn("orphan"),
		toolCallTurn("c1"),
		toolResultTurn("c1"),
		toolResultTurn("c1"), // second result for the same call turn stays
		userTurn("next"),
	}

	once := Repair(msgs)
	twice := Repair(once)
	if len(once) != len(twice) {
		t.Fatalf("Repair not idempotent: %d then %d turns", len(once), len(twice))
	}
	for i := range once {
		if !sameTurn(once[i], twice[i]) {
			t.Errorf("turn %d changed on second repair", i)
		}
	}
	if len(once) != 5 {
		t.Errorf("Repair kept %d turns, want 5", len(once))
	}
}

func TestRepairKeepsDanglingToolCall(t *testing.T) {
	// A tool-call turn whose results were lost stays; only results without
	// their call are dropped.
	msgs := []engine.ChatMessage{
		toolCallTurn("c1"),
		userTurn("moved on"),
	}
	got := Repair(msgs)
	if len(got) != 2 {
		t.Errorf("Repair kept %d turns, want 2", len(got))
	}
}

func TestKeepRecentPreservesLeadingSystem(t *testing.T) {
	msgs := []engine.ChatMessage{systemTurn()}
	for i := 0; i < 9; i++ {
		msgs = append(msgs, userTurn("turn"))
	}

	got := keepRecent(msgs, 4)
	if len(got) != 4 {
		t.Fatalf("keepRecent = %d turns, want 4", len(got))
	}
	if got[0].Role != engine.RoleSystem {
		t.Error("leading system turn dropped by keepRecent")
	}
}
