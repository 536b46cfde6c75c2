package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

func TestSummarizeReplacesOldTurns(t *testing.T) {
	m := NewManager(Config{})
	var msgs []engine.ChatMessage
	for i := 0; i < 8; i++ {
		msgs = append(msgs, userTurn("turn with substance"))
	}

	var sawTurns int
	fn := func(ctx context.Context, turns []engine.ChatMessage) (engine.ChatMessage, error) {
		sawTurns = len(turns)
		return engine.ChatMessage{Role: engine.RoleUser, Content: "[HISTORY SUMMARY]\ncondensed\n[/HISTORY SUMMARY]"}, nil
	}

	got := m.Summarize(context.Background(), msgs, fn)
	if sawTurns != 5 {
		t.Errorf("summarizer saw %d turns, want 5", sawTurns)
	}
	if len(got) != 4 {
		t.Fatalf("Summarize returned %d turns, want summary plus 3 recent", len(got))
	}
	if !strings.Contains(got[0].Content, "HISTORY SUMMARY") {
		t.Errorf("first turn is not the summary: %q", got[0].Content)
	}
}

func TestSummarizeFallbackOnError(t *testing.T) {
	m := NewManager(Config{})
	var msgs []engine.ChatMessage
	for i := 0; i < 6; i++ {
		msgs = append(msgs, userTurn("turn"))
	}

	fn := func(ctx context.Context, turns []engine.ChatMessage) (engine.ChatMessage, error) {
		return engine.ChatMessage{}, errors.New("model unavailable")
	}

	got := m.Summarize(context.Background(), msgs, fn)
	if len(got) != 3 {
		t.Errorf("fallback kept %d turns, want the 3 most recent", len(got))
	}
}

func TestSummarizeShortPassesThrough(t *testing.T) {
	m := NewManager(Config{})
	msgs := []engine.ChatMessage{userTurn("only"), userTurn("two")}

	called := false
	fn := func(ctx context.Context, turns []engine.ChatMessage) (engine.ChatMessage, error) {
		called = true
		return engine.ChatMessage{}, nil
	}

	got := m.Summarize(context.Background(), msgs, fn)
	if called {
		t.Error("summarizer called for a short conversation")
	}
	if len(got) != 2 {
		t.Errorf("short conversation trimmed to %d turns", len(got))
	}
}

func TestRenderIncludesToolTraffic(t *testing.T) {
	msgs := []engine.ChatMessage{
		toolCallTurn("c1"),
		toolResultTurn("c1"),
		assistantTurn("done"),
	}
	out := Render(msgs)
	if !strings.Contains(out, "web_search") {
		t.Errorf("Render missing tool name: %q", out)
	}
	if !strings.Contains(out, `{"count":1}`) {
		t.Errorf("Render missing tool result: %q", out)
	}
}
