package memory

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

// Turns kept verbatim when the summarization strategy runs.
const summaryKeepRecent = 3

// SummarizeFunc condenses a sequence of turns into a single synthesized turn.
// The reasoning service supplies the implementation.
type SummarizeFunc func(ctx context.Context, turns []engine.ChatMessage) (engine.ChatMessage, error)

// Summarize replaces all turns except the most recent three with one
// synthesized summary turn. If the summarization call fails, it falls back to
// keeping only the recent turns. The result always passes the repair pass.
func (m *Manager) Summarize(ctx context.Context, msgs []engine.ChatMessage, fn SummarizeFunc) []engine.ChatMessage {
	if len(msgs) <= summaryKeepRecent {
		return Repair(msgs)
	}

	old := msgs[:len(msgs)-summaryKeepRecent]
	recent := msgs[len(msgs)-summaryKeepRecent:]

	summary, err := fn(ctx, old)
	if err != nil {
		log.Printf("memory: summarization failed, keeping last %d turns: %v", summaryKeepRecent, err)
		return Repair(recent)
	}

	out := make([]engine.ChatMessage, 0, 1+len(recent))
	out = append(out, summary)
	out = append(out, recent...)
	return Repair(out)
}

// Render flattens turns into a plain-text transcript for summarization
// prompts.
func Render(msgs []engine.ChatMessage) string {
	var sb strings.Builder
	for _, msg := range msgs {
		switch {
		case msg.IsToolCallTurn():
			for _, tc := range msg.ToolCalls {
				fmt.Fprintf(&sb, "[assistant -> %s] %v\n", tc.Name, tc.Args)
			}
			if msg.Content != "" {
				fmt.Fprintf(&sb, "[assistant] %s\n", msg.Content)
			}
		case msg.Role == engine.RoleTool:
			fmt.Fprintf(&sb, "[tool %s] %s\n", msg.Name, msg.Content)
		default:
			fmt.Fprintf(&sb, "[%s] %s\n", msg.Role, msg.Content)
		}
	}
	return sb.String()
}
