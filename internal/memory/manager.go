// Package memory trims the session's conversation history while preserving
// the pairing invariant: every retained tool-call turn is immediately
// followed by its tool-result turn(s).
package memory

import (
	"strings"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

// Config controls strategy selection and filtering.
type Config struct {
	ValidateOnlyMax int // at or below this length, only the repair pass runs
	FilterMax       int // above ValidateOnlyMax and at or below this, the medium strategy runs
	KeepMedium      int // turn cap for the medium strategy
	KeepLong        int // turn cap for the long strategy
	MinResponseLen  int // plain responses at or below this length need a keyword to survive
	Keywords        []string
}

// DefaultConfig returns the trimming defaults.
func DefaultConfig() Config {
	return Config{
		ValidateOnlyMax: 6,
		FilterMax:       12,
		KeepMedium:      8,
		KeepLong:        6,
		MinResponseLen:  50,
		Keywords: []string{
			"analysis", "findings", "recommendation", "financial", "risk",
			"opportunity", "metric", "valuation", "growth", "market",
			"plan", "strategy", "update", "adapt", "confidence",
		},
	}
}

// Manager applies a length-keyed trimming strategy to a turn sequence.
type Manager struct {
	cfg Config
}

// NewManager creates a Manager with the given config; zero fields fall back
// to defaults.
func NewManager(cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.ValidateOnlyMax == 0 {
		cfg.ValidateOnlyMax = def.ValidateOnlyMax
	}
	if cfg.FilterMax == 0 {
		cfg.FilterMax = def.FilterMax
	}
	if cfg.KeepMedium == 0 {
		cfg.KeepMedium = def.KeepMedium
	}
	if cfg.KeepLong == 0 {
		cfg.KeepLong = def.KeepLong
	}
	if cfg.MinResponseLen == 0 {
		cfg.MinResponseLen = def.MinResponseLen
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = def.Keywords
	}
	return &Manager{cfg: cfg}
}

// Process trims the sequence according to its length and repairs pairing.
// Short conversations pass through untouched apart from the repair pass.
func (m *Manager) Process(msgs []engine.ChatMessage) []engine.ChatMessage {
	n := len(msgs)
	switch {
	case n <= m.cfg.ValidateOnlyMax:
		return Repair(msgs)

	case n <= m.cfg.FilterMax:
		filtered := m.filterLowValue(msgs)
		return Repair(keepRecent(filtered, m.cfg.KeepMedium))

	default:
		filtered := m.filterLowValue(msgs)
		capped := keepRecent(filtered, m.cfg.KeepLong)
		// The original leading system turn must survive aggressive capping.
		if len(msgs) > 0 && msgs[0].Role == engine.RoleSystem {
			if len(capped) == 0 || !sameTurn(capped[0], msgs[0]) {
				capped = append([]engine.ChatMessage{msgs[0]}, capped...)
			}
		}
		return Repair(capped)
	}
}

// filterLowValue drops short plain assistant responses with no relevance
// keywords. Request/system turns and every tool-call/tool-result turn are
// always kept.
func (m *Manager) filterLowValue(msgs []engine.ChatMessage) []engine.ChatMessage {
	out := make([]engine.ChatMessage, 0, len(msgs))
	for _, msg := range msgs {
		switch {
		case msg.Role == engine.RoleSystem || msg.Role == engine.RoleUser:
			out = append(out, msg)
		case msg.Role == engine.RoleTool || msg.IsToolCallTurn():
			out = append(out, msg)
		default:
			if len(msg.Content) > m.cfg.MinResponseLen || m.hasKeyword(msg.Content) {
				out = append(out, msg)
			}
		}
	}
	return out
}

func (m *Manager) hasKeyword(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range m.cfg.Keywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// keepRecent caps the sequence to the most recent max turns, preserving a
// leading system turn if one existed.
func keepRecent(msgs []engine.ChatMessage, max int) []engine.ChatMessage {
	if len(msgs) <= max {
		return msgs
	}

	var result []engine.ChatMessage
	rest := msgs
	if msgs[0].Role == engine.RoleSystem {
		result = append(result, msgs[0])
		rest = msgs[1:]
		max--
	}
	if max > 0 && len(rest) > max {
		rest = rest[len(rest)-max:]
	}
	return append(result, rest...)
}

// Repair walks the sequence and drops orphan tool-result turns, guaranteeing
// the pairing invariant in the returned slice. Running it twice is a no-op.
func Repair(msgs []engine.ChatMessage) []engine.ChatMessage {
	out := make([]engine.ChatMessage, 0, len(msgs))
	expectingToolResult := false
	for _, msg := range msgs {
		switch {
		case msg.IsToolCallTurn():
			out = append(out, msg)
			expectingToolResult = true
		case msg.Role == engine.RoleTool:
			if expectingToolResult {
				out = append(out, msg)
			}
			// An orphan result with no preceding tool-call turn is dropped.
		default:
			out = append(out, msg)
			expectingToolResult = false
		}
	}
	return out
}

func sameTurn(a, b engine.ChatMessage) bool {
	return a.Role == b.Role && a.Content == b.Content && a.Name == b.Name
}
