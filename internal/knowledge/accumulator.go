// Package knowledge accumulates findings across research steps: it summarizes
// raw tool output into short findings, merges them into a bounded running
// context, and mines that context back into focused per-step prompts.
package knowledge

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

const (
	// DefaultMaxContext bounds the accumulated knowledge text.
	DefaultMaxContext = 2000

	separator = "\n\n"
	ellipsis  = "..."

	// Result fragments at or below this length carry no information worth
	// mining back into prompts.
	minResultLen = 10

	// Findings appended to a focused context.
	focusedFindings = 3

	// Answer excerpts are clipped to keep one finding near a single line.
	excerptLen = 200
)

// Finding is one step's outcome in structured form. The reasoning service's
// prompts expect the "Step: ... | Result: ..." text shape, so Finding only
// becomes text at the prompt boundary via String.
type Finding struct {
	Step   string
	Result string
}

// String serializes the finding to the tagged text form.
func (f Finding) String() string {
	return fmt.Sprintf("Step: %s | Result: %s", f.Step, f.Result)
}

// ParseFinding recovers a Finding from a tagged line, reporting whether the
// line carried the expected shape.
func ParseFinding(line string) (Finding, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "Step:") {
		return Finding{}, false
	}
	idx := strings.Index(line, "| Result:")
	if idx < 0 {
		return Finding{}, false
	}
	return Finding{
		Step:   strings.TrimSpace(strings.TrimPrefix(line[:idx], "Step:")),
		Result: strings.TrimSpace(line[idx+len("| Result:"):]),
	}, true
}

// SummarizeStepResult produces a short finding for one step's raw tool
// output, using kind-specific extraction rules. Raw output is expected to be
// the tool's JSON encoding; anything unparseable falls back to a generic line.
func SummarizeStepResult(stepDescription, rawOutput string, kind engine.ToolKind) Finding {
	return Finding{Step: stepDescription, Result: summarizeOutput(rawOutput, kind)}
}

func summarizeOutput(rawOutput string, kind engine.ToolKind) string {
	var payload map[string]any
	if err := json.Unmarshal([]byte(rawOutput), &payload); err != nil {
		payload = nil
	}

	switch kind {
	case engine.KindWebSearch:
		results, ok := payload["results"].([]any)
		if !ok {
			return "Web search completed"
		}
		summary := fmt.Sprintf("Web search found %d results", len(results))
		if len(results) > 0 {
			if first, ok := results[0].(map[string]any); ok {
				if title, ok := first["title"].(string); ok && title != "" {
					summary += ", top result: " + clip(title, 100)
				}
			}
		}
		return summary

	case engine.KindDocSearch:
		if answer, ok := payload["answer"].(string); ok && answer != "" {
			return "Document search found: " + clip(answer, excerptLen)
		}
		return "Document search completed"

	case engine.KindCalculator:
		if result, ok := payload["result"]; ok {
			return fmt.Sprintf("Calculation result: %v", result)
		}
		return "Calculation completed"

	case engine.KindFinal:
		if answer, ok := payload["answer"].(string); ok && answer != "" {
			return "Final answer: " + clip(answer, excerptLen)
		}
		return "Final answer produced"

	default:
		return fmt.Sprintf("Tool '%s' executed successfully", kind)
	}
}

// MergeContexts folds new information into the existing running context,
// keeping the result within maxLength. The new information is always retained
// in full whenever it alone fits; the oldest part of the existing context is
// dropped to make room.
func MergeContexts(existing, newInfo string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultMaxContext
	}
	if existing == "" {
		return head(newInfo, maxLength)
	}
	if newInfo == "" {
		return head(existing, maxLength)
	}

	merged := existing + separator + newInfo
	if len(merged) <= maxLength {
		return merged
	}

	if len(newInfo) >= maxLength {
		return newInfo[:maxLength]
	}

	available := maxLength - len(newInfo) - len(separator) - len(ellipsis)
	if available <= 0 {
		return newInfo
	}
	return ellipsis + existing[len(existing)-available:] + separator + newInfo
}

// ExtractKeyFindings mines the running context for tagged findings and
// returns up to maxFindings meaningful result fragments, most recent first.
func ExtractKeyFindings(accumulated string, maxFindings int) []string {
	if accumulated == "" || maxFindings <= 0 {
		return nil
	}

	var findings []string
	lines := strings.Split(accumulated, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		f, ok := ParseFinding(lines[i])
		if !ok || len(f.Result) <= minResultLen {
			continue
		}
		findings = append(findings, f.Result)
		if len(findings) >= maxFindings {
			break
		}
	}
	return findings
}

// CreateFocusedContext narrows the original query and context for one step:
// the query gains the step focus, the context gains recent key findings.
func CreateFocusedContext(query, context, accumulated, stepDescription string) (string, string) {
	focusedQuery := fmt.Sprintf("%s (Current focus: %s)", query, stepDescription)

	focusedContext := context
	if findings := ExtractKeyFindings(accumulated, focusedFindings); len(findings) > 0 {
		focusedContext += "\n\nPrevious investigation findings: " + strings.Join(findings, " | ")
	}
	return focusedQuery, focusedContext
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + ellipsis
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
