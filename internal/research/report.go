package research

import (
	"fmt"
	"strings"

	"github.com/ChamsBouzaiene/scout/internal/engine"
	"github.com/ChamsBouzaiene/scout/internal/knowledge"
	"github.com/ChamsBouzaiene/scout/internal/plan"
)

const reportFindings = 5

// findingsOf pulls the most informative finding lines out of the completed
// steps, most recent first.
func findingsOf(ap *plan.AdaptivePlan) []string {
	var b strings.Builder
	for _, step := range ap.CompletedSteps {
		if step.Status != plan.StepStatusCompleted {
			continue
		}
		f := knowledge.SummarizeStepResult(step.Description, step.Result, toolKindOf(step))
		b.WriteString(f.String())
		b.WriteString("\n")
	}
	return knowledge.ExtractKeyFindings(b.String(), reportFindings)
}

// renderSummary produces the human-readable execution summary that closes a
// report.
func renderSummary(ap *plan.AdaptivePlan, success bool) string {
	var b strings.Builder

	completed, failed := 0, 0
	for _, step := range ap.CompletedSteps {
		if step.Status == plan.StepStatusCompleted {
			completed++
		} else {
			failed++
		}
	}

	fmt.Fprintf(&b, "Executed %d of %d planned steps", completed, len(ap.OriginalPlan.Steps))
	if failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", failed)
	}
	b.WriteString(".\n")

	if ap.TotalAdaptations > 0 {
		fmt.Fprintf(&b, "Plan adapted %d time(s):\n", ap.TotalAdaptations)
		for _, reason := range ap.AdaptationHistory {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
	}
	fmt.Fprintf(&b, "Final plan confidence: %.2f\n", ap.CurrentConfidence)

	for _, step := range ap.CompletedSteps {
		mark := "ok"
		if step.Status != plan.StepStatusCompleted {
			mark = "failed"
		}
		fmt.Fprintf(&b, "[%s] %s: %s\n", mark, step.ID, step.Description)
	}
	if !success {
		b.WriteString("Session halted before the plan completed.\n")
	}
	return b.String()
}

func toolKindOf(step plan.Step) engine.ToolKind {
	k, err := engine.ParseToolKind(step.ToolUsed)
	if err != nil {
		return ""
	}
	return k
}
