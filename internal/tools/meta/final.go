// Package meta holds tools that steer the session rather than gather data.
package meta

import (
	"context"
	"encoding/json"

	"github.com/ChamsBouzaiene/scout/internal/engine"
)

// NewFinal creates the terminal tool. Selecting it ends the session: the
// answer is recorded and no further steps run.
func NewFinal() engine.Tool {
	return engine.Tool{
		Kind:        engine.KindFinal,
		Description: "Delivers the final answer once the accumulated findings are sufficient. Selecting this tool ends the investigation.",
		SchemaJSON:  `{"type":"object","properties":{"answer":{"type":"string","description":"The complete final answer, synthesized from all findings"},"confidence":{"type":"number","description":"Confidence in the answer, 0.0 to 1.0"}},"required":["answer"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			answer, _ := args["answer"].(string)
			payload := map[string]any{"answer": answer}
			if c, ok := args["confidence"].(float64); ok {
				payload["confidence"] = c
			}
			out, err := json.Marshal(payload)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}
