package engine

import (
	"context"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ToolKind identifies one of the registered tool families. The set is closed:
// a kind the registry has never heard of is a construction-time error, not a
// silent default.
type ToolKind string

const (
	KindWebSearch  ToolKind = "web_search"
	KindScrapePage ToolKind = "scrape_page"
	KindDocSearch  ToolKind = "doc_search"
	KindCalculator ToolKind = "calculator"
	// KindFinal is the terminal tool: once selected, the session loop stops.
	KindFinal ToolKind = "final"
)

// ParseToolKind validates a raw kind string against the closed set.
func ParseToolKind(s string) (ToolKind, error) {
	switch k := ToolKind(s); k {
	case KindWebSearch, KindScrapePage, KindDocSearch, KindCalculator, KindFinal:
		return k, nil
	default:
		return "", &UnknownToolError{Kind: s}
	}
}

// ToolSelection is the reasoning service's decision for one step: which tool
// to run and with what parameters. Parameters must satisfy the JSON schema the
// named tool declares.
type ToolSelection struct {
	Kind       ToolKind       `json:"tool"`
	Parameters map[string]any `json:"tool_parameters"`
}

// ToolFunc executes a tool with already-validated arguments and returns the
// tool's JSON-encoded output.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool couples a declared parameter schema with its handler.
type Tool struct {
	Kind        ToolKind
	Description string
	SchemaJSON  string
	Fn          ToolFunc
}

// ValidateArgs validates the provided arguments against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}

	if !result.Valid() {
		var errorMsgs []string
		for _, e := range result.Errors() {
			errorMsgs = append(errorMsgs, e.String())
		}
		return &ToolValidationError{Kind: t.Kind, Errors: errorMsgs}
	}

	return nil
}

// ToolRegistry maps tool kinds to their implementations.
type ToolRegistry map[ToolKind]Tool

// Schemas returns the provider-facing schema list for all registered tools.
func (r ToolRegistry) Schemas() []ToolSchema {
	s := make([]ToolSchema, 0, len(r))
	for _, t := range r {
		s = append(s, ToolSchema{
			Name:        string(t.Kind),
			Description: t.Description,
			JSONSchema:  t.SchemaJSON,
		})
	}
	return s
}

// Kinds returns the registered tool kinds, for error messages and prompts.
func (r ToolRegistry) Kinds() []ToolKind {
	kinds := make([]ToolKind, 0, len(r))
	for k := range r {
		kinds = append(kinds, k)
	}
	return kinds
}

// Dispatcher routes a ToolSelection to its registered handler. Both failure
// modes are contract violations by the reasoning service and are never
// retried: an unregistered kind, or parameters that fail the handler's schema.
type Dispatcher struct {
	reg ToolRegistry
}

// NewDispatcher creates a dispatcher over the given registry.
func NewDispatcher(reg ToolRegistry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Execute validates and runs the selected tool, returning its raw output.
func (d *Dispatcher) Execute(ctx context.Context, sel ToolSelection) (string, error) {
	t, ok := d.reg[sel.Kind]
	if !ok {
		return "", &UnknownToolError{Kind: string(sel.Kind), Available: d.reg.Kinds()}
	}

	if err := t.ValidateArgs(sel.Parameters); err != nil {
		return "", err
	}

	out, err := t.Fn(ctx, sel.Parameters)
	if err != nil {
		return "", &ToolExecutionError{Kind: sel.Kind, Err: err}
	}

	return out, nil
}
