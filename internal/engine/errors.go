// Package engine provides the conversation model, tool registry, and
// dispatcher shared by the research session. This file contains the typed
// errors the session's halt/recover decisions key off.

package engine

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// UnknownToolError indicates the reasoning service named a tool kind that is
// not registered. Fatal, not retried.
type UnknownToolError struct {
	Kind      string
	Available []ToolKind
}

func (e *UnknownToolError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("unknown tool: %s", e.Kind)
	}
	kinds := make([]string, 0, len(e.Available))
	for _, k := range e.Available {
		kinds = append(kinds, string(k))
	}
	return fmt.Sprintf("unknown tool: %s (available tools: %s)", e.Kind, strings.Join(kinds, ", "))
}

// ToolValidationError indicates tool parameters failed JSON schema validation.
// This is a contract violation by the reasoning service, not a transient
// fault. Fatal, not retried.
type ToolValidationError struct {
	Kind   ToolKind
	Errors []string
}

func (e *ToolValidationError) Error() string {
	return fmt.Sprintf("tool %s validation failed: %s", e.Kind, strings.Join(e.Errors, "; "))
}

// ToolExecutionError indicates a dispatched tool failed while running. Fatal
// to the step; the remainder of the plan is not attempted.
type ToolExecutionError struct {
	Kind ToolKind
	Err  error
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("execution failed for tool %s: %v", e.Kind, e.Err)
}

func (e *ToolExecutionError) Unwrap() error { return e.Err }

// ContractError indicates the reasoning service returned output that violates
// its schema contract (malformed JSON, out-of-range scores, bad plan shape).
type ContractError struct {
	Op  string // "plan", "select_tool", "evaluate_update", "summarize", "feedback"
	Err error
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("reasoning contract violation in %s: %v", e.Op, e.Err)
}

func (e *ContractError) Unwrap() error { return e.Err }

// IsContractError reports whether err is a reasoning contract violation.
func IsContractError(err error) bool {
	var ce *ContractError
	return errors.As(err, &ce)
}

// LLMError carries provider-level metadata alongside an LLM call failure.
type LLMError struct {
	Err         error
	HTTPStatus  int
	RetryAfter  string
	IsRateLimit bool
	IsAuth      bool
}

func (e *LLMError) Error() string {
	if e.HTTPStatus > 0 {
		return fmt.Sprintf("llm call failed (status %d): %v", e.HTTPStatus, e.Err)
	}
	return fmt.Sprintf("llm call failed: %v", e.Err)
}

func (e *LLMError) Unwrap() error { return e.Err }

// WrapLLMError classifies a provider error by HTTP status.
func WrapLLMError(err error, httpStatus int, retryAfter string) error {
	if err == nil {
		return nil
	}
	return &LLMError{
		Err:         err,
		HTTPStatus:  httpStatus,
		RetryAfter:  retryAfter,
		IsRateLimit: httpStatus == http.StatusTooManyRequests,
		IsAuth:      httpStatus == http.StatusUnauthorized || httpStatus == http.StatusForbidden,
	}
}
