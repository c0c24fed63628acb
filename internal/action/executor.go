// Package action executes a rule's side effects against external
// backends through an explicit dispatch table, one executor per
// action type.
package action

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// Outcome is the typed result of executing one action.
type Outcome struct {
	Type      rule.ActionType `json:"type"`
	Success   bool            `json:"success"`
	Simulated bool            `json:"simulated,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Executor is the interface every action implementation satisfies.
// Validate runs before any backend call and again at rule-authoring
// validation; Execute performs the real side effect.
type Executor interface {
	// Type returns the action type this executor is registered under.
	Type() rule.ActionType
	// Validate checks the action's params without touching a backend.
	Validate(a rule.Action) error
	// Execute performs the side effect for the given order.
	Execute(ctx context.Context, orderID int64, a rule.Action) error
}

// ValidationError marks params rejected before execution. No backend
// call was made.
type ValidationError struct {
	Action rule.ActionType
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Action, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// BackendError marks a backend call that failed or timed out. The
// failure is isolated to this action.
type BackendError struct {
	Action rule.ActionType
	Err    error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("execute %s: %v", e.Action, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }
