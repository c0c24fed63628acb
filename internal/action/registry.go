package action

import (
	"context"
	"fmt"
	"sync"

	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// Registry maps action types to their executors. It is safe for
// concurrent reads; Register should only be called at startup.
type Registry struct {
	mu        sync.RWMutex
	executors map[rule.ActionType]Executor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{executors: make(map[rule.ActionType]Executor)}
}

// Register adds an executor. Panics on duplicate type to surface
// misconfiguration early.
func (r *Registry) Register(e Executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.executors[e.Type()]; exists {
		panic(fmt.Sprintf("action registry: duplicate type %q", e.Type()))
	}
	r.executors[e.Type()] = e
}

// Get returns the executor for the given type.
func (r *Registry) Get(t rule.ActionType) (Executor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[t]
	if !ok {
		return nil, fmt.Errorf("no executor registered for action type %q", t)
	}
	return e, nil
}

// Types returns all registered action types.
func (r *Registry) Types() []rule.ActionType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]rule.ActionType, 0, len(r.executors))
	for k := range r.executors {
		out = append(out, k)
	}
	return out
}

// Execute validates then runs one action against its backend. With
// dryRun set, validation still happens but the backend call is skipped
// and the outcome is marked Simulated. Failures are returned in the
// outcome, never as a panic or a propagated error.
func (r *Registry) Execute(ctx context.Context, a rule.Action, orderID int64, dryRun bool) Outcome {
	out := Outcome{Type: a.Type}

	exec, err := r.Get(a.Type)
	if err != nil {
		out.Error = (&ValidationError{Action: a.Type, Err: err}).Error()
		return out
	}
	if err := exec.Validate(a); err != nil {
		out.Error = (&ValidationError{Action: a.Type, Err: err}).Error()
		return out
	}
	if dryRun {
		out.Success = true
		out.Simulated = true
		return out
	}
	if err := exec.Execute(ctx, orderID, a); err != nil {
		out.Error = (&BackendError{Action: a.Type, Err: err}).Error()
		return out
	}
	out.Success = true
	return out
}
