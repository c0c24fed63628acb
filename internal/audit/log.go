// Package audit holds the engine's only persisted artifact: the
// append-only execution log written once per rule evaluation attempt.
package audit

import (
	"context"
	"time"
)

// Result is the aggregate outcome of one rule evaluation attempt.
type Result string

const (
	ResultSuccess Result = "success" // every action succeeded
	ResultPartial Result = "partial" // some actions succeeded, some failed
	ResultFailed  Result = "failed"  // every action failed, or the rule could not start
	ResultSkipped Result = "skipped" // conditions did not hold or the rule was malformed
)

// ActionOutcome records one action's result within a rule run.
type ActionOutcome struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ExecutionLog is one immutable audit record. It is created exactly
// once per dispatched rule and never mutated afterwards.
type ExecutionLog struct {
	ID           string          `json:"id"`
	RuleID       int64           `json:"rule_id"`
	OrderID      int64           `json:"order_id"`
	TriggerEvent string          `json:"trigger_event"`
	Result       Result          `json:"result"`
	Actions      []ActionOutcome `json:"actions_executed"`
	ErrorMessage string          `json:"error_message,omitempty"`
	ExecutedAt   time.Time       `json:"executed_at"`
}

// Logger persists execution logs. Implementations must treat failures
// as best-effort: a failed write never unwinds performed actions.
type Logger interface {
	Record(ctx context.Context, log *ExecutionLog) error
}

// Filter narrows a log query. Zero values mean "any".
type Filter struct {
	RuleID  int64
	OrderID int64
	Result  Result
	Limit   int
}

// Stats summarizes a rule's historical outcomes for reporting.
type Stats struct {
	RuleID      int64   `json:"rule_id"`
	Total       int     `json:"total"`
	Succeeded   int     `json:"succeeded"`
	Partial     int     `json:"partial"`
	Failed      int     `json:"failed"`
	Skipped     int     `json:"skipped"`
	SuccessRate float64 `json:"success_rate"` // succeeded / (total - skipped)
}
