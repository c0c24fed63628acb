// Package simulate previews a rule's behavior against a live order
// without side effects: conditions evaluate for real, actions run in
// dry-run mode, and no execution log is written.
package simulate

import (
	"context"
	"fmt"

	"github.com/gyaneshwarpardhi/orderflow/internal/action"
	"github.com/gyaneshwarpardhi/orderflow/internal/condition"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// ConditionResult is one condition's evaluation within a simulation.
type ConditionResult struct {
	Condition rule.TriggerCondition `json:"condition"`
	Result    bool                  `json:"result"`
	Error     string                `json:"error,omitempty"`
}

// ActionPreview is one action's dry-run outcome.
type ActionPreview struct {
	Action   rule.Action `json:"action"`
	WouldRun bool        `json:"would_run"`
	Error    string      `json:"error,omitempty"`
}

// Report is the full simulation result for one rule and order.
type Report struct {
	RuleID     int64             `json:"rule_id"`
	OrderID    int64             `json:"order_id"`
	Matched    bool              `json:"matched"`
	Conditions []ConditionResult `json:"conditions"`
	Actions    []ActionPreview   `json:"actions"`
}

// Harness wires the condition evaluator and action registry into the
// preview path used by the rule authoring surface.
type Harness struct {
	rules    rule.Store
	orders   order.Store
	registry *action.Registry
}

// New creates a Harness.
func New(rules rule.Store, orders order.Store, registry *action.Registry) *Harness {
	return &Harness{rules: rules, orders: orders, registry: registry}
}

// Simulate evaluates every condition of the rule against the order's
// current snapshot and dry-runs every action. Unlike dispatch, all
// conditions are reported even after the first miss, since the
// authoring surface wants the full picture.
func (h *Harness) Simulate(ctx context.Context, ruleID, orderID int64) (*Report, error) {
	r, err := h.rules.Get(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("load rule %d: %w", ruleID, err)
	}
	snap, err := h.orders.Snapshot(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot for order %d: %w", orderID, err)
	}

	report := &Report{RuleID: ruleID, OrderID: orderID, Matched: true}
	for _, c := range r.Conditions {
		cr := ConditionResult{Condition: c}
		ok, err := condition.Evaluate(c, snap, nil)
		if err != nil {
			cr.Error = err.Error()
		}
		cr.Result = ok && err == nil
		if !cr.Result {
			report.Matched = false
		}
		report.Conditions = append(report.Conditions, cr)
	}

	for _, a := range r.Actions {
		out := h.registry.Execute(ctx, a, orderID, true)
		report.Actions = append(report.Actions, ActionPreview{
			Action:   a,
			WouldRun: report.Matched && out.Success,
			Error:    out.Error,
		})
	}
	return report, nil
}
