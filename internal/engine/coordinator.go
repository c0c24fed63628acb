package engine

import (
	"context"
	"strconv"

	"github.com/gyaneshwarpardhi/orderflow/internal/action"
	"github.com/gyaneshwarpardhi/orderflow/internal/audit"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/metrics"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// Coordinator drives one matched rule's action list and aggregates
// the outcome into a single execution log.
type Coordinator struct {
	orders   order.Store
	registry *action.Registry
	locks    *orderLocks
}

// NewCoordinator creates a Coordinator.
func NewCoordinator(orders order.Store, registry *action.Registry) *Coordinator {
	return &Coordinator{
		orders:   orders,
		registry: registry,
		locks:    newOrderLocks(),
	}
}

// Run executes every action of the rule in declared order under the
// order's lock. Actions are failure-isolated: one failure never stops
// the rest of the list. Conditions are re-checked against a fresh
// snapshot inside the lock because a higher-priority rule may have
// already mutated the order.
func (c *Coordinator) Run(ctx context.Context, r rule.AutomationRule, ev event.Event) audit.ExecutionLog {
	lg := newLog(r.ID, ev)

	c.locks.Lock(ev.OrderID)
	defer c.locks.Unlock(ev.OrderID)

	snap, err := c.orders.Snapshot(ctx, ev.OrderID)
	if err != nil {
		lg.Result = audit.ResultFailed
		lg.ErrorMessage = "could not start: " + err.Error()
		return lg
	}
	if !conditionsHold(r, snap, ev.Context) {
		lg.Result = audit.ResultSkipped
		return lg
	}

	succeeded := 0
	for _, a := range r.Actions {
		out := c.registry.Execute(ctx, a, ev.OrderID, false)
		lg.Actions = append(lg.Actions, audit.ActionOutcome{
			Type:    string(out.Type),
			Success: out.Success,
			Error:   out.Error,
		})
		status := "error"
		if out.Success {
			succeeded++
			status = "success"
		}
		metrics.ActionsExecuted.WithLabelValues(string(a.Type), status).Inc()
	}

	switch {
	case succeeded == len(r.Actions):
		lg.Result = audit.ResultSuccess
	case succeeded == 0:
		lg.Result = audit.ResultFailed
	default:
		lg.Result = audit.ResultPartial
	}
	return lg
}

func formatRuleID(id int64) string {
	return strconv.FormatInt(id, 10)
}
