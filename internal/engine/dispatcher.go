package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/action"
	"github.com/gyaneshwarpardhi/orderflow/internal/audit"
	"github.com/gyaneshwarpardhi/orderflow/internal/config"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/metrics"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// Dispatcher is the engine's entry point. It fetches an order
// snapshot, asks the Matcher for candidate rules, drives each through
// the Coordinator in priority order, and records every execution log.
//
// All collaborators are injected so tests can substitute fakes.
type Dispatcher struct {
	rules   rule.Store
	orders  order.Store
	matcher *Matcher
	coord   *Coordinator
	logger  audit.Logger
	pool    *workerPool[dispatchWork]
	conf    config.EngineConf
}

type dispatchWork struct {
	ev      event.Event
	resultC chan dispatchResult
}

type dispatchResult struct {
	logs []audit.ExecutionLog
	err  error
}

// New creates a Dispatcher and starts its worker pool.
func New(ctx context.Context, rules rule.Store, orders order.Store, registry *action.Registry, logger audit.Logger, conf config.EngineConf) *Dispatcher {
	d := &Dispatcher{
		rules:   rules,
		orders:  orders,
		matcher: NewMatcher(rules),
		coord:   NewCoordinator(orders, registry),
		logger:  logger,
		conf:    conf,
	}
	d.pool = newWorkerPool(ctx, conf.EventWorkers, conf.QueueDepth, func(ctx context.Context, w dispatchWork) {
		logs, err := d.Dispatch(ctx, w.ev)
		if w.resultC != nil {
			w.resultC <- dispatchResult{logs: logs, err: err}
		} else if err != nil {
			slog.Error("dispatch failed", "event", w.ev.Name, "order_id", w.ev.OrderID, "err", err)
		}
	})
	return d
}

// Dispatch processes one lifecycle event synchronously and returns
// every execution log it produced, skipped ones included. Only
// structural failures (snapshot fetch, rule listing) return an error;
// per-action failures live inside the logs.
func (d *Dispatcher) Dispatch(ctx context.Context, ev event.Event) ([]audit.ExecutionLog, error) {
	start := time.Now()

	snap, err := d.orders.Snapshot(ctx, ev.OrderID)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot for order %d: %w", ev.OrderID, err)
	}

	matched, skipped, err := d.matcher.Match(ctx, ev, snap)
	if err != nil {
		return nil, fmt.Errorf("match rules for event %q: %w", ev.Name, err)
	}

	logs := make([]audit.ExecutionLog, 0, len(skipped)+len(matched))
	for i := range skipped {
		d.record(ctx, &skipped[i])
		logs = append(logs, skipped[i])
	}
	for _, r := range matched {
		lg := d.coord.Run(ctx, r, ev)
		metrics.RuleRuns.WithLabelValues(formatRuleID(r.ID), string(lg.Result)).Inc()
		d.record(ctx, &lg)
		logs = append(logs, lg)
	}

	metrics.EventsDispatched.Inc()
	metrics.DispatchDuration.Observe(float64(time.Since(start).Milliseconds()))
	return logs, nil
}

// DispatchSync runs an event through the worker pool and waits for
// the result, honoring the configured dispatch timeout. A full queue
// is backpressure, returned as an error.
func (d *Dispatcher) DispatchSync(ctx context.Context, ev event.Event) ([]audit.ExecutionLog, error) {
	resultC := make(chan dispatchResult, 1)
	if !d.pool.Submit(dispatchWork{ev: ev, resultC: resultC}) {
		metrics.EventsDropped.Inc()
		return nil, fmt.Errorf("event queue full (capacity %d)", d.pool.QueueCap())
	}
	metrics.EventsEnqueued.Inc()

	timeout := time.Duration(d.conf.DispatchTimeoutMs) * time.Millisecond
	select {
	case res := <-resultC:
		return res.logs, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("dispatch timeout after %v", timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// DispatchAsync enqueues an event for background processing. Returns
// false if the queue is full.
func (d *Dispatcher) DispatchAsync(ev event.Event) bool {
	if !d.pool.Submit(dispatchWork{ev: ev}) {
		metrics.EventsDropped.Inc()
		return false
	}
	metrics.EventsEnqueued.Inc()
	return true
}

// QueueUtilization returns queue used / capacity (0-1).
func (d *Dispatcher) QueueUtilization() float64 {
	if d.pool.QueueCap() == 0 {
		return 0
	}
	return float64(d.pool.QueueLen()) / float64(d.pool.QueueCap())
}

// Shutdown drains the worker pool gracefully.
func (d *Dispatcher) Shutdown() {
	d.pool.Drain()
}

// record persists one log, best-effort. Actions already performed are
// real; a failed audit write is reported and counted, never unwound.
func (d *Dispatcher) record(ctx context.Context, lg *audit.ExecutionLog) {
	if err := d.logger.Record(ctx, lg); err != nil {
		metrics.LogWriteFailures.Inc()
		slog.Error("execution log write failed",
			"rule_id", lg.RuleID, "order_id", lg.OrderID, "result", lg.Result, "err", err)
	}
}
