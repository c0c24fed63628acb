package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_events_enqueued_total",
		Help: "Total number of lifecycle events placed on the dispatch queue.",
	})

	EventsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_events_dispatched_total",
		Help: "Total number of lifecycle events fully dispatched.",
	})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_events_dropped_total",
		Help: "Total number of events rejected due to a full queue.",
	})

	RulesMatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_rules_matched_total",
		Help: "Total number of rule matches, labelled by rule ID.",
	}, []string{"rule_id"})

	RuleRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_rule_runs_total",
		Help: "Total number of rule executions, labelled by rule ID and result.",
	}, []string{"rule_id", "result"})

	ActionsExecuted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderflow_actions_executed_total",
		Help: "Total number of actions executed, labelled by type and status.",
	}, []string{"action_type", "status"})

	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "orderflow_dispatch_duration_ms",
		Help:    "End-to-end event dispatch latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	LogWriteFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderflow_log_write_failures_total",
		Help: "Total number of execution log writes that failed.",
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orderflow_queue_utilization_ratio",
		Help: "Current event queue utilization (0-1).",
	})
)
