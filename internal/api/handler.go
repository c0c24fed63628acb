package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gyaneshwarpardhi/orderflow/internal/audit"
	"github.com/gyaneshwarpardhi/orderflow/internal/engine"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/metrics"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
	"github.com/gyaneshwarpardhi/orderflow/internal/simulate"
)

const maxBatchSize = 100

// LogQuerier is the reporting read path over execution logs.
type LogQuerier interface {
	List(ctx context.Context, f audit.Filter) ([]audit.ExecutionLog, error)
	SuccessRate(ctx context.Context, ruleID int64) (audit.Stats, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	dispatcher *engine.Dispatcher
	rules      *rule.FileStore
	sim        *simulate.Harness
	logs       LogQuerier
	mux        *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(dispatcher *engine.Dispatcher, rules *rule.FileStore, sim *simulate.Harness, logs LogQuerier) http.Handler {
	h := &Handler{dispatcher: dispatcher, rules: rules, sim: sim, logs: logs, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/events", h.ingestEvent)
	h.mux.HandleFunc("POST /v1/events/batch", h.ingestBatch)
	h.mux.HandleFunc("GET /v1/rules", h.listRules)
	h.mux.HandleFunc("POST /v1/rules/reload", h.reloadRules)
	h.mux.HandleFunc("GET /v1/logs", h.listLogs)
	h.mux.HandleFunc("GET /v1/rules/{id}/stats", h.ruleStats)
	h.mux.HandleFunc("POST /v1/simulate", h.simulateRule)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.HandleFunc("GET /readyz", h.readyz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	return loggingMiddleware(h.mux)
}

// POST /v1/events — synchronous single-event ingestion.
func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	var ev event.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if ev.Name == "" {
		writeError(w, http.StatusBadRequest, "event name is required")
		return
	}
	if ev.OrderID == 0 {
		writeError(w, http.StatusBadRequest, "order_id is required")
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	ev.ReceivedAt = time.Now()

	logs, err := h.dispatcher.DispatchSync(r.Context(), ev)
	if err != nil {
		writeError(w, http.StatusTooManyRequests, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"event_id": ev.ID,
		"logs":     logs,
	})
}

// POST /v1/events/batch — async batch ingestion (up to 100 events).
func (h *Handler) ingestBatch(w http.ResponseWriter, r *http.Request) {
	var events []event.Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if len(events) == 0 {
		writeError(w, http.StatusBadRequest, "batch must contain at least one event")
		return
	}
	if len(events) > maxBatchSize {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("batch size %d exceeds max %d", len(events), maxBatchSize))
		return
	}

	now := time.Now()
	jobID := uuid.New().String()
	queued := 0
	for i := range events {
		if events[i].ID == "" {
			events[i].ID = uuid.New().String()
		}
		events[i].ReceivedAt = now
		if h.dispatcher.DispatchAsync(events[i]) {
			queued++
		}
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   jobID,
		"total":    len(events),
		"queued":   queued,
		"rejected": len(events) - queued,
	})
}

// GET /v1/rules — list loaded rules.
func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version": h.rules.Version(),
		"rules":   h.rules.All(),
	})
}

// POST /v1/rules/reload — re-read the rule file from disk.
func (h *Handler) reloadRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"reloaded":    true,
		"rules_count": len(rules),
	})
}

// GET /v1/logs — query the execution log, filterable by rule_id,
// order_id and result.
func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	var f audit.Filter
	q := r.URL.Query()
	if v := q.Get("rule_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "rule_id must be an integer")
			return
		}
		f.RuleID = id
	}
	if v := q.Get("order_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "order_id must be an integer")
			return
		}
		f.OrderID = id
	}
	if v := q.Get("result"); v != "" {
		f.Result = audit.Result(v)
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		f.Limit = n
	}

	logs, err := h.logs.List(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}

// GET /v1/rules/{id}/stats — success-rate analytics for one rule.
func (h *Handler) ruleStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "rule id must be an integer")
		return
	}
	stats, err := h.logs.SuccessRate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type simulateRequest struct {
	RuleID  int64 `json:"rule_id"`
	OrderID int64 `json:"order_id"`
}

// POST /v1/simulate — preview a rule against an order with no side
// effects.
func (h *Handler) simulateRule(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.RuleID == 0 || req.OrderID == 0 {
		writeError(w, http.StatusBadRequest, "rule_id and order_id are required")
		return
	}
	report, err := h.sim.Simulate(r.Context(), req.RuleID, req.OrderID)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /readyz — 503 if the event queue is >80% full.
func (h *Handler) readyz(w http.ResponseWriter, r *http.Request) {
	util := h.dispatcher.QueueUtilization()
	metrics.QueueUtilization.Set(util)
	if util > 0.8 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":            "overloaded",
			"queue_utilization": util,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ready",
		"queue_utilization": util,
	})
}
