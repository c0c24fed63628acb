package engine_test

import (
	"context"
	"errors"
	"sync"

	"github.com/gyaneshwarpardhi/orderflow/internal/action"
	"github.com/gyaneshwarpardhi/orderflow/internal/audit"
	"github.com/gyaneshwarpardhi/orderflow/internal/config"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// fakeRules is an in-memory rule.Store.
type fakeRules struct {
	rules   []rule.AutomationRule
	listErr error
}

func (f *fakeRules) ListActiveForEvent(_ context.Context, ev string) ([]rule.AutomationRule, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []rule.AutomationRule
	for _, r := range f.rules {
		if r.Active && r.ListensFor(ev) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRules) Get(_ context.Context, id int64) (rule.AutomationRule, error) {
	for _, r := range f.rules {
		if r.ID == id {
			return r, nil
		}
	}
	return rule.AutomationRule{}, errors.New("rule not found")
}

// memLogger records execution logs in memory, optionally failing.
type memLogger struct {
	mu      sync.Mutex
	logs    []audit.ExecutionLog
	failErr error
}

func (m *memLogger) Record(_ context.Context, lg *audit.ExecutionLog) error {
	if m.failErr != nil {
		return m.failErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs = append(m.logs, *lg)
	return nil
}

func (m *memLogger) all() []audit.ExecutionLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]audit.ExecutionLog(nil), m.logs...)
}

// stubNotifier counts sends and can be told to fail.
type stubNotifier struct {
	mu   sync.Mutex
	sent int
	fail error
}

func (s *stubNotifier) Send(context.Context, string, string, string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.sent++
	return nil
}

// stubFulfiller counts created fulfillments.
type stubFulfiller struct {
	mu      sync.Mutex
	created int
}

func (s *stubFulfiller) Create(context.Context, int64, rule.FulfillmentParams) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created++
	return nil
}

// rejectingOrders wraps a store and refuses status transitions, the
// way a real order store rejects illegal ones.
type rejectingOrders struct {
	order.Store
}

func (r rejectingOrders) SetStatus(context.Context, int64, string) error {
	return errors.New("transition not allowed")
}

func newRegistry(orders order.Store, notifier action.Notifier, fulfiller action.Fulfiller) *action.Registry {
	reg := action.NewRegistry()
	reg.Register(&action.UpdateStatus{Orders: orders})
	reg.Register(&action.AssignWorkflow{Orders: orders})
	reg.Register(&action.AssignPriority{Orders: orders})
	reg.Register(&action.AddTag{Orders: orders})
	reg.Register(&action.UpdateCustomField{Orders: orders})
	reg.Register(&action.SendNotification{Backend: notifier})
	reg.Register(&action.CreateFulfillment{Backend: fulfiller})
	return reg
}

func testConf() config.EngineConf {
	return config.EngineConf{
		EventWorkers:      2,
		QueueDepth:        16,
		DispatchTimeoutMs: 5000,
		ActionTimeoutMs:   1000,
	}
}

func statusRule(id int64, priority int, from, to string) rule.AutomationRule {
	return rule.AutomationRule{
		ID:       id,
		Name:     "status rule",
		Priority: priority,
		Active:   true,
		Conditions: []rule.TriggerCondition{
			{Event: event.StatusChanged, Type: rule.CondOrderStatus, Operator: rule.OpEq, Value: from},
		},
		Actions: []rule.Action{
			{Type: rule.ActionUpdateStatus, Params: map[string]string{"status": to}},
		},
	}
}

func tagRule(id int64, priority int, ev, from, tag string) rule.AutomationRule {
	return rule.AutomationRule{
		ID:       id,
		Name:     "tag rule",
		Priority: priority,
		Active:   true,
		Conditions: []rule.TriggerCondition{
			{Event: ev, Type: rule.CondOrderStatus, Operator: rule.OpEq, Value: from},
		},
		Actions: []rule.Action{
			{Type: rule.ActionAddTag, Params: map[string]string{"tag": tag}},
		},
	}
}

func statusEvent(orderID int64) event.Event {
	return event.Event{ID: "evt-1", Name: event.StatusChanged, OrderID: orderID}
}
