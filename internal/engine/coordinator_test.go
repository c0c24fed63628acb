package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gyaneshwarpardhi/orderflow/internal/audit"
	"github.com/gyaneshwarpardhi/orderflow/internal/engine"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

func seedOrder(status string) *order.MemStore {
	orders := order.NewMemStore()
	orders.Put(order.Snapshot{ID: 42, Status: status, PaymentStatus: "paid", TotalAmount: 100})
	return orders
}

func multiActionRule(actions ...rule.Action) rule.AutomationRule {
	return rule.AutomationRule{
		ID: 1, Name: "multi", Priority: 1, Active: true,
		Conditions: []rule.TriggerCondition{
			{Event: event.StatusChanged, Type: rule.CondOrderStatus, Operator: rule.OpEq, Value: "processing"},
		},
		Actions: actions,
	}
}

func TestRunAggregation(t *testing.T) {
	tagAction := rule.Action{Type: rule.ActionAddTag, Params: map[string]string{"tag": "seen"}}
	notifyAction := rule.Action{Type: rule.ActionSendNotification, Params: map[string]string{
		"type": "email", "recipient_type": "customer",
	}}
	statusAction := rule.Action{Type: rule.ActionUpdateStatus, Params: map[string]string{"status": "completed"}}

	cases := []struct {
		name       string
		notifyFail bool
		rejectSet  bool
		actions    []rule.Action
		want       audit.Result
		wantFails  int
	}{
		{
			name:    "all succeed",
			actions: []rule.Action{tagAction, notifyAction, statusAction},
			want:    audit.ResultSuccess,
		},
		{
			name:       "some fail",
			notifyFail: true,
			actions:    []rule.Action{tagAction, notifyAction, statusAction},
			want:       audit.ResultPartial,
			wantFails:  1,
		},
		{
			name:       "all fail",
			notifyFail: true,
			rejectSet:  true,
			actions:    []rule.Action{notifyAction, statusAction},
			want:       audit.ResultFailed,
			wantFails:  2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := seedOrder("processing")
			var store order.Store = orders
			if tc.rejectSet {
				store = rejectingOrders{Store: orders}
			}
			notifier := &stubNotifier{}
			if tc.notifyFail {
				notifier.fail = errors.New("smtp unreachable")
			}
			coord := engine.NewCoordinator(store, newRegistry(store, notifier, &stubFulfiller{}))

			lg := coord.Run(context.Background(), multiActionRule(tc.actions...), statusEvent(42))

			if lg.Result != tc.want {
				t.Errorf("result = %s, want %s", lg.Result, tc.want)
			}
			if len(lg.Actions) != len(tc.actions) {
				t.Fatalf("recorded %d action outcomes, want %d (no short-circuit on failure)",
					len(lg.Actions), len(tc.actions))
			}
			fails := 0
			for _, a := range lg.Actions {
				if !a.Success {
					fails++
					if a.Error == "" {
						t.Errorf("failed action %s has empty error", a.Type)
					}
				}
			}
			if fails != tc.wantFails {
				t.Errorf("%d failed outcomes, want %d", fails, tc.wantFails)
			}
		})
	}
}

func TestRunRechecksConditionsUnderLock(t *testing.T) {
	// The snapshot used at match time said "processing", but by run
	// time the order has moved on. The rule must skip, not act.
	orders := seedOrder("completed")
	coord := engine.NewCoordinator(orders, newRegistry(orders, &stubNotifier{}, &stubFulfiller{}))

	lg := coord.Run(context.Background(), statusRule(1, 1, "processing", "archived"), statusEvent(42))

	if lg.Result != audit.ResultSkipped {
		t.Fatalf("result = %s, want skipped", lg.Result)
	}
	if len(lg.Actions) != 0 {
		t.Fatalf("skipped rule recorded %d action outcomes", len(lg.Actions))
	}
	snap, _ := orders.Snapshot(context.Background(), 42)
	if snap.Status != "completed" {
		t.Errorf("order status mutated to %q by a skipped rule", snap.Status)
	}
}

func TestRunMissingOrderFails(t *testing.T) {
	orders := order.NewMemStore()
	coord := engine.NewCoordinator(orders, newRegistry(orders, &stubNotifier{}, &stubFulfiller{}))

	lg := coord.Run(context.Background(), statusRule(1, 1, "processing", "completed"), statusEvent(404))
	if lg.Result != audit.ResultFailed {
		t.Fatalf("result = %s, want failed", lg.Result)
	}
	if lg.ErrorMessage == "" {
		t.Error("failed log should carry a top-level error message")
	}
}

func TestAddTagIdempotent(t *testing.T) {
	orders := seedOrder("processing")
	coord := engine.NewCoordinator(orders, newRegistry(orders, &stubNotifier{}, &stubFulfiller{}))
	r := tagRule(1, 1, event.StatusChanged, "processing", "vip")

	for i := 0; i < 2; i++ {
		lg := coord.Run(context.Background(), r, statusEvent(42))
		if lg.Result != audit.ResultSuccess {
			t.Fatalf("run %d: result = %s, want success", i+1, lg.Result)
		}
	}
	snap, _ := orders.Snapshot(context.Background(), 42)
	count := 0
	for _, tag := range snap.Tags {
		if tag == "vip" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("tag set holds %d copies of vip, want exactly 1", count)
	}
}
