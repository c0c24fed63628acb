package action_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gyaneshwarpardhi/orderflow/internal/action"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

type countingNotifier struct {
	sends int
	fail  error
	block bool
}

func (n *countingNotifier) Send(ctx context.Context, kind, recipient, message string) error {
	if n.block {
		<-ctx.Done()
		return ctx.Err()
	}
	if n.fail != nil {
		return n.fail
	}
	n.sends++
	return nil
}

func testRegistry(orders order.Store, notifier action.Notifier) *action.Registry {
	reg := action.NewRegistry()
	reg.Register(&action.UpdateStatus{Orders: orders})
	reg.Register(&action.AddTag{Orders: orders})
	reg.Register(&action.SendNotification{Backend: notifier, Timeout: 50 * time.Millisecond})
	return reg
}

func TestExecuteUpdateStatus(t *testing.T) {
	orders := order.NewMemStore()
	orders.Put(order.Snapshot{ID: 1, Status: "processing"})
	reg := testRegistry(orders, &countingNotifier{})

	out := reg.Execute(context.Background(),
		rule.Action{Type: rule.ActionUpdateStatus, Params: map[string]string{"status": "completed"}}, 1, false)
	if !out.Success || out.Simulated {
		t.Fatalf("outcome = %+v, want plain success", out)
	}
	snap, _ := orders.Snapshot(context.Background(), 1)
	if snap.Status != "completed" {
		t.Errorf("status = %q, want completed", snap.Status)
	}
}

func TestExecuteValidationFailureSkipsBackend(t *testing.T) {
	notifier := &countingNotifier{}
	reg := testRegistry(order.NewMemStore(), notifier)

	out := reg.Execute(context.Background(),
		rule.Action{Type: rule.ActionSendNotification, Params: map[string]string{"type": "email"}}, 1, false)
	if out.Success {
		t.Fatal("outcome succeeded despite missing recipient_type")
	}
	if !strings.Contains(out.Error, "recipient_type") {
		t.Errorf("error %q does not name the missing param", out.Error)
	}
	if notifier.sends != 0 {
		t.Errorf("backend was called %d times for invalid params", notifier.sends)
	}
}

func TestExecuteDryRun(t *testing.T) {
	orders := order.NewMemStore()
	orders.Put(order.Snapshot{ID: 1, Status: "processing"})
	notifier := &countingNotifier{}
	reg := testRegistry(orders, notifier)

	out := reg.Execute(context.Background(),
		rule.Action{Type: rule.ActionSendNotification, Params: map[string]string{
			"type": "email", "recipient_type": "customer",
		}}, 1, true)
	if !out.Success || !out.Simulated {
		t.Fatalf("outcome = %+v, want simulated success", out)
	}
	if notifier.sends != 0 {
		t.Error("dry run reached the backend")
	}

	// Dry run still validates.
	out = reg.Execute(context.Background(),
		rule.Action{Type: rule.ActionUpdateStatus, Params: nil}, 1, true)
	if out.Success {
		t.Error("dry run passed invalid params")
	}
}

func TestExecuteBackendFailure(t *testing.T) {
	reg := testRegistry(order.NewMemStore(), &countingNotifier{fail: errors.New("smtp unreachable")})

	out := reg.Execute(context.Background(),
		rule.Action{Type: rule.ActionSendNotification, Params: map[string]string{
			"type": "email", "recipient_type": "customer",
		}}, 1, false)
	if out.Success {
		t.Fatal("outcome succeeded despite backend failure")
	}
	if !strings.Contains(out.Error, "smtp unreachable") {
		t.Errorf("error %q lost the backend cause", out.Error)
	}
}

func TestExecuteNotificationTimeout(t *testing.T) {
	reg := testRegistry(order.NewMemStore(), &countingNotifier{block: true})

	start := time.Now()
	out := reg.Execute(context.Background(),
		rule.Action{Type: rule.ActionSendNotification, Params: map[string]string{
			"type": "email", "recipient_type": "customer",
		}}, 1, false)
	if out.Success {
		t.Fatal("outcome succeeded despite a hung backend")
	}
	if !strings.Contains(out.Error, "timed out") {
		t.Errorf("error %q does not mention the timeout", out.Error)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout took %v, bound is 50ms", elapsed)
	}
}

func TestExecuteUnknownType(t *testing.T) {
	reg := testRegistry(order.NewMemStore(), &countingNotifier{})
	out := reg.Execute(context.Background(), rule.Action{Type: "launch_rocket"}, 1, false)
	if out.Success || out.Error == "" {
		t.Errorf("outcome = %+v, want failure with error", out)
	}
}
