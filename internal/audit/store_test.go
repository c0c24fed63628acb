package audit

import (
	"context"
	"testing"
	"time"
)

func openStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func record(t *testing.T, s *SQLiteStore, id string, ruleID, orderID int64, result Result, at time.Time) {
	t.Helper()
	err := s.Record(context.Background(), &ExecutionLog{
		ID:           id,
		RuleID:       ruleID,
		OrderID:      orderID,
		TriggerEvent: "status_changed",
		Result:       result,
		Actions: []ActionOutcome{
			{Type: "update_status", Success: result == ResultSuccess},
		},
		ExecutedAt: at,
	})
	if err != nil {
		t.Fatalf("Record(%s): %v", id, err)
	}
}

func TestRecordAndList(t *testing.T) {
	s := openStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	record(t, s, "a", 1, 42, ResultSuccess, base)
	record(t, s, "b", 1, 42, ResultFailed, base.Add(time.Minute))
	record(t, s, "c", 2, 43, ResultSuccess, base.Add(2*time.Minute))

	t.Run("newest first", func(t *testing.T) {
		logs, err := s.List(context.Background(), Filter{})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(logs) != 3 {
			t.Fatalf("got %d logs, want 3", len(logs))
		}
		if logs[0].ID != "c" || logs[2].ID != "a" {
			t.Errorf("order = [%s %s %s], want [c b a]", logs[0].ID, logs[1].ID, logs[2].ID)
		}
		if len(logs[0].Actions) != 1 || logs[0].Actions[0].Type != "update_status" {
			t.Errorf("action outcomes did not round-trip: %+v", logs[0].Actions)
		}
	})

	t.Run("filter by rule", func(t *testing.T) {
		logs, err := s.List(context.Background(), Filter{RuleID: 1})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(logs) != 2 {
			t.Errorf("got %d logs for rule 1, want 2", len(logs))
		}
	})

	t.Run("filter by order and result", func(t *testing.T) {
		logs, err := s.List(context.Background(), Filter{OrderID: 42, Result: ResultFailed})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(logs) != 1 || logs[0].ID != "b" {
			t.Errorf("logs = %+v, want only b", logs)
		}
	})

	t.Run("limit", func(t *testing.T) {
		logs, err := s.List(context.Background(), Filter{Limit: 1})
		if err != nil {
			t.Fatalf("List: %v", err)
		}
		if len(logs) != 1 {
			t.Errorf("got %d logs, want 1", len(logs))
		}
	})
}

func TestSuccessRate(t *testing.T) {
	s := openStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	record(t, s, "a", 1, 42, ResultSuccess, base)
	record(t, s, "b", 1, 42, ResultSuccess, base.Add(time.Minute))
	record(t, s, "c", 1, 43, ResultPartial, base.Add(2*time.Minute))
	record(t, s, "d", 1, 44, ResultFailed, base.Add(3*time.Minute))
	record(t, s, "e", 1, 45, ResultSkipped, base.Add(4*time.Minute))

	stats, err := s.SuccessRate(context.Background(), 1)
	if err != nil {
		t.Fatalf("SuccessRate: %v", err)
	}
	if stats.Total != 5 || stats.Succeeded != 2 || stats.Partial != 1 || stats.Failed != 1 || stats.Skipped != 1 {
		t.Errorf("stats = %+v", stats)
	}
	// Skipped runs do not count against the rate: 2 of 4 executed.
	if stats.SuccessRate != 0.5 {
		t.Errorf("SuccessRate = %v, want 0.5", stats.SuccessRate)
	}

	empty, err := s.SuccessRate(context.Background(), 99)
	if err != nil {
		t.Fatalf("SuccessRate(99): %v", err)
	}
	if empty.Total != 0 || empty.SuccessRate != 0 {
		t.Errorf("stats for unknown rule = %+v, want zeros", empty)
	}
}
