package engine

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gyaneshwarpardhi/orderflow/internal/audit"
	"github.com/gyaneshwarpardhi/orderflow/internal/condition"
	"github.com/gyaneshwarpardhi/orderflow/internal/event"
	"github.com/gyaneshwarpardhi/orderflow/internal/metrics"
	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// Matcher selects the active rules an incoming event should run.
type Matcher struct {
	rules rule.Store
}

// NewMatcher creates a Matcher over the given rule store.
func NewMatcher(rules rule.Store) *Matcher {
	return &Matcher{rules: rules}
}

// Match returns the rules to run, ordered by descending priority with
// ascending ID as the tie break, so audit output is reproducible.
// Rules that fail structural validation are excluded and returned as
// skipped execution logs instead of being dropped silently.
func (m *Matcher) Match(ctx context.Context, ev event.Event, snap order.Snapshot) ([]rule.AutomationRule, []audit.ExecutionLog, error) {
	candidates, err := m.rules.ListActiveForEvent(ctx, ev.Name)
	if err != nil {
		return nil, nil, err
	}

	var (
		matched []rule.AutomationRule
		skipped []audit.ExecutionLog
	)
	for _, r := range candidates {
		if err := r.Validate(); err != nil {
			lg := newLog(r.ID, ev)
			lg.Result = audit.ResultSkipped
			lg.ErrorMessage = err.Error()
			skipped = append(skipped, lg)
			continue
		}
		if !conditionsHold(r, snap, ev.Context) {
			continue
		}
		matched = append(matched, r)
		metrics.RulesMatched.WithLabelValues(formatRuleID(r.ID)).Inc()
	}

	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Priority != matched[j].Priority {
			return matched[i].Priority > matched[j].Priority
		}
		return matched[i].ID < matched[j].ID
	})
	return matched, skipped, nil
}

// conditionsHold ANDs every condition on the rule, including ones
// declared for other events. Evaluation errors count as false, not as
// a crash; AND short-circuits on the first miss.
func conditionsHold(r rule.AutomationRule, snap order.Snapshot, evCtx map[string]any) bool {
	for _, c := range r.Conditions {
		ok, err := condition.Evaluate(c, snap, evCtx)
		if err != nil {
			slog.Debug("condition evaluation error", "rule_id", r.ID, "type", c.Type, "err", err)
			return false
		}
		if !ok {
			return false
		}
	}
	return true
}

func newLog(ruleID int64, ev event.Event) audit.ExecutionLog {
	return audit.ExecutionLog{
		ID:           uuid.New().String(),
		RuleID:       ruleID,
		OrderID:      ev.OrderID,
		TriggerEvent: ev.Name,
		ExecutedAt:   time.Now().UTC(),
	}
}
