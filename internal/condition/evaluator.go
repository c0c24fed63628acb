// Package condition evaluates trigger conditions against order
// snapshots. Evaluation is pure: no I/O, no mutation.
package condition

import (
	"fmt"
	"strconv"

	"github.com/gyaneshwarpardhi/orderflow/internal/order"
	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// EvaluationError marks a condition that could not be resolved or
// compared. Callers treat it as condition = false rather than a crash.
type EvaluationError struct {
	Type rule.ConditionType
	Msg  string
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s: %s", e.Type, e.Msg)
}

func evalErr(t rule.ConditionType, format string, args ...any) *EvaluationError {
	return &EvaluationError{Type: t, Msg: fmt.Sprintf(format, args...)}
}

// Evaluate applies one trigger condition to an order snapshot. Event
// context values override snapshot attributes of the same name, which
// lets the emitter feed transition data (e.g. the status an order is
// moving to) through the same comparison path.
func Evaluate(cond rule.TriggerCondition, snap order.Snapshot, eventCtx map[string]any) (bool, error) {
	if cond.Type == rule.CondHasTag {
		return evalTag(cond, snap, eventCtx)
	}

	field, err := resolveField(cond.Type, snap, eventCtx)
	if err != nil {
		return false, err
	}

	switch cond.Operator {
	case rule.OpEq:
		return looseEqual(field, cond.Value), nil
	case rule.OpNeq:
		return !looseEqual(field, cond.Value), nil
	case rule.OpGt, rule.OpLt, rule.OpGte, rule.OpLte:
		lf, ok := toFloat64(field)
		if !ok {
			return false, evalErr(cond.Type, "operator %s requires a numeric field, got %q", cond.Operator, field)
		}
		rf, err := strconv.ParseFloat(cond.Value, 64)
		if err != nil {
			return false, evalErr(cond.Type, "operator %s requires a numeric value, got %q", cond.Operator, cond.Value)
		}
		return numericCompare(cond.Operator, lf, rf), nil
	case rule.OpIn:
		return inSet(field, cond.Value), nil
	case rule.OpContains:
		return containsFold(field, cond.Value), nil
	default:
		return false, evalErr(cond.Type, "unknown operator %q", cond.Operator)
	}
}

// evalTag handles has_tag, whose field is the order's tag set rather
// than a scalar. = and contains test membership; != tests absence;
// in tests membership against any of the listed tags.
func evalTag(cond rule.TriggerCondition, snap order.Snapshot, eventCtx map[string]any) (bool, error) {
	tags := snap.Tags
	if v, ok := eventCtx[string(rule.CondHasTag)]; ok {
		override, ok := toStringSlice(v)
		if !ok {
			return false, evalErr(cond.Type, "context override is not a tag list: %T", v)
		}
		tags = override
	}

	member := func(tag string) bool {
		for _, t := range tags {
			if equalFold(t, tag) {
				return true
			}
		}
		return false
	}

	switch cond.Operator {
	case rule.OpEq, rule.OpContains:
		return member(cond.Value), nil
	case rule.OpNeq:
		return !member(cond.Value), nil
	case rule.OpIn:
		for _, want := range splitCSV(cond.Value) {
			if member(want) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, evalErr(cond.Type, "operator %s is not applicable to tags", cond.Operator)
	}
}

// resolveField maps a condition type to the snapshot attribute it
// inspects, rendered as a string. Unknown types are evaluation errors.
func resolveField(t rule.ConditionType, snap order.Snapshot, eventCtx map[string]any) (string, error) {
	if v, ok := eventCtx[string(t)]; ok {
		return stringify(v), nil
	}
	switch t {
	case rule.CondOrderStatus:
		return snap.Status, nil
	case rule.CondPaymentStatus:
		return snap.PaymentStatus, nil
	case rule.CondTotalAmount:
		return strconv.FormatFloat(snap.TotalAmount, 'f', -1, 64), nil
	case rule.CondCustomerEmail:
		return snap.CustomerEmail, nil
	default:
		return "", evalErr(t, "unknown condition type")
	}
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

func toStringSlice(v any) ([]string, bool) {
	switch x := v.(type) {
	case []string:
		return x, true
	case []any:
		out := make([]string, 0, len(x))
		for _, e := range x {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
