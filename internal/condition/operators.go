package condition

import (
	"strconv"
	"strings"

	"github.com/gyaneshwarpardhi/orderflow/internal/rule"
)

// toFloat64 parses a field's string form as a number.
func toFloat64(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f, err == nil
}

// looseEqual compares numerically when both sides parse as numbers,
// otherwise case-insensitively as strings. "10.0" therefore equals
// "10" but "ready" never equals "READY2".
func looseEqual(left, right string) bool {
	lf, lok := toFloat64(left)
	rf, rok := toFloat64(right)
	if lok && rok {
		return lf == rf
	}
	return equalFold(left, right)
}

func numericCompare(op rule.Operator, lf, rf float64) bool {
	switch op {
	case rule.OpGt:
		return lf > rf
	case rule.OpGte:
		return lf >= rf
	case rule.OpLt:
		return lf < rf
	case rule.OpLte:
		return lf <= rf
	}
	return false
}

// inSet splits value on commas, trims each entry, and tests membership.
func inSet(field, value string) bool {
	for _, candidate := range splitCSV(value) {
		if looseEqual(field, candidate) {
			return true
		}
	}
	return false
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func equalFold(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
