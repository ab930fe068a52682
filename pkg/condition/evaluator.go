// Package condition evaluates field/operator/value predicates against contact snapshots.
package condition

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
)

const (
	OperatorEquals      = "=="
	OperatorNotEquals   = "!="
	OperatorGreaterThan = ">"
	OperatorLessThan    = "<"
	OperatorContains    = "contains"
)

// Predicate is the boolean test carried by a condition action's config.
type Predicate struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// ParsePredicate extracts a predicate from an action config map.
func ParsePredicate(config map[string]any) Predicate {
	field, _ := config["field"].(string)
	operator, _ := config["operator"].(string)

	return Predicate{
		Field:    field,
		Operator: operator,
		Value:    config["value"],
	}
}

// Evaluator applies predicates to contact snapshots. Unknown operators and
// missing fields evaluate to false rather than failing the execution.
type Evaluator struct {
	logger *slog.Logger
}

func NewEvaluator(logger *slog.Logger) *Evaluator {
	return &Evaluator{
		logger: logger.With("module", "condition_evaluator"),
	}
}

// Evaluate returns the predicate's truth value against the snapshot,
// fail-closed on anything it cannot interpret.
func (e *Evaluator) Evaluate(predicate Predicate, snapshot map[string]any) bool {
	actual, exists := snapshot[predicate.Field]
	if !exists {
		e.logger.Warn("Condition references unknown field, evaluating to false",
			"field", predicate.Field)

		return false
	}

	switch predicate.Operator {
	case OperatorEquals:
		return equals(actual, predicate.Value)
	case OperatorNotEquals:
		return !equals(actual, predicate.Value)
	case OperatorGreaterThan:
		result, ok := compareNumeric(actual, predicate.Value)

		return ok && result > 0
	case OperatorLessThan:
		result, ok := compareNumeric(actual, predicate.Value)

		return ok && result < 0
	case OperatorContains:
		return strings.Contains(stringify(actual), stringify(predicate.Value))
	default:
		e.logger.Warn("Unknown condition operator, evaluating to false",
			"operator", predicate.Operator)

		return false
	}
}

func equals(a, b any) bool {
	if aNum, aOK := toFloat(a); aOK {
		if bNum, bOK := toFloat(b); bOK {
			return aNum == bNum
		}
	}

	return stringify(a) == stringify(b)
}

// compareNumeric returns the sign of a-b when both values are numeric.
func compareNumeric(a, b any) (int, bool) {
	aNum, aOK := toFloat(a)
	bNum, bOK := toFloat(b)

	if !aOK || !bOK {
		return 0, false
	}

	switch {
	case aNum > bNum:
		return 1, true
	case aNum < bNum:
		return -1, true
	default:
		return 0, true
	}
}

func toFloat(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case string:
		parsed, err := strconv.ParseFloat(value, 64)

		return parsed, err == nil
	default:
		return 0, false
	}
}

func stringify(v any) string {
	if v == nil {
		return ""
	}

	return fmt.Sprintf("%v", v)
}
