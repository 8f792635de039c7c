package engine

import (
	"log/slog"
	"strings"

	"github.com/shaiso/graphrun/internal/domain"
)

// Операторы условий рёбер.
const (
	OpEquals             = "equals"
	OpNotEquals          = "not_equals"
	OpGreaterThan        = "greater_than"
	OpLessThan           = "less_than"
	OpGreaterThanOrEqual = "greater_than_or_equal"
	OpLessThanOrEqual    = "less_than_or_equal"
	OpContains           = "contains"
	OpNotContains        = "not_contains"
	OpBetween            = "between"
	OpIsEmpty            = "is_empty"
	OpIsNotEmpty         = "is_not_empty"
)

// Operators возвращает список поддерживаемых операторов.
func Operators() []string {
	return []string{
		OpEquals, OpNotEquals, OpGreaterThan, OpLessThan,
		OpGreaterThanOrEqual, OpLessThanOrEqual,
		OpContains, OpNotContains, OpBetween, OpIsEmpty, OpIsNotEmpty,
	}
}

// IsKnownOperator проверяет, поддерживается ли оператор.
func IsKnownOperator(op string) bool {
	for _, known := range Operators() {
		if op == known {
			return true
		}
	}
	return false
}

// Evaluator вычисляет условия рёбер.
//
// Фактический операнд — значение шаблона edge.If, ожидаемый — edge.Value
// как есть; ребро без value сравнивается через CompareMissing.
// Неизвестный оператор даёт false и предупреждение в лог,
// но не прерывает выполнение.
type Evaluator struct {
	resolver *Resolver
	logger   *slog.Logger
}

// NewEvaluator создаёт Evaluator.
func NewEvaluator(resolver *Resolver, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{resolver: resolver, logger: logger}
}

// Evaluate возвращает true, если ребро можно пройти.
//
// Результат узла-источника читается через шаблон {{sourceId.field}},
// поэтому второй аргумент сейчас не используется.
func (e *Evaluator) Evaluate(edge *domain.Edge, _ any) bool {
	if !edge.HasCondition() {
		return true
	}

	actual := e.resolver.Resolve(edge.If)

	var result, known bool
	if expected, ok := edge.ExpectedValue(); ok {
		result, known = Compare(edge.Condition, actual, expected)
	} else {
		result, known = CompareMissing(edge.Condition, actual)
	}
	if !known {
		e.logger.Warn("unknown condition operator",
			slog.String("edge_id", edge.ID),
			slog.String("condition", edge.Condition),
		)
	}
	return result
}

// Compare применяет оператор к операндам.
// Второе значение false, если оператор неизвестен.
func Compare(op string, actual any, expected string) (result, known bool) {
	switch op {
	case OpEquals:
		return LooseEquals(actual, expected), true

	case OpNotEquals:
		return !LooseEquals(actual, expected), true

	case OpGreaterThan:
		return ToNumber(actual) > ToNumber(expected), true

	case OpLessThan:
		return ToNumber(actual) < ToNumber(expected), true

	case OpGreaterThanOrEqual:
		// NaN с любой стороны даёт false.
		return ToNumber(actual) >= ToNumber(expected), true

	case OpLessThanOrEqual:
		return ToNumber(actual) <= ToNumber(expected), true

	case OpContains:
		return strings.Contains(ToString(actual), expected), true

	case OpNotContains:
		return !strings.Contains(ToString(actual), expected), true

	case OpBetween:
		parts := strings.Split(expected, ",")
		if len(parts) < 2 {
			// Нет верхней границы: сравнение с NaN всегда ложно.
			return false, true
		}
		n := ToNumber(actual)
		return n >= ToNumber(parts[0]) && n <= ToNumber(parts[1]), true

	case OpIsEmpty:
		return isEmptyValue(actual), true

	case OpIsNotEmpty:
		return !isEmptyValue(actual), true

	default:
		return false, false
	}
}

// CompareMissing применяет оператор, когда ожидаемый операнд не задан.
// Отсутствующее значение равно только nil, не является подстрокой
// и не приводится к числу.
func CompareMissing(op string, actual any) (result, known bool) {
	switch op {
	case OpEquals:
		return actual == nil, true

	case OpNotEquals:
		return actual != nil, true

	case OpContains:
		return false, true

	case OpNotContains:
		return true, true

	case OpGreaterThan, OpLessThan, OpGreaterThanOrEqual, OpLessThanOrEqual, OpBetween:
		return false, true

	case OpIsEmpty:
		return isEmptyValue(actual), true

	case OpIsNotEmpty:
		return !isEmptyValue(actual), true

	default:
		return false, false
	}
}

// isEmptyValue: nil, пустая строка, пустой объект или массив.
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	default:
		return false
	}
}
