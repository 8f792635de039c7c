package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrInvalidWorkflow — workflow не прошёл валидацию, ничего не выполнялось.
	ErrInvalidWorkflow = errors.New("invalid workflow")

	// ErrRunInProgress — Execute уже выполняется на этом Orchestrator.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrNoSource — Runner создан без источника workflow.
	ErrNoSource = errors.New("workflow source is not configured")
)

// errorKey — ключ, под которым сохраняется ошибка узла.
const errorKey = "error"

// errorOutput — результат узла, завершившегося ошибкой.
func errorOutput(msg string) map[string]any {
	return map[string]any{errorKey: msg}
}

// IsErrorOutput проверяет, похож ли результат узла на ошибку ({"error": "..."}).
//
// Инструмент может вернуть такой объект и сам, поэтому это эвристика:
// она используется только для логов и метрик, на обход не влияет.
func IsErrorOutput(v any) (string, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return "", false
	}
	msg, ok := m[errorKey].(string)
	return msg, ok
}
