package domain

// RunStatus — состояние выполнения workflow.
//
// Жизненный цикл:
//
//	IDLE → VALIDATING → RUNNING → COMPLETED
//	                  ↘ ABORTED (workflow не прошёл валидацию)
//	                             ↘ CANCELLED (контекст отменён во время обхода)
//
// Ошибки отдельных узлов не переводят run в отдельное состояние:
// они сохраняются как данные ({"error": "..."}) и обход продолжается.
type RunStatus string

const (
	// RunStatusIdle — orchestrator создан, run не начат.
	RunStatusIdle RunStatus = "IDLE"

	// RunStatusValidating — проверка workflow.
	RunStatusValidating RunStatus = "VALIDATING"

	// RunStatusRunning — обход графа.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCompleted — обход завершён, summary построен.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusAborted — workflow невалиден, ничего не выполнялось.
	RunStatusAborted RunStatus = "ABORTED"

	// RunStatusCancelled — обход прерван отменой контекста.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusAborted, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление RunStatus.
func (s RunStatus) String() string {
	return string(s)
}
