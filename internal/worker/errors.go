package worker

import "errors"

// Ошибки воркера.
var (
	// ErrMissingWorkflow — в запросе не указан workflow-файл.
	ErrMissingWorkflow = errors.New("run request has no workflow")

	// ErrWorkerStopped — воркер остановлен во время выполнения run.
	ErrWorkerStopped = errors.New("worker stopped")
)
