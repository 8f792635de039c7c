package api

import (
	"github.com/google/uuid"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/engine"
)

// Run DTOs

// RunRequest — тело POST /api/run/{filename}.
type RunRequest struct {
	InputData any `json:"inputData"`
}

// RunQueuedResponse — ответ на асинхронный запуск.
type RunQueuedResponse struct {
	RunID    uuid.UUID `json:"runId"`
	Workflow string    `json:"workflow"`
	Status   string    `json:"status"`
}

// RunFromSummary возвращает копию summary, в outputs которой
// удалены все ключи "context".
func RunFromSummary(s *domain.ExecutionSummary) domain.ExecutionSummary {
	out := *s
	if s.Outputs == nil {
		return out
	}

	stripped := domain.NewOutputs()
	for _, id := range s.Outputs.Keys() {
		v, _ := s.Outputs.Get(id)
		stripped.Set(id, engine.StripContext(v))
	}
	out.Outputs = stripped
	return out
}

// Chart DTOs

// ChartResponse — Mermaid-диаграмма workflow.
type ChartResponse struct {
	Chart string `json:"chart"`
}

// Tool DTOs

// ToolResponse — зарегистрированный инструмент.
type ToolResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
