package api

import (
	"net/http"

	"github.com/shaiso/graphrun/internal/engine"
)

// ListWorkflows возвращает список workflow-файлов.
// GET /api/workflows
func (h *Handler) ListWorkflows(w http.ResponseWriter, r *http.Request) {
	workflows, err := h.workflows.List(r.Context())
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, workflows, len(workflows))
}

// GetWorkflow возвращает документ workflow.
// GET /api/workflows/{filename}
func (h *Handler) GetWorkflow(w http.ResponseWriter, r *http.Request) {
	wf, err := h.workflows.Load(r.Context(), r.PathValue("filename"))
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, wf)
}

// GetChart возвращает Mermaid-диаграмму workflow.
// GET /api/chart/{filename}
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	wf, err := h.workflows.Load(r.Context(), r.PathValue("filename"))
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, ChartResponse{Chart: engine.Chart(wf)})
}

// ListTools возвращает зарегистрированные инструменты.
// GET /api/tools
func (h *Handler) ListTools(w http.ResponseWriter, r *http.Request) {
	infos := h.runner.Registry().Describe()

	result := make([]ToolResponse, len(infos))
	for i, info := range infos {
		result[i] = ToolResponse{ID: info.ID, Name: info.Name}
	}

	List(w, result, len(result))
}
