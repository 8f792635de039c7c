package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/shaiso/graphrun/internal/mq"
	"github.com/shaiso/graphrun/internal/repo"
)

const sourceAPI = "api"

// RunWorkflow выполняет workflow-файл.
// POST /api/run/{filename}?async=true
//
// Синхронный запуск возвращает summary без ключей "context".
// С async=true run ставится в очередь runs.requested и сразу возвращается 202.
func (h *Handler) RunWorkflow(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, "invalid request body")
		return
	}

	// Проверяем, что файл существует и валиден до постановки в очередь
	wf, err := h.workflows.Load(r.Context(), r.PathValue("filename"))
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		h.enqueueRun(w, r, req)
		return
	}

	summary, err := h.runner.RunWorkflow(r.Context(), wf, req.InputData)
	if HandleRepoError(w, h.logger, err, "workflow not found") {
		return
	}

	Success(w, RunFromSummary(summary))
}

func (h *Handler) enqueueRun(w http.ResponseWriter, r *http.Request, req RunRequest) {
	if h.publisher == nil {
		Unavailable(w, "async runs require a message broker")
		return
	}

	filename, _ := repo.NormalizeFilename(r.PathValue("filename"))
	runID := uuid.New()

	inputs, ok := req.InputData.(map[string]any)
	if !ok && req.InputData != nil {
		inputs = map[string]any{"input": req.InputData}
	}

	payload := mq.RunRequestedPayload{
		RunID:    runID,
		Workflow: filename,
		Inputs:   inputs,
		Source:   sourceAPI,
	}
	if err := h.publisher.PublishRunRequested(r.Context(), payload); err != nil {
		InternalError(w, h.logger, err)
		return
	}

	h.logger.Info("run queued", "run_id", runID, "workflow", filename)
	Accepted(w, RunQueuedResponse{RunID: runID, Workflow: filename, Status: "QUEUED"})
}

// ListSummaries возвращает последние summaries.
// GET /api/summaries?workflow_id=...&limit=...
func (h *Handler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	if h.summaries == nil {
		Unavailable(w, "summary history requires a database")
		return
	}

	filter := repo.SummaryFilter{
		WorkflowID: r.URL.Query().Get("workflow_id"),
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			BadRequest(w, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	summaries, err := h.summaries.ListRecent(r.Context(), filter)
	if HandleRepoError(w, h.logger, err, "") {
		return
	}

	List(w, summaries, len(summaries))
}
