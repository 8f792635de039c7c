package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Metrics(h.metrics),
		Logging(h.logger),
	)

	// Workflows
	mux.Handle("GET /api/workflows", chain(http.HandlerFunc(h.ListWorkflows)))
	mux.Handle("GET /api/workflows/{filename}", chain(http.HandlerFunc(h.GetWorkflow)))
	mux.Handle("GET /api/chart/{filename}", chain(http.HandlerFunc(h.GetChart)))

	// Runs
	mux.Handle("POST /api/run/{filename}", chain(http.HandlerFunc(h.RunWorkflow)))
	mux.Handle("GET /api/summaries", chain(http.HandlerFunc(h.ListSummaries)))

	// Tools
	mux.Handle("GET /api/tools", chain(http.HandlerFunc(h.ListTools)))

	// Service
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.Handler())
}
