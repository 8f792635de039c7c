package telemetry

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы выполнения узла.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics — Prometheus метрики выполнения workflow.
//
// Все методы безопасны для nil receiver: компоненты без метрик
// (тесты, CLI) просто передают nil.
type Metrics struct {
	runsTotal       *prometheus.CounterVec
	runDuration     prometheus.Histogram
	nodesTotal      *prometheus.CounterVec
	nodeDuration    *prometheus.HistogramVec
	edgesTaken      prometheus.Counter
	sinkFailures    *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	runsInProgress  prometheus.Gauge
	queueDeliveries *prometheus.CounterVec
}

// NewMetrics регистрирует метрики в reg.
// Для глобального реестра передайте prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		runsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphrun_runs_total",
			Help: "Workflow runs by final status",
		}, []string{"status"}),

		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "graphrun_run_duration_seconds",
			Help:    "Workflow run duration",
			Buckets: prometheus.DefBuckets,
		}),

		nodesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphrun_node_executions_total",
			Help: "Node executions by tool type and outcome",
		}, []string{"type", "outcome"}),

		nodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphrun_node_duration_seconds",
			Help:    "Node execution duration by tool type",
			Buckets: prometheus.DefBuckets,
		}, []string{"type"}),

		edgesTaken: f.NewCounter(prometheus.CounterOpts{
			Name: "graphrun_edges_taken_total",
			Help: "Edges traversed",
		}),

		sinkFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphrun_summary_sink_failures_total",
			Help: "Failed summary writes by sink",
		}, []string{"sink"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphrun_api_http_requests_total",
			Help: "HTTP requests handled by graphrun-api",
		}, []string{"method", "status"}),

		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graphrun_api_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),

		runsInProgress: f.NewGauge(prometheus.GaugeOpts{
			Name: "graphrun_runs_in_progress",
			Help: "Workflow runs currently executing",
		}),

		queueDeliveries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "graphrun_queue_deliveries_total",
			Help: "Queue deliveries handled by the worker by result",
		}, []string{"result"}),
	}
}

// RunStarted увеличивает счётчик выполняющихся run.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.runsInProgress.Inc()
}

// RunFinished фиксирует завершение run.
func (m *Metrics) RunFinished(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.runsInProgress.Dec()
	m.runsTotal.WithLabelValues(status).Inc()
	m.runDuration.Observe(d.Seconds())
}

// NodeExecuted фиксирует выполнение узла.
func (m *Metrics) NodeExecuted(toolType, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.nodesTotal.WithLabelValues(toolType, outcome).Inc()
	m.nodeDuration.WithLabelValues(toolType).Observe(d.Seconds())
}

// EdgeTaken фиксирует проход по ребру.
func (m *Metrics) EdgeTaken() {
	if m == nil {
		return
	}
	m.edgesTaken.Inc()
}

// SinkFailed фиксирует ошибку записи summary.
func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

// HTTPRequest фиксирует обработанный HTTP запрос.
func (m *Metrics) HTTPRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

// QueueDelivery фиксирует обработку сообщения из очереди (ack, nack, requeue).
func (m *Metrics) QueueDelivery(result string) {
	if m == nil {
		return
	}
	m.queueDeliveries.WithLabelValues(result).Inc()
}
