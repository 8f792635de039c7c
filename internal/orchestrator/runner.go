package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/telemetry"
	"github.com/shaiso/graphrun/internal/tools"
)

// WorkflowSource загружает workflow по имени файла.
type WorkflowSource interface {
	Load(ctx context.Context, filename string) (*domain.Workflow, error)
}

// Runner запускает workflow-файлы.
//
// Для каждого запуска создаётся новый Orchestrator, поэтому Runner
// можно использовать из нескольких горутин одновременно
// (HTTP handlers, consumer очереди, планировщик).
type Runner struct {
	source      WorkflowSource
	registry    *tools.Registry
	sinks       []SummarySink
	toolTimeout time.Duration
	logger      *slog.Logger
	metrics     *telemetry.Metrics
}

// RunnerConfig — конфигурация Runner.
type RunnerConfig struct {
	Source      WorkflowSource
	Registry    *tools.Registry
	Sinks       []SummarySink // nil — FileSink по умолчанию, см. Config.Sinks
	ToolTimeout time.Duration
	Logger      *slog.Logger
	Metrics     *telemetry.Metrics
}

// NewRunner создаёт Runner.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	registry := cfg.Registry
	if registry == nil {
		registry = tools.DefaultRegistry()
	}

	return &Runner{
		source:      cfg.Source,
		registry:    registry,
		sinks:       cfg.Sinks,
		toolTimeout: cfg.ToolTimeout,
		logger:      logger,
		metrics:     cfg.Metrics,
	}
}

// AddSink добавляет хранилище summary. Вызывать до первого Run.
func (r *Runner) AddSink(sink SummarySink) {
	r.sinks = append(r.sinks, sink)
}

// Registry возвращает реестр инструментов.
func (r *Runner) Registry() *tools.Registry {
	return r.registry
}

// Run загружает workflow-файл и выполняет его.
//
// При отмене ctx возвращает частичный summary вместе с ошибкой.
func (r *Runner) Run(ctx context.Context, filename string, input any) (*domain.ExecutionSummary, error) {
	if r.source == nil {
		return nil, ErrNoSource
	}

	wf, err := r.source.Load(ctx, filename)
	if err != nil {
		return nil, err
	}

	r.logger.Info("running workflow file", "filename", filename, "workflow_id", wf.ID)
	return r.RunWorkflow(ctx, wf, input)
}

// RunWorkflow выполняет уже загруженный workflow.
func (r *Runner) RunWorkflow(ctx context.Context, wf *domain.Workflow, input any) (*domain.ExecutionSummary, error) {
	orch := New(Config{
		Workflow:    wf,
		Registry:    r.registry,
		Sinks:       r.sinks,
		ToolTimeout: r.toolTimeout,
		Logger:      r.logger,
		Metrics:     r.metrics,
	})

	result, err := orch.Execute(ctx, input)
	if result == nil {
		return nil, err
	}
	return result.Summary, err
}
