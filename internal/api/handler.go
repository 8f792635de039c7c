package api

import (
	"context"
	"log/slog"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/mq"
	"github.com/shaiso/graphrun/internal/repo"
	"github.com/shaiso/graphrun/internal/telemetry"
	"github.com/shaiso/graphrun/internal/tools"
)

// WorkflowStore — каталог workflow-файлов. Реализуется repo.WorkflowRepo.
type WorkflowStore interface {
	List(ctx context.Context) ([]domain.WorkflowInfo, error)
	Load(ctx context.Context, filename string) (*domain.Workflow, error)
}

// RunService выполняет workflow. Реализуется orchestrator.Runner.
type RunService interface {
	RunWorkflow(ctx context.Context, wf *domain.Workflow, input any) (*domain.ExecutionSummary, error)
	Registry() *tools.Registry
}

// RunRequestPublisher ставит run в очередь. Реализуется mq.Publisher.
type RunRequestPublisher interface {
	PublishRunRequested(ctx context.Context, payload mq.RunRequestedPayload) error
}

// SummaryLister отдаёт историю runs. Реализуется repo.SummaryRepo.
type SummaryLister interface {
	ListRecent(ctx context.Context, filter repo.SummaryFilter) ([]domain.ExecutionSummary, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	workflows WorkflowStore
	runner    RunService
	publisher RunRequestPublisher
	summaries SummaryLister
	logger    *slog.Logger
	metrics   *telemetry.Metrics
}

// Config — конфигурация для создания Handler.
//
// Publisher и Summaries опциональны: без них async-запуск
// и /api/summaries отвечают 503.
type Config struct {
	Workflows WorkflowStore
	Runner    RunService
	Publisher RunRequestPublisher
	Summaries SummaryLister
	Logger    *slog.Logger
	Metrics   *telemetry.Metrics
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		workflows: cfg.Workflows,
		runner:    cfg.Runner,
		publisher: cfg.Publisher,
		summaries: cfg.Summaries,
		logger:    logger,
		metrics:   cfg.Metrics,
	}
}
