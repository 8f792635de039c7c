package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/engine"
	"github.com/shaiso/graphrun/internal/telemetry"
	"github.com/shaiso/graphrun/internal/tools"
)

// Orchestrator выполняет один workflow.
//
// Один Orchestrator обслуживает один Workflow. Execute можно вызывать
// повторно (последовательно), каждый вызов создаёт новый run со своим
// состоянием. Параллельный вызов Execute на том же Orchestrator
// отклоняется с ErrRunInProgress.
type Orchestrator struct {
	workflow *domain.Workflow
	executor *NodeExecutor
	sinks    []SummarySink

	logger  *slog.Logger
	metrics *telemetry.Metrics
	clock   func() time.Time

	running atomic.Bool

	status   domain.RunStatus
	statusMu sync.RWMutex
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Workflow — workflow для выполнения (обязателен).
	Workflow *domain.Workflow

	// Registry — реестр инструментов (default: tools.DefaultRegistry()).
	Registry *tools.Registry

	// Sinks — хранилища summary. Ошибка записи логируется и не влияет на результат.
	// nil — FileSink в каталоге "summaries", пустой срез — без сохранения.
	Sinks []SummarySink

	// ToolTimeout — таймаут одного узла (default: 0, без таймаута).
	ToolTimeout time.Duration

	// Clock — источник времени для timestamps (default: time.Now).
	Clock func() time.Time

	Logger  *slog.Logger
	Metrics *telemetry.Metrics
}

// New создаёт Orchestrator. Валидация workflow выполняется в Execute.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	sinks := cfg.Sinks
	if sinks == nil {
		sinks = []SummarySink{NewFileSink("")}
	}

	return &Orchestrator{
		workflow: cfg.Workflow,
		executor: NewNodeExecutor(cfg.Registry, cfg.ToolTimeout, logger, cfg.Metrics),
		sinks:    sinks,
		logger:   logger,
		metrics:  cfg.Metrics,
		clock:    clock,
		status:   domain.RunStatusIdle,
	}
}

// Status возвращает состояние последнего run.
func (o *Orchestrator) Status() domain.RunStatus {
	o.statusMu.RLock()
	defer o.statusMu.RUnlock()
	return o.status
}

func (o *Orchestrator) setStatus(s domain.RunStatus) {
	o.statusMu.Lock()
	o.status = s
	o.statusMu.Unlock()
}

// Execute выполняет workflow с входными данными triggerData.
//
// Алгоритм:
//  1. Валидация workflow (ошибка → ErrInvalidWorkflow, ничего не выполняется)
//  2. Стартовые узлы: все trigger-узлы, либо nodes[0]
//  3. Каждый стартовый узел получает triggerData, затем обход в глубину
//  4. Summary строится и отдаётся во все sinks
//
// При отмене ctx обход останавливается перед следующим узлом;
// возвращается частичный результат (summary со статусом CANCELLED) и ctx.Err().
func (o *Orchestrator) Execute(ctx context.Context, triggerData any) (*domain.Result, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer o.running.Store(false)

	o.setStatus(domain.RunStatusValidating)

	graph, err := o.prepare()
	if err != nil {
		o.setStatus(domain.RunStatusAborted)
		o.logger.Error("workflow validation failed", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkflow, err)
	}

	state := NewRunState(runIDFrom(ctx), o.clock())

	logger := telemetry.WithWorkflowID(telemetry.WithRunID(o.logger, state.RunID.String()), o.workflow.ID)
	ctx = telemetry.WithLogger(ctx, logger)

	ctx, span := telemetry.StartSpan(ctx, "workflow.run",
		attribute.String("workflow.id", o.workflow.ID),
		attribute.String("run.id", state.RunID.String()),
	)

	o.setStatus(domain.RunStatusRunning)
	o.metrics.RunStarted()
	logger.Info("run started", "nodes", graph.Size(), "edges", len(o.workflow.Edges))

	resolver := engine.NewResolver(state.Outputs)
	w := &walker{
		graph:     graph,
		state:     state,
		executor:  o.executor,
		resolver:  resolver,
		evaluator: engine.NewEvaluator(resolver, logger),
		logger:    logger,
		metrics:   o.metrics,
		clock:     o.clock,
	}

	walkErr := w.run(ctx, triggerData)
	telemetry.EndSpan(span, walkErr)

	status := domain.RunStatusCompleted
	if walkErr != nil {
		status = domain.RunStatusCancelled
	}

	summary := BuildSummary(o.workflow, state, o.clock(), status)
	o.persist(context.WithoutCancel(ctx), logger, summary)

	o.metrics.RunFinished(status.String(), summary.Duration())
	o.setStatus(status)

	logger.Info("run finished",
		"status", status,
		"nodes_executed", len(state.ExecutionPath),
		"edges_taken", len(state.EdgesTaken),
		"duration_ms", summary.DurationMs,
	)

	result := state.Result()
	result.Summary = summary
	return result, walkErr
}

type runIDKey struct{}

// WithRunID задаёт ID run через контекст: запуск из очереди сохраняет ID,
// выданный при постановке в очередь.
func WithRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFromContext возвращает ID, заданный через WithRunID.
func RunIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(runIDKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func runIDFrom(ctx context.Context) uuid.UUID {
	if id, ok := RunIDFromContext(ctx); ok {
		return id
	}
	return uuid.New()
}

// prepare валидирует workflow и строит граф.
func (o *Orchestrator) prepare() (*engine.Graph, error) {
	if err := engine.Validate(o.workflow); err != nil {
		return nil, err
	}

	graph, err := engine.BuildGraph(o.workflow)
	if err != nil {
		return nil, err
	}

	for _, cycle := range graph.UnboundedCycles() {
		o.logger.Warn("cycle without maxIterations, relies on edge conditions to terminate",
			"workflow_id", o.workflow.ID,
			"nodes", cycle,
		)
	}
	return graph, nil
}

// persist отдаёт summary во все sinks. Ошибки логируются.
func (o *Orchestrator) persist(ctx context.Context, logger *slog.Logger, summary *domain.ExecutionSummary) {
	for _, sink := range o.sinks {
		if err := sink.Save(ctx, summary); err != nil {
			logger.Error("failed to save summary", "sink", sink.Name(), "error", err)
			o.metrics.SinkFailed(sink.Name())
		}
	}
}

// frame — узел на стеке обхода: его результат и следующее непроверенное ребро.
type frame struct {
	nodeID string
	output any
	edges  []domain.Edge
	next   int
}

// walker — обход графа одного run.
type walker struct {
	graph     *engine.Graph
	state     *RunState
	executor  *NodeExecutor
	resolver  *engine.Resolver
	evaluator *engine.Evaluator
	logger    *slog.Logger
	metrics   *telemetry.Metrics
	clock     func() time.Time
}

func (w *walker) run(ctx context.Context, triggerData any) error {
	for _, start := range w.graph.StartNodes() {
		if err := ctx.Err(); err != nil {
			return err
		}

		output := w.executeNode(ctx, start, triggerData)
		if err := w.follow(ctx, start.ID, output); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) executeNode(ctx context.Context, node *domain.Node, input any) any {
	output := w.executor.Run(ctx, node, input, w.state.Outputs)
	w.state.RecordNode(node, output, w.clock())
	return output
}

// follow обходит граф в глубину от узла nodeID.
//
// Рёбра узла проверяются в порядке объявления; после прохода по ребру
// целевой узел выполняется и его рёбра обходятся полностью, прежде чем
// проверяется следующее ребро текущего узла. Стек явный, поэтому глубина
// циклов не ограничена стеком горутины.
func (w *walker) follow(ctx context.Context, nodeID string, output any) error {
	stack := []*frame{w.newFrame(nodeID, output)}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next >= len(top.edges) {
			stack = stack[:len(stack)-1]
			continue
		}

		edge := &top.edges[top.next]
		top.next++

		if !w.canTake(edge, top.output) {
			continue
		}

		target, ok := w.graph.Node(edge.EndNodeID)
		if !ok {
			w.logger.Warn("edge target not found", "edge_id", edge.ID, "end_node_id", edge.EndNodeID)
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		iteration := w.state.TakeEdge(edge, w.clock())
		w.metrics.EdgeTaken()
		w.logger.Debug("edge taken",
			"edge_id", edge.ID,
			"from", edge.StartNodeID,
			"to", edge.EndNodeID,
			"iteration", iteration,
		)

		out := w.executeNode(ctx, target, top.output)
		stack = append(stack, w.newFrame(target.ID, out))
	}
	return nil
}

func (w *walker) newFrame(nodeID string, output any) *frame {
	return &frame{
		nodeID: nodeID,
		output: output,
		edges:  w.graph.Outgoing(nodeID),
	}
}

// canTake проверяет лимит итераций и условие ребра.
func (w *walker) canTake(edge *domain.Edge, output any) bool {
	if limit, ok := w.maxIterations(edge); ok && int64(w.state.Iterations(edge.ID)) >= limit {
		w.logger.Debug("edge iteration limit reached",
			"edge_id", edge.ID,
			"max_iterations", limit,
		)
		return false
	}
	return w.evaluator.Evaluate(edge, output)
}

// maxIterations вычисляет лимит ребра.
// Пустое, нечисловое или нулевое значение означает отсутствие лимита.
// Отрицательный лимит запрещает проход по ребру.
func (w *walker) maxIterations(edge *domain.Edge) (int64, bool) {
	if edge.MaxIterations == "" {
		return 0, false
	}
	n, ok := engine.ParseInt(w.resolver.Resolve(edge.MaxIterations))
	if !ok || n == 0 {
		return 0, false
	}
	return n, true
}
