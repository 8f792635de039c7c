package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/engine"
	"github.com/shaiso/graphrun/internal/telemetry"
	"github.com/shaiso/graphrun/internal/tools"
)

// NodeExecutor выполняет один узел.
//
// Шаги:
//  1. Подстановка шаблонов в parameters (верхний уровень)
//  2. Сборка input: данные предыдущего узла + "context" со снимком outputs
//  3. Поиск инструмента в реестре и вызов с таймаутом
//
// Любая ошибка (нет инструмента, ошибка или panic инструмента, таймаут)
// возвращается как {"error": "..."}; Run никогда не возвращает error.
type NodeExecutor struct {
	registry *tools.Registry
	timeout  time.Duration
	logger   *slog.Logger
	metrics  *telemetry.Metrics
}

// NewNodeExecutor создаёт NodeExecutor.
// timeout == 0 — без ограничения времени выполнения инструмента.
func NewNodeExecutor(registry *tools.Registry, timeout time.Duration, logger *slog.Logger, metrics *telemetry.Metrics) *NodeExecutor {
	if registry == nil {
		registry = tools.DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &NodeExecutor{
		registry: registry,
		timeout:  timeout,
		logger:   logger,
		metrics:  metrics,
	}
}

// Run выполняет узел и возвращает его результат.
func (e *NodeExecutor) Run(ctx context.Context, node *domain.Node, input any, outputs *domain.Outputs) any {
	logger := telemetry.WithNodeID(e.logger, node.ID, node.Type)
	start := time.Now()

	ctx, span := telemetry.StartSpan(ctx, "node.execute",
		attribute.String("node.id", node.ID),
		attribute.String("node.type", node.Type),
	)

	result, err := e.execute(ctx, node, input, outputs)
	telemetry.EndSpan(span, err)

	duration := time.Since(start)
	if err != nil {
		logger.Warn("node failed", "error", err, "duration_ms", duration.Milliseconds())
		e.metrics.NodeExecuted(node.Type, telemetry.OutcomeError, duration)
		return errorOutput(err.Error())
	}

	logger.Debug("node executed", "duration_ms", duration.Milliseconds())
	e.metrics.NodeExecuted(node.Type, telemetry.OutcomeSuccess, duration)
	return result
}

func (e *NodeExecutor) execute(ctx context.Context, node *domain.Node, input any, outputs *domain.Outputs) (result any, err error) {
	tool, err := e.registry.Get(node.Type)
	if err != nil {
		return nil, err
	}

	params := engine.NewResolver(outputs).ResolveObject(node.Parameters)
	req := tools.NewRequest(node.ID, params, BuildInput(input, engine.Snapshot(outputs)), e.timeout)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked",
				"node_id", node.ID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			result, err = nil, fmt.Errorf("tool %s panicked: %v", node.Type, r)
		}
	}()

	return tool.Execute(ctx, req)
}

// BuildInput собирает input узла: поля данных предыдущего узла
// и ключ "context" со снимком результатов.
//
// Если данные не объект (строка, число, массив), они кладутся под ключ "input".
// Ключ "context" во входных данных всегда заменяется снимком.
func BuildInput(data any, snapshot map[string]any) map[string]any {
	in := make(map[string]any)

	switch v := data.(type) {
	case nil:
	case map[string]any:
		for k, val := range v {
			in[k] = val
		}
	default:
		in["input"] = v
	}

	in[engine.ContextKey] = snapshot
	return in
}
