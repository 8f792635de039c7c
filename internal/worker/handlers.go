package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shaiso/graphrun/internal/engine"
	"github.com/shaiso/graphrun/internal/mq"
	"github.com/shaiso/graphrun/internal/orchestrator"
	"github.com/shaiso/graphrun/internal/repo"
	"github.com/shaiso/graphrun/internal/telemetry"
)

// handleRunRequested обрабатывает сообщение из очереди runs.requested.
func (w *Worker) handleRunRequested(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunRequestedPayload](&delivery.Message)
	if err != nil {
		return mq.Permanent(fmt.Errorf("parse run.requested payload: %w", err))
	}
	if payload.Workflow == "" {
		return mq.Permanent(ErrMissingWorkflow)
	}

	logger := telemetry.WithRunID(w.logger, payload.RunID.String()).With(
		"workflow", payload.Workflow,
		"source", payload.Source,
	)
	if payload.Schedule != "" {
		logger = logger.With("schedule", payload.Schedule)
	}

	if w.alreadyExecuted(ctx, payload) {
		logger.Info("run already executed, skipping redelivery")
		return nil
	}

	runCtx, cancel := context.WithTimeout(ctx, w.runTimeout)
	defer cancel()
	runCtx = orchestrator.WithRunID(runCtx, payload.RunID)

	logger.Info("run requested")

	summary, err := w.runner.Run(runCtx, payload.Workflow, payload.Inputs)
	return w.classify(ctx, logger, summary != nil, err)
}

// alreadyExecuted проверяет историю по ID run. Ошибка истории не блокирует run.
func (w *Worker) alreadyExecuted(ctx context.Context, payload mq.RunRequestedPayload) bool {
	if w.history == nil {
		return false
	}
	_, err := w.history.GetByRunID(ctx, payload.RunID)
	if err == nil {
		return true
	}
	if !errors.Is(err, repo.ErrNotFound) {
		w.logger.Warn("failed to check run history", "run_id", payload.RunID, "error", err)
	}
	return false
}

// classify переводит результат run в способ подтверждения сообщения.
func (w *Worker) classify(ctx context.Context, logger *slog.Logger, partial bool, err error) error {
	switch {
	case err == nil:
		logger.Info("run completed")
		return nil

	case errors.Is(err, repo.ErrNotFound),
		errors.Is(err, repo.ErrInvalidFilename),
		errors.Is(err, orchestrator.ErrInvalidWorkflow),
		engine.IsValidationError(err):
		return mq.Permanent(err)

	case ctx.Err() != nil:
		// worker остановлен: сообщение вернётся в очередь
		return fmt.Errorf("%w: %v", ErrWorkerStopped, err)

	case errors.Is(err, context.DeadlineExceeded) && partial:
		logger.Warn("run timed out, partial summary saved", "error", err)
		return nil

	default:
		return err
	}
}
