package scheduler

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/mq"
	"github.com/shaiso/graphrun/internal/orchestrator"
)

// sourceScheduler — значение Source в run.requested.
const sourceScheduler = "scheduler"

// RunRequestPublisher публикует run.requested. Реализуется mq.Publisher.
type RunRequestPublisher interface {
	PublishRunRequested(ctx context.Context, payload mq.RunRequestedPayload) error
}

// QueueDispatcher ставит запуск в очередь runs.requested.
type QueueDispatcher struct {
	publisher RunRequestPublisher
}

// NewQueueDispatcher создаёт QueueDispatcher.
func NewQueueDispatcher(publisher RunRequestPublisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: publisher}
}

// Dispatch реализует Dispatcher.
func (d *QueueDispatcher) Dispatch(ctx context.Context, sched *domain.Schedule, runID uuid.UUID) error {
	return d.publisher.PublishRunRequested(ctx, mq.RunRequestedPayload{
		RunID:    runID,
		Workflow: sched.Workflow,
		Inputs:   sched.Inputs,
		Source:   sourceScheduler,
		Schedule: sched.Name,
	})
}

// RunService выполняет workflow-файл. Реализуется orchestrator.Runner.
type RunService interface {
	Run(ctx context.Context, filename string, input any) (*domain.ExecutionSummary, error)
}

// LocalDispatcher выполняет запуск в процессе планировщика (без брокера).
//
// Run выполняется в отдельной горутине, Dispatch не ждёт его завершения.
type LocalDispatcher struct {
	runner RunService
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewLocalDispatcher создаёт LocalDispatcher.
func NewLocalDispatcher(runner RunService, logger *slog.Logger) *LocalDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalDispatcher{runner: runner, logger: logger}
}

// Dispatch реализует Dispatcher.
func (d *LocalDispatcher) Dispatch(ctx context.Context, sched *domain.Schedule, runID uuid.UUID) error {
	workflow := sched.Workflow
	inputs := make(map[string]any, len(sched.Inputs))
	for k, v := range sched.Inputs {
		inputs[k] = v
	}
	name := sched.Name

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()

		runCtx := orchestrator.WithRunID(context.WithoutCancel(ctx), runID)
		if _, err := d.runner.Run(runCtx, workflow, inputs); err != nil {
			d.logger.Error("scheduled run failed",
				"run_id", runID,
				"schedule_name", name,
				"workflow", workflow,
				"error", err,
			)
		}
	}()
	return nil
}

// Wait ждёт завершения всех запущенных runs.
func (d *LocalDispatcher) Wait() {
	d.wg.Wait()
}
