package mq

import (
	"context"

	"github.com/shaiso/graphrun/internal/domain"
	"github.com/shaiso/graphrun/internal/orchestrator"
)

// CompletedPublisher публикует события run.completed.
type CompletedPublisher interface {
	PublishRunCompleted(ctx context.Context, payload RunCompletedPayload) error
}

// EventSink — хранилище summary, которое публикует run.completed.
// Реализует orchestrator.SummarySink.
type EventSink struct {
	publisher CompletedPublisher
}

// NewEventSink создаёт EventSink.
func NewEventSink(publisher CompletedPublisher) *EventSink {
	return &EventSink{publisher: publisher}
}

// Name возвращает имя sink.
func (s *EventSink) Name() string {
	return "rabbitmq"
}

// Save публикует событие о завершении run.
func (s *EventSink) Save(ctx context.Context, summary *domain.ExecutionSummary) error {
	return s.publisher.PublishRunCompleted(ctx, CompletedPayload(summary))
}

// CompletedPayload строит событие run.completed из summary.
func CompletedPayload(summary *domain.ExecutionSummary) RunCompletedPayload {
	var failed []string
	for _, id := range summary.Outputs.Keys() {
		out, _ := summary.Outputs.Get(id)
		if _, ok := orchestrator.IsErrorOutput(out); ok {
			failed = append(failed, id)
		}
	}

	return RunCompletedPayload{
		RunID:         summary.RunID,
		WorkflowID:    summary.WorkflowID,
		Status:        summary.Status.String(),
		DurationMs:    summary.DurationMs,
		NodesExecuted: len(summary.ExecutionPath),
		EdgesTaken:    len(summary.EdgesTaken),
		FailedNodes:   failed,
		FinishedAt:    summary.EndTime,
	}
}
