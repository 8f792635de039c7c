package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shaiso/graphrun/internal/domain"
)

// SummarySink — хранилище execution summary.
//
// Реализации: FileSink (обязательный), PostgreSQL и Redis из пакета repo,
// событие run.completed из пакета mq.
type SummarySink interface {
	// Name — короткое имя для логов и метрик.
	Name() string

	Save(ctx context.Context, summary *domain.ExecutionSummary) error
}

// BuildSummary строит summary завершённого (или прерванного) run.
//
// Записи execution path с одинаковой парой (nodeId, timestamp) схлопываются
// в одну, порядок первых вхождений сохраняется.
func BuildSummary(wf *domain.Workflow, state *RunState, end time.Time, status domain.RunStatus) *domain.ExecutionSummary {
	type pathKey struct {
		nodeID string
		at     int64
	}

	seen := make(map[pathKey]bool, len(state.ExecutionPath))
	path := make([]domain.PathEntry, 0, len(state.ExecutionPath))
	for _, entry := range state.ExecutionPath {
		key := pathKey{nodeID: entry.NodeID, at: entry.Timestamp.UnixNano()}
		if seen[key] {
			continue
		}
		seen[key] = true
		path = append(path, entry)
	}

	iterations := make(map[string]int, len(state.EdgeIterations))
	for id, n := range state.EdgeIterations {
		iterations[id] = n
	}

	edges := make([]domain.EdgeTaken, len(state.EdgesTaken))
	copy(edges, state.EdgesTaken)

	return &domain.ExecutionSummary{
		RunID:          state.RunID,
		WorkflowID:     wf.ID,
		WorkflowName:   wf.Name,
		ExecutionPath:  path,
		EdgesTaken:     edges,
		Outputs:        state.Outputs.Clone(),
		EdgeIterations: iterations,
		StartTime:      state.StartTime,
		EndTime:        end,
		DurationMs:     end.Sub(state.StartTime).Milliseconds(),
		Status:         status,
	}
}

// summaryTimeLayout — ISO 8601 с миллисекундами в UTC.
const summaryTimeLayout = "2006-01-02T15:04:05.000Z"

// SummaryFileName возвращает имя файла summary:
// {workflowId}_{ISO 8601, ':' заменены на '-'}.json.
func SummaryFileName(workflowID string, at time.Time) string {
	stamp := strings.ReplaceAll(at.UTC().Format(summaryTimeLayout), ":", "-")
	return workflowID + "_" + stamp + ".json"
}

// FileSink пишет summary в JSON файл в каталоге Dir.
type FileSink struct {
	Dir string
}

// NewFileSink создаёт FileSink. Пустой dir означает "summaries".
func NewFileSink(dir string) *FileSink {
	if dir == "" {
		dir = "summaries"
	}
	return &FileSink{Dir: dir}
}

// Name реализует SummarySink.
func (s *FileSink) Name() string {
	return "file"
}

// Save реализует SummarySink. Каталог создаётся при необходимости.
func (s *FileSink) Save(_ context.Context, summary *domain.ExecutionSummary) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return fmt.Errorf("create summaries dir: %w", err)
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	path := filepath.Join(s.Dir, SummaryFileName(summary.WorkflowID, summary.EndTime))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
