package domain

import (
	"time"

	"github.com/google/uuid"
)

// PathEntry — запись о выполнении узла в execution path.
type PathEntry struct {
	NodeID string `json:"nodeId"`
	Type   string `json:"type"`

	// Text — подпись узла (Node.Label()).
	Text string `json:"text"`

	Timestamp time.Time `json:"timestamp"`
}

// EdgeTaken — запись о пройденном ребре (условие истинно).
type EdgeTaken struct {
	EdgeID string `json:"edgeId"`
	From   string `json:"from"`
	To     string `json:"to"`

	// Condition — "{if} {condition} {value}" или "none" для безусловного ребра.
	Condition string `json:"condition"`

	// Iteration — порядковый номер прохода по ребру (начиная с 1).
	Iteration int `json:"iteration"`

	Timestamp time.Time `json:"timestamp"`
}

// Result — значение, возвращаемое Orchestrator.Execute.
type Result struct {
	Outputs       *Outputs    `json:"outputs"`
	ExecutionPath []PathEntry `json:"executionPath"`
	EdgesTaken    []EdgeTaken `json:"edgesTaken"`

	// Summary — итоговая сводка run (не входит в JSON результата).
	Summary *ExecutionSummary `json:"-"`
}

// ExecutionSummary — неизменяемая сводка выполнения run.
//
// Создаётся один раз после завершения обхода графа и сохраняется
// во все настроенные хранилища (файл, PostgreSQL, Redis, событие в RabbitMQ).
type ExecutionSummary struct {
	RunID        uuid.UUID `json:"runId"`
	WorkflowID   string    `json:"workflowId"`
	WorkflowName string    `json:"workflowName"`

	// ExecutionPath — путь без дублей по паре (nodeId, timestamp).
	ExecutionPath []PathEntry `json:"executionPath"`

	EdgesTaken     []EdgeTaken    `json:"edgesTaken"`
	Outputs        *Outputs       `json:"outputs"`
	EdgeIterations map[string]int `json:"edgeIterations"`

	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`

	// DurationMs — длительность run в миллисекундах.
	DurationMs int64 `json:"duration"`

	// Status — COMPLETED, либо CANCELLED если обход прерван контекстом.
	Status RunStatus `json:"status"`
}

// Duration возвращает длительность run.
func (s *ExecutionSummary) Duration() time.Duration {
	return time.Duration(s.DurationMs) * time.Millisecond
}
