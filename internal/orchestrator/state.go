package orchestrator

import (
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/graphrun/internal/domain"
)

// RunState — изменяемое состояние одного run.
//
// Принадлежит одному вызову Execute и не разделяется между горутинами,
// поэтому не защищён мьютексом.
type RunState struct {
	RunID     uuid.UUID
	StartTime time.Time

	// Outputs — результаты узлов (nodeID → результат последнего выполнения).
	Outputs *domain.Outputs

	// ExecutionPath — узлы в порядке выполнения (с повторами).
	ExecutionPath []domain.PathEntry

	// EdgesTaken — пройденные рёбра в порядке прохода.
	EdgesTaken []domain.EdgeTaken

	// EdgeIterations — сколько раз пройдено каждое ребро.
	EdgeIterations map[string]int
}

// NewRunState создаёт пустое состояние run.
func NewRunState(runID uuid.UUID, start time.Time) *RunState {
	return &RunState{
		RunID:          runID,
		StartTime:      start,
		Outputs:        domain.NewOutputs(),
		ExecutionPath:  make([]domain.PathEntry, 0),
		EdgesTaken:     make([]domain.EdgeTaken, 0),
		EdgeIterations: make(map[string]int),
	}
}

// RecordNode сохраняет результат узла и добавляет запись в execution path.
func (s *RunState) RecordNode(node *domain.Node, output any, at time.Time) {
	s.Outputs.Set(node.ID, output)
	s.ExecutionPath = append(s.ExecutionPath, domain.PathEntry{
		NodeID:    node.ID,
		Type:      node.Type,
		Text:      node.Label(),
		Timestamp: at,
	})
}

// Iterations возвращает количество проходов по ребру.
func (s *RunState) Iterations(edgeID string) int {
	return s.EdgeIterations[edgeID]
}

// TakeEdge увеличивает счётчик ребра и записывает проход.
// Возвращает номер прохода (начиная с 1).
func (s *RunState) TakeEdge(edge *domain.Edge, at time.Time) int {
	s.EdgeIterations[edge.ID]++
	iteration := s.EdgeIterations[edge.ID]

	s.EdgesTaken = append(s.EdgesTaken, domain.EdgeTaken{
		EdgeID:    edge.ID,
		From:      edge.StartNodeID,
		To:        edge.EndNodeID,
		Condition: edge.ConditionText(),
		Iteration: iteration,
		Timestamp: at,
	})
	return iteration
}

// Result возвращает результат run для вызывающего.
func (s *RunState) Result() *domain.Result {
	return &domain.Result{
		Outputs:       s.Outputs,
		ExecutionPath: s.ExecutionPath,
		EdgesTaken:    s.EdgesTaken,
	}
}
