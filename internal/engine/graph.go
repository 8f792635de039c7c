package engine

import (
	"fmt"
	"sort"

	"github.com/shaiso/graphrun/internal/domain"
)

// Graph — индекс workflow для обхода.
//
// В отличие от DAG, циклы разрешены: они ограничиваются условиями
// и maxIterations на рёбрах во время выполнения.
type Graph struct {
	// Workflow — исходный workflow (не изменяется).
	Workflow *domain.Workflow

	nodes    map[string]*domain.Node
	outgoing map[string][]domain.Edge
}

// BuildGraph строит индекс узлов и исходящих рёбер.
//
// Исходящие рёбра каждого узла хранятся в порядке объявления в документе.
func BuildGraph(wf *domain.Workflow) (*Graph, error) {
	if wf == nil {
		return nil, NewValidationError("", "workflow is empty", ErrEmptyWorkflow)
	}

	g := &Graph{
		Workflow: wf,
		nodes:    make(map[string]*domain.Node, len(wf.Nodes)),
		outgoing: make(map[string][]domain.Edge),
	}

	for i := range wf.Nodes {
		g.nodes[wf.Nodes[i].ID] = &wf.Nodes[i]
	}

	for _, edge := range wf.Edges {
		if _, ok := g.nodes[edge.StartNodeID]; !ok {
			return nil, edgeError(edge.ID, "startNodeId",
				fmt.Sprintf("start node %q does not exist", edge.StartNodeID), ErrUnknownNode)
		}
		if _, ok := g.nodes[edge.EndNodeID]; !ok {
			return nil, edgeError(edge.ID, "endNodeId",
				fmt.Sprintf("end node %q does not exist", edge.EndNodeID), ErrUnknownNode)
		}
		g.outgoing[edge.StartNodeID] = append(g.outgoing[edge.StartNodeID], edge)
	}

	return g, nil
}

// Node возвращает узел по ID.
func (g *Graph) Node(id string) (*domain.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Outgoing возвращает исходящие рёбра узла в порядке объявления.
func (g *Graph) Outgoing(nodeID string) []domain.Edge {
	return g.outgoing[nodeID]
}

// StartNodes возвращает узлы, с которых начинается выполнение.
func (g *Graph) StartNodes() []*domain.Node {
	return g.Workflow.StartNodes()
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// UnboundedCycles находит циклы, ни одно ребро которых не имеет maxIterations.
//
// Такой цикл завершается только если условия рёбер когда-нибудь станут ложными.
// Результат — множества ID узлов (сильно связные компоненты), отсортированные.
// Используется для предупреждений при загрузке workflow, выполнение не блокирует.
func (g *Graph) UnboundedCycles() [][]string {
	var result [][]string

	for _, comp := range g.stronglyConnected() {
		inComp := make(map[string]bool, len(comp))
		for _, id := range comp {
			inComp[id] = true
		}

		cyclic := len(comp) > 1
		bounded := false
		for _, id := range comp {
			for _, e := range g.outgoing[id] {
				if !inComp[e.EndNodeID] {
					continue
				}
				if e.EndNodeID == id {
					cyclic = true
				}
				if e.MaxIterations != "" {
					bounded = true
				}
			}
		}

		if cyclic && !bounded {
			sort.Strings(comp)
			result = append(result, comp)
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i][0] < result[j][0] })
	return result
}

// stronglyConnected — алгоритм Тарьяна в итеративной форме.
func (g *Graph) stronglyConnected() [][]string {
	index := 0
	indices := make(map[string]int, len(g.nodes))
	lowlink := make(map[string]int, len(g.nodes))
	onStack := make(map[string]bool, len(g.nodes))
	var stack []string
	var comps [][]string

	type frame struct {
		id   string
		next int
	}

	for _, root := range g.Workflow.Nodes {
		if _, seen := indices[root.ID]; seen {
			continue
		}

		work := []frame{{id: root.ID}}
		indices[root.ID] = index
		lowlink[root.ID] = index
		index++
		stack = append(stack, root.ID)
		onStack[root.ID] = true

		for len(work) > 0 {
			top := &work[len(work)-1]
			edges := g.outgoing[top.id]

			if top.next < len(edges) {
				to := edges[top.next].EndNodeID
				top.next++

				if _, seen := indices[to]; !seen {
					indices[to] = index
					lowlink[to] = index
					index++
					stack = append(stack, to)
					onStack[to] = true
					work = append(work, frame{id: to})
				} else if onStack[to] && indices[to] < lowlink[top.id] {
					lowlink[top.id] = indices[to]
				}
				continue
			}

			id := top.id
			work = work[:len(work)-1]
			if len(work) > 0 {
				parent := work[len(work)-1].id
				if lowlink[id] < lowlink[parent] {
					lowlink[parent] = lowlink[id]
				}
			}

			if lowlink[id] == indices[id] {
				var comp []string
				for {
					n := len(stack) - 1
					member := stack[n]
					stack = stack[:n]
					onStack[member] = false
					comp = append(comp, member)
					if member == id {
						break
					}
				}
				comps = append(comps, comp)
			}
		}
	}

	return comps
}
