package engine

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/shaiso/graphrun/internal/domain"
)

func node(id, category string) domain.Node {
	return domain.Node{ID: id, Type: "transform", Category: category, Parameters: map[string]any{}}
}

func edge(id, from, to string) domain.Edge {
	return domain.Edge{ID: id, StartNodeID: from, EndNodeID: to}
}

func TestBuildGraph_Outgoing(t *testing.T) {
	wf := &domain.Workflow{
		ID:    "w",
		Nodes: []domain.Node{node("a", "trigger"), node("b", ""), node("c", "")},
		Edges: []domain.Edge{edge("e2", "a", "c"), edge("e1", "a", "b"), edge("e3", "b", "c")},
	}

	g, err := BuildGraph(wf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := g.Outgoing("a")
	if len(out) != 2 || out[0].ID != "e2" || out[1].ID != "e1" {
		t.Errorf("outgoing edges must keep declaration order, got %+v", out)
	}
	if len(g.Outgoing("c")) != 0 {
		t.Error("c has no outgoing edges")
	}
	if n, ok := g.Node("b"); !ok || n.ID != "b" {
		t.Error("node b should be found")
	}
	if g.Size() != 3 {
		t.Errorf("expected 3 nodes, got %d", g.Size())
	}
}

func TestBuildGraph_UnknownNode(t *testing.T) {
	wf := &domain.Workflow{
		ID:    "w",
		Nodes: []domain.Node{node("a", "")},
		Edges: []domain.Edge{edge("e1", "a", "ghost")},
	}
	if _, err := BuildGraph(wf); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("expected ErrUnknownNode, got %v", err)
	}
}

func TestGraph_StartNodes(t *testing.T) {
	tests := []struct {
		name  string
		nodes []domain.Node
		want  []string
	}{
		{"triggers", []domain.Node{node("a", ""), node("t1", "trigger"), node("t2", "trigger")}, []string{"t1", "t2"}},
		{"first node fallback", []domain.Node{node("a", ""), node("b", "")}, []string{"a"}},
		{"no nodes", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildGraph(&domain.Workflow{ID: "w", Nodes: tt.nodes})
			if err != nil {
				t.Fatal(err)
			}
			var got []string
			for _, n := range g.StartNodes() {
				got = append(got, n.ID)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("StartNodes() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGraph_UnboundedCycles(t *testing.T) {
	bounded := edge("back", "c", "b")
	bounded.MaxIterations = "3"

	tests := []struct {
		name  string
		edges []domain.Edge
		want  [][]string
	}{
		{
			name:  "acyclic",
			edges: []domain.Edge{edge("e1", "a", "b"), edge("e2", "b", "c")},
			want:  nil,
		},
		{
			name:  "unbounded loop",
			edges: []domain.Edge{edge("e1", "a", "b"), edge("e2", "b", "c"), edge("back", "c", "b")},
			want:  [][]string{{"b", "c"}},
		},
		{
			name:  "bounded loop",
			edges: []domain.Edge{edge("e1", "a", "b"), edge("e2", "b", "c"), bounded},
			want:  nil,
		},
		{
			name:  "self loop",
			edges: []domain.Edge{edge("self", "a", "a")},
			want:  [][]string{{"a"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := BuildGraph(&domain.Workflow{
				ID:    "w",
				Nodes: []domain.Node{node("a", "trigger"), node("b", ""), node("c", "")},
				Edges: tt.edges,
			})
			if err != nil {
				t.Fatal(err)
			}
			if got := g.UnboundedCycles(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("UnboundedCycles() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestChart(t *testing.T) {
	wf := &domain.Workflow{
		ID: "w",
		Nodes: []domain.Node{
			{ID: "start", Type: "manual-trigger", Category: "trigger", Text: "Start"},
			{ID: "check", Type: "transform", Category: "utility"},
		},
		Edges: []domain.Edge{
			{ID: "e1", StartNodeID: "start", EndNodeID: "check"},
			{ID: "e2", StartNodeID: "check", EndNodeID: "start", Condition: "equals", Value: ptr("retry")},
		},
	}

	chart := Chart(wf)

	want := []string{
		"flowchart TD\n",
		`    start["Start"]`,
		`    check["transform"]`,
		"    start --> check\n",
		"    check -->|equals retry| start\n",
		"    classDef trigger fill:#e6f7ff,stroke:#1890ff,stroke-width:2px\n",
		"    class start trigger\n",
		"    class check utility\n",
	}
	for _, w := range want {
		if !strings.Contains(chart, w) {
			t.Errorf("chart does not contain %q:\n%s", w, chart)
		}
	}
	if !strings.HasPrefix(chart, "flowchart TD\n") {
		t.Error("chart must start with flowchart header")
	}
}

func TestChart_EscapesLabels(t *testing.T) {
	wf := &domain.Workflow{
		Nodes: []domain.Node{{ID: "a", Type: "t", Text: `say "hi"`}},
	}
	if chart := Chart(wf); !strings.Contains(chart, `a["say #quot;hi#quot;"]`) {
		t.Errorf("quotes must be escaped:\n%s", chart)
	}
}
