package engine

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shaiso/graphrun/internal/domain"
)

const validWorkflowJSON = `{
  "id": "wf-1",
  "name": "Test workflow",
  "nodes": [
    {"id": "start", "type": "manual-trigger", "category": "trigger", "text": "Start", "parameters": {}},
    {"id": "fetch", "type": "http", "category": "action", "parameters": {"url": "{{start.url}}"}, "extra": 1}
  ],
  "edges": [
    {"id": "e1", "startNodeId": "start", "endNodeId": "fetch", "condition": "equals", "if": "{{start.go}}", "value": "yes", "maxIterations": "3"}
  ]
}`

func TestParseWorkflow_Valid(t *testing.T) {
	wf, err := ParseWorkflow([]byte(validWorkflowJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if wf.ID != "wf-1" || wf.Name != "Test workflow" {
		t.Errorf("unexpected header: %s / %s", wf.ID, wf.Name)
	}
	if len(wf.Nodes) != 2 || len(wf.Edges) != 1 {
		t.Fatalf("expected 2 nodes and 1 edge, got %d / %d", len(wf.Nodes), len(wf.Edges))
	}
	if wf.Nodes[0].Text != "Start" || !wf.Nodes[0].IsTrigger() {
		t.Errorf("unexpected first node: %+v", wf.Nodes[0])
	}
	if wf.Nodes[1].Parameters["url"] != "{{start.url}}" {
		t.Errorf("parameters must stay unresolved, got %v", wf.Nodes[1].Parameters["url"])
	}

	e := wf.Edges[0]
	if e.Condition != "equals" || e.If != "{{start.go}}" || e.Value == nil || *e.Value != "yes" || e.MaxIterations != "3" {
		t.Errorf("unexpected edge: %+v", e)
	}
}

func TestParseWorkflow_Idempotent(t *testing.T) {
	a, err := ParseWorkflow([]byte(validWorkflowJSON))
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParseWorkflow([]byte(validWorkflowJSON))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID || len(a.Nodes) != len(b.Nodes) || !reflect.DeepEqual(a.Edges, b.Edges) {
		t.Error("parsing the same document twice must give the same result")
	}
}

func TestParseWorkflow_EdgeWithoutValue(t *testing.T) {
	doc := `{"id":"x","name":"","nodes":[
	  {"id":"a","type":"manual-trigger","category":"trigger","parameters":{}},
	  {"id":"b","type":"transform","category":"utility","parameters":{}}
	],"edges":[
	  {"id":"e1","startNodeId":"a","endNodeId":"b","condition":"contains","if":"{{a.msg}}"},
	  {"id":"e2","startNodeId":"a","endNodeId":"b","condition":"equals","if":"{{a.msg}}","value":""}
	]}`
	wf, err := ParseWorkflow([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := wf.Edges[0].ExpectedValue(); ok {
		t.Error("edge without value must report it as absent")
	}
	if v, ok := wf.Edges[1].ExpectedValue(); !ok || v != "" {
		t.Errorf("empty value must stay present, got %q / %v", v, ok)
	}
	if got := wf.Edges[0].ConditionText(); got != "{{a.msg}} contains " {
		t.Errorf("ConditionText() = %q", got)
	}
}

func TestParseWorkflow_EmptyNodes(t *testing.T) {
	wf, err := ParseWorkflow([]byte(`{"id":"x","name":"","nodes":[],"edges":[]}`))
	if err != nil {
		t.Fatalf("empty workflow should be valid: %v", err)
	}
	if len(wf.StartNodes()) != 0 {
		t.Error("empty workflow has no start nodes")
	}
}

func TestParseWorkflow_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr error
		field   string
	}{
		{
			name:    "not JSON",
			doc:     `{id:`,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "not an object",
			doc:     `[1,2]`,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "null document",
			doc:     `null`,
			wantErr: ErrEmptyWorkflow,
		},
		{
			name:    "missing id",
			doc:     `{"name":"n","nodes":[],"edges":[]}`,
			wantErr: ErrMissingField,
			field:   "id",
		},
		{
			name:    "numeric name",
			doc:     `{"id":"x","name":5,"nodes":[],"edges":[]}`,
			wantErr: ErrInvalidFieldType,
			field:   "name",
		},
		{
			name:    "nodes not array",
			doc:     `{"id":"x","name":"n","nodes":{},"edges":[]}`,
			wantErr: ErrInvalidFieldType,
			field:   "nodes",
		},
		{
			name:    "missing edges",
			doc:     `{"id":"x","name":"n","nodes":[]}`,
			wantErr: ErrMissingField,
			field:   "edges",
		},
		{
			name:    "node without parameters",
			doc:     `{"id":"x","name":"n","nodes":[{"id":"a","type":"t","category":"c"}],"edges":[]}`,
			wantErr: ErrMissingField,
			field:   "nodes[0].parameters",
		},
		{
			name:    "node without category",
			doc:     `{"id":"x","name":"n","nodes":[{"id":"a","type":"t","parameters":{}}],"edges":[]}`,
			wantErr: ErrMissingField,
			field:   "nodes[0].category",
		},
		{
			name:    "edge without startNodeId",
			doc:     `{"id":"x","name":"n","nodes":[{"id":"a","type":"t","category":"c","parameters":{}}],"edges":[{"id":"e","endNodeId":"a"}]}`,
			wantErr: ErrMissingField,
			field:   "edges[0].startNodeId",
		},
		{
			name:    "numeric maxIterations",
			doc:     `{"id":"x","name":"n","nodes":[{"id":"a","type":"t","category":"c","parameters":{}}],"edges":[{"id":"e","startNodeId":"a","endNodeId":"a","maxIterations":3}]}`,
			wantErr: ErrInvalidFieldType,
			field:   "edges[0].maxIterations",
		},
		{
			name:    "unknown edge target",
			doc:     `{"id":"x","name":"n","nodes":[{"id":"a","type":"t","category":"c","parameters":{}}],"edges":[{"id":"e","startNodeId":"a","endNodeId":"b"}]}`,
			wantErr: ErrUnknownNode,
			field:   "endNodeId",
		},
		{
			name:    "duplicate node",
			doc:     `{"id":"x","name":"n","nodes":[{"id":"a","type":"t","category":"c","parameters":{}},{"id":"a","type":"t","category":"c","parameters":{}}],"edges":[]}`,
			wantErr: ErrDuplicateNodeID,
			field:   "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWorkflow([]byte(tt.doc))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}
			if tt.field != "" && vErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, vErr.Field)
			}
		})
	}
}

func TestParseWorkflowYAML(t *testing.T) {
	doc := `
id: wf-yaml
name: YAML workflow
nodes:
  - id: start
    type: manual-trigger
    category: trigger
    parameters: {}
  - id: wait
    type: delay
    category: utility
    parameters:
      duration: 1s
      retries: 2
edges:
  - id: e1
    startNodeId: start
    endNodeId: wait
`
	wf, err := ParseWorkflowYAML([]byte(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wf.ID != "wf-yaml" || len(wf.Nodes) != 2 {
		t.Fatalf("unexpected workflow: %+v", wf)
	}
	if wf.Nodes[1].Parameters["retries"] != float64(2) {
		t.Errorf("numbers should be decoded like JSON, got %#v", wf.Nodes[1].Parameters["retries"])
	}
}

func TestValidate_Struct(t *testing.T) {
	tests := []struct {
		name    string
		wf      *domain.Workflow
		wantErr error
	}{
		{"nil", nil, ErrEmptyWorkflow},
		{"empty id", &domain.Workflow{}, ErrMissingField},
		{
			"empty node id",
			&domain.Workflow{ID: "w", Nodes: []domain.Node{{Type: "t"}}},
			ErrEmptyNodeID,
		},
		{
			"empty type",
			&domain.Workflow{ID: "w", Nodes: []domain.Node{{ID: "a"}}},
			ErrMissingField,
		},
		{
			"duplicate edge",
			&domain.Workflow{
				ID:    "w",
				Nodes: []domain.Node{{ID: "a", Type: "t"}},
				Edges: []domain.Edge{
					{ID: "e", StartNodeID: "a", EndNodeID: "a"},
					{ID: "e", StartNodeID: "a", EndNodeID: "a"},
				},
			},
			ErrDuplicateEdgeID,
		},
		{
			"missing start node",
			&domain.Workflow{
				ID:    "w",
				Nodes: []domain.Node{{ID: "a", Type: "t"}},
				Edges: []domain.Edge{{ID: "e", EndNodeID: "a"}},
			},
			ErrUnknownNode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Validate(tt.wf); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFormatFromFilename(t *testing.T) {
	tests := []struct {
		name    string
		want    Format
		wantErr bool
	}{
		{"flow.json", FormatJSON, false},
		{"flow.YAML", FormatYAML, false},
		{"flow.yml", FormatYAML, false},
		{"flow.txt", "", true},
		{"flow", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFromFilename(tt.name)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromFilename(%q) = (%q, %v)", tt.name, got, err)
		}
		if err != nil && !errors.Is(err, ErrUnsupportedFormat) {
			t.Errorf("expected ErrUnsupportedFormat, got %v", err)
		}
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{EdgeID: "e1", Message: "boom", Err: ErrUnknownNode}
	if err.Error() != "edge e1: boom" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if !IsValidationError(err) {
		t.Error("IsValidationError should be true")
	}
}
