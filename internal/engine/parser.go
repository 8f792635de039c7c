package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shaiso/graphrun/internal/domain"
)

// Format — формат файла workflow.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromFilename определяет формат по расширению файла.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
}

// Parse разбирает workflow в указанном формате.
func Parse(format Format, data []byte) (*domain.Workflow, error) {
	switch format {
	case FormatJSON:
		return ParseWorkflow(data)
	case FormatYAML:
		return ParseWorkflowYAML(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// ParseWorkflow парсит и валидирует workflow из JSON.
func ParseWorkflow(data []byte) (*domain.Workflow, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewValidationError("", "invalid JSON: "+err.Error(), ErrInvalidDocument)
	}
	return decodeDocument(doc)
}

// ParseWorkflowYAML парсит и валидирует workflow из YAML.
//
// YAML документ приводится к той же форме, что и JSON, поэтому
// оба формата дают одинаковый *domain.Workflow.
func ParseWorkflowYAML(data []byte) (*domain.Workflow, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, NewValidationError("", "invalid YAML: "+err.Error(), ErrInvalidDocument)
	}
	return decodeDocument(normalizeYAML(doc))
}

func decodeDocument(doc any) (*domain.Workflow, error) {
	if err := ValidateDocument(doc); err != nil {
		return nil, err
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return nil, NewValidationError("", "encode document: "+err.Error(), ErrInvalidDocument)
	}

	var wf domain.Workflow
	if err := json.Unmarshal(data, &wf); err != nil {
		return nil, NewValidationError("", "decode workflow: "+err.Error(), ErrInvalidDocument)
	}

	if err := Validate(&wf); err != nil {
		return nil, err
	}
	return &wf, nil
}

// normalizeYAML заменяет map[any]any (вложенные ключи не-строки) на map[string]any.
func normalizeYAML(v any) any {
	switch x := v.(type) {
	case map[string]any:
		for k, child := range x {
			x[k] = normalizeYAML(child)
		}
		return x
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, child := range x {
			out[fmt.Sprint(k)] = normalizeYAML(child)
		}
		return out
	case []any:
		for i, child := range x {
			x[i] = normalizeYAML(child)
		}
		return x
	default:
		return v
	}
}

// ValidateDocument проверяет форму документа до декодирования:
//
//   - id, name — строки; nodes, edges — массивы
//   - узел: id, type, category — строки, parameters — объект, text (опционально) — строка
//   - ребро: id, startNodeId, endNodeId — строки;
//     condition, if, value, maxIterations — строки, если заданы
//
// Лишние ключи разрешены. Функция не изменяет документ.
func ValidateDocument(doc any) error {
	if doc == nil {
		return NewValidationError("", "workflow is empty", ErrEmptyWorkflow)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return NewValidationError("", "workflow must be an object", ErrInvalidDocument)
	}

	if err := requireString(root, "id", "id"); err != nil {
		return err
	}
	if err := requireString(root, "name", "name"); err != nil {
		return err
	}

	nodes, err := requireArray(root, "nodes")
	if err != nil {
		return err
	}
	for i, raw := range nodes {
		field := fmt.Sprintf("nodes[%d]", i)
		node, ok := raw.(map[string]any)
		if !ok {
			return NewValidationError(field, "node must be an object", ErrInvalidFieldType)
		}
		for _, key := range []string{"id", "type", "category"} {
			if err := requireString(node, key, field+"."+key); err != nil {
				return err
			}
		}
		if err := optionalString(node, "text", field+".text"); err != nil {
			return err
		}
		params, present := node["parameters"]
		if !present {
			return NewValidationError(field+".parameters", "required field is missing", ErrMissingField)
		}
		if _, ok := params.(map[string]any); !ok {
			return NewValidationError(field+".parameters", "must be an object", ErrInvalidFieldType)
		}
	}

	edges, err := requireArray(root, "edges")
	if err != nil {
		return err
	}
	for i, raw := range edges {
		field := fmt.Sprintf("edges[%d]", i)
		edge, ok := raw.(map[string]any)
		if !ok {
			return NewValidationError(field, "edge must be an object", ErrInvalidFieldType)
		}
		for _, key := range []string{"id", "startNodeId", "endNodeId"} {
			if err := requireString(edge, key, field+"."+key); err != nil {
				return err
			}
		}
		for _, key := range []string{"condition", "if", "value", "maxIterations"} {
			if err := optionalString(edge, key, field+"."+key); err != nil {
				return err
			}
		}
	}

	return nil
}

func requireString(obj map[string]any, key, field string) error {
	v, present := obj[key]
	if !present {
		return NewValidationError(field, "required field is missing", ErrMissingField)
	}
	if _, ok := v.(string); !ok {
		return NewValidationError(field, fmt.Sprintf("must be a string, got %T", v), ErrInvalidFieldType)
	}
	return nil
}

func optionalString(obj map[string]any, key, field string) error {
	v, present := obj[key]
	if !present {
		return nil
	}
	if _, ok := v.(string); !ok {
		return NewValidationError(field, fmt.Sprintf("must be a string, got %T", v), ErrInvalidFieldType)
	}
	return nil
}

func requireArray(obj map[string]any, key string) ([]any, error) {
	v, present := obj[key]
	if !present {
		return nil, NewValidationError(key, "required field is missing", ErrMissingField)
	}
	arr, ok := v.([]any)
	if !ok {
		return nil, NewValidationError(key, "must be an array", ErrInvalidFieldType)
	}
	return arr, nil
}

// Validate проверяет целостность декодированного workflow.
//
// Проверки:
//   - ID узлов и рёбер непустые и уникальные
//   - у узла задан type
//   - startNodeId и endNodeId ссылаются на существующие узлы
//
// Пустой список узлов допустим: такой workflow ничего не выполняет.
func Validate(wf *domain.Workflow) error {
	if wf == nil {
		return NewValidationError("", "workflow is empty", ErrEmptyWorkflow)
	}
	if wf.ID == "" {
		return NewValidationError("id", "workflow id is empty", ErrMissingField)
	}

	nodeIDs := make(map[string]bool, len(wf.Nodes))
	for i, node := range wf.Nodes {
		if node.ID == "" {
			return NewValidationError(fmt.Sprintf("nodes[%d].id", i), "node id is empty", ErrEmptyNodeID)
		}
		if nodeIDs[node.ID] {
			return nodeError(node.ID, "id", "duplicate node id", ErrDuplicateNodeID)
		}
		nodeIDs[node.ID] = true

		if node.Type == "" {
			return nodeError(node.ID, "type", "node type is empty", ErrMissingField)
		}
	}

	edgeIDs := make(map[string]bool, len(wf.Edges))
	for i, edge := range wf.Edges {
		if edge.ID == "" {
			return NewValidationError(fmt.Sprintf("edges[%d].id", i), "edge id is empty", ErrEmptyEdgeID)
		}
		if edgeIDs[edge.ID] {
			return edgeError(edge.ID, "id", "duplicate edge id", ErrDuplicateEdgeID)
		}
		edgeIDs[edge.ID] = true

		if !nodeIDs[edge.StartNodeID] {
			return edgeError(edge.ID, "startNodeId",
				fmt.Sprintf("start node %q does not exist", edge.StartNodeID), ErrUnknownNode)
		}
		if !nodeIDs[edge.EndNodeID] {
			return edgeError(edge.ID, "endNodeId",
				fmt.Sprintf("end node %q does not exist", edge.EndNodeID), ErrUnknownNode)
		}
	}

	return nil
}

// IsValidationError проверяет, является ли ошибка ошибкой валидации workflow.
func IsValidationError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}
