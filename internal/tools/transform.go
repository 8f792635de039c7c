package tools

import (
	"context"
	"encoding/json"
)

const (
	// ToolTypeTransform — тип узла трансформации.
	ToolTypeTransform = "transform"

	configMappings = "mappings"
)

// TransformTool — построение нового объекта из результатов других узлов.
//
// Параметры:
//
//	{
//	    "mappings": {
//	        "user": "{{fetch.body.user}}",
//	        "greeting": "Hello, {{fetch.body.user.name}}!",
//	        "count": "{{fetch.body.items.length}}"
//	    }
//	}
//
// Шаблоны в mappings вычисляются по снимку результатов (input.context).
// Строковые результаты, похожие на JSON ("42", "true", "[1,2]"), приводятся к типу.
type TransformTool struct{}

// NewTransformTool создаёт TransformTool.
func NewTransformTool() *TransformTool {
	return &TransformTool{}
}

// Type возвращает тип узла.
func (t *TransformTool) Type() string {
	return ToolTypeTransform
}

// Description реализует Describer.
func (t *TransformTool) Description() string {
	return "Builds an object from templates over previous node outputs"
}

// Execute вычисляет mappings.
func (t *TransformTool) Execute(ctx context.Context, req *Request) (any, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	mappings := GetConfigMap(req.Params, configMappings)
	if len(mappings) == 0 {
		return map[string]any{}, nil
	}

	resolver := req.Resolver()

	outputs := make(map[string]any, len(mappings))
	for key, tmpl := range mappings {
		value := resolver.Resolve(tmpl)
		if s, ok := value.(string); ok {
			value = parseValue(s)
		}
		outputs[key] = value
	}

	return outputs, nil
}

// parseValue пытается распарсить строку как JSON.
// Если не получается — возвращает строку как есть.
func parseValue(value string) any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err == nil {
		return obj
	}

	var arr []any
	if err := json.Unmarshal([]byte(value), &arr); err == nil {
		return arr
	}

	var num json.Number
	if err := json.Unmarshal([]byte(value), &num); err == nil {
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	switch value {
	case "true":
		return true
	case "false":
		return false
	}

	return value
}
