package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oliveagle/jsonpath"
)

// ToolTypeJSONPath — тип узла выборки по JSONPath.
const ToolTypeJSONPath = "jsonpath"

// JSONPathTool извлекает значение из документа по JSONPath выражению.
//
// Параметры:
//
//	{
//	    "path": "$.body.items[0].name",
//	    "source": "{{fetch}}"        // объект, массив или JSON строка
//	}
//
// Без source выражение применяется к входным данным узла,
// а если путь начинается с $.context — к снимку результатов.
//
// Результат: {"value": ...}
type JSONPathTool struct{}

// NewJSONPathTool создаёт JSONPathTool.
func NewJSONPathTool() *JSONPathTool {
	return &JSONPathTool{}
}

// Type возвращает тип узла.
func (t *JSONPathTool) Type() string {
	return ToolTypeJSONPath
}

// Description реализует Describer.
func (t *JSONPathTool) Description() string {
	return "Extracts a value from a document with a JSONPath expression"
}

// Execute вычисляет выражение.
func (t *JSONPathTool) Execute(ctx context.Context, req *Request) (any, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(GetConfigString(req.Params, "path"))
	if path == "" {
		return nil, fmt.Errorf("%w: %s: path is required", ErrInvalidConfig, ToolTypeJSONPath)
	}
	if !strings.HasPrefix(path, "$") {
		path = "$." + path
	}

	source, err := t.source(req)
	if err != nil {
		return nil, err
	}

	value, err := jsonpath.JsonPathLookup(source, path)
	if err != nil {
		return nil, fmt.Errorf("jsonpath %s: %w", path, err)
	}

	normalized, err := exportJSON(value)
	if err != nil {
		return nil, err
	}
	return map[string]any{"value": normalized}, nil
}

// source выбирает документ для выражения.
func (t *JSONPathTool) source(req *Request) (any, error) {
	raw, present := req.Params["source"]
	if !present || raw == nil || raw == "" {
		return req.Input, nil
	}

	if s, ok := raw.(string); ok {
		var doc any
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return nil, fmt.Errorf("%w: %s: source is not a JSON document", ErrInvalidConfig, ToolTypeJSONPath)
		}
		return doc, nil
	}

	// Приводим к map[string]any/[]any: библиотека не работает с типизированными map
	return exportJSON(raw)
}
