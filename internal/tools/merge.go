package tools

import (
	"context"
	"fmt"
)

// ToolTypeMerge — тип узла объединения веток.
const ToolTypeMerge = "merge"

// MergeTool собирает результаты нескольких узлов в один объект.
//
// Используется там, где ветки workflow сходятся в одном узле:
//
//	{
//	    "nodes": ["fetch_a", "fetch_b"]   // или "fetch_a,fetch_b"
//	}
//
// Результат:
//
//	{
//	    "fetch_a": {...},
//	    "fetch_b": {...},
//	    "missing": ["..."]   // узлы, которые ещё не выполнялись
//	}
//
// Без параметра nodes возвращаются все результаты из снимка.
type MergeTool struct{}

// NewMergeTool создаёт MergeTool.
func NewMergeTool() *MergeTool {
	return &MergeTool{}
}

// Type возвращает тип узла.
func (t *MergeTool) Type() string {
	return ToolTypeMerge
}

// Description реализует Describer.
func (t *MergeTool) Description() string {
	return "Collects outputs of several nodes into one object"
}

// Execute собирает результаты.
func (t *MergeTool) Execute(ctx context.Context, req *Request) (any, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	snapshot := req.Context()
	nodes := GetConfigStrings(req.Params, "nodes")

	if len(nodes) == 0 {
		if _, present := req.Params["nodes"]; present {
			return nil, fmt.Errorf("%w: %s: nodes must be a list of node ids", ErrInvalidConfig, ToolTypeMerge)
		}
		merged := make(map[string]any, len(snapshot))
		for id, v := range snapshot {
			merged[id] = v
		}
		return merged, nil
	}

	merged := make(map[string]any, len(nodes)+1)
	var missing []any
	for _, id := range nodes {
		v, ok := snapshot[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		merged[id] = v
	}
	if len(missing) > 0 {
		merged["missing"] = missing
	}
	return merged, nil
}
