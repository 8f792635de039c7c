package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dop251/goja"
)

// ToolTypeJavaScript — тип узла со скриптом.
const ToolTypeJavaScript = "javascript"

// JavaScriptTool выполняет код в изолированной goja VM.
//
// Параметры:
//
//	{
//	    "code": "({ total: context.fetch.body.items.length, doubled: input.value * 2 })"
//	}
//
// В VM доступны переменные:
//   - params  — параметры узла (без code)
//   - input   — данные от предыдущего узла (без context)
//   - context — снимок результатов всех узлов
//
// Результат — значение последнего выражения, приведённое к JSON-форме.
// На каждый вызов создаётся новая VM; по отмене ctx скрипт прерывается.
type JavaScriptTool struct{}

// NewJavaScriptTool создаёт JavaScriptTool.
func NewJavaScriptTool() *JavaScriptTool {
	return &JavaScriptTool{}
}

// Type возвращает тип узла.
func (t *JavaScriptTool) Type() string {
	return ToolTypeJavaScript
}

// Description реализует Describer.
func (t *JavaScriptTool) Description() string {
	return "Evaluates JavaScript with params, input and context bound"
}

// Execute выполняет скрипт.
func (t *JavaScriptTool) Execute(ctx context.Context, req *Request) (any, error) {
	code := GetConfigString(req.Params, "code")
	if code == "" {
		return nil, fmt.Errorf("%w: %s: code is required", ErrInvalidConfig, ToolTypeJavaScript)
	}
	if err := cancelled(ctx); err != nil {
		return nil, err
	}

	params := make(map[string]any, len(req.Params))
	for k, v := range req.Params {
		if k != "code" {
			params[k] = v
		}
	}

	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	for name, value := range map[string]any{
		"params":  params,
		"input":   req.InputData(),
		"context": req.Context(),
	} {
		if err := vm.Set(name, value); err != nil {
			return nil, fmt.Errorf("bind %s: %w", name, err)
		}
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := vm.RunString(code)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, fmt.Errorf("%w: %v", ErrToolCancelled, ctx.Err())
		}
		return nil, fmt.Errorf("javascript: %w", err)
	}

	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil, nil
	}
	return exportJSON(val.Export())
}

// exportJSON приводит значение из VM к JSON-форме (map[string]any, []any, float64).
func exportJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("javascript: result is not serializable: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("javascript: decode result: %w", err)
	}
	return out, nil
}
