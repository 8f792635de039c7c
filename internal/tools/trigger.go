package tools

import "context"

// ToolTypeManualTrigger — тип узла ручного запуска.
const ToolTypeManualTrigger = "manual-trigger"

// ManualTriggerTool — точка входа, запускаемая вызовом Execute или API.
//
// Возвращает trigger data без ключа "context", так что следующие узлы
// читают её через {{triggerId.field}}.
type ManualTriggerTool struct{}

// NewManualTriggerTool создаёт ManualTriggerTool.
func NewManualTriggerTool() *ManualTriggerTool {
	return &ManualTriggerTool{}
}

// Type возвращает тип узла.
func (t *ManualTriggerTool) Type() string {
	return ToolTypeManualTrigger
}

// Description реализует Describer.
func (t *ManualTriggerTool) Description() string {
	return "Starts the workflow with the provided input data"
}

// Execute возвращает входные данные.
func (t *ManualTriggerTool) Execute(ctx context.Context, req *Request) (any, error) {
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	return req.InputData(), nil
}
