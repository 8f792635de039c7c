package tools

import (
	"context"
	"fmt"
	"time"
)

const (
	// ToolTypeDelay — тип узла задержки.
	ToolTypeDelay = "delay"

	// Ключи параметров delay.
	configDurationSec = "duration_sec"
	configDurationMs  = "duration_ms"
)

// DelayTool — задержка выполнения.
//
// Приостанавливает ветку на указанное время.
// Поддерживает отмену через context.
//
// Параметры:
//
//	{
//	    "duration_sec": 10,    // задержка в секундах
//	    // или
//	    "duration_ms": 5000    // задержка в миллисекундах
//	}
type DelayTool struct{}

// NewDelayTool создаёт DelayTool.
func NewDelayTool() *DelayTool {
	return &DelayTool{}
}

// Type возвращает тип узла.
func (t *DelayTool) Type() string {
	return ToolTypeDelay
}

// Description реализует Describer.
func (t *DelayTool) Description() string {
	return "Pauses the branch for duration_sec or duration_ms"
}

// Execute выполняет задержку.
func (t *DelayTool) Execute(ctx context.Context, req *Request) (any, error) {
	duration, err := t.parseDuration(req.Params)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrToolCancelled, ctx.Err())
	case <-timer.C:
		return map[string]any{
			"duration_ms": duration.Milliseconds(),
		}, nil
	}
}

func (t *DelayTool) parseDuration(params map[string]any) (time.Duration, error) {
	if sec := GetConfigInt(params, configDurationSec); sec > 0 {
		return time.Duration(sec) * time.Second, nil
	}

	if ms := GetConfigInt(params, configDurationMs); ms > 0 {
		return time.Duration(ms) * time.Millisecond, nil
	}

	return 0, fmt.Errorf("%w: %s: duration_sec or duration_ms required",
		ErrInvalidConfig, ToolTypeDelay)
}
