package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shaiso/graphrun/internal/engine"
)

// Ошибки инструментов.
var (
	// ErrToolNotFound — тип инструмента не найден в реестре.
	ErrToolNotFound = errors.New("tool not found")

	// ErrInvalidConfig — невалидные параметры узла.
	ErrInvalidConfig = errors.New("invalid tool parameters")

	// ErrToolCancelled — выполнение инструмента отменено.
	ErrToolCancelled = errors.New("tool execution cancelled")
)

// Tool — реализация типа узла.
//
// Каждый тип узла (http, delay, transform, javascript, ...) реализует этот интерфейс.
// Результат — JSON-подобное значение (map[string]any, []any, скаляр).
// Ошибка не прерывает workflow: executor сохраняет её как {"error": "..."}.
type Tool interface {
	// Type возвращает тип узла, который обслуживает инструмент.
	Type() string

	// Execute выполняет инструмент.
	// Инструмент должен проверять ctx.Done() в долгих операциях.
	Execute(ctx context.Context, req *Request) (any, error)
}

// Describer — опциональное описание инструмента для списков.
type Describer interface {
	Description() string
}

// Request — входные данные инструмента.
type Request struct {
	// NodeID — идентификатор узла.
	NodeID string

	// Params — параметры узла после подстановки шаблонов верхнего уровня.
	Params map[string]any

	// Input — данные от предыдущего узла плюс ключ "context"
	// со снимком всех результатов.
	Input map[string]any

	// Timeout — таймаут выполнения. 0 — без таймаута.
	Timeout time.Duration
}

// NewRequest создаёт Request.
func NewRequest(nodeID string, params, input map[string]any, timeout time.Duration) *Request {
	if params == nil {
		params = make(map[string]any)
	}
	if input == nil {
		input = make(map[string]any)
	}
	return &Request{
		NodeID:  nodeID,
		Params:  params,
		Input:   input,
		Timeout: timeout,
	}
}

// Context возвращает снимок результатов узлов из Input.
func (r *Request) Context() map[string]any {
	if m, ok := r.Input[engine.ContextKey].(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// InputData возвращает Input без ключа "context".
func (r *Request) InputData() map[string]any {
	data := make(map[string]any, len(r.Input))
	for k, v := range r.Input {
		if k == engine.ContextKey {
			continue
		}
		data[k] = v
	}
	return data
}

// Resolver возвращает Resolver поверх снимка результатов.
// Нужен инструментам, которые вычисляют вложенные шаблоны сами.
func (r *Request) Resolver() *engine.Resolver {
	return engine.NewResolver(engine.MapSource(r.Context()))
}

// GetConfigString извлекает строковое значение из параметров.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает числовое значение из параметров.
// Строки разбираются как целые ("30" → 30): значения часто приходят из шаблонов.
func GetConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			if i, ok := engine.ParseInt(n); ok {
				return int(i)
			}
		}
	}
	return 0
}

// GetConfigBool извлекает булево значение из параметров.
// Строки "true"/"false" тоже принимаются.
func GetConfigBool(config map[string]any, key string, defaultVal bool) bool {
	if v, ok := config[key]; ok {
		switch b := v.(type) {
		case bool:
			return b
		case string:
			switch strings.ToLower(strings.TrimSpace(b)) {
			case "true":
				return true
			case "false":
				return false
			}
		}
	}
	return defaultVal
}

// GetConfigMap извлекает map из параметров.
func GetConfigMap(config map[string]any, key string) map[string]any {
	if v, ok := config[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// GetConfigMapString извлекает map[string]string из параметров.
func GetConfigMapString(config map[string]any, key string) map[string]string {
	if v, ok := config[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string)
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}

// GetConfigStrings извлекает список строк: массив или строку через запятую.
func GetConfigStrings(config map[string]any, key string) []string {
	var result []string
	switch v := config[key].(type) {
	case []string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				result = append(result, s)
			}
		}
	case string:
		for _, part := range strings.Split(v, ",") {
			if s := strings.TrimSpace(part); s != "" {
				result = append(result, s)
			}
		}
	}
	return result
}

// cancelled проверяет контекст перед началом работы.
func cancelled(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrToolCancelled, ctx.Err())
	default:
		return nil
	}
}
