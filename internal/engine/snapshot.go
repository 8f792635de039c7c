package engine

import (
	"encoding/json"
	"reflect"
)

// ContextKey — ключ, под которым узел получает снимок результатов.
const ContextKey = "context"

// Snapshot строит глубокую копию всех результатов без ключей "context"
// на любом уровне вложенности.
//
// Снимок не делит память с исходными результатами: изменение снимка
// инструментом не затрагивает сохранённые outputs.
func Snapshot(src interface {
	Keys() []string
	Get(string) (any, bool)
}) map[string]any {
	keys := src.Keys()
	snap := make(map[string]any, len(keys))
	for _, k := range keys {
		if k == ContextKey {
			continue
		}
		v, _ := src.Get(k)
		snap[k] = StripContext(v)
	}
	return snap
}

// StripContext возвращает глубокую копию значения без ключей "context".
//
// Значения, которые уже являются JSON-подобными (map[string]any, []any, скаляры),
// копируются напрямую. Остальные составные типы (структуры, типизированные map)
// проходят через JSON. Циклические ссылки заменяются на nil.
func StripContext(v any) any {
	return stripValue(v, make(map[uintptr]bool))
}

func stripValue(v any, visiting map[uintptr]bool) any {
	switch x := v.(type) {
	case nil, string, bool, float64, float32, int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, json.Number:
		return x

	case map[string]any:
		if x == nil {
			return map[string]any(nil)
		}
		ptr := reflect.ValueOf(x).Pointer()
		if visiting[ptr] {
			return nil
		}
		visiting[ptr] = true
		defer delete(visiting, ptr)

		out := make(map[string]any, len(x))
		for k, child := range x {
			if k == ContextKey {
				continue
			}
			out[k] = stripValue(child, visiting)
		}
		return out

	case []any:
		if x == nil {
			return []any(nil)
		}
		if len(x) > 0 {
			ptr := reflect.ValueOf(x).Pointer()
			if visiting[ptr] {
				return nil
			}
			visiting[ptr] = true
			defer delete(visiting, ptr)
		}

		out := make([]any, len(x))
		for i, child := range x {
			out[i] = stripValue(child, visiting)
		}
		return out
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil
	}
	return stripValue(generic, visiting)
}
