package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Outputs — результаты узлов (nodeID → result) с сохранением порядка вставки.
//
// Повторная запись существующего ключа (узел выполнен ещё раз в цикле)
// заменяет значение, но не меняет позицию ключа. Набор ключей только растёт.
// JSON сериализуется в порядке вставки.
//
// Нулевое значение готово к использованию.
type Outputs struct {
	keys   []string
	values map[string]any
}

// NewOutputs создаёт пустой Outputs.
func NewOutputs() *Outputs {
	return &Outputs{values: make(map[string]any)}
}

// Set записывает результат узла.
func (o *Outputs) Set(nodeID string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, exists := o.values[nodeID]; !exists {
		o.keys = append(o.keys, nodeID)
	}
	o.values[nodeID] = value
}

// Get возвращает результат узла.
func (o *Outputs) Get(nodeID string) (any, bool) {
	if o == nil || o.values == nil {
		return nil, false
	}
	v, ok := o.values[nodeID]
	return v, ok
}

// Keys возвращает ID узлов в порядке первой записи.
func (o *Outputs) Keys() []string {
	if o == nil {
		return nil
	}
	keys := make([]string, len(o.keys))
	copy(keys, o.keys)
	return keys
}

// Len возвращает количество узлов с результатом.
func (o *Outputs) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Map возвращает копию в виде обычной map (порядок теряется).
func (o *Outputs) Map() map[string]any {
	m := make(map[string]any, o.Len())
	if o == nil {
		return m
	}
	for k, v := range o.values {
		m[k] = v
	}
	return m
}

// Clone возвращает поверхностную копию (значения не копируются).
func (o *Outputs) Clone() *Outputs {
	c := NewOutputs()
	if o == nil {
		return c
	}
	for _, k := range o.keys {
		c.Set(k, o.values[k])
	}
	return c
}

// MarshalJSON сериализует результаты в порядке вставки.
func (o *Outputs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if o != nil {
		for i, k := range o.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			val, err := json.Marshal(o.values[k])
			if err != nil {
				return nil, fmt.Errorf("marshal output %s: %w", k, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			buf.Write(val)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON читает объект, сохраняя порядок ключей документа.
func (o *Outputs) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*o = Outputs{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("outputs: expected object, got %v", tok)
	}

	res := NewOutputs()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("outputs: expected string key, got %v", tok)
		}
		var val any
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("outputs: decode %s: %w", key, err)
		}
		res.Set(key, val)
	}

	*o = *res
	return nil
}
