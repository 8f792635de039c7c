package engine

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

// placeholderPattern находит {{путь}}. Путь не может содержать перевод строки.
var placeholderPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Source — источник результатов узлов для подстановки.
//
// *domain.Outputs реализует Source напрямую.
type Source interface {
	Get(nodeID string) (any, bool)
}

// MapSource — Source поверх обычной map (например, снимок context).
type MapSource map[string]any

// Get реализует Source.
func (m MapSource) Get(nodeID string) (any, bool) {
	v, ok := m[nodeID]
	return v, ok
}

// Resolver подставляет {{nodeId.a.b}} значениями из результатов узлов.
//
// Правила:
//   - первый сегмент пути — ID узла, остальные — ключи объекта или индексы массива
//   - спуск продолжается, пока текущее значение — непустой объект или массив
//   - отсутствующее значение подставляется как пустая строка
//   - строка, целиком состоящая из одного {{...}}, возвращает значение как есть
//     (число остаётся числом, объект объектом)
//
// Resolver ничего не изменяет в источнике и безопасен для повторных вызовов.
type Resolver struct {
	src Source
}

// NewResolver создаёт Resolver поверх источника результатов.
func NewResolver(src Source) *Resolver {
	return &Resolver{src: src}
}

// HasPlaceholders возвращает true, если строка содержит {{...}}.
func HasPlaceholders(s string) bool {
	return placeholderPattern.MatchString(s)
}

// Resolve вычисляет значение. Нестроковые значения возвращаются без изменений.
func (r *Resolver) Resolve(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	return r.ResolveString(s)
}

// ResolveString вычисляет строковый шаблон.
//
// Если строка целиком является одним плейсхолдером, возвращается
// найденное значение без приведения к строке ("" если не найдено).
// Иначе каждое вхождение заменяется строковой формой значения.
func (r *Resolver) ResolveString(s string) any {
	matches := placeholderPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}

	if len(matches) == 1 && matches[0][0] == 0 && matches[0][1] == len(s) {
		v, found := r.lookup(s[matches[0][2]:matches[0][3]])
		if !found {
			return ""
		}
		return v
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		if v, found := r.lookup(s[m[2]:m[3]]); found {
			b.WriteString(ToString(v))
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}

// ResolveText вычисляет шаблон и всегда возвращает строку.
func (r *Resolver) ResolveText(s string) string {
	v := r.ResolveString(s)
	if str, ok := v.(string); ok {
		return str
	}
	return ToString(v)
}

// ResolveObject вычисляет каждое значение верхнего уровня.
//
// Вложенные объекты и массивы не обходятся: шаблон внутри них
// остаётся как есть. Возвращается новая map, исходная не меняется.
func (r *Resolver) ResolveObject(params map[string]any) map[string]any {
	resolved := make(map[string]any, len(params))
	for k, v := range params {
		resolved[k] = r.Resolve(v)
	}
	return resolved
}

// lookup находит значение по пути "nodeId.a.b".
func (r *Resolver) lookup(path string) (any, bool) {
	parts := strings.Split(strings.TrimSpace(path), ".")
	if r.src == nil {
		return nil, false
	}

	value, found := r.src.Get(parts[0])
	if !found {
		return nil, false
	}

	for _, part := range parts[1:] {
		value, found = descend(value, part)
		if !found {
			return nil, false
		}
	}
	return value, true
}

// descend делает один шаг вглубь объекта или массива.
// Для скаляров и nil шаг невозможен.
func descend(value any, key string) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case map[string]any:
		child, ok := v[key]
		return child, ok
	case []any:
		return indexSlice(len(v), key, func(i int) any { return v[i] })
	case string, bool, float64, int, int64:
		return nil, false
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String || rv.IsNil() {
			return nil, false
		}
		child := rv.MapIndex(reflect.ValueOf(key).Convert(rv.Type().Key()))
		if !child.IsValid() {
			return nil, false
		}
		return child.Interface(), true
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, false
		}
		return indexSlice(rv.Len(), key, func(i int) any { return rv.Index(i).Interface() })
	}
	return nil, false
}

func indexSlice(n int, key string, at func(int) any) (any, bool) {
	if key == "length" {
		return float64(n), true
	}
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= n || strconv.Itoa(i) != key {
		return nil, false
	}
	return at(i), true
}
