package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Правила приведения повторяют поведение, на которое рассчитаны
// существующие workflow-документы: сравнение "5" с 5 истинно,
// пустая строка как число равна 0, нечисловая строка даёт NaN.

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ToNumber приводит значение к числу.
//
//   - nil, "" и строка из пробелов → 0
//   - true/false → 1/0
//   - строки: десятичные литералы, 0x/0o/0b префиксы, "Infinity"
//   - всё остальное (объекты, массивы, мусорные строки) → NaN
func ToNumber(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case string:
		return stringToNumber(x)
	case json.Number:
		return stringToNumber(x.String())
	}

	if f, ok := toFloat(v); ok {
		return f
	}
	return math.NaN()
}

func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}

	switch t {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}

	if len(t) > 2 && t[0] == '0' {
		base := 0
		switch t[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(t[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}

	if !decimalLiteral.MatchString(t) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil && !isRangeError(err) {
		return math.NaN()
	}
	return f
}

func isRangeError(err error) bool {
	return errors.Is(err, strconv.ErrRange)
}

// toFloat возвращает числовое значение для Go числовых типов.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

// ToString приводит значение к строке для подстановки в шаблон.
//
// Объекты и массивы сериализуются в JSON, nil → "null",
// целые числа печатаются без дробной части.
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case bool:
		if x {
			return "true"
		}
		return "false"
	case json.Number:
		return x.String()
	case error:
		return x.Error()
	}

	if f, ok := toFloat(v); ok {
		return FormatNumber(f)
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		data, err := json.Marshal(v)
		if err == nil {
			return string(data)
		}
	}
	return fmt.Sprint(v)
}

// FormatNumber печатает число так, как его печатают workflow-документы:
// 3 → "3", 2.5 → "2.5", NaN → "NaN", +Inf → "Infinity".
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}

	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// LooseEquals сравнивает значения нестрого: "5" равно 5, "true" не равно true
// (true приводится к 1), объект сравнивается со строкой через JSON форму.
func LooseEquals(a, b any) bool {
	a, b = normalizeOperand(a), normalizeOperand(b)

	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		switch y := b.(type) {
		case nil:
			return false
		case string:
			return x == y
		case float64:
			return stringToNumber(x) == y
		case bool:
			return LooseEquals(x, ToNumber(y))
		default:
			return x == ToString(y)
		}
	case float64:
		switch y := b.(type) {
		case nil:
			return false
		case float64:
			return x == y
		case string:
			return x == stringToNumber(y)
		case bool:
			return x == ToNumber(y)
		default:
			return LooseEquals(x, ToString(y))
		}
	case bool:
		if y, ok := b.(bool); ok {
			return x == y
		}
		if b == nil {
			return false
		}
		return LooseEquals(ToNumber(x), b)
	default:
		switch b.(type) {
		case nil:
			return false
		case string, float64, bool:
			return LooseEquals(b, a)
		default:
			return reflect.DeepEqual(a, b)
		}
	}
}

// normalizeOperand сводит значение к одному из видов: nil, string, float64, bool
// или составной объект.
func normalizeOperand(v any) any {
	switch v.(type) {
	case nil, string, bool, float64:
		return v
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return v
}

// ParseInt разбирает целое число из начала строкового представления значения:
// ведущие пробелы пропускаются, допускается знак и префикс 0x.
// "12abc" → 12, "abc" → false, "3.9" → 3.
func ParseInt(v any) (int64, bool) {
	s := strings.TrimLeftFunc(ToString(v), unicode.IsSpace)

	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	base := 10
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		base = 16
		s = s[2:]
	}

	end := 0
	for end < len(s) && digitValue(s[end]) < base {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.ParseInt(s[:end], base, 64)
	if err != nil {
		if !isRangeError(err) {
			return 0, false
		}
		n = math.MaxInt64
	}
	if neg {
		n = -n
	}
	return n, true
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'z':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'Z':
		return int(c-'A') + 10
	default:
		return 36
	}
}
