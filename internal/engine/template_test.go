package engine

import (
	"reflect"
	"testing"

	"github.com/shaiso/graphrun/internal/domain"
)

func testOutputs() *domain.Outputs {
	out := domain.NewOutputs()
	out.Set("start", map[string]any{
		"user":  map[string]any{"name": "Alice", "age": float64(30)},
		"items": []any{"a", "b", "c"},
		"flag":  true,
		"empty": nil,
	})
	out.Set("count", float64(3))
	out.Set("text", "hello")
	return out
}

func TestResolve_Placeholders(t *testing.T) {
	r := NewResolver(testOutputs())

	tests := []struct {
		name     string
		template string
		expected any
	}{
		{
			name:     "plain text",
			template: "no placeholders",
			expected: "no placeholders",
		},
		{
			name:     "nested path in text",
			template: "Hello, {{start.user.name}}!",
			expected: "Hello, Alice!",
		},
		{
			name:     "whitespace inside braces",
			template: "Hi {{ start.user.name }}",
			expected: "Hi Alice",
		},
		{
			name:     "exact placeholder keeps type",
			template: "{{start.user.age}}",
			expected: float64(30),
		},
		{
			name:     "exact placeholder returns object",
			template: "{{start.user}}",
			expected: map[string]any{"name": "Alice", "age": float64(30)},
		},
		{
			name:     "number in text",
			template: "age={{start.user.age}}",
			expected: "age=30",
		},
		{
			name:     "object in text is JSON",
			template: "user: {{start.user}}",
			expected: `user: {"age":30,"name":"Alice"}`,
		},
		{
			name:     "bool in text",
			template: "flag={{start.flag}}",
			expected: "flag=true",
		},
		{
			name:     "array index",
			template: "{{start.items.1}}",
			expected: "b",
		},
		{
			name:     "array length",
			template: "n={{start.items.length}}",
			expected: "n=3",
		},
		{
			name:     "missing node",
			template: "x={{ghost.value}}",
			expected: "x=",
		},
		{
			name:     "missing exact placeholder",
			template: "{{ghost}}",
			expected: "",
		},
		{
			name:     "descend into string",
			template: "[{{text.length}}]",
			expected: "[]",
		},
		{
			name:     "descend through null",
			template: "[{{start.empty.field}}]",
			expected: "[]",
		},
		{
			name:     "null value in text",
			template: "v={{start.empty}}",
			expected: "v=null",
		},
		{
			name:     "index out of range",
			template: "[{{start.items.9}}]",
			expected: "[]",
		},
		{
			name:     "multiple placeholders",
			template: "{{text}} {{start.user.name}} x{{count}}",
			expected: "hello Alice x3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Resolve(tt.template)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Resolve(%q) = %#v, want %#v", tt.template, got, tt.expected)
			}
		})
	}
}

func TestResolve_NonString(t *testing.T) {
	r := NewResolver(testOutputs())

	values := []any{float64(42), true, nil, map[string]any{"a": "{{text}}"}}
	for _, v := range values {
		if got := r.Resolve(v); !reflect.DeepEqual(got, v) {
			t.Errorf("Resolve(%#v) = %#v, want unchanged", v, got)
		}
	}
}

func TestResolve_NilSource(t *testing.T) {
	r := NewResolver(nil)
	if got := r.Resolve("a{{x.y}}b"); got != "ab" {
		t.Errorf("expected 'ab', got %#v", got)
	}
}

func TestResolveObject_Flat(t *testing.T) {
	r := NewResolver(testOutputs())

	params := map[string]any{
		"greeting": "Hi {{start.user.name}}",
		"age":      "{{start.user.age}}",
		"nested":   map[string]any{"inner": "{{text}}"},
		"limit":    float64(5),
	}

	got := r.ResolveObject(params)

	if got["greeting"] != "Hi Alice" {
		t.Errorf("greeting = %v", got["greeting"])
	}
	if got["age"] != float64(30) {
		t.Errorf("age = %#v", got["age"])
	}
	nested := got["nested"].(map[string]any)
	if nested["inner"] != "{{text}}" {
		t.Errorf("nested values must not be resolved, got %v", nested["inner"])
	}
	if got["limit"] != float64(5) {
		t.Errorf("limit = %#v", got["limit"])
	}

	// Исходные параметры не изменились
	if params["greeting"] != "Hi {{start.user.name}}" {
		t.Error("ResolveObject must not modify its input")
	}
}

func TestResolveText(t *testing.T) {
	r := NewResolver(testOutputs())
	if got := r.ResolveText("{{count}}"); got != "3" {
		t.Errorf("expected '3', got %q", got)
	}
}

func TestHasPlaceholders(t *testing.T) {
	if !HasPlaceholders("a {{b}}") {
		t.Error("expected placeholder")
	}
	if HasPlaceholders("a { b }") {
		t.Error("unexpected placeholder")
	}
}

func TestMapSource(t *testing.T) {
	r := NewResolver(MapSource{"n": map[string]any{"v": "ok"}})
	if got := r.Resolve("{{n.v}}"); got != "ok" {
		t.Errorf("expected ok, got %#v", got)
	}
}
