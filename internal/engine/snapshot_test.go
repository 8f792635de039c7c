package engine

import (
	"reflect"
	"testing"

	"github.com/shaiso/graphrun/internal/domain"
)

func TestStripContext_RemovesNestedContext(t *testing.T) {
	in := map[string]any{
		"value":   "x",
		"context": map[string]any{"start": "big"},
		"nested": map[string]any{
			"context": "drop",
			"keep":    float64(1),
		},
		"list": []any{
			map[string]any{"context": 1, "id": "a"},
		},
	}

	got := StripContext(in)

	want := map[string]any{
		"value":  "x",
		"nested": map[string]any{"keep": float64(1)},
		"list":   []any{map[string]any{"id": "a"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StripContext() = %#v, want %#v", got, want)
	}

	if _, ok := in["context"]; !ok {
		t.Error("source value must not be modified")
	}
}

func TestStripContext_DeepCopy(t *testing.T) {
	inner := map[string]any{"n": float64(1)}
	in := map[string]any{"inner": inner}

	got := StripContext(in).(map[string]any)
	got["inner"].(map[string]any)["n"] = float64(2)

	if inner["n"] != float64(1) {
		t.Error("snapshot must not share memory with source")
	}
}

func TestStripContext_Struct(t *testing.T) {
	type payload struct {
		Name    string `json:"name"`
		Context string `json:"context"`
	}

	got := StripContext(payload{Name: "a", Context: "b"})
	want := map[string]any{"name": "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("StripContext(struct) = %#v, want %#v", got, want)
	}
}

func TestStripContext_Cycle(t *testing.T) {
	m := map[string]any{"name": "loop"}
	m["self"] = m

	got := StripContext(m).(map[string]any)
	if got["self"] != nil {
		t.Errorf("cyclic reference should become nil, got %#v", got["self"])
	}
	if got["name"] != "loop" {
		t.Error("non-cyclic fields must be kept")
	}
}

func TestSnapshot(t *testing.T) {
	out := domain.NewOutputs()
	out.Set("a", map[string]any{"v": float64(1), "context": map[string]any{"x": 1}})
	out.Set("b", "text")

	snap := Snapshot(out)

	want := map[string]any{
		"a": map[string]any{"v": float64(1)},
		"b": "text",
	}
	if !reflect.DeepEqual(snap, want) {
		t.Errorf("Snapshot() = %#v, want %#v", snap, want)
	}
}
