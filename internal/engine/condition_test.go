package engine

import (
	"bytes"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/shaiso/graphrun/internal/domain"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		actual   any
		expected string
		want     bool
	}{
		{"equals string", OpEquals, "yes", "yes", true},
		{"equals loose number", OpEquals, float64(5), "5", true},
		{"equals loose padded", OpEquals, float64(5), " 5 ", true},
		{"equals different", OpEquals, "no", "yes", false},
		{"equals bool vs 1", OpEquals, true, "1", true},
		{"equals bool vs true string", OpEquals, true, "true", false},
		{"equals empty vs 0", OpEquals, "", "0", false},
		{"equals nil", OpEquals, nil, "null", false},
		{"not equals", OpNotEquals, "a", "b", true},
		{"not equals loose", OpNotEquals, float64(5), "5", false},
		{"greater than", OpGreaterThan, float64(10), "5", true},
		{"greater than string operand", OpGreaterThan, "10", "9", true},
		{"greater than equal", OpGreaterThan, float64(5), "5", false},
		{"greater than NaN", OpGreaterThan, "abc", "1", false},
		{"less than", OpLessThan, float64(1), "2", true},
		{"less than empty is zero", OpLessThan, "", "1", true},
		{"less than NaN", OpLessThan, "abc", "1", false},
		{"contains", OpContains, "hello world", "world", true},
		{"contains number", OpContains, float64(12345), "234", true},
		{"contains missing", OpContains, "hello", "xyz", false},
		{"not contains", OpNotContains, "hello", "xyz", true},
		{"not contains present", OpNotContains, "hello world", "world", false},
		{"greater or equal same", OpGreaterThanOrEqual, float64(5), "5", true},
		{"greater or equal above", OpGreaterThanOrEqual, "10", "9", true},
		{"greater or equal below", OpGreaterThanOrEqual, float64(4), "5", false},
		{"greater or equal NaN actual", OpGreaterThanOrEqual, "abc", "1", false},
		{"greater or equal NaN expected", OpGreaterThanOrEqual, float64(1), "abc", false},
		{"less or equal same", OpLessThanOrEqual, float64(5), "5", true},
		{"less or equal below", OpLessThanOrEqual, "", "0", true},
		{"less or equal above", OpLessThanOrEqual, float64(6), "5", false},
		{"less or equal NaN actual", OpLessThanOrEqual, "abc", "1", false},
		{"less or equal NaN expected", OpLessThanOrEqual, float64(1), "abc", false},
		{"between inclusive low", OpBetween, float64(1), "1,10", true},
		{"between inclusive high", OpBetween, float64(10), "1,10", true},
		{"between outside", OpBetween, float64(11), "1,10", false},
		{"between spaces", OpBetween, "5", " 1 , 10 ", true},
		{"between no max", OpBetween, float64(5), "1", false},
		{"is empty string", OpIsEmpty, "  ", "", true},
		{"is empty nil", OpIsEmpty, nil, "", true},
		{"is empty value", OpIsEmpty, "x", "", false},
		{"is not empty", OpIsNotEmpty, "x", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := Compare(tt.op, tt.actual, tt.expected)
			if !known {
				t.Fatalf("operator %s should be known", tt.op)
			}
			if got != tt.want {
				t.Errorf("Compare(%s, %#v, %q) = %v, want %v", tt.op, tt.actual, tt.expected, got, tt.want)
			}
		})
	}
}

func TestCompare_UnknownOperator(t *testing.T) {
	got, known := Compare("matches", "a", "a")
	if got || known {
		t.Errorf("expected (false, false), got (%v, %v)", got, known)
	}
}

func TestOperators_AllKnown(t *testing.T) {
	for _, op := range []string{
		OpEquals, OpNotEquals, OpGreaterThan, OpLessThan,
		OpGreaterThanOrEqual, OpLessThanOrEqual,
		OpContains, OpNotContains, OpBetween, OpIsEmpty, OpIsNotEmpty,
	} {
		if !IsKnownOperator(op) {
			t.Errorf("operator %s should be known", op)
		}
	}
	if len(Operators()) != 11 {
		t.Errorf("expected 11 operators, got %d", len(Operators()))
	}
}

func TestCompareMissing(t *testing.T) {
	tests := []struct {
		name   string
		op     string
		actual any
		want   bool
	}{
		{"equals string", OpEquals, "hello", false},
		{"equals empty", OpEquals, "", false},
		{"equals nil", OpEquals, nil, true},
		{"not equals string", OpNotEquals, "hello", true},
		{"not equals nil", OpNotEquals, nil, false},
		{"contains", OpContains, "hello", false},
		{"contains empty", OpContains, "", false},
		{"not contains", OpNotContains, "hello", true},
		{"greater than", OpGreaterThan, float64(1), false},
		{"less than", OpLessThan, float64(1), false},
		{"greater or equal", OpGreaterThanOrEqual, float64(0), false},
		{"less or equal", OpLessThanOrEqual, float64(0), false},
		{"between", OpBetween, float64(5), false},
		{"is empty", OpIsEmpty, "", true},
		{"is not empty", OpIsNotEmpty, "x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := CompareMissing(tt.op, tt.actual)
			if !known {
				t.Fatalf("operator %s should be known", tt.op)
			}
			if got != tt.want {
				t.Errorf("CompareMissing(%s, %#v) = %v, want %v", tt.op, tt.actual, got, tt.want)
			}
		})
	}

	if got, known := CompareMissing("matches", "a"); got || known {
		t.Errorf("expected (false, false), got (%v, %v)", got, known)
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	out := domain.NewOutputs()
	out.Set("check", map[string]any{"status": "ok", "score": float64(75), "msg": "hello"})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	ev := NewEvaluator(NewResolver(out), logger)

	tests := []struct {
		name string
		edge domain.Edge
		want bool
	}{
		{
			name: "unconditional",
			edge: domain.Edge{ID: "e1"},
			want: true,
		},
		{
			name: "equals from template",
			edge: domain.Edge{ID: "e2", Condition: OpEquals, If: "{{check.status}}", Value: ptr("ok")},
			want: true,
		},
		{
			name: "between from template",
			edge: domain.Edge{ID: "e3", Condition: OpBetween, If: "{{check.score}}", Value: ptr("50,80")},
			want: true,
		},
		{
			name: "missing field compares as empty",
			edge: domain.Edge{ID: "e4", Condition: OpEquals, If: "{{check.ghost}}", Value: ptr("")},
			want: true,
		},
		{
			name: "greater or equal from template",
			edge: domain.Edge{ID: "e6", Condition: OpGreaterThanOrEqual, If: "{{check.score}}", Value: ptr("75")},
			want: true,
		},
		{
			name: "not contains from template",
			edge: domain.Edge{ID: "e7", Condition: OpNotContains, If: "{{check.msg}}", Value: ptr("bye")},
			want: true,
		},
		{
			name: "contains without value",
			edge: domain.Edge{ID: "e8", Condition: OpContains, If: "{{check.msg}}"},
			want: false,
		},
		{
			name: "contains without value on missing field",
			edge: domain.Edge{ID: "e9", Condition: OpContains, If: "{{check.ghost}}"},
			want: false,
		},
		{
			name: "equals without value",
			edge: domain.Edge{ID: "e10", Condition: OpEquals, If: "{{check.ghost}}"},
			want: false,
		},
		{
			name: "not equals without value",
			edge: domain.Edge{ID: "e11", Condition: OpNotEquals, If: "{{check.msg}}"},
			want: true,
		},
		{
			name: "unknown operator",
			edge: domain.Edge{ID: "e5", Condition: "regex", If: "x", Value: ptr("x")},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ev.Evaluate(&tt.edge, nil); got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}

	if !strings.Contains(logs.String(), "unknown condition operator") {
		t.Error("unknown operator should be logged")
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"42", 42},
		{"  3.5 ", 3.5},
		{"", 0},
		{"   ", 0},
		{nil, 0},
		{true, 1},
		{false, 0},
		{"0x1F", 31},
		{"0b101", 5},
		{"1e3", 1000},
		{".5", 0.5},
		{"-7", -7},
		{"Infinity", math.Inf(1)},
		{int64(9), 9},
	}

	for _, tt := range tests {
		if got := ToNumber(tt.in); got != tt.want {
			t.Errorf("ToNumber(%#v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, in := range []any{"abc", "12px", "1,5", map[string]any{}, []any{1, 2}} {
		if got := ToNumber(in); !math.IsNaN(got) {
			t.Errorf("ToNumber(%#v) = %v, want NaN", in, got)
		}
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, "null"},
		{"s", "s"},
		{true, "true"},
		{float64(3), "3"},
		{float64(2.5), "2.5"},
		{42, "42"},
		{math.NaN(), "NaN"},
		{[]any{"a", float64(1)}, `["a",1]`},
		{map[string]any{"k": "v"}, `{"k":"v"}`},
	}

	for _, tt := range tests {
		if got := ToString(tt.in); got != tt.want {
			t.Errorf("ToString(%#v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLooseEquals(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{"5", float64(5), true},
		{float64(0), "", true},
		{false, "0", true},
		{true, "true", false},
		{nil, nil, true},
		{nil, "", false},
		{map[string]any{"a": float64(1)}, `{"a":1}`, true},
		{math.NaN(), math.NaN(), false},
		{1, float64(1), true},
	}

	for _, tt := range tests {
		if got := LooseEquals(tt.a, tt.b); got != tt.want {
			t.Errorf("LooseEquals(%#v, %#v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{"3", 3, true},
		{"  12abc", 12, true},
		{"3.9", 3, true},
		{"-2", -2, true},
		{"0x10", 16, true},
		{float64(7), 7, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"", 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		got, ok := ParseInt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseInt(%#v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func ptr(s string) *string { return &s }
