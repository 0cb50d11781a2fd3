package jit

import (
	"math"
	"testing"

	"hoteval/internal/binding"
	"hoteval/internal/slab"
	"hoteval/internal/value"
)

func compileAndRun(t *testing.T, source string, setup func(*binding.Table)) value.Value {
	t.Helper()
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	table := binding.New()
	if setup != nil {
		setup(table)
	}

	expr, err := compCtx.CompileSource(source, table)
	if err != nil {
		t.Fatalf("CompileSource(%q) failed: %v", source, err)
	}
	defer expr.Dispose()

	return expr.Run()
}

func TestCompileAndRunArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   value.Value
	}{
		{"addition", "1 + 2", value.New(int32(3))},
		{"precedence", "1 + 2 * 3", value.New(int32(7))},
		{"parens", "(1 + 2) * 3", value.New(int32(9))},
		{"comparison", "3 < 5", value.New(true)},
		{"ternary", "1 < 2 ? 10 : 20", value.New(int32(10))},
		{"negation", "-(1 + 2)", value.New(int32(-3))},
		{"logical-not", "!(1 < 2)", value.New(false)},
		{"float-add", "1.5 + 2.5", value.New(4.0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := compileAndRun(t, tt.source, nil)
			if got.Type != tt.want.Type || got.String() != tt.want.String() {
				t.Errorf("%q => %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

func TestCompileAndRunWithVariable(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	table := binding.New()
	if err := table.AddVariable("x", value.I32); err != nil {
		t.Fatalf("AddVariable failed: %v", err)
	}

	expr, err := compCtx.CompileSource("x * 2", table)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	defer expr.Dispose()

	sl := expr.Slab()
	xIdx, ok := sl.GetBindingIndex("x")
	if !ok {
		t.Fatal("expected a slot for x")
	}

	tests := []struct {
		x    int32
		want int32
	}{
		{5, 10},
		{-3, -6},
		{0, 0},
	}
	for _, tt := range tests {
		slab.SetValue(sl, xIdx, tt.x)
		got := expr.Run()
		if got.I32() != tt.want {
			t.Errorf("x=%d => %d, want %d", tt.x, got.I32(), tt.want)
		}
	}
}

func TestCompileAndRunWithHostFunction(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	table := binding.New()
	if err := binding.AddFunction2[int32, int32, int32](table, "add", func(a, b int32) int32 { return a + b }); err != nil {
		t.Fatalf("AddFunction2 failed: %v", err)
	}

	expr, err := compCtx.CompileSource("add(3, 4)", table)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	defer expr.Dispose()

	if got := expr.Run(); got.I32() != 7 {
		t.Errorf("add(3, 4) => %d, want 7", got.I32())
	}
}

// TestShortCircuitAndSkipsRHS proves Testable Property #6 Scenario E
// (spec.md §7: "tests MUST assert that when LHS is false, RHS is not
// evaluated") for &&: a host function bumps a counter every time it's
// actually called, and a false LHS must leave the counter untouched.
func TestShortCircuitAndSkipsRHS(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	calls := 0
	table := binding.New()
	if err := binding.AddFunction0[bool](table, "bump", func() bool { calls++; return true }); err != nil {
		t.Fatalf("AddFunction0 failed: %v", err)
	}

	expr, err := compCtx.CompileSource("(1 > 2) && bump()", table)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	defer expr.Dispose()

	if got := expr.Run(); got.Bool() != false {
		t.Errorf("(1 > 2) && bump() => %v, want false", got.Bool())
	}
	if calls != 0 {
		t.Errorf("bump() was called %d times, want 0 (RHS must be skipped when LHS is false)", calls)
	}
}

// TestShortCircuitOrSkipsRHS is TestShortCircuitAndSkipsRHS's || twin: a
// true LHS must short-circuit ||, leaving the counter untouched.
func TestShortCircuitOrSkipsRHS(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	calls := 0
	table := binding.New()
	if err := binding.AddFunction0[bool](table, "bump", func() bool { calls++; return false }); err != nil {
		t.Fatalf("AddFunction0 failed: %v", err)
	}

	expr, err := compCtx.CompileSource("(1 < 2) || bump()", table)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	defer expr.Dispose()

	if got := expr.Run(); got.Bool() != true {
		t.Errorf("(1 < 2) || bump() => %v, want true", got.Bool())
	}
	if calls != 0 {
		t.Errorf("bump() was called %d times, want 0 (RHS must be skipped when LHS is true)", calls)
	}
}

// TestShortCircuitEvaluatesRHSWhenNeeded is the mirror check: when the LHS
// does not settle the result, the RHS host function must actually run.
func TestShortCircuitEvaluatesRHSWhenNeeded(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	calls := 0
	table := binding.New()
	if err := binding.AddFunction0[bool](table, "bump", func() bool { calls++; return true }); err != nil {
		t.Fatalf("AddFunction0 failed: %v", err)
	}

	expr, err := compCtx.CompileSource("(1 < 2) && bump()", table)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	defer expr.Dispose()

	if got := expr.Run(); got.Bool() != true {
		t.Errorf("(1 < 2) && bump() => %v, want true", got.Bool())
	}
	if calls != 1 {
		t.Errorf("bump() was called %d times, want 1", calls)
	}
}

// TestCompileAndRunWithNaN covers Testable Property #7 (spec.md §7): IEEE-754
// comparisons against NaN are false for every ordered predicate except !=.
func TestCompileAndRunWithNaN(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	table := binding.New()
	if err := table.AddVariable("x", value.F64); err != nil {
		t.Fatalf("AddVariable failed: %v", err)
	}

	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{"eq-false", "x == x", false},
		{"ne-true", "x != x", true},
		{"lt-false", "x < 1.0", false},
		{"gt-false", "x > 1.0", false},
		{"le-false", "x <= 1.0", false},
		{"ge-false", "x >= 1.0", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := compCtx.CompileSource(tt.source, table)
			if err != nil {
				t.Fatalf("CompileSource(%q) failed: %v", tt.source, err)
			}
			defer expr.Dispose()

			sl := expr.Slab()
			xIdx, ok := sl.GetBindingIndex("x")
			if !ok {
				t.Fatal("expected a slot for x")
			}
			slab.SetValue(sl, xIdx, math.NaN())

			if got := expr.Run(); got.Bool() != tt.want {
				t.Errorf("%q with x=NaN => %v, want %v", tt.source, got.Bool(), tt.want)
			}
		})
	}
}

// TestCompileAndRunMappedArgsWithHiddenState drives Testable Property #6
// Scenario B end to end: a host function binding combines a call-site
// parameter, a baked-in const argument and a hidden-state argument (cast to
// a different type), and the call is actually JIT-compiled and run rather
// than just registered and analyzed.
func TestCompileAndRunMappedArgsWithHiddenState(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	table := binding.New()
	hiddenIdx := table.AddHiddenState(value.U32)

	combo := func(a, constArg, hidden int32) int32 { return a + constArg + hidden }
	err := binding.AddFunction3Map[int32, int32, int32, int32](table, "combo", combo,
		binding.Param[int32](),
		binding.ConstArg(value.New(int32(5))),
		binding.HiddenStateArgCast(hiddenIdx, value.I32),
	)
	if err != nil {
		t.Fatalf("AddFunction3Map failed: %v", err)
	}

	expr, err := compCtx.CompileSource("combo(7)", table)
	if err != nil {
		t.Fatalf("CompileSource failed: %v", err)
	}
	defer expr.Dispose()

	slab.SetValue(expr.Slab(), hiddenIdx, uint32(100))

	// combo(7) => 7 (parameter) + 5 (const) + 100 (hidden state cast to I32)
	if got := expr.Run(); got.I32() != 112 {
		t.Errorf("combo(7) => %d, want 112", got.I32())
	}
}

func TestCompileRejectsMalformedSource(t *testing.T) {
	jitCtx := NewJITContext()
	defer jitCtx.Dispose()
	compCtx := jitCtx.MakeCompilationContext()

	if _, err := compCtx.CompileSource("1 +", binding.New()); err == nil {
		t.Error("expected malformed source to fail to compile")
	}
}
