package analysis

import (
	"testing"

	"hoteval/internal/binding"
	"hoteval/internal/parser"
	"hoteval/internal/value"
)

func analyze(t *testing.T, source string, setup func(*binding.Table)) (*Tree, error) {
	t.Helper()
	table := binding.New()
	if setup != nil {
		setup(table)
	}
	root, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("parse(%q) failed: %v", source, err)
	}
	return FromAST(root, table)
}

func TestLiteralDefaulting(t *testing.T) {
	tree, err := analyze(t, "1 + 2", nil)
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}
	got, err := tree.GetExprType()
	if err != nil || got != value.I32 {
		t.Errorf("got %v, %v, want i32", got, err)
	}
}

func TestFloatLiteralDefaulting(t *testing.T) {
	tree, err := analyze(t, "1.5 + 2.5", nil)
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}
	got, err := tree.GetExprType()
	if err != nil || got != value.F64 {
		t.Errorf("got %v, %v, want f64", got, err)
	}
}

func TestVariableDrivesLiteralType(t *testing.T) {
	tree, err := analyze(t, "x + 1", func(table *binding.Table) {
		_ = table.AddVariable("x", value.U16)
	})
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}
	got, err := tree.GetExprType()
	if err != nil || got != value.U16 {
		t.Errorf("got %v, %v, want u16", got, err)
	}
}

func TestComparisonResolvesToBool(t *testing.T) {
	tree, err := analyze(t, "1 < 2", nil)
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}
	got, err := tree.GetExprType()
	if err != nil || got != value.Bool {
		t.Errorf("got %v, %v, want bool", got, err)
	}
}

func TestTernaryWidensBranches(t *testing.T) {
	tree, err := analyze(t, "1 < 2 ? x : 1", func(table *binding.Table) {
		_ = table.AddVariable("x", value.U16)
	})
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}
	got, err := tree.GetExprType()
	if err != nil || got != value.U16 {
		t.Errorf("got %v, %v, want u16", got, err)
	}
}

func TestNegateRequiresSignedCounterpart(t *testing.T) {
	_, err := analyze(t, "-x", func(table *binding.Table) {
		_ = table.AddVariable("x", value.USize)
	})
	if err == nil {
		t.Fatal("expected negating a usize variable to fail (no signed counterpart)")
	}
}

func TestUnknownBindingFails(t *testing.T) {
	_, err := analyze(t, "y + 1", nil)
	if err == nil {
		t.Fatal("expected an unknown binding to fail analysis")
	}
	if aErr, ok := err.(*Error); !ok || aErr.Kind != ErrUnknownBinding {
		t.Errorf("got %v, want ErrUnknownBinding", err)
	}
}

func TestCallingAVariableFails(t *testing.T) {
	_, err := analyze(t, "x()", func(table *binding.Table) {
		_ = table.AddVariable("x", value.I32)
	})
	if err == nil {
		t.Fatal("expected calling a variable binding to fail")
	}
	if aErr, ok := err.(*Error); !ok || aErr.Kind != ErrBadBindingKind {
		t.Errorf("got %v, want ErrBadBindingKind", err)
	}
}

func TestFunctionCallArgcMismatch(t *testing.T) {
	_, err := analyze(t, "f(1, 2)", func(table *binding.Table) {
		_ = binding.AddFunction1[int32, int32](table, "f", func(a int32) int32 { return a })
	})
	if err == nil {
		t.Fatal("expected argument count mismatch to fail")
	}
	if aErr, ok := err.(*Error); !ok || aErr.Kind != ErrBadArguments {
		t.Errorf("got %v, want ErrBadArguments", err)
	}
}

func TestFunctionCallWithMappedArgsOnlyCountsParameterArgs(t *testing.T) {
	tree, err := analyze(t, "f(2)", func(table *binding.Table) {
		idx := table.AddHiddenState(value.I32)
		err := binding.AddFunction3Map[int32, int32, int32, int32](table, "f",
			func(a, b, c int32) int32 { return a + b + c },
			binding.ConstArg(value.New(int32(1))), binding.Param[int32](), binding.HiddenStateArg(idx))
		if err != nil {
			t.Fatalf("AddFunction3Map failed: %v", err)
		}
	})
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}
	got, err := tree.GetExprType()
	if err != nil || got != value.I32 {
		t.Errorf("got %v, %v, want i32", got, err)
	}
}

func TestConstBindingResolvesAsTypedValue(t *testing.T) {
	tree, err := analyze(t, "limit + 1", func(table *binding.Table) {
		_ = binding.AddConst(table, "limit", int32(10))
	})
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}
	got, err := tree.GetExprType()
	if err != nil || got != value.I32 {
		t.Errorf("got %v, %v, want i32", got, err)
	}
}
