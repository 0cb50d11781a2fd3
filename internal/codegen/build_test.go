package codegen_test

import (
	"fmt"
	"testing"

	"tinygo.org/x/go-llvm"

	"hoteval/internal/analysis"
	"hoteval/internal/binding"
	"hoteval/internal/codegen"
	"hoteval/internal/nativecall"
	"hoteval/internal/parser"
	"hoteval/internal/slab"
	"hoteval/internal/value"
)

var mcjitLinked = false

// buildAndRun parses source, analyzes it against table, lowers it through
// Build and JIT-runs the result, bypassing the internal/jit package entirely
// so this exercises codegen.Build in isolation.
func buildAndRun(t *testing.T, source string, table *binding.Table) (value.Value, *slab.Slab) {
	t.Helper()
	if !mcjitLinked {
		llvm.LinkInMCJIT()
		llvm.InitializeNativeTarget()
		llvm.InitializeNativeAsmPrinter()
		mcjitLinked = true
	}

	llvmCtx := llvm.NewContext()
	defer llvmCtx.Dispose()

	root, err := parser.Parse(source)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", source, err)
	}

	sl := slab.FromTable(table)
	tree, err := analysis.FromAST(root, table)
	if err != nil {
		t.Fatalf("FromAST(%q) failed: %v", source, err)
	}

	retType, err := tree.GetExprType()
	if err != nil {
		t.Fatalf("GetExprType(%q) failed: %v", source, err)
	}

	module := llvmCtx.NewModule("codegen_build_test")
	builder := llvmCtx.NewBuilder()
	defer builder.Dispose()

	fnName := fmt.Sprintf("fn_%s", t.Name())
	fnType := llvm.FunctionType(codegen.FromValueType(retType).LLVMType(llvmCtx), nil, false)
	fn := llvm.AddFunction(module, fnName, fnType)
	entry := llvm.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)

	result, resultType, err := codegen.Build(llvmCtx, builder, module, fn, tree, table, sl)
	if err != nil {
		t.Fatalf("Build(%q) failed: %v", source, err)
	}
	builder.CreateRet(result)

	engineOpts := llvm.NewMCJITCompilerOptions()
	engineOpts.OptLevel = 3
	engine, err := llvm.NewMCJITCompiler(module, engineOpts)
	if err != nil {
		t.Fatalf("NewMCJITCompiler(%q) failed: %v", source, err)
	}
	defer engine.Dispose()

	addr := uintptr(engine.GetFunctionAddress(fnName))

	var got value.Value
	switch resultType {
	case value.Bool:
		got = value.New(nativecall.CallInt(addr)&1 != 0)
	case value.F32:
		got = value.New(nativecall.CallF32(addr))
	case value.F64:
		got = value.New(nativecall.CallF64(addr))
	case value.I32:
		got = value.New(int32(nativecall.CallInt(addr)))
	case value.U32:
		got = value.New(uint32(nativecall.CallInt(addr)))
	case value.I64:
		got = value.New(int64(nativecall.CallInt(addr)))
	case value.U64:
		got = value.New(nativecall.CallInt(addr))
	default:
		t.Fatalf("buildAndRun: unhandled result type %v", resultType)
	}
	return got, sl
}

func TestBuildArithmeticAndComparison(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   value.Value
	}{
		{"add", "2 + 3", value.New(int32(5))},
		{"mul-precedence", "2 + 3 * 4", value.New(int32(14))},
		{"comparison-true", "4 > 3", value.New(true)},
		{"comparison-false", "4 < 3", value.New(false)},
		{"float-div", "7.0 / 2.0", value.New(3.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := buildAndRun(t, tt.source, binding.New())
			if got.Type != tt.want.Type || got.String() != tt.want.String() {
				t.Errorf("%q => %s, want %s", tt.source, got, tt.want)
			}
		})
	}
}

// TestBuildVariableTypeMismatchFails proves the NodeVariable type-check
// added to buildNode: a Slab binding's registered ValueType must agree with
// the Tree's resolved type for that variable, or BadBindingType fires.
func TestBuildVariableTypeMismatchFails(t *testing.T) {
	table := binding.New()
	if err := table.AddVariable("x", value.I32); err != nil {
		t.Fatalf("AddVariable failed: %v", err)
	}

	sl := slab.FromTable(table)
	root, err := parser.Parse("x + 1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	tree, err := analysis.FromAST(root, table)
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}

	// Simulate a Slab laid out against a stale Table where x had a different
	// type than the Tree now resolves it to.
	for i := range tree.Nodes {
		if tree.Nodes[i].Kind == analysis.NodeVariable {
			mismatched := value.F64
			tree.Nodes[i].ResolvedType = &mismatched
		}
	}

	llvmCtx := llvm.NewContext()
	defer llvmCtx.Dispose()
	module := llvmCtx.NewModule("codegen_mismatch_test")
	builder := llvmCtx.NewBuilder()
	defer builder.Dispose()
	fnType := llvm.FunctionType(llvmCtx.Int32Type(), nil, false)
	fn := llvm.AddFunction(module, "fn_mismatch", fnType)
	entry := llvm.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)

	_, _, err = codegen.Build(llvmCtx, builder, module, fn, tree, table, sl)
	if err == nil {
		t.Fatal("expected a BadBindingType error, got nil")
	}
	cgErr, ok := err.(*codegen.Error)
	if !ok {
		t.Fatalf("expected *codegen.Error, got %T", err)
	}
	if cgErr.Kind != codegen.ErrBadBindingType {
		t.Errorf("got error kind %v, want %v", cgErr.Kind, codegen.ErrBadBindingType)
	}
}

func TestBuildUnknownBindingFails(t *testing.T) {
	table := binding.New()
	sl := slab.FromTable(table)
	root, err := parser.Parse("1 + 1")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// Force a NodeVariable referencing a name the Slab never laid out, the
	// same shape a stale Slab/Table pairing would produce.
	tree, err := analysis.FromAST(root, table)
	if err != nil {
		t.Fatalf("FromAST failed: %v", err)
	}

	llvmCtx := llvm.NewContext()
	defer llvmCtx.Dispose()
	module := llvmCtx.NewModule("codegen_unknown_test")
	builder := llvmCtx.NewBuilder()
	defer builder.Dispose()
	fnType := llvm.FunctionType(llvmCtx.Int32Type(), nil, false)
	fn := llvm.AddFunction(module, "fn_unknown", fnType)
	entry := llvm.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)

	resolvedType := value.I32
	tree.Nodes = append(tree.Nodes, analysis.Node{
		Kind:         analysis.NodeVariable,
		VariableName: "missing",
		ResolvedType: &resolvedType,
	})

	_, _, err = codegen.Build(llvmCtx, builder, module, fn, tree, table, sl)
	if err == nil {
		t.Fatal("expected an UnknownBinding error, got nil")
	}
	cgErr, ok := err.(*codegen.Error)
	if !ok {
		t.Fatalf("expected *codegen.Error, got %T", err)
	}
	if cgErr.Kind != codegen.ErrUnknownBinding {
		t.Errorf("got error kind %v, want %v", cgErr.Kind, codegen.ErrUnknownBinding)
	}
}
