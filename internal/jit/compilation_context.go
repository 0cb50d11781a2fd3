package jit

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"hoteval/internal/analysis"
	"hoteval/internal/ast"
	"hoteval/internal/binding"
	"hoteval/internal/codegen"
	"hoteval/internal/parser"
	"hoteval/internal/slab"
)

// CompilationContext compiles a stream of expressions against a shared LLVM
// context, each into its own module and function so that CompiledExpressions
// built from it can be freed independently.
type CompilationContext struct {
	llvmCtx   llvm.Context
	compCtxID int
	next      int
}

// CompileAnalysedAST lowers an already-analyzed Tree (and the Slab it was
// laid out against) to LLVM IR, JIT-compiles it and returns a callable
// CompiledExpression.
func (cc *CompilationContext) CompileAnalysedAST(tree *analysis.Tree, table *binding.Table, sl *slab.Slab) (*CompiledExpression, error) {
	id := cc.next
	cc.next++

	moduleName := fmt.Sprintf("hot_eval_module_%d_%d", cc.compCtxID, id)
	fnName := fmt.Sprintf("hot_eval_fn_%d_%d", cc.compCtxID, id)

	module := cc.llvmCtx.NewModule(moduleName)
	builder := cc.llvmCtx.NewBuilder()
	defer builder.Dispose()

	retType, err := tree.GetExprType()
	if err != nil {
		return nil, err
	}

	fnType := llvm.FunctionType(codegen.FromValueType(retType).LLVMType(cc.llvmCtx), nil, false)
	fn := llvm.AddFunction(module, fnName, fnType)
	entry := llvm.AddBasicBlock(fn, "entry")
	builder.SetInsertPointAtEnd(entry)

	result, resultType, err := codegen.Build(cc.llvmCtx, builder, module, fn, tree, table, sl)
	if err != nil {
		return nil, err
	}
	builder.CreateRet(result)

	engineOpts := llvm.NewMCJITCompilerOptions()
	engineOpts.OptLevel = 3
	engine, err := llvm.NewMCJITCompiler(module, engineOpts)
	if err != nil {
		return nil, err
	}

	addr := engine.GetFunctionAddress(fnName)
	return &CompiledExpression{
		retType: resultType,
		slab:    sl,
		fnAddr:  uintptr(addr),
		engine:  engine,
	}, nil
}

// CompileAST lays out a fresh Slab for table and analyzes root against it
// before compiling.
func (cc *CompilationContext) CompileAST(root *ast.Expression, table *binding.Table) (*CompiledExpression, error) {
	sl := slab.FromTable(table)
	tree, err := analysis.FromAST(root, table)
	if err != nil {
		return nil, err
	}
	return cc.CompileAnalysedAST(tree, table, sl)
}

// CompileSource parses src and compiles it against table.
func (cc *CompilationContext) CompileSource(src string, table *binding.Table) (*CompiledExpression, error) {
	root, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}
	return cc.CompileAST(root, table)
}
