package codegen

import (
	"fmt"

	"tinygo.org/x/go-llvm"

	"hoteval/internal/analysis"
	"hoteval/internal/binding"
	"hoteval/internal/slab"
	"hoteval/internal/value"
)

// Context bundles the LLVM handles and host lookup tables a single Build
// call needs. It is scoped to one CompilationContext's module/function pair
// and discarded once the function is built.
type Context struct {
	llvmCtx llvm.Context
	builder llvm.Builder
	module  llvm.Module
	fn      llvm.Value
	table   *binding.Table
	slab    *slab.Slab

	blockSeq int
}

func newContext(llvmCtx llvm.Context, builder llvm.Builder, module llvm.Module, fn llvm.Value, table *binding.Table, sl *slab.Slab) *Context {
	return &Context{
		llvmCtx: llvmCtx,
		builder: builder,
		module:  module,
		fn:      fn,
		table:   table,
		slab:    sl,
	}
}

func (c *Context) nextBlockName(prefix string) string {
	c.blockSeq++
	return fmt.Sprintf("%s.%d", prefix, c.blockSeq)
}

// usizeConst bakes a raw address as an i64 constant, for later inttoptr.
func (c *Context) usizeConst(addr uintptr) llvm.Value {
	return llvm.ConstInt(usizeLLVMType(c.llvmCtx), uint64(addr), false)
}

// Build lowers tree's root, the last entry of its flat node slice,
// recursing into child indices on demand rather than walking the slice
// left to right. Recursion (not a linear pass) is what lets LogicalAnd,
// LogicalOr and Ternary only emit the conditional branch they actually
// take through, instead of eagerly evaluating both sides first.
func Build(llvmCtx llvm.Context, builder llvm.Builder, module llvm.Module, fn llvm.Value, tree *analysis.Tree, table *binding.Table, sl *slab.Slab) (llvm.Value, value.ValueType, error) {
	if len(tree.Nodes) == 0 {
		return llvm.Value{}, 0, &Error{Kind: ErrUnexpectedValue}
	}
	c := newContext(llvmCtx, builder, module, fn, table, sl)
	return c.buildNode(tree, len(tree.Nodes)-1)
}
