// Package jit ties codegen, analysis and the slab together into the public
// compile-and-run surface: a JITContext owns one LLVM context and hands out
// CompilationContexts, each of which lowers one expression at a time into
// its own module/function pair and a runnable CompiledExpression.
package jit

import (
	"tinygo.org/x/go-llvm"
)

// JITContext owns the process-wide LLVM context and MCJIT link-in. A
// process only needs one; original_source's own JITContext::new carries a
// comment calling LinkInMCJIT a required workaround for a segfault in
// LTO builds, so it stays a one-time call gated behind a package-level flag
// rather than something every CompilationContext repeats.
type JITContext struct {
	llvmCtx llvm.Context
	next    int
}

var mcjitLinked = false

// NewJITContext creates a fresh LLVM context and ensures the native target
// and the MCJIT backend are initialized exactly once per process.
func NewJITContext() *JITContext {
	if !mcjitLinked {
		llvm.LinkInMCJIT()
		llvm.InitializeNativeTarget()
		llvm.InitializeNativeAsmPrinter()
		mcjitLinked = true
	}
	return &JITContext{llvmCtx: llvm.NewContext()}
}

// MakeCompilationContext hands out a new CompilationContext sharing this
// JITContext's LLVM context, tagged with a unique id used to keep every
// compiled module's and function's name globally unique (spec.md §4.4).
func (j *JITContext) MakeCompilationContext() *CompilationContext {
	id := j.next
	j.next++
	return &CompilationContext{llvmCtx: j.llvmCtx, compCtxID: id}
}

// Dispose releases the underlying LLVM context. Every CompiledExpression
// produced by a CompilationContext made from this JITContext must be
// disposed first, since each keeps its own execution engine alive against
// the same context.
func (j *JITContext) Dispose() {
	j.llvmCtx.Dispose()
}
