package jit

import (
	"tinygo.org/x/go-llvm"

	"hoteval/internal/nativecall"
	"hoteval/internal/slab"
	"hoteval/internal/value"
)

// CompiledExpression is a ready-to-run native function bundled with the
// Slab its baked addresses point into. Its exported surface mirrors
// original_source's CompiledExpression enum (one variant per ValueType
// wrapping a zero-argument `unsafe extern "C" fn() -> T`), collapsed into a
// single Go struct since a ValueType tag plus nativecall's per-register-
// class callers does the same job without twelve near-identical cases.
type CompiledExpression struct {
	retType value.ValueType
	slab    *slab.Slab
	fnAddr  uintptr
	engine  llvm.ExecutionEngine
}

// Type is the ValueType the compiled expression evaluates to.
func (e *CompiledExpression) Type() value.ValueType {
	return e.retType
}

// Slab is the backing memory region generated code reads variables and
// hidden states from. Callers write inputs here (slab.SetValue) before
// calling Run.
func (e *CompiledExpression) Slab() *slab.Slab {
	return e.slab
}

// Run invokes the compiled native function and returns its result tagged
// with its resolved ValueType.
func (e *CompiledExpression) Run() value.Value {
	switch e.retType {
	case value.Bool:
		return value.New(nativecall.CallInt(e.fnAddr)&1 != 0)
	case value.U8:
		return value.New(uint8(nativecall.CallInt(e.fnAddr)))
	case value.I8:
		return value.New(int8(nativecall.CallInt(e.fnAddr)))
	case value.U16:
		return value.New(uint16(nativecall.CallInt(e.fnAddr)))
	case value.I16:
		return value.New(int16(nativecall.CallInt(e.fnAddr)))
	case value.U32:
		return value.New(uint32(nativecall.CallInt(e.fnAddr)))
	case value.I32:
		return value.New(int32(nativecall.CallInt(e.fnAddr)))
	case value.U64:
		return value.New(nativecall.CallInt(e.fnAddr))
	case value.I64:
		return value.New(int64(nativecall.CallInt(e.fnAddr)))
	case value.USize:
		return value.New(uintptr(nativecall.CallInt(e.fnAddr)))
	case value.F32:
		return value.New(nativecall.CallF32(e.fnAddr))
	case value.F64:
		return value.New(nativecall.CallF64(e.fnAddr))
	default:
		panic("jit: unreachable value type")
	}
}

// Dispose frees the JIT execution engine (and with it, the module it
// owns). The CompiledExpression must not be Run after this.
func (e *CompiledExpression) Dispose() {
	e.engine.Dispose()
}
