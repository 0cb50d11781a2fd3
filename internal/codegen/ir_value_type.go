package codegen

import (
	"tinygo.org/x/go-llvm"

	"hoteval/internal/value"
)

// IRValueType is the LLVM-level shape a value.ValueType lowers to: every
// integer and Bool type (including USize) is an IRInt of some bit width and
// signedness, every float type is an IRFloat.
type IRValueType struct {
	isFloat  bool
	bits     int
	unsigned bool
}

func irInt(bits int, unsigned bool) IRValueType { return IRValueType{bits: bits, unsigned: unsigned} }
func irFloat(bits int) IRValueType              { return IRValueType{isFloat: true, bits: bits} }

// FromValueType maps a value.ValueType to its IRValueType.
func FromValueType(t value.ValueType) IRValueType {
	switch t {
	case value.Bool:
		return irInt(1, true)
	case value.U8:
		return irInt(8, true)
	case value.I8:
		return irInt(8, false)
	case value.U16:
		return irInt(16, true)
	case value.I16:
		return irInt(16, false)
	case value.U32:
		return irInt(32, true)
	case value.I32:
		return irInt(32, false)
	case value.U64:
		return irInt(64, true)
	case value.I64:
		return irInt(64, false)
	case value.USize:
		return irInt(64, true)
	case value.F32:
		return irFloat(32)
	case value.F64:
		return irFloat(64)
	default:
		panic("codegen: unknown value type")
	}
}

// IsFloat reports whether t lowers to an LLVM floating-point type.
func (t IRValueType) IsFloat() bool { return t.isFloat }

// LLVMType returns the concrete LLVM type t lowers to within ctx.
func (t IRValueType) LLVMType(ctx llvm.Context) llvm.Type {
	if t.isFloat {
		if t.bits == 32 {
			return ctx.FloatType()
		}
		return ctx.DoubleType()
	}
	switch t.bits {
	case 1:
		return ctx.Int1Type()
	case 8:
		return ctx.Int8Type()
	case 16:
		return ctx.Int16Type()
	case 32:
		return ctx.Int32Type()
	default:
		return ctx.Int64Type()
	}
}

// usizeLLVMType returns the LLVM type used for addresses: a 64-bit integer,
// matching USize's lowering, since every baked pointer constant in generated
// code is an inttoptr over this width.
func usizeLLVMType(ctx llvm.Context) llvm.Type {
	return ctx.Int64Type()
}

// fnLLVMType builds the LLVM function type for a host function binding with
// the given parameter and return IRValueTypes.
func fnLLVMType(ctx llvm.Context, ret IRValueType, params []IRValueType) llvm.Type {
	paramTypes := make([]llvm.Type, len(params))
	for i, p := range params {
		paramTypes[i] = p.LLVMType(ctx)
	}
	return llvm.FunctionType(ret.LLVMType(ctx), paramTypes, false)
}
