// Package binding implements the Binding/Table model a Table hands to
// semantic analysis and code generation: named consts, variables, hidden
// states and host functions available to a compiled expression.
package binding

import "hoteval/internal/value"

// BindingKind discriminates the three things a name in a Table can refer to.
type BindingKind uint8

const (
	KindConst BindingKind = iota
	KindVariable
	KindFunction
)

// Binding is what a name in a Table resolves to.
type Binding struct {
	Kind BindingKind

	// KindConst
	ConstValue value.Value

	// KindVariable
	VarType value.ValueType

	// KindFunction
	FuncRetType value.ValueType
	FuncParams  []BindingFunctionParameter
	FuncPtr     uintptr
}

// ParamKind discriminates how a function binding's parameter is fed at call
// time.
type ParamKind uint8

const (
	// ParamParameter is filled from the matching positional argument of the
	// FunctionCall AST node.
	ParamParameter ParamKind = iota
	// ParamConstArgument is always the same baked-in constant, regardless of
	// what the call site writes.
	ParamConstArgument
	// ParamHiddenStateArgument is read from a Slab hidden-state slot at call
	// time, optionally cast to a different type first.
	ParamHiddenStateArgument
)

// BindingFunctionParameter describes one parameter of a host function
// binding.
type BindingFunctionParameter struct {
	Kind ParamKind

	// ParamParameter
	ValueType value.ValueType

	// ParamConstArgument
	ConstValue value.Value

	// ParamHiddenStateArgument
	HiddenStateIdx int
	CastToType     *value.ValueType
}

// Param describes a function parameter fed from the call site's own
// argument list, typed T.
func Param[T value.Numeric]() BindingFunctionParameter {
	return BindingFunctionParameter{Kind: ParamParameter, ValueType: typeOf[T]()}
}

// ConstArg describes a function parameter that is always the same baked-in
// value, regardless of the call site's arguments.
func ConstArg(v value.Value) BindingFunctionParameter {
	return BindingFunctionParameter{Kind: ParamConstArgument, ConstValue: v}
}

// HiddenStateArg describes a function parameter read from a Slab hidden
// state at call time.
func HiddenStateArg(idx int) BindingFunctionParameter {
	return BindingFunctionParameter{Kind: ParamHiddenStateArgument, HiddenStateIdx: idx}
}

// HiddenStateArgCast is HiddenStateArg, with the hidden state's value cast
// to castTo before the call.
func HiddenStateArgCast(idx int, castTo value.ValueType) BindingFunctionParameter {
	return BindingFunctionParameter{Kind: ParamHiddenStateArgument, HiddenStateIdx: idx, CastToType: &castTo}
}

func typeOf[T value.Numeric]() value.ValueType {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return value.U8
	case int8:
		return value.I8
	case uint16:
		return value.U16
	case int16:
		return value.I16
	case uint32:
		return value.U32
	case int32:
		return value.I32
	case uint64:
		return value.U64
	case int64:
		return value.I64
	case uintptr:
		return value.USize
	case float32:
		return value.F32
	case float64:
		return value.F64
	case bool:
		return value.Bool
	default:
		panic("binding: unsupported native function parameter/return type")
	}
}
