package value

import "fmt"

// Value is a fully-typed resolved value: a ValueType tag plus a payload of
// the corresponding native Go type (bool, uintN/intN, float32/float64).
type Value struct {
	Type    ValueType
	payload any
}

// Numeric is the set of Go primitive types a Value can carry.
type Numeric interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr |
		~int8 | ~int16 | ~int32 | ~int64 |
		~float32 | ~float64 | ~bool
}

// New builds a Value from a native Go primitive, tagging it with the
// matching ValueType.
func New[T Numeric](v T) Value {
	switch x := any(v).(type) {
	case uint8:
		return Value{Type: U8, payload: x}
	case int8:
		return Value{Type: I8, payload: x}
	case uint16:
		return Value{Type: U16, payload: x}
	case int16:
		return Value{Type: I16, payload: x}
	case uint32:
		return Value{Type: U32, payload: x}
	case int32:
		return Value{Type: I32, payload: x}
	case uint64:
		return Value{Type: U64, payload: x}
	case int64:
		return Value{Type: I64, payload: x}
	case uintptr:
		return Value{Type: USize, payload: x}
	case float32:
		return Value{Type: F32, payload: x}
	case float64:
		return Value{Type: F64, payload: x}
	case bool:
		return Value{Type: Bool, payload: x}
	default:
		panic(fmt.Sprintf("value: unsupported payload type %T", v))
	}
}

func (v Value) U8() uint8       { return v.payload.(uint8) }
func (v Value) I8() int8        { return v.payload.(int8) }
func (v Value) U16() uint16     { return v.payload.(uint16) }
func (v Value) I16() int16      { return v.payload.(int16) }
func (v Value) U32() uint32     { return v.payload.(uint32) }
func (v Value) I32() int32      { return v.payload.(int32) }
func (v Value) U64() uint64     { return v.payload.(uint64) }
func (v Value) I64() int64      { return v.payload.(int64) }
func (v Value) USize() uintptr  { return v.payload.(uintptr) }
func (v Value) F32() float32    { return v.payload.(float32) }
func (v Value) F64() float64    { return v.payload.(float64) }
func (v Value) Bool() bool      { return v.payload.(bool) }

// AsFloat64 widens any numeric payload to float64, for diagnostics and for
// feeding raw float constants to the code generator.
func (v Value) AsFloat64() float64 {
	switch v.Type {
	case Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case U8:
		return float64(v.U8())
	case I8:
		return float64(v.I8())
	case U16:
		return float64(v.U16())
	case I16:
		return float64(v.I16())
	case U32:
		return float64(v.U32())
	case I32:
		return float64(v.I32())
	case U64:
		return float64(v.U64())
	case I64:
		return float64(v.I64())
	case USize:
		return float64(v.USize())
	case F32:
		return float64(v.F32())
	case F64:
		return v.F64()
	default:
		panic("value: unreachable value type")
	}
}

// AsUint64 widens any integer or bool payload to its raw bit pattern in a
// uint64, for feeding integer constants to the code generator. Not valid for
// floats.
func (v Value) AsUint64() uint64 {
	switch v.Type {
	case Bool:
		if v.Bool() {
			return 1
		}
		return 0
	case U8:
		return uint64(v.U8())
	case I8:
		return uint64(uint8(v.I8()))
	case U16:
		return uint64(v.U16())
	case I16:
		return uint64(uint16(v.I16()))
	case U32:
		return uint64(v.U32())
	case I32:
		return uint64(uint32(v.I32()))
	case U64:
		return v.U64()
	case I64:
		return uint64(v.I64())
	case USize:
		return uint64(v.USize())
	default:
		panic("value: AsUint64 called on a non-integer value type")
	}
}

func (v Value) String() string {
	switch v.Type {
	case Bool:
		return fmt.Sprintf("%t", v.Bool())
	case F32, F64:
		return fmt.Sprintf("%g%s", v.AsFloat64(), v.Type)
	default:
		return fmt.Sprintf("%d%s", v.payload, v.Type)
	}
}
