// Package value implements the value type lattice, value representation and
// untyped literal resolution shared by analysis, codegen and the slab.
package value

// ValueType is one of the primitive numeric/boolean types an expression can
// resolve to. Ordering matters: the zero-based constant value doubles as the
// implicit-cast priority (lower widens into higher, never the reverse).
type ValueType uint8

const (
	Bool ValueType = iota
	U8
	I8
	U16
	I16
	U32
	I32
	U64
	I64
	USize
	F32
	F64
)

func (t ValueType) String() string {
	switch t {
	case Bool:
		return "bool"
	case U8:
		return "u8"
	case I8:
		return "i8"
	case U16:
		return "u16"
	case I16:
		return "i16"
	case U32:
		return "u32"
	case I32:
		return "i32"
	case U64:
		return "u64"
	case I64:
		return "i64"
	case USize:
		return "usize"
	case F32:
		return "f32"
	case F64:
		return "f64"
	default:
		return "<invalid value type>"
	}
}

// priority is the implicit-cast ordering. Bool is lowest, f64 is highest.
func (t ValueType) priority() int { return int(t) }

// IsSigned reports whether t is a signed integer or floating-point type.
// Floats are treated as signed: a signed type may never implicitly cast into
// an unsigned one, and floats must behave the same way relative to integers.
func (t ValueType) IsSigned() bool {
	switch t {
	case I8, I16, I32, I64, F32, F64:
		return true
	default:
		return false
	}
}

// IsFloat reports whether t is a floating-point type.
func (t ValueType) IsFloat() bool {
	return t == F32 || t == F64
}

// IsInteger reports whether t is an integer type (signed or unsigned).
func (t ValueType) IsInteger() bool {
	return t != Bool && !t.IsFloat()
}

// CanImplicitCastTo reports whether a value of type t may be implicitly
// widened to type to: strictly higher priority, and never signed-to-unsigned
// regardless of priority.
func (t ValueType) CanImplicitCastTo(to ValueType) bool {
	if t == to {
		return true
	}
	if t.priority() >= to.priority() {
		return false
	}
	if t.IsSigned() && !to.IsSigned() {
		return false
	}
	return true
}

// Widen returns the common type that both a and b can implicitly cast to,
// or a CommonError if no such type exists.
func Widen(a, b ValueType) (ValueType, error) {
	if a == b {
		return a, nil
	}
	lo, hi := a, b
	if lo.priority() > hi.priority() {
		lo, hi = hi, lo
	}
	if lo.CanImplicitCastTo(hi) {
		return hi, nil
	}
	return 0, &CommonError{Kind: ErrCannotImplicitCast, From: lo, To: hi}
}

// WidenOptionalGreedy widens a and b when both are known, and otherwise
// returns whichever of the two is known (nil if neither is). Used when an
// absent hint should not block propagation of the one that is present.
func WidenOptionalGreedy(a, b *ValueType) (*ValueType, error) {
	if a != nil && b != nil {
		w, err := Widen(*a, *b)
		if err != nil {
			return nil, err
		}
		return &w, nil
	}
	if a != nil {
		return a, nil
	}
	return b, nil
}

// WidenOptionalNonGreedy widens a and b only when both are known; if either
// is absent the result is absent too. Used when propagating a hint requires
// agreement from both sides rather than falling back to a single side.
func WidenOptionalNonGreedy(a, b *ValueType) (*ValueType, error) {
	if a == nil || b == nil {
		return nil, nil
	}
	w, err := Widen(*a, *b)
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ToSigned returns the signed counterpart of an unsigned integer type. Bool
// and USize have no signed counterpart and produce a CommonError. Already
// signed types (and floats) are returned unchanged.
func ToSigned(t ValueType) (ValueType, error) {
	switch t {
	case Bool, USize:
		return 0, &CommonError{Kind: ErrCannotMakeSigned, From: t}
	case U8:
		return I8, nil
	case U16:
		return I16, nil
	case U32:
		return I32, nil
	case U64:
		return I64, nil
	default:
		return t, nil
	}
}

// ToSignedOptional applies ToSigned when t is known, passing through nil
// otherwise.
func ToSignedOptional(t *ValueType) (*ValueType, error) {
	if t == nil {
		return nil, nil
	}
	s, err := ToSigned(*t)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
