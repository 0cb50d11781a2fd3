package value

import "fmt"

// CommonErrorKind enumerates the ways the value-type lattice itself can
// reject an operation, independent of where in the pipeline it happens.
type CommonErrorKind string

const (
	ErrCannotImplicitCast CommonErrorKind = "CANNOT_IMPLICIT_CAST"
	ErrCannotResolve      CommonErrorKind = "CANNOT_RESOLVE"
	ErrCannotMakeSigned   CommonErrorKind = "CANNOT_MAKE_SIGNED"
)

// CommonError is returned by the type-lattice operations in this package.
type CommonError struct {
	Kind        CommonErrorKind
	From        ValueType
	To          ValueType
	ResolveFrom UntypedValue
}

func (e *CommonError) Error() string {
	switch e.Kind {
	case ErrCannotImplicitCast:
		return fmt.Sprintf("cannot implicitly cast %s to %s", e.From, e.To)
	case ErrCannotResolve:
		return fmt.Sprintf("cannot resolve %s to %s", e.ResolveFrom, e.To)
	case ErrCannotMakeSigned:
		return fmt.Sprintf("%s has no signed counterpart", e.From)
	default:
		return "value: unknown error"
	}
}
