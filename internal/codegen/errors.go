// Package codegen lowers a resolved analysis.Tree to LLVM IR via
// tinygo.org/x/go-llvm, producing a function ready for a JITContext to
// materialize into a callable native function pointer.
package codegen

import (
	"fmt"

	"hoteval/internal/value"
)

type ErrorKind string

const (
	ErrUnexpectedBaseType      ErrorKind = "UNEXPECTED_BASE_TYPE"
	ErrUnexpectedValue         ErrorKind = "UNEXPECTED_VALUE"
	ErrUnknownBinding          ErrorKind = "UNKNOWN_BINDING"
	ErrBadBindingType          ErrorKind = "BAD_BINDING_TYPE"
	ErrBadBindingKind          ErrorKind = "BAD_BINDING_KIND"
	ErrUnknownHiddenState      ErrorKind = "UNKNOWN_HIDDEN_STATE"
)

// Error is codegen's single fail-fast error type. UnexpectedBaseType and
// UnexpectedValue should never surface from a Tree built through
// analysis.FromAST; they exist because the Go type system can't express
// "this IRValue is always an int here" the way the analysis pass already
// guarantees it, so the checks stay as a backstop.
type Error struct {
	Kind     ErrorKind
	Name     string
	IsVar    bool
	Idx      int
	Actual   value.ValueType
	Expected value.ValueType
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrUnexpectedBaseType:
		return "unexpected base type; this is probably a bug"
	case ErrUnexpectedValue:
		return "unexpected generated value shape; this is probably a bug"
	case ErrUnknownBinding:
		return fmt.Sprintf("unknown binding %q", e.Name)
	case ErrBadBindingType:
		return fmt.Sprintf("binding %q has an unexpected type; expected %s, got %s", e.Name, e.Expected, e.Actual)
	case ErrBadBindingKind:
		if e.IsVar {
			return fmt.Sprintf("binding %q is of an unexpected kind; expected function, got variable", e.Name)
		}
		return fmt.Sprintf("binding %q is of an unexpected kind; expected variable, got function", e.Name)
	case ErrUnknownHiddenState:
		return fmt.Sprintf("unknown hidden state %d", e.Idx)
	default:
		return "codegen: unknown error"
	}
}
