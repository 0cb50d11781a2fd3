package binding

import (
	"fmt"

	"hoteval/internal/value"
)

type ErrorKind string

const (
	ErrBindingAlreadyExists   ErrorKind = "BINDING_ALREADY_EXISTS"
	ErrFuncParamBadType       ErrorKind = "FUNC_PARAM_BAD_TYPE"
	ErrFuncHiddenStateMissing ErrorKind = "FUNC_HIDDEN_STATE_MISSING"
)

// Error reports a problem registering a binding into a Table.
type Error struct {
	Kind     ErrorKind
	Name     string
	Expected value.ValueType
	Got      value.ValueType
	Idx      int
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrBindingAlreadyExists:
		return fmt.Sprintf("binding %q already exists", e.Name)
	case ErrFuncParamBadType:
		return fmt.Sprintf("binding %q: parameter expects %s, got mapped argument of type %s", e.Name, e.Expected, e.Got)
	case ErrFuncHiddenStateMissing:
		return fmt.Sprintf("binding %q: no hidden state at index %d", e.Name, e.Idx)
	default:
		return "binding: unknown error"
	}
}
