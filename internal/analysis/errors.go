package analysis

import "fmt"

type ErrorKind string

const (
	ErrBadAnalysis      ErrorKind = "BAD_ANALYSIS"
	ErrEmptyAST         ErrorKind = "EMPTY_AST"
	ErrUnknownBinding   ErrorKind = "UNKNOWN_BINDING"
	ErrBadBindingKind   ErrorKind = "BAD_BINDING_KIND"
	ErrBadArguments     ErrorKind = "BAD_ARGUMENTS"
	ErrUnknownHiddenState ErrorKind = "UNKNOWN_HIDDEN_STATE"
)

// Error is the analysis phase's single fail-fast error type: every variant
// is either a malformed Table (unknown binding, wrong binding kind, wrong
// argument count) or an internal consistency failure (BadAnalysis, which
// should never surface from a tree built exclusively through FromAST).
type Error struct {
	Kind         ErrorKind
	Name         string
	IsVar        bool
	ExpectedArgc int
	ActualArgc   int
	Idx          int
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrBadAnalysis:
		return "invalid analysis tree; maybe it was manually changed?"
	case ErrEmptyAST:
		return "AST is empty"
	case ErrUnknownBinding:
		return fmt.Sprintf("unknown binding %q", e.Name)
	case ErrBadBindingKind:
		if e.IsVar {
			return fmt.Sprintf("binding %q is of an unexpected kind; expected function, got variable", e.Name)
		}
		return fmt.Sprintf("binding %q is of an unexpected kind; expected variable, got function", e.Name)
	case ErrBadArguments:
		return fmt.Sprintf("function %q expects %d arguments, got %d instead", e.Name, e.ExpectedArgc, e.ActualArgc)
	case ErrUnknownHiddenState:
		return fmt.Sprintf("unknown hidden state %d", e.Idx)
	default:
		return "analysis: unknown error"
	}
}
