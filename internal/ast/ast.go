// Package ast defines the expression tree produced by internal/parser and
// consumed by internal/analysis. It carries no types of its own beyond what
// the source text states explicitly (a TypedValue literal) or leaves open
// for analysis to resolve (an UntypedValue literal, a Binding or
// FunctionCall reference).
package ast

import "hoteval/internal/value"

type UnaryOperator uint8

const (
	Negate UnaryOperator = iota
	LogicalNot
)

func (op UnaryOperator) String() string {
	switch op {
	case Negate:
		return "-"
	case LogicalNot:
		return "!"
	default:
		return "<invalid unary operator>"
	}
}

type BinaryOperator uint8

const (
	Mul BinaryOperator = iota
	Div
	Mod
	Add
	Sub
	Equals
	NotEquals
	LesserThanEquals
	GreaterThanEquals
	LesserThan
	GreaterThan
	LogicalAnd
	LogicalOr
)

func (op BinaryOperator) String() string {
	switch op {
	case Mul:
		return "*"
	case Div:
		return "/"
	case Mod:
		return "%"
	case Add:
		return "+"
	case Sub:
		return "-"
	case Equals:
		return "=="
	case NotEquals:
		return "!="
	case LesserThanEquals:
		return "<="
	case GreaterThanEquals:
		return ">="
	case LesserThan:
		return "<"
	case GreaterThan:
		return ">"
	case LogicalAnd:
		return "&&"
	case LogicalOr:
		return "||"
	default:
		return "<invalid binary operator>"
	}
}

// IsComparison reports whether op produces a bool from two operands of the
// same widened type, rather than an operand of that widened type itself.
func (op BinaryOperator) IsComparison() bool {
	switch op {
	case Equals, NotEquals, LesserThanEquals, GreaterThanEquals, LesserThan, GreaterThan:
		return true
	default:
		return false
	}
}

// IsShortCircuit reports whether op is one of the two logical operators
// that must not evaluate their right operand unconditionally.
func (op BinaryOperator) IsShortCircuit() bool {
	return op == LogicalAnd || op == LogicalOr
}

// Kind discriminates the shape of an Expression node.
type Kind uint8

const (
	KindTypedValue Kind = iota
	KindUntypedValue
	KindFunctionCall
	KindUnaryOperation
	KindBinaryOperation
	KindBinding
	KindTernary
)

// Expression is one node of the AST a source expression parses to. Only the
// fields relevant to Kind are populated; this mirrors the shape of
// original_source's tagged enum while staying a single flat Go struct, the
// way the teacher's own internal/parser/ast.go represents expression nodes.
type Expression struct {
	Kind Kind

	// KindTypedValue
	TypedValue value.Value

	// KindUntypedValue
	UntypedValue value.UntypedValue

	// KindFunctionCall
	Name      string
	Arguments []*Expression

	// KindUnaryOperation
	UnaryOp UnaryOperator
	Right   *Expression

	// KindBinaryOperation
	BinaryOp BinaryOperator
	Left     *Expression
	// Right is shared with KindUnaryOperation above.

	// KindBinding uses Name above.

	// KindTernary
	Cond *Expression
	// Left/Right above are reused as the ternary's true/false branches.
}

func TypedValue(v value.Value) *Expression {
	return &Expression{Kind: KindTypedValue, TypedValue: v}
}

func UntypedValueNode(v value.UntypedValue) *Expression {
	return &Expression{Kind: KindUntypedValue, UntypedValue: v}
}

func FunctionCall(name string, args []*Expression) *Expression {
	return &Expression{Kind: KindFunctionCall, Name: name, Arguments: args}
}

func UnaryOperation(op UnaryOperator, right *Expression) *Expression {
	return &Expression{Kind: KindUnaryOperation, UnaryOp: op, Right: right}
}

func BinaryOperation(op BinaryOperator, left, right *Expression) *Expression {
	return &Expression{Kind: KindBinaryOperation, BinaryOp: op, Left: left, Right: right}
}

func Binding(name string) *Expression {
	return &Expression{Kind: KindBinding, Name: name}
}

func Ternary(cond, left, right *Expression) *Expression {
	return &Expression{Kind: KindTernary, Cond: cond, Left: left, Right: right}
}

// Children returns e's direct child expressions in the fixed order
// semantic analysis and code generation both rely on.
func (e *Expression) Children() []*Expression {
	switch e.Kind {
	case KindFunctionCall:
		return e.Arguments
	case KindUnaryOperation:
		return []*Expression{e.Right}
	case KindBinaryOperation:
		return []*Expression{e.Left, e.Right}
	case KindTernary:
		return []*Expression{e.Cond, e.Left, e.Right}
	default:
		return nil
	}
}
