// Package analysis implements the two-phase bidirectional semantic analyzer:
// it turns an ast.Expression plus a binding.Table into a PackedAnalysisTree,
// a flat post-order slice of nodes where every node's concrete ValueType is
// either known up front or has been resolved by alternating inner→outer and
// outer→inner propagation passes, with a final defaulting pass for literals
// that no context ever pinned down.
package analysis

import (
	"hoteval/internal/ast"
	"hoteval/internal/value"
)

// NodeKind discriminates the shape of a Node, mirroring ast.Kind but with
// Binding split into Variable (TypedValue is reused for a Const binding,
// since a const behaves exactly like a literal from here on).
type NodeKind uint8

const (
	NodeTypedValue NodeKind = iota
	NodeUntypedValue
	NodeFunctionCall
	NodeUnaryOperation
	NodeBinaryOperation
	NodeVariable
	NodeTernary
)

// ArgKind discriminates how a FunctionCall node's argument is supplied.
type ArgKind uint8

const (
	ArgParameter ArgKind = iota
	ArgConstArgument
	ArgHiddenStateArgument
)

// FunctionArgument is one resolved argument of a FunctionCall node.
type FunctionArgument struct {
	Kind ArgKind

	// ArgParameter: NodeIdx is the tree index of the evaluated argument
	// expression; ExpectedType is what the function binding declared for
	// this position.
	NodeIdx      int
	ExpectedType value.ValueType

	// ArgConstArgument
	ConstValue value.Value

	// ArgHiddenStateArgument
	HiddenStateIdx int
	SlabValueType  value.ValueType
	CastToType     *value.ValueType
}

// Node is one entry of a PackedAnalysisTree's flat, post-order node slice.
// ResolvedType is nil exactly when the node's type has not been determined
// yet; if it is still nil once analysis finishes, the expression does not
// compile.
type Node struct {
	ResolvedType *value.ValueType
	ParentIdx    *int
	Kind         NodeKind

	// NodeTypedValue
	TypedValue value.Value

	// NodeUntypedValue
	UntypedValue value.UntypedValue

	// NodeFunctionCall
	FunctionName    string
	FunctionArgs    []FunctionArgument
	FunctionRetType value.ValueType
	FunctionPtr     uintptr

	// NodeUnaryOperation
	UnaryOp  ast.UnaryOperator
	RightIdx int

	// NodeBinaryOperation
	BinaryOp ast.BinaryOperator
	LeftIdx  int
	// RightIdx shared with NodeUnaryOperation above.

	// NodeVariable
	VariableName string

	// NodeTernary
	CondIdx int
	// LeftIdx/RightIdx above are reused as the true/false branches.
}

func intPtr(i int) *int                     { return &i }
func typePtr(t value.ValueType) *value.ValueType { return &t }
