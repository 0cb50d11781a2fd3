package analysis

import (
	"fmt"
	"os"

	"hoteval/internal/ast"
	"hoteval/internal/binding"
	"hoteval/internal/value"
)

// Tree is a PackedAnalysisTree: a flat, post-order slice of Nodes built
// from an ast.Expression against a binding.Table, with every reachable
// node's ValueType fully resolved.
type Tree struct {
	Nodes []Node
}

// FromAST builds the flat node slice for root against table and runs
// semantic analysis over it. Function bindings' pointers and the declared
// types of hidden states are copied out of table into the Tree's nodes while
// it is built; code generation reads them from the Tree.
func FromAST(root *ast.Expression, table *binding.Table) (*Tree, error) {
	t := &Tree{}
	if _, err := t.astToAnalysisNode(root, table); err != nil {
		return nil, err
	}
	if err := t.semanticAnalysis(); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Tree) push(n Node) int {
	t.Nodes = append(t.Nodes, n)
	return len(t.Nodes) - 1
}

func (t *Tree) astToAnalysisNode(n *ast.Expression, table *binding.Table) (int, error) {
	switch n.Kind {
	case ast.KindTypedValue:
		vt := n.TypedValue.Type
		return t.push(Node{ResolvedType: &vt, Kind: NodeTypedValue, TypedValue: n.TypedValue}), nil

	case ast.KindUntypedValue:
		return t.push(Node{Kind: NodeUntypedValue, UntypedValue: n.UntypedValue}), nil

	case ast.KindFunctionCall:
		b, ok := table.GetBinding(n.Name)
		if !ok {
			return 0, &Error{Kind: ErrUnknownBinding, Name: n.Name}
		}
		if b.Kind != binding.KindFunction {
			return 0, &Error{Kind: ErrBadBindingKind, Name: n.Name, IsVar: b.Kind == binding.KindVariable}
		}

		expectedArgc := 0
		for _, p := range b.FuncParams {
			if p.Kind == binding.ParamParameter {
				expectedArgc++
			}
		}
		if expectedArgc != len(n.Arguments) {
			return 0, &Error{Kind: ErrBadArguments, Name: n.Name, ExpectedArgc: expectedArgc, ActualArgc: len(n.Arguments)}
		}

		args := make([]FunctionArgument, len(b.FuncParams))
		callCursor := 0
		for i, p := range b.FuncParams {
			switch p.Kind {
			case binding.ParamParameter:
				childIdx, err := t.astToAnalysisNode(n.Arguments[callCursor], table)
				if err != nil {
					return 0, err
				}
				args[i] = FunctionArgument{Kind: ArgParameter, NodeIdx: childIdx, ExpectedType: p.ValueType}
				callCursor++
			case binding.ParamConstArgument:
				args[i] = FunctionArgument{Kind: ArgConstArgument, ConstValue: p.ConstValue}
			case binding.ParamHiddenStateArgument:
				declared, ok := table.GetHiddenState(p.HiddenStateIdx)
				if !ok {
					return 0, &Error{Kind: ErrUnknownHiddenState, Idx: p.HiddenStateIdx}
				}
				args[i] = FunctionArgument{
					Kind:           ArgHiddenStateArgument,
					HiddenStateIdx: p.HiddenStateIdx,
					SlabValueType:  declared,
					CastToType:     p.CastToType,
				}
			}
		}

		thisIdx := len(t.Nodes)
		for _, a := range args {
			if a.Kind == ArgParameter {
				t.Nodes[a.NodeIdx].ParentIdx = intPtr(thisIdx)
			}
		}

		retType := b.FuncRetType
		got := t.push(Node{
			ResolvedType:    &retType,
			Kind:            NodeFunctionCall,
			FunctionName:    n.Name,
			FunctionArgs:    args,
			FunctionRetType: b.FuncRetType,
			FunctionPtr:     b.FuncPtr,
		})
		if got != thisIdx {
			panic("analysis: node index drifted while building function call")
		}
		return got, nil

	case ast.KindUnaryOperation:
		rightIdx, err := t.astToAnalysisNode(n.Right, table)
		if err != nil {
			return 0, err
		}
		thisIdx := len(t.Nodes)
		t.Nodes[rightIdx].ParentIdx = intPtr(thisIdx)

		var resolvedType *value.ValueType
		if n.UnaryOp == ast.LogicalNot {
			resolvedType = typePtr(value.Bool)
		}
		return t.push(Node{ResolvedType: resolvedType, Kind: NodeUnaryOperation, UnaryOp: n.UnaryOp, RightIdx: rightIdx}), nil

	case ast.KindBinaryOperation:
		leftIdx, err := t.astToAnalysisNode(n.Left, table)
		if err != nil {
			return 0, err
		}
		rightIdx, err := t.astToAnalysisNode(n.Right, table)
		if err != nil {
			return 0, err
		}
		thisIdx := len(t.Nodes)
		t.Nodes[leftIdx].ParentIdx = intPtr(thisIdx)
		t.Nodes[rightIdx].ParentIdx = intPtr(thisIdx)

		var resolvedType *value.ValueType
		if n.BinaryOp.IsComparison() || n.BinaryOp.IsShortCircuit() {
			resolvedType = typePtr(value.Bool)
		}
		return t.push(Node{ResolvedType: resolvedType, Kind: NodeBinaryOperation, BinaryOp: n.BinaryOp, LeftIdx: leftIdx, RightIdx: rightIdx}), nil

	case ast.KindBinding:
		b, ok := table.GetBinding(n.Name)
		if !ok {
			return 0, &Error{Kind: ErrUnknownBinding, Name: n.Name}
		}
		switch b.Kind {
		case binding.KindConst:
			vt := b.ConstValue.Type
			return t.push(Node{ResolvedType: &vt, Kind: NodeTypedValue, TypedValue: b.ConstValue}), nil
		case binding.KindVariable:
			vt := b.VarType
			return t.push(Node{ResolvedType: &vt, Kind: NodeVariable, VariableName: n.Name}), nil
		default:
			return 0, &Error{Kind: ErrBadBindingKind, Name: n.Name, IsVar: false}
		}

	case ast.KindTernary:
		condIdx, err := t.astToAnalysisNode(n.Cond, table)
		if err != nil {
			return 0, err
		}
		leftIdx, err := t.astToAnalysisNode(n.Left, table)
		if err != nil {
			return 0, err
		}
		rightIdx, err := t.astToAnalysisNode(n.Right, table)
		if err != nil {
			return 0, err
		}
		thisIdx := len(t.Nodes)
		t.Nodes[condIdx].ParentIdx = intPtr(thisIdx)
		t.Nodes[leftIdx].ParentIdx = intPtr(thisIdx)
		t.Nodes[rightIdx].ParentIdx = intPtr(thisIdx)
		return t.push(Node{Kind: NodeTernary, CondIdx: condIdx, LeftIdx: leftIdx, RightIdx: rightIdx}), nil

	default:
		panic("analysis: unreachable ast expression kind")
	}
}

// propagateTypeFromInner tries to resolve node idx's type from its
// already-resolved children. It returns without change when node idx already
// has a type; TypedValue/UntypedValue/FunctionCall/Variable nodes never get
// past that check because they are always resolved at construction time, or
// (for UntypedValue) are leaves no child propagation ever targets as a parent.
func (t *Tree) propagateTypeFromInner(idx int) (bool, error) {
	if t.Nodes[idx].ResolvedType != nil {
		return false, nil
	}

	var newType *value.ValueType
	var err error

	switch t.Nodes[idx].Kind {
	case NodeUnaryOperation:
		n := t.Nodes[idx]
		switch n.UnaryOp {
		case ast.Negate:
			newType, err = value.ToSignedOptional(t.Nodes[n.RightIdx].ResolvedType)
		default:
			panic("analysis: unreachable unary operator in propagateTypeFromInner")
		}
	case NodeBinaryOperation:
		n := t.Nodes[idx]
		switch n.BinaryOp {
		case ast.Mul, ast.Div, ast.Mod, ast.Add, ast.Sub:
			newType, err = value.WidenOptionalNonGreedy(t.Nodes[n.LeftIdx].ResolvedType, t.Nodes[n.RightIdx].ResolvedType)
		default:
			panic("analysis: unreachable binary operator in propagateTypeFromInner")
		}
	case NodeTernary:
		n := t.Nodes[idx]
		newType, err = value.WidenOptionalNonGreedy(t.Nodes[n.LeftIdx].ResolvedType, t.Nodes[n.RightIdx].ResolvedType)
	default:
		panic("analysis: unreachable node kind in propagateTypeFromInner")
	}

	if err != nil {
		return false, err
	}
	if newType == nil {
		return false, nil
	}
	t.Nodes[idx].ResolvedType = newType
	return true, nil
}

func (t *Tree) resolveTypesFromInner() (bool, error) {
	hadChanges := false
	for idx := range t.Nodes {
		if t.Nodes[idx].ResolvedType == nil {
			continue
		}
		parentIdx := t.Nodes[idx].ParentIdx
		if parentIdx == nil {
			continue
		}
		changed, err := t.propagateTypeFromInner(*parentIdx)
		if err != nil {
			return false, err
		}
		hadChanges = changed || hadChanges
	}
	return hadChanges, nil
}

// getChildInputHint asks what type childIdx (a direct child of parentIdx)
// should be given, optionally informed by parentHint (the type the parent
// itself is being asked to resolve to, when called from outer propagation;
// nil when called to merely inspect a resolved parent).
func (t *Tree) getChildInputHint(parentIdx, childIdx int, parentHint *value.ValueType) (*value.ValueType, error) {
	node := &t.Nodes[parentIdx]
	switch node.Kind {
	case NodeTypedValue, NodeUntypedValue, NodeVariable:
		return nil, &Error{Kind: ErrBadAnalysis}

	case NodeFunctionCall:
		for _, a := range node.FunctionArgs {
			if a.Kind == ArgParameter && a.NodeIdx == childIdx {
				return typePtr(a.ExpectedType), nil
			}
		}
		return nil, &Error{Kind: ErrBadAnalysis}

	case NodeUnaryOperation:
		if childIdx != node.RightIdx {
			return nil, &Error{Kind: ErrBadAnalysis}
		}
		switch node.UnaryOp {
		case ast.Negate:
			if parentHint != nil {
				s, err := value.ToSigned(*parentHint)
				if err != nil {
					return nil, err
				}
				return &s, nil
			}
			return value.ToSignedOptional(node.ResolvedType)
		case ast.LogicalNot:
			return typePtr(value.Bool), nil
		default:
			panic("analysis: unreachable unary operator in getChildInputHint")
		}

	case NodeBinaryOperation:
		if childIdx != node.LeftIdx && childIdx != node.RightIdx {
			return nil, &Error{Kind: ErrBadAnalysis}
		}
		switch node.BinaryOp {
		case ast.Mul, ast.Div, ast.Mod, ast.Add, ast.Sub:
			if node.ResolvedType != nil {
				return node.ResolvedType, nil
			}
			if parentHint != nil {
				return parentHint, nil
			}
			return value.WidenOptionalGreedy(t.Nodes[node.LeftIdx].ResolvedType, t.Nodes[node.RightIdx].ResolvedType)
		case ast.Equals, ast.NotEquals, ast.LesserThanEquals, ast.GreaterThanEquals, ast.LesserThan, ast.GreaterThan:
			return value.WidenOptionalGreedy(t.Nodes[node.LeftIdx].ResolvedType, t.Nodes[node.RightIdx].ResolvedType)
		case ast.LogicalAnd, ast.LogicalOr:
			return typePtr(value.Bool), nil
		default:
			panic("analysis: unreachable binary operator in getChildInputHint")
		}

	case NodeTernary:
		if childIdx == node.CondIdx {
			return typePtr(value.Bool), nil
		}
		if childIdx != node.LeftIdx && childIdx != node.RightIdx {
			return nil, &Error{Kind: ErrBadAnalysis}
		}
		return value.WidenOptionalGreedy(t.Nodes[node.LeftIdx].ResolvedType, t.Nodes[node.RightIdx].ResolvedType)

	default:
		panic("analysis: unreachable node kind in getChildInputHint")
	}
}

func (t *Tree) tryPropagateTypeFromOuterToChild(parentIdx, childIdx int, parentHint *value.ValueType) (bool, error) {
	if t.Nodes[childIdx].ResolvedType != nil {
		return false, nil
	}
	hint, err := t.getChildInputHint(parentIdx, childIdx, parentHint)
	if err != nil {
		return false, err
	}
	if hint == nil {
		return false, nil
	}
	return t.propagateTypeFromOuter(childIdx, *hint)
}

func (t *Tree) propagateTypeFromOuter(idx int, hint value.ValueType) (bool, error) {
	if t.Nodes[idx].ResolvedType != nil {
		return false, nil
	}

	switch t.Nodes[idx].Kind {
	case NodeTypedValue, NodeVariable, NodeFunctionCall:
		panic("analysis: unreachable node kind in propagateTypeFromOuter")

	case NodeUntypedValue:
		resolved, err := t.Nodes[idx].UntypedValue.Resolve(hint)
		if err != nil {
			return false, err
		}
		t.Nodes[idx].Kind = NodeTypedValue
		t.Nodes[idx].TypedValue = resolved
		t.Nodes[idx].ResolvedType = typePtr(hint)
		return true, nil

	case NodeUnaryOperation:
		n := t.Nodes[idx]
		switch n.UnaryOp {
		case ast.Negate:
			return t.tryPropagateTypeFromOuterToChild(idx, n.RightIdx, &hint)
		default:
			panic("analysis: unreachable unary operator in propagateTypeFromOuter")
		}

	case NodeBinaryOperation:
		n := t.Nodes[idx]
		switch n.BinaryOp {
		case ast.Mul, ast.Div, ast.Mod, ast.Add, ast.Sub,
			ast.Equals, ast.NotEquals, ast.LesserThanEquals, ast.GreaterThanEquals, ast.LesserThan, ast.GreaterThan:
			leftChanged, err := t.tryPropagateTypeFromOuterToChild(idx, n.LeftIdx, &hint)
			if err != nil {
				return false, err
			}
			rightChanged, err := t.tryPropagateTypeFromOuterToChild(idx, n.RightIdx, &hint)
			if err != nil {
				return false, err
			}
			return leftChanged || rightChanged, nil
		default:
			panic("analysis: unreachable binary operator in propagateTypeFromOuter")
		}

	case NodeTernary:
		n := t.Nodes[idx]
		leftChanged, err := t.tryPropagateTypeFromOuterToChild(idx, n.LeftIdx, &hint)
		if err != nil {
			return false, err
		}
		rightChanged, err := t.tryPropagateTypeFromOuterToChild(idx, n.RightIdx, &hint)
		if err != nil {
			return false, err
		}
		return leftChanged || rightChanged, nil

	default:
		panic("analysis: unreachable node kind in propagateTypeFromOuter")
	}
}

func (t *Tree) resolveTypesFromOuter() (bool, error) {
	hadChanges := false
	for idx := len(t.Nodes) - 1; idx >= 0; idx-- {
		if t.Nodes[idx].ResolvedType != nil {
			continue
		}
		parentIdx := t.Nodes[idx].ParentIdx
		if parentIdx == nil {
			continue
		}
		hint, err := t.getChildInputHint(*parentIdx, idx, nil)
		if err != nil {
			return false, err
		}
		if hint == nil {
			continue
		}
		changed, err := t.propagateTypeFromOuter(idx, *hint)
		if err != nil {
			return false, err
		}
		hadChanges = changed || hadChanges
	}
	return hadChanges, nil
}

func (t *Tree) resolveTypesFromBoth() error {
	hadChanges := true
	for hadChanges {
		innerChanged, err := t.resolveTypesFromInner()
		if err != nil {
			return err
		}
		outerChanged, err := t.resolveTypesFromOuter()
		if err != nil {
			return err
		}
		hadChanges = innerChanged || outerChanged
	}
	return nil
}

// semanticAnalysis runs the bidirectional fixed-point passes, then a
// fallback pass that defaults any untyped literal still unresolved (i32 for
// integers that fit, i64 for larger ones, f64 for floats — an integer
// literal too large even for i64 is left unresolved rather than silently
// becoming u64), re-running the
// fixed-point passes once more if the fallback changed anything.
func (t *Tree) semanticAnalysis() error {
	if err := t.resolveTypesFromBoth(); err != nil {
		return err
	}

	hadFallback := false
	for i := range t.Nodes {
		if t.Nodes[i].ResolvedType != nil || t.Nodes[i].Kind != NodeUntypedValue {
			continue
		}
		u := t.Nodes[i].UntypedValue

		var resolvedType *value.ValueType
		if u.Kind == value.UntypedFloat {
			resolvedType = typePtr(value.F64)
		} else if u.Int <= (1<<31)-1 {
			resolvedType = typePtr(value.I32)
		} else if u.Int <= (1<<63)-1 {
			resolvedType = typePtr(value.I64)
		}

		if resolvedType == nil {
			continue
		}
		resolved, err := u.Resolve(*resolvedType)
		if err != nil {
			return err
		}
		t.Nodes[i].Kind = NodeTypedValue
		t.Nodes[i].TypedValue = resolved
		t.Nodes[i].ResolvedType = resolvedType
		hadFallback = true
	}

	if hadFallback {
		return t.resolveTypesFromBoth()
	}
	return nil
}

func (t *Tree) printNode(idx, depth int) {
	indent := ""
	for range depth {
		indent += "  "
	}
	n := t.Nodes[idx]
	fmt.Fprintf(os.Stderr, "%s[%d]: kind=%d resolved=%v\n", indent, idx, n.Kind, n.ResolvedType)

	switch n.Kind {
	case NodeFunctionCall:
		for _, a := range n.FunctionArgs {
			if a.Kind == ArgParameter {
				t.printNode(a.NodeIdx, depth+1)
			}
		}
	case NodeUnaryOperation:
		t.printNode(n.RightIdx, depth+1)
	case NodeBinaryOperation:
		t.printNode(n.LeftIdx, depth+1)
		t.printNode(n.RightIdx, depth+1)
	case NodeTernary:
		t.printNode(n.CondIdx, depth+1)
		t.printNode(n.LeftIdx, depth+1)
		t.printNode(n.RightIdx, depth+1)
	}
}

// PrintToStderr dumps the tree for debugging, depth-first from the root.
func (t *Tree) PrintToStderr() {
	fmt.Fprintf(os.Stderr, "PackedAnalysisTree with %d nodes:\n", len(t.Nodes))
	if len(t.Nodes) == 0 {
		return
	}
	t.printNode(len(t.Nodes)-1, 0)
}

// GetExprType returns the resolved type of the tree's root (the overall
// expression's type).
func (t *Tree) GetExprType() (value.ValueType, error) {
	if len(t.Nodes) == 0 {
		return 0, &Error{Kind: ErrEmptyAST}
	}
	root := t.Nodes[len(t.Nodes)-1]
	if root.ResolvedType == nil {
		return 0, &Error{Kind: ErrBadAnalysis}
	}
	return *root.ResolvedType, nil
}

// GetNodeType returns the resolved type of node idx.
func (t *Tree) GetNodeType(idx int) (value.ValueType, error) {
	if t.Nodes[idx].ResolvedType == nil {
		return 0, &Error{Kind: ErrBadAnalysis}
	}
	return *t.Nodes[idx].ResolvedType, nil
}
