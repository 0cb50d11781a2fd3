package codegen

import (
	"tinygo.org/x/go-llvm"

	"hoteval/internal/analysis"
	"hoteval/internal/ast"
	"hoteval/internal/value"
)

// buildNode recurses into tree.Nodes[idx], lowering it and every node it
// needs to LLVM IR emitted at the builder's current insertion point, and
// returns the resulting value together with its resolved type.
func (c *Context) buildNode(tree *analysis.Tree, idx int) (llvm.Value, value.ValueType, error) {
	n := &tree.Nodes[idx]
	switch n.Kind {
	case analysis.NodeTypedValue:
		return c.constValue(n.TypedValue), n.TypedValue.Type, nil

	case analysis.NodeUntypedValue:
		return llvm.Value{}, 0, &Error{Kind: ErrUnexpectedValue}

	case analysis.NodeVariable:
		info, ok := c.slab.GetBindingInfo(n.VariableName)
		if !ok {
			return llvm.Value{}, 0, &Error{Kind: ErrUnknownBinding, Name: n.VariableName}
		}
		if n.ResolvedType != nil && info.ValueType != *n.ResolvedType {
			return llvm.Value{}, 0, &Error{
				Kind:     ErrBadBindingType,
				Name:     n.VariableName,
				Expected: info.ValueType,
				Actual:   *n.ResolvedType,
			}
		}
		return c.loadSlot(info.Idx, info.ValueType), info.ValueType, nil

	case analysis.NodeFunctionCall:
		return c.buildFunctionCall(tree, n)

	case analysis.NodeUnaryOperation:
		return c.buildUnary(tree, n)

	case analysis.NodeBinaryOperation:
		return c.buildBinary(tree, n)

	case analysis.NodeTernary:
		return c.buildTernary(tree, n)

	default:
		panic("codegen: unreachable node kind")
	}
}

func (c *Context) constValue(v value.Value) llvm.Value {
	t := FromValueType(v.Type)
	if t.IsFloat() {
		return llvm.ConstFloat(t.LLVMType(c.llvmCtx), v.AsFloat64())
	}
	return llvm.ConstInt(t.LLVMType(c.llvmCtx), v.AsUint64(), false)
}

func zeroOf(ctx llvm.Context, t IRValueType) llvm.Value {
	if t.IsFloat() {
		return llvm.ConstFloat(t.LLVMType(ctx), 0)
	}
	return llvm.ConstInt(t.LLVMType(ctx), 0, false)
}

// loadSlot reads the slab slot at slotIdx as vt, through a pointer baked in
// as an absolute address constant (spec.md §4.5: generated code never
// carries the Slab's Go pointer, only the numeric address it held at
// compile time).
func (c *Context) loadSlot(slotIdx int, vt value.ValueType) llvm.Value {
	addr := c.usizeConst(c.slab.GetAddress(slotIdx))
	ptrTy := llvm.PointerType(FromValueType(vt).LLVMType(c.llvmCtx), 0)
	ptr := c.builder.CreateIntToPtr(addr, ptrTy, "")
	return c.builder.CreateLoad(ptr, "")
}

// castIfNeeded converts v (of type from) to type to, the way
// value.ValueType.CanImplicitCastTo classifies the conversion. Casting to
// Bool is the one NaN-sensitive case: a float casts to Bool via an ordered
// "not equal to zero" compare, so a NaN operand (unordered against
// anything) casts to false. LogicalNot, by contrast, tests falsiness
// directly with the unordered-equal predicate instead of negating a cast
// result; see buildUnary.
func (c *Context) castIfNeeded(v llvm.Value, from, to value.ValueType) (llvm.Value, error) {
	if from == to {
		return v, nil
	}
	fromT, toT := FromValueType(from), FromValueType(to)
	destTy := toT.LLVMType(c.llvmCtx)

	if to == value.Bool {
		if fromT.IsFloat() {
			return c.builder.CreateFCmp(llvm.FloatONE, v, zeroOf(c.llvmCtx, fromT), ""), nil
		}
		return c.builder.CreateICmp(llvm.IntNE, v, zeroOf(c.llvmCtx, fromT), ""), nil
	}
	if from == value.Bool {
		if toT.IsFloat() {
			return c.builder.CreateUIToFP(v, destTy, ""), nil
		}
		return c.builder.CreateZExt(v, destTy, ""), nil
	}
	if fromT.IsFloat() && toT.IsFloat() {
		if fromT.bits < toT.bits {
			return c.builder.CreateFPExt(v, destTy, ""), nil
		}
		return c.builder.CreateFPTrunc(v, destTy, ""), nil
	}
	if fromT.IsFloat() {
		if to.IsSigned() {
			return c.builder.CreateFPToSI(v, destTy, ""), nil
		}
		return c.builder.CreateFPToUI(v, destTy, ""), nil
	}
	if toT.IsFloat() {
		if from.IsSigned() {
			return c.builder.CreateSIToFP(v, destTy, ""), nil
		}
		return c.builder.CreateUIToFP(v, destTy, ""), nil
	}
	switch {
	case fromT.bits == toT.bits:
		return v, nil
	case fromT.bits < toT.bits:
		if from.IsSigned() {
			return c.builder.CreateSExt(v, destTy, ""), nil
		}
		return c.builder.CreateZExt(v, destTy, ""), nil
	default:
		return c.builder.CreateTrunc(v, destTy, ""), nil
	}
}

func (c *Context) toBool(v llvm.Value, from value.ValueType) (llvm.Value, error) {
	return c.castIfNeeded(v, from, value.Bool)
}

func (c *Context) buildUnary(tree *analysis.Tree, n *analysis.Node) (llvm.Value, value.ValueType, error) {
	rv, rt, err := c.buildNode(tree, n.RightIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}

	switch n.UnaryOp {
	case ast.Negate:
		if n.ResolvedType == nil {
			return llvm.Value{}, 0, &Error{Kind: ErrUnexpectedBaseType}
		}
		target := *n.ResolvedType
		cv, err := c.castIfNeeded(rv, rt, target)
		if err != nil {
			return llvm.Value{}, 0, err
		}
		if FromValueType(target).IsFloat() {
			return c.builder.CreateFNeg(cv, ""), target, nil
		}
		return c.builder.CreateNeg(cv, ""), target, nil

	case ast.LogicalNot:
		if FromValueType(rt).IsFloat() {
			zero := zeroOf(c.llvmCtx, FromValueType(rt))
			return c.builder.CreateFCmp(llvm.FloatUEQ, rv, zero, ""), value.Bool, nil
		}
		zero := zeroOf(c.llvmCtx, FromValueType(rt))
		return c.builder.CreateICmp(llvm.IntEQ, rv, zero, ""), value.Bool, nil

	default:
		panic("codegen: unreachable unary operator")
	}
}

func intPredicateFor(op ast.BinaryOperator, signed bool) llvm.IntPredicate {
	switch op {
	case ast.Equals:
		return llvm.IntEQ
	case ast.NotEquals:
		return llvm.IntNE
	case ast.LesserThanEquals:
		if signed {
			return llvm.IntSLE
		}
		return llvm.IntULE
	case ast.GreaterThanEquals:
		if signed {
			return llvm.IntSGE
		}
		return llvm.IntUGE
	case ast.LesserThan:
		if signed {
			return llvm.IntSLT
		}
		return llvm.IntULT
	case ast.GreaterThan:
		if signed {
			return llvm.IntSGT
		}
		return llvm.IntUGT
	default:
		panic("codegen: unreachable comparison operator")
	}
}

func floatPredicateFor(op ast.BinaryOperator) llvm.FloatPredicate {
	switch op {
	case ast.Equals:
		return llvm.FloatOEQ
	case ast.NotEquals:
		return llvm.FloatUNE
	case ast.LesserThanEquals:
		return llvm.FloatOLE
	case ast.GreaterThanEquals:
		return llvm.FloatOGE
	case ast.LesserThan:
		return llvm.FloatOLT
	case ast.GreaterThan:
		return llvm.FloatOGT
	default:
		panic("codegen: unreachable comparison operator")
	}
}

func (c *Context) buildBinary(tree *analysis.Tree, n *analysis.Node) (llvm.Value, value.ValueType, error) {
	if n.BinaryOp.IsShortCircuit() {
		return c.buildLogical(tree, n)
	}

	lv, lt, err := c.buildNode(tree, n.LeftIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	rv, rt, err := c.buildNode(tree, n.RightIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}

	if n.BinaryOp.IsComparison() {
		common, err := value.Widen(lt, rt)
		if err != nil {
			return llvm.Value{}, 0, err
		}
		lv, err = c.castIfNeeded(lv, lt, common)
		if err != nil {
			return llvm.Value{}, 0, err
		}
		rv, err = c.castIfNeeded(rv, rt, common)
		if err != nil {
			return llvm.Value{}, 0, err
		}
		if FromValueType(common).IsFloat() {
			return c.builder.CreateFCmp(floatPredicateFor(n.BinaryOp), lv, rv, ""), value.Bool, nil
		}
		return c.builder.CreateICmp(intPredicateFor(n.BinaryOp, common.IsSigned()), lv, rv, ""), value.Bool, nil
	}

	if n.ResolvedType == nil {
		return llvm.Value{}, 0, &Error{Kind: ErrUnexpectedBaseType}
	}
	target := *n.ResolvedType
	lv, err = c.castIfNeeded(lv, lt, target)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	rv, err = c.castIfNeeded(rv, rt, target)
	if err != nil {
		return llvm.Value{}, 0, err
	}

	irT := FromValueType(target)
	if irT.IsFloat() {
		switch n.BinaryOp {
		case ast.Mul:
			return c.builder.CreateFMul(lv, rv, ""), target, nil
		case ast.Div:
			return c.builder.CreateFDiv(lv, rv, ""), target, nil
		case ast.Mod:
			return c.builder.CreateFRem(lv, rv, ""), target, nil
		case ast.Add:
			return c.builder.CreateFAdd(lv, rv, ""), target, nil
		case ast.Sub:
			return c.builder.CreateFSub(lv, rv, ""), target, nil
		}
	} else {
		signed := target.IsSigned()
		switch n.BinaryOp {
		case ast.Mul:
			return c.builder.CreateMul(lv, rv, ""), target, nil
		case ast.Div:
			if signed {
				return c.builder.CreateSDiv(lv, rv, ""), target, nil
			}
			return c.builder.CreateUDiv(lv, rv, ""), target, nil
		case ast.Mod:
			if signed {
				return c.builder.CreateSRem(lv, rv, ""), target, nil
			}
			return c.builder.CreateURem(lv, rv, ""), target, nil
		case ast.Add:
			return c.builder.CreateAdd(lv, rv, ""), target, nil
		case ast.Sub:
			return c.builder.CreateSub(lv, rv, ""), target, nil
		}
	}
	panic("codegen: unreachable arithmetic operator")
}

// buildLogical lowers LogicalAnd/LogicalOr with short-circuit branching: the
// right operand's subtree is only built inside the conditional block it
// actually runs in, never unconditionally ahead of time.
func (c *Context) buildLogical(tree *analysis.Tree, n *analysis.Node) (llvm.Value, value.ValueType, error) {
	isAnd := n.BinaryOp == ast.LogicalAnd

	lv, lt, err := c.buildNode(tree, n.LeftIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	leftBool, err := c.toBool(lv, lt)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	startBlock := c.builder.GetInsertBlock()

	rhsBlock := llvm.AddBasicBlock(c.fn, c.nextBlockName("rhs"))
	contBlock := llvm.AddBasicBlock(c.fn, c.nextBlockName("cont"))
	if isAnd {
		c.builder.CreateCondBr(leftBool, rhsBlock, contBlock)
	} else {
		c.builder.CreateCondBr(leftBool, contBlock, rhsBlock)
	}

	c.builder.SetInsertPointAtEnd(rhsBlock)
	rv, rt, err := c.buildNode(tree, n.RightIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	rightBool, err := c.toBool(rv, rt)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	rhsEndBlock := c.builder.GetInsertBlock()
	c.builder.CreateBr(contBlock)

	c.builder.SetInsertPointAtEnd(contBlock)
	boolTy := c.llvmCtx.Int1Type()
	phi := c.builder.CreatePHI(boolTy, "")
	shortCircuitValue := llvm.ConstInt(boolTy, boolAsUint(!isAnd), false)
	phi.AddIncoming([]llvm.Value{shortCircuitValue, rightBool}, []llvm.BasicBlock{startBlock, rhsEndBlock})
	return phi, value.Bool, nil
}

func boolAsUint(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (c *Context) buildTernary(tree *analysis.Tree, n *analysis.Node) (llvm.Value, value.ValueType, error) {
	cv, ct, err := c.buildNode(tree, n.CondIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	condBool, err := c.toBool(cv, ct)
	if err != nil {
		return llvm.Value{}, 0, err
	}

	thenBlock := llvm.AddBasicBlock(c.fn, c.nextBlockName("then"))
	elseBlock := llvm.AddBasicBlock(c.fn, c.nextBlockName("else"))
	contBlock := llvm.AddBasicBlock(c.fn, c.nextBlockName("cont"))
	c.builder.CreateCondBr(condBool, thenBlock, elseBlock)

	if n.ResolvedType == nil {
		return llvm.Value{}, 0, &Error{Kind: ErrUnexpectedBaseType}
	}
	target := *n.ResolvedType

	c.builder.SetInsertPointAtEnd(thenBlock)
	thenV, thenT, err := c.buildNode(tree, n.LeftIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	thenV, err = c.castIfNeeded(thenV, thenT, target)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	thenEndBlock := c.builder.GetInsertBlock()
	c.builder.CreateBr(contBlock)

	c.builder.SetInsertPointAtEnd(elseBlock)
	elseV, elseT, err := c.buildNode(tree, n.RightIdx)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	elseV, err = c.castIfNeeded(elseV, elseT, target)
	if err != nil {
		return llvm.Value{}, 0, err
	}
	elseEndBlock := c.builder.GetInsertBlock()
	c.builder.CreateBr(contBlock)

	c.builder.SetInsertPointAtEnd(contBlock)
	phi := c.builder.CreatePHI(FromValueType(target).LLVMType(c.llvmCtx), "")
	phi.AddIncoming([]llvm.Value{thenV, elseV}, []llvm.BasicBlock{thenEndBlock, elseEndBlock})
	return phi, target, nil
}

func (c *Context) buildFunctionCall(tree *analysis.Tree, n *analysis.Node) (llvm.Value, value.ValueType, error) {
	argValues := make([]llvm.Value, len(n.FunctionArgs))
	paramTypes := make([]IRValueType, len(n.FunctionArgs))

	for i, a := range n.FunctionArgs {
		switch a.Kind {
		case analysis.ArgParameter:
			v, vt, err := c.buildNode(tree, a.NodeIdx)
			if err != nil {
				return llvm.Value{}, 0, err
			}
			v, err = c.castIfNeeded(v, vt, a.ExpectedType)
			if err != nil {
				return llvm.Value{}, 0, err
			}
			argValues[i] = v
			paramTypes[i] = FromValueType(a.ExpectedType)

		case analysis.ArgConstArgument:
			argValues[i] = c.constValue(a.ConstValue)
			paramTypes[i] = FromValueType(a.ConstValue.Type)

		case analysis.ArgHiddenStateArgument:
			v := c.loadSlot(a.HiddenStateIdx, a.SlabValueType)
			vt := a.SlabValueType
			if a.CastToType != nil {
				var err error
				v, err = c.castIfNeeded(v, vt, *a.CastToType)
				if err != nil {
					return llvm.Value{}, 0, err
				}
				vt = *a.CastToType
			}
			argValues[i] = v
			paramTypes[i] = FromValueType(vt)

		default:
			panic("codegen: unreachable function argument kind")
		}
	}

	retT := FromValueType(n.FunctionRetType)
	fnType := fnLLVMType(c.llvmCtx, retT, paramTypes)
	fnPtrType := llvm.PointerType(fnType, 0)
	fnPtr := c.builder.CreateIntToPtr(c.usizeConst(n.FunctionPtr), fnPtrType, "")
	call := c.builder.CreateCall(fnPtr, argValues, "")
	return call, n.FunctionRetType, nil
}
