package binding

import (
	"iter"

	"hoteval/internal/value"
)

// Table is the set of names (consts, variables, host functions) and hidden
// states an expression may be compiled against. Hidden states are anonymous
// host-writable slots with no name in the expression source; they exist
// purely so a host function binding can read host-managed state (spec.md
// §4.5) without the expression author needing to name or pass it.
type Table struct {
	bindings     map[string]Binding
	order        []string
	hiddenStates []value.ValueType
}

// New returns an empty Table.
func New() *Table {
	return &Table{bindings: make(map[string]Binding)}
}

// AddBinding registers a binding under name, failing if the name is taken.
func (t *Table) AddBinding(name string, b Binding) error {
	if _, exists := t.bindings[name]; exists {
		return &Error{Kind: ErrBindingAlreadyExists, Name: name}
	}
	t.bindings[name] = b
	t.order = append(t.order, name)
	return nil
}

// GetBinding looks up a binding by name.
func (t *Table) GetBinding(name string) (Binding, bool) {
	b, ok := t.bindings[name]
	return b, ok
}

// Bindings iterates every registered (name, Binding) pair in registration
// order, so Slab.FromTable lays out the same slot indices every time it
// builds from two equal Tables (spec.md §4.5: Slab layout determinism).
func (t *Table) Bindings() iter.Seq2[string, Binding] {
	return func(yield func(string, Binding) bool) {
		for _, name := range t.order {
			if !yield(name, t.bindings[name]) {
				return
			}
		}
	}
}

// AddHiddenState reserves a new anonymous hidden-state slot of the given
// type and returns its index.
func (t *Table) AddHiddenState(vt value.ValueType) int {
	t.hiddenStates = append(t.hiddenStates, vt)
	return len(t.hiddenStates) - 1
}

// AddPtrHiddenState is AddHiddenState(USize), for hidden states that store a
// raw address (e.g. a pointer to host data a binding needs).
func (t *Table) AddPtrHiddenState() int {
	return t.AddHiddenState(value.USize)
}

// GetHiddenState returns the declared type of hidden state idx.
func (t *Table) GetHiddenState(idx int) (value.ValueType, bool) {
	if idx < 0 || idx >= len(t.hiddenStates) {
		return 0, false
	}
	return t.hiddenStates[idx], true
}

// HiddenStateCount is the number of reserved hidden-state slots.
func (t *Table) HiddenStateCount() int {
	return len(t.hiddenStates)
}

// AddConst registers a named compile-time constant.
func AddConst[T value.Numeric](t *Table, name string, v T) error {
	return t.AddBinding(name, Binding{Kind: KindConst, ConstValue: value.New(v)})
}

// AddVariable registers a named runtime variable backed by a Slab slot.
func (t *Table) AddVariable(name string, vt value.ValueType) error {
	return t.AddBinding(name, Binding{Kind: KindVariable, VarType: vt})
}

func (t *Table) guardParam(name string, p BindingFunctionParameter, expected value.ValueType) error {
	switch p.Kind {
	case ParamParameter:
		if p.ValueType != expected {
			return &Error{Kind: ErrFuncParamBadType, Name: name, Expected: expected, Got: p.ValueType}
		}
	case ParamConstArgument:
		if p.ConstValue.Type != expected {
			return &Error{Kind: ErrFuncParamBadType, Name: name, Expected: expected, Got: p.ConstValue.Type}
		}
	case ParamHiddenStateArgument:
		declared, ok := t.GetHiddenState(p.HiddenStateIdx)
		if !ok {
			return &Error{Kind: ErrFuncHiddenStateMissing, Name: name, Idx: p.HiddenStateIdx}
		}
		effective := declared
		if p.CastToType != nil {
			effective = *p.CastToType
		}
		if effective != expected {
			return &Error{Kind: ErrFuncParamBadType, Name: name, Expected: expected, Got: effective}
		}
	}
	return nil
}

func funcAddr(fn any) uintptr {
	return reflectFuncAddr(fn)
}

// AddFunction0 registers a 0-ary host function, every parameter implicitly a
// ParamParameter of its Go type.
func AddFunction0[R value.Numeric](t *Table, name string, fn func() R) error {
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction1[R, P1 value.Numeric](t *Table, name string, fn func(P1) R) error {
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{Param[P1]()},
		FuncPtr:     funcAddr(fn),
	})
}

// AddFunction1Map is AddFunction1, but the single parameter may instead be a
// ConstArg/HiddenStateArg rather than the default ParamParameter.
func AddFunction1Map[R, P1 value.Numeric](t *Table, name string, fn func(P1) R, p1 BindingFunctionParameter) error {
	if err := t.guardParam(name, p1, typeOf[P1]()); err != nil {
		return err
	}
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{p1},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction2[R, P1, P2 value.Numeric](t *Table, name string, fn func(P1, P2) R) error {
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{Param[P1](), Param[P2]()},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction2Map[R, P1, P2 value.Numeric](t *Table, name string, fn func(P1, P2) R, p1, p2 BindingFunctionParameter) error {
	if err := t.guardParam(name, p1, typeOf[P1]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p2, typeOf[P2]()); err != nil {
		return err
	}
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{p1, p2},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction3[R, P1, P2, P3 value.Numeric](t *Table, name string, fn func(P1, P2, P3) R) error {
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{Param[P1](), Param[P2](), Param[P3]()},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction3Map[R, P1, P2, P3 value.Numeric](t *Table, name string, fn func(P1, P2, P3) R, p1, p2, p3 BindingFunctionParameter) error {
	if err := t.guardParam(name, p1, typeOf[P1]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p2, typeOf[P2]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p3, typeOf[P3]()); err != nil {
		return err
	}
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{p1, p2, p3},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction4[R, P1, P2, P3, P4 value.Numeric](t *Table, name string, fn func(P1, P2, P3, P4) R) error {
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{Param[P1](), Param[P2](), Param[P3](), Param[P4]()},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction4Map[R, P1, P2, P3, P4 value.Numeric](t *Table, name string, fn func(P1, P2, P3, P4) R, p1, p2, p3, p4 BindingFunctionParameter) error {
	if err := t.guardParam(name, p1, typeOf[P1]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p2, typeOf[P2]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p3, typeOf[P3]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p4, typeOf[P4]()); err != nil {
		return err
	}
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{p1, p2, p3, p4},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction5[R, P1, P2, P3, P4, P5 value.Numeric](t *Table, name string, fn func(P1, P2, P3, P4, P5) R) error {
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{Param[P1](), Param[P2](), Param[P3](), Param[P4](), Param[P5]()},
		FuncPtr:     funcAddr(fn),
	})
}

func AddFunction5Map[R, P1, P2, P3, P4, P5 value.Numeric](t *Table, name string, fn func(P1, P2, P3, P4, P5) R, p1, p2, p3, p4, p5 BindingFunctionParameter) error {
	if err := t.guardParam(name, p1, typeOf[P1]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p2, typeOf[P2]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p3, typeOf[P3]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p4, typeOf[P4]()); err != nil {
		return err
	}
	if err := t.guardParam(name, p5, typeOf[P5]()); err != nil {
		return err
	}
	return t.AddBinding(name, Binding{
		Kind:        KindFunction,
		FuncRetType: typeOf[R](),
		FuncParams:  []BindingFunctionParameter{p1, p2, p3, p4, p5},
		FuncPtr:     funcAddr(fn),
	})
}
