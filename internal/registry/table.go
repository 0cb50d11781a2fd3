package registry

import (
	"fmt"

	"hoteval/internal/binding"
	"hoteval/internal/value"
)

// Describe extracts the persistable part of t: its named variables and
// constants. Host function bindings are skipped, since their FuncPtr has no
// meaning outside the process that registered them.
func Describe(t *binding.Table) TableDescription {
	var desc TableDescription
	for name, b := range t.Bindings() {
		switch b.Kind {
		case binding.KindVariable:
			desc.Variables = append(desc.Variables, VariableDescription{Name: name, Type: b.VarType})
		case binding.KindConst:
			cd := ConstDescription{Name: name, Type: b.ConstValue.Type}
			if b.ConstValue.Type.IsFloat() {
				cd.Float = b.ConstValue.AsFloat64()
			} else {
				cd.Int = b.ConstValue.AsUint64()
			}
			desc.Consts = append(desc.Consts, cd)
		}
	}
	return desc
}

// Apply re-adds desc's variables and constants to t, the step a host takes
// after Registry.Load before registering its own host functions and handing
// the Table to the compiler.
func (d TableDescription) Apply(t *binding.Table) error {
	for _, v := range d.Variables {
		if err := t.AddVariable(v.Name, v.Type); err != nil {
			return err
		}
	}
	for _, c := range d.Consts {
		var v value.Value
		if c.Type.IsFloat() {
			if c.Type == value.F32 {
				v = value.New(float32(c.Float))
			} else {
				v = value.New(c.Float)
			}
		} else {
			var err error
			v, err = intFromBits(c.Type, c.Int)
			if err != nil {
				return err
			}
		}
		if err := t.AddBinding(c.Name, binding.Binding{Kind: binding.KindConst, ConstValue: v}); err != nil {
			return err
		}
	}
	return nil
}

// intFromBits rebuilds a signed or unsigned integer Value from its raw bit
// pattern (as stored by ConstDescription.Int, via Value.AsUint64). Signed
// types must be reconstructed from their truncated bit pattern directly
// rather than routed through UntypedValue.Resolve, whose magnitude check
// assumes a genuine positive literal and would reject a zero-extended
// negative value's bit pattern as out of range.
func intFromBits(t value.ValueType, bits uint64) (value.Value, error) {
	switch t {
	case value.Bool:
		return value.New(bits != 0), nil
	case value.U8:
		return value.New(uint8(bits)), nil
	case value.I8:
		return value.New(int8(uint8(bits))), nil
	case value.U16:
		return value.New(uint16(bits)), nil
	case value.I16:
		return value.New(int16(uint16(bits))), nil
	case value.U32:
		return value.New(uint32(bits)), nil
	case value.I32:
		return value.New(int32(uint32(bits))), nil
	case value.U64:
		return value.New(bits), nil
	case value.I64:
		return value.New(int64(bits)), nil
	case value.USize:
		return value.New(uintptr(bits)), nil
	default:
		return value.Value{}, fmt.Errorf("registry: %s is not an integer type", t)
	}
}
