// Package slab implements the flat, pointer-sized-slot runtime memory
// region a CompiledExpression reads and writes: anonymous hidden-state
// slots first, then one slot per named Variable binding, in table iteration
// order. Generated code addresses slots by baking their absolute address in
// as a pointer constant at compile time (spec.md §4.5), so a Slab must never
// move or be resized once a CompiledExpression has been built against it.
package slab

import (
	"fmt"
	"unsafe"

	"hoteval/internal/binding"
	"hoteval/internal/value"
)

// BindingInfo locates a named Variable binding's slot.
type BindingInfo struct {
	Idx       int
	ValueType value.ValueType
}

// Slab is the backing store: one machine-word slot per reserved hidden
// state, followed by one slot per named Variable binding.
type Slab struct {
	data              []uintptr
	hiddenStateCount  int
	bindingMap        map[string]BindingInfo
}

// FromTable lays out a Slab for table: hidden states first, then a slot for
// every Variable binding (Const and Function bindings need no slot — consts
// are baked directly as IR constants, and functions are called through a
// baked pointer constant rather than read from memory).
func FromTable(table *binding.Table) *Slab {
	bindingMap := make(map[string]BindingInfo)
	hiddenStateCount := table.HiddenStateCount()
	idx := hiddenStateCount

	for name, b := range table.Bindings() {
		if b.Kind != binding.KindVariable {
			continue
		}
		bindingMap[name] = BindingInfo{Idx: idx, ValueType: b.VarType}
		idx++
	}

	return &Slab{
		data:             make([]uintptr, idx),
		hiddenStateCount: hiddenStateCount,
		bindingMap:       bindingMap,
	}
}

// GetBindingInfo returns the slot a named Variable binding was laid out at.
func (s *Slab) GetBindingInfo(name string) (BindingInfo, bool) {
	info, ok := s.bindingMap[name]
	return info, ok
}

// GetBindingIndex returns just the slot index of a named Variable binding.
func (s *Slab) GetBindingIndex(name string) (int, bool) {
	info, ok := s.bindingMap[name]
	if !ok {
		return 0, false
	}
	return info.Idx, true
}

// HiddenStateCount is the number of leading hidden-state slots.
func (s *Slab) HiddenStateCount() int {
	return s.hiddenStateCount
}

// GetAddress returns the absolute address of slot idx, to be baked into
// generated code as a pointer constant.
func (s *Slab) GetAddress(idx int) uintptr {
	return uintptr(unsafe.Pointer(&s.data[idx]))
}

func checkFits[T any]() {
	var zero T
	if unsafe.Sizeof(zero) > unsafe.Sizeof(uintptr(0)) {
		panic(fmt.Sprintf("slab: type %T does not fit in a slot", zero))
	}
}

// SetValue stores value at slot idx. T must fit in a machine word.
func SetValue[T any](s *Slab, idx int, val T) {
	checkFits[T]()
	if idx < 0 || idx >= len(s.data) {
		panic("slab: index out of range")
	}
	*(*T)(unsafe.Pointer(&s.data[idx])) = val
}

// GetValue reads the value at slot idx as T. T must fit in a machine word.
func GetValue[T any](s *Slab, idx int) T {
	checkFits[T]()
	if idx < 0 || idx >= len(s.data) {
		panic("slab: index out of range")
	}
	return *(*T)(unsafe.Pointer(&s.data[idx]))
}

// SetPtrValue stores the address of ptr at slot idx, for hidden states that
// hold a pointer to host-owned data rather than a value. The caller must
// guarantee ptr stays valid for as long as any CompiledExpression built
// against this Slab may run.
func SetPtrValue[T any](s *Slab, idx int, ptr *T) {
	SetValue(s, idx, uintptr(unsafe.Pointer(ptr)))
}
