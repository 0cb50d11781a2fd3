package value

import "testing"

func TestDefaultType(t *testing.T) {
	if got := NewUntypedInteger(5).DefaultType(); got != I32 {
		t.Errorf("integer default = %s, want i32", got)
	}
	if got := NewUntypedFloat(5).DefaultType(); got != F64 {
		t.Errorf("float default = %s, want f64", got)
	}
}

func TestResolveInteger(t *testing.T) {
	v, err := NewUntypedInteger(200).Resolve(U8)
	if err != nil || v.U8() != 200 {
		t.Fatalf("Resolve(200, U8) = %+v, %v", v, err)
	}

	if _, err := NewUntypedInteger(300).Resolve(U8); err == nil {
		t.Error("expected 300 to overflow u8")
	}

	v, err = NewUntypedInteger(1).Resolve(Bool)
	if err != nil || !v.Bool() {
		t.Fatalf("Resolve(1, Bool) = %+v, %v", v, err)
	}
	if _, err := NewUntypedInteger(2).Resolve(Bool); err == nil {
		t.Error("expected 2 to fail resolving to bool")
	}
}

func TestResolveIntegerToFloat(t *testing.T) {
	v, err := NewUntypedInteger(7).Resolve(F64)
	if err != nil || v.F64() != 7 {
		t.Fatalf("Resolve(7, F64) = %+v, %v", v, err)
	}
}

func TestResolveFloat(t *testing.T) {
	v, err := NewUntypedFloat(1.5).Resolve(F32)
	if err != nil || v.F32() != 1.5 {
		t.Fatalf("Resolve(1.5, F32) = %+v, %v", v, err)
	}
	if _, err := NewUntypedFloat(1.5).Resolve(I32); err == nil {
		t.Error("expected resolving a float literal to i32 to fail")
	}
}
