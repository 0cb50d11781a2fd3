package binding

import "reflect"

// reflectFuncAddr returns the entry address of a Go function value, the way
// Rust casts a `fn` item to a `*const c_void` when registering it as a
// Binding::Function. Only meaningful for package-level functions and
// non-capturing closures; a capturing closure has no stable entry address
// independent of its captured environment, so callers must not register one.
func reflectFuncAddr(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic("binding: funcAddr called on a non-function value")
	}
	return v.Pointer()
}
