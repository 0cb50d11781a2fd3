// Package nativecall crosses the one boundary Go has no built-in way to
// cross: turning a raw machine address handed back by an LLVM
// ExecutionEngine into a call. go-llvm's GetFunctionAddress returns a
// uint64, not a typed Go func value, so invoking it needs a small cgo
// trampoline per return-value register class (original_source's
// CompiledExpression stores each compiled function as an
// `unsafe extern "C" fn() -> T` precisely because Rust has the same
// problem and solves it with a transmute instead).
package nativecall

/*
#include <stdint.h>

typedef uint64_t (*hoteval_int_fn)(void);
typedef float    (*hoteval_f32_fn)(void);
typedef double   (*hoteval_f64_fn)(void);

static uint64_t hoteval_call_int(void *fn) {
	return ((hoteval_int_fn)fn)();
}

static float hoteval_call_f32(void *fn) {
	return ((hoteval_f32_fn)fn)();
}

static double hoteval_call_f64(void *fn) {
	return ((hoteval_f64_fn)fn)();
}
*/
import "C"
import "unsafe"

// CallInt invokes a compiled expression of any integer or Bool ValueType,
// compiled with no parameters, and returns the raw bit pattern of its
// return value. The caller is responsible for truncating/reinterpreting
// to the expression's actual width and signedness.
func CallInt(addr uintptr) uint64 {
	return uint64(C.hoteval_call_int(unsafe.Pointer(addr)))
}

// CallF32 invokes a compiled expression resolved to F32.
func CallF32(addr uintptr) float32 {
	return float32(C.hoteval_call_f32(unsafe.Pointer(addr)))
}

// CallF64 invokes a compiled expression resolved to F64.
func CallF64(addr uintptr) float64 {
	return float64(C.hoteval_call_f64(unsafe.Pointer(addr)))
}
