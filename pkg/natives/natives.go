// Package natives implements slo's native-function bridge (spec.md §4.6):
// the thin registration layer that lets host-side Go functions sit in a
// class's method table or property table beside ordinary closures, so
// CALL/INVOKE/SUPER_INVOKE dispatch can't tell the difference.
package natives

import (
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
)

// DefineBuiltIn installs a host function as a method on class. The VM
// checks argc against [minArity,maxArity] before calling fn (maxArity -1
// means unbounded).
func DefineBuiltIn(col *gc.Collector, class *value.ClassObj, name string, minArity, maxArity int, params []string, fn value.NativeFn) {
	native := col.NewNative(name, fn, minArity, maxArity, params)
	class.Methods[name] = value.ObjVal(native)
}

// AddNativeProperty installs a host zero-arg getter, reachable through
// GET_PROPERTY without a call.
func AddNativeProperty(col *gc.Collector, class *value.ClassObj, name string, getter func(value.Value) value.Value) {
	class.NativeProps[name] = col.NewNativeProperty(name, getter)
}

// ArityError builds the ErrorVal a native returns when called with a
// number of arguments outside its declared range; the VM surfaces it as
// a TypeException (spec.md §8 testable property 10).
func ArityError(col *gc.Collector, name string, argc, min, max int) value.Value {
	msg := "wrong number of arguments to " + name + "()"
	return value.ErrorVal(col.NewErrorObj("TypeException", msg))
}

// TypeError builds the ErrorVal a native returns when an argument has
// the wrong runtime kind (spec.md §7: TypeException).
func TypeError(col *gc.Collector, msg string) value.Value {
	return value.ErrorVal(col.NewErrorObj("TypeException", msg))
}

// IndexError builds the ErrorVal a native returns for an out-of-range
// index or a missing dict key (spec.md §7: IndexException).
func IndexError(col *gc.Collector, msg string) value.Value {
	return value.ErrorVal(col.NewErrorObj("IndexException", msg))
}

// IOError builds the ErrorVal a native file operation returns on
// failure (spec.md §7: IOException).
func IOError(col *gc.Collector, msg string) value.Value {
	return value.ErrorVal(col.NewErrorObj("IOException", msg))
}
