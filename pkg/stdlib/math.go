// Package stdlib implements slo's built-in modules (spec.md §6): math,
// random, os, and json, each a Factory the module loader registers and
// builds on first `import`. These sit outside the interpreter core and
// consume only its native-function registration interface.
package stdlib

import (
	"math"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
)

// Math returns the `math` module's exports: a handful of constants and
// single-argument functions wrapping the Go math package.
func Math(col *gc.Collector) map[string]value.Value {
	exports := map[string]value.Value{
		"pi":  value.NumberVal(math.Pi),
		"e":   value.NumberVal(math.E),
		"inf": value.NumberVal(math.Inf(1)),
	}
	unary := map[string]func(float64) float64{
		"sqrt":  math.Sqrt,
		"floor": math.Floor,
		"ceil":  math.Ceil,
		"abs":   math.Abs,
		"sin":   math.Sin,
		"cos":   math.Cos,
		"tan":   math.Tan,
		"log":   math.Log,
		"log2":  math.Log2,
		"log10": math.Log10,
	}
	for name, fn := range unary {
		exports[name] = nativeUnaryNumber(col, name, fn)
	}
	exports["pow"] = value.ObjVal(col.NewNative("math.pow", func(argc int, args []value.Value) value.Value {
		x, y, ok := twoNumbers(args)
		if !ok {
			return typeErr(col, "math.pow expects two numbers")
		}
		return value.NumberVal(math.Pow(x, y))
	}, 2, 2, []string{"base", "exp"}))
	exports["max"] = value.ObjVal(col.NewNative("math.max", func(argc int, args []value.Value) value.Value {
		x, y, ok := twoNumbers(args)
		if !ok {
			return typeErr(col, "math.max expects two numbers")
		}
		return value.NumberVal(math.Max(x, y))
	}, 2, 2, []string{"a", "b"}))
	exports["min"] = value.ObjVal(col.NewNative("math.min", func(argc int, args []value.Value) value.Value {
		x, y, ok := twoNumbers(args)
		if !ok {
			return typeErr(col, "math.min expects two numbers")
		}
		return value.NumberVal(math.Min(x, y))
	}, 2, 2, []string{"a", "b"}))
	return exports
}

func nativeUnaryNumber(col *gc.Collector, name string, fn func(float64) float64) value.Value {
	return value.ObjVal(col.NewNative("math."+name, func(argc int, args []value.Value) value.Value {
		if len(args) != 1 || args[0].Type != value.Number {
			return typeErr(col, "math."+name+" expects one number")
		}
		return value.NumberVal(fn(args[0].AsNumber()))
	}, 1, 1, []string{"x"}))
}

func twoNumbers(args []value.Value) (float64, float64, bool) {
	if len(args) != 2 || args[0].Type != value.Number || args[1].Type != value.Number {
		return 0, 0, false
	}
	return args[0].AsNumber(), args[1].AsNumber(), true
}

func typeErr(col *gc.Collector, msg string) value.Value {
	return value.ErrorVal(col.NewErrorObj("TypeException", msg))
}
