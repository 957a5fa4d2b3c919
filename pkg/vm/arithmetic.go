package vm

import (
	"math"

	"github.com/ESloman/cslo/pkg/value"
)

// binaryAdd implements `+`'s three-way dispatch (spec.md §4.4): numbers
// add, strings concatenate, lists concatenate; any other pairing is a
// type error.
func (v *VM) binaryAdd(a, b value.Value) value.Value {
	if a.Type == value.Number && b.Type == value.Number {
		return value.NumberVal(a.AsNumber() + b.AsNumber())
	}
	if as, ok := a.AsObj().(*value.StringObj); a.Type == value.Obj && ok {
		if bs, ok := b.AsObj().(*value.StringObj); b.Type == value.Obj && ok {
			return value.ObjVal(v.col.InternString(as.Chars + bs.Chars))
		}
	}
	if al, ok := a.AsObj().(*value.ListObj); a.Type == value.Obj && ok {
		if bl, ok := b.AsObj().(*value.ListObj); b.Type == value.Obj && ok {
			items := make([]value.Value, 0, len(al.Items)+len(bl.Items))
			items = append(items, al.Items...)
			items = append(items, bl.Items...)
			return value.ObjVal(v.col.NewList(items, v.listClass))
		}
	}
	panic(v.typeError("+", a, b))
}

// typeError reports an operand-kind mismatch as TypeException (spec.md
// §4.4: "Operands must be numbers").
func (v *VM) typeError(op string, a, b value.Value) *RuntimeError {
	return v.newError("TypeException", "Operands must be numbers")
}

func (v *VM) requireNumbers(op string, a, b value.Value) (float64, float64) {
	if a.Type != value.Number || b.Type != value.Number {
		panic(v.typeError(op, a, b))
	}
	return a.AsNumber(), b.AsNumber()
}

func (v *VM) binarySubtract(a, b value.Value) value.Value {
	x, y := v.requireNumbers("-", a, b)
	return value.NumberVal(x - y)
}

func (v *VM) binaryMultiply(a, b value.Value) value.Value {
	x, y := v.requireNumbers("*", a, b)
	return value.NumberVal(x * y)
}

func (v *VM) binaryDivide(a, b value.Value) value.Value {
	x, y := v.requireNumbers("/", a, b)
	if y == 0 {
		panic(v.newError("RuntimeException", "division by zero"))
	}
	return value.NumberVal(x / y)
}

// binaryModulo uses IEEE remainder semantics, not truncated-division
// remainder (spec.md §9(c)).
func (v *VM) binaryModulo(a, b value.Value) value.Value {
	x, y := v.requireNumbers("%", a, b)
	return value.NumberVal(math.Remainder(x, y))
}

func (v *VM) binaryPow(a, b value.Value) value.Value {
	x, y := v.requireNumbers("**", a, b)
	return value.NumberVal(math.Pow(x, y))
}

func (v *VM) negate(a value.Value) value.Value {
	if a.Type != value.Number {
		panic(v.newError("TypeException", "Operands must be numbers"))
	}
	return value.NumberVal(-a.AsNumber())
}

func (v *VM) compare(op string, a, b value.Value) bool {
	x, y := v.requireNumbers(op, a, b)
	switch op {
	case "<":
		return x < y
	case "<=":
		return x <= y
	case ">":
		return x > y
	case ">=":
		return x >= y
	}
	return false
}

// has implements `a has b` (spec.md §4.4): element-in-list by structural
// equality, key-in-dict, substring-in-string.
func (v *VM) has(container, needle value.Value) bool {
	if container.Type != value.Obj {
		panic(v.newError("TypeException", "'has' requires a list, dict, or string"))
	}
	switch c := container.AsObj().(type) {
	case *value.ListObj:
		for _, item := range c.Items {
			if value.Equal(item, needle) {
				return true
			}
		}
		return false
	case *value.DictObj:
		_, ok := c.Table.Get(needle)
		return ok
	case *value.StringObj:
		needleStr, ok := needle.AsObj().(*value.StringObj)
		if needle.Type != value.Obj || !ok {
			panic(v.newError("TypeException", "'has' on a string requires a string operand"))
		}
		return containsSubstring(c.Chars, needleStr.Chars)
	}
	panic(v.newError("TypeException", "'has' requires a list, dict, or string"))
}

func containsSubstring(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	if len(sub) > len(s) {
		return false
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}
