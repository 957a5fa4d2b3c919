// Package value defines slo's runtime value representation: the tagged
// sum type every stack slot, local, global, and constant-pool entry holds,
// and the heap object kinds a Value can point at.
//
// A Value is a small struct rather than a Go interface so that Nil, Bool,
// and Number never allocate. Only the Obj and Error variants carry a
// pointer into the GC-managed heap (see pkg/gc).
package value

import "fmt"

// Type tags the active field of a Value.
type Type int

const (
	// Nil is the absence of a value. It is distinct from Empty, which
	// marks "never written" table slots, and from Error, which marks
	// a short-circuit failure returned by a native.
	Nil Type = iota
	Bool
	Number
	Obj
	// Empty is the table sentinel used for tombstones and free slots.
	// It must never collide with Nil (invariant 6 in spec.md §3).
	Empty
	// Error is a value-form failure a native function can return; the
	// VM raises it under its ErrorObj's Kind (RuntimeException when the
	// Kind is empty) instead of pushing it.
	Error
)

// Value is slo's tagged union of primitive values and object references.
type Value struct {
	Type Type
	b    bool
	n    float64
	o    Object
}

// NilVal is the canonical nil value.
var NilVal = Value{Type: Nil}

// EmptyVal is the canonical table sentinel.
var EmptyVal = Value{Type: Empty}

// BoolVal wraps a boolean.
func BoolVal(b bool) Value { return Value{Type: Bool, b: b} }

// NumberVal wraps a float64; slo has no integer type distinct from float.
func NumberVal(n float64) Value { return Value{Type: Number, n: n} }

// ObjVal wraps a heap object reference.
func ObjVal(o Object) Value { return Value{Type: Obj, o: o} }

// ErrorVal wraps a sentinel error value carrying a message, used by
// natives to signal failure without raising immediately.
func ErrorVal(o *ErrorObj) Value { return Value{Type: Error, o: o} }

// AsBool returns the boolean payload. Caller must check Type == Bool.
func (v Value) AsBool() bool { return v.b }

// AsNumber returns the float64 payload. Caller must check Type == Number.
func (v Value) AsNumber() float64 { return v.n }

// AsObj returns the object payload. Caller must check Type == Obj (or Error).
func (v Value) AsObj() Object { return v.o }

// IsNil reports whether v is the Nil sentinel.
func (v Value) IsNil() bool { return v.Type == Nil }

// IsObjKind reports whether v is an Obj of the given kind.
func (v Value) IsObjKind(k Kind) bool {
	return v.Type == Obj && v.o != nil && v.o.ObjKind() == k
}

// IsFalsey implements slo's truthiness table (spec.md §4.4):
// nil, false, 0, "", [], {} are falsey; everything else is truthy.
func (v Value) IsFalsey() bool {
	switch v.Type {
	case Nil:
		return true
	case Bool:
		return !v.b
	case Number:
		return v.n == 0
	case Obj:
		switch o := v.o.(type) {
		case *StringObj:
			return len(o.Chars) == 0
		case *ListObj:
			return len(o.Items) == 0
		case *DictObj:
			return o.Table.Count() == 0
		}
		return false
	default:
		return false
	}
}

// IsTruthy is the negation of IsFalsey.
func (v Value) IsTruthy() bool { return !v.IsFalsey() }

// Equal implements slo's equality: structural for strings and lists
// (recursively), identity for every other object kind, and straightforward
// equality for primitives (invariant 2, spec.md §3).
func Equal(a, b Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case Nil, Empty:
		return true
	case Bool:
		return a.b == b.b
	case Number:
		return a.n == b.n
	case Obj, Error:
		return objEqual(a.o, b.o)
	default:
		return false
	}
}

func objEqual(a, b Object) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.ObjKind() != b.ObjKind() {
		return false
	}
	switch av := a.(type) {
	case *StringObj:
		// Interning means equal-content strings are usually the same
		// pointer already (a == b above); this branch only matters for
		// strings built outside the intern table (e.g. slices).
		bv := b.(*StringObj)
		return av.Chars == bv.Chars
	case *ListObj:
		bv := b.(*ListObj)
		if len(av.Items) != len(bv.Items) {
			return false
		}
		for i := range av.Items {
			if !Equal(av.Items[i], bv.Items[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// TypeName returns the slo-level type name used in error messages and by
// the type() native.
func TypeName(v Value) string {
	switch v.Type {
	case Nil:
		return "nil"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case Empty:
		return "empty"
	case Error:
		return "error"
	case Obj:
		switch v.o.ObjKind() {
		case KindString:
			return "string"
		case KindFunction:
			return "function"
		case KindClosure:
			return "function"
		case KindUpvalue:
			return "upvalue"
		case KindClass:
			return "class"
		case KindInstance:
			return v.o.(*InstanceObj).Class.Name.Chars
		case KindBoundMethod:
			return "function"
		case KindList:
			return "list"
		case KindDict:
			return "dict"
		case KindEnum:
			return "enum"
		case KindFile:
			return "file"
		case KindModule:
			return "module"
		case KindNative:
			return "function"
		case KindNativeProperty:
			return "property"
		case KindError:
			return "error"
		}
	}
	return "unknown"
}

// Stringify renders v the way the canonical str() coercion and print()
// do; non-string operands passed through INTERPOLATE use this too.
func Stringify(v Value) string {
	switch v.Type {
	case Nil:
		return "nil"
	case Bool:
		if v.b {
			return "true"
		}
		return "false"
	case Number:
		return formatNumber(v.n)
	case Empty:
		return ""
	case Error:
		if eo, ok := v.o.(*ErrorObj); ok {
			return fmt.Sprintf("<error: %s>", eo.Message)
		}
		return "<error>"
	case Obj:
		return stringifyObj(v.o)
	default:
		return ""
	}
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return fmt.Sprintf("%d", int64(n))
	}
	return fmt.Sprintf("%g", n)
}
