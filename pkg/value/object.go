package value

import (
	"fmt"
	"strings"
)

// Kind tags the concrete shape of a heap Object.
type Kind int

const (
	KindString Kind = iota
	KindFunction
	KindClosure
	KindUpvalue
	KindClass
	KindInstance
	KindBoundMethod
	KindList
	KindDict
	KindEnum
	KindFile
	KindModule
	KindNative
	KindNativeProperty
	KindError
)

func (k Kind) String() string {
	names := [...]string{
		"String", "Function", "Closure", "Upvalue", "Class", "Instance",
		"BoundMethod", "List", "Dict", "Enum", "File", "Module", "Native",
		"NativeProperty", "Error",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "Unknown"
}

// Object is the interface every heap-allocated value satisfies. Header
// returns the intrusive GC bookkeeping embedded in every concrete kind.
type Object interface {
	ObjKind() Kind
	Header() *Header
}

// Header is embedded in every object kind. Mark flips polarity each GC
// cycle rather than being reset to a fixed "white" value: "marked" means
// "Mark == the collector's current cycle colour" (spec.md §4.5).
type Header struct {
	Mark bool
	Next Object
}

func (h *Header) Header() *Header { return h }

// StringObj is an immutable, interned byte buffer.
type StringObj struct {
	Header
	Chars string
	Hash  uint32
}

func (s *StringObj) ObjKind() Kind { return KindString }

// HashString computes the FNV-1a hash used for interning and table probing.
func HashString(s string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}

// FunctionObj is the compiled form of a func/method body: arity, upvalue
// count, and the chunk the compiler emitted for it. Chunk is declared as
// `interface{}` here to avoid an import cycle with pkg/bytecode; the VM
// and compiler assert it back to *bytecode.Chunk.
type FunctionObj struct {
	Header
	Arity        int
	UpvalueCount int
	Name         *StringObj // nil for the top-level script
	SourceFile   string
	Chunk        interface{}
}

func (f *FunctionObj) ObjKind() Kind { return KindFunction }

func (f *FunctionObj) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return fmt.Sprintf("<func %s>", f.Name.Chars)
}

// UpvalueRef describes one upvalue a closure captures: either a direct
// slot in the immediately enclosing frame (IsLocal) or one inherited
// transitively from that frame's own upvalue array.
type UpvalueRef struct {
	Index   int
	IsLocal bool
	IsFinal bool
}

// ClosureObj pairs a function with its captured upvalues. It is the only
// callable runtime function form (spec.md GLOSSARY).
type ClosureObj struct {
	Header
	Function *FunctionObj
	Upvalues []*UpvalueObj
}

func (c *ClosureObj) ObjKind() Kind { return KindClosure }

// UpvalueObj is open while it still points at a live stack slot, and
// closed once the slot leaves scope (spec.md §3, invariant 3).
type UpvalueObj struct {
	Header
	// Location indexes into the VM operand stack while open.
	Location int
	Closed   Value
	IsOpen   bool
	Next     *UpvalueObj // threaded into the VM's sorted open-upvalue list
}

func (u *UpvalueObj) ObjKind() Kind { return KindUpvalue }

// ClassObj carries its method table (closures or natives) and an optional
// native-property table of host getters.
type ClassObj struct {
	Header
	Name        *StringObj
	Super       *ClassObj
	Methods     map[string]Value // closure or native Value
	NativeProps map[string]*NativePropertyObj
}

func (c *ClassObj) ObjKind() Kind { return KindClass }

// NewClass allocates a class with empty method/property tables.
func NewClass(name *StringObj, super *ClassObj) *ClassObj {
	return &ClassObj{
		Name:        name,
		Super:       super,
		Methods:     make(map[string]Value),
		NativeProps: make(map[string]*NativePropertyObj),
	}
}

// InstanceObj is a class pointer plus a mutable field table.
type InstanceObj struct {
	Header
	Class  *ClassObj
	Fields map[string]Value
}

func (i *InstanceObj) ObjKind() Kind { return KindInstance }

// NewInstance allocates a zero-field instance of class.
func NewInstance(class *ClassObj) *InstanceObj {
	return &InstanceObj{Class: class, Fields: make(map[string]Value)}
}

// BoundMethodObj closes a class method over a specific receiver for
// deferred invocation (e.g. `obj.method` without a call, or `super.m`).
type BoundMethodObj struct {
	Header
	Receiver Value
	Method   Value // ClosureObj or NativeObj
}

func (b *BoundMethodObj) ObjKind() Kind { return KindBoundMethod }

// ListObj is a growable sequence with a class pointer enabling method
// dispatch via INVOKE.
type ListObj struct {
	Header
	Items []Value
	Class *ClassObj
}

func (l *ListObj) ObjKind() Kind { return KindList }

// DictObj is a Value->Value hash table (backed by pkg/table) with a class
// pointer enabling method dispatch.
type DictObj struct {
	Header
	Table DictTable
	Class *ClassObj
}

func (d *DictObj) ObjKind() Kind { return KindDict }

// DictTable is the minimal surface pkg/table.Table exposes that pkg/value
// needs, declared here to avoid importing pkg/table (which itself depends
// on Value) from this package.
type DictTable interface {
	Get(key Value) (Value, bool)
	Set(key Value, val Value) bool
	Delete(key Value) bool
	Count() int
	Keys() []Value
}

// EnumObj is a name plus a symbolic-name -> ordinal table.
type EnumObj struct {
	Header
	Name    *StringObj
	Members map[string]int
	Order   []string
}

func (e *EnumObj) ObjKind() Kind { return KindEnum }

// FileMode enumerates the modes a File can be opened with.
type FileMode int

const (
	FileRead FileMode = iota
	FileWrite
	FileAppend
)

// FileObj wraps a platform file handle.
type FileObj struct {
	Header
	Handle interface {
		Close() error
	}
	Name   string
	Mode   FileMode
	Closed bool
}

func (f *FileObj) ObjKind() Kind { return KindFile }

// ModuleObj is a named table of exported callables resolved by `import`.
type ModuleObj struct {
	Header
	Name    *StringObj
	Exports map[string]Value
}

func (m *ModuleObj) ObjKind() Kind { return KindModule }

// NativeFn is the host-side function signature natives implement
// (spec.md §6): it receives argc and a slice view of the arguments and
// returns a Value, using ErrorVal as the failure sentinel.
type NativeFn func(argc int, args []Value) Value

// NativeObj wraps a host function pointer plus arity metadata.
type NativeObj struct {
	Header
	Name     string
	Fn       NativeFn
	ArityMin int
	ArityMax int // -1 means unbounded
	Params   []string
}

func (n *NativeObj) ObjKind() Kind { return KindNative }

// NativePropertyObj wraps a host zero-arg getter installed via
// addNativeProperty, callable through GET_PROPERTY.
type NativePropertyObj struct {
	Header
	Name   string
	Getter func(receiver Value) Value
}

func (n *NativePropertyObj) ObjKind() Kind { return KindNativeProperty }

// ErrorObj is the payload of a value-form Error: a short message (and
// the exception kind it should surface as, per spec.md §7) a native
// returns to short-circuit the call.
type ErrorObj struct {
	Header
	Kind    string
	Message string
}

func (e *ErrorObj) ObjKind() Kind { return KindError }

func stringifyObj(o Object) string {
	switch v := o.(type) {
	case *StringObj:
		return v.Chars
	case *FunctionObj:
		return v.String()
	case *ClosureObj:
		return v.Function.String()
	case *NativeObj:
		return fmt.Sprintf("<native %s>", v.Name)
	case *NativePropertyObj:
		return fmt.Sprintf("<property %s>", v.Name)
	case *ClassObj:
		return fmt.Sprintf("<class %s>", v.Name.Chars)
	case *InstanceObj:
		return fmt.Sprintf("<%s instance>", v.Class.Name.Chars)
	case *BoundMethodObj:
		return stringifyObj(v.Method.AsObj())
	case *ListObj:
		parts := make([]string, len(v.Items))
		for i, item := range v.Items {
			if item.Type == Obj {
				if s, ok := item.AsObj().(*StringObj); ok {
					parts[i] = fmt.Sprintf("%q", s.Chars)
					continue
				}
			}
			parts[i] = Stringify(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case *DictObj:
		parts := make([]string, 0, v.Table.Count())
		for _, k := range v.Table.Keys() {
			val, _ := v.Table.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", Stringify(k), Stringify(val)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *EnumObj:
		return fmt.Sprintf("<enum %s>", v.Name.Chars)
	case *FileObj:
		return fmt.Sprintf("<file %s>", v.Name)
	case *ModuleObj:
		return fmt.Sprintf("<module %s>", v.Name.Chars)
	case *ErrorObj:
		return fmt.Sprintf("<error: %s>", v.Message)
	case *UpvalueObj:
		return "<upvalue>"
	default:
		return "<object>"
	}
}
