package gc

import (
	"github.com/ESloman/cslo/pkg/table"
	"github.com/ESloman/cslo/pkg/value"
)

func newDictTable() value.DictTable {
	return table.New()
}

// InternString returns the unique StringObj for chars, allocating and
// registering a new one only if an equal-content string hasn't been
// interned yet (invariant 2, spec.md §3).
func (c *Collector) InternString(chars string) *value.StringObj {
	hash := value.HashString(chars)
	if existing := c.strings.FindString(chars, hash); existing != nil {
		return existing
	}
	s := c.NewString(chars)
	c.PushTemp(value.ObjVal(s))
	c.strings.Set(value.ObjVal(s), value.BoolVal(true))
	c.PopTemp()
	return s
}

// NewFunction allocates an uninitialised FunctionObj; callers fill in
// Arity/UpvalueCount/Chunk once compilation of its body completes.
func (c *Collector) NewFunction() *value.FunctionObj {
	return Alloc(c, &value.FunctionObj{})
}

// NewClosure allocates a closure over fn with room for upvalueCount
// upvalue slots.
func (c *Collector) NewClosure(fn *value.FunctionObj) *value.ClosureObj {
	return Alloc(c, &value.ClosureObj{
		Function: fn,
		Upvalues: make([]*value.UpvalueObj, fn.UpvalueCount),
	})
}

// NewOpenUpvalue allocates an upvalue pointing at a live stack slot.
func (c *Collector) NewOpenUpvalue(stackIndex int) *value.UpvalueObj {
	return Alloc(c, &value.UpvalueObj{Location: stackIndex, IsOpen: true})
}

// NewClass allocates a class with empty method/property tables.
func (c *Collector) NewClass(name *value.StringObj, super *value.ClassObj) *value.ClassObj {
	return Alloc(c, value.NewClass(name, super))
}

// NewInstance allocates a zero-field instance of class.
func (c *Collector) NewInstance(class *value.ClassObj) *value.InstanceObj {
	return Alloc(c, value.NewInstance(class))
}

// NewBoundMethod allocates a method closed over receiver.
func (c *Collector) NewBoundMethod(receiver, method value.Value) *value.BoundMethodObj {
	return Alloc(c, &value.BoundMethodObj{Receiver: receiver, Method: method})
}

// NewList allocates a list seeded with items (copied by reference, not
// cloned) and the shared list built-in class.
func (c *Collector) NewList(items []value.Value, class *value.ClassObj) *value.ListObj {
	return Alloc(c, &value.ListObj{Items: items, Class: class})
}

// NewDict allocates an empty dict backed by a fresh table.Table.
func (c *Collector) NewDict(class *value.ClassObj) *value.DictObj {
	return Alloc(c, &value.DictObj{Table: newDictTable(), Class: class})
}

// NewEnum allocates an enum with the given ordinal table.
func (c *Collector) NewEnum(name *value.StringObj, order []string, members map[string]int) *value.EnumObj {
	return Alloc(c, &value.EnumObj{Name: name, Members: members, Order: order})
}

// NewModule allocates a module with the given export table.
func (c *Collector) NewModule(name *value.StringObj, exports map[string]value.Value) *value.ModuleObj {
	return Alloc(c, &value.ModuleObj{Name: name, Exports: exports})
}

// NewNative allocates a native-function wrapper.
func (c *Collector) NewNative(name string, fn value.NativeFn, min, max int, params []string) *value.NativeObj {
	return Alloc(c, &value.NativeObj{Name: name, Fn: fn, ArityMin: min, ArityMax: max, Params: params})
}

// NewNativeProperty allocates a native zero-arg getter.
func (c *Collector) NewNativeProperty(name string, getter func(value.Value) value.Value) *value.NativePropertyObj {
	return Alloc(c, &value.NativePropertyObj{Name: name, Getter: getter})
}

// NewErrorObj allocates a value-form error sentinel carrying the
// exception kind it should surface as (spec.md §7).
func (c *Collector) NewErrorObj(kind, message string) *value.ErrorObj {
	return Alloc(c, &value.ErrorObj{Kind: kind, Message: message})
}

// NewFile allocates a file wrapper around an already-opened handle.
func (c *Collector) NewFile(name string, mode value.FileMode, handle interface{ Close() error }) *value.FileObj {
	return Alloc(c, &value.FileObj{Name: name, Mode: mode, Handle: handle})
}
