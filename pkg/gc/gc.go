// Package gc implements slo's tracing garbage collector: a tri-colour
// mark-sweep over an intrusive linked list of every object the VM has
// ever allocated, with a flipping mark-bit colour scheme so no per-cycle
// reset pass is needed (spec.md §4.5).
//
// White = Header.Mark != Collector.markValue. Gray = enqueued on the
// worklist. Black = marked and already traced. The collector doesn't
// track white/gray/black explicitly as enum values — "colour" is
// reconstructed from Mark plus worklist membership, exactly like clox.
package gc

import (
	"github.com/ESloman/cslo/pkg/table"
	"github.com/ESloman/cslo/pkg/value"
)

const (
	initialNextGC  = 1024 * 1024
	heapGrowFactor = 2
)

// RootSource lets an owner of GC roots (the VM, the active compiler
// chain) contribute to mark-roots without gc importing them — it
// imports gc instead, keeping the dependency edge in the idiomatic
// direction (spec.md §9, "reentrant allocation inside the compiler").
type RootSource interface {
	// MarkRoots is called once per collection cycle; the implementation
	// should call Collector.MarkValue/MarkObject for everything it
	// holds live.
	MarkRoots(c *Collector)
}

// Collector owns the intrusive allocation list, the bytes-allocated
// accounting, and the VM-wide string-intern table (strings are removed
// from the intern table when unmarked, per spec.md §4.5 step 3).
type Collector struct {
	head           value.Object // head of the intrusive allocation list
	bytesAllocated int64
	nextGC         int64
	markValue      bool
	gray           []value.Object
	strings        *table.Table
	roots          []RootSource
	temps          []value.Value

	// Stress, when true, forces a collection on every allocation, without
	// waiting for the heap to actually grow.
	Stress bool
	// Verbose is set by the VM when it installs its OnCollect hook, which
	// logs collection summaries at logrus Debug level (see pkg/vm); the
	// collector itself does not read it.
	Verbose   bool
	OnCollect func(freed int, before, after int64, next int64)
}

// New returns a collector with an empty heap and a fresh intern table.
func New() *Collector {
	return &Collector{
		nextGC:  initialNextGC,
		strings: table.New(),
	}
}

// Strings returns the VM-wide intern table, consulted by CopyString.
func (c *Collector) Strings() *table.Table { return c.strings }

// AddRoot registers an additional root source (typically the compiler
// chain head); RemoveRoot unregisters it once compilation of that chain
// link finishes.
func (c *Collector) AddRoot(r RootSource) {
	c.roots = append(c.roots, r)
}

// RemoveRoot drops r from the root-source list.
func (c *Collector) RemoveRoot(r RootSource) {
	for i, existing := range c.roots {
		if existing == r {
			c.roots = append(c.roots[:i], c.roots[i+1:]...)
			return
		}
	}
}

// track links a freshly-allocated object into the intrusive list and
// accounts for its approximate size, triggering a collection if the
// allocator has crossed nextGC (or Stress is set).
func (c *Collector) track(o value.Object, size int64) {
	h := o.Header()
	h.Mark = !c.markValue // born white
	h.Next = c.head
	c.head = o
	c.bytesAllocated += size

	if c.Stress || c.bytesAllocated > c.nextGC {
		c.Collect()
	}
}

// approxSize is a rough per-kind byte estimate used only to drive the
// growth heuristic; it need not be exact.
func approxSize(o value.Object) int64 {
	switch v := o.(type) {
	case *value.StringObj:
		return int64(32 + len(v.Chars))
	case *value.ListObj:
		return int64(32 + len(v.Items)*16)
	case *value.DictObj:
		return int64(48 + v.Table.Count()*24)
	default:
		return 48
	}
}

// NewString allocates and tracks a StringObj. Callers needing interning
// should go through (*Collector).InternString instead; this is the raw
// allocation primitive the intern path and non-interned scratch strings
// (e.g. slice results before hashing) both use.
func (c *Collector) NewString(chars string) *value.StringObj {
	s := &value.StringObj{Chars: chars, Hash: value.HashString(chars)}
	c.track(s, approxSize(s))
	return s
}

// Alloc tracks an already-constructed object o (for kinds with
// construction logic that lives in pkg/value, e.g. NewInstance/NewClass)
// and returns it for chaining.
func Alloc[T value.Object](c *Collector, o T) T {
	c.track(o, approxSize(o))
	return o
}

// MarkValue marks v if it is an object reference, enqueuing it on the
// gray worklist unless it's a kind known to carry no outgoing references
// (strings, natives — spec.md §4.5, "Strings and native functions are
// optimised").
func (c *Collector) MarkValue(v value.Value) {
	if v.Type != value.Obj && v.Type != value.Error {
		return
	}
	if o := v.AsObj(); o != nil {
		c.MarkObject(o)
	}
}

// MarkObject marks o black-bound: if it was white, flip its mark and,
// unless it's leaf-shaped, push it onto the gray worklist for Trace to
// blacken later.
func (c *Collector) MarkObject(o value.Object) {
	if o == nil {
		return
	}
	h := o.Header()
	if h.Mark == c.markValue {
		return // already marked this cycle
	}
	h.Mark = c.markValue
	switch o.(type) {
	case *value.StringObj, *value.NativeObj, *value.NativePropertyObj:
		return // no outgoing references
	}
	c.gray = append(c.gray, o)
}

// PushTemp protects v from collection for the duration of an operation
// that allocates before v has a permanent home (e.g. a container about
// to receive it). Pair with PopTemp. Mirrors clox's trick of pushing a
// constant onto the VM stack across array growth (spec.md §9).
func (c *Collector) PushTemp(v value.Value) { c.temps = append(c.temps, v) }

// PopTemp releases the most recently pushed temp root.
func (c *Collector) PopTemp() {
	if len(c.temps) > 0 {
		c.temps = c.temps[:len(c.temps)-1]
	}
}

// Collect runs one full mark-sweep cycle (spec.md §4.5).
func (c *Collector) Collect() {
	before := c.bytesAllocated
	c.markValue = !c.markValue
	c.gray = c.gray[:0]

	for _, t := range c.temps {
		c.MarkValue(t)
	}
	for _, r := range c.roots {
		r.MarkRoots(c)
	}

	c.trace()
	c.sweepStrings()
	freed := c.sweep()

	c.nextGC = c.bytesAllocated * heapGrowFactor
	if c.nextGC < initialNextGC {
		c.nextGC = initialNextGC
	}
	if c.OnCollect != nil {
		c.OnCollect(freed, before, c.bytesAllocated, c.nextGC)
	}
}

func (c *Collector) trace() {
	for len(c.gray) > 0 {
		o := c.gray[len(c.gray)-1]
		c.gray = c.gray[:len(c.gray)-1]
		c.blacken(o)
	}
}

// blacken pushes every object o references onto the gray worklist (via
// MarkObject, which itself pushes non-leaf kinds).
func (c *Collector) blacken(o value.Object) {
	switch v := o.(type) {
	case *value.FunctionObj:
		if v.Name != nil {
			c.MarkObject(v.Name)
		}
		if chunk, ok := v.Chunk.(interface{ MarkConstants(*Collector) }); ok {
			chunk.MarkConstants(c)
		}
	case *value.ClosureObj:
		c.MarkObject(v.Function)
		for _, uv := range v.Upvalues {
			c.MarkObject(uv)
		}
	case *value.UpvalueObj:
		if !v.IsOpen {
			c.MarkValue(v.Closed)
		}
	case *value.ClassObj:
		c.MarkObject(v.Name)
		if v.Super != nil {
			c.MarkObject(v.Super)
		}
		for _, m := range v.Methods {
			c.MarkValue(m)
		}
		for _, np := range v.NativeProps {
			c.MarkObject(np)
		}
	case *value.InstanceObj:
		c.MarkObject(v.Class)
		for _, f := range v.Fields {
			c.MarkValue(f)
		}
	case *value.BoundMethodObj:
		c.MarkValue(v.Receiver)
		c.MarkValue(v.Method)
	case *value.ListObj:
		c.MarkObject(v.Class)
		for _, item := range v.Items {
			c.MarkValue(item)
		}
	case *value.DictObj:
		c.MarkObject(v.Class)
		for _, k := range v.Table.Keys() {
			c.MarkValue(k)
			if val, ok := v.Table.Get(k); ok {
				c.MarkValue(val)
			}
		}
	case *value.EnumObj:
		c.MarkObject(v.Name)
	case *value.ModuleObj:
		c.MarkObject(v.Name)
		for _, m := range v.Exports {
			c.MarkValue(m)
		}
	case *value.ErrorObj:
		// message string is Go-native, nothing to mark
	case *value.FileObj:
		// no object references
	}
}

// sweepStrings removes any intern-table entry whose string object is
// unmarked, preventing dangling interned strings (spec.md §4.5 step 3).
func (c *Collector) sweepStrings() {
	for _, k := range c.strings.Keys() {
		s, ok := k.AsObj().(*value.StringObj)
		if !ok {
			continue
		}
		if s.Mark != c.markValue {
			c.strings.Delete(k)
		}
	}
}

// sweep walks the intrusive allocation list, unlinking and releasing any
// object left unmarked after tracing. Native objects are skipped
// (spec.md §4.5 step 4: "treated as pinned statics").
func (c *Collector) sweep() int {
	var prev value.Object
	cur := c.head
	freed := 0
	for cur != nil {
		h := cur.Header()
		if _, isNative := cur.(*value.NativeObj); isNative {
			prev = cur
			cur = h.Next
			continue
		}
		if h.Mark == c.markValue {
			prev = cur
			cur = h.Next
			continue
		}
		unreached := cur
		cur = h.Next
		if prev != nil {
			prev.Header().Next = cur
		} else {
			c.head = cur
		}
		finalize(unreached)
		c.bytesAllocated -= approxSize(unreached)
		freed++
	}
	return freed
}

// finalize releases kind-specific owned resources (currently: closes
// open file handles) before an object is dropped from the allocation
// list. Go's own GC reclaims the memory; this only runs the destructor
// side effects slo's spec requires to be deterministic.
func finalize(o value.Object) {
	if f, ok := o.(*value.FileObj); ok && !f.Closed && f.Handle != nil {
		f.Handle.Close()
		f.Closed = true
	}
}

// BytesAllocated reports current accounted heap size, used by debug
// logging (humanize.Bytes) and tests.
func (c *Collector) BytesAllocated() int64 { return c.bytesAllocated }

// NextGC reports the next collection threshold.
func (c *Collector) NextGC() int64 { return c.nextGC }
