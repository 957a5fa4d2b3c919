// Package table implements slo's open-addressed hash table, keyed by
// value.Value, used both for the VM-wide string-intern set and as the
// backing store of dict objects.
//
// Deletion uses tombstones: a removed entry becomes {key: Empty, value:
// true} so that later probes following the original chain don't stop
// early. Only {key: Empty, value: Nil} means "truly free" (spec.md §3,
// invariant 6).
package table

import (
	"math"
	"reflect"

	"github.com/ESloman/cslo/pkg/value"
)

const maxLoad = 0.75

type entry struct {
	key     value.Value
	val     value.Value
	present bool // false only for a never-used slot
}

// Table is slo's general-purpose open-addressed hash map.
type Table struct {
	entries []entry
	count   int // live entries, not counting tombstones
}

// New returns an empty table.
func New() *Table {
	return &Table{}
}

// Count returns the number of live (non-tombstone) entries.
func (t *Table) Count() int { return t.count }

func hashOf(key value.Value) uint32 {
	switch key.Type {
	case value.Nil:
		return 0
	case value.Bool:
		if key.AsBool() {
			return 1
		}
		return 2
	case value.Number:
		return hashFloat(key.AsNumber())
	case value.Obj:
		if s, ok := key.AsObj().(*value.StringObj); ok {
			return s.Hash
		}
		return hashPointer(key.AsObj())
	default:
		return 0
	}
}

func hashFloat(f float64) uint32 {
	bits := math.Float64bits(f)
	return uint32(bits) ^ uint32(bits>>32)
}

func (t *Table) grow(capacity int) {
	old := t.entries
	t.entries = make([]entry, capacity)
	t.count = 0
	for _, e := range old {
		if !e.present || e.key.Type == value.Empty {
			continue
		}
		idx := t.findEntry(t.entries, e.key)
		t.entries[idx] = entry{key: e.key, val: e.val, present: true}
		t.count++
	}
}

func (t *Table) findEntry(entries []entry, key value.Value) int {
	capacity := len(entries)
	h := hashOf(key)
	idx := int(h) % capacity
	var tombstone = -1
	for {
		e := &entries[idx]
		if !e.present {
			if tombstone != -1 {
				return tombstone
			}
			return idx
		}
		if e.key.Type == value.Empty {
			// tombstone: key=Empty, val=true
			if tombstone == -1 {
				tombstone = idx
			}
		} else if valuesIdentical(e.key, key) {
			return idx
		}
		idx = (idx + 1) % capacity
	}
}

func valuesIdentical(a, b value.Value) bool {
	if a.Type != b.Type {
		return false
	}
	switch a.Type {
	case value.Nil:
		return true
	case value.Bool:
		return a.AsBool() == b.AsBool()
	case value.Number:
		return a.AsNumber() == b.AsNumber()
	case value.Obj:
		// Strings are interned: identity comparison is correct and is
		// exactly what invariant 2 (spec.md §3) requires.
		return a.AsObj() == b.AsObj()
	default:
		return false
	}
}

// Get looks up key, returning (value, true) if present.
func (t *Table) Get(key value.Value) (value.Value, bool) {
	if len(t.entries) == 0 {
		return value.NilVal, false
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	if !e.present || e.key.Type == value.Empty {
		return value.NilVal, false
	}
	return e.val, true
}

// Set inserts or overwrites key->val, returning true if this created a
// new entry (as opposed to overwriting one).
func (t *Table) Set(key value.Value, val value.Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*maxLoad {
		capacity := growCapacity(len(t.entries))
		t.grow(capacity)
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	isNew := !e.present || e.key.Type == value.Empty
	if isNew {
		t.count++
	}
	t.entries[idx] = entry{key: key, val: val, present: true}
	return isNew
}

// Delete removes key, leaving a tombstone so later probes still resolve.
func (t *Table) Delete(key value.Value) bool {
	if len(t.entries) == 0 {
		return false
	}
	idx := t.findEntry(t.entries, key)
	e := &t.entries[idx]
	if !e.present || e.key.Type == value.Empty {
		return false
	}
	t.entries[idx] = entry{key: value.EmptyVal, val: value.BoolVal(true), present: true}
	t.count--
	return true
}

// Keys returns the live keys in table-internal (unspecified) order.
func (t *Table) Keys() []value.Value {
	keys := make([]value.Value, 0, t.count)
	for _, e := range t.entries {
		if e.present && e.key.Type != value.Empty {
			keys = append(keys, e.key)
		}
	}
	return keys
}

// Each calls fn for every live key/value pair.
func (t *Table) Each(fn func(key, val value.Value)) {
	for _, e := range t.entries {
		if e.present && e.key.Type != value.Empty {
			fn(e.key, e.val)
		}
	}
}

func growCapacity(capacity int) int {
	if capacity < 8 {
		return 8
	}
	return capacity * 2
}

func hashPointer(o value.Object) uint32 {
	// Identity hash for non-string, non-number object keys (dict keys of
	// object kind other than string use identity semantics, matching
	// Equal's fallback to identity in pkg/value).
	ptr := reflect.ValueOf(o).Pointer()
	return uint32(ptr) ^ uint32(ptr>>32)
}
