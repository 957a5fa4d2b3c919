package vm

import "github.com/ESloman/cslo/pkg/value"

// getIndex implements `a[i]` (spec.md §4.4): numeric index into a list
// (negative wraps from the end) or arbitrary key into a dict.
func (v *VM) getIndex(container, index value.Value) value.Value {
	if container.Type != value.Obj {
		panic(v.newError("TypeException", "cannot index "+value.TypeName(container)))
	}
	switch c := container.AsObj().(type) {
	case *value.ListObj:
		i := v.listIndex(c, index)
		return c.Items[i]
	case *value.DictObj:
		val, ok := c.Table.Get(index)
		if !ok {
			panic(v.newError("IndexException", "key not found in dict"))
		}
		return val
	case *value.StringObj:
		i := v.stringIndex(c, index)
		return value.ObjVal(v.col.InternString(string(c.Chars[i])))
	}
	panic(v.newError("TypeException", "cannot index "+value.TypeName(container)))
}

// setIndex implements `a[i] = v`.
func (v *VM) setIndex(container, index, val value.Value) {
	if container.Type != value.Obj {
		panic(v.newError("TypeException", "cannot index-assign "+value.TypeName(container)))
	}
	switch c := container.AsObj().(type) {
	case *value.ListObj:
		i := v.listIndex(c, index)
		c.Items[i] = val
	case *value.DictObj:
		c.Table.Set(index, val)
	default:
		panic(v.newError("TypeException", "cannot index-assign "+value.TypeName(container)))
	}
}

func (v *VM) listIndex(l *value.ListObj, index value.Value) int {
	if index.Type != value.Number {
		panic(v.newError("TypeException", "list index must be a number"))
	}
	i := int(index.AsNumber())
	if i < 0 {
		i += len(l.Items)
	}
	if i < 0 || i >= len(l.Items) {
		panic(v.newError("IndexException", "list index out of range"))
	}
	return i
}

func (v *VM) stringIndex(s *value.StringObj, index value.Value) int {
	if index.Type != value.Number {
		panic(v.newError("TypeException", "string index must be a number"))
	}
	i := int(index.AsNumber())
	if i < 0 {
		i += len(s.Chars)
	}
	if i < 0 || i >= len(s.Chars) {
		panic(v.newError("IndexException", "string index out of range"))
	}
	return i
}

// slice implements `a[i:j]` for lists, with nil endpoints meaning
// "default" (spec.md §4.4): start defaults to 0, end to len(list).
func (v *VM) slice(container, start, end value.Value) value.Value {
	if container.Type != value.Obj {
		panic(v.newError("TypeException", "cannot slice "+value.TypeName(container)))
	}
	switch c := container.AsObj().(type) {
	case *value.ListObj:
		lo, hi := v.sliceBounds(len(c.Items), start, end)
		items := make([]value.Value, hi-lo)
		copy(items, c.Items[lo:hi])
		return value.ObjVal(v.col.NewList(items, v.listClass))
	case *value.StringObj:
		lo, hi := v.sliceBounds(len(c.Chars), start, end)
		return value.ObjVal(v.col.InternString(c.Chars[lo:hi]))
	}
	panic(v.newError("TypeException", "cannot slice "+value.TypeName(container)))
}

func (v *VM) sliceBounds(length int, start, end value.Value) (int, int) {
	lo := 0
	if !start.IsNil() {
		lo = int(start.AsNumber())
		if lo < 0 {
			lo += length
		}
	}
	hi := length
	if !end.IsNil() {
		hi = int(end.AsNumber())
		if hi < 0 {
			hi += length
		}
	}
	if lo < 0 {
		lo = 0
	}
	if hi > length {
		hi = length
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// length implements LEN for list/dict/string.
func (v *VM) length(container value.Value) value.Value {
	if container.Type == value.Obj {
		switch c := container.AsObj().(type) {
		case *value.ListObj:
			return value.NumberVal(float64(len(c.Items)))
		case *value.DictObj:
			return value.NumberVal(float64(c.Table.Count()))
		case *value.StringObj:
			return value.NumberVal(float64(len(c.Chars)))
		}
	}
	panic(v.newError("TypeException", "cannot take len() of "+value.TypeName(container)))
}
