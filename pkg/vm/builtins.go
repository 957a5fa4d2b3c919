package vm

import (
	"os"

	"github.com/ESloman/cslo/pkg/natives"
	"github.com/ESloman/cslo/pkg/value"
)

// installBuiltinClasses constructs the four container classes every
// non-Instance receiver dispatches through on INVOKE/GET_PROPERTY
// (spec.md §4.4, supplemented feature list in SPEC_FULL.md §9).
func (v *VM) installBuiltinClasses() {
	v.listClass = v.col.NewClass(v.col.InternString("list"), nil)
	v.dictClass = v.col.NewClass(v.col.InternString("dict"), nil)
	v.stringClass = v.col.NewClass(v.col.InternString("string"), nil)
	v.fileClass = v.col.NewClass(v.col.InternString("file"), nil)

	v.installListMethods()
	v.installDictMethods()
	v.installStringMethods()
	v.installFileMethods()
}

func (v *VM) installListMethods() {
	col, class := v.col, v.listClass

	natives.DefineBuiltIn(col, class, "push", 1, 1, []string{"item"}, func(argc int, args []value.Value) value.Value {
		l := args[0].AsObj().(*value.ListObj)
		l.Items = append(l.Items, args[1])
		return args[0]
	})
	natives.DefineBuiltIn(col, class, "pop", 0, 0, nil, func(argc int, args []value.Value) value.Value {
		l := args[0].AsObj().(*value.ListObj)
		if len(l.Items) == 0 {
			return natives.IndexError(col, "pop from empty list")
		}
		last := l.Items[len(l.Items)-1]
		l.Items = l.Items[:len(l.Items)-1]
		return last
	})
	natives.DefineBuiltIn(col, class, "has", 1, 1, []string{"item"}, func(argc int, args []value.Value) value.Value {
		l := args[0].AsObj().(*value.ListObj)
		for _, item := range l.Items {
			if value.Equal(item, args[1]) {
				return value.BoolVal(true)
			}
		}
		return value.BoolVal(false)
	})
	natives.DefineBuiltIn(col, class, "__index__", 1, 1, []string{"index"}, func(argc int, args []value.Value) value.Value {
		l := args[0].AsObj().(*value.ListObj)
		if args[1].Type != value.Number {
			return natives.TypeError(col, "list index must be a number")
		}
		i := int(args[1].AsNumber())
		if i < 0 || i >= len(l.Items) {
			return natives.IndexError(col, "list index out of range")
		}
		return l.Items[i]
	})

	natives.AddNativeProperty(col, class, "length", func(receiver value.Value) value.Value {
		l := receiver.AsObj().(*value.ListObj)
		return value.NumberVal(float64(len(l.Items)))
	})
}

func (v *VM) installDictMethods() {
	col, class := v.col, v.dictClass

	natives.DefineBuiltIn(col, class, "keys", 0, 0, nil, func(argc int, args []value.Value) value.Value {
		d := args[0].AsObj().(*value.DictObj)
		keys := d.Table.Keys()
		return value.ObjVal(col.NewList(keys, v.listClass))
	})
	natives.DefineBuiltIn(col, class, "values", 0, 0, nil, func(argc int, args []value.Value) value.Value {
		d := args[0].AsObj().(*value.DictObj)
		keys := d.Table.Keys()
		vals := make([]value.Value, len(keys))
		for i, k := range keys {
			val, _ := d.Table.Get(k)
			vals[i] = val
		}
		return value.ObjVal(col.NewList(vals, v.listClass))
	})
	natives.DefineBuiltIn(col, class, "has", 1, 1, []string{"key"}, func(argc int, args []value.Value) value.Value {
		d := args[0].AsObj().(*value.DictObj)
		_, ok := d.Table.Get(args[1])
		return value.BoolVal(ok)
	})
	natives.DefineBuiltIn(col, class, "remove", 1, 1, []string{"key"}, func(argc int, args []value.Value) value.Value {
		d := args[0].AsObj().(*value.DictObj)
		d.Table.Delete(args[1])
		return value.NilVal
	})
	natives.DefineBuiltIn(col, class, "__index__", 1, 1, []string{"key"}, func(argc int, args []value.Value) value.Value {
		d := args[0].AsObj().(*value.DictObj)
		val, ok := d.Table.Get(args[1])
		if !ok {
			return natives.IndexError(col, "key not found in dict")
		}
		return val
	})

	natives.AddNativeProperty(col, class, "length", func(receiver value.Value) value.Value {
		d := receiver.AsObj().(*value.DictObj)
		return value.NumberVal(float64(d.Table.Count()))
	})
}

func (v *VM) installStringMethods() {
	col, class := v.col, v.stringClass

	natives.DefineBuiltIn(col, class, "has", 1, 1, []string{"substr"}, func(argc int, args []value.Value) value.Value {
		s := args[0].AsObj().(*value.StringObj)
		sub, ok := args[1].AsObj().(*value.StringObj)
		if args[1].Type != value.Obj || !ok {
			return natives.TypeError(col, "'has' on a string requires a string operand")
		}
		return value.BoolVal(containsSubstring(s.Chars, sub.Chars))
	})
	natives.DefineBuiltIn(col, class, "upper", 0, 0, nil, func(argc int, args []value.Value) value.Value {
		s := args[0].AsObj().(*value.StringObj)
		return value.ObjVal(col.InternString(toUpper(s.Chars)))
	})
	natives.DefineBuiltIn(col, class, "lower", 0, 0, nil, func(argc int, args []value.Value) value.Value {
		s := args[0].AsObj().(*value.StringObj)
		return value.ObjVal(col.InternString(toLower(s.Chars)))
	})
	natives.DefineBuiltIn(col, class, "__index__", 1, 1, []string{"index"}, func(argc int, args []value.Value) value.Value {
		s := args[0].AsObj().(*value.StringObj)
		if args[1].Type != value.Number {
			return natives.TypeError(col, "string index must be a number")
		}
		i := int(args[1].AsNumber())
		if i < 0 || i >= len(s.Chars) {
			return natives.IndexError(col, "string index out of range")
		}
		return value.ObjVal(col.InternString(string(s.Chars[i])))
	})

	natives.AddNativeProperty(col, class, "length", func(receiver value.Value) value.Value {
		s := receiver.AsObj().(*value.StringObj)
		return value.NumberVal(float64(len(s.Chars)))
	})
}

func (v *VM) installFileMethods() {
	col, class := v.col, v.fileClass

	natives.DefineBuiltIn(col, class, "close", 0, 0, nil, func(argc int, args []value.Value) value.Value {
		f := args[0].AsObj().(*value.FileObj)
		if f.Closed {
			return value.NilVal
		}
		if err := f.Handle.Close(); err != nil {
			return natives.IOError(col, err.Error())
		}
		f.Closed = true
		return value.NilVal
	})
	natives.DefineBuiltIn(col, class, "readLine", 0, 0, nil, func(argc int, args []value.Value) value.Value {
		f := args[0].AsObj().(*value.FileObj)
		if f.Closed {
			return natives.IOError(col, "read from a closed file")
		}
		reader, ok := f.Handle.(interface{ ReadString(byte) (string, error) })
		if !ok {
			return natives.IOError(col, "file is not readable")
		}
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return value.NilVal
		}
		return value.ObjVal(col.InternString(trimNewline(line)))
	})
	natives.DefineBuiltIn(col, class, "writeLine", 1, 1, []string{"text"}, func(argc int, args []value.Value) value.Value {
		f := args[0].AsObj().(*value.FileObj)
		if f.Closed {
			return natives.IOError(col, "write to a closed file")
		}
		writer, ok := f.Handle.(interface{ WriteString(string) (int, error) })
		if !ok {
			return natives.IOError(col, "file is not writable")
		}
		if _, err := writer.WriteString(value.Stringify(args[1]) + "\n"); err != nil {
			return natives.IOError(col, err.Error())
		}
		return value.NilVal
	})

	natives.AddNativeProperty(col, class, "name", func(receiver value.Value) value.Value {
		f := receiver.AsObj().(*value.FileObj)
		return value.ObjVal(col.InternString(f.Name))
	})
}

// defineGlobalNatives installs the free functions every slo program can
// call without an import: len/str/type/print, each grounded on the
// corresponding helper already built for indexing/arithmetic/stringify.
func (v *VM) defineGlobalNatives() {
	col := v.col

	v.globals["print"] = value.ObjVal(col.NewNative("print", func(argc int, args []value.Value) value.Value {
		var w interface {
			Write(p []byte) (int, error)
		} = v.Stdout
		if w == nil {
			w = os.Stdout
		}
		for i, a := range args {
			if i > 0 {
				w.Write([]byte(" "))
			}
			w.Write([]byte(value.Stringify(a)))
		}
		w.Write([]byte("\n"))
		return value.NilVal
	}, -1, -1, nil))
	v.globals["len"] = value.ObjVal(col.NewNative("len", func(argc int, args []value.Value) value.Value {
		return v.length(args[0])
	}, 1, 1, []string{"container"}))
	v.globals["str"] = value.ObjVal(col.NewNative("str", func(argc int, args []value.Value) value.Value {
		return value.ObjVal(col.InternString(value.Stringify(args[0])))
	}, 1, 1, []string{"value"}))
	v.globals["type"] = value.ObjVal(col.NewNative("type", func(argc int, args []value.Value) value.Value {
		return value.ObjVal(col.InternString(value.TypeName(args[0])))
	}, 1, 1, []string{"value"}))
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'z' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

func trimNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
