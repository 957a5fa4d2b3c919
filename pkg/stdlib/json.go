package stdlib

import (
	"encoding/json"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
)

// JSON returns the `json` module's exports: parse/stringify converting
// between encoding/json's generic Go representation and slo Values.
// listClass/dictClass are the VM's shared container classes so parsed
// arrays/objects dispatch through the same method tables a literal
// would.
func JSON(col *gc.Collector, listClass, dictClass *value.ClassObj) map[string]value.Value {
	return map[string]value.Value{
		"parse": value.ObjVal(col.NewNative("json.parse", func(argc int, args []value.Value) value.Value {
			s, ok := args[0].AsObj().(*value.StringObj)
			if args[0].Type != value.Obj || !ok {
				return typeErr(col, "json.parse expects a string")
			}
			var decoded interface{}
			if err := json.Unmarshal([]byte(s.Chars), &decoded); err != nil {
				return typeErr(col, "invalid json: "+err.Error())
			}
			return fromGo(col, listClass, dictClass, decoded)
		}, 1, 1, []string{"text"})),
		"stringify": value.ObjVal(col.NewNative("json.stringify", func(argc int, args []value.Value) value.Value {
			encoded, err := json.Marshal(toGo(args[0]))
			if err != nil {
				return typeErr(col, "cannot encode value as json: "+err.Error())
			}
			return value.ObjVal(col.InternString(string(encoded)))
		}, 1, 1, []string{"value"})),
	}
}

func fromGo(col *gc.Collector, listClass, dictClass *value.ClassObj, v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.NilVal
	case bool:
		return value.BoolVal(t)
	case float64:
		return value.NumberVal(t)
	case string:
		return value.ObjVal(col.InternString(t))
	case []interface{}:
		items := make([]value.Value, len(t))
		for i, item := range t {
			items[i] = fromGo(col, listClass, dictClass, item)
		}
		return value.ObjVal(col.NewList(items, listClass))
	case map[string]interface{}:
		dict := col.NewDict(dictClass)
		for k, val := range t {
			dict.Table.Set(value.ObjVal(col.InternString(k)), fromGo(col, listClass, dictClass, val))
		}
		return value.ObjVal(dict)
	}
	return value.NilVal
}

func toGo(v value.Value) interface{} {
	switch v.Type {
	case value.Nil:
		return nil
	case value.Bool:
		return v.AsBool()
	case value.Number:
		return v.AsNumber()
	case value.Obj:
		switch o := v.AsObj().(type) {
		case *value.StringObj:
			return o.Chars
		case *value.ListObj:
			items := make([]interface{}, len(o.Items))
			for i, item := range o.Items {
				items[i] = toGo(item)
			}
			return items
		case *value.DictObj:
			out := make(map[string]interface{})
			for _, k := range o.Table.Keys() {
				val, _ := o.Table.Get(k)
				key := value.Stringify(k)
				out[key] = toGo(val)
			}
			return out
		}
	}
	return value.Stringify(v)
}
