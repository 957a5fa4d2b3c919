package stdlib

import (
	"math/rand"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
)

// Random returns the `random` module's exports: a process-wide source
// wrapped in the natives a script can call.
func Random(col *gc.Collector) map[string]value.Value {
	src := rand.New(rand.NewSource(1))

	return map[string]value.Value{
		"seed": value.ObjVal(col.NewNative("random.seed", func(argc int, args []value.Value) value.Value {
			if args[0].Type != value.Number {
				return typeErr(col, "random.seed expects a number")
			}
			src = rand.New(rand.NewSource(int64(args[0].AsNumber())))
			return value.NilVal
		}, 1, 1, []string{"seed"})),
		"number": value.ObjVal(col.NewNative("random.number", func(argc int, args []value.Value) value.Value {
			return value.NumberVal(src.Float64())
		}, 0, 0, nil)),
		"int": value.ObjVal(col.NewNative("random.int", func(argc int, args []value.Value) value.Value {
			lo, hi, ok := twoNumbers(args)
			if !ok || hi < lo {
				return typeErr(col, "random.int expects low <= high")
			}
			n := int(hi) - int(lo) + 1
			return value.NumberVal(float64(int(lo) + src.Intn(n)))
		}, 2, 2, []string{"low", "high"})),
		"choice": value.ObjVal(col.NewNative("random.choice", func(argc int, args []value.Value) value.Value {
			list, ok := args[0].AsObj().(*value.ListObj)
			if args[0].Type != value.Obj || !ok || len(list.Items) == 0 {
				return typeErr(col, "random.choice expects a non-empty list")
			}
			return list.Items[src.Intn(len(list.Items))]
		}, 1, 1, []string{"list"})),
	}
}
