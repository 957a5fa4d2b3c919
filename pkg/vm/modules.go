package vm

import (
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/module"
	"github.com/ESloman/cslo/pkg/stdlib"
	"github.com/ESloman/cslo/pkg/value"
)

// installModuleLoader registers the fixed built-in module table (spec.md
// §4.7/§6): math, random, os, json. Must run after installBuiltinClasses
// so json's factory can close over the shared list/dict classes.
func (v *VM) installModuleLoader() {
	registry := map[string]module.Factory{
		"math":   stdlib.Math,
		"random": stdlib.Random,
		"os":     stdlib.OS,
		"json": func(col *gc.Collector) map[string]value.Value {
			return stdlib.JSON(col, v.listClass, v.dictClass)
		},
	}
	v.loader = module.New(v.col, registry)
}

// doImport binds name's module (or an ImportException) to the global
// variable bindName (the module's own name for `import m;`, the alias
// for `import m as n;`).
func (v *VM) doImport(name, bindName string) {
	mod, err := v.loader.Load(name)
	if err != nil {
		panic(v.newError("ImportException", err.Error()))
	}
	v.globals[bindName] = value.ObjVal(mod)
}
