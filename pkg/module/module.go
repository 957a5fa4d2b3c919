// Package module implements slo's import resolution (spec.md §4.7): a
// fixed table of built-in modules, each a name plus an export map, with
// no filesystem-backed user modules (the core only knows the modules it
// is handed at construction time).
package module

import (
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
)

// Factory builds a module's export table on first import.
type Factory func(col *gc.Collector) map[string]value.Value

// Loader resolves `import name [as alias]` against a fixed registry,
// caching each module's ModuleObj so repeated imports share one instance.
type Loader struct {
	col      *gc.Collector
	registry map[string]Factory
	cache    map[string]*value.ModuleObj
}

// New returns a Loader backed by registry; col allocates every module's
// backing ModuleObj and any objects its factory constructs.
func New(col *gc.Collector, registry map[string]Factory) *Loader {
	return &Loader{col: col, registry: registry, cache: make(map[string]*value.ModuleObj)}
}

// Load resolves name to its ModuleObj, building it on first use. An
// unknown name is an ImportException, surfaced by the caller.
func (l *Loader) Load(name string) (*value.ModuleObj, error) {
	if cached, ok := l.cache[name]; ok {
		return cached, nil
	}
	factory, ok := l.registry[name]
	if !ok {
		return nil, &ImportError{Name: name}
	}
	exports := factory(l.col)
	mod := l.col.NewModule(l.col.InternString(name), exports)
	l.cache[name] = mod
	return mod, nil
}

// ImportError is raised as an ImportException when a module name has no
// registered factory.
type ImportError struct {
	Name string
}

func (e *ImportError) Error() string {
	return "no module named '" + e.Name + "'"
}
