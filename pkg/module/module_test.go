package module

import (
	"testing"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuildsFromFactory(t *testing.T) {
	col := gc.New()
	calls := 0
	loader := New(col, map[string]Factory{
		"greet": func(col *gc.Collector) map[string]value.Value {
			calls++
			return map[string]value.Value{"hi": value.NumberVal(1)}
		},
	})

	mod, err := loader.Load("greet")
	require.NoError(t, err)
	assert.Equal(t, "greet", mod.Name.Chars)
	assert.Equal(t, 1, calls)
}

func TestLoadCachesAcrossRepeatedImports(t *testing.T) {
	col := gc.New()
	calls := 0
	loader := New(col, map[string]Factory{
		"greet": func(col *gc.Collector) map[string]value.Value {
			calls++
			return map[string]value.Value{}
		},
	})

	first, err := loader.Load("greet")
	require.NoError(t, err)
	second, err := loader.Load("greet")
	require.NoError(t, err)

	assert.Same(t, first, second, "repeated imports of the same module must share one instance")
	assert.Equal(t, 1, calls, "the factory should only run once")
}

func TestLoadUnknownNameIsImportError(t *testing.T) {
	col := gc.New()
	loader := New(col, map[string]Factory{})

	_, err := loader.Load("nope")
	require.Error(t, err)

	var importErr *ImportError
	require.ErrorAs(t, err, &importErr)
	assert.Equal(t, "nope", importErr.Name)
}
