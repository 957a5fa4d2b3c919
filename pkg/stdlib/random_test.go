package stdlib

import (
	"testing"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomSeedIsDeterministic(t *testing.T) {
	col := gc.New()
	exports := Random(col)

	callNative(t, exports, "seed", value.NumberVal(7))
	first := callNative(t, exports, "number").AsNumber()

	callNative(t, exports, "seed", value.NumberVal(7))
	second := callNative(t, exports, "number").AsNumber()

	assert.Equal(t, first, second)
}

func TestRandomIntStaysInRange(t *testing.T) {
	col := gc.New()
	exports := Random(col)
	callNative(t, exports, "seed", value.NumberVal(1))

	for i := 0; i < 50; i++ {
		got := callNative(t, exports, "int", value.NumberVal(3), value.NumberVal(5)).AsNumber()
		assert.GreaterOrEqual(t, got, float64(3))
		assert.LessOrEqual(t, got, float64(5))
	}
}

func TestRandomChoicePicksFromList(t *testing.T) {
	col := gc.New()
	exports := Random(col)
	items := []value.Value{value.NumberVal(10), value.NumberVal(20), value.NumberVal(30)}
	list := value.ObjVal(col.NewList(items, nil))

	got := callNative(t, exports, "choice", list)
	assert.Contains(t, []float64{10, 20, 30}, got.AsNumber())
}

func TestRandomChoiceOnEmptyListReturnsError(t *testing.T) {
	col := gc.New()
	exports := Random(col)
	empty := value.ObjVal(col.NewList(nil, nil))

	got := callNative(t, exports, "choice", empty)
	require.Equal(t, value.Error, got.Type)
}
