package stdlib

import (
	"testing"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func callNative(t *testing.T, exports map[string]value.Value, name string, args ...value.Value) value.Value {
	t.Helper()
	exported, ok := exports[name]
	require.True(t, ok, "module has no export %q", name)
	native, ok := exported.AsObj().(*value.NativeObj)
	require.True(t, ok, "%q is not a native function", name)
	return native.Fn(len(args), args)
}

func TestMathConstants(t *testing.T) {
	col := gc.New()
	exports := Math(col)
	assert.InDelta(t, 3.14159, exports["pi"].AsNumber(), 0.001)
}

func TestMathSqrt(t *testing.T) {
	col := gc.New()
	exports := Math(col)
	got := callNative(t, exports, "sqrt", value.NumberVal(16))
	assert.Equal(t, float64(4), got.AsNumber())
}

func TestMathPowAndMinMax(t *testing.T) {
	col := gc.New()
	exports := Math(col)
	assert.Equal(t, float64(8), callNative(t, exports, "pow", value.NumberVal(2), value.NumberVal(3)).AsNumber())
	assert.Equal(t, float64(5), callNative(t, exports, "max", value.NumberVal(5), value.NumberVal(2)).AsNumber())
	assert.Equal(t, float64(2), callNative(t, exports, "min", value.NumberVal(5), value.NumberVal(2)).AsNumber())
}

func TestMathSqrtWrongTypeReturnsError(t *testing.T) {
	col := gc.New()
	exports := Math(col)
	got := callNative(t, exports, "sqrt", value.ObjVal(col.InternString("nope")))
	assert.Equal(t, value.Error, got.Type)
}
