package stdlib

import (
	"testing"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONParseObjectAndList(t *testing.T) {
	col := gc.New()
	listClass := col.NewClass(col.InternString("list"), nil)
	dictClass := col.NewClass(col.InternString("dict"), nil)
	exports := JSON(col, listClass, dictClass)

	text := value.ObjVal(col.InternString(`{"name": "slo", "tags": [1, 2, 3]}`))
	got := callNative(t, exports, "parse", text)
	require.Equal(t, value.Obj, got.Type)

	dict, ok := got.AsObj().(*value.DictObj)
	require.True(t, ok)

	name, ok := dict.Table.Get(value.ObjVal(col.InternString("name")))
	require.True(t, ok)
	assert.Equal(t, "slo", name.AsObj().(*value.StringObj).Chars)

	tagsVal, ok := dict.Table.Get(value.ObjVal(col.InternString("tags")))
	require.True(t, ok)
	tags, ok := tagsVal.AsObj().(*value.ListObj)
	require.True(t, ok)
	assert.Len(t, tags.Items, 3)
}

func TestJSONParseInvalidReturnsError(t *testing.T) {
	col := gc.New()
	listClass := col.NewClass(col.InternString("list"), nil)
	dictClass := col.NewClass(col.InternString("dict"), nil)
	exports := JSON(col, listClass, dictClass)

	got := callNative(t, exports, "parse", value.ObjVal(col.InternString("{not json")))
	assert.Equal(t, value.Error, got.Type)
}

func TestJSONStringifyRoundTrips(t *testing.T) {
	col := gc.New()
	listClass := col.NewClass(col.InternString("list"), nil)
	dictClass := col.NewClass(col.InternString("dict"), nil)
	exports := JSON(col, listClass, dictClass)

	items := []value.Value{value.NumberVal(1), value.NumberVal(2)}
	list := value.ObjVal(col.NewList(items, listClass))

	encoded := callNative(t, exports, "stringify", list)
	str, ok := encoded.AsObj().(*value.StringObj)
	require.True(t, ok)
	assert.Equal(t, "[1,2]", str.Chars)
}
