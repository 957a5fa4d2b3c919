package table

import (
	"testing"

	"github.com/ESloman/cslo/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGetRoundTrip(t *testing.T) {
	tbl := New()
	isNew := tbl.Set(value.NumberVal(1), value.NumberVal(100))
	assert.True(t, isNew)

	got, ok := tbl.Get(value.NumberVal(1))
	require.True(t, ok)
	assert.Equal(t, float64(100), got.AsNumber())
}

func TestSetOverwriteIsNotNew(t *testing.T) {
	tbl := New()
	tbl.Set(value.NumberVal(1), value.NumberVal(100))
	isNew := tbl.Set(value.NumberVal(1), value.NumberVal(200))
	assert.False(t, isNew)

	got, ok := tbl.Get(value.NumberVal(1))
	require.True(t, ok)
	assert.Equal(t, float64(200), got.AsNumber())
}

func TestGetMissingKey(t *testing.T) {
	tbl := New()
	_, ok := tbl.Get(value.NumberVal(42))
	assert.False(t, ok)
}

func TestDeleteLeavesTombstoneButHidesKey(t *testing.T) {
	tbl := New()
	tbl.Set(value.NumberVal(1), value.NumberVal(100))
	deleted := tbl.Delete(value.NumberVal(1))
	assert.True(t, deleted)

	_, ok := tbl.Get(value.NumberVal(1))
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Count())
}

func TestDeleteDoesNotBreakProbingForLaterKeys(t *testing.T) {
	tbl := New()
	for i := 0; i < 20; i++ {
		tbl.Set(value.NumberVal(float64(i)), value.NumberVal(float64(i*10)))
	}
	for i := 0; i < 10; i++ {
		tbl.Delete(value.NumberVal(float64(i)))
	}
	for i := 10; i < 20; i++ {
		got, ok := tbl.Get(value.NumberVal(float64(i)))
		require.True(t, ok, "key %d should survive deletions that tombstone earlier slots", i)
		assert.Equal(t, float64(i*10), got.AsNumber())
	}
}

func TestGrowthPreservesAllEntries(t *testing.T) {
	tbl := New()
	const n = 500
	for i := 0; i < n; i++ {
		tbl.Set(value.NumberVal(float64(i)), value.NumberVal(float64(i)))
	}
	assert.Equal(t, n, tbl.Count())
	for i := 0; i < n; i++ {
		got, ok := tbl.Get(value.NumberVal(float64(i)))
		require.True(t, ok)
		assert.Equal(t, float64(i), got.AsNumber())
	}
}

func TestKeysMatchesCount(t *testing.T) {
	tbl := New()
	tbl.Set(value.NumberVal(1), value.NumberVal(1))
	tbl.Set(value.NumberVal(2), value.NumberVal(2))
	tbl.Set(value.NumberVal(3), value.NumberVal(3))
	tbl.Delete(value.NumberVal(2))

	keys := tbl.Keys()
	assert.Len(t, keys, tbl.Count())
	assert.Equal(t, 2, tbl.Count())
}

func TestSetReusingATombstoneCountsAsNew(t *testing.T) {
	tbl := New()
	tbl.Set(value.NumberVal(1), value.NumberVal(100))
	tbl.Delete(value.NumberVal(1))
	assert.Equal(t, 0, tbl.Count())

	isNew := tbl.Set(value.NumberVal(1), value.NumberVal(200))
	assert.True(t, isNew)
	assert.Equal(t, 1, tbl.Count())

	got, ok := tbl.Get(value.NumberVal(1))
	require.True(t, ok)
	assert.Equal(t, float64(200), got.AsNumber())
}

func TestStringKeysUseInternedIdentity(t *testing.T) {
	tbl := New()
	a := &value.StringObj{Chars: "hello", Hash: 123}
	b := &value.StringObj{Chars: "hello", Hash: 123}

	tbl.Set(value.ObjVal(a), value.NumberVal(1))
	// b is a distinct object with the same contents; since the table
	// relies on interning for identity (invariant 2), an uninterned
	// look-alike must not collide with a.
	_, ok := tbl.Get(value.ObjVal(b))
	assert.False(t, ok)

	got, ok := tbl.Get(value.ObjVal(a))
	require.True(t, ok)
	assert.Equal(t, float64(1), got.AsNumber())
}
