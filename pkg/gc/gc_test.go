package gc

import (
	"testing"

	"github.com/ESloman/cslo/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRoot pins a fixed set of strings as the only GC roots for a test.
type fakeRoot struct {
	held []*value.StringObj
}

func (r *fakeRoot) MarkRoots(c *Collector) {
	for _, s := range r.held {
		c.MarkObject(s)
	}
}

func TestCollectFreesUnreachableStrings(t *testing.T) {
	col := New()
	kept := col.NewString("kept")
	root := &fakeRoot{held: []*value.StringObj{kept}}
	col.AddRoot(root)

	col.NewString("garbage-1")
	col.NewString("garbage-2")

	before := col.BytesAllocated()
	col.Collect()
	after := col.BytesAllocated()

	assert.Less(t, after, before, "unreachable strings should have been swept")
	assert.Equal(t, "kept", kept.Chars)
}

func TestCollectPreservesRootedObjects(t *testing.T) {
	col := New()
	kept := col.NewString("alive")
	root := &fakeRoot{held: []*value.StringObj{kept}}
	col.AddRoot(root)

	col.Collect()
	col.Collect() // a second cycle with the flipped mark-bit colour

	// kept must still be linked into the allocation list and readable;
	// NewString never re-interns (that's InternString's job), so the
	// only way to observe survival here is that its contents are intact.
	assert.Equal(t, "alive", kept.Chars)
}

func TestInternStringDeduplicates(t *testing.T) {
	col := New()
	a := col.InternString("hello")
	b := col.InternString("hello")
	assert.Same(t, a, b, "interning the same text twice must return the same object")
}

func TestSweepStringsDropsUninternedNames(t *testing.T) {
	col := New()
	survivor := col.InternString("survivor")
	root := &fakeRoot{held: []*value.StringObj{survivor}}
	col.AddRoot(root)
	col.InternString("doomed")
	require.Equal(t, 2, col.Strings().Count())

	col.Collect()

	require.Equal(t, 1, col.Strings().Count())
}

func TestRemoveRootStopsContributingRoots(t *testing.T) {
	col := New()
	kept := col.NewString("temporary")
	root := &fakeRoot{held: []*value.StringObj{kept}}
	col.AddRoot(root)
	col.RemoveRoot(root)

	before := col.BytesAllocated()
	col.Collect()
	after := col.BytesAllocated()

	assert.Less(t, after, before, "with its root removed, the string should be collected")
}

func TestPushTempProtectsAcrossAllocation(t *testing.T) {
	col := New()
	temp := value.ObjVal(col.NewString("protected"))
	col.PushTemp(temp)
	defer col.PopTemp()

	col.Collect()

	s, ok := temp.AsObj().(*value.StringObj)
	require.True(t, ok)
	assert.Equal(t, "protected", s.Chars)
}
