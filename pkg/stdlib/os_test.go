package stdlib

import (
	"path/filepath"
	"testing"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSGetenv(t *testing.T) {
	col := gc.New()
	exports := OS(col)
	t.Setenv("SLO_TEST_VAR", "hi")

	got := callNative(t, exports, "getenv", value.ObjVal(col.InternString("SLO_TEST_VAR")))
	require.Equal(t, value.Obj, got.Type)
	assert.Equal(t, "hi", got.AsObj().(*value.StringObj).Chars)
}

func TestOSGetenvMissingIsNil(t *testing.T) {
	col := gc.New()
	exports := OS(col)
	got := callNative(t, exports, "getenv", value.ObjVal(col.InternString("SLO_DEFINITELY_UNSET_VAR")))
	assert.Equal(t, value.Nil, got.Type)
}

func TestOSUUIDLooksLikeAUUID(t *testing.T) {
	col := gc.New()
	exports := OS(col)
	got := callNative(t, exports, "uuid")
	s := got.AsObj().(*value.StringObj).Chars
	assert.Len(t, s, 36)
}

func TestOSOpenWriteThenRead(t *testing.T) {
	col := gc.New()
	exports := OS(col)
	path := filepath.Join(t.TempDir(), "out.txt")

	wf := callNative(t, exports, "open", value.ObjVal(col.InternString(path)), value.ObjVal(col.InternString("w")))
	require.Equal(t, value.Obj, wf.Type)
	fileObj, ok := wf.AsObj().(*value.FileObj)
	require.True(t, ok)

	writer, ok := fileObj.Handle.(interface{ WriteString(string) (int, error) })
	require.True(t, ok)
	_, err := writer.WriteString("hello\n")
	require.NoError(t, err)
	require.NoError(t, fileObj.Handle.Close())

	rf := callNative(t, exports, "open", value.ObjVal(col.InternString(path)), value.ObjVal(col.InternString("r")))
	readFileObj := rf.AsObj().(*value.FileObj)
	reader, ok := readFileObj.Handle.(interface{ ReadString(byte) (string, error) })
	require.True(t, ok)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)
}

func TestOSOpenUnknownModeReturnsError(t *testing.T) {
	col := gc.New()
	exports := OS(col)
	got := callNative(t, exports, "open", value.ObjVal(col.InternString("x")), value.ObjVal(col.InternString("z")))
	assert.Equal(t, value.Error, got.Type)
}
