package stdlib

import (
	"bufio"
	"os"
	"time"

	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
	"github.com/google/uuid"
)

// OS returns the `os` module's exports: environment access, wall-clock
// time, a uuid generator, and file open/read/write/close.
func OS(col *gc.Collector) map[string]value.Value {
	return map[string]value.Value{
		"uuid": value.ObjVal(col.NewNative("os.uuid", func(argc int, args []value.Value) value.Value {
			return value.ObjVal(col.InternString(uuid.NewString()))
		}, 0, 0, nil)),
		"time": value.ObjVal(col.NewNative("os.time", func(argc int, args []value.Value) value.Value {
			return value.NumberVal(float64(time.Now().Unix()))
		}, 0, 0, nil)),
		"getenv": value.ObjVal(col.NewNative("os.getenv", func(argc int, args []value.Value) value.Value {
			name, ok := args[0].AsObj().(*value.StringObj)
			if args[0].Type != value.Obj || !ok {
				return typeErr(col, "os.getenv expects a string")
			}
			val, found := os.LookupEnv(name.Chars)
			if !found {
				return value.NilVal
			}
			return value.ObjVal(col.InternString(val))
		}, 1, 1, []string{"name"})),
		"open": value.ObjVal(col.NewNative("os.open", func(argc int, args []value.Value) value.Value {
			name, ok := args[0].AsObj().(*value.StringObj)
			if args[0].Type != value.Obj || !ok {
				return typeErr(col, "os.open expects a path string")
			}
			mode, ok := args[1].AsObj().(*value.StringObj)
			if args[1].Type != value.Obj || !ok {
				return typeErr(col, "os.open expects a mode string")
			}
			return openFile(col, name.Chars, mode.Chars)
		}, 2, 2, []string{"path", "mode"})),
	}
}

func openFile(col *gc.Collector, path, mode string) value.Value {
	switch mode {
	case "r":
		f, err := os.Open(path)
		if err != nil {
			return ioErr(col, err.Error())
		}
		return value.ObjVal(col.NewFile(path, value.FileRead, &readHandle{f, bufio.NewReader(f)}))
	case "w":
		f, err := os.Create(path)
		if err != nil {
			return ioErr(col, err.Error())
		}
		return value.ObjVal(col.NewFile(path, value.FileWrite, &writeHandle{f, bufio.NewWriter(f)}))
	case "a":
		f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return ioErr(col, err.Error())
		}
		return value.ObjVal(col.NewFile(path, value.FileAppend, &writeHandle{f, bufio.NewWriter(f)}))
	}
	return typeErr(col, "unknown file mode '"+mode+"'")
}

// ioErr builds the ErrorVal a native file operation returns on failure
// (spec.md §7: IOException).
func ioErr(col *gc.Collector, msg string) value.Value {
	return value.ErrorVal(col.NewErrorObj("IOException", msg))
}

// readHandle satisfies both FileObj.Handle's Close requirement and the
// ReadString(byte) method pkg/vm's readLine native looks for.
type readHandle struct {
	f *os.File
	r *bufio.Reader
}

func (h *readHandle) Close() error                      { return h.f.Close() }
func (h *readHandle) ReadString(d byte) (string, error) { return h.r.ReadString(d) }

// writeHandle satisfies Close plus the WriteString method writeLine
// looks for; the buffered writer is flushed on every write so a crash
// before Close doesn't silently drop output.
type writeHandle struct {
	f *os.File
	w *bufio.Writer
}

func (h *writeHandle) Close() error {
	if err := h.w.Flush(); err != nil {
		return err
	}
	return h.f.Close()
}

func (h *writeHandle) WriteString(s string) (int, error) {
	n, err := h.w.WriteString(s)
	if err != nil {
		return n, err
	}
	return n, h.w.Flush()
}
