// Package vm implements slo's stack-based bytecode interpreter: a
// call-frame stack of closures, an operand stack, and a dispatch loop
// that switches on every bytecode.Op the compiler can emit (spec.md
// §4.4). The VM is itself a gc.RootSource so the collector can trace its
// live state between allocations.
package vm

import (
	"fmt"

	"github.com/ESloman/cslo/pkg/bytecode"
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/module"
	"github.com/ESloman/cslo/pkg/value"
	humanize "github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

const (
	maxFrames     = 64
	stackPerFrame = 256
	maxStack      = maxFrames * stackPerFrame
)

// callFrame is one active call's bookkeeping: the closure it is
// executing, its instruction pointer, and the base slot its locals start
// at in the shared operand stack.
type callFrame struct {
	closure *value.ClosureObj
	chunk   *bytecode.Chunk
	ip      int
	base    int
}

// VM is slo's runtime: one instance owns the operand stack, call-frame
// stack, globals table, and a reference to the collector that owns every
// object it touches.
type VM struct {
	stack  []value.Value
	frames []callFrame

	globals      map[string]value.Value
	openUpvalues *value.UpvalueObj

	col *gc.Collector
	Log *logrus.Logger

	initString *value.StringObj

	listClass   *value.ClassObj
	dictClass   *value.ClassObj
	stringClass *value.ClassObj
	fileClass   *value.ClassObj

	sourceFile string
	sourceText string

	loader *module.Loader

	Stdout interface {
		Write(p []byte) (int, error)
	}
}

// New returns a VM backed by col, with every built-in container class
// installed and ready.
func New(col *gc.Collector, log *logrus.Logger) *VM {
	v := &VM{
		stack:   make([]value.Value, 0, maxStack),
		globals: make(map[string]value.Value),
		col:     col,
		Log:     log,
	}
	v.initString = col.InternString("__init__")
	col.AddRoot(v)
	v.installBuiltinClasses()
	v.defineGlobalNatives()
	v.installModuleLoader()
	v.installGCLogging(col)
	return v
}

// installGCLogging wires the collector's collection summaries into the
// VM's logger at debug level, formatting byte counts with humanize so a
// SLO_LOG=debug run reads as "freed N objects, 1.2 MB -> 640 kB (next
// at 1.3 MB)" instead of raw integers.
func (v *VM) installGCLogging(col *gc.Collector) {
	col.Verbose = true
	col.OnCollect = func(freed int, before, after, next int64) {
		v.Log.WithFields(logrus.Fields{
			"freed":  freed,
			"before": humanize.Bytes(uint64(before)),
			"after":  humanize.Bytes(uint64(after)),
			"next":   humanize.Bytes(uint64(next)),
		}).Debug("gc collection")
	}
}

// MarkRoots implements gc.RootSource (spec.md §4.5 step 1): the operand
// stack, globals, every live closure/upvalue reachable from a call frame,
// the open-upvalue list, and the built-in classes.
func (v *VM) MarkRoots(col *gc.Collector) {
	for _, val := range v.stack {
		col.MarkValue(val)
	}
	for _, f := range v.frames {
		col.MarkObject(f.closure)
	}
	for uv := v.openUpvalues; uv != nil; uv = uv.Next {
		col.MarkObject(uv)
	}
	for _, val := range v.globals {
		col.MarkValue(val)
	}
	col.MarkObject(v.initString)
	col.MarkObject(v.listClass)
	col.MarkObject(v.dictClass)
	col.MarkObject(v.stringClass)
	col.MarkObject(v.fileClass)
}

func (v *VM) push(val value.Value) {
	if len(v.stack) >= maxStack {
		panic(v.newError("RuntimeException", "stack overflow"))
	}
	v.stack = append(v.stack, val)
}

func (v *VM) pop() value.Value {
	n := len(v.stack)
	val := v.stack[n-1]
	v.stack = v.stack[:n-1]
	return val
}

func (v *VM) peek(distance int) value.Value {
	return v.stack[len(v.stack)-1-distance]
}

func (v *VM) popN(n int) {
	v.stack = v.stack[:len(v.stack)-n]
}

func (v *VM) currentFrame() *callFrame {
	return &v.frames[len(v.frames)-1]
}

func (v *VM) readByte() byte {
	f := v.currentFrame()
	b := f.chunk.Code[f.ip]
	f.ip++
	return b
}

func (v *VM) readU16() uint16 {
	f := v.currentFrame()
	hi := f.chunk.Code[f.ip]
	lo := f.chunk.Code[f.ip+1]
	f.ip += 2
	return uint16(hi)<<8 | uint16(lo)
}

func (v *VM) readConstant() value.Value {
	idx := v.readU16()
	return v.currentFrame().chunk.Constants[idx]
}

func (v *VM) readString() *value.StringObj {
	return v.readConstant().AsObj().(*value.StringObj)
}

// frameLine reports the source line the current frame's instruction
// pointer last advanced past, used for error reporting.
func (v *VM) frameLine() int {
	f := v.currentFrame()
	return f.chunk.GetLine(f.ip - 1)
}

func (v *VM) frameColumn() int {
	f := v.currentFrame()
	return f.chunk.GetColumn(f.ip - 1)
}

// stackTrace renders the active call chain, innermost first, for
// RuntimeError (spec.md §7).
func (v *VM) stackTrace() []string {
	trace := make([]string, 0, len(v.frames))
	for i := len(v.frames) - 1; i >= 0; i-- {
		f := v.frames[i]
		name := "<script>"
		if f.closure.Function.Name != nil {
			name = f.closure.Function.Name.Chars + "()"
		}
		line := f.chunk.GetLine(f.ip - 1)
		trace = append(trace, fmt.Sprintf("%s (%s:%d)", name, f.closure.Function.SourceFile, line))
	}
	return trace
}

func (v *VM) sourceLineText(line int) string {
	return sourceLine(v.sourceText, line)
}

func sourceLine(source string, line int) string {
	if source == "" {
		return ""
	}
	cur := 1
	start := 0
	for i := 0; i < len(source); i++ {
		if cur == line {
			start = i
			for i < len(source) && source[i] != '\n' {
				i++
			}
			return source[start:i]
		}
		if source[i] == '\n' {
			cur++
		}
	}
	return ""
}

func (v *VM) newError(kind, msg string) *RuntimeError {
	return &RuntimeError{
		Kind:       kind,
		Message:    msg,
		File:       v.currentFileSafe(),
		Line:       v.frameLineSafe(),
		Column:     v.frameColumnSafe(),
		SourceLine: v.sourceLineSafe(),
		Frames:     v.stackTraceSafe(),
	}
}

func (v *VM) currentFileSafe() string {
	if len(v.frames) == 0 {
		return v.sourceFile
	}
	return v.currentFrame().closure.Function.SourceFile
}

func (v *VM) frameLineSafe() int {
	if len(v.frames) == 0 {
		return 0
	}
	return v.frameLine()
}

func (v *VM) frameColumnSafe() int {
	if len(v.frames) == 0 {
		return 0
	}
	return v.frameColumn()
}

func (v *VM) sourceLineSafe() string {
	if len(v.frames) == 0 {
		return ""
	}
	return v.sourceLineText(v.frameLine())
}

func (v *VM) stackTraceSafe() []string {
	if len(v.frames) == 0 {
		return nil
	}
	return v.stackTrace()
}
