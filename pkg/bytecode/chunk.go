package bytecode

import (
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/value"
)

// lineRun is one entry of the run-length source-line index: "the byte at
// Offset is the first byte emitted on Line".
type lineRun struct {
	Offset int
	Line   int
}

// Chunk is a byte sequence of instructions plus its constant pool and
// line map, owned by exactly one FunctionObj (spec.md §4.3).
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun

	// collector lets AddConstant keep a constant reachable (via
	// PushTemp/PopTemp) across the possible collection its own slice
	// growth can trigger (spec.md §4.3, §9). nil outside active
	// compilation (e.g. when a chunk is only being disassembled).
	collector *gc.Collector
}

// NewChunk returns an empty chunk guarded by collector.
func NewChunk(collector *gc.Collector) *Chunk {
	return &Chunk{collector: collector}
}

// Write appends one byte of instruction (opcode or operand byte),
// recording a new line-run entry if line differs from the last one
// written.
func (c *Chunk) Write(b byte, line int) {
	if len(c.lines) == 0 || c.lines[len(c.lines)-1].Line != line {
		c.lines = append(c.lines, lineRun{Offset: len(c.Code), Line: line})
	}
	c.Code = append(c.Code, b)
}

// WriteOp appends a single opcode byte.
func (c *Chunk) WriteOp(op Op, line int) {
	c.Write(byte(op), line)
}

// WriteU16 appends a big-endian 16-bit operand.
func (c *Chunk) WriteU16(v uint16, line int) {
	c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
}

// AddConstant appends val to the constant pool and returns its index.
// The value is held on the collector's temporary-root stack for the
// duration of the call (PushTemp/PopTemp) so that array growth inside append cannot
// collect it as unreachable (spec.md §9, "reentrant allocation inside
// the compiler").
func (c *Chunk) AddConstant(val value.Value) int {
	if c.collector != nil {
		c.collector.PushTemp(val)
		defer c.collector.PopTemp()
	}
	c.Constants = append(c.Constants, val)
	return len(c.Constants) - 1
}

// GetLine binary-searches the run-length line index for the source line
// that produced the instruction at byte offset.
func (c *Chunk) GetLine(offset int) int {
	if len(c.lines) == 0 {
		return 0
	}
	lo, hi := 0, len(c.lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if c.lines[mid].Offset <= offset {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return c.lines[lo].Line
}

// MarkConstants marks every constant-pool entry as a GC root; called by
// the collector while tracing a FunctionObj (spec.md §4.5 step 2).
func (c *Chunk) MarkConstants(col *gc.Collector) {
	for _, v := range c.Constants {
		col.MarkValue(v)
	}
}

// GetColumn returns offset minus the start of the line it belongs to,
// approximating the source column of that instruction.
func (c *Chunk) GetColumn(offset int) int {
	lineStart := 0
	for _, r := range c.lines {
		if r.Offset <= offset {
			lineStart = r.Offset
		} else {
			break
		}
	}
	return offset - lineStart
}
