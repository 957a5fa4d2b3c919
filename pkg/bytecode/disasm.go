package bytecode

import (
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/ESloman/cslo/pkg/value"
)

// Disassemble renders the whole chunk in human-readable form, used by
// this package's tests to assert on instruction shape instead of raw
// bytes.
func (c *Chunk) Disassemble(name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	offset := 0
	for offset < len(c.Code) {
		offset = c.disassembleInstruction(&b, offset)
	}
	return b.String()
}

func (c *Chunk) disassembleInstruction(b *strings.Builder, offset int) int {
	fmt.Fprintf(b, "%04d %4d ", offset, c.GetLine(offset))
	op := Op(c.Code[offset])
	switch op {
	case OpConstant, OpDefineGlobal, OpDefineFinalGlobal, OpGetGlobal, OpSetGlobal,
		OpClass, OpMethod, OpGetSuper, OpGetProperty, OpSetProperty, OpImport:
		return c.constantInstruction(b, op, offset)
	case OpImportAs:
		idx := binary.BigEndian.Uint16(c.Code[offset+1:])
		idx2 := binary.BigEndian.Uint16(c.Code[offset+3:])
		fmt.Fprintf(b, "%-18s %4d %4d\n", op, idx, idx2)
		return offset + 5
	case OpGetUpvalue, OpSetUpvalue:
		slot := c.Code[offset+1]
		fmt.Fprintf(b, "%-18s %4d\n", op, slot)
		return offset + 2
	case OpGetLocal, OpSetLocal, OpList, OpDict:
		slot := binary.BigEndian.Uint16(c.Code[offset+1:])
		fmt.Fprintf(b, "%-18s %4d\n", op, slot)
		return offset + 3
	case OpEnum:
		count := c.Code[offset+1]
		nameIdx := binary.BigEndian.Uint16(c.Code[offset+2:])
		fmt.Fprintf(b, "%-18s %4d %4d\n", op, count, nameIdx)
		end := offset + 4
		for i := 0; i < int(count); i++ {
			memberIdx := binary.BigEndian.Uint16(c.Code[end:])
			fmt.Fprintf(b, "%-18s      %4d\n", "  member", memberIdx)
			end += 2
		}
		return end
	case OpCall:
		fmt.Fprintf(b, "%-18s %4d\n", op, c.Code[offset+1])
		return offset + 2
	case OpInvoke, OpSuperInvoke:
		idx := binary.BigEndian.Uint16(c.Code[offset+1:])
		argc := c.Code[offset+3]
		fmt.Fprintf(b, "%-18s %4d (%d args)\n", op, idx, argc)
		return offset + 4
	case OpJump, OpJumpIfFalse, OpJumpIfTrue, OpLoop:
		jump := binary.BigEndian.Uint16(c.Code[offset+1:])
		fmt.Fprintf(b, "%-18s %4d\n", op, jump)
		return offset + 3
	case OpClosure:
		offset++
		idx := binary.BigEndian.Uint16(c.Code[offset:])
		offset += 2
		fmt.Fprintf(b, "%-18s %4d\n", op, idx)
		if idx < uint16(len(c.Constants)) {
			if fn, ok := c.Constants[idx].AsObj().(*value.FunctionObj); ok {
				for i := 0; i < fn.UpvalueCount; i++ {
					isLocal := c.Code[offset]
					index := binary.BigEndian.Uint16(c.Code[offset+1:])
					kind := "upvalue"
					if isLocal != 0 {
						kind = "local"
					}
					fmt.Fprintf(b, "%04d      |                     %s %d\n", offset, kind, index)
					offset += 3
				}
			}
		}
		return offset
	default:
		fmt.Fprintf(b, "%-18s\n", op)
		return offset + 1
	}
}

func (c *Chunk) constantInstruction(b *strings.Builder, op Op, offset int) int {
	idx := binary.BigEndian.Uint16(c.Code[offset+1:])
	val := value.NilVal
	if int(idx) < len(c.Constants) {
		val = c.Constants[idx]
	}
	fmt.Fprintf(b, "%-18s %4d '%s'\n", op, idx, value.Stringify(val))
	return offset + 3
}
