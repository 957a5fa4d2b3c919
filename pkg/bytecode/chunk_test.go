package bytecode

import (
	"strings"
	"testing"

	"github.com/ESloman/cslo/pkg/value"
)

func TestWriteTracksLineRuns(t *testing.T) {
	c := NewChunk(nil)
	c.WriteOp(OpTrue, 1)
	c.WriteOp(OpPop, 1)
	c.WriteOp(OpNil, 2)

	if got := c.GetLine(0); got != 1 {
		t.Errorf("offset 0: got line %d, want 1", got)
	}
	if got := c.GetLine(1); got != 1 {
		t.Errorf("offset 1: got line %d, want 1", got)
	}
	if got := c.GetLine(2); got != 2 {
		t.Errorf("offset 2: got line %d, want 2", got)
	}
}

func TestAddConstantReturnsIndex(t *testing.T) {
	c := NewChunk(nil)
	idx1 := c.AddConstant(value.NumberVal(1))
	idx2 := c.AddConstant(value.NumberVal(2))
	if idx1 != 0 || idx2 != 1 {
		t.Fatalf("got indices %d, %d; want 0, 1", idx1, idx2)
	}
	if len(c.Constants) != 2 {
		t.Fatalf("got %d constants, want 2", len(c.Constants))
	}
}

func TestDisassembleEnumListsMembers(t *testing.T) {
	c := NewChunk(nil)
	nameIdx := c.AddConstant(value.ObjVal(&value.StringObj{Chars: "Color"}))
	redIdx := c.AddConstant(value.ObjVal(&value.StringObj{Chars: "Red"}))
	greenIdx := c.AddConstant(value.ObjVal(&value.StringObj{Chars: "Green"}))

	c.WriteOp(OpEnum, 1)
	c.Write(2, 1) // count
	c.WriteU16(uint16(nameIdx), 1)
	c.WriteU16(uint16(redIdx), 1)
	c.WriteU16(uint16(greenIdx), 1)
	c.WriteOp(OpReturn, 1)

	out := c.Disassemble("test")
	if !strings.Contains(out, "ENUM") {
		t.Fatalf("expected disassembly to mention ENUM, got:\n%s", out)
	}
	if strings.Count(out, "member") != 2 {
		t.Fatalf("expected 2 member lines, got:\n%s", out)
	}
}

func TestGetColumnMatchesOffsetWithinLine(t *testing.T) {
	c := NewChunk(nil)
	c.WriteOp(OpTrue, 1)
	c.WriteOp(OpPop, 1)
	c.WriteOp(OpNil, 2)

	if got := c.GetColumn(1); got != 1 {
		t.Errorf("got column %d, want 1", got)
	}
	if got := c.GetColumn(2); got != 0 {
		t.Errorf("got column %d, want 0", got)
	}
}
