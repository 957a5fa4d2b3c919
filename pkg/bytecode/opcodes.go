// Package bytecode defines slo's instruction set and the Chunk container
// a compiled function owns: its byte code, constant pool, and a
// run-length source-line index.
//
// The instruction set is the one specified in spec.md §4.3. Most opcodes
// take 0, 1 or 2 operand bytes; INVOKE and SUPER_INVOKE take 3, IMPORT_AS
// takes 4, and ENUM and CLOSURE carry a variable-length operand list.
package bytecode

// Op is a single bytecode instruction's opcode.
type Op byte

const (
	OpConstant Op = iota // K (2 bytes): push consts[K]
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpDup
	OpDup2
	OpDefineGlobal      // K: globals[name=consts[K]] <- pop
	OpDefineFinalGlobal // K: same as DEFINE_GLOBAL at run time; the VM keeps no final flag (the compiler rejects reassignment)
	OpGetGlobal         // K
	OpSetGlobal         // K
	OpGetLocal          // slot (2 bytes)
	OpSetLocal          // slot (2 bytes)
	OpGetUpvalue        // idx (1 byte)
	OpSetUpvalue        // idx (1 byte)
	OpEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpPow
	OpNegate
	OpNot
	OpJump        // U16
	OpJumpIfFalse // U16
	OpJumpIfTrue  // U16
	OpLoop        // U16
	OpCall        // argc (1 byte)
	OpInvoke      // K, argc (2+1 bytes)
	OpSuperInvoke // K, argc (2+1 bytes)
	OpClosure     // K, then (isLocal byte, idx u16) * upvalueCount
	OpCloseUpvalue
	OpReturn
	OpClass  // K
	OpMethod // K
	OpInherit
	OpGetSuper    // K
	OpGetProperty // K
	OpSetProperty // K
	OpList        // u16 count
	OpDict        // u16 pairCount
	OpEnum        // u8 count, K (enum name), count x K (member names)
	OpGetIndex
	OpSetIndex
	OpSlice
	OpLen
	OpHas
	OpHasNot
	OpImport   // K
	OpImportAs // K, K
	OpInterpolate
	OpAssert
)

var opNames = [...]string{
	"CONSTANT", "NIL", "TRUE", "FALSE", "POP", "DUP", "DUP2",
	"DEFINE_GLOBAL", "DEFINE_FINAL_GLOBAL", "GET_GLOBAL", "SET_GLOBAL",
	"GET_LOCAL", "SET_LOCAL", "GET_UPVALUE", "SET_UPVALUE",
	"EQUAL", "NOT_EQUAL", "GREATER", "GREATER_EQUAL", "LESS", "LESS_EQUAL",
	"ADD", "SUBTRACT", "MULTIPLY", "DIVIDE", "MODULO", "POW", "NEGATE", "NOT",
	"JUMP", "JUMP_IF_FALSE", "JUMP_IF_TRUE", "LOOP",
	"CALL", "INVOKE", "SUPER_INVOKE", "CLOSURE", "CLOSE_UPVALUE", "RETURN",
	"CLASS", "METHOD", "INHERIT", "GET_SUPER", "GET_PROPERTY", "SET_PROPERTY",
	"LIST", "DICT", "ENUM", "GET_INDEX", "SET_INDEX", "SLICE", "LEN", "HAS", "HAS_NOT",
	"IMPORT", "IMPORT_AS", "INTERPOLATE", "ASSERT",
}

// String returns the opcode's mnemonic, used by the disassembler.
func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "UNKNOWN"
}
