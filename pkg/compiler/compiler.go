// Package compiler implements slo's single-pass Pratt parser/compiler:
// source tokens go in, a bytecode Chunk wrapped in a FunctionObj comes
// out, with no separate AST stage in between (spec.md §4.2, and the
// explicit Non-goal "no separate typed IR" in spec.md §1).
//
// parsePrecedence is the classic Pratt loop: advance, run the prefix
// rule for the token just consumed, then keep running infix rules while
// the current token's precedence is at least as high as the precedence
// the caller asked for. canAssign is threaded through so only
// low-precedence call sites may consume a trailing `=`.
package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ESloman/cslo/pkg/bytecode"
	"github.com/ESloman/cslo/pkg/gc"
	"github.com/ESloman/cslo/pkg/lexer"
	"github.com/ESloman/cslo/pkg/value"
)

// Precedence orders slo's operators low to high (spec.md §4.2).
type Precedence int

const (
	PrecNone Precedence = iota
	PrecAssignment
	PrecOr
	PrecAnd
	PrecEquality
	PrecComparison
	PrecTerm
	PrecFactor
	PrecUnary
	PrecPostfix
	PrecCall
	PrecPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix parseFn
	infix  parseFn
	prec   Precedence
}

// FuncType distinguishes the kind of callable a frame is compiling, for
// self/super/return validation.
type FuncType int

const (
	FuncScript FuncType = iota
	FuncFunction
	FuncMethod
	FuncInitializer
)

const maxLocals = 256
const maxUpvalues = 256
const maxElifBranches = 56

type local struct {
	name       string
	depth      int
	isCaptured bool
	isFinal    bool
}

type upvalueDesc struct {
	index   int
	isLocal bool
	isFinal bool
}

// loopContext tracks enough of an in-progress loop to compile break and
// continue.
type loopContext struct {
	enclosing      *loopContext
	continueTarget int
	scopeDepth     int
	breakJumps     []int
}

// frame is one compiler-stack entry: the function currently being
// emitted into, plus its locals/upvalues and loop context.
type frame struct {
	enclosing *frame
	function  *value.FunctionObj
	funcType  FuncType
	chunk     *bytecode.Chunk

	locals     []local
	scopeDepth int
	upvalues   []upvalueDesc
	loop       *loopContext
}

type classCompiler struct {
	enclosing     *classCompiler
	name          string
	hasSuperclass bool
}

// Compiler is slo's combined parser and code generator. A single
// instance may be reused across multiple top-level compiles (the REPL
// does this) so that locals declared in one input are not directly
// visible to the next, but final-global tracking persists.
type Compiler struct {
	lex      *lexer.Lexer
	current  lexer.Token
	previous lexer.Token

	hadError  bool
	panicMode bool
	errors    []string

	col   *gc.Collector
	frame *frame
	class *classCompiler

	sourceFile string
	source     string

	// finalGlobals is process-wide: once a name is declared final at
	// file scope it stays final for the remainder of the program's
	// compilation, including later REPL inputs (invariant 4, spec.md §3).
	finalGlobals map[string]bool
}

// New returns a compiler backed by collector, used to intern strings and
// allocate functions/constants.
func New(collector *gc.Collector) *Compiler {
	return &Compiler{
		col:          collector,
		finalGlobals: make(map[string]bool),
	}
}

// Errors returns the diagnostics accumulated by the most recent Compile.
func (c *Compiler) Errors() []string { return c.errors }

// Compile compiles source (the top-level script) into a FunctionObj
// whose Chunk is ready to run. file is used for SourceFile and error
// messages; pass "" for REPL input.
func (c *Compiler) Compile(source, file string) (*value.FunctionObj, error) {
	c.source = source
	c.sourceFile = file
	c.lex = lexer.New(source)
	c.hadError = false
	c.panicMode = false
	c.errors = nil

	c.beginFunction(FuncScript, "")
	c.frame.function.SourceFile = file

	c.col.AddRoot(c)
	defer c.col.RemoveRoot(c)

	c.advance()
	for !c.match(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenEOF, "expected end of expression")

	fn := c.endFunction()
	if c.hadError {
		return nil, &CompileError{Messages: c.errors}
	}
	return fn, nil
}

// CompileError reports every diagnostic panic-mode recovery accumulated
// across a single Compile call, rather than surfacing only the first.
type CompileError struct {
	Messages []string
}

func (e *CompileError) Error() string {
	return "compile error: " + strings.Join(e.Messages, "; ")
}

// MarkRoots implements gc.RootSource: every compiler frame's
// function-under-construction is kept alive while compilation is in
// progress (spec.md §4.5 step 1, §9).
func (c *Compiler) MarkRoots(col *gc.Collector) {
	for f := c.frame; f != nil; f = f.enclosing {
		col.MarkObject(f.function)
	}
}

// ---- frame management ----

func (c *Compiler) beginFunction(ft FuncType, name string) {
	fn := c.col.NewFunction()
	if name != "" {
		fn.Name = c.col.InternString(name)
	}
	f := &frame{
		enclosing: c.frame,
		function:  fn,
		funcType:  ft,
		chunk:     bytecode.NewChunk(c.col),
	}
	// Slot 0 is reserved for the receiver (methods) or a placeholder
	// (plain functions/scripts), per spec.md §4.4.
	slotName := ""
	if ft == FuncMethod || ft == FuncInitializer {
		slotName = "self"
	}
	f.locals = append(f.locals, local{name: slotName, depth: 0, isFinal: true})
	c.frame = f
}

func (c *Compiler) endFunction() *value.FunctionObj {
	c.emitReturn()
	fn := c.frame.function
	fn.Chunk = c.frame.chunk
	fn.UpvalueCount = len(c.frame.upvalues)
	c.frame = c.frame.enclosing
	return fn
}

func (c *Compiler) chunk() *bytecode.Chunk { return c.frame.chunk }

// ---- token stream plumbing ----

func (c *Compiler) advance() {
	c.previous = c.current
	for {
		c.current = c.lex.NextToken()
		if c.current.Type != lexer.TokenError {
			break
		}
		c.errorAtCurrent(c.current.Lexeme)
	}
}

func (c *Compiler) check(tt lexer.TokenType) bool { return c.current.Type == tt }

func (c *Compiler) match(tt lexer.TokenType) bool {
	if !c.check(tt) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(tt lexer.TokenType, msg string) {
	if c.current.Type == tt {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.current, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.previous, msg) }

func (c *Compiler) errorAt(tok lexer.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	where := ""
	if tok.Type == lexer.TokenEOF {
		where = " at end"
	} else if tok.Type != lexer.TokenError {
		where = fmt.Sprintf(" at '%s'", tok.Lexeme)
	}
	c.errors = append(c.errors, fmt.Sprintf("[line %d] SyntaxException%s: %s", tok.Line, where, msg))
}

// synchronize recovers from a parse error by skipping to the next
// statement boundary, so one bad statement doesn't cascade errors.
func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.current.Type != lexer.TokenEOF {
		if c.previous.Type == lexer.TokenSemicolon {
			return
		}
		switch c.current.Type {
		case lexer.TokenClass, lexer.TokenFunc, lexer.TokenVar, lexer.TokenFor,
			lexer.TokenIf, lexer.TokenWhile, lexer.TokenReturn, lexer.TokenFinal:
			return
		}
		c.advance()
	}
}

// ---- emission helpers ----

func (c *Compiler) emitByte(b byte)       { c.chunk().Write(b, c.previous.Line) }
func (c *Compiler) emitOp(op bytecode.Op) { c.chunk().WriteOp(op, c.previous.Line) }

func (c *Compiler) emitOpU16(op bytecode.Op, operand uint16) {
	c.emitOp(op)
	c.chunk().WriteU16(operand, c.previous.Line)
}

func (c *Compiler) emitOpByte(op bytecode.Op, b byte) {
	c.emitOp(op)
	c.emitByte(b)
}

func (c *Compiler) emitConstant(v value.Value) uint16 {
	idx := c.chunk().AddConstant(v)
	if idx > 0xFFFF {
		c.error("too many constants in one chunk")
		return 0
	}
	return uint16(idx)
}

func (c *Compiler) emitReturn() {
	if c.frame.funcType == FuncInitializer {
		c.emitOpU16(bytecode.OpGetLocal, 0)
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.emitOp(bytecode.OpReturn)
}

// emitJump writes op followed by a two-byte placeholder, returning the
// placeholder's offset for a later patchJump.
func (c *Compiler) emitJump(op bytecode.Op) int {
	c.emitOp(op)
	c.chunk().WriteU16(0xFFFF, c.previous.Line)
	return len(c.chunk().Code) - 2
}

func (c *Compiler) patchJump(offset int) {
	jump := len(c.chunk().Code) - offset - 2
	if jump > 0xFFFF {
		c.error("too much code to jump over")
	}
	c.chunk().Code[offset] = byte(jump >> 8)
	c.chunk().Code[offset+1] = byte(jump)
}

func (c *Compiler) emitLoop(loopStart int) {
	c.emitOp(bytecode.OpLoop)
	offset := len(c.chunk().Code) - loopStart + 2
	if offset > 0xFFFF {
		c.error("loop body too large")
	}
	c.chunk().WriteU16(uint16(offset), c.previous.Line)
}

func (c *Compiler) internedConstant(name string) uint16 {
	return c.emitConstant(value.ObjVal(c.col.InternString(name)))
}
