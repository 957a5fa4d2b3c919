package compiler

import (
	"github.com/ESloman/cslo/pkg/bytecode"
	"github.com/ESloman/cslo/pkg/lexer"
	"github.com/ESloman/cslo/pkg/value"
)

func (c *Compiler) statement() {
	switch {
	case c.match(lexer.TokenIf):
		c.ifStatement()
	case c.match(lexer.TokenWhile):
		c.whileStatement()
	case c.match(lexer.TokenFor):
		c.forStatement()
	case c.match(lexer.TokenReturn):
		c.returnStatement()
	case c.match(lexer.TokenBreak):
		c.breakStatement()
	case c.match(lexer.TokenContinue):
		c.continueStatement()
	case c.match(lexer.TokenAssert):
		c.assertStatement()
	case c.match(lexer.TokenLBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "expected ';' after expression")
	c.emitOp(bytecode.OpPop)
}

// assertStatement compiles `assert expr;` (spec.md §9 supplement (a)):
// the VM raises AssertionException with a source snippet if expr is
// falsey at runtime.
func (c *Compiler) assertStatement() {
	c.expression()
	c.consume(lexer.TokenSemicolon, "expected ';' after assert")
	c.emitOp(bytecode.OpAssert)
}

// ifStatement compiles `if (cond) stmt [elif (cond) stmt]* [else stmt]`
// (spec.md §4.4): each branch ends with a jump to a shared end label, up
// to maxElifBranches elif clauses.
func (c *Compiler) ifStatement() {
	c.consume(lexer.TokenLParen, "expected '(' after 'if'")
	c.expression()
	c.consume(lexer.TokenRParen, "expected ')' after condition")

	thenJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.statement()

	var endJumps []int
	endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	branches := 0
	for c.match(lexer.TokenElif) {
		branches++
		if branches > maxElifBranches {
			c.error("too many elif branches")
		}
		c.consume(lexer.TokenLParen, "expected '(' after 'elif'")
		c.expression()
		c.consume(lexer.TokenRParen, "expected ')' after condition")

		elifJump := c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
		c.statement()
		endJumps = append(endJumps, c.emitJump(bytecode.OpJump))
		c.patchJump(elifJump)
		c.emitOp(bytecode.OpPop)
	}

	if c.match(lexer.TokenElse) {
		c.statement()
	}

	for _, j := range endJumps {
		c.patchJump(j)
	}
}

func (c *Compiler) whileStatement() {
	loopStart := len(c.chunk().Code)
	c.consume(lexer.TokenLParen, "expected '(' after 'while'")
	c.expression()
	c.consume(lexer.TokenRParen, "expected ')' after condition")

	exitJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)

	loop := &loopContext{enclosing: c.frame.loop, continueTarget: loopStart, scopeDepth: c.frame.scopeDepth}
	c.frame.loop = loop

	c.statement()
	c.emitLoop(loopStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
	c.patchBreaks(loop)
	c.frame.loop = loop.enclosing
}

// forStatement compiles both the traditional `for (init; cond; incr)`
// form and `for (var x in iterable)` (spec.md §4.4).
func (c *Compiler) forStatement() {
	c.beginScope()
	c.consume(lexer.TokenLParen, "expected '(' after 'for'")

	if c.match(lexer.TokenVar) {
		c.consume(lexer.TokenIdentifier, "expected variable name")
		name := c.previous.Lexeme
		if c.match(lexer.TokenIn) {
			c.forInLoop(name)
			c.endScope()
			return
		}
		c.declareLocal(name, false)
		if c.match(lexer.TokenEqual) {
			c.expression()
		} else {
			c.emitOp(bytecode.OpNil)
		}
		c.markInitialized()
		c.consume(lexer.TokenSemicolon, "expected ';' after loop variable")
	} else if !c.match(lexer.TokenSemicolon) {
		c.expressionStatement()
	}

	c.forClassicRest()
	c.endScope()
}

// forClassicRest compiles condition, increment, and body once any
// initializer has already been emitted, running the increment before the
// backward jump so it executes once per iteration (spec.md §4.4).
func (c *Compiler) forClassicRest() {
	loopStart := len(c.chunk().Code)

	exitJump := -1
	if !c.check(lexer.TokenSemicolon) {
		c.expression()
		exitJump = c.emitJump(bytecode.OpJumpIfFalse)
		c.emitOp(bytecode.OpPop)
	}
	c.consume(lexer.TokenSemicolon, "expected ';' after loop condition")

	if !c.check(lexer.TokenRParen) {
		bodyJump := c.emitJump(bytecode.OpJump)
		incrStart := len(c.chunk().Code)
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(lexer.TokenRParen, "expected ')' after for clauses")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.consume(lexer.TokenRParen, "expected ')' after for clauses")
	}

	loop := &loopContext{enclosing: c.frame.loop, continueTarget: loopStart, scopeDepth: c.frame.scopeDepth}
	c.frame.loop = loop

	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}
	c.patchBreaks(loop)
	c.frame.loop = loop.enclosing
}

// forInLoop lowers `for (var x in iterable) body` to an index-driven
// loop over the container's __index__ native (spec.md §4.4): iterable
// and the running index are bound as invisible locals ahead of x.
func (c *Compiler) forInLoop(varName string) {
	c.expression()
	c.consume(lexer.TokenRParen, "expected ')' after for-in iterable")

	c.declareLocal("@iterable", true)
	c.markInitialized()
	iterableSlot := len(c.frame.locals) - 1

	c.emitConstantValue(value.NumberVal(0))
	c.declareLocal("@index", false)
	c.markInitialized()
	indexSlot := len(c.frame.locals) - 1

	loopStart := len(c.chunk().Code)
	c.emitOpU16(bytecode.OpGetLocal, uint16(indexSlot))
	c.emitOpU16(bytecode.OpGetLocal, uint16(iterableSlot))
	c.emitOp(bytecode.OpLen)
	c.emitOp(bytecode.OpGreaterEqual)
	exitJump := c.emitJump(bytecode.OpJumpIfTrue)
	c.emitOp(bytecode.OpPop)

	bodyJump := c.emitJump(bytecode.OpJump)
	incrStart := len(c.chunk().Code)
	c.emitOpU16(bytecode.OpGetLocal, uint16(indexSlot))
	c.emitConstantValue(value.NumberVal(1))
	c.emitOp(bytecode.OpAdd)
	c.emitOpU16(bytecode.OpSetLocal, uint16(indexSlot))
	c.emitOp(bytecode.OpPop)
	c.emitLoop(loopStart)
	c.patchJump(bodyJump)

	c.beginScope()
	c.emitOpU16(bytecode.OpGetLocal, uint16(iterableSlot))
	c.emitOpU16(bytecode.OpGetLocal, uint16(indexSlot))
	c.emitOpU16(bytecode.OpInvoke, c.internedConstant("__index__"))
	c.emitByte(1)
	c.declareLocal(varName, false)
	c.markInitialized()

	loop := &loopContext{enclosing: c.frame.loop, continueTarget: incrStart, scopeDepth: c.frame.scopeDepth - 1}
	c.frame.loop = loop

	c.statement()

	c.endScope()
	c.emitLoop(incrStart)

	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)
	c.patchBreaks(loop)
	c.frame.loop = loop.enclosing
}

func (c *Compiler) patchBreaks(loop *loopContext) {
	for _, j := range loop.breakJumps {
		c.patchJump(j)
	}
}

// popLocalsToScope emits the stack cleanup for a break/continue jumping
// out of scopes deeper than depth, without actually removing them from
// the compiler's local list (the enclosing block still owns them).
func (c *Compiler) popLocalsToScope(depth int) {
	f := c.frame
	for i := len(f.locals) - 1; i >= 0 && f.locals[i].depth > depth; i-- {
		if f.locals[i].isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
	}
}

func (c *Compiler) returnStatement() {
	if c.frame.funcType == FuncScript {
		c.error("can't return from top-level code")
	}
	if c.match(lexer.TokenSemicolon) {
		c.emitReturn()
		return
	}
	if c.frame.funcType == FuncInitializer {
		c.error("can't return a value from __init__")
	}
	c.expression()
	c.consume(lexer.TokenSemicolon, "expected ';' after return value")
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) breakStatement() {
	if c.frame.loop == nil {
		c.error("'break' outside of a loop")
		c.consume(lexer.TokenSemicolon, "expected ';' after 'break'")
		return
	}
	c.popLocalsToScope(c.frame.loop.scopeDepth)
	jump := c.emitJump(bytecode.OpJump)
	c.frame.loop.breakJumps = append(c.frame.loop.breakJumps, jump)
	c.consume(lexer.TokenSemicolon, "expected ';' after 'break'")
}

func (c *Compiler) continueStatement() {
	if c.frame.loop == nil {
		c.error("'continue' outside of a loop")
		c.consume(lexer.TokenSemicolon, "expected ';' after 'continue'")
		return
	}
	c.popLocalsToScope(c.frame.loop.scopeDepth)
	c.emitLoop(c.frame.loop.continueTarget)
	c.consume(lexer.TokenSemicolon, "expected ';' after 'continue'")
}
