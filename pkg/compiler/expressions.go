package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ESloman/cslo/pkg/bytecode"
	"github.com/ESloman/cslo/pkg/lexer"
	"github.com/ESloman/cslo/pkg/value"
)

func (c *Compiler) emitConstantValue(v value.Value) {
	idx := c.emitConstant(v)
	c.emitOpU16(bytecode.OpConstant, idx)
}

func (c *Compiler) grouping(canAssign bool) {
	c.expression()
	c.consume(lexer.TokenRParen, "expected ')' after expression")
}

func (c *Compiler) numberLiteral(canAssign bool) {
	n, err := strconv.ParseFloat(c.previous.Lexeme, 64)
	if err != nil {
		c.error("invalid number literal")
		return
	}
	c.emitConstantValue(value.NumberVal(n))
}

func (c *Compiler) literal(canAssign bool) {
	switch c.previous.Type {
	case lexer.TokenFalse:
		c.emitOp(bytecode.OpFalse)
	case lexer.TokenTrue:
		c.emitOp(bytecode.OpTrue)
	case lexer.TokenNil:
		c.emitOp(bytecode.OpNil)
	}
}

func (c *Compiler) unary(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecUnary)
	switch opType {
	case lexer.TokenBang:
		c.emitOp(bytecode.OpNot)
	case lexer.TokenMinus:
		c.emitOp(bytecode.OpNegate)
	}
}

func (c *Compiler) binary(canAssign bool) {
	opType := c.previous.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.prec + 1)
	switch opType {
	case lexer.TokenPlus:
		c.emitOp(bytecode.OpAdd)
	case lexer.TokenMinus:
		c.emitOp(bytecode.OpSubtract)
	case lexer.TokenStar:
		c.emitOp(bytecode.OpMultiply)
	case lexer.TokenSlash:
		c.emitOp(bytecode.OpDivide)
	case lexer.TokenPercent:
		c.emitOp(bytecode.OpModulo)
	case lexer.TokenStarStar:
		c.emitOp(bytecode.OpPow)
	case lexer.TokenEqualEqual:
		c.emitOp(bytecode.OpEqual)
	case lexer.TokenBangEqual:
		c.emitOp(bytecode.OpNotEqual)
	case lexer.TokenLess:
		c.emitOp(bytecode.OpLess)
	case lexer.TokenLessEqual:
		c.emitOp(bytecode.OpLessEqual)
	case lexer.TokenGreater:
		c.emitOp(bytecode.OpGreater)
	case lexer.TokenGreaterEqual:
		c.emitOp(bytecode.OpGreaterEqual)
	}
}

// has_ compiles `a has b` / `a has not b` (spec.md §4.3, membership test).
func (c *Compiler) has_(canAssign bool) {
	opType := c.previous.Type
	c.parsePrecedence(PrecComparison + 1)
	if opType == lexer.TokenHasNot {
		c.emitOp(bytecode.OpHasNot)
	} else {
		c.emitOp(bytecode.OpHas)
	}
}

func (c *Compiler) and_(canAssign bool) {
	endJump := c.emitJump(bytecode.OpJumpIfFalse)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecAnd)
	c.patchJump(endJump)
}

func (c *Compiler) or_(canAssign bool) {
	elseJump := c.emitJump(bytecode.OpJumpIfFalse)
	endJump := c.emitJump(bytecode.OpJump)
	c.patchJump(elseJump)
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(PrecOr)
	c.patchJump(endJump)
}

func (c *Compiler) argumentList() int {
	argc := 0
	if !c.check(lexer.TokenRParen) {
		for {
			c.expression()
			argc++
			if argc > 255 {
				c.error("can't have more than 255 arguments")
			}
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRParen, "expected ')' after arguments")
	return argc
}

func (c *Compiler) call(canAssign bool) {
	argc := c.argumentList()
	c.emitOpByte(bytecode.OpCall, byte(argc))
}

func (c *Compiler) matchCompoundAssign() bool {
	switch c.current.Type {
	case lexer.TokenPlusEqual, lexer.TokenMinusEqual, lexer.TokenStarEqual, lexer.TokenSlashEqual:
		c.advance()
		return true
	}
	return false
}

func (c *Compiler) compoundOp() bytecode.Op {
	switch c.previous.Type {
	case lexer.TokenPlusEqual:
		return bytecode.OpAdd
	case lexer.TokenMinusEqual:
		return bytecode.OpSubtract
	case lexer.TokenStarEqual:
		return bytecode.OpMultiply
	case lexer.TokenSlashEqual:
		return bytecode.OpDivide
	}
	return bytecode.OpAdd
}

// dot compiles `a.name`, `a.name(...)`, `a.name = v` and `a.name op= v`.
func (c *Compiler) dot(canAssign bool) {
	c.consume(lexer.TokenIdentifier, "expected property name after '.'")
	name := c.previous.Lexeme
	nameConst := c.internedConstant(name)

	switch {
	case c.match(lexer.TokenLParen):
		argc := c.argumentList()
		c.emitOpU16(bytecode.OpInvoke, nameConst)
		c.emitByte(byte(argc))
	case canAssign && c.match(lexer.TokenEqual):
		c.expression()
		c.emitOpU16(bytecode.OpSetProperty, nameConst)
	case canAssign && c.matchCompoundAssign():
		op := c.compoundOp()
		c.emitOp(bytecode.OpDup)
		c.emitOpU16(bytecode.OpGetProperty, nameConst)
		c.expression()
		c.emitOp(op)
		c.emitOpU16(bytecode.OpSetProperty, nameConst)
	default:
		c.emitOpU16(bytecode.OpGetProperty, nameConst)
	}
}

// index compiles `a[i]`, `a[i] = v`, `a[i] op= v` (DUP2/GET_INDEX/op/
// SET_INDEX, spec.md §4.3) and `a[i:j]` slicing.
func (c *Compiler) index(canAssign bool) {
	if c.check(lexer.TokenColon) {
		c.emitOp(bytecode.OpNil)
	} else {
		c.expression()
	}

	if c.match(lexer.TokenColon) {
		if c.check(lexer.TokenRBracket) {
			c.emitOp(bytecode.OpNil)
		} else {
			c.expression()
		}
		c.consume(lexer.TokenRBracket, "expected ']' after slice")
		c.emitOp(bytecode.OpSlice)
		return
	}
	c.consume(lexer.TokenRBracket, "expected ']' after index")

	switch {
	case canAssign && c.match(lexer.TokenEqual):
		c.expression()
		c.emitOp(bytecode.OpSetIndex)
	case canAssign && c.matchCompoundAssign():
		op := c.compoundOp()
		c.emitOp(bytecode.OpDup2)
		c.emitOp(bytecode.OpGetIndex)
		c.expression()
		c.emitOp(op)
		c.emitOp(bytecode.OpSetIndex)
	default:
		c.emitOp(bytecode.OpGetIndex)
	}
}

// listLiteral compiles `[a, b, c]`.
func (c *Compiler) listLiteral(canAssign bool) {
	count := 0
	if !c.check(lexer.TokenRBracket) {
		for {
			c.expression()
			count++
			if !c.match(lexer.TokenComma) {
				break
			}
			if c.check(lexer.TokenRBracket) {
				break
			}
		}
	}
	c.consume(lexer.TokenRBracket, "expected ']' after list literal")
	c.emitOpU16(bytecode.OpList, uint16(count))
}

// dictLiteral compiles `{k: v, ...}`.
func (c *Compiler) dictLiteral(canAssign bool) {
	count := 0
	if !c.check(lexer.TokenRBrace) {
		for {
			c.expression()
			c.consume(lexer.TokenColon, "expected ':' after dict key")
			c.expression()
			count++
			if !c.match(lexer.TokenComma) {
				break
			}
			if c.check(lexer.TokenRBrace) {
				break
			}
		}
	}
	c.consume(lexer.TokenRBrace, "expected '}' after dict literal")
	c.emitOpU16(bytecode.OpDict, uint16(count))
}

// preIncDec compiles `++x` / `--x`: read, add/subtract one, store, and
// leave the new value (spec.md §4.3). Only simple variables qualify, the
// same restriction compound assignment carries.
func (c *Compiler) preIncDec(canAssign bool) {
	opType := c.previous.Type
	c.consume(lexer.TokenIdentifier, "can only increment/decrement a simple variable")
	name := c.previous.Lexeme

	get, set, isFinal := c.resolveVariableOps(name)
	if isFinal {
		c.error(fmt.Sprintf("cannot modify final variable '%s'", name))
	}
	get()
	c.emitConstantValue(value.NumberVal(1))
	if opType == lexer.TokenPlusPlus {
		c.emitOp(bytecode.OpAdd)
	} else {
		c.emitOp(bytecode.OpSubtract)
	}
	set()
}

// self_ resolves the implicit receiver local bound in every method frame.
func (c *Compiler) self_(canAssign bool) {
	if c.class == nil {
		c.error("can't use 'self' outside of a class")
		return
	}
	c.namedVariable("self", false)
}

// super_ compiles `super.method` / `super.method(...)`.
func (c *Compiler) super_(canAssign bool) {
	if c.class == nil {
		c.error("can't use 'super' outside of a class")
	} else if !c.class.hasSuperclass {
		c.error("can't use 'super' in a class with no superclass")
	}
	c.consume(lexer.TokenDot, "expected '.' after 'super'")
	c.consume(lexer.TokenIdentifier, "expected superclass method name")
	name := c.previous.Lexeme
	nameConst := c.internedConstant(name)

	c.namedVariable("self", false)
	if c.match(lexer.TokenLParen) {
		argc := c.argumentList()
		c.namedVariable("super", false)
		c.emitOpU16(bytecode.OpSuperInvoke, nameConst)
		c.emitByte(byte(argc))
		return
	}
	c.namedVariable("super", false)
	c.emitOpU16(bytecode.OpGetSuper, nameConst)
}

// variable is the prefix rule for bare identifiers.
func (c *Compiler) variable(canAssign bool) {
	c.namedVariable(c.previous.Lexeme, canAssign)
}

// variableByName looks up name exactly as variable() would, for callers
// (class/superclass references) that already hold the identifier text.
func (c *Compiler) variableByName(name string, canAssign bool) {
	c.namedVariable(name, canAssign)
}

// resolveVariableOps resolves name to a local, upvalue, or global slot
// and returns closures that emit the matching GET/SET instruction pair,
// plus whether the binding is final.
func (c *Compiler) resolveVariableOps(name string) (get func(), set func(), isFinal bool) {
	if slot := resolveLocal(c.frame, name); slot != -1 {
		if slot == -2 {
			c.error(fmt.Sprintf("can't read local variable '%s' in its own initializer", name))
			slot = 0
		}
		s := slot
		return func() { c.emitOpU16(bytecode.OpGetLocal, uint16(s)) },
			func() { c.emitOpU16(bytecode.OpSetLocal, uint16(s)) },
			c.frame.locals[s].isFinal
	}
	if slot := resolveUpvalue(c.frame, name); slot != -1 {
		final := false
		if slot == -2 {
			c.error(fmt.Sprintf("can't read upvalue '%s' in its own initializer", name))
			slot = 0
		} else {
			final = c.frame.upvalues[slot].isFinal
		}
		s := slot
		return func() { c.emitOpByte(bytecode.OpGetUpvalue, byte(s)) },
			func() { c.emitOpByte(bytecode.OpSetUpvalue, byte(s)) },
			final
	}
	nameConst := c.internedConstant(name)
	return func() { c.emitOpU16(bytecode.OpGetGlobal, nameConst) },
		func() { c.emitOpU16(bytecode.OpSetGlobal, nameConst) },
		c.finalGlobals[name]
}

func (c *Compiler) namedVariable(name string, canAssign bool) {
	get, set, isFinal := c.resolveVariableOps(name)

	switch {
	case canAssign && c.match(lexer.TokenEqual):
		if isFinal {
			c.error(fmt.Sprintf("cannot assign to final variable '%s'", name))
		}
		c.expression()
		set()
	case canAssign && c.matchCompoundAssign():
		if isFinal {
			c.error(fmt.Sprintf("cannot assign to final variable '%s'", name))
		}
		op := c.compoundOp()
		get()
		c.expression()
		c.emitOp(op)
		set()
	case canAssign && c.check(lexer.TokenPlusPlus), canAssign && c.check(lexer.TokenMinusMinus):
		if isFinal {
			c.error(fmt.Sprintf("cannot modify final variable '%s'", name))
		}
		dec := c.current.Type == lexer.TokenMinusMinus
		c.advance()
		get()
		c.emitOp(bytecode.OpDup)
		c.emitConstantValue(value.NumberVal(1))
		if dec {
			c.emitOp(bytecode.OpSubtract)
		} else {
			c.emitOp(bytecode.OpAdd)
		}
		set()
		c.emitOp(bytecode.OpPop)
	default:
		get()
	}
}

// ---- string interpolation ----

type interpSegment struct {
	text   string
	isExpr bool
}

// splitInterpolation breaks a raw string lexeme into literal and `${...}`
// expression segments, tracking brace depth so a nested `{}` inside the
// expression doesn't end the marker early (spec.md §4.2, §9 invariant 9).
func splitInterpolation(raw string) []interpSegment {
	var segments []interpSegment
	var buf strings.Builder
	i := 0
	for i < len(raw) {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '{' {
			if buf.Len() > 0 {
				segments = append(segments, interpSegment{text: buf.String()})
				buf.Reset()
			}
			depth := 1
			j := i + 2
			for j < len(raw) && depth > 0 {
				switch raw[j] {
				case '{':
					depth++
				case '}':
					depth--
					if depth == 0 {
						goto found
					}
				}
				j++
			}
		found:
			segments = append(segments, interpSegment{text: raw[i+2 : j], isExpr: true})
			i = j + 1
			continue
		}
		buf.WriteByte(raw[i])
		i++
	}
	if buf.Len() > 0 || len(segments) == 0 {
		segments = append(segments, interpSegment{text: buf.String()})
	}
	return segments
}

// compileSubExpression re-enters the parser on an embedded `${ expr }`
// substring by swapping in a scratch lexer, as spec.md §4.2 requires.
func (c *Compiler) compileSubExpression(text string) {
	savedLex := c.lex
	savedCurrent := c.current
	savedPrevious := c.previous

	c.lex = lexer.New(text)
	c.current = c.lex.NextToken()
	for c.current.Type == lexer.TokenError {
		c.errorAtCurrent(c.current.Lexeme)
		c.current = c.lex.NextToken()
	}
	c.expression()

	c.lex = savedLex
	c.current = savedCurrent
	c.previous = savedPrevious
}

// stringLiteral compiles a string token, segmenting `${expr}` markers and
// joining pieces with INTERPOLATE (spec.md §4.2, §9 supplement (a)).
func (c *Compiler) stringLiteral(canAssign bool) {
	segments := splitInterpolation(c.previous.Lexeme)

	for i, seg := range segments {
		if seg.isExpr {
			c.compileSubExpression(seg.text)
		} else {
			c.emitConstantValue(value.ObjVal(c.col.InternString(seg.text)))
		}
		if i > 0 {
			c.emitOp(bytecode.OpInterpolate)
		}
	}
}
