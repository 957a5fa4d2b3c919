package compiler

import (
	"fmt"

	"github.com/ESloman/cslo/pkg/bytecode"
	"github.com/ESloman/cslo/pkg/lexer"
	"github.com/ESloman/cslo/pkg/value"
)

// declaration is the top of the statement grammar: declarations first,
// falling through to plain statements, with panic-mode recovery between
// top-level statements so one syntax error doesn't cascade.
func (c *Compiler) declaration() {
	switch {
	case c.match(lexer.TokenFinal):
		c.finalVarDeclaration()
	case c.match(lexer.TokenVar):
		c.varDeclaration(false)
	case c.match(lexer.TokenFunc):
		c.funcDeclaration()
	case c.match(lexer.TokenClass):
		c.classDeclaration()
	case c.match(lexer.TokenEnum):
		c.enumDeclaration()
	case c.match(lexer.TokenImport):
		c.importDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

// varDeclaration compiles `var x;` / `var x = e;`. At file scope it
// defines a global; at inner scope it just marks the slot initialised.
func (c *Compiler) varDeclaration(isFinal bool) {
	nameConst, name := c.parseVariableName("expected variable name", isFinal)

	if c.match(lexer.TokenEqual) {
		c.expression()
	} else {
		if isFinal {
			c.error("final variable must have an initializer")
		}
		c.emitOp(bytecode.OpNil)
	}
	c.consume(lexer.TokenSemicolon, "expected ';' after variable declaration")
	c.defineVariable(nameConst, name, isFinal)
}

func (c *Compiler) finalVarDeclaration() {
	c.consume(lexer.TokenVar, "expected 'var' after 'final'")
	c.varDeclaration(true)
}

// parseVariableName consumes an identifier, declares it as a local if
// we're in a scope, and (for globals) checks/records final-ness.
func (c *Compiler) parseVariableName(msg string, isFinal bool) (uint16, string) {
	c.consume(lexer.TokenIdentifier, msg)
	name := c.previous.Lexeme

	if c.frame.scopeDepth > 0 {
		if c.finalGlobals[name] {
			c.error(fmt.Sprintf("cannot shadow final global '%s'", name))
		}
		c.declareLocal(name, isFinal)
		return 0, name
	}
	if c.finalGlobals[name] {
		c.error(fmt.Sprintf("cannot redeclare final global '%s'", name))
	}
	return c.internedConstant(name), name
}

func (c *Compiler) defineVariable(nameConst uint16, name string, isFinal bool) {
	if c.frame.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	if isFinal {
		c.finalGlobals[name] = true
		c.emitOpU16(bytecode.OpDefineFinalGlobal, nameConst)
	} else {
		c.emitOpU16(bytecode.OpDefineGlobal, nameConst)
	}
}

// funcDeclaration compiles `func f(params) { body }` as a named
// variable binding whose initialiser is a CLOSURE.
func (c *Compiler) funcDeclaration() {
	nameConst, name := c.parseVariableName("expected function name", false)
	if c.frame.scopeDepth > 0 {
		c.markInitialized()
	}
	c.function(FuncFunction, name)
	c.defineVariable(nameConst, name, false)
}

// function compiles a parameter list and body into a fresh frame,
// emitting CLOSURE with one (isLocal, index) descriptor per upvalue.
func (c *Compiler) function(ft FuncType, name string) {
	c.beginFunction(ft, name)
	c.beginScope()

	c.consume(lexer.TokenLParen, "expected '(' after function name")
	if !c.check(lexer.TokenRParen) {
		for {
			c.frame.function.Arity++
			if c.frame.function.Arity > 255 {
				c.errorAtCurrent("can't have more than 255 parameters")
			}
			paramConst, paramName := c.parseVariableName("expected parameter name", false)
			c.defineVariable(paramConst, paramName, false)
			if !c.match(lexer.TokenComma) {
				break
			}
		}
	}
	c.consume(lexer.TokenRParen, "expected ')' after parameters")
	c.consume(lexer.TokenLBrace, "expected '{' before function body")
	c.block()

	upvalues := c.frame.upvalues
	fn := c.endFunction()

	idx := c.emitConstant(value.ObjVal(fn))
	c.emitOpU16(bytecode.OpClosure, idx)
	for _, uv := range upvalues {
		isLocal := byte(0)
		if uv.isLocal {
			isLocal = 1
		}
		c.emitByte(isLocal)
		c.chunk().WriteU16(uint16(uv.index), c.previous.Line)
	}
}

// classDeclaration compiles `class C [extends D] { methods }`.
func (c *Compiler) classDeclaration() {
	c.consume(lexer.TokenIdentifier, "expected class name")
	name := c.previous.Lexeme
	nameConst := c.internedConstant(name)
	c.declareLocal(name, false)

	c.emitOpU16(bytecode.OpClass, nameConst)
	c.defineVariable(nameConst, name, false)

	cc := &classCompiler{enclosing: c.class, name: name}
	c.class = cc
	defer func() { c.class = c.class.enclosing }()

	if c.match(lexer.TokenExtends) {
		c.consume(lexer.TokenIdentifier, "expected superclass name")
		superName := c.previous.Lexeme
		if superName == name {
			c.error("a class can't inherit from itself")
		}
		c.variableByName(superName, false)

		c.beginScope()
		c.declareLocal("super", true)
		c.markInitialized()

		c.variableByName(name, false)
		c.emitOp(bytecode.OpInherit)
		cc.hasSuperclass = true
	}

	c.variableByName(name, false)
	c.consume(lexer.TokenLBrace, "expected '{' before class body")
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		c.method()
	}
	c.consume(lexer.TokenRBrace, "expected '}' after class body")
	c.emitOp(bytecode.OpPop) // the class itself, left by GET at the top

	if cc.hasSuperclass {
		c.endScope()
	}
}

func (c *Compiler) method() {
	c.consume(lexer.TokenFunc, "expected method declaration")
	c.consume(lexer.TokenIdentifier, "expected method name")
	name := c.previous.Lexeme
	nameConst := c.internedConstant(name)

	ft := FuncMethod
	if name == "__init__" {
		ft = FuncInitializer
	}
	c.function(ft, name)
	c.emitOpU16(bytecode.OpMethod, nameConst)
}

// enumDeclaration compiles `enum E { A, B, C }` to ENUM followed by the
// member count, the enum-name constant, and one member-name constant per
// member; ordinals come from member order.
func (c *Compiler) enumDeclaration() {
	c.consume(lexer.TokenIdentifier, "expected enum name")
	name := c.previous.Lexeme
	nameConst := c.internedConstant(name)
	c.consume(lexer.TokenLBrace, "expected '{' before enum body")

	memberConsts := []uint16{}
	if !c.check(lexer.TokenRBrace) {
		for {
			c.consume(lexer.TokenIdentifier, "expected enum member name")
			memberName := c.previous.Lexeme
			memberConsts = append(memberConsts, c.internedConstant(memberName))
			if !c.match(lexer.TokenComma) {
				break
			}
			if c.check(lexer.TokenRBrace) {
				break
			}
		}
	}
	c.consume(lexer.TokenRBrace, "expected '}' after enum body")
	if len(memberConsts) > 255 {
		c.error("too many enum members")
	}
	c.emitOp(bytecode.OpEnum)
	c.emitByte(byte(len(memberConsts)))
	c.chunk().WriteU16(nameConst, c.previous.Line)
	for _, mc := range memberConsts {
		c.chunk().WriteU16(mc, c.previous.Line)
	}
	c.defineVariable(nameConst, name, false)
}

func (c *Compiler) importDeclaration() {
	c.consume(lexer.TokenIdentifier, "expected module name")
	name := c.previous.Lexeme
	nameConst := c.internedConstant(name)
	if c.match(lexer.TokenAs) {
		c.consume(lexer.TokenIdentifier, "expected alias name")
		alias := c.previous.Lexeme
		aliasConst := c.internedConstant(alias)
		c.emitOp(bytecode.OpImportAs)
		c.chunk().WriteU16(nameConst, c.previous.Line)
		c.chunk().WriteU16(aliasConst, c.previous.Line)
	} else {
		c.emitOpU16(bytecode.OpImport, nameConst)
	}
	c.consume(lexer.TokenSemicolon, "expected ';' after import")
}

// block compiles `{ declaration* }` without opening its own scope (the
// caller decides scoping — functions open one before calling block).
func (c *Compiler) block() {
	for !c.check(lexer.TokenRBrace) && !c.check(lexer.TokenEOF) {
		c.declaration()
	}
	c.consume(lexer.TokenRBrace, "expected '}' after block")
}
