package compiler

import (
	"fmt"

	"github.com/ESloman/cslo/pkg/bytecode"
)

func (c *Compiler) beginScope() { c.frame.scopeDepth++ }

// endScope pops every local declared in the scope being left, emitting
// CLOSE_UPVALUE for any of them a closure captured, or POP otherwise.
func (c *Compiler) endScope() {
	c.frame.scopeDepth--
	f := c.frame
	for len(f.locals) > 0 && f.locals[len(f.locals)-1].depth > f.scopeDepth {
		if f.locals[len(f.locals)-1].isCaptured {
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			c.emitOp(bytecode.OpPop)
		}
		f.locals = f.locals[:len(f.locals)-1]
	}
}

// declareLocal registers name as a new local in the current scope. A
// local used before its own initializer finishes is caught elsewhere by
// checking depth == -1 during resolution.
func (c *Compiler) declareLocal(name string, isFinal bool) {
	if c.frame.scopeDepth == 0 {
		return
	}
	f := c.frame
	for i := len(f.locals) - 1; i >= 0; i-- {
		l := f.locals[i]
		if l.depth != -1 && l.depth < f.scopeDepth {
			break
		}
		if l.name == name {
			c.error(fmt.Sprintf("variable '%s' already declared in this scope", name))
		}
	}
	if len(f.locals) >= maxLocals {
		c.error("too many local variables in function")
		return
	}
	f.locals = append(f.locals, local{name: name, depth: -1, isFinal: isFinal})
}

func (c *Compiler) markInitialized() {
	if c.frame.scopeDepth == 0 {
		return
	}
	c.frame.locals[len(c.frame.locals)-1].depth = c.frame.scopeDepth
}

// resolveLocal walks f's locals newest-to-oldest looking for name,
// returning its slot or -1.
func resolveLocal(f *frame, name string) int {
	for i := len(f.locals) - 1; i >= 0; i-- {
		if f.locals[i].name == name {
			if f.locals[i].depth == -1 {
				return -2 // sentinel: used before initializer completed
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue implements free-variable capture: walk up the
// compiler chain, and when a matching local is found in an enclosing
// frame, mark it captured and register an upvalue in every intervening
// frame (spec.md §4.2, "Locals & upvalues").
func resolveUpvalue(f *frame, name string) int {
	if f.enclosing == nil {
		return -1
	}
	if slot := resolveLocal(f.enclosing, name); slot >= 0 {
		f.enclosing.locals[slot].isCaptured = true
		return addUpvalue(f, slot, true, f.enclosing.locals[slot].isFinal)
	} else if slot == -2 {
		return -2
	}
	if up := resolveUpvalue(f.enclosing, name); up >= 0 {
		return addUpvalue(f, up, false, f.enclosing.upvalues[up].isFinal)
	}
	return -1
}

func addUpvalue(f *frame, index int, isLocal bool, isFinal bool) int {
	for i, uv := range f.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(f.upvalues) >= maxUpvalues {
		return -1
	}
	f.upvalues = append(f.upvalues, upvalueDesc{index: index, isLocal: isLocal, isFinal: isFinal})
	return len(f.upvalues) - 1
}
