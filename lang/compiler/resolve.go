// Copyright 2024 The PocketLang Authors
// This file is part of the PocketLang runtime.
//
// The PocketLang runtime is free software: you can redistribute it and/or
// modify it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// The PocketLang runtime is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the PocketLang runtime. If not, see <http://www.gnu.org/licenses/>.

package compiler

import (
	"github.com/pocketlang/pocketlang/lang/builtin"
	"github.com/pocketlang/pocketlang/lang/bytecode"
	"github.com/pocketlang/pocketlang/lang/token"
	"github.com/pocketlang/pocketlang/lang/value"
)

// inBlockScope reports whether the current function has entered at least
// one nested block (and therefore binds plain names as locals rather than
// module globals). The module body's own top-level statements (scopeDepth
// == DepthScript) bind at module scope instead (§4.E scope depths).
func (c *Compiler) inBlockScope() bool {
	return c.top().scopeDepth >= 0
}

func (c *Compiler) beginScope() {
	c.top().scopeDepth++
}

// endScope pops every local declared at or below the scope being closed,
// emitting one POP per slot (§4.E "block-scope cleanup").
func (c *Compiler) endScope() {
	fs := c.top()
	fs.scopeDepth--
	for len(fs.locals) > 0 && fs.locals[len(fs.locals)-1].Depth > fs.scopeDepth {
		fs.locals = fs.locals[:len(fs.locals)-1]
		c.emit(fs.fn, bytecode.POP)
	}
}

// declareLocal reserves a new local slot in the current function for name,
// returning its slot index.
func (c *Compiler) declareLocal(name string, line int) int {
	fs := c.top()
	fs.locals = append(fs.locals, Local{Name: name, Depth: fs.scopeDepth, Line: line})
	return len(fs.locals) - 1
}

// resolveLocal searches the current function's locals innermost-first.
func (c *Compiler) resolveLocal(name string) (int, bool) {
	fs := c.top()
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].Name == name {
			return i, true
		}
	}
	return 0, false
}

func (c *Compiler) globalIndex(name string) int {
	for i, n := range c.module.GlobalNames {
		if n == name {
			return i
		}
	}
	c.module.GlobalNames = append(c.module.GlobalNames, name)
	c.module.Globals = append(c.module.Globals, value.Null())
	return len(c.module.GlobalNames) - 1
}

func (c *Compiler) emitLoadLocal(fn *value.Function, slot int) {
	if slot <= 8 {
		c.emit(fn, bytecode.PUSH_LOCAL_0+bytecode.Op(slot))
		return
	}
	c.emitU8(fn, bytecode.PUSH_LOCAL_N, byte(slot))
}

func (c *Compiler) emitStoreLocal(fn *value.Function, slot int) {
	if slot <= 8 {
		c.emit(fn, bytecode.STORE_LOCAL_0+bytecode.Op(slot))
		return
	}
	c.emitU8(fn, bytecode.STORE_LOCAL_N, byte(slot))
}

// loadName emits code that pushes the current value bound to name: a
// local slot if one is in scope in the current function, a function
// reference (recording a forward reference if the function is not yet
// known) if the name matches a `def`, or a module global otherwise.
func (c *Compiler) loadName(name string, line int) {
	fn := c.top().fn
	if slot, ok := c.resolveLocal(name); ok {
		c.emitLoadLocal(fn, slot)
		return
	}
	if cls := c.findClassByName(name); cls != nil {
		c.emitU8(fn, bytecode.PUSH_TYPE, byte(c.classIndex(cls)))
		return
	}
	if idx := c.findFunctionIndex(name); idx >= 0 {
		c.emitU8(fn, bytecode.PUSH_FN, byte(idx))
		return
	}
	if idx := builtin.Index(name); idx >= 0 {
		c.emitU8(fn, bytecode.PUSH_BUILTIN_FN, byte(idx))
		return
	}
	if c.looksLikeCallable(name) {
		offset := c.emitU8(fn, bytecode.PUSH_FN, 0) + 1
		c.forwardRefs = append(c.forwardRefs, forwardRef{fn: fn, offset: offset, name: name, line: line})
		return
	}
	idx := c.globalIndex(name)
	c.emitU8(fn, bytecode.PUSH_GLOBAL, byte(idx))
}

// looksLikeCallable is true when name is immediately followed by '(' or
// '->', i.e. it is being used in call position, which is the only context
// in which an as-yet-undefined name is still legal (§4.E "Forward
// references": only calls to not-yet-defined functions are deferred;
// plain variable reads must already be in scope).
func (c *Compiler) looksLikeCallable(name string) bool {
	return c.check(token.LPAREN) || c.check(token.ARROW)
}

// storeName emits code that pops the top of stack into name's binding.
func (c *Compiler) storeName(name string) {
	fn := c.top().fn
	if slot, ok := c.resolveLocal(name); ok {
		c.emitStoreLocal(fn, slot)
		return
	}
	idx := c.globalIndex(name)
	c.emitU8(fn, bytecode.STORE_GLOBAL, byte(idx))
}

func (c *Compiler) parseIdentOrAssign() error {
	name := c.cur.Literal
	line := c.cur.Pos.Line
	if err := c.advance(); err != nil {
		return err
	}
	c.loadName(name, line)
	return nil
}
