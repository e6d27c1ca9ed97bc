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

// Package compiler is a single-pass, Pratt-style compiler that emits
// bytecode directly into a Module's functions as it parses — no AST, no
// intermediate representation (§4.E).
package compiler

import (
	"fmt"

	"github.com/pocketlang/pocketlang/lang/bytecode"
	"github.com/pocketlang/pocketlang/lang/lexer"
	"github.com/pocketlang/pocketlang/lang/token"
	"github.com/pocketlang/pocketlang/lang/value"
)

// Scope depth sentinels (§4.E).
const (
	DepthScript = -2
	DepthGlobal = -1
)

// Local is a compile-time binding slot.
type Local struct {
	Name  string
	Depth int
	Line  int
}

// forwardRef records a call to a name not yet defined, to be resolved
// once the whole module has been compiled (§4.E "Forward references").
type forwardRef struct {
	fn     *value.Function
	offset int // byte offset of the operand to patch, within fn.Opcodes
	name   string
	line   int
}

// CompileError is a single (path, line, message) compile diagnostic
// (§7.1). UnexpectedEOF distinguishes the REPL's "need more lines" soft
// error from a hard failure (§4.E "REPL mode").
type CompileError struct {
	Path           string
	Line           int
	Message        string
	UnexpectedEOF  bool
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}

// funcState is the per-function compile-time context; nesting one per
// `def`/ctor body being compiled. Functions are not closures (§4.E): a
// nested funcState cannot see an outer funcState's locals.
type funcState struct {
	fn         *value.Function
	locals     []Local
	scopeDepth int
	loops      []loopCtx
}

type loopCtx struct {
	continueTarget int
	breakJumps     []int // offsets of JUMP operands to patch to the loop's exit
}

// Compiler holds all state for compiling one Module from source text.
type Compiler struct {
	heap   *value.Heap
	module *value.Module

	lex         *lexer.Lexer
	curInterps  []lexer.Interp // interpolation pieces belonging to c.cur, when it's a STRING
	nextInterps []lexer.Interp // staged pieces belonging to c.peek

	cur  token.Token
	peek token.Token

	fstack []*funcState // innermost last; fstack[0] is the module body

	forwardRefs []forwardRef
	errs        []*CompileError

	ReplMode bool
}

func (c *Compiler) top() *funcState { return c.fstack[len(c.fstack)-1] }

// Compile compiles src (attributed to path) into a Module ready to run.
// ReplMode, when true, reports an unresolvable EOF mid-expression as a
// soft UnexpectedEOF error instead of a hard one (§4.E "REPL mode").
func Compile(heap *value.Heap, path, src string, replMode bool) (*value.Module, error) {
	pathStr := value.NewString(heap, []byte(path))
	mod := value.NewModule(heap, pathStr)

	c := &Compiler{
		heap:     heap,
		module:   mod,
		lex:      lexer.New(path, src),
		ReplMode: replMode,
	}

	body := value.NewFunction(heap, mod, "@main", 0)
	mod.Body = body
	mod.Functions = append(mod.Functions, body)
	c.fstack = []*funcState{{fn: body, scopeDepth: DepthScript}}

	if err := c.advance(); err != nil {
		return nil, err
	}
	if err := c.advance(); err != nil {
		return nil, err
	}

	for !c.check(token.EOF) {
		c.skipNewlines()
		if c.check(token.EOF) {
			break
		}
		if err := c.topLevelStatement(); err != nil {
			if ce, ok := err.(*CompileError); ok {
				c.errs = append(c.errs, ce)
				if ce.UnexpectedEOF {
					return nil, ce
				}
				c.syncToNewline()
				continue
			}
			return nil, err
		}
	}

	c.emit(body, bytecode.PUSH_NULL)
	c.emit(body, bytecode.RETURN)

	c.resolveForwardRefs()

	if len(c.errs) > 0 {
		return nil, c.errs[0]
	}
	mod.Initialized = true
	return mod, nil
}

func (c *Compiler) resolveForwardRefs() {
	for _, ref := range c.forwardRefs {
		idx := c.findFunctionIndex(ref.name)
		if idx < 0 {
			c.errs = append(c.errs, &CompileError{
				Path: string(c.module.Path.Bytes), Line: ref.line,
				Message: fmt.Sprintf("name '%s' is not defined", ref.name),
			})
			continue
		}
		ref.fn.Opcodes[ref.offset] = byte(idx)
	}
}

func (c *Compiler) findFunctionIndex(name string) int {
	for i, fn := range c.module.Functions {
		if fn.Name == name {
			return i
		}
	}
	return -1
}

