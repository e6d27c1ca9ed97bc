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
	"strconv"
	"strings"

	"github.com/pocketlang/pocketlang/lang/bytecode"
	"github.com/pocketlang/pocketlang/lang/lexer"
	"github.com/pocketlang/pocketlang/lang/value"
)

func (c *Compiler) parseNumber() error {
	lit := c.cur.Literal

	var v float64
	switch {
	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		n, err := strconv.ParseUint(lit[2:], 16, 64)
		if err != nil {
			return c.errorf("invalid hex literal %q", lit)
		}
		v = float64(n)
	case strings.HasPrefix(lit, "0b") || strings.HasPrefix(lit, "0B"):
		n, err := strconv.ParseUint(lit[2:], 2, 64)
		if err != nil {
			return c.errorf("invalid binary literal %q", lit)
		}
		v = float64(n)
	default:
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return c.errorf("invalid number literal %q", lit)
		}
		v = f
	}

	switch v {
	case 0:
		c.emit(c.top().fn, bytecode.PUSH_0)
	case 1:
		c.emit(c.top().fn, bytecode.PUSH_1)
	default:
		c.pushConstant(value.Num(v))
	}
	return c.advance()
}

func (c *Compiler) pushString(b []byte) {
	c.pushConstant(value.ObjVal(c.heap, value.NewString(c.heap, b)))
}

// parseString compiles a STRING token, including any $name/${expr}
// interpolation pieces recorded in c.curInterps, into code that leaves a
// single String value on the stack. Interpolated pieces are joined with
// ADD, whose String-operand semantics coerce a non-string right operand
// via to_string (§4.B "String concatenation").
func (c *Compiler) parseString() error {
	fn := c.top().fn
	line := c.cur.Pos.Line

	interps := c.curInterps
	if len(interps) == 0 {
		interps = []lexer.Interp{{Literal: c.cur.Literal}}
	}

	c.pushString([]byte(interps[0].Literal))
	if interps[0].Expr != "" {
		if err := c.compileSubExpr(interps[0].Expr, line); err != nil {
			return err
		}
		c.emit(fn, bytecode.ADD)
	}

	for _, piece := range interps[1:] {
		if piece.Expr != "" {
			if err := c.compileSubExpr(piece.Expr, line); err != nil {
				return err
			}
			c.emit(fn, bytecode.ADD)
		}
		if piece.Literal != "" {
			c.pushString([]byte(piece.Literal))
			c.emit(fn, bytecode.ADD)
		}
	}

	return c.advance()
}

// compileSubExpr parses and emits code for src (an interpolation fragment)
// by temporarily switching the compiler's token stream onto a fresh lexer
// over that fragment, then restoring the outer stream. This keeps string
// interpolation a single-pass, no-AST affair: the fragment is compiled
// exactly like any other sub-expression, just sourced from a nested lexer.
func (c *Compiler) compileSubExpr(src string, line int) error {
	savedLex := c.lex
	savedCur, savedPeek := c.cur, c.peek
	savedCurI, savedNextI := c.curInterps, c.nextInterps

	c.lex = lexer.New(string(c.module.Path.Bytes), src)
	if err := c.advance(); err != nil {
		return err
	}
	if err := c.advance(); err != nil {
		return err
	}

	err := c.parseExpression(precOr)

	c.lex = savedLex
	c.cur, c.peek = savedCur, savedPeek
	c.curInterps, c.nextInterps = savedCurI, savedNextI

	if err != nil {
		return &CompileError{Path: string(c.module.Path.Bytes), Line: line, Message: err.Error()}
	}
	return nil
}
