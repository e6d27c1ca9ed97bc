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
	"fmt"

	"github.com/pocketlang/pocketlang/lang/token"
)

func (c *Compiler) advance() error {
	c.cur = c.peek
	c.curInterps = c.nextInterps
	tok, err := c.lex.NextToken()
	if err != nil {
		path := string(c.module.Path.Bytes)
		if c.ReplMode {
			return &CompileError{Path: path, Line: c.cur.Pos.Line, Message: "need more lines", UnexpectedEOF: true}
		}
		return &CompileError{Path: path, Line: c.cur.Pos.Line, Message: err.Error()}
	}
	c.peek = tok
	if tok.Type == token.STRING {
		c.nextInterps = c.lex.Interps
	} else {
		c.nextInterps = nil
	}
	return nil
}

func (c *Compiler) check(t token.Type) bool { return c.cur.Type == t }

func (c *Compiler) checkPeek(t token.Type) bool { return c.peek.Type == t }

func (c *Compiler) match(t token.Type) (bool, error) {
	if !c.check(t) {
		return false, nil
	}
	return true, c.advance()
}

func (c *Compiler) expect(t token.Type) (token.Token, error) {
	if !c.check(t) {
		return token.Token{}, c.errorf("expected %s, found %s", t, c.cur.Type)
	}
	tok := c.cur
	return tok, c.advance()
}

func (c *Compiler) errorf(format string, args ...interface{}) *CompileError {
	return &CompileError{
		Path: string(c.module.Path.Bytes), Line: c.cur.Pos.Line,
		Message:       fmt.Sprintf(format, args...),
		UnexpectedEOF: c.ReplMode && c.cur.Type == token.EOF,
	}
}

func (c *Compiler) skipNewlines() {
	for c.check(token.NEWLINE) {
		c.advance()
	}
}

// syncToNewline discards tokens until past the next statement boundary,
// used for simple single-error-per-statement recovery.
func (c *Compiler) syncToNewline() {
	for !c.check(token.NEWLINE) && !c.check(token.EOF) {
		c.advance()
	}
	c.skipNewlines()
}
