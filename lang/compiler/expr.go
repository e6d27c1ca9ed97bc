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
	"github.com/pocketlang/pocketlang/lang/bytecode"
	"github.com/pocketlang/pocketlang/lang/token"
	"github.com/pocketlang/pocketlang/lang/value"
)

// Precedence ladder (low to high), §4.E.
const (
	precNone = iota
	precOr
	precAnd
	precEquality
	precMembership // in, is
	precComparison
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precRange
	precAdditive
	precMultiplicative
)

func infixPrec(t token.Type) int {
	switch t {
	case token.OR:
		return precOr
	case token.AND:
		return precAnd
	case token.EQEQ, token.NOTEQ:
		return precEquality
	case token.IN:
		return precMembership
	case token.LT, token.GT, token.LTEQ, token.GTEQ:
		return precComparison
	case token.PIPE:
		return precBitOr
	case token.CARET:
		return precBitXor
	case token.AMP:
		return precBitAnd
	case token.LTLT, token.GTGT:
		return precShift
	case token.DOTDOT:
		return precRange
	case token.PLUS, token.MINUS:
		return precAdditive
	case token.STAR, token.SLASH, token.PERCENT:
		return precMultiplicative
	}
	return precNone
}

// parseExpression parses a full expression with precedence-climbing,
// emitting bytecode directly (§4.E).
func (c *Compiler) parseExpression(minPrec int) error {
	if err := c.parseUnary(); err != nil {
		return err
	}
	return c.parseInfixLoop(minPrec)
}

// parseInfixLoop consumes binary operators at or above minPrec, assuming
// the left operand has already been emitted. Factored out so statement-
// level assignment parsing (see stmt.go) can parse the left side itself
// (to detect an assignment target) before falling back to this loop.
func (c *Compiler) parseInfixLoop(minPrec int) error {
	for {
		prec := infixPrec(c.cur.Type)
		if prec == precNone || prec < minPrec {
			return nil
		}
		op := c.cur.Type
		if op == token.AND || op == token.OR {
			if err := c.parseShortCircuit(op); err != nil {
				return err
			}
			continue
		}
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseExpression(prec + 1); err != nil {
			return err
		}
		c.emitBinaryOp(op)
	}
}

// parseExpressionTop is the statement-level entry point: it behaves like
// parseExpression(precOr) but, when the expression is a bare postfix chain
// ending in an attribute or subscript access, stops short of consuming
// that final access and reports it so the caller can rewrite it into an
// assignment if one follows (§4.E "Compound assignment").
func (c *Compiler) parseExpressionTop() (lastAccessor, error) {
	switch c.cur.Type {
	case token.MINUS, token.BANG, token.NOT, token.TILDE:
		return lastAccessor{}, c.parseExpression(precOr)
	}
	last, err := c.parsePostfixChain()
	if err != nil {
		return lastAccessor{}, err
	}
	if last.kind != 0 && isAssignStart(c.cur.Type) {
		return last, nil
	}
	if err := c.parseInfixLoop(precOr); err != nil {
		return lastAccessor{}, err
	}
	return lastAccessor{}, nil
}

// parseShortCircuit compiles `and`/`or` using paired conditional jumps
// that push the final true/false constant and never leave intermediate
// operand values on the stack (§4.E).
func (c *Compiler) parseShortCircuit(op token.Type) error {
	fn := c.top().fn
	if err := c.advance(); err != nil { // consume 'and'/'or'
		return err
	}

	jumpOp := bytecode.JUMP_IF
	if op == token.AND {
		jumpOp = bytecode.JUMP_IF_NOT
	}
	shortJump := c.emitJump(fn, jumpOp)

	if err := c.parseExpression(infixPrec(op) + 1); err != nil {
		return err
	}
	secondJump := c.emitJump(fn, jumpOp)
	if op == token.AND {
		c.emit(fn, bytecode.PUSH_TRUE)
	} else {
		c.emit(fn, bytecode.PUSH_FALSE)
	}
	end := c.emitJump(fn, bytecode.JUMP)
	c.patchJump(fn, shortJump)
	c.patchJump(fn, secondJump)
	if op == token.AND {
		c.emit(fn, bytecode.PUSH_FALSE)
	} else {
		c.emit(fn, bytecode.PUSH_TRUE)
	}
	c.patchJump(fn, end)
	return nil
}

var opcodeForOperator = map[token.Type]bytecode.Op{
	token.PLUS: bytecode.ADD, token.MINUS: bytecode.SUB,
	token.STAR: bytecode.MUL, token.SLASH: bytecode.DIV, token.PERCENT: bytecode.MOD,
	token.AMP: bytecode.BIT_AND, token.PIPE: bytecode.BIT_OR, token.CARET: bytecode.BIT_XOR,
	token.LTLT: bytecode.LSHIFT, token.GTGT: bytecode.RSHIFT,
	token.EQEQ: bytecode.EQEQ, token.NOTEQ: bytecode.NOTEQ,
	token.LT: bytecode.LT, token.LTEQ: bytecode.LTEQ, token.GT: bytecode.GT, token.GTEQ: bytecode.GTEQ,
	token.DOTDOT: bytecode.RANGE, token.IN: bytecode.IN,
}

func (c *Compiler) emitBinaryOp(t token.Type) {
	c.emit(c.top().fn, opcodeForOperator[t])
}

// lastAccessor describes the most recently emitted GET_ATTRIB/GET_SUBSCRIPT
// in a postfix chain, so that an assignment statement can rewrite it into
// the matching SET_* opcode in place instead of re-parsing the target.
type lastAccessor struct {
	kind    int // 0 none, 1 attrib, 2 subscript
	offset  int // byte offset of the opcode itself
	nameIdx uint16
}

// parseUnary handles prefix operators and falls through to the postfix
// chain over a primary expression.
func (c *Compiler) parseUnary() error {
	fn := c.top().fn
	switch c.cur.Type {
	case token.MINUS:
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseUnary(); err != nil {
			return err
		}
		c.emit(fn, bytecode.NEGATIVE)
		return nil
	case token.BANG:
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseUnary(); err != nil {
			return err
		}
		c.emit(fn, bytecode.NOT)
		return nil
	case token.NOT:
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseUnary(); err != nil {
			return err
		}
		c.emit(fn, bytecode.NOT)
		return nil
	case token.TILDE:
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseUnary(); err != nil {
			return err
		}
		c.emit(fn, bytecode.BIT_NOT)
		return nil
	}
	return c.parsePostfix()
}

// parsePostfix parses a primary expression and any chain of attribute,
// subscript, call, and chain-call suffixes (§4.E precedence ladder: call,
// subscript, and attribute bind tighter than anything else).
func (c *Compiler) parsePostfix() error {
	_, err := c.parsePostfixChain()
	return err
}

// parsePostfixChain is parsePostfix but also reports the last GET_ATTRIB /
// GET_SUBSCRIPT it emitted, so an assignment statement can rewrite that
// final opcode into a store in place (see stmt.go exprOrAssignStatement).
func (c *Compiler) parsePostfixChain() (lastAccessor, error) {
	if err := c.parsePrimary(); err != nil {
		return lastAccessor{}, err
	}
	fn := c.top().fn
	var last lastAccessor
	for {
		switch c.cur.Type {
		case token.DOT:
			if err := c.advance(); err != nil {
				return lastAccessor{}, err
			}
			nameTok, err := c.expect(token.IDENT)
			if err != nil {
				return lastAccessor{}, err
			}
			idx := c.nameIndex(nameTok.Literal)
			off := c.emitU16(fn, bytecode.GET_ATTRIB, idx)
			last = lastAccessor{kind: 1, offset: off, nameIdx: idx}
		case token.LBRACKET:
			if err := c.advance(); err != nil {
				return lastAccessor{}, err
			}
			if err := c.parseExpression(precOr); err != nil {
				return lastAccessor{}, err
			}
			if _, err := c.expect(token.RBRACKET); err != nil {
				return lastAccessor{}, err
			}
			off := c.emit(fn, bytecode.GET_SUBSCRIPT)
			last = lastAccessor{kind: 2, offset: off}
		case token.LPAREN:
			argc, err := c.parseArgList()
			if err != nil {
				return lastAccessor{}, err
			}
			c.emitU8(fn, bytecode.CALL, byte(argc))
			last = lastAccessor{}
		case token.ARROW:
			// expr -> fn { a, b } (§4.E "Chain call").
			if err := c.advance(); err != nil {
				return lastAccessor{}, err
			}
			if err := c.parseUnary(); err != nil { // the callee
				return lastAccessor{}, err
			}
			c.emit(fn, bytecode.SWAP)
			extra := 0
			if c.check(token.LBRACE) {
				n, err := c.parseChainArgs()
				if err != nil {
					return lastAccessor{}, err
				}
				extra = n
			}
			c.emitU8(fn, bytecode.CALL, byte(1+extra))
			last = lastAccessor{}
		default:
			return last, nil
		}
	}
}

func (c *Compiler) parseArgList() (int, error) {
	if _, err := c.expect(token.LPAREN); err != nil {
		return 0, err
	}
	argc := 0
	for !c.check(token.RPAREN) {
		if err := c.parseExpression(precOr); err != nil {
			return 0, err
		}
		argc++
		if ok, err := c.match(token.COMMA); err != nil {
			return 0, err
		} else if !ok {
			break
		}
	}
	if _, err := c.expect(token.RPAREN); err != nil {
		return 0, err
	}
	return argc, nil
}

func (c *Compiler) parseChainArgs() (int, error) {
	if _, err := c.expect(token.LBRACE); err != nil {
		return 0, err
	}
	n := 0
	for !c.check(token.RBRACE) {
		if err := c.parseExpression(precOr); err != nil {
			return 0, err
		}
		n++
		if ok, err := c.match(token.COMMA); err != nil {
			return 0, err
		} else if !ok {
			break
		}
	}
	if _, err := c.expect(token.RBRACE); err != nil {
		return 0, err
	}
	return n, nil
}

func (c *Compiler) nameIndex(name string) uint16 {
	for i, n := range c.module.NamePool {
		if n == name {
			return uint16(i)
		}
	}
	c.module.NamePool = append(c.module.NamePool, name)
	return uint16(len(c.module.NamePool) - 1)
}

func (c *Compiler) parsePrimary() error {
	fn := c.top().fn
	switch c.cur.Type {
	case token.NULL:
		c.emit(fn, bytecode.PUSH_NULL)
		return c.advance()
	case token.TRUE:
		c.emit(fn, bytecode.PUSH_TRUE)
		return c.advance()
	case token.FALSE:
		c.emit(fn, bytecode.PUSH_FALSE)
		return c.advance()
	case token.INT, token.FLOAT:
		return c.parseNumber()
	case token.STRING:
		return c.parseString()
	case token.IDENT:
		return c.parseIdentOrAssign()
	case token.LPAREN:
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseExpression(precOr); err != nil {
			return err
		}
		_, err := c.expect(token.RPAREN)
		return err
	case token.LBRACKET:
		return c.parseListLiteral()
	case token.LBRACE:
		return c.parseMapLiteral()
	}
	return c.errorf("unexpected token %s", c.cur.Type)
}

func (c *Compiler) pushConstant(v value.Value) {
	idx := c.addConstant(v)
	c.emitU16(c.top().fn, bytecode.PUSH_CONSTANT, idx)
}

func (c *Compiler) parseListLiteral() error {
	fn := c.top().fn
	if _, err := c.expect(token.LBRACKET); err != nil {
		return err
	}
	c.emitU16(fn, bytecode.PUSH_LIST, 0)
	for !c.check(token.RBRACKET) {
		if err := c.parseExpression(precOr); err != nil {
			return err
		}
		c.emit(fn, bytecode.LIST_APPEND)
		if ok, err := c.match(token.COMMA); err != nil {
			return err
		} else if !ok {
			break
		}
	}
	_, err := c.expect(token.RBRACKET)
	return err
}

func (c *Compiler) parseMapLiteral() error {
	fn := c.top().fn
	if _, err := c.expect(token.LBRACE); err != nil {
		return err
	}
	c.emit(fn, bytecode.PUSH_MAP)
	for !c.check(token.RBRACE) {
		if err := c.parseExpression(precOr); err != nil {
			return err
		}
		if _, err := c.expect(token.COLON); err != nil {
			return err
		}
		if err := c.parseExpression(precOr); err != nil {
			return err
		}
		c.emit(fn, bytecode.MAP_INSERT)
		if ok, err := c.match(token.COMMA); err != nil {
			return err
		} else if !ok {
			break
		}
	}
	_, err := c.expect(token.RBRACE)
	return err
}
