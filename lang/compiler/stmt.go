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

var assignOps = map[token.Type]bytecode.Op{
	token.PLUSEQ: bytecode.ADD, token.MINUSEQ: bytecode.SUB,
	token.STAREQ: bytecode.MUL, token.SLASHEQ: bytecode.DIV, token.PERCENTEQ: bytecode.MOD,
	token.AMPEQ: bytecode.BIT_AND, token.PIPEEQ: bytecode.BIT_OR, token.CARETEQ: bytecode.BIT_XOR,
	token.LTLTEQ: bytecode.LSHIFT, token.GTGTEQ: bytecode.RSHIFT,
}

func isAssignStart(t token.Type) bool {
	if t == token.ASSIGN {
		return true
	}
	_, ok := assignOps[t]
	return ok
}

// topLevelStatement parses and emits one statement at module scope.
func (c *Compiler) topLevelStatement() error { return c.statement() }

func (c *Compiler) statement() error {
	switch c.cur.Type {
	case token.MODULE:
		return c.moduleStatement()
	case token.IMPORT, token.FROM:
		return c.importStatement()
	case token.DEF:
		return c.defStatement()
	case token.CLASS:
		return c.classStatement()
	case token.IF:
		return c.ifStatement()
	case token.WHILE:
		return c.whileStatement()
	case token.FOR:
		return c.forStatement()
	case token.RETURN:
		return c.returnStatement()
	case token.BREAK:
		return c.breakStatement()
	case token.CONTINUE:
		return c.continueStatement()
	default:
		return c.exprOrAssignStatement()
	}
}

// block parses statements until the current token matches one of until,
// recovering from per-statement compile errors so a single bad line
// doesn't abort the whole block (mirrors Compile's top-level recovery).
func (c *Compiler) block(until ...token.Type) error {
	for {
		c.skipNewlines()
		if c.check(token.EOF) || c.atAny(until...) {
			return nil
		}
		if err := c.statement(); err != nil {
			if ce, ok := err.(*CompileError); ok {
				c.errs = append(c.errs, ce)
				if ce.UnexpectedEOF {
					return ce
				}
				c.syncToNewline()
				continue
			}
			return err
		}
		c.skipNewlines()
	}
}

func (c *Compiler) atAny(types ...token.Type) bool {
	for _, t := range types {
		if c.cur.Type == t {
			return true
		}
	}
	return false
}

// emitLoopBack emits a LOOP instruction with an explicit backward target,
// the one jump form whose destination is already known at emission time.
func (c *Compiler) emitLoopBack(fn *value.Function, target int) {
	c.emit(fn, bytecode.LOOP)
	operandOffset := len(fn.Opcodes)
	fn.Opcodes = append(fn.Opcodes, 0, 0)
	fn.OpLines = append(fn.OpLines, uint32(c.cur.Pos.Line), uint32(c.cur.Pos.Line))
	c.patchJumpTo(fn, operandOffset, target)
}

func (c *Compiler) truncateTo(fn *value.Function, offset int) {
	fn.Opcodes = fn.Opcodes[:offset]
	fn.OpLines = fn.OpLines[:offset]
}

// --- if / elsif / else ---

func (c *Compiler) ifStatement() error {
	fn := c.top().fn
	if err := c.advance(); err != nil { // 'if'
		return err
	}
	if err := c.parseExpression(precOr); err != nil {
		return err
	}
	if _, err := c.expect(token.THEN); err != nil {
		return err
	}
	elseJump := c.emitJump(fn, bytecode.JUMP_IF_NOT)

	c.beginScope()
	if err := c.block(token.ELSIF, token.ELSE, token.END); err != nil {
		return err
	}
	c.endScope()

	var endJumps []int
	for c.check(token.ELSIF) {
		endJumps = append(endJumps, c.emitJump(fn, bytecode.JUMP))
		c.patchJump(fn, elseJump)
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.parseExpression(precOr); err != nil {
			return err
		}
		if _, err := c.expect(token.THEN); err != nil {
			return err
		}
		elseJump = c.emitJump(fn, bytecode.JUMP_IF_NOT)
		c.beginScope()
		if err := c.block(token.ELSIF, token.ELSE, token.END); err != nil {
			return err
		}
		c.endScope()
	}

	if c.check(token.ELSE) {
		endJumps = append(endJumps, c.emitJump(fn, bytecode.JUMP))
		c.patchJump(fn, elseJump)
		if err := c.advance(); err != nil {
			return err
		}
		c.beginScope()
		if err := c.block(token.END); err != nil {
			return err
		}
		c.endScope()
	} else {
		c.patchJump(fn, elseJump)
	}

	if _, err := c.expect(token.END); err != nil {
		return err
	}
	for _, j := range endJumps {
		c.patchJump(fn, j)
	}
	return nil
}

// --- while ---

func (c *Compiler) whileStatement() error {
	fn := c.top().fn
	if err := c.advance(); err != nil { // 'while'
		return err
	}
	loopStart := len(fn.Opcodes)
	if err := c.parseExpression(precOr); err != nil {
		return err
	}
	if _, err := c.expect(token.DO); err != nil {
		return err
	}
	exitJump := c.emitJump(fn, bytecode.JUMP_IF_NOT)

	fs := c.top()
	fs.loops = append(fs.loops, loopCtx{continueTarget: loopStart})
	c.beginScope()
	if err := c.block(token.END); err != nil {
		return err
	}
	c.endScope()
	c.emitLoopBack(fn, loopStart)
	c.patchJump(fn, exitJump)

	idx := len(fs.loops) - 1
	for _, b := range fs.loops[idx].breakJumps {
		c.patchJump(fn, b)
	}
	fs.loops = fs.loops[:idx]

	_, err := c.expect(token.END)
	return err
}

// --- for-in ---
//
// `for x in seq do ... end` lowers to two hidden locals (the sequence and
// opaque iterator state) plus the loop variable, driven by ITER_TEST (are
// there more elements, and what's the next iterator state) and ITER (the
// element at the current state) (§4.H).
func (c *Compiler) forStatement() error {
	fn := c.top().fn
	if err := c.advance(); err != nil { // 'for'
		return err
	}
	varTok, err := c.expect(token.IDENT)
	if err != nil {
		return err
	}
	if _, err := c.expect(token.IN); err != nil {
		return err
	}

	c.beginScope()
	line := c.cur.Pos.Line
	if err := c.parseExpression(precOr); err != nil { // sequence
		return err
	}
	seqSlot := c.declareLocal("@seq", line)
	c.emit(fn, bytecode.PUSH_NULL)
	iterSlot := c.declareLocal("@iter", line)

	if _, err := c.expect(token.DO); err != nil {
		return err
	}

	loopStart := len(fn.Opcodes)
	c.emitLoadLocal(fn, seqSlot)
	c.emitLoadLocal(fn, iterSlot)
	c.emit(fn, bytecode.ITER_TEST)
	c.emitStoreLocal(fn, iterSlot)
	exitJump := c.emitJump(fn, bytecode.JUMP_IF_NOT)

	c.emitLoadLocal(fn, seqSlot)
	c.emitLoadLocal(fn, iterSlot)
	c.emit(fn, bytecode.ITER)
	varSlot := c.declareLocal(varTok.Literal, varTok.Pos.Line)
	_ = varSlot // the ITER result is the loop var's slot value directly

	fs := c.top()
	fs.loops = append(fs.loops, loopCtx{continueTarget: loopStart})
	c.beginScope()
	if err := c.block(token.END); err != nil {
		return err
	}
	c.endScope()

	// Drop the loop-var binding (it's re-pushed fresh by ITER each pass).
	fs.locals = fs.locals[:len(fs.locals)-1]
	c.emit(fn, bytecode.POP)

	c.emitLoopBack(fn, loopStart)
	c.patchJump(fn, exitJump)

	idx := len(fs.loops) - 1
	for _, b := range fs.loops[idx].breakJumps {
		c.patchJump(fn, b)
	}
	fs.loops = fs.loops[:idx]

	if _, err := c.expect(token.END); err != nil {
		return err
	}
	c.endScope() // pops @seq and @iter
	return nil
}

// --- def ---

func (c *Compiler) defStatement() error {
	if err := c.advance(); err != nil { // 'def'
		return err
	}
	nameTok, err := c.expect(token.IDENT)
	if err != nil {
		return err
	}
	return c.compileFunctionBody(nameTok.Literal, nameTok.Literal)
}

// compileFunctionBody parses `(params) ... end` and registers the result
// as fn.Name == registerAs in the module's function table.
func (c *Compiler) compileFunctionBody(name, registerAs string) error {
	if _, err := c.expect(token.LPAREN); err != nil {
		return err
	}
	var params []token.Token
	for !c.check(token.RPAREN) {
		p, err := c.expect(token.IDENT)
		if err != nil {
			return err
		}
		params = append(params, p)
		if ok, err := c.match(token.COMMA); err != nil {
			return err
		} else if !ok {
			break
		}
	}
	if _, err := c.expect(token.RPAREN); err != nil {
		return err
	}

	fn := value.NewFunction(c.heap, c.module, registerAs, len(params))
	c.module.Functions = append(c.module.Functions, fn)

	c.fstack = append(c.fstack, &funcState{fn: fn, scopeDepth: 0})
	for _, p := range params {
		c.declareLocal(p.Literal, p.Pos.Line)
	}

	if err := c.block(token.END); err != nil {
		c.fstack = c.fstack[:len(c.fstack)-1]
		return err
	}
	c.emit(fn, bytecode.PUSH_NULL)
	c.emit(fn, bytecode.RETURN)
	c.fstack = c.fstack[:len(c.fstack)-1]

	_, err := c.expect(token.END)
	return err
}

// --- class ---

func (c *Compiler) classIndex(cls *value.Class) uint16 {
	for i, k := range c.module.Classes {
		if k == cls {
			return uint16(i)
		}
	}
	c.module.Classes = append(c.module.Classes, cls)
	return uint16(len(c.module.Classes) - 1)
}

func (c *Compiler) findClassByName(name string) *value.Class {
	for _, k := range c.module.Classes {
		if k.Name == name {
			return k
		}
	}
	return nil
}

func (c *Compiler) classStatement() error {
	if err := c.advance(); err != nil { // 'class'
		return err
	}
	nameTok, err := c.expect(token.IDENT)
	if err != nil {
		return err
	}
	var base *value.Class
	if ok, err := c.match(token.COLON); err != nil {
		return err
	} else if ok {
		baseTok, err := c.expect(token.IDENT)
		if err != nil {
			return err
		}
		base = c.findClassByName(baseTok.Literal)
		if base == nil {
			return c.errorf("base class '%s' is not defined", baseTok.Literal)
		}
	}

	cls := value.NewClass(c.heap, c.module, nameTok.Literal, base)
	c.classIndex(cls)

	for {
		c.skipNewlines()
		if c.check(token.END) || c.check(token.EOF) {
			break
		}
		if c.check(token.DEF) {
			if err := c.advance(); err != nil {
				return err
			}
			methodTok, err := c.expect(token.IDENT)
			if err != nil {
				return err
			}
			if err := c.compileFunctionBody(methodTok.Literal, methodTok.Literal); err != nil {
				return err
			}
			cls.Methods[methodTok.Literal] = c.module.Functions[len(c.module.Functions)-1]
			continue
		}
		fieldTok, err := c.expect(token.IDENT)
		if err != nil {
			return err
		}
		cls.FieldNames = append(cls.FieldNames, fieldTok.Literal)
		c.skipNewlines()
	}
	if _, err := c.expect(token.END); err != nil {
		return err
	}

	// Synthesize the constructor: new(field0, field1, ...) builds and
	// returns an instance with fields set positionally (§4.E "class
	// declarations ... synthesized constructor").
	ctor := value.NewFunction(c.heap, c.module, nameTok.Literal, len(cls.FieldNames))
	c.module.Functions = append(c.module.Functions, ctor)
	c.fstack = append(c.fstack, &funcState{fn: ctor, scopeDepth: 0})
	for _, f := range cls.FieldNames {
		c.declareLocal(f, nameTok.Pos.Line)
	}
	c.emitU8(ctor, bytecode.PUSH_INSTANCE, byte(c.classIndex(cls)))
	for i := range cls.FieldNames {
		c.emitLoadLocal(ctor, i)
		c.emit(ctor, bytecode.INST_APPEND)
	}
	c.emit(ctor, bytecode.RETURN)
	c.fstack = c.fstack[:len(c.fstack)-1]
	cls.Ctor = ctor

	return nil
}

// --- return / break / continue ---

func (c *Compiler) returnStatement() error {
	fn := c.top().fn
	if err := c.advance(); err != nil {
		return err
	}
	if c.check(token.NEWLINE) || c.check(token.EOF) || c.atAny(token.END, token.ELSE, token.ELSIF) {
		c.emit(fn, bytecode.PUSH_NULL)
	} else if err := c.parseExpression(precOr); err != nil {
		return err
	}
	c.emit(fn, bytecode.RETURN)
	return nil
}

func (c *Compiler) breakStatement() error {
	fs := c.top()
	if len(fs.loops) == 0 {
		return c.errorf("'break' outside a loop")
	}
	if err := c.advance(); err != nil {
		return err
	}
	j := c.emitJump(fs.fn, bytecode.JUMP)
	idx := len(fs.loops) - 1
	fs.loops[idx].breakJumps = append(fs.loops[idx].breakJumps, j)
	return nil
}

func (c *Compiler) continueStatement() error {
	fs := c.top()
	if len(fs.loops) == 0 {
		return c.errorf("'continue' outside a loop")
	}
	if err := c.advance(); err != nil {
		return err
	}
	c.emitLoopBack(fs.fn, fs.loops[len(fs.loops)-1].continueTarget)
	return nil
}

// --- module / import ---

func (c *Compiler) moduleStatement() error {
	if err := c.advance(); err != nil {
		return err
	}
	nameTok, err := c.expect(token.IDENT)
	if err != nil {
		return err
	}
	c.module.Name = value.NewString(c.heap, []byte(nameTok.Literal))
	return nil
}

func (c *Compiler) importStatement() error {
	fn := c.top().fn
	if c.check(token.FROM) {
		if err := c.advance(); err != nil {
			return err
		}
		modTok, err := c.expect(token.IDENT)
		if err != nil {
			return err
		}
		if _, err := c.expect(token.IMPORT); err != nil {
			return err
		}
		idx := c.nameIndex(modTok.Literal)
		c.emitU16(fn, bytecode.IMPORT, idx)

		for {
			nameTok, err := c.expect(token.IDENT)
			if err != nil {
				return err
			}
			asName := nameTok.Literal
			if ok, err := c.match(token.AS); err != nil {
				return err
			} else if ok {
				asTok, err := c.expect(token.IDENT)
				if err != nil {
					return err
				}
				asName = asTok.Literal
			}
			attrIdx := c.nameIndex(nameTok.Literal)
			c.emitU16(fn, bytecode.GET_ATTRIB_KEEP, attrIdx)
			c.storeName(asName)
			if ok, err := c.match(token.COMMA); err != nil {
				return err
			} else if !ok {
				break
			}
		}
		c.emit(fn, bytecode.POP)
		return nil
	}

	if err := c.advance(); err != nil { // 'import'
		return err
	}
	modTok, err := c.expect(token.IDENT)
	if err != nil {
		return err
	}
	idx := c.nameIndex(modTok.Literal)
	c.emitU16(fn, bytecode.IMPORT, idx)
	asName := modTok.Literal
	if ok, err := c.match(token.AS); err != nil {
		return err
	} else if ok {
		asTok, err := c.expect(token.IDENT)
		if err != nil {
			return err
		}
		asName = asTok.Literal
	}
	c.storeName(asName)
	return nil
}

// --- expression statement / assignment ---

func (c *Compiler) exprOrAssignStatement() error {
	if c.check(token.IDENT) && isAssignStart(c.peek.Type) {
		name := c.cur.Literal
		line := c.cur.Pos.Line
		if err := c.advance(); err != nil { // consume the identifier
			return err
		}
		return c.simpleAssign(name, line)
	}

	last, err := c.parseExpressionTop()
	if err != nil {
		return err
	}
	if last.kind != 0 && isAssignStart(c.cur.Type) {
		return c.finishChainAssign(last)
	}

	fn := c.top().fn
	if c.ReplMode && c.top().scopeDepth == DepthScript {
		c.emit(fn, bytecode.REPL_PRINT)
	} else {
		c.emit(fn, bytecode.POP)
	}
	return nil
}

func (c *Compiler) simpleAssign(name string, line int) error {
	fn := c.top().fn
	op := c.cur.Type
	compound := op != token.ASSIGN
	if err := c.advance(); err != nil { // consume '=' / 'OP='
		return err
	}

	slot, isLocal := c.resolveLocal(name)
	if compound {
		c.loadName(name, line)
	}
	if err := c.parseExpression(precOr); err != nil {
		return err
	}
	if compound {
		baseOp, ok := assignOps[op]
		if !ok {
			return c.errorf("invalid compound assignment operator")
		}
		c.emit(fn, baseOp)
	}

	if isLocal {
		c.emitStoreLocal(fn, slot)
		return nil
	}
	if c.inBlockScope() {
		c.declareLocal(name, line)
		return nil
	}
	c.storeName(name)
	return nil
}

// finishChainAssign rewrites the just-emitted GET_ATTRIB/GET_SUBSCRIPT
// (recorded in last) into the matching store, once the statement-level
// parser has discovered an assignment operator immediately following it.
func (c *Compiler) finishChainAssign(last lastAccessor) error {
	fn := c.top().fn
	op := c.cur.Type
	compound := op != token.ASSIGN
	if err := c.advance(); err != nil { // consume '=' / 'OP='
		return err
	}

	if compound {
		if last.kind == 1 {
			fn.Opcodes[last.offset] = byte(bytecode.GET_ATTRIB_KEEP)
		} else {
			fn.Opcodes[last.offset] = byte(bytecode.GET_SUBSCRIPT_KEEP)
		}
		if err := c.parseExpression(precOr); err != nil {
			return err
		}
		baseOp, ok := assignOps[op]
		if !ok {
			return c.errorf("invalid compound assignment operator")
		}
		c.emit(fn, baseOp)
	} else {
		c.truncateTo(fn, last.offset)
		if err := c.parseExpression(precOr); err != nil {
			return err
		}
	}

	if last.kind == 1 {
		c.emitU16(fn, bytecode.SET_ATTRIB, last.nameIdx)
	} else {
		c.emit(fn, bytecode.SET_SUBSCRIPT)
	}
	return nil
}
