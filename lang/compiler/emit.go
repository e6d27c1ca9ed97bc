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
	"github.com/pocketlang/pocketlang/lang/value"
)

// emit appends op's byte to fn's opcode buffer and records the current
// source line in the parallel oplines buffer, one entry per emitted byte
// (§4.E).
func (c *Compiler) emit(fn *value.Function, op bytecode.Op) int {
	offset := len(fn.Opcodes)
	fn.Opcodes = append(fn.Opcodes, byte(op))
	fn.OpLines = append(fn.OpLines, uint32(c.cur.Pos.Line))
	return offset
}

func (c *Compiler) emitU8(fn *value.Function, op bytecode.Op, operand byte) int {
	offset := c.emit(fn, op)
	fn.Opcodes = append(fn.Opcodes, operand)
	fn.OpLines = append(fn.OpLines, uint32(c.cur.Pos.Line))
	return offset
}

func (c *Compiler) emitU16(fn *value.Function, op bytecode.Op, operand uint16) int {
	offset := c.emit(fn, op)
	buf := [2]byte{}
	bytecode.PutU16(buf[:], operand)
	fn.Opcodes = append(fn.Opcodes, buf[0], buf[1])
	fn.OpLines = append(fn.OpLines, uint32(c.cur.Pos.Line), uint32(c.cur.Pos.Line))
	return offset
}

// emitJump emits a 2-byte-operand jump opcode with a placeholder target
// and returns the offset of that operand, to be fixed up by patchJump
// once the destination is known.
func (c *Compiler) emitJump(fn *value.Function, op bytecode.Op) int {
	c.emit(fn, op)
	operandOffset := len(fn.Opcodes)
	fn.Opcodes = append(fn.Opcodes, 0, 0)
	fn.OpLines = append(fn.OpLines, uint32(c.cur.Pos.Line), uint32(c.cur.Pos.Line))
	return operandOffset
}

// patchJump writes the current end of fn's opcode buffer as the jump
// target at operandOffset.
func (c *Compiler) patchJump(fn *value.Function, operandOffset int) {
	bytecode.PutU16(fn.Opcodes[operandOffset:operandOffset+2], uint16(len(fn.Opcodes)))
}

// patchJumpTo writes an explicit absolute target (used by LOOP, which
// jumps backward to a previously recorded offset).
func (c *Compiler) patchJumpTo(fn *value.Function, operandOffset, target int) {
	bytecode.PutU16(fn.Opcodes[operandOffset:operandOffset+2], uint16(target))
}

func (c *Compiler) addConstant(v value.Value) uint16 {
	c.module.Literals = append(c.module.Literals, v)
	return uint16(len(c.module.Literals) - 1)
}
