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

package bytecode

import (
	"encoding/binary"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// Disassemble renders code as a table of (offset, opcode, operand, stack
// effect) rows. Grounded on the host compiler's register-VM disassembler;
// adapted here to the stack-based, variable-width encoding of §4.F.
func Disassemble(w io.Writer, name string, code []byte) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"offset", "op", "operand", "Δsp"})
	table.SetAutoWrapText(false)

	for ip := 0; ip < len(code); {
		op := Op(code[ip])
		width := op.OperandWidth()
		operand := ""
		if width == 1 && ip+1 < len(code) {
			operand = strconv.Itoa(int(code[ip+1]))
		} else if width == 2 && ip+2 < len(code) {
			operand = strconv.Itoa(int(binary.BigEndian.Uint16(code[ip+1 : ip+3])))
		}
		table.Append([]string{
			strconv.Itoa(ip),
			op.String(),
			operand,
			strconv.Itoa(op.StackEffect()),
		})
		ip += 1 + width
	}
	if name != "" {
		io.WriteString(w, name+":\n")
	}
	table.Render()
}

// PutU16 / GetU16 encode/decode a big-endian 2-byte operand (§4.G
// "Operands are read big-endian").
func PutU16(buf []byte, v uint16) { binary.BigEndian.PutUint16(buf, v) }
func GetU16(buf []byte) uint16    { return binary.BigEndian.Uint16(buf) }
