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

package value

import (
	"fmt"
	"strings"
)

// Format implements String.format (§4.B): '$' substitutes the to_string
// rendering of the next argument, '@' substitutes the next argument's raw
// String bytes verbatim, any other byte is copied as-is. The result is a
// freshly allocated, freshly hashed String — calling Format twice with the
// same fmt and equal-by-value args yields byte-identical output (§8
// property 2).
func Format(h *Heap, fmt_ string, args []Value) (*String, error) {
	var sb strings.Builder
	argi := 0
	next := func() (Value, error) {
		if argi >= len(args) {
			return Value{}, fmt.Errorf("String.format: not enough arguments")
		}
		v := args[argi]
		argi++
		return v, nil
	}

	for i := 0; i < len(fmt_); i++ {
		c := fmt_[i]
		switch c {
		case '$':
			v, err := next()
			if err != nil {
				return nil, err
			}
			sb.WriteString(ToString(h, v, false))
		case '@':
			v, err := next()
			if err != nil {
				return nil, err
			}
			if !v.IsObj() {
				return nil, fmt.Errorf("String.format: '@' requires a String argument")
			}
			s, ok := v.AsObj(h).(*String)
			if !ok {
				return nil, fmt.Errorf("String.format: '@' requires a String argument")
			}
			sb.Write(s.Bytes)
		default:
			sb.WriteByte(c)
		}
	}
	return NewString(h, []byte(sb.String())), nil
}
