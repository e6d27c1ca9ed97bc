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

package vm

import "github.com/pocketlang/pocketlang/lang/value"

// push/pop/top operate on a Fiber's value stack, growing the backing
// array on demand (doubling, §9 "amortised O(1) append, growth by
// doubling") rather than pre-sizing it: a fiber's stack_size constructor
// argument is only a starting capacity.
func push(f *value.Fiber, v value.Value) {
	if f.SP >= len(f.Stack) {
		grown := make([]value.Value, len(f.Stack)*2+8)
		copy(grown, f.Stack)
		f.Stack = grown
	}
	f.Stack[f.SP] = v
	f.SP++
}

func pop(f *value.Fiber) value.Value {
	f.SP--
	return f.Stack[f.SP]
}

func top(f *value.Fiber) value.Value { return f.Stack[f.SP-1] }

func isTruthy(v value.Value) bool {
	if v.IsNull() || v.IsUndefined() {
		return false
	}
	if v.IsBool() {
		return v.AsBool()
	}
	return true
}
