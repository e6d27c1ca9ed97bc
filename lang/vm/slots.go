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

import (
	"fmt"

	"github.com/pocketlang/pocketlang/lang/value"
)

// Slots is the fixed window a native call sees on its fiber's stack (§4.J
// "Slots"): slot 0 is the return value (and, before the native runs, the
// callee/self value), slots 1..argc are arguments. It satisfies
// value.NativeVM (the narrow interface value.Function.Native is declared
// against, to avoid lang/value importing lang/vm) plus the richer surface
// native Go code and lang/api actually need.
type Slots struct {
	VM    *VM
	Fiber *value.Fiber
	Base  int // fiber.Stack index of slot 0
	Argc  int
}

func (s *Slots) SlotCount() int { return s.Argc + 1 }

// Get reads slot i (0 == self/return, 1..argc == arguments).
func (s *Slots) Get(i int) value.Value { return s.Fiber.Stack[s.Base+i] }

// Set writes slot i.
func (s *Slots) Set(i int, v value.Value) { s.Fiber.Stack[s.Base+i] = v }

// Reserve grows the fiber's stack, if needed, so slots 0..n-1 are valid
// (§4.J "the host may reserve_slots(n) to enlarge it").
func (s *Slots) Reserve(n int) {
	needed := s.Base + n
	if needed <= len(s.Fiber.Stack) {
		return
	}
	grown := make([]value.Value, needed*2)
	copy(grown, s.Fiber.Stack)
	for i := len(s.Fiber.Stack); i < len(grown); i++ {
		grown[i] = value.Null()
	}
	s.Fiber.Stack = grown
}

// Errorf builds a runtime error the way a native returns one: by value,
// not by panicking (§4.J "A native sets a runtime error by writing a
// string into a known slot; the executor picks it up on return").
func (s *Slots) Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
