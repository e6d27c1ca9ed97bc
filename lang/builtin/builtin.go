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

// Package builtin is the shared name table between the compiler (which
// must resolve a bare call like print(...) to a PUSH_BUILTIN_FN index
// rather than an undefined global) and the executor (which dispatches that
// index to a Go implementation). Keeping one indexed table in its own leaf
// package avoids compiler <-> vm import cycles (§4.G "PUSH_BUILTIN_FN").
package builtin

// Names is the fixed, index-stable table of builtin function names. Arity
// -1 means variadic. Index order is part of the compiled-bytecode contract
// for a single compile/run pair within one process; it is not a stable
// on-disk format (§4.F "implementations are free to re-number").
var Names = []string{
	"print",
	"to_string",
	"type_name",
	"len",
	"Fiber",
	"run_or_resume",
	"yield",
	"assert",
	"input",
	"is_done",
}

// Arity mirrors Names; -1 is variadic.
var Arity = []int{
	-1, // print
	1,  // to_string
	1,  // type_name
	1,  // len
	1,  // Fiber
	-1, // run_or_resume(fiber, [value])
	-1, // yield([value])
	-1, // assert(cond, [message])
	0,  // input
	1,  // is_done(fiber)
}

// Index returns the builtin's slot, or -1 if name isn't one.
func Index(name string) int {
	for i, n := range Names {
		if n == name {
			return i
		}
	}
	return -1
}
