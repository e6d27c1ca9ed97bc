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

// Package assert implements §7.3's "contract violations... abort in debug,
// undefined in release" policy: a host-internal invariant check (a stack
// slot that must be a given type, an opcode's decoded stack effect that
// must match its static table entry, a fiber that must not already be
// running) that can never be triggered by a well-formed script. In debug
// builds (-tags pocket_debug) a failed check panics with a captured Go
// call stack attached; in release builds it is a silent no-op, per the
// spec's "undefined in release" wording — matching the teacher's own
// verify.go pass, which exists purely to catch bytecode-verifier bugs
// before they reach production.
package assert

// Violation is the panic value a failed debug-mode check raises. Stack is
// the Go call stack (not the script stack) at the point of failure,
// captured with github.com/go-stack/stack so the panic reports where in
// the host's Go code the invariant broke, not just the script line that
// triggered it. Nothing in the VM recovers the panic.
type Violation struct {
	Message string
	Stack   string
}

func (v *Violation) Error() string { return v.Message + "\n" + v.Stack }
