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

//go:build pocket_debug

package assert

import (
	"fmt"

	"github.com/go-stack/stack"
)

// Debug is true when the pocket_debug build tag is set (§7.3 "abort in
// debug").
const Debug = true

// That panics with a *Violation if cond is false, capturing the Go call
// stack from That downward (Go runtime frames trimmed, That's own frame
// kept at the top) so the panic points at the invariant that broke.
func That(cond bool, format string, args ...interface{}) {
	if cond {
		return
	}
	panic(&Violation{
		Message: fmt.Sprintf(format, args...),
		Stack:   fmt.Sprintf("%+v", stack.Trace().TrimRuntime()),
	})
}
