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
	"strings"
)

// StackFrame is one entry of a RuntimeError's stacktrace: the module path
// and source line active in a frame at the moment the error fired (§4.G
// "recording a stacktrace: module path + line from each frame's
// oplines[ip-opcodes.base]").
type StackFrame struct {
	Path string
	Func string
	Line int
}

// RuntimeError is delivered to the host as one RUNTIME error_fn callback
// followed by one STACKTRACE callback per frame (§7.2).
type RuntimeError struct {
	Message string
	Frames  []StackFrame
}

func (e *RuntimeError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)
	for _, f := range e.Frames {
		fmt.Fprintf(&sb, "\n  at %s:%d in %s", f.Path, f.Line, f.Func)
	}
	return sb.String()
}

// CompileError mirrors compiler.CompileError's shape at the VM boundary,
// so callers (cmd/pocketlang) have one error type per §7.1's three kinds.
type CompileError struct {
	Path          string
	Line          int
	Message       string
	UnexpectedEOF bool
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}
