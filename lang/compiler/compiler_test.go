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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketlang/pocketlang/lang/value"
)

func TestCompileProducesModuleBody(t *testing.T) {
	heap := value.NewHeap()
	mod, err := Compile(heap, "<test>", `
def add(a, b)
  return a + b
end
print(add(1, 2))
`, false)
	require.NoError(t, err)
	require.NotNil(t, mod.Body)
	assert.Len(t, mod.Functions, 2) // @main + add
}

func TestCompileReportsHardErrorWithLine(t *testing.T) {
	heap := value.NewHeap()
	_, err := Compile(heap, "<test>", "x = )\n", false)
	require.Error(t, err)
	ce, ok := err.(*CompileError)
	require.True(t, ok)
	assert.False(t, ce.UnexpectedEOF)
	assert.Equal(t, 1, ce.Line)
}

func TestReplModeReportsUnexpectedEOFOnUnterminatedString(t *testing.T) {
	heap := value.NewHeap()
	_, err := Compile(heap, "<repl>", `x = "unterminated`, true)
	require.Error(t, err)
	ce, ok := err.(*CompileError)
	require.True(t, ok)
	assert.True(t, ce.UnexpectedEOF)
}

func TestNonReplModeReportsHardErrorOnUnterminatedString(t *testing.T) {
	heap := value.NewHeap()
	_, err := Compile(heap, "<test>", `x = "unterminated`, false)
	require.Error(t, err)
	ce, ok := err.(*CompileError)
	require.True(t, ok)
	assert.False(t, ce.UnexpectedEOF)
}
