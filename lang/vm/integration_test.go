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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketlang/pocketlang/lang/value"
)

// runScript compiles and runs src to completion on a fresh VM, returning
// everything it printed and its final expression result.
func runScript(t *testing.T, src string) (string, value.Value) {
	t.Helper()
	var out strings.Builder
	cfg := DefaultConfig()
	cfg.Write = func(s string) { out.WriteString(s) }
	m := New(cfg)

	mod, err := m.Compile("<test>", src)
	require.NoError(t, err)

	fiber := value.NewFiber(m.Heap, mod.Body, 256)
	result, err := m.Run(fiber, nil)
	require.NoError(t, err)
	return out.String(), result
}

func TestArithmeticAndControlFlow(t *testing.T) {
	out, _ := runScript(t, `
total = 0
i = 0
while i < 5 do
  total = total + i
  i = i + 1
end
print(total)
`)
	assert.Equal(t, "10\n", out)
}

func TestIfElsif(t *testing.T) {
	src := `
def classify(n)
  if n < 0 then
    return "negative"
  elsif n == 0 then
    return "zero"
  else
    return "positive"
  end
end
print(classify(-5))
print(classify(0))
print(classify(5))
`
	out, _ := runScript(t, src)
	assert.Equal(t, "negative\nzero\npositive\n", out)
}

func TestForInOverList(t *testing.T) {
	src := `
def sum_list(xs)
  total = 0
  for x in xs do
    total = total + x
  end
  return total
end
print(sum_list([1, 2, 3, 4]))
`
	out, _ := runScript(t, src)
	assert.Equal(t, "10\n", out)
}

func TestFunctionValuesAsArguments(t *testing.T) {
	src := `
def apply(fn, x)
  return fn(x)
end
def double(x)
  return x * 2
end
print(apply(double, 21))
`
	out, _ := runScript(t, src)
	assert.Equal(t, "42\n", out)
}

func TestClassAndBoundMethod(t *testing.T) {
	src := `
class Point
  x
  y
  def total(self)
    return self.x + self.y
  end
end
p = Point(3, 4)
print(p.total())
print(p.x)
`
	out, _ := runScript(t, src)
	assert.Equal(t, "7\n3\n", out)
}

func TestFiberYieldResume(t *testing.T) {
	src := `
def counter(n)
  i = 0
  while i < n do
    yield(i)
    i = i + 1
  end
  return n
end
f = Fiber(counter)
print(run_or_resume(f, 3))
print(run_or_resume(f))
print(run_or_resume(f))
print(run_or_resume(f))
print(is_done(f))
`
	out, _ := runScript(t, src)
	assert.Equal(t, "0\n1\n2\n3\ntrue\n", out)
}

func TestMapInsertAndSubscript(t *testing.T) {
	src := `
m = {}
m["a"] = 1
m["b"] = 2
print(m["a"] + m["b"])
`
	out, _ := runScript(t, src)
	assert.Equal(t, "3\n", out)
}

func TestRuntimeErrorUnwindsWithStacktrace(t *testing.T) {
	cfg := DefaultConfig()
	m := New(cfg)
	mod, err := m.Compile("<test>", `
def boom()
  return 1 / 0
end
boom()
`)
	require.NoError(t, err)

	fiber := value.NewFiber(m.Heap, mod.Body, 256)
	_, err = m.Run(fiber, nil)
	require.Error(t, err)
	re, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.NotEmpty(t, re.Frames)
	assert.Equal(t, value.FiberError, fiber.State)
}
