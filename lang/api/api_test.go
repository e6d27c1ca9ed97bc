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

package api

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketlang/pocketlang/lang/value"
	"github.com/pocketlang/pocketlang/lang/vm"
)

// newCoreLib registers a "core" module the VM's import resolution serves
// ahead of any file-backed module of the same name (§4.I), the same way a
// host embeds a native standard library.
func newCoreLib(m *vm.VM) *value.Module {
	path := value.NewString(m.Heap, []byte("core"))
	mod := value.NewModule(m.Heap, path)
	m.CoreLibs["core"] = mod
	return mod
}

func TestRegisterClassConstructAndCallMethod(t *testing.T) {
	var out strings.Builder
	cfg := vm.DefaultConfig()
	cfg.Write = func(s string) { out.WriteString(s) }
	m := vm.New(cfg)
	core := newCoreLib(m)

	RegisterClass(m, ClassSpec{
		Name:   "Counter",
		Module: core,
		NewFn:  func() interface{} { n := 0; return &n },
		Methods: []Method{
			{Name: "inc", Arity: 0, Fn: func(s *vm.Slots) error {
				inst := s.Get(1).AsObj(m.Heap).(*value.Instance)
				n := inst.UserData.(*int)
				*n++
				s.Set(0, value.Num(float64(*n)))
				return nil
			}},
		},
	})

	mod, err := m.Compile("<test>", `
import core
c = core.Counter()
print(c.inc())
print(c.inc())
print(c.inc())
`)
	require.NoError(t, err)

	fiber := value.NewFiber(m.Heap, mod.Body, 256)
	_, err = m.Run(fiber, nil)
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n3\n", out.String())
}

func TestHandlesPinAcrossGC(t *testing.T) {
	cfg := vm.DefaultConfig()
	m := vm.New(cfg)
	handles := NewHandles(m)

	s := value.NewString(m.Heap, []byte("pinned"))
	h := handles.New(value.ObjVal(m.Heap, s))

	m.CollectGarbage()

	got, ok := h.Value.AsObj(m.Heap).(*value.String)
	require.True(t, ok)
	assert.Equal(t, "pinned", string(got.Bytes))

	handles.Release(h)
}
