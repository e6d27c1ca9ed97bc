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

// doImport implements IMPORT (§4.I). A name matching a host-registered
// core library (lang/api.RegisterClass's spec.Module, or any module the
// embedder added to vm.CoreLibs directly) takes priority over a
// file-backed module of the same name. Otherwise name resolves relative
// to owner's path through the module loader (which handles caching,
// singleflight de-duplication, rate limiting and cycle detection), then
// the result is rooted in vm.Scripts so the GC keeps it alive independent
// of who still references it directly.
func (vm *VM) doImport(f *value.Fiber, owner *value.Module, name string) (*value.Module, error) {
	if core, ok := vm.CoreLibs[name]; ok {
		return core, nil
	}
	mod, err := vm.loader.Load(string(owner.Path.Bytes), name)
	if err != nil {
		return nil, vm.runtimeErrorAt(f, "%s", err.Error())
	}
	vm.Scripts[string(mod.Path.Bytes)] = mod
	return mod, nil
}
