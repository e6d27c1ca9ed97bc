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

// getAttrib implements GET_ATTRIB/GET_ATTRIB_KEEP. A script instance's
// own field wins over its class's methods; an unresolved name on a
// method is handed back as a BoundMethod so a following CALL has both
// the function and its receiver (§4.G).
func (vm *VM) getAttrib(f *value.Fiber, obj value.Value, name string) (value.Value, error) {
	if !obj.IsObj() {
		return value.Null(), vm.runtimeErrorAt(f, "cannot read attribute '%s' of a non-object value", name)
	}
	switch t := obj.AsObj(vm.Heap).(type) {
	case *value.Instance:
		if t.Type != nil {
			for i, fld := range t.Type.FieldNames {
				if fld == name {
					return t.Fields[i], nil
				}
			}
			if m := findMethod(t.Type, name); m != nil {
				return value.ObjVal(vm.Heap, value.NewBoundMethod(vm.Heap, obj, m)), nil
			}
			return value.Null(), vm.runtimeErrorAt(f, "'%s' has no attribute '%s'", t.Type.Name, name)
		}
		if vm.NativeGetAttrib != nil {
			if v, ok := vm.NativeGetAttrib(t, name); ok {
				return v, nil
			}
		}
		return value.Null(), vm.runtimeErrorAt(f, "native instance of '%s' has no attribute '%s'", t.TypeName, name)
	case *value.Module:
		return vm.moduleAttrib(f, t, name)
	case *value.Class:
		if m := findMethod(t, name); m != nil {
			return value.ObjVal(vm.Heap, m), nil
		}
		return value.Null(), vm.runtimeErrorAt(f, "class '%s' has no attribute '%s'", t.Name, name)
	default:
		return value.Null(), vm.runtimeErrorAt(f, "value of type %s has no attributes", t.Header().Kind)
	}
}

func (vm *VM) moduleAttrib(f *value.Fiber, mod *value.Module, name string) (value.Value, error) {
	for _, fn := range mod.Functions {
		if fn.Name == name {
			return value.ObjVal(vm.Heap, fn), nil
		}
	}
	for _, c := range mod.Classes {
		if c.Name == name {
			return value.ObjVal(vm.Heap, c), nil
		}
	}
	for i, n := range mod.GlobalNames {
		if n == name {
			return mod.Globals[i], nil
		}
	}
	return value.Null(), vm.runtimeErrorAt(f, "module '%s' has no attribute '%s'", string(mod.Path.Bytes), name)
}

// setAttrib implements SET_ATTRIB: only declared fields on script
// instances are writable (§7 "Unknown attribute write on a script
// instance raises, fields are declared").
func (vm *VM) setAttrib(f *value.Fiber, obj value.Value, name string, val value.Value) error {
	if !obj.IsObj() {
		return vm.runtimeErrorAt(f, "cannot set attribute '%s' on a non-object value", name)
	}
	switch t := obj.AsObj(vm.Heap).(type) {
	case *value.Instance:
		if t.Type != nil {
			for i, fld := range t.Type.FieldNames {
				if fld == name {
					t.Fields[i] = val
					return nil
				}
			}
			return vm.runtimeErrorAt(f, "'%s' has no field '%s'", t.Type.Name, name)
		}
		if vm.NativeSetAttrib != nil && vm.NativeSetAttrib(t, name, val) {
			return nil
		}
		return vm.runtimeErrorAt(f, "native instance of '%s' has no settable attribute '%s'", t.TypeName, name)
	default:
		return vm.runtimeErrorAt(f, "cannot set attribute on value of type %s", t.Header().Kind)
	}
}

// getSubscript implements GET_SUBSCRIPT/GET_SUBSCRIPT_KEEP.
func (vm *VM) getSubscript(f *value.Fiber, obj, key value.Value) (value.Value, error) {
	if !obj.IsObj() {
		return value.Null(), vm.runtimeErrorAt(f, "value of this type is not subscriptable")
	}
	switch t := obj.AsObj(vm.Heap).(type) {
	case *value.List:
		i, err := vm.indexOf(f, key, len(t.Items))
		if err != nil {
			return value.Null(), err
		}
		return t.Items[i], nil
	case *value.Map:
		v, ok := t.Get(vm.Heap, key)
		if !ok {
			return value.Null(), vm.runtimeErrorAt(f, "key not found in map")
		}
		return v, nil
	case *value.String:
		i, err := vm.indexOf(f, key, len(t.Bytes))
		if err != nil {
			return value.Null(), err
		}
		return value.ObjVal(vm.Heap, value.NewString(vm.Heap, t.Bytes[i:i+1])), nil
	default:
		return value.Null(), vm.runtimeErrorAt(f, "value of type %s is not subscriptable", t.Header().Kind)
	}
}

// setSubscript implements SET_SUBSCRIPT.
func (vm *VM) setSubscript(f *value.Fiber, obj, key, val value.Value) error {
	if !obj.IsObj() {
		return vm.runtimeErrorAt(f, "value of this type does not support subscript assignment")
	}
	switch t := obj.AsObj(vm.Heap).(type) {
	case *value.List:
		i, err := vm.indexOf(f, key, len(t.Items))
		if err != nil {
			return err
		}
		t.Items[i] = val
		return nil
	case *value.Map:
		t.Set(vm.Heap, key, val)
		return nil
	default:
		return vm.runtimeErrorAt(f, "value of type %s does not support subscript assignment", t.Header().Kind)
	}
}

func (vm *VM) indexOf(f *value.Fiber, key value.Value, length int) (int, error) {
	if !key.IsNum() {
		return 0, vm.runtimeErrorAt(f, "index must be a number")
	}
	i := int(key.AsNum())
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, vm.runtimeErrorAt(f, "index out of bounds")
	}
	return i, nil
}
