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

// doCall implements CALL/TAIL_CALL (§4.G): resolve whatever sits in the
// callee slot down to something actually invocable, then either run a
// native in place or push a bytecode frame for the dispatch loop to pick
// up on its next iteration. A Class resolves to its synthesized
// constructor; a BoundMethod resolves to its underlying function with the
// receiver spliced in as an implicit leading argument (class bodies only
// declare plain-identifier method names, so methods take `self` as an
// explicit first parameter, Python-style, rather than through a hidden
// compiler slot).
func (vm *VM) doCall(f *value.Fiber, argc int, tail bool) error {
	calleeSlot := f.SP - argc - 1
	callee := f.Stack[calleeSlot]

	for {
		if !callee.IsObj() {
			return vm.runtimeErrorAt(f, "'%s' is not callable", value.ToString(vm.Heap, callee, true))
		}
		switch t := callee.AsObj(vm.Heap).(type) {
		case *value.Class:
			if t.Ctor != nil {
				callee = value.ObjVal(vm.Heap, t.Ctor)
				f.Stack[calleeSlot] = callee
				continue
			}
			if t.NewFn != nil {
				inst := value.NewInstance(vm.Heap, t)
				inst.UserData = t.NewFn()
				inst.TypeName = t.Name
				f.SP = calleeSlot
				push(f, value.ObjVal(vm.Heap, inst))
				return nil
			}
			return vm.runtimeErrorAt(f, "class '%s' has no constructor", t.Name)

		case *value.BoundMethod:
			args := append([]value.Value(nil), f.Stack[calleeSlot+1:f.SP]...)
			f.SP = calleeSlot + 1
			push(f, t.Receiver)
			for _, a := range args {
				push(f, a)
			}
			argc++
			callee = value.ObjVal(vm.Heap, t.Method)
			f.Stack[calleeSlot] = callee
			continue

		case *value.Function:
			if t.IsNative() {
				return vm.invokeNative(f, t, calleeSlot, argc)
			}
			if t.Arity >= 0 && argc != t.Arity {
				return vm.runtimeErrorAt(f, "'%s' expects %d argument(s), got %d", t.Name, t.Arity, argc)
			}
			if tail && len(f.Frames) > 0 {
				f.Frames[len(f.Frames)-1] = value.Frame{Fn: t, IP: 0, BP: calleeSlot, IsTail: true}
			} else {
				f.Frames = append(f.Frames, value.Frame{Fn: t, IP: 0, BP: calleeSlot})
			}
			return nil

		default:
			return vm.runtimeErrorAt(f, "value of type %s is not callable", t.Header().Kind)
		}
	}
}

// invokeNative runs a native Function in place: natives never push a
// frame, they execute to completion synchronously against a Slots window
// over the fiber's stack (§4.J). yield is the one native that doesn't
// return normally: it unwinds the whole dispatch loop via yieldSignal,
// leaving SP exactly where the eventual Resume delivers its value.
func (vm *VM) invokeNative(f *value.Fiber, fn *value.Function, calleeSlot, argc int) error {
	if fn.Name == "yield" {
		v := value.Null()
		if argc > 0 {
			v = f.Stack[calleeSlot+1]
		}
		f.SP = calleeSlot
		return &yieldSignal{value: v}
	}

	slots := &Slots{VM: vm, Fiber: f, Base: calleeSlot, Argc: argc}
	if err := fn.Native(slots); err != nil {
		return vm.runtimeErrorAt(f, "%s", err.Error())
	}
	f.SP = calleeSlot + 1
	return nil
}

// callSync invokes method(receiver, arg) to completion on f before
// returning, for contexts that must see the result immediately: operator
// dispatch and attribute-bound method calls (§9 "Operator dispatch and
// method calls do not suspend"). arg == value.Undefined() means no second
// argument (unary operator methods).
func (vm *VM) callSync(f *value.Fiber, method *value.Function, receiver, arg value.Value) (value.Value, error) {
	calleeSlot := f.SP
	push(f, value.ObjVal(vm.Heap, method))
	push(f, receiver)
	argc := 1
	if !arg.IsUndefined() {
		push(f, arg)
		argc++
	}

	depthBefore := len(f.Frames)
	if err := vm.doCall(f, argc, false); err != nil {
		return value.Null(), err
	}
	if len(f.Frames) > depthBefore {
		return vm.loop(f, depthBefore)
	}
	return f.Stack[calleeSlot], nil
}
