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

// iterLen reports how many elements seq has, for the built-in iterable
// kinds the for-in lowering supports (§4.F "ITER_TEST/ITER").
func (vm *VM) iterLen(f *value.Fiber, seq value.Value) (int, error) {
	if !seq.IsObj() {
		return 0, vm.runtimeErrorAt(f, "value of this type is not iterable")
	}
	switch t := seq.AsObj(vm.Heap).(type) {
	case *value.List:
		return len(t.Items), nil
	case *value.String:
		return len(t.Bytes), nil
	case *value.Range:
		if t.To <= t.From {
			return 0, nil
		}
		return int(t.To - t.From), nil
	case *value.Map:
		return t.Count(), nil
	default:
		return 0, vm.runtimeErrorAt(f, "value of type %s is not iterable", t.Header().Kind)
	}
}

// iterNext implements ITER_TEST's half of the for-in protocol: given the
// sequence and the previous iterator state (Null to start), report
// whether another element remains and the updated iterator state. The
// iterator state is simply the next index; it is opaque to script code
// (§4.F doesn't mandate a representation, only the two-opcode protocol).
func (vm *VM) iterNext(f *value.Fiber, seq, iterState value.Value) (bool, value.Value, error) {
	length, err := vm.iterLen(f, seq)
	if err != nil {
		return false, value.Null(), err
	}
	idx := -1
	if !iterState.IsNull() {
		idx = int(iterState.AsNum())
	}
	idx++
	if idx >= length {
		return false, value.Null(), nil
	}
	return true, value.Num(float64(idx)), nil
}

// iterValue implements ITER's half: the element at the current iterator
// state.
func (vm *VM) iterValue(f *value.Fiber, seq, iterState value.Value) (value.Value, error) {
	idx := int(iterState.AsNum())
	switch t := seq.AsObj(vm.Heap).(type) {
	case *value.List:
		return t.Items[idx], nil
	case *value.String:
		return value.ObjVal(vm.Heap, value.NewString(vm.Heap, t.Bytes[idx:idx+1])), nil
	case *value.Range:
		return value.Num(t.From + float64(idx)), nil
	case *value.Map:
		keys := t.Keys()
		if idx >= len(keys) {
			return value.Null(), vm.runtimeErrorAt(f, "map modified during iteration")
		}
		return keys[idx], nil
	default:
		return value.Null(), vm.runtimeErrorAt(f, "value of type %s is not iterable", t.Header().Kind)
	}
}
