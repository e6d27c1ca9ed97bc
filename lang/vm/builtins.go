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

	"github.com/pocketlang/pocketlang/lang/builtin"
	"github.com/pocketlang/pocketlang/lang/value"
)

// registerBuiltins populates vm.Builtins in lang/builtin.Names order, so a
// compiled PUSH_BUILTIN_FN index always lands on the matching Go
// implementation (§4.G "PUSH_BUILTIN_FN").
func (vm *VM) registerBuiltins() {
	vm.Builtins = make([]*value.Function, len(builtin.Names))
	impls := map[string]func(*Slots) error{
		"print":         builtinPrint,
		"to_string":     builtinToString,
		"type_name":     builtinTypeName,
		"len":           builtinLen,
		"Fiber":         builtinFiber,
		"run_or_resume": builtinRunOrResume,
		"yield":         builtinYield,
		"assert":        builtinAssert,
		"input":         builtinInput,
		"is_done":       builtinIsDone,
	}
	for i, name := range builtin.Names {
		impl := impls[name]
		vm.Builtins[i] = value.NewNativeFunction(vm.Heap, name, builtin.Arity[i], func(nv value.NativeVM) error {
			return impl(nv.(*Slots))
		})
	}
}

func builtinPrint(s *Slots) error {
	parts := make([]string, s.Argc)
	for i := 0; i < s.Argc; i++ {
		parts[i] = value.ToString(s.VM.Heap, s.Get(1+i), false)
	}
	if s.VM.Config.Write != nil {
		s.VM.Config.Write(strings.Join(parts, " ") + "\n")
	}
	s.Set(0, value.Null())
	return nil
}

func builtinToString(s *Slots) error {
	str := value.ToString(s.VM.Heap, s.Get(1), false)
	s.Set(0, value.ObjVal(s.VM.Heap, value.NewString(s.VM.Heap, []byte(str))))
	return nil
}

func builtinTypeName(s *Slots) error {
	v := s.Get(1)
	var name string
	switch {
	case v.IsNull():
		name = "null"
	case v.IsUndefined():
		name = "undefined"
	case v.IsBool():
		name = "bool"
	case v.IsNum():
		name = "num"
	case v.IsObj():
		name = v.AsObj(s.VM.Heap).Header().Kind.String()
	}
	s.Set(0, value.ObjVal(s.VM.Heap, value.NewString(s.VM.Heap, []byte(name))))
	return nil
}

func builtinLen(s *Slots) error {
	v := s.Get(1)
	if !v.IsObj() {
		return s.Errorf("len() requires a string, list, map or range")
	}
	var n int
	switch t := v.AsObj(s.VM.Heap).(type) {
	case *value.String:
		n = len(t.Bytes)
	case *value.List:
		n = len(t.Items)
	case *value.Map:
		n = t.Count()
	case *value.Range:
		if t.To > t.From {
			n = int(t.To - t.From)
		}
	default:
		return s.Errorf("len() requires a string, list, map or range, got %s", t.Header().Kind)
	}
	s.Set(0, value.Num(float64(n)))
	return nil
}

// builtinFiber constructs a NEW fiber wrapping the given function (§4.H).
func builtinFiber(s *Slots) error {
	v := s.Get(1)
	if !v.IsObj() {
		return s.Errorf("Fiber() requires a function")
	}
	fn, ok := v.AsObj(s.VM.Heap).(*value.Function)
	if !ok {
		return s.Errorf("Fiber() requires a function")
	}
	f := value.NewFiber(s.VM.Heap, fn, 256)
	s.Set(0, value.ObjVal(s.VM.Heap, f))
	return nil
}

// builtinRunOrResume drives a fiber one step (§4.H "run_or_resume"): a NEW
// fiber is started with the remaining arguments bound as its parameters; a
// YIELDED fiber is resumed with the first remaining argument (or null).
func builtinRunOrResume(s *Slots) error {
	if s.Argc < 1 {
		return s.Errorf("run_or_resume() requires a fiber argument")
	}
	v := s.Get(1)
	if !v.IsObj() {
		return s.Errorf("run_or_resume() requires a fiber argument")
	}
	f, ok := v.AsObj(s.VM.Heap).(*value.Fiber)
	if !ok {
		return s.Errorf("run_or_resume() requires a fiber argument")
	}
	f.Caller = s.VM.Current

	var result value.Value
	var err error
	switch f.State {
	case value.FiberNew:
		args := make([]value.Value, 0, s.Argc-1)
		for i := 2; i <= s.Argc; i++ {
			args = append(args, s.Get(i))
		}
		result, err = s.VM.Run(f, args)
	case value.FiberYielded:
		arg := value.Null()
		if s.Argc >= 2 {
			arg = s.Get(2)
		}
		result, err = s.VM.Resume(f, arg)
	default:
		return s.Errorf("cannot run_or_resume a fiber in state %s", f.State)
	}
	if err != nil {
		return err
	}
	s.Set(0, result)
	return nil
}

// builtinYield is never actually invoked: call.go's invokeNative special-
// cases fn.Name == "yield" before it would dispatch here, because yielding
// has to unwind the Go call stack via yieldSignal rather than return
// normally. The implementation only exists so Fiber(yield) style values
// (a first-class reference to the builtin) still resolve to something
// runnable if ever called indirectly through that path instead.
func builtinYield(s *Slots) error {
	v := value.Null()
	if s.Argc > 0 {
		v = s.Get(1)
	}
	s.Set(0, v)
	return nil
}

func builtinAssert(s *Slots) error {
	if s.Argc < 1 {
		return s.Errorf("assert() requires a condition")
	}
	if !isTruthy(s.Get(1)) {
		msg := "assertion failed"
		if s.Argc >= 2 {
			msg = value.ToString(s.VM.Heap, s.Get(2), false)
		}
		return fmt.Errorf("%s", msg)
	}
	s.Set(0, value.Null())
	return nil
}

func builtinInput(s *Slots) error {
	if s.VM.Config.Read == nil {
		s.Set(0, value.Null())
		return nil
	}
	line, err := s.VM.Config.Read()
	if err != nil && line == "" {
		s.Set(0, value.Null())
		return nil
	}
	s.Set(0, value.ObjVal(s.VM.Heap, value.NewString(s.VM.Heap, []byte(line))))
	return nil
}

func builtinIsDone(s *Slots) error {
	v := s.Get(1)
	if !v.IsObj() {
		return s.Errorf("is_done() requires a fiber argument")
	}
	f, ok := v.AsObj(s.VM.Heap).(*value.Fiber)
	if !ok {
		return s.Errorf("is_done() requires a fiber argument")
	}
	done := f.State == value.FiberDone || f.State == value.FiberError
	s.Set(0, value.Bool(done))
	return nil
}
