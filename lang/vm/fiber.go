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

	"github.com/pocketlang/pocketlang/lang/value"
)

// yieldSignal unwinds the dispatch loop back to Run/Resume without
// touching any bytecode frame: the fiber's frames stay exactly where a
// future Resume needs to find them (§4.H "a yielded fiber's frames are
// left intact; resume continues the topmost frame at its next IP").
type yieldSignal struct{ value value.Value }

func (*yieldSignal) Error() string { return "fiber yielded" }

// Run starts a NEW fiber with args bound as its first arity parameters
// (§4.H's state table: NEW -(run)-> RUNNING). It becomes vm.Current for
// the duration of the call, with the previous current fiber (if any, i.e.
// this is a nested run from inside a native) recorded as its Caller so it
// stays a GC root, and that previous fiber is restored on return.
func (vm *VM) Run(f *value.Fiber, args []value.Value) (value.Value, error) {
	if f.State != value.FiberNew {
		return value.Null(), vm.runtimeErrorNoFrame("cannot run a fiber that is not NEW")
	}
	f.SP = 0
	push(f, value.Null()) // slot 0: eventual return value
	for _, a := range args {
		push(f, a)
	}
	f.Frames = append(f.Frames, value.Frame{Fn: f.Function, IP: 0, BP: 0})
	f.State = value.FiberRunning

	prev := vm.Current
	f.Caller = prev
	vm.Current = f
	result, err := vm.loop(f, 0)
	vm.Current = prev
	return result, err
}

// Resume continues a YIELDED fiber, delivering v as the calling
// run_or_resume's result (§4.H: YIELDED -(resume)-> RUNNING). v lands in
// the exact stack slot the suspended yield() call would have returned
// into, per the invariant kept by invokeNative's yield case: SP was left at
// that slot when the fiber suspended.
func (vm *VM) Resume(f *value.Fiber, v value.Value) (value.Value, error) {
	if f.State != value.FiberYielded {
		return value.Null(), vm.runtimeErrorNoFrame("cannot resume a fiber that is not YIELDED")
	}
	push(f, v)
	f.State = value.FiberRunning

	prev := vm.Current
	vm.Current = f
	result, err := vm.loop(f, 0)
	vm.Current = prev
	return result, err
}

// loop is the shared driver behind Run/Resume and behind synchronous
// nested invocations (operator dispatch, bound-method calls): it steps
// f's topmost frame until the frame stack depth drops to stopDepth (the
// call this invocation was responsible for has returned), a yield
// suspends the whole fiber, or a runtime error unwinds it.
func (vm *VM) loop(f *value.Fiber, stopDepth int) (value.Value, error) {
	for {
		if len(f.Frames) <= stopDepth {
			if len(f.Frames) == 0 {
				f.State = value.FiberDone
			}
			if f.SP > 0 {
				return f.Stack[f.SP-1], nil
			}
			return value.Null(), nil
		}

		ret, done, err := vm.step(f)
		if err != nil {
			if ys, ok := err.(*yieldSignal); ok {
				f.State = value.FiberYielded
				return ys.value, nil
			}
			vm.unwind(f, err)
			return value.Null(), err
		}
		if done && len(f.Frames) <= stopDepth {
			if len(f.Frames) == 0 {
				f.State = value.FiberDone
			}
			return ret, nil
		}
	}
}

// unwind stores err's message as the fiber's Error string and drops every
// frame, sending the fiber to FIBER_ERROR (§4.H, §7.2). The stacktrace is
// the one err already carries from runtimeErrorAt; unwind adds none.
func (vm *VM) unwind(f *value.Fiber, err error) {
	f.State = value.FiberError
	msg := err.Error()
	f.Error = vm.errorString(msg)
	f.Frames = nil
}

func (vm *VM) errorString(msg string) *value.String {
	return value.NewString(vm.Heap, []byte(msg))
}

// runtimeErrorNoFrame builds a RuntimeError with no frame information,
// for failures that happen before any frame exists (starting a fiber
// that is already running, etc).
func (vm *VM) runtimeErrorNoFrame(format string, args ...interface{}) error {
	return &RuntimeError{Message: fmt.Sprintf(format, args...)}
}
