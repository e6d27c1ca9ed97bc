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

	"github.com/pocketlang/pocketlang/lang/bytecode"
	"github.com/pocketlang/pocketlang/lang/value"
)

// step executes one opcode of the topmost frame. done is true only when
// that opcode was a RETURN (ret is the returned value); every other opcode,
// including a CALL that pushed a new frame or a jump, reports done ==
// false. loop keeps calling step until the fiber's frame depth drops to
// the caller's stopDepth. Every opcode here implements one row of §4.F's
// instruction table.
func (vm *VM) step(f *value.Fiber) (value.Value, bool, error) {
	frame := &f.Frames[len(f.Frames)-1]
	fn := frame.Fn
	code := fn.Opcodes

	op := bytecode.Op(code[frame.IP])
	opStart := frame.IP
	frame.IP++

	switch op {
	case bytecode.PUSH_CONSTANT:
		idx := bytecode.GetU16(code[frame.IP:])
		frame.IP += 2
		push(f, fn.Owner.Literals[idx])

	case bytecode.PUSH_NULL:
		push(f, value.Null())
	case bytecode.PUSH_TRUE:
		push(f, value.True())
	case bytecode.PUSH_FALSE:
		push(f, value.False())
	case bytecode.PUSH_0:
		push(f, value.Num(0))
	case bytecode.PUSH_1:
		push(f, value.Num(1))

	case bytecode.PUSH_LOCAL_0, bytecode.PUSH_LOCAL_1, bytecode.PUSH_LOCAL_2,
		bytecode.PUSH_LOCAL_3, bytecode.PUSH_LOCAL_4, bytecode.PUSH_LOCAL_5,
		bytecode.PUSH_LOCAL_6, bytecode.PUSH_LOCAL_7, bytecode.PUSH_LOCAL_8:
		slot := int(op - bytecode.PUSH_LOCAL_0)
		push(f, f.Stack[frame.BP+1+slot])
	case bytecode.PUSH_LOCAL_N:
		slot := int(code[frame.IP])
		frame.IP++
		push(f, f.Stack[frame.BP+1+slot])

	case bytecode.STORE_LOCAL_0, bytecode.STORE_LOCAL_1, bytecode.STORE_LOCAL_2,
		bytecode.STORE_LOCAL_3, bytecode.STORE_LOCAL_4, bytecode.STORE_LOCAL_5,
		bytecode.STORE_LOCAL_6, bytecode.STORE_LOCAL_7, bytecode.STORE_LOCAL_8:
		slot := int(op - bytecode.STORE_LOCAL_0)
		f.Stack[frame.BP+1+slot] = pop(f)
	case bytecode.STORE_LOCAL_N:
		slot := int(code[frame.IP])
		frame.IP++
		f.Stack[frame.BP+1+slot] = pop(f)

	case bytecode.PUSH_GLOBAL:
		idx := code[frame.IP]
		frame.IP++
		push(f, fn.Owner.Globals[idx])
	case bytecode.STORE_GLOBAL:
		idx := code[frame.IP]
		frame.IP++
		fn.Owner.Globals[idx] = pop(f)

	case bytecode.PUSH_FN:
		idx := code[frame.IP]
		frame.IP++
		push(f, value.ObjVal(vm.Heap, fn.Owner.Functions[idx]))
	case bytecode.PUSH_TYPE:
		idx := code[frame.IP]
		frame.IP++
		push(f, value.ObjVal(vm.Heap, fn.Owner.Classes[idx]))
	case bytecode.PUSH_BUILTIN_FN:
		idx := code[frame.IP]
		frame.IP++
		push(f, value.ObjVal(vm.Heap, vm.Builtins[idx]))

	case bytecode.PUSH_LIST:
		idx := bytecode.GetU16(code[frame.IP:])
		frame.IP += 2
		_ = idx // operand is unused: lists grow via LIST_APPEND, not a fixed count
		vm.collectIfNeeded()
		push(f, value.ObjVal(vm.Heap, value.NewList(vm.Heap, nil)))
	case bytecode.LIST_APPEND:
		item := pop(f)
		lst := top(f).AsObj(vm.Heap).(*value.List)
		lst.Items = append(lst.Items, item)

	case bytecode.PUSH_MAP:
		vm.collectIfNeeded()
		push(f, value.ObjVal(vm.Heap, value.NewMap(vm.Heap)))
	case bytecode.MAP_INSERT:
		val := pop(f)
		key := pop(f)
		m := top(f).AsObj(vm.Heap).(*value.Map)
		m.Set(vm.Heap, key, val)

	case bytecode.CALL, bytecode.TAIL_CALL:
		argc := int(code[frame.IP])
		frame.IP++
		if err := vm.doCall(f, argc, op == bytecode.TAIL_CALL); err != nil {
			return value.Null(), false, err
		}

	case bytecode.SWAP:
		f.Stack[f.SP-1], f.Stack[f.SP-2] = f.Stack[f.SP-2], f.Stack[f.SP-1]

	case bytecode.JUMP:
		frame.IP = int(bytecode.GetU16(code[frame.IP:]))
	case bytecode.JUMP_IF:
		target := int(bytecode.GetU16(code[frame.IP:]))
		frame.IP += 2
		if isTruthy(pop(f)) {
			frame.IP = target
		}
	case bytecode.JUMP_IF_NOT:
		target := int(bytecode.GetU16(code[frame.IP:]))
		frame.IP += 2
		if !isTruthy(pop(f)) {
			frame.IP = target
		}
	case bytecode.LOOP:
		frame.IP = int(bytecode.GetU16(code[frame.IP:]))

	case bytecode.RETURN:
		result := pop(f)
		bp := frame.BP
		f.Frames = f.Frames[:len(f.Frames)-1]
		f.Stack[bp] = result
		f.SP = bp + 1
		return result, true, nil

	case bytecode.END:
		// no-op marker; disassembly/debug boundary only.

	case bytecode.GET_ATTRIB, bytecode.GET_ATTRIB_KEEP:
		nameIdx := bytecode.GetU16(code[frame.IP:])
		frame.IP += 2
		name := fn.Owner.NamePool[nameIdx]
		var obj value.Value
		if op == bytecode.GET_ATTRIB_KEEP {
			obj = top(f)
		} else {
			obj = pop(f)
		}
		v, err := vm.getAttrib(f, obj, name)
		if err != nil {
			return value.Null(), false, err
		}
		push(f, v)

	case bytecode.SET_ATTRIB:
		nameIdx := bytecode.GetU16(code[frame.IP:])
		frame.IP += 2
		name := fn.Owner.NamePool[nameIdx]
		val := pop(f)
		obj := pop(f)
		if err := vm.setAttrib(f, obj, name, val); err != nil {
			return value.Null(), false, err
		}

	case bytecode.GET_SUBSCRIPT, bytecode.GET_SUBSCRIPT_KEEP:
		var obj, key value.Value
		if op == bytecode.GET_SUBSCRIPT_KEEP {
			key = f.Stack[f.SP-1]
			obj = f.Stack[f.SP-2]
		} else {
			key = pop(f)
			obj = pop(f)
		}
		v, err := vm.getSubscript(f, obj, key)
		if err != nil {
			return value.Null(), false, err
		}
		push(f, v)

	case bytecode.SET_SUBSCRIPT:
		val := pop(f)
		key := pop(f)
		obj := pop(f)
		if err := vm.setSubscript(f, obj, key, val); err != nil {
			return value.Null(), false, err
		}

	case bytecode.ITER_TEST:
		iterState := pop(f)
		seq := pop(f)
		hasMore, newIter, err := vm.iterNext(f, seq, iterState)
		if err != nil {
			return value.Null(), false, err
		}
		push(f, value.Bool(hasMore))
		push(f, newIter)

	case bytecode.ITER:
		iterState := pop(f)
		seq := pop(f)
		v, err := vm.iterValue(f, seq, iterState)
		if err != nil {
			return value.Null(), false, err
		}
		push(f, v)

	case bytecode.ADD, bytecode.SUB, bytecode.MUL, bytecode.DIV, bytecode.MOD,
		bytecode.BIT_AND, bytecode.BIT_OR, bytecode.BIT_XOR, bytecode.LSHIFT, bytecode.RSHIFT,
		bytecode.EQEQ, bytecode.NOTEQ, bytecode.LT, bytecode.LTEQ, bytecode.GT, bytecode.GTEQ,
		bytecode.RANGE, bytecode.IN, bytecode.IS:
		b := pop(f)
		a := pop(f)
		v, err := vm.binaryOp(f, op, a, b)
		if err != nil {
			return value.Null(), false, err
		}
		push(f, v)

	case bytecode.NEGATIVE, bytecode.NOT, bytecode.BIT_NOT:
		a := pop(f)
		v, err := vm.unaryOp(f, op, a)
		if err != nil {
			return value.Null(), false, err
		}
		push(f, v)

	case bytecode.IMPORT:
		nameIdx := bytecode.GetU16(code[frame.IP:])
		frame.IP += 2
		name := fn.Owner.NamePool[nameIdx]
		mod, err := vm.doImport(f, fn.Owner, name)
		if err != nil {
			return value.Null(), false, err
		}
		push(f, value.ObjVal(vm.Heap, mod))

	case bytecode.PUSH_INSTANCE:
		idx := code[frame.IP]
		frame.IP++
		vm.collectIfNeeded()
		cls := fn.Owner.Classes[idx]
		push(f, value.ObjVal(vm.Heap, value.NewInstance(vm.Heap, cls)))
	case bytecode.INST_APPEND:
		v := pop(f)
		inst := top(f).AsObj(vm.Heap).(*value.Instance)
		inst.Append(v)

	case bytecode.REPL_PRINT:
		if vm.Config.Write != nil {
			vm.Config.Write(value.ToString(vm.Heap, pop(f), true) + "\n")
		} else {
			pop(f)
		}

	case bytecode.POP:
		pop(f)

	default:
		return value.Null(), false, vm.runtimeErrorAtIP(f, opStart, "unknown opcode %s", op)
	}

	return value.Null(), false, nil
}

// runtimeErrorAt builds a RuntimeError carrying a stacktrace: one
// StackFrame per active frame, innermost first, using the source line at
// each frame's saved IP; for the top frame that IP has already moved past
// the executing opcode and its operand bytes (§4.G "an implementation
// should record a stacktrace").
func (vm *VM) runtimeErrorAt(f *value.Fiber, format string, args ...interface{}) error {
	return vm.runtimeErrorAtIP(f, -1, format, args...)
}

// runtimeErrorAtIP is runtimeErrorAt's worker: ipOverride, when >= 0,
// replaces the top frame's IP when computing that frame's source line
// (step decrements nothing, so by the time an opcode handler calls this
// frame.IP has already advanced past the operand bytes).
func (vm *VM) runtimeErrorAtIP(f *value.Fiber, ipOverride int, format string, args ...interface{}) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	frames := make([]StackFrame, 0, len(f.Frames))
	for i := len(f.Frames) - 1; i >= 0; i-- {
		fr := f.Frames[i]
		ip := fr.IP
		if i == len(f.Frames)-1 && ipOverride >= 0 {
			ip = ipOverride
		}
		line := 0
		if ip >= 0 && ip < len(fr.Fn.OpLines) {
			line = int(fr.Fn.OpLines[ip])
		}
		path := ""
		name := fr.Fn.Name
		if fr.Fn.Owner != nil && fr.Fn.Owner.Path != nil {
			path = string(fr.Fn.Owner.Path.Bytes)
		}
		frames = append(frames, StackFrame{Path: path, Func: name, Line: line})
	}
	return &RuntimeError{Message: msg, Frames: frames}
}
