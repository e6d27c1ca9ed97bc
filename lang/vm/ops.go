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
	"math"

	"github.com/pocketlang/pocketlang/lang/bytecode"
	"github.com/pocketlang/pocketlang/lang/value"
)

// operatorMethodNames maps an opcode to the instance method name it
// consults when at least one operand isn't a number/string/container
// (§9 "dynamic dispatch": classes override operators by defining a
// method of the matching name). Method names must be plain identifiers
// (class bodies only accept IDENT for a method name, §4.E), so operators
// use a dunder-style convention rather than the bare symbol. binaryOp
// answers EQEQ, NOTEQ and IS itself for every operand type, so the
// __eq__, __ne__ and __is__ entries are never consulted.
var operatorMethodNames = map[bytecode.Op]string{
	bytecode.ADD: "__add__", bytecode.SUB: "__sub__", bytecode.MUL: "__mul__",
	bytecode.DIV: "__div__", bytecode.MOD: "__mod__",
	bytecode.BIT_AND: "__band__", bytecode.BIT_OR: "__bor__", bytecode.BIT_XOR: "__bxor__",
	bytecode.LSHIFT: "__lshift__", bytecode.RSHIFT: "__rshift__",
	bytecode.EQEQ: "__eq__", bytecode.NOTEQ: "__ne__",
	bytecode.LT: "__lt__", bytecode.LTEQ: "__le__", bytecode.GT: "__gt__", bytecode.GTEQ: "__ge__",
	bytecode.IN: "__contains__", bytecode.IS: "__is__",
}

func (vm *VM) binaryOp(f *value.Fiber, op bytecode.Op, a, b value.Value) (value.Value, error) {
	switch op {
	case bytecode.ADD:
		if a.IsNum() && b.IsNum() {
			return value.Num(a.AsNum() + b.AsNum()), nil
		}
		if isString(vm.Heap, a) || isString(vm.Heap, b) {
			s := value.ToString(vm.Heap, a, false) + value.ToString(vm.Heap, b, false)
			return value.ObjVal(vm.Heap, value.NewString(vm.Heap, []byte(s))), nil
		}
	case bytecode.SUB:
		if a.IsNum() && b.IsNum() {
			return value.Num(a.AsNum() - b.AsNum()), nil
		}
	case bytecode.MUL:
		if a.IsNum() && b.IsNum() {
			return value.Num(a.AsNum() * b.AsNum()), nil
		}
	case bytecode.DIV:
		if a.IsNum() && b.IsNum() {
			if b.AsNum() == 0 {
				return value.Null(), vm.runtimeErrorAt(f, "division by zero")
			}
			return value.Num(a.AsNum() / b.AsNum()), nil
		}
	case bytecode.MOD:
		if a.IsNum() && b.IsNum() {
			if b.AsNum() == 0 {
				return value.Null(), vm.runtimeErrorAt(f, "division by zero")
			}
			return value.Num(math.Mod(a.AsNum(), b.AsNum())), nil
		}
	case bytecode.BIT_AND:
		if a.IsNum() && b.IsNum() {
			return value.Num(float64(int64(a.AsNum()) & int64(b.AsNum()))), nil
		}
	case bytecode.BIT_OR:
		if a.IsNum() && b.IsNum() {
			return value.Num(float64(int64(a.AsNum()) | int64(b.AsNum()))), nil
		}
	case bytecode.BIT_XOR:
		if a.IsNum() && b.IsNum() {
			return value.Num(float64(int64(a.AsNum()) ^ int64(b.AsNum()))), nil
		}
	case bytecode.LSHIFT:
		if a.IsNum() && b.IsNum() {
			return value.Num(float64(int64(a.AsNum()) << uint(int64(b.AsNum())))), nil
		}
	case bytecode.RSHIFT:
		if a.IsNum() && b.IsNum() {
			return value.Num(float64(int64(a.AsNum()) >> uint(int64(b.AsNum())))), nil
		}
	case bytecode.EQEQ:
		return value.Bool(value.Equals(vm.Heap, a, b)), nil
	case bytecode.NOTEQ:
		return value.Bool(!value.Equals(vm.Heap, a, b)), nil
	case bytecode.LT, bytecode.LTEQ, bytecode.GT, bytecode.GTEQ:
		if a.IsNum() && b.IsNum() {
			return value.Bool(numCompare(op, a.AsNum(), b.AsNum())), nil
		}
		if isString(vm.Heap, a) && isString(vm.Heap, b) {
			sa := string(a.AsObj(vm.Heap).(*value.String).Bytes)
			sb := string(b.AsObj(vm.Heap).(*value.String).Bytes)
			return value.Bool(strCompare(op, sa, sb)), nil
		}
	case bytecode.RANGE:
		if a.IsNum() && b.IsNum() {
			return value.ObjVal(vm.Heap, value.NewRange(vm.Heap, a.AsNum(), b.AsNum())), nil
		}
		return value.Null(), vm.runtimeErrorAt(f, "range bounds must be numbers")
	case bytecode.IN:
		return vm.membership(f, a, b)
	case bytecode.IS:
		return value.Bool(vm.isInstance(a, b)), nil
	}

	// Fall back to instance-method operator dispatch on either operand
	// (§9 "dynamic dispatch"), the receiver being whichever side is an
	// instance of a script class.
	if name, ok := operatorMethodNames[op]; ok {
		if v, handled, err := vm.dispatchOperatorMethod(f, name, a, b); handled {
			return v, err
		}
	}
	return value.Null(), vm.runtimeErrorAt(f, "unsupported operand types for %s", op.String())
}

func (vm *VM) unaryOp(f *value.Fiber, op bytecode.Op, a value.Value) (value.Value, error) {
	switch op {
	case bytecode.NEGATIVE:
		if a.IsNum() {
			return value.Num(-a.AsNum()), nil
		}
		if v, handled, err := vm.dispatchUnaryMethod(f, "__neg__", a); handled {
			return v, err
		}
		return value.Null(), vm.runtimeErrorAt(f, "'-' requires a number")
	case bytecode.NOT:
		return value.Bool(!isTruthy(a)), nil
	case bytecode.BIT_NOT:
		if a.IsNum() {
			return value.Num(float64(^int64(a.AsNum()))), nil
		}
		if v, handled, err := vm.dispatchUnaryMethod(f, "__bnot__", a); handled {
			return v, err
		}
		return value.Null(), vm.runtimeErrorAt(f, "'~' requires a number")
	}
	return value.Null(), vm.runtimeErrorAt(f, "unknown unary opcode %s", op)
}

func numCompare(op bytecode.Op, a, b float64) bool {
	switch op {
	case bytecode.LT:
		return a < b
	case bytecode.LTEQ:
		return a <= b
	case bytecode.GT:
		return a > b
	case bytecode.GTEQ:
		return a >= b
	}
	return false
}

func strCompare(op bytecode.Op, a, b string) bool {
	switch op {
	case bytecode.LT:
		return a < b
	case bytecode.LTEQ:
		return a <= b
	case bytecode.GT:
		return a > b
	case bytecode.GTEQ:
		return a >= b
	}
	return false
}

func isString(h *value.Heap, v value.Value) bool {
	if !v.IsObj() {
		return false
	}
	_, ok := v.AsObj(h).(*value.String)
	return ok
}

// membership implements §4.F's IN opcode: needle in container.
func (vm *VM) membership(f *value.Fiber, needle, container value.Value) (value.Value, error) {
	if !container.IsObj() {
		return value.Null(), vm.runtimeErrorAt(f, "right-hand side of 'in' is not a container")
	}
	switch c := container.AsObj(vm.Heap).(type) {
	case *value.List:
		for _, item := range c.Items {
			if value.Equals(vm.Heap, item, needle) {
				return value.True(), nil
			}
		}
		return value.False(), nil
	case *value.Map:
		_, ok := c.Get(vm.Heap, needle)
		return value.Bool(ok), nil
	case *value.String:
		if isString(vm.Heap, needle) {
			sub := string(needle.AsObj(vm.Heap).(*value.String).Bytes)
			return value.Bool(containsSubstring(string(c.Bytes), sub)), nil
		}
	case *value.Range:
		if needle.IsNum() {
			n := needle.AsNum()
			return value.Bool(n >= c.From && n < c.To), nil
		}
	}
	if v, handled, err := vm.dispatchOperatorMethod(f, "__contains__", needle, container); handled {
		return v, err
	}
	return value.Null(), vm.runtimeErrorAt(f, "unsupported operand types for 'in'")
}

func containsSubstring(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return true
		}
	}
	return false
}

// isInstance implements the `is` type-check operator: a is b, where b
// names a class and a's class or any of its bases equals b.
func (vm *VM) isInstance(a, b value.Value) bool {
	if !a.IsObj() || !b.IsObj() {
		return false
	}
	inst, ok := a.AsObj(vm.Heap).(*value.Instance)
	if !ok {
		return false
	}
	cls, ok := b.AsObj(vm.Heap).(*value.Class)
	if !ok {
		return false
	}
	for t := inst.Type; t != nil; t = t.Base {
		if t == cls {
			return true
		}
	}
	return false
}

// dispatchOperatorMethod calls receiver.name(operand) synchronously when
// receiver is a script instance whose class (or a base class) defines
// method name, running the nested call to completion on the same fiber
// before returning (§9 "Operator dispatch and method calls do not
// suspend"). handled is false when neither operand is an instance
// defining the operator, letting the caller report its own error.
func (vm *VM) dispatchOperatorMethod(f *value.Fiber, name string, a, b value.Value) (value.Value, bool, error) {
	if v, ok, err := vm.tryInstanceMethod(f, name, a, b); ok {
		return v, true, err
	}
	if v, ok, err := vm.tryInstanceMethod(f, name, b, a); ok {
		return v, true, err
	}
	return value.Null(), false, nil
}

func (vm *VM) dispatchUnaryMethod(f *value.Fiber, name string, a value.Value) (value.Value, bool, error) {
	return vm.tryInstanceMethod(f, name, a, value.Undefined())
}

func (vm *VM) tryInstanceMethod(f *value.Fiber, name string, receiver, arg value.Value) (value.Value, bool, error) {
	if !receiver.IsObj() {
		return value.Null(), false, nil
	}
	inst, ok := receiver.AsObj(vm.Heap).(*value.Instance)
	if !ok || inst.Type == nil {
		return value.Null(), false, nil
	}
	method := findMethod(inst.Type, name)
	if method == nil {
		return value.Null(), false, nil
	}
	v, err := vm.callSync(f, method, receiver, arg)
	return v, true, err
}

func findMethod(cls *value.Class, name string) *value.Function {
	for t := cls; t != nil; t = t.Base {
		if m, ok := t.Methods[name]; ok {
			return m
		}
	}
	return nil
}
