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

package value

// Typed constructors register the new object on h's table (and, by
// extension, on the set the collector walks during sweep) before handing
// back a usable reference. Composite constructions (List/Map literals
// being built element by element) are expected to keep the partially
// built object rooted via the VM's temp-root stack (lang/gc) for their
// duration; this package only guarantees the object exists in the table.

func NewString(h *Heap, b []byte) *String {
	s := &String{Object: Object{Kind: KindString}, Bytes: append([]byte(nil), b...)}
	s.Hash = fnv1a32(s.Bytes)
	h.Register(s)
	return s
}

func NewList(h *Heap, items []Value) *List {
	l := &List{Object: Object{Kind: KindList}, Items: items}
	h.Register(l)
	return l
}

func NewMap(h *Heap) *Map {
	m := &Map{Object: Object{Kind: KindMap}, entries: make([]mapEntry, MinCapacity)}
	for i := range m.entries {
		m.entries[i].key = Undefined()
	}
	h.Register(m)
	return m
}

func NewRange(h *Heap, from, to float64) *Range {
	r := &Range{Object: Object{Kind: KindRange}, From: from, To: to}
	h.Register(r)
	return r
}

func NewModule(h *Heap, path *String) *Module {
	m := &Module{Object: Object{Kind: KindModule}, Path: path}
	h.Register(m)
	return m
}

func NewFunction(h *Heap, owner *Module, name string, arity int) *Function {
	f := &Function{Object: Object{Kind: KindFunction}, Owner: owner, Name: name, Arity: arity}
	h.Register(f)
	return f
}

func NewNativeFunction(h *Heap, name string, arity int, fn func(NativeVM) error) *Function {
	f := &Function{Object: Object{Kind: KindFunction}, Name: name, Arity: arity, Native: fn}
	h.Register(f)
	return f
}

func NewClass(h *Heap, owner *Module, name string, base *Class) *Class {
	c := &Class{Object: Object{Kind: KindClass}, Owner: owner, Name: name, Base: base, Methods: map[string]*Function{}}
	h.Register(c)
	return c
}

func NewInstance(h *Heap, t *Class) *Instance {
	inst := &Instance{Object: Object{Kind: KindInstance}, Type: t, Fields: make([]Value, len(t.FieldNames))}
	for i := range inst.Fields {
		inst.Fields[i] = Null()
	}
	h.Register(inst)
	return inst
}

func NewNativeInstance(h *Heap, typeName string, userData interface{}) *Instance {
	inst := &Instance{Object: Object{Kind: KindInstance}, TypeName: typeName, UserData: userData}
	h.Register(inst)
	return inst
}

func NewBoundMethod(h *Heap, receiver Value, method *Function) *BoundMethod {
	bm := &BoundMethod{Object: Object{Kind: KindBoundMethod}, Receiver: receiver, Method: method}
	h.Register(bm)
	return bm
}

func NewFiber(h *Heap, fn *Function, stackSize int) *Fiber {
	if stackSize <= 0 {
		stackSize = 64
	}
	f := &Fiber{
		Object:   Object{Kind: KindFiber},
		Function: fn,
		State:    FiberNew,
		Stack:    make([]Value, stackSize),
	}
	h.Register(f)
	return f
}
