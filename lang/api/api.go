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

// Package api is the embedding surface (§4.J): a handle list that pins
// values across host calls and a native-class registrar, both built on
// top of lang/vm.Slots (the slot-window half of the same ABI). It is a
// separate leaf package so lang/vm doesn't need to know native classes or
// handles exist; a host only needs this package when it actually embeds.
package api

import (
	"github.com/pocketlang/pocketlang/lang/gc"
	"github.com/pocketlang/pocketlang/lang/value"
	"github.com/pocketlang/pocketlang/lang/vm"
)

// Handle pins a Value against GC until Release (§4.J "Handles... released
// by the host"). It is a node of Handles' intrusive doubly linked list.
type Handle struct {
	Value      value.Value
	prev, next *Handle
}

// Handles is the live-handle list a VM's GC roots walk (§4.C "live
// handles list"). Create one per VM with NewHandles.
type Handles struct {
	vm   *vm.VM
	head *Handle
}

// NewHandles builds a handle list for m and installs it as m's GC root
// enumerator for handles.
func NewHandles(m *vm.VM) *Handles {
	hs := &Handles{vm: m}
	m.SetHandleRoots(hs.roots)
	return hs
}

// New pins v and returns a Handle the host must eventually Release.
func (hs *Handles) New(v value.Value) *Handle {
	h := &Handle{Value: v, next: hs.head}
	if hs.head != nil {
		hs.head.prev = h
	}
	hs.head = h
	return h
}

// Release unpins h. After this call h must not be used.
func (hs *Handles) Release(h *Handle) {
	if h.prev != nil {
		h.prev.next = h.next
	} else if hs.head == h {
		hs.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	h.prev, h.next = nil, nil
}

func (hs *Handles) roots(push func(value.Obj)) {
	for h := hs.head; h != nil; h = h.next {
		if h.Value.IsObj() {
			push(h.Value.AsObj(hs.vm.Heap))
		}
	}
}

// Method describes one native method or operator to register on a native
// class (§4.J "Fixed method names @getter, @setter, operator names, and
// arbitrary method names are registered with arity").
type Method struct {
	Name  string
	Arity int
	Fn    func(*vm.Slots) error
}

// ClassSpec is the host's registration record for a native class (§4.J
// "The host registers {name, module, new_fn, delete_fn, base?}").
type ClassSpec struct {
	Name    string
	Module  *value.Module // optional; nil for a class with no script-visible module binding
	Base    *value.Class
	NewFn   func() interface{}
	Delete  func(interface{})
	Methods []Method
}

// RegisterClass builds the value.Class for spec, wiring new_fn/delete_fn
// (delete_fn also registered with the GC for sweep-time cleanup) and every
// native method, each boxed as a value.Function whose Native body type-
// asserts its value.NativeVM argument back to *vm.Slots (the concrete type
// every call in this runtime actually passes, per lang/vm.invokeNative).
// When spec.Module is non-nil, cls is also appended to that module's
// Classes table so script code reaches it the same way it reaches any
// other imported module's class, as `module_name.ClassName(...)` (§4.I):
// a bare identifier only ever resolves against the compiling module's own
// class table, so a native class needs a module binding to be visible at
// all outside the package that registered it.
func RegisterClass(m *vm.VM, spec ClassSpec) *value.Class {
	cls := value.NewClass(m.Heap, spec.Module, spec.Name, spec.Base)
	cls.NewFn = spec.NewFn
	cls.DeleteFn = spec.Delete
	if spec.Delete != nil {
		gc.RegisterDelete(spec.Name, spec.Delete)
	}
	for _, meth := range spec.Methods {
		fn := meth.Fn
		cls.Methods[meth.Name] = value.NewNativeFunction(m.Heap, meth.Name, meth.Arity,
			func(nv value.NativeVM) error { return fn(nv.(*vm.Slots)) })
	}
	if spec.Module != nil {
		spec.Module.Classes = append(spec.Module.Classes, cls)
	}
	return cls
}
