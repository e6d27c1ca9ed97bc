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

// Package value implements the tagged Value representation, the heap Object
// layout, and the built-in container kinds (String, List, Map, Range,
// Module, Function, Class, Instance, Fiber).
package value

import "fmt"

// Kind identifies the concrete shape of a heap Object.
type Kind uint8

const (
	KindString Kind = iota
	KindList
	KindMap
	KindRange
	KindModule
	KindFunction
	KindClass
	KindInstance
	KindFiber
	KindBoundMethod
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "String"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindRange:
		return "Range"
	case KindModule:
		return "Module"
	case KindFunction:
		return "Function"
	case KindClass:
		return "Class"
	case KindInstance:
		return "Instance"
	case KindFiber:
		return "Fiber"
	case KindBoundMethod:
		return "BoundMethod"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Object is the common header every heap value carries. heapIndex is the
// slot this object occupies in its owning Heap's object table; it is how
// a nan-boxed Value finds its way back to the concrete object without the
// runtime needing to hide a raw pointer from Go's garbage collector.
type Object struct {
	Kind      Kind
	Marked    bool
	heapIndex uint32
}

// Header satisfies Obj and lets embedding types participate in the heap
// table and the mark-sweep collector uniformly.
func (o *Object) Header() *Object { return o }

// Obj is implemented by every heap-allocated kind.
type Obj interface {
	Header() *Object
}

// MinCapacity is the floor below which List/Map backing storage never
// shrinks (§4.B).
const MinCapacity = 8

// String is an immutable byte sequence with a precomputed FNV-1a hash.
type String struct {
	Object
	Bytes []byte
	Hash  uint32
}

func fnv1a32(b []byte) uint32 {
	const offset32 = 2166136261
	const prime32 = 16777619
	h := uint32(offset32)
	for _, c := range b {
		h ^= uint32(c)
		h *= prime32
	}
	return h
}

// List is a growable sequence of Values.
type List struct {
	Object
	Items []Value
}

// mapEntry is a single Map slot. A key equal to Undefined marks an empty
// slot; an Undefined key paired with a True value marks a tombstone.
type mapEntry struct {
	key   Value
	value Value
}

// Map is an open-addressed hash table with linear probing (§3, §4.B).
type Map struct {
	Object
	entries []mapEntry
	count   int // live entries only, per invariant 3
}

// Range is the exclusive interval [From, To).
type Range struct {
	Object
	From, To float64
}

// NameIndex is a compact per-module identifier index (§3 "Name pool").
type NameIndex uint32

// Module (a.k.a. Script) is a unit of compilation (§3, §4.I).
type Module struct {
	Object
	Path        *String
	Name        *String // nil until a leading `module foo` statement names it
	Initialized bool
	Globals     []Value
	GlobalNames []string
	Literals    []Value
	Functions   []*Function
	Classes     []*Class
	NamePool    []string
	Body        *Function // implicit function compiled from top-level statements
}

// Function is either a bytecode function or a native (host-provided) one.
// Arity == -1 means variadic.
type Function struct {
	Object
	Name      string
	Owner     *Module
	Arity     int
	Docstring string

	// Bytecode function fields.
	Opcodes   []byte
	OpLines   []uint32 // one entry per byte in Opcodes
	StackSize int

	// Native function field.
	Native func(vm NativeVM) error
}

// NativeVM is the narrow surface a native function body needs; it is
// satisfied by the embedding API's slot window (lang/api), kept here as an
// interface to avoid value depending on vm/api.
type NativeVM interface {
	SlotCount() int
}

func (f *Function) IsNative() bool { return f.Native != nil }

// Class is a script or native class descriptor (§3).
type Class struct {
	Object
	Owner      *Module
	Name       string
	FieldNames []string
	Ctor       *Function // compiler-synthesised constructor
	Base       *Class

	// Native class registration (§4.J).
	NewFn    func() interface{}
	DeleteFn func(interface{})
	Methods  map[string]*Function
}

// Instance is either a script instance (fields sized to the class) or a
// native instance wrapping an opaque host pointer.
type Instance struct {
	Object
	Type   *Class
	Fields []Value // script instances: len == len(Type.FieldNames)

	UserData interface{} // native instances
	TypeName string

	filled int // next index INST_APPEND writes, during PUSH_INSTANCE/.../INST_APPEND construction
}

// Append sets the next not-yet-initialized field in construction order
// (§4.F "PUSH_INSTANCE, INST_APPEND"). Synthesized constructors always
// emit exactly len(Fields) appends, one per declared field, in order.
func (i *Instance) Append(v Value) {
	if i.filled < len(i.Fields) {
		i.Fields[i.filled] = v
		i.filled++
	}
}

// FiberState is the cooperative scheduler's state machine (§4.H).
type FiberState uint8

const (
	FiberNew FiberState = iota
	FiberRunning
	FiberYielded
	FiberDone
	FiberError
)

func (s FiberState) String() string {
	switch s {
	case FiberNew:
		return "NEW"
	case FiberRunning:
		return "RUNNING"
	case FiberYielded:
		return "YIELDED"
	case FiberDone:
		return "DONE"
	case FiberError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// BoundMethod pairs an instance with one of its class's methods, the
// value GET_ATTRIB produces when the attribute name resolves to a method
// rather than a field (§4.G "closure/method bound to an instance: the
// instance occupies the callee slot as self").
type BoundMethod struct {
	Object
	Receiver Value
	Method   *Function
}

// Frame is one call-frame on a Fiber's frame stack.
type Frame struct {
	Fn      *Function
	IP      int // index into Fn.Opcodes
	BP      int // base pointer into the Fiber's value stack
	IsTail  bool
}

// Fiber is a first-class cooperative thread of execution (§4.H).
type Fiber struct {
	Object
	Function *Function
	State    FiberState

	Stack  []Value
	SP     int
	Frames []Frame

	Caller *Fiber
	Error  *String
}
