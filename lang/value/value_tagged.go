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

//go:build pocket_tagged

package value

// Value is an explicit tagged union, selected with `-tags pocket_tagged`.
// It trades the default build's packed 8 bytes for clarity and for hosts
// that would rather not reason about NaN-boxing at all; externally it
// behaves identically to the default representation.
type Value struct {
	tag tagKind
	num float64
	obj Obj
}

type tagKind uint8

const (
	tagNullK tagKind = iota
	tagFalseK
	tagTrueK
	tagUndefinedK
	tagNumK
	tagObjK
)

func Null() Value      { return Value{tag: tagNullK} }
func True() Value      { return Value{tag: tagTrueK} }
func False() Value     { return Value{tag: tagFalseK} }
func Undefined() Value { return Value{tag: tagUndefinedK} }
func Bool(b bool) Value {
	if b {
		return True()
	}
	return False()
}
func Num(f float64) Value { return Value{tag: tagNumK, num: f} }

// ObjVal boxes a heap reference. h is unused in this representation
// (the object pointer travels with the Value directly) but kept in the
// signature so callers are representation-agnostic.
func ObjVal(h *Heap, o Obj) Value { return Value{tag: tagObjK, obj: o} }

func (v Value) IsNum() bool       { return v.tag == tagNumK }
func (v Value) IsObj() bool       { return v.tag == tagObjK }
func (v Value) IsNull() bool      { return v.tag == tagNullK }
func (v Value) IsUndefined() bool { return v.tag == tagUndefinedK }
func (v Value) IsBool() bool      { return v.tag == tagTrueK || v.tag == tagFalseK }
func (v Value) IsTrue() bool      { return v.tag == tagTrueK }

func (v Value) AsNum() float64 { return v.num }
func (v Value) AsBool() bool   { return v.tag == tagTrueK }
func (v Value) AsObj(h *Heap) Obj { return v.obj }
