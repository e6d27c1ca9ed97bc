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

//go:build !pocket_tagged

package value

import "math"

// Value is a NaN-boxed 64-bit cell. Layout follows the classic
// quiet-NaN-payload trick: any bit pattern that is not a valid IEEE-754
// double is free to be repurposed, so long as it falls inside the NaN
// range. Real doubles (including NaN/Inf values produced by arithmetic)
// round-trip exactly because only a specific quiet-NaN tag pattern
// (qnanTag) plus the sign bit are reserved.
type Value uint64

const (
	signBit = uint64(1) << 63
	qnanTag = uint64(0x7ffc000000000000)

	tagNull      = uint64(1)
	tagFalse     = uint64(2)
	tagTrue      = uint64(3)
	tagUndefined = uint64(4)
)

var (
	nullValue      = Value(qnanTag | tagNull)
	falseValue     = Value(qnanTag | tagFalse)
	trueValue      = Value(qnanTag | tagTrue)
	undefinedValue = Value(qnanTag | tagUndefined)
)

func Null() Value      { return nullValue }
func True() Value      { return trueValue }
func False() Value     { return falseValue }
func Undefined() Value { return undefinedValue }
func Bool(b bool) Value {
	if b {
		return trueValue
	}
	return falseValue
}

// Num boxes a float64. NaN/Inf payloads produced by arithmetic are stored
// verbatim since they never collide with qnanTag (which has its own
// distinguishing low bits, 1-4, that real arithmetic never produces from
// a canonical quiet NaN).
func Num(f float64) Value { return Value(math.Float64bits(f)) }

// ObjVal boxes a heap reference as a sign-bit|qnan-tagged index into h.
func ObjVal(h *Heap, o Obj) Value {
	return Value(signBit | qnanTag | uint64(index(o)))
}

func (v Value) IsNum() bool { return (uint64(v) & qnanTag) != qnanTag }

func (v Value) IsObj() bool { return uint64(v)&(qnanTag|signBit) == (qnanTag | signBit) }

func (v Value) IsNull() bool { return v == nullValue }

func (v Value) IsUndefined() bool { return v == undefinedValue }

func (v Value) IsBool() bool { return v == trueValue || v == falseValue }

func (v Value) IsTrue() bool { return v == trueValue }

// AsNum is unchecked: callers must have verified IsNum first.
func (v Value) AsNum() float64 { return math.Float64frombits(uint64(v)) }

// AsBool is unchecked.
func (v Value) AsBool() bool { return v == trueValue }

// AsObj resolves the boxed heap index against h. Unchecked: callers must
// have verified IsObj first. Returns nil if the reference is stale (the
// slot was already swept), which callers should treat as a contract
// violation (invariant 5) rather than a recoverable condition.
func (v Value) AsObj(h *Heap) Obj {
	idx := uint32(uint64(v) & 0xffffffff)
	return h.At(idx)
}
