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

import (
	"math"
	"strconv"
	"strings"
)

// hash implements §4.A's hash(v): strings use their precomputed FNV-1a
// hash, ranges hash as hash(from) XOR hash(to), numbers and the
// null/bool/undefined sentinels hash to small fixed patterns, and object
// identity (heap index) is the fallback for everything else.
func hash(h *Heap, v Value) uint32 {
	switch {
	case v.IsNull():
		return 0x4e554c4c // "NULL"
	case v.IsUndefined():
		return 0x55444546
	case v.IsBool():
		if v.AsBool() {
			return 1
		}
		return 0
	case v.IsNum():
		bits := math.Float64bits(v.AsNum())
		return uint32(bits) ^ uint32(bits>>32)
	case v.IsObj():
		o := v.AsObj(h)
		switch t := o.(type) {
		case *String:
			return t.Hash
		case *Range:
			return hash(h, Num(t.From)) ^ hash(h, Num(t.To))
		default:
			return o.Header().heapIndex
		}
	}
	return 0
}

// Hash is the exported form of hash, for callers outside the package
// (the bytecode executor's MAP_INSERT / subscript opcodes).
func Hash(h *Heap, v Value) uint32 { return hash(h, v) }

// equals implements §4.A's equals(a,b): deep structural equality for
// strings/ranges/lists, identity for everything else (maps, instances,
// functions, classes, modules, fibers compare by heap identity).
func equals(h *Heap, a, b Value) bool {
	if a.IsNum() && b.IsNum() {
		return a.AsNum() == b.AsNum()
	}
	if a.IsBool() && b.IsBool() {
		return a.AsBool() == b.AsBool()
	}
	if a.IsNull() && b.IsNull() {
		return true
	}
	if a.IsUndefined() && b.IsUndefined() {
		return true
	}
	if a.IsObj() && b.IsObj() {
		oa, ob := a.AsObj(h), b.AsObj(h)
		switch ta := oa.(type) {
		case *String:
			tb, ok := ob.(*String)
			return ok && ta.Hash == tb.Hash && string(ta.Bytes) == string(tb.Bytes)
		case *Range:
			tb, ok := ob.(*Range)
			return ok && ta.From == tb.From && ta.To == tb.To
		case *List:
			tb, ok := ob.(*List)
			if !ok || len(ta.Items) != len(tb.Items) {
				return false
			}
			for i := range ta.Items {
				if !equals(h, ta.Items[i], tb.Items[i]) {
					return false
				}
			}
			return true
		default:
			return oa == ob
		}
	}
	return false
}

// Equals is the exported form of equals.
func Equals(h *Heap, a, b Value) bool { return equals(h, a, b) }

// ToString renders v. repr selects the "representation" form (strings
// are quoted) versus the plain form (strings render raw, used by print
// and by String.format's '$'). It is cycle-safe for lists and maps: an
// outer-sequence chain is threaded through recursive calls and any
// re-entrant object renders as "[...]" / "{...}" (§8 property 8, §9
// "Cyclic object graphs").
func ToString(h *Heap, v Value, repr bool) string {
	return toStringSeen(h, v, repr, nil)
}

func toStringSeen(h *Heap, v Value, repr bool, seen []Obj) string {
	switch {
	case v.IsNull():
		return "null"
	case v.IsUndefined():
		return "undefined"
	case v.IsBool():
		if v.AsBool() {
			return "true"
		}
		return "false"
	case v.IsNum():
		return formatNumber(v.AsNum())
	case v.IsObj():
		o := v.AsObj(h)
		if o == nil {
			return "null"
		}
		for _, s := range seen {
			if s == o {
				switch o.(type) {
				case *Map:
					return "{...}"
				default:
					return "[...]"
				}
			}
		}
		switch t := o.(type) {
		case *String:
			if repr {
				return strconv.Quote(string(t.Bytes))
			}
			return string(t.Bytes)
		case *Range:
			return formatNumber(t.From) + ".." + formatNumber(t.To)
		case *List:
			seen = append(seen, o)
			var sb strings.Builder
			sb.WriteByte('[')
			for i, item := range t.Items {
				if i > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(toStringSeen(h, item, true, seen))
			}
			sb.WriteByte(']')
			return sb.String()
		case *Map:
			seen = append(seen, o)
			var sb strings.Builder
			sb.WriteByte('{')
			first := true
			for _, e := range t.entries {
				if e.key.IsUndefined() {
					continue
				}
				if !first {
					sb.WriteString(", ")
				}
				first = false
				sb.WriteString(toStringSeen(h, e.key, true, seen))
				sb.WriteByte(':')
				sb.WriteString(toStringSeen(h, e.value, true, seen))
			}
			sb.WriteByte('}')
			return sb.String()
		case *Function:
			return "<fn " + t.Name + ">"
		case *Class:
			return "<class " + t.Name + ">"
		case *Instance:
			if t.Type != nil {
				return "<instance of " + t.Type.Name + ">"
			}
			return "<instance of " + t.TypeName + ">"
		case *Module:
			return "<module " + string(t.Path.Bytes) + ">"
		case *Fiber:
			return "<fiber>"
		case *BoundMethod:
			return "<bound method " + t.Method.Name + ">"
		}
	}
	return "?"
}

// formatNumber renders a float64 per §8 property 1: -0.0 -> "-0", NaN ->
// "nan", +Inf -> "+inf", -Inf -> "-inf"; integral values render without a
// trailing ".0" the way the host's number formatting does.
func formatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "+inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	if f == 0 && math.Signbit(f) {
		return "-0"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
