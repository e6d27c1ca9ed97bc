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

// Children returns every Obj directly reachable from o in one hop: the
// collector (lang/gc) uses this to push referents onto its grey worklist
// without recursing into the mutator's data structures itself. Values
// boxed inline (list items, map entries, instance fields) are decoded
// against h; object-typed struct fields (a Function's owning Module, a
// Class's base class, ...) are already concrete *Obj and need no
// decoding.
func Children(h *Heap, o Obj) []Obj {
	var out []Obj
	appendIfObj := func(v Value) {
		if v.IsObj() {
			if ref := v.AsObj(h); ref != nil {
				out = append(out, ref)
			}
		}
	}

	switch t := o.(type) {
	case *String, *Range:
		// leaves

	case *List:
		for _, v := range t.Items {
			appendIfObj(v)
		}

	case *Map:
		for _, e := range t.entries {
			if e.key.IsUndefined() {
				continue
			}
			appendIfObj(e.key)
			appendIfObj(e.value)
		}

	case *Module:
		if t.Path != nil {
			out = append(out, t.Path)
		}
		if t.Name != nil {
			out = append(out, t.Name)
		}
		if t.Body != nil {
			out = append(out, t.Body)
		}
		for _, fn := range t.Functions {
			out = append(out, fn)
		}
		for _, c := range t.Classes {
			out = append(out, c)
		}
		for _, v := range t.Literals {
			appendIfObj(v)
		}
		for _, v := range t.Globals {
			appendIfObj(v)
		}

	case *Function:
		if t.Owner != nil {
			out = append(out, t.Owner)
		}

	case *Class:
		if t.Owner != nil {
			out = append(out, t.Owner)
		}
		if t.Ctor != nil {
			out = append(out, t.Ctor)
		}
		if t.Base != nil {
			out = append(out, t.Base)
		}
		for _, m := range t.Methods {
			out = append(out, m)
		}

	case *Instance:
		if t.Type != nil {
			out = append(out, t.Type)
		}
		for _, v := range t.Fields {
			appendIfObj(v)
		}

	case *BoundMethod:
		appendIfObj(t.Receiver)
		if t.Method != nil {
			out = append(out, t.Method)
		}

	case *Fiber:
		if t.Function != nil {
			out = append(out, t.Function)
		}
		if t.Caller != nil {
			out = append(out, t.Caller)
		}
		if t.Error != nil {
			out = append(out, t.Error)
		}
		for i := 0; i < t.SP && i < len(t.Stack); i++ {
			appendIfObj(t.Stack[i])
		}
		for _, fr := range t.Frames {
			if fr.Fn != nil {
				out = append(out, fr.Fn)
			}
		}
	}
	return out
}

// Size estimates o's contribution to bytes_allocated for the GC trigger
// heuristic (§4.C). It does not need to be exact, only monotonic with the
// object's real footprint.
func Size(o Obj) int64 {
	const headerSize = 16
	switch t := o.(type) {
	case *String:
		return headerSize + int64(len(t.Bytes))
	case *List:
		return headerSize + int64(len(t.Items))*8
	case *Map:
		return headerSize + int64(len(t.entries))*24
	case *Range:
		return headerSize + 16
	case *Instance:
		return headerSize + int64(len(t.Fields))*8
	case *Fiber:
		return headerSize + int64(len(t.Stack))*8
	case *Function:
		return headerSize + int64(len(t.Opcodes)) + int64(len(t.OpLines))*4
	default:
		return headerSize
	}
}
