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

import "github.com/davecgh/go-spew/spew"

// dumpConfig mirrors the teacher's habit of deep-printing structures in
// test failure output, tuned so cyclic object graphs (§9 "Cyclic object
// graphs") don't run away: spew already cycle-detects on Go pointers, but
// List/Map store heap indices rather than pointers, so DumpTree walks the
// graph itself via Children and hands spew only the already-deduplicated
// snapshot.
var dumpConfig = &spew.ConfigState{
	Indent:                  "  ",
	DisableMethods:          true,
	DisablePointerAddresses: true,
	MaxDepth:                0,
}

// DumpTree renders v's object graph for debugging and test-failure output.
// seen breaks cycles the same way ToString does, printing "<cycle>" on
// re-entry instead of recursing forever.
func DumpTree(h *Heap, v Value) string {
	return dumpConfig.Sdump(snapshot(h, v, nil))
}

// snapshot walks v into a plain Go value (map/slice/string/float64/bool/nil)
// that spew can render without needing to know about the Heap indirection,
// substituting the literal string "<cycle>" for any object already on the
// current path.
func snapshot(h *Heap, v Value, seen []Obj) interface{} {
	switch {
	case v.IsNull():
		return nil
	case v.IsUndefined():
		return "undefined"
	case v.IsBool():
		return v.AsBool()
	case v.IsNum():
		return v.AsNum()
	case v.IsObj():
		o := v.AsObj(h)
		if o == nil {
			return nil
		}
		for _, s := range seen {
			if s == o {
				return "<cycle>"
			}
		}
		seen = append(seen, o)
		switch t := o.(type) {
		case *String:
			return string(t.Bytes)
		case *Range:
			return [2]float64{t.From, t.To}
		case *List:
			out := make([]interface{}, len(t.Items))
			for i, item := range t.Items {
				out[i] = snapshot(h, item, seen)
			}
			return out
		case *Map:
			out := map[string]interface{}{}
			for _, e := range t.entries {
				if e.key.IsUndefined() {
					continue
				}
				out[ToString(h, e.key, true)] = snapshot(h, e.value, seen)
			}
			return out
		case *Instance:
			out := map[string]interface{}{}
			if t.Type != nil {
				for i, name := range t.Type.FieldNames {
					if i < len(t.Fields) {
						out[name] = snapshot(h, t.Fields[i], seen)
					}
				}
				return map[string]interface{}{"<instance of>": t.Type.Name, "fields": out}
			}
			return map[string]interface{}{"<native instance of>": t.TypeName}
		default:
			return ToString(h, v, true)
		}
	}
	return nil
}
