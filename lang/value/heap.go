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

// Heap owns every live Object for one VM instance. It plays two roles: it
// is the intrusive object table the collector (lang/gc) sweeps, and — for
// the nan-boxing Value build — it is the table a boxed Value's object
// index is resolved against. Index reuse (a free list) keeps the table
// from growing unboundedly across many GC cycles.
type Heap struct {
	objects []Obj // nil slots are free (collected and reclaimed)
	free    []uint32

	BytesAllocated int64
	NextGC         int64 // threshold; grows by HeapGrowPercent per cycle
	HeapGrowPercent int
	GCFloor        int64 // NextGC never shrinks below this after a cycle
}

const defaultGCFloor = 1 << 20 // 1 MiB, per §4.C

// NewHeap creates an empty Heap with the default GC tuning.
func NewHeap() *Heap {
	return &Heap{
		NextGC:          defaultGCFloor,
		HeapGrowPercent: 150,
		GCFloor:         defaultGCFloor,
	}
}

// Register assigns obj a slot in the object table, reusing a freed index
// when available, adds obj's Size to BytesAllocated, and returns the index
// assigned.
func (h *Heap) Register(obj Obj) uint32 {
	hdr := obj.Header()
	h.BytesAllocated += Size(obj)
	if n := len(h.free); n > 0 {
		idx := h.free[n-1]
		h.free = h.free[:n-1]
		h.objects[idx] = obj
		hdr.heapIndex = idx
		return idx
	}
	idx := uint32(len(h.objects))
	h.objects = append(h.objects, obj)
	hdr.heapIndex = idx
	return idx
}

// At resolves a heap index back to its Obj; used to decode a nan-boxed
// Value's payload. Returns nil if the slot has been freed (stale Value).
func (h *Heap) At(idx uint32) Obj {
	if int(idx) >= len(h.objects) {
		return nil
	}
	return h.objects[idx]
}

// Objects returns every live slot for the sweep phase to walk. Callers
// must not retain the slice across a subsequent Free call.
func (h *Heap) Objects() []Obj { return h.objects }

// Free reclaims idx's slot, recording it for reuse and clearing the
// pointer so the table doesn't keep the Go GC from collecting the
// underlying Go allocation.
func (h *Heap) Free(idx uint32) {
	h.objects[idx] = nil
	h.free = append(h.free, idx)
}

// index is a small helper used by the nan-boxing Value build.
func index(obj Obj) uint32 { return obj.Header().heapIndex }
