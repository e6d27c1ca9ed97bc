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

// Package gc implements the precise, non-moving mark-and-sweep collector
// described in §4.C: two-color mark with a grey worklist the collector
// owns (never recursing into the mutator's graph), sweep over the Heap's
// object table, and an allocation-threshold trigger.
package gc

import "github.com/pocketlang/pocketlang/lang/value"

// Allocator is the single realloc(ptr, old_size, new_size) indirection
// hook (§4.C "Allocator indirection"). The Go port models it as a pair of
// counting hooks rather than a literal realloc, since Go objects are not
// manually addressed; OnAlloc/OnFree still let a host observe and account
// for every allocation and free.
type Allocator interface {
	OnAlloc(size int64)
	OnFree(size int64)
}

// DefaultAllocator only tracks totals; it performs no real memory
// management of its own (Go's runtime owns the underlying storage).
type DefaultAllocator struct {
	Live int64
}

func (d *DefaultAllocator) OnAlloc(size int64) { d.Live += size }
func (d *DefaultAllocator) OnFree(size int64)  { d.Live -= size }

// Collector runs mark-and-sweep cycles over a single VM's Heap.
type Collector struct {
	Heap      *value.Heap
	Allocator Allocator

	// TempRoots pins in-flight composite objects the mutator is still
	// constructing (§4.C invariant: "the collector never runs while the
	// mutator holds a temporary, unrooted object").
	TempRoots []value.Obj

	grey []value.Obj
}

// New creates a Collector over h, wiring a DefaultAllocator if alloc is
// nil.
func New(h *value.Heap, alloc Allocator) *Collector {
	if alloc == nil {
		alloc = &DefaultAllocator{}
	}
	return &Collector{Heap: h, Allocator: alloc}
}

// PushTemp roots o for the duration of a composite construction.
func (c *Collector) PushTemp(o value.Obj) { c.TempRoots = append(c.TempRoots, o) }

// PopTemp releases the most recently pushed temp root.
func (c *Collector) PopTemp() {
	if n := len(c.TempRoots); n > 0 {
		c.TempRoots = c.TempRoots[:n-1]
	}
}

// ShouldCollect reports whether the allocation counter has crossed the
// next-GC threshold (§4.C "Trigger").
func (c *Collector) ShouldCollect() bool {
	return c.Heap.BytesAllocated > c.Heap.NextGC
}

// mark pushes obj onto the grey worklist if it isn't already marked.
// mark never recurses (§4.C "Algorithm").
func (c *Collector) mark(obj value.Obj) {
	if obj == nil {
		return
	}
	hdr := obj.Header()
	if hdr.Marked {
		return
	}
	hdr.Marked = true
	c.grey = append(c.grey, obj)
}

// processGrey drains the worklist, marking each referent and tallying
// bytes_allocated so the counter is rebuilt every cycle.
func (c *Collector) processGrey() int64 {
	var total int64
	for len(c.grey) > 0 {
		n := len(c.grey) - 1
		obj := c.grey[n]
		c.grey = c.grey[:n]

		total += value.Size(obj)
		for _, child := range value.Children(c.Heap, obj) {
			c.mark(child)
		}
	}
	return total
}

// RootFn enumerates every object a VM considers a GC root: the modules
// map, core_libs map, builtins table, the current fiber's caller chain,
// and live embedding handles — everything besides the collector's own
// TempRoots, which Collect adds itself. No compiler state is enumerated:
// collections start only from the executor, never during compilation.
type RootFn func(push func(value.Obj))

// Collect runs one full mark-and-sweep cycle: mark from roots, drain the
// grey worklist, sweep the heap's object table freeing anything left
// unmarked (invoking any native-instance delete callback), and recompute
// NextGC for the following cycle (§4.C "Trigger", default grow 150%).
func (c *Collector) Collect(roots RootFn) {
	c.grey = c.grey[:0]

	for _, o := range c.Heap.Objects() {
		if o != nil {
			o.Header().Marked = false
		}
	}

	roots(c.mark)
	for _, o := range c.TempRoots {
		c.mark(o)
	}

	total := c.processGrey()
	c.Heap.BytesAllocated = total

	objs := c.Heap.Objects()
	for i := range objs {
		o := objs[i]
		if o == nil {
			continue
		}
		hdr := o.Header()
		if hdr.Marked {
			hdr.Marked = false
			continue
		}
		if inst, ok := o.(*value.Instance); ok && inst.UserData != nil {
			// Native instance: host-registered delete callback runs at
			// sweep, matching §4.J "delete_fn is invoked by GC sweep".
			if fn := nativeDeleters[inst.TypeName]; fn != nil {
				fn(inst.UserData)
			}
		}
		c.Heap.Free(uint32(i))
	}

	grow := c.Heap.HeapGrowPercent
	if grow <= 0 {
		grow = 150
	}
	floor := c.Heap.GCFloor
	if floor <= 0 {
		floor = defaultFloor
	}
	next := c.Heap.BytesAllocated * int64(grow) / 100
	if next < floor {
		next = floor
	}
	c.Heap.NextGC = next
}

const defaultFloor = 1 << 20

// nativeDeleters lets native classes register a delete_fn keyed by type
// name without the gc package depending on lang/api (§4.J). RegisterDelete
// is called once per native class registration.
var nativeDeleters = map[string]func(interface{}){}

// RegisterDelete wires a native class's delete_fn for sweep-time cleanup.
func RegisterDelete(typeName string, fn func(interface{})) {
	nativeDeleters[typeName] = fn
}
