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

// Map implements an open-addressed hash table with linear probing (§3,
// §4.B). An Undefined key marks an empty slot; an Undefined key paired
// with a True value marks a tombstone left by Delete. find remembers the
// first tombstone seen so Set can reuse it when the key isn't already
// present, same as the host's probe-and-remember-first-tombstone rule.

// Count returns the number of live entries (invariant 3).
func (m *Map) Count() int { return m.count }

// find returns the entry index for key, and whether it was found. When
// not found, the returned index is the first tombstone seen (or the first
// empty slot if none), suitable for insertion.
func (m *Map) find(h *Heap, key Value) (idx int, found bool) {
	cap := len(m.entries)
	start := int(hash(h, key) % uint32(cap))
	firstTombstone := -1

	for i := 0; i < cap; i++ {
		slot := (start + i) % cap
		e := &m.entries[slot]
		if e.key.IsUndefined() {
			if e.value.IsTrue() { // tombstone
				if firstTombstone == -1 {
					firstTombstone = slot
				}
				continue
			}
			// Truly empty.
			if firstTombstone != -1 {
				return firstTombstone, false
			}
			return slot, false
		}
		if equals(h, e.key, key) {
			return slot, true
		}
	}
	if firstTombstone != -1 {
		return firstTombstone, false
	}
	return -1, false
}

func (m *Map) grow(h *Heap, newCap int) {
	old := m.entries
	m.entries = make([]mapEntry, newCap)
	for i := range m.entries {
		m.entries[i].key = Undefined()
	}
	m.count = 0
	for _, e := range old {
		if e.key.IsUndefined() {
			continue
		}
		m.Set(h, e.key, e.value)
	}
}

// Get looks up key, returning (value, true) if present.
func (m *Map) Get(h *Heap, key Value) (Value, bool) {
	if len(m.entries) == 0 {
		return Undefined(), false
	}
	idx, found := m.find(h, key)
	if !found {
		return Undefined(), false
	}
	return m.entries[idx].value, true
}

// Set inserts or overwrites key -> val, growing the table at 75% load
// factor (§4.C "Map find").
func (m *Map) Set(h *Heap, key, val Value) {
	if len(m.entries)*3 <= (m.count+1)*4 {
		m.grow(h, len(m.entries)*2)
	}
	idx, found := m.find(h, key)
	e := &m.entries[idx]
	e.key = key
	e.value = val
	if !found {
		m.count++
	}
}

// Delete removes key, leaving a tombstone. Reports whether key was present.
func (m *Map) Delete(h *Heap, key Value) bool {
	if len(m.entries) == 0 {
		return false
	}
	idx, found := m.find(h, key)
	if !found {
		return false
	}
	m.entries[idx].key = Undefined()
	m.entries[idx].value = True() // tombstone marker
	m.count--

	if len(m.entries) > MinCapacity && m.count*4 <= len(m.entries) {
		newCap := len(m.entries) / 2
		if newCap < MinCapacity {
			newCap = MinCapacity
		}
		m.grow(h, newCap)
	}
	return true
}

// Keys returns every live key, in table-slot order (unspecified relative
// to insertion order, consistent with §8 property 3's "any key order").
func (m *Map) Keys() []Value {
	out := make([]Value, 0, m.count)
	for _, e := range m.entries {
		if !e.key.IsUndefined() {
			out = append(out, e.key)
		}
	}
	return out
}
