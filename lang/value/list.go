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

// Len reports the list's element count.
func (l *List) Len() int { return len(l.Items) }

// Insert shifts elements right of i and places v at i (§4.B "List insert
// /remove"). i == Len() appends.
func (l *List) Insert(i int, v Value) {
	l.Items = append(l.Items, Null())
	copy(l.Items[i+1:], l.Items[i:])
	l.Items[i] = v
}

// RemoveAt shifts elements left, returning the removed value, and shrinks
// the backing buffer by half once occupancy drops to 50%, never below
// MinCapacity.
func (l *List) RemoveAt(i int) Value {
	v := l.Items[i]
	copy(l.Items[i:], l.Items[i+1:])
	l.Items = l.Items[:len(l.Items)-1]

	if cap(l.Items) > MinCapacity && len(l.Items)*2 <= cap(l.Items) {
		newCap := cap(l.Items) / 2
		if newCap < MinCapacity {
			newCap = MinCapacity
		}
		shrunk := make([]Value, len(l.Items), newCap)
		copy(shrunk, l.Items)
		l.Items = shrunk
	}
	return v
}
