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

// Value is a tagged cell holding one of: null, true, false, undefined (a
// tombstone sentinel never visible to scripts), a 64-bit float, or a
// reference to a heap Object (§3).
//
// Two representations satisfy the same external API and are picked at
// build time:
//
//   - default (this file's sibling value_nanbox.go): a single uint64 using
//     NaN-boxing on IEEE-754 doubles, the representation described in §3.
//     A quiet-NaN payload that also has the sign bit set encodes an object
//     reference as a heap-table index rather than a raw pointer, so the
//     encoding never has to hide a pointer from Go's garbage collector.
//   - `pocket_tagged` build tag (value_tagged.go): an explicit tagged
//     union struct. Selected with `go build -tags pocket_tagged`.
//
// Both files expose the same constructors, predicates, and accessors;
// nothing outside this package should depend on which one is compiled in.
package value
