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

// Package vm implements the executor (§4.G), the fiber scheduler (§4.H),
// and the module system's runtime half (§4.I): the dispatch loop that
// actually runs the bytecode the compiler emits.
package vm

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/pocketlang/pocketlang/lang/compiler"
	"github.com/pocketlang/pocketlang/lang/gc"
	"github.com/pocketlang/pocketlang/lang/module"
	"github.com/pocketlang/pocketlang/lang/value"
)

var stdinReader = bufio.NewReader(os.Stdin)

// Config is the embedding ABI's configuration record (§6 "Embedding ABI
// surface"), trimmed to the fields this Go port actually threads through:
// realloc_fn has no analogue (Go owns the underlying storage; gc.Allocator
// is the accounting hook instead), and the inst_get/set_attrib callbacks
// are the VM's own NativeGetAttrib/NativeSetAttrib fields.
type Config struct {
	Write      func(text string)              // write_fn
	Read       func() (string, error)          // read_fn
	ResolvePath func(from, name string) (string, error) // resolve_path_fn
	LoadScript func(path string) (string, error)        // load_script_fn
	Error      func(kind ErrorKind, path string, line int, msg string) // error_fn

	HeapGrowPercent int
	GCFloor         int64   // bytes; NextGC never shrinks below this after a cycle
	ImportRateLimit float64 // module loads/sec host callback budget; <=0 disables
	Debug           bool
	ReplMode        bool
}

// ErrorKind mirrors §6's three error_fn categories.
type ErrorKind int

const (
	ErrorCompile ErrorKind = iota
	ErrorRuntime
	ErrorStacktrace
)

// DefaultConfig wires Write to stdout and Read to stdin, as a standalone
// interpreter (cmd/pocketlang) would want without further configuration.
func DefaultConfig() Config {
	return Config{
		Write: func(s string) { io.WriteString(os.Stdout, s) },
		Read: func() (string, error) {
			line, err := stdinReader.ReadString('\n')
			return strings.TrimRight(line, "\r\n"), err
		},
		HeapGrowPercent: 150,
	}
}

// VM is the single context object (§9 "Global mutable state": "no true
// process globals... REPL mode, debug flag... are per-VM configuration").
type VM struct {
	ID uuid.UUID

	Heap *value.Heap
	GC   *gc.Collector

	Scripts  map[string]*value.Module // path -> Module (§4.I)
	CoreLibs map[string]*value.Module // name -> Module

	Current *value.Fiber // the single "current fiber" (§4.H, §5)

	Builtins []*value.Function // indexed by lang/builtin.Index; populated by registerBuiltins

	Config Config
	loader *module.Loader

	handleRoots func(push func(value.Obj)) // installed by lang/api for handle-list GC roots

	// NativeGetAttrib/NativeSetAttrib back attribute access on native
	// instances (those with Type == nil). Nothing in this module sets them;
	// a host assigns them directly, and while they are nil such attribute
	// access is a runtime error (§4.J).
	NativeGetAttrib func(inst *value.Instance, name string) (value.Value, bool)
	NativeSetAttrib func(inst *value.Instance, name string, v value.Value) bool
}

// New creates a VM with a fresh Heap and collector, and wires the module
// loader's Runner back to this VM's own runModuleBody so imports execute their
// body through the same executor.
func New(cfg Config) *VM {
	h := value.NewHeap()
	if cfg.HeapGrowPercent > 0 {
		h.HeapGrowPercent = cfg.HeapGrowPercent
	}
	if cfg.GCFloor > 0 {
		h.GCFloor = cfg.GCFloor
	}
	vm := &VM{
		ID:       uuid.New(),
		Heap:     h,
		GC:       gc.New(h, nil),
		Scripts:  map[string]*value.Module{},
		CoreLibs: map[string]*value.Module{},
		Config:   cfg,
	}
	vm.loader = module.NewLoader(h, module.Host{
		ResolvePath: cfg.ResolvePath,
		LoadScript:  cfg.LoadScript,
	}, vm.runModuleBody, cfg.ImportRateLimit)
	vm.registerBuiltins()
	return vm
}

// SetHandleRoots installs the embedding API's handle-list root enumerator
// (§4.J "Handles... form a linked list that is scanned as GC roots").
func (vm *VM) SetHandleRoots(fn func(push func(value.Obj))) { vm.handleRoots = fn }

// roots enumerates every GC root (§4.C): cached scripts/core_libs, the
// builtins table, the current fiber's caller chain, and any embedding
// handles.
func (vm *VM) roots(push func(value.Obj)) {
	for _, m := range vm.Scripts {
		push(m)
	}
	for _, b := range vm.Builtins {
		push(b)
	}
	for _, m := range vm.CoreLibs {
		push(m)
	}
	for f := vm.Current; f != nil; f = f.Caller {
		push(f)
	}
	if vm.handleRoots != nil {
		vm.handleRoots(push)
	}
}

// CollectGarbage forces an immediate GC cycle, bypassing the usual
// NextGC threshold check — for a host that wants to reclaim memory at a
// point of its own choosing (e.g. between script runs) rather than wait
// for the next triggering allocation (§4.C).
func (vm *VM) CollectGarbage() { vm.GC.Collect(vm.roots) }

// collectIfNeeded triggers a GC cycle when the allocation counter has
// crossed NextGC (§4.C "Trigger"). The executor calls it only before
// PUSH_LIST, PUSH_MAP and PUSH_INSTANCE allocate; string concatenation and
// Fiber() allocate without checking.
func (vm *VM) collectIfNeeded() {
	if vm.GC.ShouldCollect() {
		vm.GC.Collect(vm.roots)
	}
}

// Compile compiles src as a fresh top-level module (not cached in
// vm.Scripts — that cache is reserved for imported modules per §4.I; a
// directly interpreted top-level script is its own root).
func (vm *VM) Compile(path, src string) (*value.Module, error) {
	mod, err := compiler.Compile(vm.Heap, path, src, vm.Config.ReplMode)
	if err != nil {
		if ce, ok := err.(*compiler.CompileError); ok {
			return nil, &CompileError{Path: ce.Path, Line: ce.Line, Message: ce.Message, UnexpectedEOF: ce.UnexpectedEOF}
		}
		return nil, err
	}
	return mod, nil
}

// runModuleBody runs mod's implicit @main function to completion on a
// throwaway fiber, populating mod.Globals (the module.Runner callback).
func (vm *VM) runModuleBody(mod *value.Module) error {
	fiber := value.NewFiber(vm.Heap, mod.Body, 256)
	_, err := vm.Run(fiber, nil)
	return err
}
