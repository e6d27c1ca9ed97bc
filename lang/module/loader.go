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

// Package module implements §4.I's import resolution, caching, and cycle
// detection, decoupled from the executor via a Runner callback (the loader
// must not import lang/vm, or lang/vm importing lang/module would cycle).
package module

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/pocketlang/pocketlang/lang/compiler"
	"github.com/pocketlang/pocketlang/lang/value"
)

// Host supplies the embedding ABI's resolve_path_fn / load_script_fn pair
// (§6 "Embedding ABI surface").
type Host struct {
	ResolvePath func(from, name string) (string, error)
	LoadScript  func(path string) (string, error)
}

// Runner executes a freshly compiled module's body (its implicit @main
// function) to completion, the same way any zero-argument call would, so
// the module's top-level statements populate its Globals before Load
// returns it to the importer.
type Runner func(mod *value.Module) error

// Loader resolves, compiles, caches, and runs imported modules (§4.I).
// Concurrent requests for the same resolved path are coalesced with
// singleflight: the VM itself is single-threaded (§5), but a host process
// embedding several VM instances may still have multiple fibers across
// those VMs resolve the same library path at once, and re-entrant
// load_script_fn host callbacks for the same path would otherwise race on
// the shared scripts cache. A rate limiter throttles how often the loader
// will invoke the host's load_script_fn for previously-unseen paths, so a
// pathological import loop can't hammer host disk/network I/O.
type Loader struct {
	Host   Host
	Heap   *value.Heap
	Run    Runner
	Limit  *rate.Limiter // nil disables rate limiting
	Replv  bool
	sf     singleflight.Group
	mu     sync.Mutex
	cache  map[string]*value.Module // path -> compiled+run module
	active map[string]bool          // path -> currently being compiled (cycle guard)
}

// NewLoader constructs a Loader. ratePerSec <= 0 disables the limiter.
func NewLoader(h *value.Heap, host Host, run Runner, ratePerSec float64) *Loader {
	l := &Loader{
		Host:   host,
		Heap:   h,
		Run:    run,
		cache:  map[string]*value.Module{},
		active: map[string]bool{},
	}
	if ratePerSec > 0 {
		l.Limit = rate.NewLimiter(rate.Limit(ratePerSec), int(ratePerSec)+1)
	}
	return l
}

// Load resolves name relative to fromPath, compiling and running it if not
// already cached. Cyclic imports surface as a compile-time error (§4.I
// "Import ordering").
func (l *Loader) Load(fromPath, name string) (*value.Module, error) {
	resolved, err := l.Host.ResolvePath(fromPath, name)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve module %q: %w", name, err)
	}

	l.mu.Lock()
	if mod, ok := l.cache[resolved]; ok {
		l.mu.Unlock()
		return mod, nil
	}
	if l.active[resolved] {
		l.mu.Unlock()
		return nil, fmt.Errorf("module %q already importing", resolved)
	}
	l.active[resolved] = true
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		delete(l.active, resolved)
		l.mu.Unlock()
	}()

	v, err, _ := l.sf.Do(resolved, func() (interface{}, error) {
		if l.Limit != nil && !l.Limit.Allow() {
			if werr := l.Limit.Wait(context.Background()); werr != nil {
				return nil, werr
			}
		}
		src, err := l.Host.LoadScript(resolved)
		if err != nil {
			return nil, fmt.Errorf("cannot load module %q: %w", name, err)
		}
		mod, err := compiler.Compile(l.Heap, resolved, src, false)
		if err != nil {
			return nil, err
		}
		if l.Run != nil {
			if err := l.Run(mod); err != nil {
				return nil, err
			}
		}
		l.mu.Lock()
		l.cache[resolved] = mod
		l.mu.Unlock()
		return mod, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*value.Module), nil
}
