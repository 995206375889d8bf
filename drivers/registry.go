// Copyright © 2024 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package drivers keeps track of database drivers loaded for the duration of
// a task. Drivers registered natively with database/sql are used directly,
// other drivers are resolved from a Loader and registered in a table owned by
// this package, so that they can be removed again once the task is done.
package drivers

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

var ErrNoSuitableDriver = errors.New("no suitable driver")

// DefaultCleanupSymbols are looked up in a loader when its registration is
// removed. Functions found under these names are invoked to stop background
// resources started by the driver.
var DefaultCleanupSymbols = []string{"Shutdown", "Close"}

// Default is the process wide registry.
var Default = NewRegistry()

type State int

const (
	StateUnregistered State = iota
	StateNativeActive
	StateShimActive
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "UNREGISTERED"
	case StateNativeActive:
		return "NATIVE_ACTIVE"
	case StateShimActive:
		return "SHIM_ACTIVE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// CleanupError is logged when a cleanup symbol fails. It is never returned to
// the caller.
type CleanupError struct {
	LoaderID string
	Symbol   string
	Err      error
}

func (e *CleanupError) Error() string {
	return fmt.Sprintf("cleanup %s of driver loader %s failed: %v", e.Symbol, e.LoaderID, e.Err)
}

func (e *CleanupError) Unwrap() error { return e.Err }

type entry struct {
	name   string
	loader Loader
	driver driver.Driver
	refs   int
	active bool
}

// Entry describes a registration.
type Entry struct {
	Name     string
	LoaderID string
	Refs     int
}

// Registry is a reference counted table of driver registrations. All methods
// are safe for concurrent use.
type Registry struct {
	// m guards entries
	m sync.Mutex
	// entries maps the loader ID to its registration.
	entries map[string]*entry

	cleanupSymbols []string
	nativeDrivers  func() []string
}

type Option func(*Registry)

// WithCleanupSymbols replaces DefaultCleanupSymbols.
func WithCleanupSymbols(symbols ...string) Option {
	return func(r *Registry) {
		r.cleanupSymbols = symbols
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		entries:        make(map[string]*entry),
		cleanupSymbols: DefaultCleanupSymbols,
		nativeDrivers:  sql.Drivers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Ensure makes the driver with the given name usable for one task. If the
// driver is registered with database/sql it is used directly and loader may
// be nil. Otherwise the driver is resolved from the loader and registered in
// r, replacing any registration of the same loader under a different name.
// The returned handle must be released when the task is done.
func (r *Registry) Ensure(ctx context.Context, name string, loader Loader) (*Handle, error) {
	if slices.Contains(r.nativeDrivers(), name) {
		zerolog.Ctx(ctx).Debug().Str("driver", name).Msg("using natively registered driver")
		return &Handle{registry: r, name: name, state: StateNativeActive}, nil
	}
	if loader == nil {
		return nil, fmt.Errorf("driver %q: %w", name, ErrNoSuitableDriver)
	}

	r.m.Lock()
	e, stale, err := r.register(name, loader)
	r.m.Unlock()

	if stale != nil {
		zerolog.Ctx(ctx).Info().
			Str("driver", stale.name).
			Str("loader", loader.ID()).
			Msg("removed stale driver registration")
		r.cleanup(ctx, stale.loader)
	}
	if err != nil {
		return nil, err
	}

	zerolog.Ctx(ctx).Debug().
		Str("driver", name).
		Str("loader", loader.ID()).
		Int("refs", e.refs).
		Msg("driver registered")
	return &Handle{registry: r, name: name, entry: e, state: StateShimActive}, nil
}

// register must be called with r.m held.
func (r *Registry) register(name string, loader Loader) (e *entry, stale *entry, err error) {
	if e, ok := r.entries[loader.ID()]; ok {
		if e.name == name {
			e.refs++
			return e, nil, nil
		}
		delete(r.entries, loader.ID())
		e.active = false
		stale = e
	}

	sym, err := loader.Lookup(DriverSymbol)
	if err != nil {
		return nil, stale, fmt.Errorf("driver %q: %w: %w", name, ErrNoSuitableDriver, err)
	}
	drv, err := asDriver(sym)
	if err != nil {
		return nil, stale, fmt.Errorf("driver %q: %w: %w", name, ErrNoSuitableDriver, err)
	}

	e = &entry{
		name:   name,
		loader: loader,
		driver: drv,
		refs:   1,
		active: true,
	}
	r.entries[loader.ID()] = e
	return e, stale, nil
}

// Entries returns a snapshot of the current registrations sorted by loader ID.
func (r *Registry) Entries() []Entry {
	r.m.Lock()
	defer r.m.Unlock()

	out := make([]Entry, 0, len(r.entries))
	for id, e := range r.entries {
		out = append(out, Entry{Name: e.name, LoaderID: id, Refs: e.refs})
	}
	slices.SortFunc(out, func(a, b Entry) int {
		switch {
		case a.LoaderID < b.LoaderID:
			return -1
		case a.LoaderID > b.LoaderID:
			return 1
		}
		return 0
	})
	return out
}

func (r *Registry) release(ctx context.Context, e *entry) {
	r.m.Lock()
	e.refs--
	retired := e.refs <= 0 && e.active
	if retired {
		e.active = false
		if r.entries[e.loader.ID()] == e {
			delete(r.entries, e.loader.ID())
		}
	}
	r.m.Unlock()

	if retired {
		zerolog.Ctx(ctx).Debug().
			Str("driver", e.name).
			Str("loader", e.loader.ID()).
			Msg("driver deregistered")
		r.cleanup(ctx, e.loader)
	}
}

// resolve returns the driver of the entry if it is still registered.
func (r *Registry) resolve(e *entry) (driver.Driver, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if !e.active {
		return nil, fmt.Errorf("driver %q: %w", e.name, ErrNoSuitableDriver)
	}
	return e.driver, nil
}

// cleanup invokes the cleanup symbols of a retired loader. Failures are logged
// and never returned.
func (r *Registry) cleanup(ctx context.Context, loader Loader) {
	logger := zerolog.Ctx(ctx)
	for _, symbol := range r.cleanupSymbols {
		sym, err := loader.Lookup(symbol)
		if errors.Is(err, ErrSymbolNotFound) {
			continue
		}
		if err == nil {
			err = invoke(sym)
		}
		if err != nil {
			logger.Warn().
				Err(&CleanupError{LoaderID: loader.ID(), Symbol: symbol, Err: err}).
				Msg("driver cleanup failed")
		}
	}
}

func invoke(sym any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	switch fn := sym.(type) {
	case func():
		fn()
		return nil
	case func() error:
		return fn()
	case *func():
		(*fn)()
		return nil
	case *func() error:
		return (*fn)()
	default:
		return fmt.Errorf("unexpected symbol type %T", sym)
	}
}
