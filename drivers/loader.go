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

package drivers

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"plugin"
	"sync"

	"github.com/google/uuid"
)

// DriverSymbol is the symbol a Loader must export. It can be a driver.Driver,
// a pointer to one, or a function returning one.
const DriverSymbol = "Driver"

var ErrSymbolNotFound = errors.New("symbol not found")

// Loader loads driver symbols from an isolated artifact. Each loader has a
// stable identity, a registry holds at most one registration per loader.
type Loader interface {
	ID() string
	Lookup(symbol string) (any, error)
}

// StaticLoader serves symbols from memory. It is used for drivers compiled
// into the connector and in tests.
type StaticLoader struct {
	id      string
	symbols map[string]any
}

// NewStaticLoader returns a loader serving the given symbols. If id is empty a
// random one is generated.
func NewStaticLoader(id string, symbols map[string]any) *StaticLoader {
	if id == "" {
		id = uuid.NewString()
	}
	return &StaticLoader{id: id, symbols: symbols}
}

func (l *StaticLoader) ID() string { return l.id }

func (l *StaticLoader) Lookup(symbol string) (any, error) {
	s, ok := l.symbols[symbol]
	if !ok {
		return nil, fmt.Errorf("%s: %w", symbol, ErrSymbolNotFound)
	}
	return s, nil
}

// PluginLoader loads symbols from a Go plugin.
type PluginLoader struct {
	path string
	p    *plugin.Plugin
}

var (
	pluginsMu sync.Mutex
	plugins   = map[string]*PluginLoader{}
)

// OpenPlugin opens the Go plugin at path. Plugins can't be unloaded, opening
// the same path again returns the same loader.
func OpenPlugin(path string) (*PluginLoader, error) {
	pluginsMu.Lock()
	defer pluginsMu.Unlock()

	if l, ok := plugins[path]; ok {
		return l, nil
	}
	p, err := plugin.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open driver plugin %q: %w", path, err)
	}
	l := &PluginLoader{path: path, p: p}
	plugins[path] = l
	return l, nil
}

func (l *PluginLoader) ID() string { return l.path }

func (l *PluginLoader) Lookup(symbol string) (any, error) {
	s, err := l.p.Lookup(symbol)
	if err != nil {
		return nil, fmt.Errorf("%s: %w (%v)", symbol, ErrSymbolNotFound, err)
	}
	return s, nil
}

func asDriver(sym any) (driver.Driver, error) {
	switch v := sym.(type) {
	case driver.Driver:
		return v, nil
	case *driver.Driver:
		if v == nil || *v == nil {
			return nil, errors.New("driver symbol is nil")
		}
		return *v, nil
	case func() driver.Driver:
		return v(), nil
	default:
		return nil, fmt.Errorf("symbol %s has unexpected type %T", DriverSymbol, sym)
	}
}
