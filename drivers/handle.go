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
	"context"
	"database/sql"
	"database/sql/driver"
	"sync"
)

// Handle is the registration of a driver for one task.
type Handle struct {
	registry *Registry
	name     string
	entry    *entry

	m     sync.Mutex
	state State
}

func (h *Handle) Name() string { return h.name }

func (h *Handle) State() State {
	h.m.Lock()
	defer h.m.Unlock()
	return h.state
}

// Connector returns a connector for the data source. Connectors of shim
// registrations resolve the driver on every connect and fail with
// ErrNoSuitableDriver once the registration was released.
func (h *Handle) Connector(dsn string) (driver.Connector, error) {
	if h.entry != nil {
		return &shimConnector{registry: h.registry, entry: h.entry, dsn: dsn}, nil
	}
	db, err := sql.Open(h.name, dsn)
	if err != nil {
		return nil, err
	}
	drv := db.Driver()
	_ = db.Close()
	if dc, ok := drv.(driver.DriverContext); ok {
		return dc.OpenConnector(dsn)
	}
	return dsnConnector{driver: drv, dsn: dsn}, nil
}

// Open opens a database using the driver.
func (h *Handle) Open(dsn string) (*sql.DB, error) {
	if h.entry == nil {
		return sql.Open(h.name, dsn)
	}
	c, err := h.Connector(dsn)
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(c), nil
}

// Release ends the registration. Releasing a handle more than once is a
// no-op.
func (h *Handle) Release(ctx context.Context) {
	h.m.Lock()
	state := h.state
	h.state = StateUnregistered
	h.m.Unlock()

	if state == StateShimActive {
		h.registry.release(ctx, h.entry)
	}
}

type shimConnector struct {
	registry *Registry
	entry    *entry
	dsn      string
}

func (c *shimConnector) Connect(ctx context.Context) (driver.Conn, error) {
	drv, err := c.registry.resolve(c.entry)
	if err != nil {
		return nil, err
	}
	if dc, ok := drv.(driver.DriverContext); ok {
		conn, err := dc.OpenConnector(c.dsn)
		if err != nil {
			return nil, err
		}
		return conn.Connect(ctx)
	}
	return drv.Open(c.dsn)
}

func (c *shimConnector) Driver() driver.Driver {
	return shimDriver{c: c}
}

type shimDriver struct {
	c *shimConnector
}

func (d shimDriver) Open(dsn string) (driver.Conn, error) {
	drv, err := d.c.registry.resolve(d.c.entry)
	if err != nil {
		return nil, err
	}
	return drv.Open(dsn)
}

type dsnConnector struct {
	driver driver.Driver
	dsn    string
}

func (c dsnConnector) Connect(context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c dsnConnector) Driver() driver.Driver { return c.driver }
