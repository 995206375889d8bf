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

// Package connection opens the database connection of a task: it acquires
// the driver, builds the connection string and runs the init queries on every
// new connection.
package connection

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/drivers"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	"github.com/conduitio/conduit-connector-dbcommons/validate"
	"github.com/rs/zerolog"
)

const (
	ParamHost                = "host"
	ParamPort                = "port"
	ParamDatabase            = "database"
	ParamUser                = "user"
	ParamPassword            = "password"
	ParamConnectionString    = "connectionString"
	ParamConnectionArguments = "connectionArguments"
	ParamDriverPath          = "driverPath"
	ParamInitQueries         = "initQueries"
)

// Config contains the connection parameters shared by sources and
// destinations.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	// ConnectionString is passed to the driver as is. If set, the parameters
	// above are ignored.
	ConnectionString string `json:"connectionString"`
	// ConnectionArguments is a list of key=value pairs separated by ";".
	ConnectionArguments string `json:"connectionArguments"`
	// DriverPath is the path of a Go plugin exporting the driver.
	DriverPath string `json:"driverPath"`
	// InitQueries are separated by ";" and run on every new connection.
	InitQueries string `json:"initQueries"`
}

// ParseArguments parses a ";" separated list of key=value pairs.
func ParseArguments(s string) (map[string]string, error) {
	args := make(map[string]string)
	for _, pair := range strings.Split(s, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid argument %q, expected key=value", pair)
		}
		args[k] = strings.TrimSpace(v)
	}
	return args, nil
}

// ParseQueries splits a ";" separated list of queries.
func ParseQueries(s string) []string {
	var out []string
	for _, q := range strings.Split(s, ";") {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}

// Validate reports all problems of the configuration.
func (c Config) Validate(d dialect.Dialect) error {
	var errs validate.Collector
	if c.Port < 0 || c.Port > 65535 {
		errs.Addf(ParamPort, "port %d is out of range", c.Port)
	}
	if _, err := ParseArguments(c.ConnectionArguments); err != nil {
		errs.Add(ParamConnectionArguments, err)
	} else if _, err := c.DSN(d); err != nil {
		errs.Add(ParamConnectionString, err)
	}
	return errs.Err()
}

// DSN returns the connection string. Database specific arguments are merged
// with the configured arguments, the latter win.
func (c Config) DSN(d dialect.Dialect) (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}
	userArgs, err := ParseArguments(c.ConnectionArguments)
	if err != nil {
		return "", err
	}
	args := make(map[string]string)
	for k, v := range d.DBSpecificArguments() {
		args[k] = v
	}
	for k, v := range userArgs {
		args[k] = v
	}
	return d.ConnectionString(dialect.Params{
		Host:      c.Host,
		Port:      c.Port,
		Database:  c.Database,
		User:      c.User,
		Password:  c.Password,
		Arguments: args,
	})
}

// ConnectivityError is returned when the driver can't be acquired or the
// database can't be reached. It is not retried.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Task is the database access of one task.
type Task struct {
	DB      *sql.DB
	Dialect dialect.Dialect

	handle *drivers.Handle
}

// Open acquires the driver from the registry and connects to the database.
// The returned task must be closed.
func Open(ctx context.Context, registry *drivers.Registry, d dialect.Dialect, cfg Config) (*Task, error) {
	var loader drivers.Loader
	if cfg.DriverPath != "" {
		l, err := drivers.OpenPlugin(cfg.DriverPath)
		if err != nil {
			return nil, &ConnectivityError{Op: "load driver", Err: err}
		}
		loader = l
	}

	handle, err := registry.Ensure(ctx, d.DriverName(), loader)
	if err != nil {
		return nil, &ConnectivityError{Op: "acquire driver", Err: err}
	}

	dsn, err := cfg.DSN(d)
	if err != nil {
		handle.Release(ctx)
		return nil, fmt.Errorf("invalid connection configuration: %w", err)
	}
	connector, err := handle.Connector(dsn)
	if err != nil {
		handle.Release(ctx)
		return nil, &ConnectivityError{Op: "open database", Err: err}
	}

	db := sql.OpenDB(&initConnector{Connector: connector, queries: ParseQueries(cfg.InitQueries)})
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		handle.Release(ctx)
		return nil, &ConnectivityError{Op: "connect", Err: err}
	}

	zerolog.Ctx(ctx).Info().
		Str("database", d.Name()).
		Str("driver", d.DriverName()).
		Stringer("driverState", handle.State()).
		Msg("connected to database")
	return &Task{DB: db, Dialect: d, handle: handle}, nil
}

// Describe describes the columns of rows using the type names of the
// dialect.
func (t *Task) Describe(rows *sql.Rows) ([]sqltype.ColumnType, error) {
	return sqltype.DescribeRows(rows, t.Dialect.TypeResolver())
}

// Close closes the database and releases the driver.
func (t *Task) Close(ctx context.Context) error {
	err := t.DB.Close()
	t.handle.Release(ctx)
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// initConnector runs the init queries on every new connection.
type initConnector struct {
	driver.Connector
	queries []string
}

func (c *initConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	for _, q := range c.queries {
		if err := execDriver(ctx, conn, q); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("init query %q failed: %w", q, err)
		}
	}
	return conn, nil
}

func execDriver(ctx context.Context, conn driver.Conn, query string) error {
	if execer, ok := conn.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, query, nil)
		if !errors.Is(err, driver.ErrSkip) {
			return err
		}
	}
	stmt, err := conn.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()
	//nolint:staticcheck // drivers without ExecerContext only implement Exec
	_, err = stmt.Exec(nil)
	return err
}
