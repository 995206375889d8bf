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

// Package connectors assembles the database connectors shipped with
// dbcommons.
package connectors

import (
	"fmt"
	"maps"
	"slices"

	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/destination"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/dialect/mysql"
	"github.com/conduitio/conduit-connector-dbcommons/dialect/postgres"
	"github.com/conduitio/conduit-connector-dbcommons/dialect/sqlite"
	"github.com/conduitio/conduit-connector-dbcommons/dialect/sqlserver"
	"github.com/conduitio/conduit-connector-dbcommons/source"
)

type database struct {
	title   string
	dialect func() dialect.Dialect
}

var databases = map[string]database{
	"postgres":  {title: "PostgreSQL", dialect: func() dialect.Dialect { return postgres.New() }},
	"mysql":     {title: "MySQL", dialect: func() dialect.Dialect { return mysql.New() }},
	"sqlserver": {title: "SQL Server", dialect: func() dialect.Dialect { return sqlserver.New() }},
	"sqlite":    {title: "SQLite", dialect: func() dialect.Dialect { return sqlite.New() }},
}

// Names returns the names of all connectors in alphabetical order.
func Names() []string {
	return slices.Sorted(maps.Keys(databases))
}

// New returns the connector of the named database.
func New(name, version string) (dbcommons.Connector, error) {
	db, ok := databases[name]
	if !ok {
		return dbcommons.Connector{}, fmt.Errorf("unknown connector %q, expected one of %v", name, Names())
	}
	d := db.dialect()
	return dbcommons.Connector{
		NewSpecification: func() dbcommons.Specification {
			return dbcommons.Specification{
				Name:    name,
				Summary: db.title + " source and destination built on dbcommons.",
				Description: "The source reads the rows returned by an import query, optionally " +
					"divided into range splits. The destination inserts created and snapshotted " +
					"records into a table.",
				Version: version,
				Author:  "Meroxa, Inc.",
			}
		},
		NewSource:      func() dbcommons.Source { return source.New(d) },
		NewDestination: func() dbcommons.Destination { return destination.New(d) },
	}, nil
}

// Dialect returns the dialect of the named database.
func Dialect(name string) (dialect.Dialect, error) {
	db, ok := databases[name]
	if !ok {
		return nil, fmt.Errorf("unknown connector %q, expected one of %v", name, Names())
	}
	return db.dialect(), nil
}

// MustNew is like New but panics if the database is unknown.
func MustNew(name, version string) dbcommons.Connector {
	c, err := New(name, version)
	if err != nil {
		panic(err)
	}
	return c
}
