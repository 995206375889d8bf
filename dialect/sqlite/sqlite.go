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

// Package sqlite is the SQLite dialect. It uses a pure Go driver, so it also
// serves as an embedded database in tests.
package sqlite

import (
	"errors"
	"net/url"
	"strings"

	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	_ "github.com/glebarez/go-sqlite" // registers the sqlite driver
)

var types = sqltype.Names{
	"INT":      sqltype.BigInt,
	"INTEGER":  sqltype.BigInt,
	"DATETIME": sqltype.Timestamp,
	"TEXT":     sqltype.VarChar,
	"STRING":   sqltype.VarChar,
}

// affinity resolves declared types the way SQLite determines column
// affinity.
var affinity = sqltype.ResolverFunc(func(name string) (sqltype.Type, bool) {
	switch {
	case name == "":
		return sqltype.VarChar, true
	case strings.Contains(name, "INT"):
		return sqltype.BigInt, true
	case strings.Contains(name, "CHAR"), strings.Contains(name, "CLOB"), strings.Contains(name, "TEXT"):
		return sqltype.VarChar, true
	case strings.Contains(name, "BLOB"):
		return sqltype.Blob, true
	case strings.Contains(name, "REAL"), strings.Contains(name, "FLOA"), strings.Contains(name, "DOUB"):
		return sqltype.Double, true
	default:
		return sqltype.Numeric, true
	}
})

type Dialect struct {
	dialect.Base
}

func New() *Dialect { return &Dialect{} }

func (*Dialect) Name() string       { return "sqlite" }
func (*Dialect) DriverName() string { return "sqlite" }

// ConnectionString uses the database parameter as the path of the database
// file. Host, port and credentials are ignored.
func (*Dialect) ConnectionString(p dialect.Params) (string, error) {
	if p.Database == "" {
		return "", errors.New("sqlite needs the path of the database file")
	}
	dsn := "file:" + p.Database
	if len(p.Arguments) > 0 {
		q := url.Values{}
		for k, v := range p.Arguments {
			q.Set(k, v)
		}
		dsn += "?" + q.Encode()
	}
	return dsn, nil
}

func (*Dialect) DBSpecificArguments() map[string]string {
	return map[string]string{"_pragma": "busy_timeout(5000)"}
}

func (*Dialect) TableExistsQuery(table string) (string, []any) {
	_, name := dialect.SplitQualified(table)
	return "SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?", []any{name}
}

func (*Dialect) TypeResolver() sqltype.Resolver {
	return sqltype.Chain(types, sqltype.ANSI, affinity)
}

// SchemaOverride keeps decimals with a declared precision exact. Numerics
// without precision can hold integers and reals and are mapped to doubles.
func (*Dialect) SchemaOverride() schema.Override {
	return schema.OverrideFunc(func(col sqltype.ColumnType) (schema.Field, bool, error) {
		if col.Type != sqltype.Numeric && col.Type != sqltype.Decimal {
			return schema.Field{}, false, nil
		}
		if col.Precision <= 0 {
			return schema.FieldFor(col, schema.TypeDouble), true, nil
		}
		f := schema.DecimalField(col.Name, int(col.Precision), int(col.Scale))
		f.Nullable = col.Nullable
		return f, true, nil
	})
}
