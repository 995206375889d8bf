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

// Package postgres is the PostgreSQL dialect. It uses the pgx driver through
// its database/sql adapter.
package postgres

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/conduitio/conduit-connector-dbcommons/codec"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the pgx driver
)

const DefaultPort = 5432

var types = sqltype.Names{
	"BOOL":        sqltype.Bit,
	"INT2":        sqltype.SmallInt,
	"INT4":        sqltype.Integer,
	"INT8":        sqltype.BigInt,
	"OID":         sqltype.BigInt,
	"FLOAT4":      sqltype.Real,
	"FLOAT8":      sqltype.Double,
	"MONEY":       sqltype.Double,
	"BPCHAR":      sqltype.Char,
	"TEXT":        sqltype.VarChar,
	"NAME":        sqltype.VarChar,
	"CITEXT":      sqltype.VarChar,
	"BYTEA":       sqltype.Binary,
	"TIMETZ":      sqltype.Time,
	"TIMESTAMPTZ": sqltype.Timestamp,
	"UUID":        sqltype.Other,
	"JSON":        sqltype.Other,
	"JSONB":       sqltype.Other,
	"INTERVAL":    sqltype.Other,
	"INET":        sqltype.Other,
	"CIDR":        sqltype.Other,
	"MACADDR":     sqltype.Other,
	"POINT":       sqltype.Other,
	"XML":         sqltype.SQLXML,
}

// array types are named after their element type with a leading underscore
var arrays = sqltype.ResolverFunc(func(name string) (sqltype.Type, bool) {
	if strings.HasPrefix(name, "_") {
		return sqltype.Array, true
	}
	return 0, false
})

type Dialect struct {
	dialect.Base
}

func New() *Dialect { return &Dialect{} }

func (*Dialect) Name() string       { return "postgres" }
func (*Dialect) DriverName() string { return "pgx" }

func (*Dialect) ConnectionString(p dialect.Params) (string, error) {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(port)),
		Path:   "/" + p.Database,
	}
	switch {
	case p.User != "" && p.Password != "":
		u.User = url.UserPassword(p.User, p.Password)
	case p.User != "":
		u.User = url.User(p.User)
	}
	q := url.Values{}
	for k, v := range p.Arguments {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	dsn := u.String()
	if _, err := pgx.ParseConfig(dsn); err != nil {
		return "", fmt.Errorf("invalid postgres connection string: %w", err)
	}
	return dsn, nil
}

func (*Dialect) DBSpecificArguments() map[string]string {
	return map[string]string{"application_name": "conduit-connector-postgres"}
}

func (*Dialect) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

func (*Dialect) Placeholder(i int) string { return "$" + strconv.Itoa(i) }

func (d *Dialect) TableExistsQuery(table string) (string, []any) {
	return dialect.InformationSchemaTableExists(table, d.Placeholder, "current_schema()")
}

func (*Dialect) TypeResolver() sqltype.Resolver {
	return sqltype.Chain(types, arrays, sqltype.ANSI)
}

// SchemaOverride maps arrays, xml and other types without a generic mapping
// to strings. Numerics with a declared precision keep their exact value,
// unconstrained numerics are mapped to strings.
func (*Dialect) SchemaOverride() schema.Override {
	return schema.OverrideFunc(func(col sqltype.ColumnType) (schema.Field, bool, error) {
		switch col.Type {
		case sqltype.Other, sqltype.Array, sqltype.SQLXML:
			return schema.FieldFor(col, schema.TypeString), true, nil
		case sqltype.Numeric, sqltype.Decimal:
			if col.Precision <= 0 {
				return schema.FieldFor(col, schema.TypeString), true, nil
			}
			f := schema.DecimalField(col.Name, int(col.Precision), int(col.Scale))
			f.Nullable = col.Nullable
			return f, true, nil
		}
		return schema.Field{}, false, nil
	})
}

func (*Dialect) ValueCodec() codec.ValueCodec { return valueCodec{} }

// valueCodec reads arrays, xml and other types in their text representation.
type valueCodec struct{}

func (valueCodec) Reader(col sqltype.ColumnType, f schema.Field) (codec.ColumnReader, bool) {
	switch col.Type {
	case sqltype.Other, sqltype.Array, sqltype.SQLXML:
	default:
		return nil, false
	}
	return codec.NewColumnReader(func(v *any) (any, error) {
		switch raw := (*v).(type) {
		case nil:
			return nil, nil
		case []byte:
			return codec.Coerce(f, string(raw))
		case string:
			return codec.Coerce(f, raw)
		default:
			return codec.Coerce(f, fmt.Sprint(raw))
		}
	}), true
}

// Bind passes text values of arrays and other types through, the server
// casts them to the column type.
func (valueCodec) Bind(col sqltype.ColumnType, v any) (any, bool, error) {
	switch col.Type {
	case sqltype.Other, sqltype.Array, sqltype.SQLXML:
		if s, ok := v.(string); ok {
			return s, true, nil
		}
	}
	return nil, false, nil
}
