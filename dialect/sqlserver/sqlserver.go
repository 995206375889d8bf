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

// Package sqlserver is the Microsoft SQL Server dialect.
package sqlserver

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
	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"
)

const DefaultPort = 1433

var types = sqltype.Names{
	"FLOAT":            sqltype.Double,
	"MONEY":            sqltype.Decimal,
	"SMALLMONEY":       sqltype.Decimal,
	"DATETIME":         sqltype.Timestamp,
	"DATETIME2":        sqltype.Timestamp,
	"SMALLDATETIME":    sqltype.Timestamp,
	"DATETIMEOFFSET":   sqltype.TimestampWithTimezone,
	"TEXT":             sqltype.LongVarChar,
	"NTEXT":            sqltype.LongNVarChar,
	"XML":              sqltype.LongNVarChar,
	"IMAGE":            sqltype.LongVarBinary,
	"UNIQUEIDENTIFIER": sqltype.Char,
	"SQL_VARIANT":      sqltype.Other,
}

type Dialect struct {
	dialect.Base
}

func New() *Dialect { return &Dialect{} }

func (*Dialect) Name() string       { return "sqlserver" }
func (*Dialect) DriverName() string { return "sqlserver" }

func (*Dialect) ConnectionString(p dialect.Params) (string, error) {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	u := url.URL{
		Scheme: "sqlserver",
		Host:   net.JoinHostPort(p.Host, strconv.Itoa(port)),
	}
	if p.User != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	q := url.Values{}
	for k, v := range p.Arguments {
		q.Set(k, v)
	}
	if p.Database != "" {
		q.Set("database", p.Database)
	}
	u.RawQuery = q.Encode()

	dsn := u.String()
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", fmt.Errorf("invalid sqlserver connection string: %w", err)
	}
	return dsn, nil
}

func (*Dialect) DBSpecificArguments() map[string]string {
	return map[string]string{"app name": "conduit-connector-sqlserver"}
}

func (*Dialect) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (*Dialect) Placeholder(i int) string { return "@p" + strconv.Itoa(i) }

func (d *Dialect) TableExistsQuery(table string) (string, []any) {
	return dialect.InformationSchemaTableExists(table, d.Placeholder, "SCHEMA_NAME()")
}

func (*Dialect) TypeResolver() sqltype.Resolver {
	return sqltype.Chain(types, sqltype.ANSI)
}

// SchemaOverride keeps decimals and money exact.
func (*Dialect) SchemaOverride() schema.Override {
	return schema.OverrideFunc(func(col sqltype.ColumnType) (schema.Field, bool, error) {
		var f schema.Field
		switch {
		case col.DatabaseTypeName == "MONEY":
			f = schema.DecimalField(col.Name, 19, 4)
		case col.DatabaseTypeName == "SMALLMONEY":
			f = schema.DecimalField(col.Name, 10, 4)
		case (col.Type == sqltype.Numeric || col.Type == sqltype.Decimal) && col.Precision > 0:
			f = schema.DecimalField(col.Name, int(col.Precision), int(col.Scale))
		default:
			return schema.Field{}, false, nil
		}
		f.Nullable = col.Nullable
		return f, true, nil
	})
}

func (*Dialect) ValueCodec() codec.ValueCodec { return valueCodec{} }

// valueCodec converts UNIQUEIDENTIFIER columns from and to their canonical
// string form. The driver returns them in the mixed endian wire format.
type valueCodec struct{}

func (valueCodec) Reader(col sqltype.ColumnType, f schema.Field) (codec.ColumnReader, bool) {
	if col.DatabaseTypeName != "UNIQUEIDENTIFIER" {
		return nil, false
	}
	return codec.NewColumnReader(func(v *[]byte) (any, error) {
		if *v == nil {
			return nil, nil
		}
		var id mssql.UniqueIdentifier
		if err := id.Scan(*v); err != nil {
			return nil, err
		}
		return codec.Coerce(f, id.String())
	}), true
}

func (valueCodec) Bind(col sqltype.ColumnType, v any) (any, bool, error) {
	if col.DatabaseTypeName != "UNIQUEIDENTIFIER" || v == nil {
		return nil, false, nil
	}
	var id mssql.UniqueIdentifier
	if err := id.Scan(v); err != nil {
		return nil, false, err
	}
	return id, true, nil
}
