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

// Package mysql is the MySQL dialect.
package mysql

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/conduitio/conduit-connector-dbcommons/codec"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	dmysql "github.com/go-sql-driver/mysql"
)

const DefaultPort = 3306

var types = sqltype.Names{
	"MEDIUMINT":          sqltype.Integer,
	"UNSIGNED TINYINT":   sqltype.SmallInt,
	"UNSIGNED SMALLINT":  sqltype.Integer,
	"UNSIGNED MEDIUMINT": sqltype.Integer,
	"UNSIGNED INT":       sqltype.BigInt,
	"UNSIGNED BIGINT":    sqltype.Decimal,
	"YEAR":               sqltype.Integer,
	"DATETIME":           sqltype.Timestamp,
	"TINYTEXT":           sqltype.VarChar,
	"TEXT":               sqltype.LongVarChar,
	"MEDIUMTEXT":         sqltype.LongVarChar,
	"LONGTEXT":           sqltype.LongVarChar,
	"JSON":               sqltype.LongVarChar,
	"ENUM":               sqltype.Char,
	"SET":                sqltype.Char,
	"TINYBLOB":           sqltype.VarBinary,
	"MEDIUMBLOB":         sqltype.LongVarBinary,
	"LONGBLOB":           sqltype.LongVarBinary,
	"GEOMETRY":           sqltype.Binary,
}

type Dialect struct {
	dialect.Base
}

func New() *Dialect { return &Dialect{} }

func (*Dialect) Name() string       { return "mysql" }
func (*Dialect) DriverName() string { return "mysql" }

func (*Dialect) ConnectionString(p dialect.Params) (string, error) {
	port := p.Port
	if port == 0 {
		port = DefaultPort
	}
	cfg := dmysql.NewConfig()
	cfg.User = p.User
	cfg.Passwd = p.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(p.Host, strconv.Itoa(port))
	cfg.DBName = p.Database
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if len(p.Arguments) > 0 {
		cfg.Params = make(map[string]string, len(p.Arguments))
		for k, v := range p.Arguments {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN(), nil
}

func (*Dialect) DBSpecificArguments() map[string]string {
	return map[string]string{"charset": "utf8mb4"}
}

func (*Dialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d *Dialect) TableExistsQuery(table string) (string, []any) {
	return dialect.InformationSchemaTableExists(table, d.Placeholder, "DATABASE()")
}

func (*Dialect) TypeResolver() sqltype.Resolver {
	return sqltype.Chain(types, sqltype.ANSI)
}

// SchemaOverride keeps decimals exact, maps BIT columns to bytes unless they
// are known to be BIT(1) and UNSIGNED BIGINT to DECIMAL(20,0) so that it can't
// overflow. The driver does not report column lengths, so the width of a BIT
// column is usually unknown.
func (*Dialect) SchemaOverride() schema.Override {
	return schema.OverrideFunc(func(col sqltype.ColumnType) (schema.Field, bool, error) {
		var f schema.Field
		switch {
		case col.DatabaseTypeName == "UNSIGNED BIGINT":
			f = schema.DecimalField(col.Name, 20, 0)
		case col.Type == sqltype.Bit && bitWidth(col) != 1:
			f = schema.FieldFor(col, schema.TypeBytes)
		case (col.Type == sqltype.Numeric || col.Type == sqltype.Decimal) && col.Precision > 0:
			f = schema.DecimalField(col.Name, int(col.Precision), int(col.Scale))
		default:
			return schema.Field{}, false, nil
		}
		f.Nullable = col.Nullable
		return f, true, nil
	})
}

// bitWidth returns the declared width of a BIT column, 0 if unknown.
func bitWidth(col sqltype.ColumnType) int64 {
	if col.Length > 0 {
		return col.Length
	}
	return col.Precision
}

func (*Dialect) ValueCodec() codec.ValueCodec { return valueCodec{} }

// valueCodec reads BIT columns, which the driver returns as raw bytes.
type valueCodec struct{}

func (valueCodec) Reader(col sqltype.ColumnType, f schema.Field) (codec.ColumnReader, bool) {
	if col.Type != sqltype.Bit {
		return nil, false
	}
	return codec.NewColumnReader(func(v *[]byte) (any, error) {
		if *v == nil {
			return nil, nil
		}
		return codec.Coerce(f, *v)
	}), true
}

func (valueCodec) Bind(sqltype.ColumnType, any) (any, bool, error) {
	return nil, false, nil
}
