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

package sqltype

import "strings"

// Resolver translates the database type name reported by a driver (see
// sql.ColumnType.DatabaseTypeName) into a Type.
type Resolver interface {
	Resolve(databaseTypeName string) (Type, bool)
}

// ResolverFunc is an adapter to allow the use of ordinary functions as
// resolvers.
type ResolverFunc func(databaseTypeName string) (Type, bool)

func (f ResolverFunc) Resolve(databaseTypeName string) (Type, bool) {
	return f(databaseTypeName)
}

// Names is a Resolver backed by a lookup table. Keys are upper case type
// names without length or precision parameters.
type Names map[string]Type

func (n Names) Resolve(databaseTypeName string) (Type, bool) {
	t, ok := n[strings.ToUpper(databaseTypeName)]
	return t, ok
}

// With returns a copy of n extended with the entries in other. Entries in
// other win.
func (n Names) With(other Names) Names {
	out := make(Names, len(n)+len(other))
	for k, v := range n {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Chain returns a Resolver that asks each resolver in order and returns the
// first match.
func Chain(resolvers ...Resolver) Resolver {
	return ResolverFunc(func(name string) (Type, bool) {
		for _, r := range resolvers {
			if r == nil {
				continue
			}
			if t, ok := r.Resolve(name); ok {
				return t, true
			}
		}
		return 0, false
	})
}

// ANSI resolves the type names defined by the SQL standard and their common
// spellings.
var ANSI = Names{
	"BIT":                         Bit,
	"BOOLEAN":                     Boolean,
	"BOOL":                        Boolean,
	"TINYINT":                     TinyInt,
	"SMALLINT":                    SmallInt,
	"INT":                         Integer,
	"INTEGER":                     Integer,
	"BIGINT":                      BigInt,
	"REAL":                        Real,
	"FLOAT":                       Float,
	"DOUBLE":                      Double,
	"DOUBLE PRECISION":            Double,
	"NUMERIC":                     Numeric,
	"DECIMAL":                     Decimal,
	"DEC":                         Decimal,
	"CHAR":                        Char,
	"CHARACTER":                   Char,
	"VARCHAR":                     VarChar,
	"CHARACTER VARYING":           VarChar,
	"LONGVARCHAR":                 LongVarChar,
	"NCHAR":                       NChar,
	"NVARCHAR":                    NVarChar,
	"LONGNVARCHAR":                LongNVarChar,
	"CLOB":                        Clob,
	"NCLOB":                       NClob,
	"DATE":                        Date,
	"TIME":                        Time,
	"TIMESTAMP":                   Timestamp,
	"TIME WITH TIME ZONE":         TimeWithTimezone,
	"TIMESTAMP WITH TIME ZONE":    TimestampWithTimezone,
	"BINARY":                      Binary,
	"VARBINARY":                   VarBinary,
	"LONGVARBINARY":               LongVarBinary,
	"BLOB":                        Blob,
	"ROWID":                       RowID,
	"XML":                         SQLXML,
	"ARRAY":                       Array,
	"STRUCT":                      Struct,
	"REF":                         Ref,
	"DATALINK":                    DataLink,
	"NULL":                        Null,
	"CHARACTER LARGE OBJECT":      Clob,
	"BINARY LARGE OBJECT":         Blob,
	"NATIONAL CHARACTER":          NChar,
	"NATIONAL CHARACTER VARYING":  NVarChar,
	"TIMESTAMP WITHOUT TIME ZONE": Timestamp,
	"TIME WITHOUT TIME ZONE":      Time,
}
