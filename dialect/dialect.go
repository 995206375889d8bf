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

// Package dialect defines the extension points a database specific connector
// implements. A dialect is composed of small capability interfaces, the engine
// depends on a dialect only through them.
package dialect

import (
	"fmt"
	"strings"

	"github.com/conduitio/conduit-connector-dbcommons/codec"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
)

// Params are the connection parameters a connection string is built from.
type Params struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	// Arguments are the merged database specific and user supplied
	// connection arguments.
	Arguments map[string]string
}

// ConnectionStringBuilder builds the data source name passed to the driver.
type ConnectionStringBuilder interface {
	ConnectionString(p Params) (string, error)
}

// ArgumentProvider supplies connection arguments the database needs by
// default. User supplied arguments take precedence.
type ArgumentProvider interface {
	DBSpecificArguments() map[string]string
}

// IdentifierQuoter quotes a single identifier.
type IdentifierQuoter interface {
	QuoteIdentifier(name string) string
}

// Placeholders returns the bind parameter placeholder for the i-th (1 based)
// parameter of a statement.
type Placeholders interface {
	Placeholder(i int) string
}

// TableChecker returns a query that returns at least one row iff the table
// exists.
type TableChecker interface {
	TableExistsQuery(table string) (query string, args []any)
}

// TypeResolverProvider resolves database type names into SQL types.
type TypeResolverProvider interface {
	TypeResolver() sqltype.Resolver
}

// SchemaOverrider is optionally implemented by dialects that map some columns
// differently than the generic schema mapping.
type SchemaOverrider interface {
	SchemaOverride() schema.Override
}

// ValueCodecProvider is optionally implemented by dialects with vendor
// specific column types.
type ValueCodecProvider interface {
	ValueCodec() codec.ValueCodec
}

// Dialect is the set of capabilities every database connector provides.
type Dialect interface {
	// Name is the name of the database, used in logs.
	Name() string
	// DriverName is the name the driver is registered under in database/sql,
	// or the name it is registered under when loaded from a driver plugin.
	DriverName() string

	ConnectionStringBuilder
	ArgumentProvider
	IdentifierQuoter
	Placeholders
	TableChecker
	TypeResolverProvider
}

// SchemaOverride returns the schema override of d or nil.
func SchemaOverride(d Dialect) schema.Override {
	if o, ok := d.(SchemaOverrider); ok {
		return o.SchemaOverride()
	}
	return nil
}

// ValueCodec returns the value codec of d or nil.
func ValueCodec(d Dialect) codec.ValueCodec {
	if p, ok := d.(ValueCodecProvider); ok {
		return p.ValueCodec()
	}
	return nil
}

// Mapper returns a schema mapper using the schema override of d.
func Mapper(d Dialect) schema.Mapper {
	return schema.Mapper{Override: SchemaOverride(d)}
}

// QuoteQualified quotes every dot separated part of a qualified name.
func QuoteQualified(q IdentifierQuoter, name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = q.QuoteIdentifier(p)
	}
	return strings.Join(parts, ".")
}

// SplitQualified splits "schema.table" into its parts. Schema is empty for
// unqualified names.
func SplitQualified(name string) (schemaName, table string) {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Base implements the ANSI defaults of the capabilities. Dialects embed it and
// override what differs.
type Base struct{}

func (Base) DBSpecificArguments() map[string]string { return nil }

func (Base) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Base) Placeholder(int) string { return "?" }

func (Base) TableExistsQuery(table string) (string, []any) {
	return InformationSchemaTableExists(table, func(int) string { return "?" }, "")
}

func (Base) TypeResolver() sqltype.Resolver { return sqltype.ANSI }

// InformationSchemaTableExists builds a table exists query against
// information_schema.tables. currentSchema is the SQL expression returning the
// default schema, it is used for unqualified names if not empty.
func InformationSchemaTableExists(table string, placeholder func(int) string, currentSchema string) (string, []any) {
	schemaName, name := SplitQualified(table)
	switch {
	case schemaName != "":
		return fmt.Sprintf(
			"SELECT 1 FROM information_schema.tables WHERE table_schema = %s AND table_name = %s",
			placeholder(1), placeholder(2),
		), []any{schemaName, name}
	case currentSchema != "":
		return fmt.Sprintf(
			"SELECT 1 FROM information_schema.tables WHERE table_schema = %s AND table_name = %s",
			currentSchema, placeholder(1),
		), []any{name}
	default:
		return fmt.Sprintf(
			"SELECT 1 FROM information_schema.tables WHERE table_name = %s",
			placeholder(1),
		), []any{name}
	}
}
