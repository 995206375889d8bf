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

// Package contract resolves the column contract of a task: the ordered
// columns and their SQL types that rows are read from or written to.
package contract

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	"go.uber.org/multierr"
)

// ErrTableNotFound is returned when the sink table does not exist. Retrying
// won't help.
var ErrTableNotFound = errors.New("table not found")

// MissingColumnError is returned for every output column the sink table does
// not have.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("Missing column '%s' in SQL table", e.Column)
}

// Querier is implemented by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type SinkConfig struct {
	Table string
	// Columns are used when no input schema is known. If empty, all columns of
	// the table are used.
	Columns []string
	// EscapeIdentifiers quotes the table and column names.
	EscapeIdentifiers bool
}

// SinkContract is the frozen column contract of a sink task.
type SinkContract struct {
	// Table is the table identifier as used in statements.
	Table string
	// Columns are the output columns in statement parameter order. Names are
	// the output column names as configured.
	Columns []sqltype.ColumnType

	identifiers []string
	dialect     dialect.Dialect
}

// ResolveSink checks that the table exists, describes its columns with a
// query returning no rows and builds the contract for the output columns. Output
// columns are the field names of input if given, otherwise the configured
// columns.
func ResolveSink(ctx context.Context, q Querier, d dialect.Dialect, cfg SinkConfig, input *schema.Schema) (*SinkContract, error) {
	if err := checkTable(ctx, q, d, cfg.Table); err != nil {
		return nil, err
	}

	names := cfg.Columns
	if input != nil {
		names = input.Names()
	}

	quote := func(s string) string { return s }
	table := cfg.Table
	if cfg.EscapeIdentifiers {
		quote = d.QuoteIdentifier
		table = dialect.QuoteQualified(d, cfg.Table)
	}

	// all columns are selected, so that missing output columns are reported
	// by name instead of failing the query
	tableCols, err := describeQuery(ctx, q, d, fmt.Sprintf("SELECT * FROM %s WHERE 1 = 0", table))
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		for _, c := range tableCols {
			names = append(names, c.Name)
		}
	}

	byName := make(map[string]sqltype.ColumnType, len(tableCols))
	byFold := make(map[string]sqltype.ColumnType, len(tableCols))
	for _, c := range tableCols {
		byName[c.Name] = c
		byFold[strings.ToLower(c.Name)] = c
	}

	c := &SinkContract{
		Table:       table,
		Columns:     make([]sqltype.ColumnType, 0, len(names)),
		identifiers: make([]string, 0, len(names)),
		dialect:     d,
	}
	var errs error
	for _, n := range names {
		col, ok := byName[n]
		if !ok {
			col, ok = byFold[strings.ToLower(n)]
		}
		if !ok {
			errs = multierr.Append(errs, &MissingColumnError{Column: n})
			continue
		}
		col.Name = n
		c.Columns = append(c.Columns, col)
		c.identifiers = append(c.identifiers, quote(n))
	}
	if errs != nil {
		return nil, errs
	}
	return c, nil
}

func checkTable(ctx context.Context, q Querier, d dialect.Dialect, table string) error {
	query, args := d.TableExistsQuery(table)
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to check if table %q exists: %w", table, err)
	}
	defer rows.Close()

	exists := rows.Next()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to check if table %q exists: %w", table, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return nil
}

func describeQuery(ctx context.Context, q Querier, d dialect.Dialect, query string) ([]sqltype.ColumnType, error) {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to describe columns: %w", err)
	}
	defer rows.Close()
	return sqltype.DescribeRows(rows, d.TypeResolver())
}

// Names returns the output column names.
func (c *SinkContract) Names() []string {
	out := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		out[i] = col.Name
	}
	return out
}

// InsertQuery returns the statement inserting one row, with parameters in
// column order.
func (c *SinkContract) InsertQuery() string {
	placeholders := make([]string, len(c.Columns))
	for i := range placeholders {
		placeholders[i] = c.dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.Table, strings.Join(c.identifiers, ", "), strings.Join(placeholders, ", "))
}

// Validate checks that values of every field of s can be written to the
// column of the same name.
func (c *SinkContract) Validate(s *schema.Schema) error {
	var errs error
	for _, col := range c.Columns {
		f, ok := s.Field(col.Name)
		if !ok {
			continue
		}
		if !accepts(col.Type, f) {
			errs = multierr.Append(errs, &schema.MismatchError{
				Field:  f.Name,
				Reason: fmt.Sprintf("type %s can't be written to column of type %s", f.TypeString(), col.Type),
			})
		}
	}
	return errs
}

type kind int

const (
	kindBool kind = iota
	kindInteger
	kindFloating
	kindDecimal
	kindString
	kindBytes
	kindDate
	kindTime
	kindTimestamp
	kindNull
)

func fieldKind(f schema.Field) kind {
	switch f.Logical {
	case schema.LogicalDate:
		return kindDate
	case schema.LogicalTimeMicros:
		return kindTime
	case schema.LogicalTimestampMicros:
		return kindTimestamp
	case schema.LogicalDecimal:
		return kindDecimal
	}
	switch f.Type {
	case schema.TypeBool:
		return kindBool
	case schema.TypeInt, schema.TypeLong:
		return kindInteger
	case schema.TypeFloat, schema.TypeDouble:
		return kindFloating
	case schema.TypeBytes:
		return kindBytes
	case schema.TypeNull:
		return kindNull
	default:
		return kindString
	}
}

func accepts(t sqltype.Type, f schema.Field) bool {
	k := fieldKind(f)
	if k == kindNull {
		return true
	}
	switch t {
	case sqltype.Boolean, sqltype.Bit:
		return k == kindBool || k == kindInteger
	case sqltype.TinyInt, sqltype.SmallInt, sqltype.Integer, sqltype.BigInt:
		return k == kindInteger
	case sqltype.Real, sqltype.Float, sqltype.Double, sqltype.Numeric, sqltype.Decimal:
		return k == kindInteger || k == kindFloating || k == kindDecimal
	case sqltype.Date:
		return k == kindDate || k == kindTimestamp || k == kindString
	case sqltype.Time:
		return k == kindTime || k == kindString
	case sqltype.Timestamp, sqltype.TimestampWithTimezone:
		return k == kindTimestamp || k == kindDate || k == kindString
	case sqltype.Binary, sqltype.VarBinary, sqltype.LongVarBinary, sqltype.Blob:
		return k == kindBytes || k == kindString
	case sqltype.Null, sqltype.Array, sqltype.Struct, sqltype.Ref, sqltype.Other,
		sqltype.SQLXML, sqltype.DataLink, sqltype.Distinct, sqltype.JavaObject:
		return true
	default:
		return k == kindString
	}
}

// ResolveSource derives the schema of a source from the columns of the query
// it issued, validated against override if given.
func ResolveSource(cols []sqltype.ColumnType, d dialect.Dialect, name string, override *schema.Schema) (*schema.Schema, error) {
	s, err := dialect.Mapper(d).Schema(name, cols, override)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema: %w", err)
	}
	return s, nil
}
