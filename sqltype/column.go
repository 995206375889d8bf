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

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// ColumnType describes one column of a result set. It is derived once per task
// and its position in a slice fixes the positional binding used for reading
// and writing rows.
type ColumnType struct {
	Name string
	// DatabaseTypeName is the upper case type name reported by the driver,
	// without length or precision parameters.
	DatabaseTypeName string
	Type             Type
	Precision        int64
	Scale            int64
	Length           int64
	Nullable         bool
}

func (c ColumnType) String() string {
	switch {
	case c.Type.IsNumeric():
		return fmt.Sprintf("%s %s(%d,%d)", c.Name, c.Type, c.Precision, c.Scale)
	default:
		return fmt.Sprintf("%s %s", c.Name, c.Type)
	}
}

// Metadata is the subset of *sql.ColumnType needed to describe a column.
type Metadata interface {
	Name() string
	DatabaseTypeName() string
	DecimalSize() (precision, scale int64, ok bool)
	Length() (length int64, ok bool)
	Nullable() (nullable, ok bool)
}

var _ Metadata = (*sql.ColumnType)(nil)

// Describe converts the column types of a result set into ColumnTypes.
func Describe(cols []*sql.ColumnType, r Resolver) []ColumnType {
	out := make([]ColumnType, len(cols))
	for i, c := range cols {
		out[i] = DescribeColumn(c, r)
	}
	return out
}

// DescribeRows describes the columns of rows.
func DescribeRows(rows *sql.Rows, r Resolver) ([]ColumnType, error) {
	cols, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}
	return Describe(cols, r), nil
}

// DescribeColumn converts a single column. Type names the resolver does not
// know resolve to Other. Columns whose nullability is unknown are reported as
// not nullable.
func DescribeColumn(m Metadata, r Resolver) ColumnType {
	name, precision, scale, hasParams := splitTypeName(m.DatabaseTypeName())

	ct := ColumnType{
		Name:             m.Name(),
		DatabaseTypeName: name,
		Type:             Other,
	}
	if r == nil {
		r = ANSI
	}
	if t, ok := r.Resolve(name); ok {
		ct.Type = t
	}

	if p, s, ok := m.DecimalSize(); ok {
		ct.Precision, ct.Scale = p, s
	} else if hasParams {
		ct.Precision, ct.Scale = precision, scale
	}
	if l, ok := m.Length(); ok {
		ct.Length = l
	}
	if nullable, ok := m.Nullable(); ok {
		ct.Nullable = nullable
	}
	return ct
}

// splitTypeName splits a declared type like "NUMERIC(10, 6)" into its base
// name and parameters.
func splitTypeName(raw string) (name string, precision, scale int64, ok bool) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	open := strings.IndexByte(raw, '(')
	if open < 0 {
		return raw, 0, 0, false
	}
	closing := strings.IndexByte(raw[open:], ')')
	if closing < 0 {
		return strings.TrimSpace(raw[:open]), 0, 0, false
	}
	closing += open

	// keep trailing modifiers such as "UNSIGNED" in "INT(10) UNSIGNED"
	name = strings.TrimSpace(raw[:open] + raw[closing+1:])
	name = strings.Join(strings.Fields(name), " ")

	params := strings.Split(raw[open+1:closing], ",")
	p, err := strconv.ParseInt(strings.TrimSpace(params[0]), 10, 64)
	if err != nil {
		return name, 0, 0, false
	}
	if len(params) > 1 {
		s, err := strconv.ParseInt(strings.TrimSpace(params[1]), 10, 64)
		if err != nil {
			return name, p, 0, true
		}
		return name, p, s, true
	}
	return name, p, 0, true
}
