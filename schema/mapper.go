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

package schema

import (
	"errors"
	"fmt"

	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	"go.uber.org/multierr"
)

// Override intercepts the mapping of a single column. If ok is false the
// generic mapping is used. Dialects use it to map types the generic mapping
// rejects or maps too coarsely.
type Override interface {
	MapColumn(col sqltype.ColumnType) (f Field, ok bool, err error)
}

// OverrideFunc is an adapter allowing ordinary functions to be used as an
// Override.
type OverrideFunc func(col sqltype.ColumnType) (Field, bool, error)

func (f OverrideFunc) MapColumn(col sqltype.ColumnType) (Field, bool, error) {
	return f(col)
}

// FieldFor returns a field of type t named after the column, nullable iff the
// column is nullable. It is a helper for Override implementations.
func FieldFor(col sqltype.ColumnType, t Type) Field {
	return Field{Name: col.Name, Type: t, Nullable: col.Nullable}
}

// Mapper maps SQL column metadata to schema fields.
type Mapper struct {
	// Override is consulted before the generic mapping, may be nil.
	Override Override
}

// MapColumn returns the schema field for a column. The mapping is total over
// sqltype.Type: types without a representation fail with an
// *UnsupportedTypeError.
func (m Mapper) MapColumn(col sqltype.ColumnType) (Field, error) {
	if m.Override != nil {
		f, ok, err := m.Override.MapColumn(col)
		if err != nil {
			return Field{}, fmt.Errorf("column %q: %w", col.Name, err)
		}
		if ok {
			if f.Name == "" {
				f.Name = col.Name
			}
			return f, nil
		}
	}

	var f Field
	switch col.Type {
	case sqltype.Boolean, sqltype.Bit:
		f = Field{Type: TypeBool}
	case sqltype.TinyInt, sqltype.SmallInt, sqltype.Integer:
		f = Field{Type: TypeInt}
	case sqltype.BigInt:
		f = Field{Type: TypeLong}
	case sqltype.Real, sqltype.Float:
		f = Field{Type: TypeFloat}
	case sqltype.Double:
		f = Field{Type: TypeDouble}
	case sqltype.Numeric, sqltype.Decimal:
		switch {
		case col.Scale != 0:
			f = Field{Type: TypeDouble}
		case col.Precision > 9:
			f = Field{Type: TypeLong}
		default:
			f = Field{Type: TypeInt}
		}
	case sqltype.Date:
		return DateField(col.Name).withNullable(col.Nullable), nil
	case sqltype.Time:
		return TimeMicrosField(col.Name).withNullable(col.Nullable), nil
	case sqltype.Timestamp, sqltype.TimestampWithTimezone:
		return TimestampMicrosField(col.Name).withNullable(col.Nullable), nil
	case sqltype.Binary, sqltype.VarBinary, sqltype.LongVarBinary, sqltype.Blob:
		f = Field{Type: TypeBytes}
	case sqltype.Null:
		f = Field{Type: TypeNull}
	case sqltype.Array, sqltype.Struct, sqltype.Ref, sqltype.Other,
		sqltype.SQLXML, sqltype.DataLink, sqltype.Distinct, sqltype.JavaObject:
		return Field{}, &UnsupportedTypeError{
			Column:           col.Name,
			Type:             col.Type,
			DatabaseTypeName: col.DatabaseTypeName,
		}
	default:
		f = Field{Type: TypeString}
	}

	f.Name = col.Name
	f.Nullable = col.Nullable || f.Type == TypeNull
	return f, nil
}

func (f Field) withNullable(nullable bool) Field {
	f.Nullable = nullable
	return f
}

// MapColumns maps all columns in order. If override is not nil, every field
// of the override must have a same-named column with an equal non-nullable
// type, in which case the override's fields are returned. All violations are
// reported together.
func (m Mapper) MapColumns(cols []sqltype.ColumnType, override *Schema) ([]Field, error) {
	if override == nil {
		fields := make([]Field, len(cols))
		for i, col := range cols {
			f, err := m.MapColumn(col)
			if err != nil {
				return nil, err
			}
			fields[i] = f
		}
		return fields, nil
	}

	natural := make(map[string]Field, len(cols))
	unsupported := make(map[string]error)
	for _, col := range cols {
		f, err := m.MapColumn(col)
		if err != nil {
			var ute *UnsupportedTypeError
			if !errors.As(err, &ute) {
				return nil, err
			}
			// only an error if the override references the column
			unsupported[col.Name] = err
			continue
		}
		natural[f.Name] = f
	}

	var errs error
	for _, want := range override.fields {
		if err, ok := unsupported[want.Name]; ok {
			errs = multierr.Append(errs, err)
			continue
		}
		got, ok := natural[want.Name]
		if !ok {
			errs = multierr.Append(errs, &MismatchError{
				Field:  want.Name,
				Reason: "field is not present in the result set",
			})
			continue
		}
		if !want.SameType(got) {
			errs = multierr.Append(errs, &MismatchError{
				Field:  want.Name,
				Reason: fmt.Sprintf("expected type %s but the result set has %s", want.NonNullable().TypeString(), got.NonNullable().TypeString()),
			})
		}
	}
	if errs != nil {
		return nil, errs
	}
	return override.Fields(), nil
}

// Schema maps the columns into a schema with the given name. See MapColumns.
func (m Mapper) Schema(name string, cols []sqltype.ColumnType, override *Schema) (*Schema, error) {
	fields, err := m.MapColumns(cols, override)
	if err != nil {
		return nil, err
	}
	if override != nil {
		return override, nil
	}
	return New(name, fields...)
}
