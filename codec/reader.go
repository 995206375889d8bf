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

package codec

import (
	"database/sql"
	"fmt"

	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	"github.com/shopspring/decimal"
)

// Scanner is implemented by *sql.Rows and *sql.Row.
type Scanner interface {
	Scan(dest ...any) error
}

// Reader converts result set rows into records. A Reader is bound to the
// columns of one result set and is not safe for concurrent use.
type Reader struct {
	schema  *schema.Schema
	readers []ColumnReader
	dest    []any
	// fieldCol maps the field index to the column index.
	fieldCol []int
}

// NewReader creates a reader for rows with the given columns, producing
// records of schema s. Every field of s must have a same-named column, columns
// not present in s are scanned and discarded.
func NewReader(cols []sqltype.ColumnType, s *schema.Schema, vc ValueCodec) (*Reader, error) {
	if vc == nil {
		vc = NoopValueCodec{}
	}
	r := &Reader{
		schema:   s,
		readers:  make([]ColumnReader, len(cols)),
		dest:     make([]any, len(cols)),
		fieldCol: make([]int, s.Len()),
	}
	for i := range r.fieldCol {
		r.fieldCol[i] = -1
	}
	for i, col := range cols {
		fi := s.Index(col.Name)
		if fi < 0 {
			r.dest[i] = new(any)
			continue
		}
		f := s.FieldAt(fi)
		cr, ok := vc.Reader(col, f)
		if !ok {
			cr = genericReader(col, f)
		}
		r.readers[i] = cr
		r.dest[i] = cr.Dest()
		r.fieldCol[fi] = i
	}
	for fi, ci := range r.fieldCol {
		if ci < 0 {
			return nil, fmt.Errorf("field %q has no matching column in the result set", s.FieldAt(fi).Name)
		}
	}
	return r, nil
}

func (r *Reader) Schema() *schema.Schema { return r.schema }

// Read scans the current row into a new record.
func (r *Reader) Read(rows Scanner) (*schema.Record, error) {
	if err := rows.Scan(r.dest...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}
	rec := schema.NewRecord(r.schema)
	for fi, ci := range r.fieldCol {
		v, err := r.readers[ci].Value()
		if err != nil {
			return nil, fmt.Errorf("failed to read field %q: %w", r.schema.FieldAt(fi).Name, err)
		}
		rec.SetAt(fi, v)
	}
	return rec, nil
}

func genericReader(col sqltype.ColumnType, f schema.Field) ColumnReader {
	coerce := func(v any, valid bool) (any, error) {
		if !valid {
			return nil, nil
		}
		return Coerce(f, v)
	}
	switch col.Type {
	case sqltype.Null:
		return NewColumnReader(func(*any) (any, error) { return nil, nil })
	case sqltype.Boolean, sqltype.Bit:
		return NewColumnReader(func(v *sql.NullBool) (any, error) { return coerce(v.Bool, v.Valid) })
	case sqltype.TinyInt, sqltype.SmallInt, sqltype.Integer, sqltype.BigInt:
		return NewColumnReader(func(v *sql.NullInt64) (any, error) { return coerce(v.Int64, v.Valid) })
	case sqltype.Real, sqltype.Float, sqltype.Double:
		return NewColumnReader(func(v *sql.NullFloat64) (any, error) { return coerce(v.Float64, v.Valid) })
	case sqltype.Numeric, sqltype.Decimal:
		return NewColumnReader(func(v *decimal.NullDecimal) (any, error) { return coerce(v.Decimal, v.Valid) })
	case sqltype.Date:
		return NewColumnReader(func(v *NullTime) (any, error) { return coerce(dateOf(v.Time), v.Valid) })
	case sqltype.Time:
		return NewColumnReader(func(v *NullTimeOfDay) (any, error) { return coerce(v.Duration, v.Valid) })
	case sqltype.Timestamp, sqltype.TimestampWithTimezone:
		return NewColumnReader(func(v *NullTime) (any, error) { return coerce(timestampOf(v.Time), v.Valid) })
	case sqltype.Binary, sqltype.VarBinary, sqltype.LongVarBinary, sqltype.Blob:
		// database/sql copies into *[]byte, the value outlives the row
		return NewColumnReader(func(v *[]byte) (any, error) { return coerce(*v, *v != nil) })
	case sqltype.Array, sqltype.Struct, sqltype.Ref, sqltype.Other,
		sqltype.SQLXML, sqltype.DataLink, sqltype.Distinct, sqltype.JavaObject:
		return NewColumnReader(func(v *any) (any, error) { return coerce(*v, *v != nil) })
	default:
		return NewColumnReader(func(v *sql.NullString) (any, error) { return coerce(v.String, v.Valid) })
	}
}
