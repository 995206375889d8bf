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
	"errors"
	"fmt"

	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
)

var ErrBind = errors.New("cannot bind value")

// BindError is returned when a value cannot be represented in the SQL type of
// the column it is bound to.
type BindError struct {
	Column string
	Type   sqltype.Type
	Value  any
	Err    error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("cannot bind %T to column %q of type %s: %v", e.Value, e.Column, e.Type, e.Err)
}

func (e *BindError) Unwrap() []error { return []error{ErrBind, e.Err} }

// Writer converts record values into statement arguments. Arguments are
// produced strictly in column order.
type Writer struct {
	cols []sqltype.ColumnType
	vc   ValueCodec
}

func NewWriter(cols []sqltype.ColumnType, vc ValueCodec) *Writer {
	if vc == nil {
		vc = NoopValueCodec{}
	}
	return &Writer{cols: cols, vc: vc}
}

func (w *Writer) Columns() []sqltype.ColumnType { return w.cols }

// Args returns the arguments for a row, looking values up by column name.
// Missing values are bound as NULL.
func (w *Writer) Args(row map[string]any) ([]any, error) {
	args := make([]any, len(w.cols))
	for i, col := range w.cols {
		arg, err := w.Bind(col, row[col.Name])
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}
	return args, nil
}

// RecordArgs returns the arguments for a record.
func (w *Writer) RecordArgs(r *schema.Record) ([]any, error) {
	return w.Args(r.Map())
}

// Bind converts a single value for the column.
func (w *Writer) Bind(col sqltype.ColumnType, v any) (any, error) {
	arg, ok, err := w.vc.Bind(col, v)
	if !ok && err == nil {
		arg, err = bind(col, v)
	}
	if err != nil {
		return nil, &BindError{Column: col.Name, Type: col.Type, Value: v, Err: err}
	}
	return arg, nil
}

func bind(col sqltype.ColumnType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case sqltype.Null:
		return nil, nil
	case sqltype.Boolean, sqltype.Bit:
		return toBool(v)
	case sqltype.TinyInt, sqltype.SmallInt, sqltype.Integer, sqltype.BigInt:
		return toInt64(v)
	case sqltype.Real, sqltype.Float, sqltype.Double:
		return toFloat64(v)
	case sqltype.Numeric, sqltype.Decimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case sqltype.Date:
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return dateOf(t), nil
	case sqltype.Time:
		d, err := toTimeOfDay(v)
		if err != nil {
			return nil, err
		}
		return schema.FormatTimeOfDay(d), nil
	case sqltype.Timestamp, sqltype.TimestampWithTimezone:
		t, err := toTime(v)
		if err != nil {
			return nil, err
		}
		return timestampOf(t), nil
	case sqltype.Binary, sqltype.VarBinary, sqltype.LongVarBinary, sqltype.Blob:
		return toBytes(v)
	case sqltype.Array, sqltype.Struct, sqltype.Ref, sqltype.Other,
		sqltype.SQLXML, sqltype.DataLink, sqltype.Distinct, sqltype.JavaObject:
		// left to the driver
		return v, nil
	default:
		return toString(v)
	}
}
