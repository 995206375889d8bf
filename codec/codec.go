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

// Package codec reads rows from a result set into schema records and binds
// record values to statement parameters, based on the column contract of a
// task.
package codec

import (
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
)

// ValueCodec is implemented by dialects that need to handle vendor specific
// column types. It is consulted for every column before the generic path.
type ValueCodec interface {
	// Reader returns a reader for the column producing values for field f.
	// If ok is false the generic reader is used.
	Reader(col sqltype.ColumnType, f schema.Field) (r ColumnReader, ok bool)
	// Bind converts v into a statement argument for the column. If ok is
	// false the generic conversion is used.
	Bind(col sqltype.ColumnType, v any) (arg any, ok bool, err error)
}

// ColumnReader reads a single column. Dest is passed to Scan, Value is called
// after every successful Scan and returns the field value, nil for SQL NULL.
type ColumnReader interface {
	Dest() any
	Value() (any, error)
}

type columnReader[T any] struct {
	dest  T
	value func(*T) (any, error)
}

// NewColumnReader returns a ColumnReader scanning into a value of type T and
// converting it with fn.
func NewColumnReader[T any](fn func(*T) (any, error)) ColumnReader {
	return &columnReader[T]{value: fn}
}

func (r *columnReader[T]) Dest() any           { return &r.dest }
func (r *columnReader[T]) Value() (any, error) { return r.value(&r.dest) }

// NoopValueCodec always falls back to the generic path.
type NoopValueCodec struct{}

func (NoopValueCodec) Reader(sqltype.ColumnType, schema.Field) (ColumnReader, bool) {
	return nil, false
}

func (NoopValueCodec) Bind(sqltype.ColumnType, any) (any, bool, error) {
	return nil, false, nil
}
