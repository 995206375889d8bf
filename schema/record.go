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
	"fmt"
	"math/big"
	"time"

	"github.com/linkedin/goavro/v2"
	"github.com/shopspring/decimal"
)

const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05.000000"
	TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// Record is a row conforming to a Schema. Values are stored in field order.
//
// Value types per field: bool, int32, int64, float32, float64, string,
// []byte, time.Time for DATE and TIMESTAMP_MICROS, time.Duration since
// midnight for TIME_MICROS and decimal.Decimal for DECIMAL. A nil value
// represents SQL NULL.
type Record struct {
	schema *Schema
	values []any
}

func NewRecord(s *Schema) *Record {
	return &Record{schema: s, values: make([]any, s.Len())}
}

func (r *Record) Schema() *Schema { return r.schema }

// Set stores the value of the named field.
func (r *Record) Set(name string, v any) error {
	i := r.schema.Index(name)
	if i < 0 {
		return fmt.Errorf("field %q does not exist in schema %s", name, r.schema.name)
	}
	r.values[i] = v
	return nil
}

// SetAt stores the value of the field at position i.
func (r *Record) SetAt(i int, v any) { r.values[i] = v }

// Get returns the value of the named field.
func (r *Record) Get(name string) (any, bool) {
	i := r.schema.Index(name)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// At returns the value of the field at position i.
func (r *Record) At(i int) any { return r.values[i] }

// Values returns the values in field order.
func (r *Record) Values() []any {
	out := make([]any, len(r.values))
	copy(out, r.values)
	return out
}

// Map returns the values keyed by field name.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, f := range r.schema.fields {
		m[f.Name] = r.values[i]
	}
	return m
}

// StructuredData returns the values keyed by field name, with temporal and
// decimal values rendered as strings so they survive a JSON round trip.
func (r *Record) StructuredData() map[string]any {
	m := make(map[string]any, len(r.values))
	for i, f := range r.schema.fields {
		m[f.Name] = wireValue(f, r.values[i])
	}
	return m
}

func wireValue(f Field, v any) any {
	if v == nil {
		return nil
	}
	switch f.Logical {
	case LogicalDate:
		if t, ok := v.(time.Time); ok {
			return t.Format(DateLayout)
		}
	case LogicalTimeMicros:
		if d, ok := v.(time.Duration); ok {
			return FormatTimeOfDay(d)
		}
	case LogicalTimestampMicros:
		if t, ok := v.(time.Time); ok {
			return t.UTC().Format(TimestampLayout)
		}
	case LogicalDecimal:
		if d, ok := v.(decimal.Decimal); ok {
			return d.StringFixed(int32(f.Scale))
		}
	}
	return v
}

// FormatTimeOfDay renders a duration since midnight as TimeLayout.
func FormatTimeOfDay(d time.Duration) string {
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format(TimeLayout)
}

// Native returns the values in the representation expected by goavro.
func (r *Record) Native() (map[string]any, error) {
	m := make(map[string]any, len(r.values))
	for i, f := range r.schema.fields {
		v := r.values[i]
		if v == nil {
			m[f.Name] = nil
			continue
		}
		if d, ok := v.(decimal.Decimal); ok {
			if f.Logical != LogicalDecimal {
				return nil, fmt.Errorf("field %q: decimal value for %s field", f.Name, f.TypeString())
			}
			v = d.Rat()
		}
		if f.Nullable && f.Type != TypeNull {
			v = goavro.Union(avroUnionName(f), v)
		}
		m[f.Name] = v
	}
	return m, nil
}

// FromNative builds a record from a value decoded by goavro.
func (s *Schema) FromNative(native map[string]any) (*Record, error) {
	r := NewRecord(s)
	for i, f := range s.fields {
		v, ok := native[f.Name]
		if !ok || v == nil {
			continue
		}
		if u, ok := v.(map[string]any); ok && f.Nullable {
			v = u[avroUnionName(f)]
		}
		if rat, ok := v.(*big.Rat); ok {
			v = decimal.NewFromBigInt(rat.Num(), 0).DivRound(decimal.NewFromBigInt(rat.Denom(), 0), int32(f.Scale))
		}
		r.values[i] = v
	}
	return r, nil
}

func avroUnionName(f Field) string {
	if f.Logical == LogicalNone {
		return f.Type.String()
	}
	return f.Type.String() + "." + f.Logical.String()
}
