// Copyright © 2023 Meroxa, Inc.
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

// Package kafkaconnect renders records as Kafka Connect JSON messages that
// carry their schema, so that sinks using the Kafka Connect JSON converter can
// consume them.
package kafkaconnect

import (
	"fmt"
	"time"

	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/shopspring/decimal"
)

const (
	TypeBoolean Type = "boolean"
	TypeInt8    Type = "int8"
	TypeInt16   Type = "int16"
	TypeInt32   Type = "int32"
	TypeInt64   Type = "int64"
	TypeFloat   Type = "float"
	TypeDouble  Type = "double"
	TypeBytes   Type = "bytes"
	TypeString  Type = "string"
	TypeArray   Type = "array"
	TypeMap     Type = "map"
	TypeStruct  Type = "struct"
)

// Names of the logical types used for temporal fields.
const (
	NameDate           = "org.apache.kafka.connect.data.Date"
	NameMicroTime      = "io.debezium.time.MicroTime"
	NameMicroTimestamp = "io.debezium.time.MicroTimestamp"
	NameDecimal        = "io.debezium.data.Decimal"
)

type Type string

// Envelope represents a kafka connect message that includes a schema.
type Envelope struct {
	Schema  Schema `json:"schema"`
	Payload any    `json:"payload"`
}

// Schema represents a kafka connect JSON schema, the one that can be included
// in a JSON message directly.
type Schema struct {
	Type     Type   `json:"type"`
	Optional bool   `json:"optional,omitempty"`
	Name     string `json:"name,omitempty"`
	Version  int    `json:"version,omitempty"`
	Doc      string `json:"doc,omitempty"`
	Default  string `json:"default,omitempty"`

	Parameters map[string]string `json:"parameters,omitempty"`

	// Type: Array
	Items *Schema `json:"items,omitempty"`
	// Type: Map
	Keys   *Schema `json:"keys,omitempty"`
	Values *Schema `json:"values,omitempty"`
	// Type: Struct
	Fields []Schema `json:"fields,omitempty"`
	// Struct fields
	Field string `json:"field,omitempty"`
}

// FromSchema returns the struct schema of records with schema s.
func FromSchema(s *schema.Schema) Schema {
	out := Schema{
		Type:   TypeStruct,
		Name:   s.Name(),
		Fields: make([]Schema, s.Len()),
	}
	for i, f := range s.Fields() {
		out.Fields[i] = FieldSchema(f)
	}
	return out
}

// FieldSchema returns the schema of a struct field. Decimals are represented
// as strings at their scale.
func FieldSchema(f schema.Field) Schema {
	s := Schema{Field: f.Name, Optional: f.Nullable}
	switch f.Logical {
	case schema.LogicalDate:
		s.Type, s.Name = TypeInt32, NameDate
		return s
	case schema.LogicalTimeMicros:
		s.Type, s.Name = TypeInt64, NameMicroTime
		return s
	case schema.LogicalTimestampMicros:
		s.Type, s.Name = TypeInt64, NameMicroTimestamp
		return s
	case schema.LogicalDecimal:
		s.Type, s.Name = TypeString, NameDecimal
		s.Parameters = map[string]string{
			"scale":                     fmt.Sprint(f.Scale),
			"connect.decimal.precision": fmt.Sprint(f.Precision),
		}
		return s
	}

	switch f.Type {
	case schema.TypeBool:
		s.Type = TypeBoolean
	case schema.TypeInt:
		s.Type = TypeInt32
	case schema.TypeLong:
		s.Type = TypeInt64
	case schema.TypeFloat:
		s.Type = TypeFloat
	case schema.TypeDouble:
		s.Type = TypeDouble
	case schema.TypeBytes:
		s.Type = TypeBytes
	default:
		// strings and null placeholders
		s.Type = TypeString
		s.Optional = true
	}
	return s
}

// Payload returns the values of rec in the representation declared by
// FieldSchema.
func Payload(rec *schema.Record) (map[string]any, error) {
	fields := rec.Schema().Fields()
	out := make(map[string]any, len(fields))
	for i, f := range fields {
		v, err := payloadValue(f, rec.At(i))
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out[f.Name] = v
	}
	return out, nil
}

// NewEnvelope returns the message of rec including its schema.
func NewEnvelope(rec *schema.Record) (Envelope, error) {
	payload, err := Payload(rec)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{
		Schema:  FromSchema(rec.Schema()),
		Payload: payload,
	}, nil
}

func payloadValue(f schema.Field, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch f.Logical {
	case schema.LogicalDate:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
		days := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).Unix() / (24 * 60 * 60)
		return int32(days), nil
	case schema.LogicalTimeMicros:
		d, ok := v.(time.Duration)
		if !ok {
			return nil, fmt.Errorf("expected time.Duration, got %T", v)
		}
		return d.Microseconds(), nil
	case schema.LogicalTimestampMicros:
		t, ok := v.(time.Time)
		if !ok {
			return nil, fmt.Errorf("expected time.Time, got %T", v)
		}
		return t.UnixMicro(), nil
	case schema.LogicalDecimal:
		d, ok := v.(decimal.Decimal)
		if !ok {
			return nil, fmt.Errorf("expected decimal.Decimal, got %T", v)
		}
		return d.StringFixed(int32(f.Scale)), nil
	}
	return v, nil
}
