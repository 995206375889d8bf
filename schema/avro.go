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
	"bytes"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"
)

type avroRecord struct {
	Type   string      `json:"type"`
	Name   string      `json:"name"`
	Fields []avroField `json:"fields"`
}

type avroField struct {
	Name string          `json:"name"`
	Type json.RawMessage `json:"type"`
}

type avroLogical struct {
	Type        string `json:"type"`
	LogicalType string `json:"logicalType"`
	Precision   int    `json:"precision,omitempty"`
	Scale       int    `json:"scale,omitempty"`
}

// MarshalAvro renders the schema as an Avro record schema. Nullable fields are
// rendered as a union of null and the field type.
func (s *Schema) MarshalAvro() ([]byte, error) {
	rec := avroRecord{
		Type:   "record",
		Name:   s.name,
		Fields: make([]avroField, len(s.fields)),
	}
	for i, f := range s.fields {
		t, err := avroType(f)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		rec.Fields[i] = avroField{Name: f.Name, Type: t}
	}
	return json.Marshal(rec)
}

func avroType(f Field) (json.RawMessage, error) {
	var t any = f.Type.String()
	if f.Logical != LogicalNone {
		t = avroLogical{
			Type:        f.Type.String(),
			LogicalType: f.Logical.String(),
			Precision:   f.Precision,
			Scale:       f.Scale,
		}
	}
	if f.Nullable && f.Type != TypeNull {
		t = []any{"null", t}
	}
	return json.Marshal(t)
}

// ParseAvro parses an Avro record schema. Only the types produced by
// MarshalAvro are accepted.
func ParseAvro(raw []byte) (*Schema, error) {
	var rec avroRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("invalid avro schema: %w", err)
	}
	if rec.Type != "record" {
		return nil, fmt.Errorf("avro schema must be a record, got %q", rec.Type)
	}
	fields := make([]Field, len(rec.Fields))
	for i, af := range rec.Fields {
		f, err := parseAvroType(af.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", af.Name, err)
		}
		f.Name = af.Name
		fields[i] = f
	}
	return New(rec.Name, fields...)
}

func parseAvroType(raw json.RawMessage) (Field, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return Field{}, errors.New("missing type")
	}
	switch raw[0] {
	case '"':
		var name string
		if err := json.Unmarshal(raw, &name); err != nil {
			return Field{}, err
		}
		t, err := parsePrimitive(name)
		if err != nil {
			return Field{}, err
		}
		return Field{Type: t, Nullable: t == TypeNull}, nil
	case '[':
		var union []json.RawMessage
		if err := json.Unmarshal(raw, &union); err != nil {
			return Field{}, err
		}
		var (
			f       Field
			hasNull bool
			n       int
		)
		for _, u := range union {
			uf, err := parseAvroType(u)
			if err != nil {
				return Field{}, err
			}
			if uf.Type == TypeNull {
				hasNull = true
				continue
			}
			f = uf
			n++
		}
		if !hasNull || n != 1 {
			return Field{}, fmt.Errorf("unsupported union %s, only [\"null\", T] is allowed", raw)
		}
		f.Nullable = true
		return f, nil
	case '{':
		var l avroLogical
		if err := json.Unmarshal(raw, &l); err != nil {
			return Field{}, err
		}
		t, err := parsePrimitive(l.Type)
		if err != nil {
			return Field{}, err
		}
		if l.LogicalType == "" {
			return Field{Type: t}, nil
		}
		var f Field
		switch l.LogicalType {
		case "date":
			f = DateField("")
		case "time-micros":
			f = TimeMicrosField("")
		case "timestamp-micros":
			f = TimestampMicrosField("")
		case "decimal":
			if l.Precision <= 0 {
				return Field{}, fmt.Errorf("decimal precision must be positive, got %d", l.Precision)
			}
			f = DecimalField("", l.Precision, l.Scale)
		default:
			return Field{}, fmt.Errorf("unsupported logical type %q", l.LogicalType)
		}
		if f.Type != t {
			return Field{}, fmt.Errorf("logical type %q requires type %s, got %s", l.LogicalType, f.Type, t)
		}
		return f, nil
	default:
		return Field{}, fmt.Errorf("unsupported avro type %s", raw)
	}
}

func parsePrimitive(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return Type(t), nil
		}
	}
	return 0, fmt.Errorf("unsupported avro type %q", name)
}

// Codec returns a goavro codec for the schema.
func (s *Schema) Codec() (*goavro.Codec, error) {
	raw, err := s.MarshalAvro()
	if err != nil {
		return nil, err
	}
	codec, err := goavro.NewCodec(string(raw))
	if err != nil {
		return nil, fmt.Errorf("could not create avro codec: %w", err)
	}
	return codec, nil
}
