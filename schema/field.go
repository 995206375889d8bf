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

// Package schema contains the static schema representation records are built
// against, and the mapping from SQL column metadata onto it.
package schema

import (
	"fmt"
	"strings"
)

// Type is the physical type of a field.
type Type int

const (
	TypeNull Type = iota
	TypeBool
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeString
	TypeBytes
)

var typeNames = [...]string{
	TypeNull:   "null",
	TypeBool:   "boolean",
	TypeInt:    "int",
	TypeLong:   "long",
	TypeFloat:  "float",
	TypeDouble: "double",
	TypeString: "string",
	TypeBytes:  "bytes",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("Type(%d)", int(t))
	}
	return typeNames[t]
}

// LogicalType refines the physical type of a field.
type LogicalType int

const (
	LogicalNone LogicalType = iota
	LogicalDate
	LogicalTimeMicros
	LogicalTimestampMicros
	LogicalDecimal
)

var logicalNames = [...]string{
	LogicalNone:            "",
	LogicalDate:            "date",
	LogicalTimeMicros:      "time-micros",
	LogicalTimestampMicros: "timestamp-micros",
	LogicalDecimal:         "decimal",
}

func (l LogicalType) String() string {
	if l < 0 || int(l) >= len(logicalNames) {
		return fmt.Sprintf("LogicalType(%d)", int(l))
	}
	return logicalNames[l]
}

// Field is a named, typed and optionally nullable element of a Schema.
type Field struct {
	Name    string
	Type    Type
	Logical LogicalType
	// Precision and Scale are only set for LogicalDecimal.
	Precision int
	Scale     int
	Nullable  bool
}

// NewField returns a non-nullable field of a primitive type.
func NewField(name string, t Type) Field {
	return Field{Name: name, Type: t}
}

// DateField returns a field holding a date without time.
func DateField(name string) Field {
	return Field{Name: name, Type: TypeInt, Logical: LogicalDate}
}

// TimeMicrosField returns a field holding a time of day with microsecond
// precision.
func TimeMicrosField(name string) Field {
	return Field{Name: name, Type: TypeLong, Logical: LogicalTimeMicros}
}

// TimestampMicrosField returns a field holding an instant with microsecond
// precision.
func TimestampMicrosField(name string) Field {
	return Field{Name: name, Type: TypeLong, Logical: LogicalTimestampMicros}
}

// DecimalField returns a field holding an exact decimal number.
func DecimalField(name string, precision, scale int) Field {
	return Field{Name: name, Type: TypeBytes, Logical: LogicalDecimal, Precision: precision, Scale: scale}
}

// AsNullable returns a copy of the field that accepts null values.
func (f Field) AsNullable() Field {
	f.Nullable = true
	return f
}

// NonNullable returns a copy of the field that does not accept null values.
func (f Field) NonNullable() Field {
	f.Nullable = false
	return f
}

// SameType reports whether both fields have the same non-nullable type,
// ignoring their names.
func (f Field) SameType(other Field) bool {
	return f.Type == other.Type &&
		f.Logical == other.Logical &&
		f.Precision == other.Precision &&
		f.Scale == other.Scale
}

// TypeString returns a human readable representation of the field type.
func (f Field) TypeString() string {
	var sb strings.Builder
	switch f.Logical {
	case LogicalNone:
		sb.WriteString(f.Type.String())
	case LogicalDecimal:
		fmt.Fprintf(&sb, "decimal(%d,%d)", f.Precision, f.Scale)
	default:
		sb.WriteString(f.Logical.String())
	}
	if f.Nullable && f.Type != TypeNull {
		sb.WriteString(" (nullable)")
	}
	return sb.String()
}

func (f Field) String() string {
	return f.Name + " " + f.TypeString()
}
