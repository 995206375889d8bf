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

// Package sqltype defines the portable SQL type codes used by the engine and
// the column metadata derived from a driver's result set.
package sqltype

import "strconv"

// Type is a portable SQL type code. The values are identical to the constants
// of java.sql.Types so that type codes stay stable across dialects and can be
// compared with the type tables published by database vendors.
type Type int

const (
	Bit           Type = -7
	TinyInt       Type = -6
	SmallInt      Type = 5
	Integer       Type = 4
	BigInt        Type = -5
	Float         Type = 6
	Real          Type = 7
	Double        Type = 8
	Numeric       Type = 2
	Decimal       Type = 3
	Char          Type = 1
	VarChar       Type = 12
	LongVarChar   Type = -1
	Date          Type = 91
	Time          Type = 92
	Timestamp     Type = 93
	Binary        Type = -2
	VarBinary     Type = -3
	LongVarBinary Type = -4
	Null          Type = 0
	Other         Type = 1111
	JavaObject    Type = 2000
	Distinct      Type = 2001
	Struct        Type = 2002
	Array         Type = 2003
	Blob          Type = 2004
	Clob          Type = 2005
	Ref           Type = 2006
	DataLink      Type = 70
	Boolean       Type = 16
	RowID         Type = -8
	NChar         Type = -15
	NVarChar      Type = -9
	LongNVarChar  Type = -16
	NClob         Type = 2011
	SQLXML        Type = 2009
	RefCursor     Type = 2012

	TimeWithTimezone      Type = 2013
	TimestampWithTimezone Type = 2014
)

var typeNames = map[Type]string{
	Bit:                   "BIT",
	TinyInt:               "TINYINT",
	SmallInt:              "SMALLINT",
	Integer:               "INTEGER",
	BigInt:                "BIGINT",
	Float:                 "FLOAT",
	Real:                  "REAL",
	Double:                "DOUBLE",
	Numeric:               "NUMERIC",
	Decimal:               "DECIMAL",
	Char:                  "CHAR",
	VarChar:               "VARCHAR",
	LongVarChar:           "LONGVARCHAR",
	Date:                  "DATE",
	Time:                  "TIME",
	Timestamp:             "TIMESTAMP",
	Binary:                "BINARY",
	VarBinary:             "VARBINARY",
	LongVarBinary:         "LONGVARBINARY",
	Null:                  "NULL",
	Other:                 "OTHER",
	JavaObject:            "JAVA_OBJECT",
	Distinct:              "DISTINCT",
	Struct:                "STRUCT",
	Array:                 "ARRAY",
	Blob:                  "BLOB",
	Clob:                  "CLOB",
	Ref:                   "REF",
	DataLink:              "DATALINK",
	Boolean:               "BOOLEAN",
	RowID:                 "ROWID",
	NChar:                 "NCHAR",
	NVarChar:              "NVARCHAR",
	LongNVarChar:          "LONGNVARCHAR",
	NClob:                 "NCLOB",
	SQLXML:                "SQLXML",
	RefCursor:             "REF_CURSOR",
	TimeWithTimezone:      "TIME_WITH_TIMEZONE",
	TimestampWithTimezone: "TIMESTAMP_WITH_TIMEZONE",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// Types returns every known type code.
func Types() []Type {
	out := make([]Type, 0, len(typeNames))
	for t := range typeNames {
		out = append(out, t)
	}
	return out
}

// IsNumeric reports whether the type is an exact decimal type.
func (t Type) IsNumeric() bool {
	return t == Numeric || t == Decimal
}

// IsTemporal reports whether the type holds a date, a time or a timestamp.
func (t Type) IsTemporal() bool {
	switch t {
	case Date, Time, Timestamp, TimeWithTimezone, TimestampWithTimezone:
		return true
	}
	return false
}
