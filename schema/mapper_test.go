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
	"testing"

	"github.com/conduitio/conduit-connector-dbcommons/sqltype"
	"github.com/matryer/is"
	"go.uber.org/multierr"
)

func TestMapper_MapColumn(t *testing.T) {
	testCases := []struct {
		typ  sqltype.Type
		want Field
	}{
		{sqltype.Boolean, Field{Type: TypeBool}},
		{sqltype.Bit, Field{Type: TypeBool}},
		{sqltype.TinyInt, Field{Type: TypeInt}},
		{sqltype.SmallInt, Field{Type: TypeInt}},
		{sqltype.Integer, Field{Type: TypeInt}},
		{sqltype.BigInt, Field{Type: TypeLong}},
		{sqltype.Real, Field{Type: TypeFloat}},
		{sqltype.Float, Field{Type: TypeFloat}},
		{sqltype.Double, Field{Type: TypeDouble}},
		{sqltype.Numeric, Field{Type: TypeInt}},
		{sqltype.Decimal, Field{Type: TypeInt}},
		{sqltype.Date, DateField("")},
		{sqltype.Time, TimeMicrosField("")},
		{sqltype.Timestamp, TimestampMicrosField("")},
		{sqltype.Binary, Field{Type: TypeBytes}},
		{sqltype.VarBinary, Field{Type: TypeBytes}},
		{sqltype.LongVarBinary, Field{Type: TypeBytes}},
		{sqltype.Blob, Field{Type: TypeBytes}},
		{sqltype.Null, Field{Type: TypeNull, Nullable: true}},
		{sqltype.Char, Field{Type: TypeString}},
		{sqltype.VarChar, Field{Type: TypeString}},
		{sqltype.LongVarChar, Field{Type: TypeString}},
		{sqltype.NChar, Field{Type: TypeString}},
		{sqltype.NVarChar, Field{Type: TypeString}},
		{sqltype.LongNVarChar, Field{Type: TypeString}},
		{sqltype.Clob, Field{Type: TypeString}},
		{sqltype.NClob, Field{Type: TypeString}},
		{sqltype.RowID, Field{Type: TypeString}},
		{sqltype.RefCursor, Field{Type: TypeString}},
		{sqltype.TimeWithTimezone, Field{Type: TypeString}},
		{sqltype.TimestampWithTimezone, TimestampMicrosField("")},
	}

	unsupported := map[sqltype.Type]bool{
		sqltype.Array: true, sqltype.Struct: true, sqltype.Ref: true, sqltype.Other: true,
		sqltype.SQLXML: true, sqltype.DataLink: true, sqltype.Distinct: true, sqltype.JavaObject: true,
	}

	// every type is either mapped or unsupported
	covered := make(map[sqltype.Type]bool)
	for _, tc := range testCases {
		covered[tc.typ] = true
	}
	for _, typ := range sqltype.Types() {
		if !covered[typ] && !unsupported[typ] {
			t.Errorf("type %s is not covered", typ)
		}
	}

	var m Mapper
	for _, tc := range testCases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			is := is.New(t)
			got, err := m.MapColumn(sqltype.ColumnType{Name: "col", Type: tc.typ})
			is.NoErr(err)
			tc.want.Name = "col"
			is.Equal(got, tc.want)
		})
	}
	for typ := range unsupported {
		t.Run(typ.String(), func(t *testing.T) {
			is := is.New(t)
			_, err := m.MapColumn(sqltype.ColumnType{Name: "col", Type: typ, DatabaseTypeName: "X"})
			var ute *UnsupportedTypeError
			is.True(errors.As(err, &ute))
			is.Equal(ute.Column, "col")
			is.Equal(ute.Type, typ)
			is.True(errors.Is(err, ErrUnsupportedType))
		})
	}
}

func TestMapper_MapColumn_Numeric(t *testing.T) {
	testCases := []struct {
		precision, scale int64
		want             Type
	}{
		{9, 0, TypeInt},
		{10, 0, TypeLong},
		{10, 6, TypeDouble},
		{1, 1, TypeDouble},
		{38, 0, TypeLong},
		{0, 0, TypeInt},
		{5, -2, TypeDouble},
	}
	var m Mapper
	for _, tc := range testCases {
		is := is.New(t)
		got, err := m.MapColumn(sqltype.ColumnType{
			Name:      "score",
			Type:      sqltype.Numeric,
			Precision: tc.precision,
			Scale:     tc.scale,
		})
		is.NoErr(err)
		is.Equal(got.Type, tc.want) // NUMERIC(precision,scale)
	}
}

func TestMapper_MapColumn_Nullable(t *testing.T) {
	is := is.New(t)
	var m Mapper
	for _, typ := range []sqltype.Type{sqltype.Integer, sqltype.VarChar, sqltype.Date, sqltype.Time, sqltype.Timestamp} {
		got, err := m.MapColumn(sqltype.ColumnType{Name: "c", Type: typ, Nullable: true})
		is.NoErr(err)
		is.True(got.Nullable)

		got, err = m.MapColumn(sqltype.ColumnType{Name: "c", Type: typ})
		is.NoErr(err)
		is.True(!got.Nullable)
	}
}

func TestMapper_MapColumn_Override(t *testing.T) {
	is := is.New(t)
	m := Mapper{Override: OverrideFunc(func(col sqltype.ColumnType) (Field, bool, error) {
		if col.Type == sqltype.Other || col.Type == sqltype.Array {
			return FieldFor(col, TypeString), true, nil
		}
		return Field{}, false, nil
	})}

	got, err := m.MapColumn(sqltype.ColumnType{Name: "tags", Type: sqltype.Array, Nullable: true})
	is.NoErr(err)
	is.Equal(got, Field{Name: "tags", Type: TypeString, Nullable: true})

	got, err = m.MapColumn(sqltype.ColumnType{Name: "id", Type: sqltype.BigInt})
	is.NoErr(err)
	is.Equal(got, Field{Name: "id", Type: TypeLong})

	_, err = m.MapColumn(sqltype.ColumnType{Name: "s", Type: sqltype.Struct})
	is.True(errors.Is(err, ErrUnsupportedType))
}

func TestMapper_MapColumns(t *testing.T) {
	cols := []sqltype.ColumnType{
		{Name: "id", Type: sqltype.Integer},
		{Name: "name", Type: sqltype.VarChar, Nullable: true},
		{Name: "created", Type: sqltype.Timestamp},
		{Name: "geom", Type: sqltype.Other},
	}
	var m Mapper

	t.Run("no override", func(t *testing.T) {
		is := is.New(t)
		_, err := m.MapColumns(cols, nil)
		is.True(errors.Is(err, ErrUnsupportedType))

		fields, err := m.MapColumns(cols[:3], nil)
		is.NoErr(err)
		is.Equal(fields, []Field{
			{Name: "id", Type: TypeInt},
			{Name: "name", Type: TypeString, Nullable: true},
			TimestampMicrosField("created"),
		})
	})

	t.Run("override subset", func(t *testing.T) {
		is := is.New(t)
		override := MustNew("out",
			Field{Name: "name", Type: TypeString},
			TimestampMicrosField("created").AsNullable(),
		)
		fields, err := m.MapColumns(cols, override)
		is.NoErr(err)
		is.Equal(fields, override.Fields())
	})

	t.Run("override mismatches", func(t *testing.T) {
		is := is.New(t)
		override := MustNew("out",
			Field{Name: "id", Type: TypeLong},
			Field{Name: "missing", Type: TypeString},
			Field{Name: "name", Type: TypeString},
			Field{Name: "geom", Type: TypeString},
		)
		_, err := m.MapColumns(cols, override)
		errs := multierr.Errors(err)
		is.Equal(len(errs), 3)

		var me *MismatchError
		is.True(errors.As(errs[0], &me))
		is.Equal(me.Field, "id")
		is.True(errors.As(errs[1], &me))
		is.Equal(me.Field, "missing")
		is.True(errors.Is(errs[2], ErrUnsupportedType))
	})
}

func TestNew_DuplicateField(t *testing.T) {
	is := is.New(t)
	_, err := New("s", NewField("a", TypeInt), NewField("a", TypeLong))
	is.True(err != nil)
	_, err = New("", NewField("a", TypeInt))
	is.True(err != nil)
}
