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

package kafkaconnect

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
	"github.com/shopspring/decimal"
)

func TestSchema(t *testing.T) {
	schemaNode := Schema{
		Type:     TypeStruct,
		Name:     "my.struct.name",
		Optional: false,
		Fields: []Schema{{
			Field:    "before",
			Type:     TypeStruct,
			Name:     "my.before.value",
			Optional: true,
			Fields: []Schema{{
				Field:    "id",
				Type:     TypeInt32,
				Optional: false,
			}, {
				Field:    "data",
				Type:     TypeInt64,
				Optional: true,
			}},
		}, {
			Field:    "after",
			Type:     TypeStruct,
			Name:     "my.after.value",
			Optional: true,
			Fields: []Schema{{
				Field:    "id",
				Type:     TypeInt32,
				Optional: false,
			}, {
				Field:    "data",
				Type:     TypeBytes,
				Optional: true,
			}},
		}, {
			Field:    "source",
			Type:     TypeStruct,
			Name:     "my.source.value",
			Optional: false,
			Fields: []Schema{{
				Type:     TypeString,
				Field:    "snapshot",
				Name:     "my.enum",
				Optional: true,
				Default:  "false",
				Version:  1,
				Parameters: map[string]string{
					"allowed": "true,last,false",
				},
			}, {
				Field:    "db",
				Type:     TypeString,
				Optional: false,
			}},
		}},
	}
	jsonStr := `
{
  "fields": [
    {
      "field": "before",
      "fields": [
        {
          "field": "id",
          "type": "int32"
        },
        {
          "field": "data",
          "optional": true,
          "type": "int64"
        }
      ],
      "name": "my.before.value",
      "optional": true,
      "type": "struct"
    },
    {
      "field": "after",
      "fields": [
        {
          "field": "id",
          "type": "int32"
        },
        {
          "field": "data",
          "optional": true,
          "type": "bytes"
        }
      ],
      "name": "my.after.value",
      "optional": true,
      "type": "struct"
    },
    {
      "field": "source",
      "fields": [
        {
          "default": "false",
          "field": "snapshot",
          "name": "my.enum",
          "optional": true,
          "parameters": {
            "allowed": "true,last,false"
          },
          "type": "string",
          "version": 1
        },
        {
          "field": "db",
          "type": "string"
        }
      ],
      "name": "my.source.value",
      "type": "struct"
    }
  ],
  "name": "my.struct.name",
  "type": "struct"
}`
	t.Run("unmarshal", func(t *testing.T) {
		is := is.New(t)
		var got Schema
		err := json.Unmarshal([]byte(jsonStr), &got)
		is.NoErr(err)
		is.Equal(got, schemaNode)
	})
	t.Run("marshal", func(t *testing.T) {
		is := is.New(t)
		got, err := json.Marshal(schemaNode)
		is.NoErr(err)

		equalJSON(is, got, []byte(jsonStr))
	})

}

func TestFromSchema(t *testing.T) {
	is := is.New(t)

	s := schema.MustNew("users",
		schema.NewField("id", schema.TypeLong),
		schema.NewField("name", schema.TypeString).AsNullable(),
		schema.NewField("active", schema.TypeBool),
		schema.DateField("born"),
		schema.TimeMicrosField("wakes").AsNullable(),
		schema.TimestampMicrosField("created"),
		schema.DecimalField("score", 10, 6),
	)
	got := FromSchema(s)
	want := Schema{
		Type: TypeStruct,
		Name: "users",
		Fields: []Schema{
			{Field: "id", Type: TypeInt64},
			{Field: "name", Type: TypeString, Optional: true},
			{Field: "active", Type: TypeBoolean},
			{Field: "born", Type: TypeInt32, Name: NameDate},
			{Field: "wakes", Type: TypeInt64, Name: NameMicroTime, Optional: true},
			{Field: "created", Type: TypeInt64, Name: NameMicroTimestamp},
			{Field: "score", Type: TypeString, Name: NameDecimal, Parameters: map[string]string{
				"scale":                     "6",
				"connect.decimal.precision": "10",
			}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("schema mismatch (-want +got):\n%s", diff)
	}
	is.Equal(len(got.Fields), s.Len())
}

func TestPayload(t *testing.T) {
	is := is.New(t)

	s := schema.MustNew("users",
		schema.NewField("id", schema.TypeLong),
		schema.NewField("name", schema.TypeString).AsNullable(),
		schema.DateField("born"),
		schema.TimeMicrosField("wakes"),
		schema.TimestampMicrosField("created"),
		schema.DecimalField("score", 10, 6),
	)
	rec := schema.NewRecord(s)
	is.NoErr(rec.Set("id", int64(7)))
	is.NoErr(rec.Set("name", nil))
	is.NoErr(rec.Set("born", time.Date(1970, 1, 11, 0, 0, 0, 0, time.UTC)))
	is.NoErr(rec.Set("wakes", 90*time.Second))
	is.NoErr(rec.Set("created", time.Date(1970, 1, 1, 0, 0, 1, 500_000, time.UTC)))
	is.NoErr(rec.Set("score", decimal.RequireFromString("123.45")))

	got, err := Payload(rec)
	is.NoErr(err)
	is.Equal(got, map[string]any{
		"id":      int64(7),
		"name":    nil,
		"born":    int32(10),
		"wakes":   int64(90_000_000),
		"created": int64(1_000_500),
		"score":   "123.450000",
	})
}

func TestPayload_WrongValue(t *testing.T) {
	is := is.New(t)

	s := schema.MustNew("t", schema.DateField("born"))
	rec := schema.NewRecord(s)
	is.NoErr(rec.Set("born", "1970-01-01"))

	_, err := Payload(rec)
	is.True(err != nil)
}

func TestNewEnvelope(t *testing.T) {
	is := is.New(t)

	s := schema.MustNew("items", schema.NewField("id", schema.TypeInt))
	rec := schema.NewRecord(s)
	is.NoErr(rec.Set("id", int32(1)))

	env, err := NewEnvelope(rec)
	is.NoErr(err)

	got, err := json.Marshal(env)
	is.NoErr(err)
	equalJSON(is, got, []byte(`{
  "schema": {"type": "struct", "name": "items", "fields": [{"field": "id", "type": "int32"}]},
  "payload": {"id": 1}
}`))
}

func equalJSON(is *is.I, s1, s2 []byte) {
	var o1 interface{}
	var o2 interface{}

	err := json.Unmarshal(s1, &o1)
	is.NoErr(err)
	err = json.Unmarshal(s2, &o2)
	is.NoErr(err)

	is.Equal(o1, o2)
}
