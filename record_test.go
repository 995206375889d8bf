// Copyright © 2022 Meroxa, Inc.
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

package dbcommons

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"
	"github.com/matryer/is"
)

func TestRecord_Bytes(t *testing.T) {
	is := is.New(t)

	r := Record{
		Position:  Position("foo"),
		Operation: OperationSnapshot,
		Metadata:  Metadata{MetadataSplit: "id IS NULL"},
		Key:       RawData("bar"),
		Payload: Change{
			Before: nil,
			After: StructuredData{
				"foo": "bar",
				"baz": "qux",
			},
		},
	}

	var got map[string]any
	is.NoErr(json.Unmarshal(r.Bytes(), &got))

	want := map[string]any{
		"position":  "Zm9v",
		"operation": "snapshot",
		"metadata": map[string]any{
			MetadataSplit:          "id IS NULL",
			MetadataOpenCDCVersion: "v1",
		},
		"key": "YmFy",
		"payload": map[string]any{
			"before": nil,
			"after":  map[string]any{"baz": "qux", "foo": "bar"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected record JSON (-want +got):\n%s", diff)
	}

	// the version is only added to the encoded record
	_, ok := r.Metadata[MetadataOpenCDCVersion]
	is.True(!ok)
}

func TestOperation_Text(t *testing.T) {
	is := is.New(t)

	for _, op := range []Operation{OperationCreate, OperationUpdate, OperationDelete, OperationSnapshot, Operation(9)} {
		text, err := op.MarshalText()
		is.NoErr(err)

		var got Operation
		is.NoErr(got.UnmarshalText(text))
		is.Equal(got, op)
	}

	var op Operation
	is.True(op.UnmarshalText([]byte("upsert")) != nil)
}

func TestStructuredDataFrom(t *testing.T) {
	is := is.New(t)

	got, err := StructuredDataFrom(RawData(`{"id":1,"name":"foo"}`))
	is.NoErr(err)
	is.Equal(got, StructuredData{"id": float64(1), "name": "foo"})

	sd := StructuredData{"id": 1}
	got, err = StructuredDataFrom(sd)
	is.NoErr(err)
	is.Equal(got, sd)

	got, err = StructuredDataFrom(nil)
	is.NoErr(err)
	is.True(got == nil)

	_, err = StructuredDataFrom(RawData("not json"))
	is.True(err != nil)
}

func TestMetadata(t *testing.T) {
	is := is.New(t)
	m := Metadata{}

	_, err := m.GetSplit()
	is.True(errors.Is(err, ErrMetadataFieldNotFound))

	m.SetSplit("id >= 1 AND id <= 10")
	got, err := m.GetSplit()
	is.NoErr(err)
	is.Equal(got, "id >= 1 AND id <= 10")

	readAt := time.Unix(0, 1700000000123456789)
	m.SetReadAt(readAt)
	gotReadAt, err := m.GetReadAt()
	is.NoErr(err)
	is.True(gotReadAt.Equal(readAt))

	m.SetPayloadFormat("avro")
	format, err := m.GetPayloadFormat()
	is.NoErr(err)
	is.Equal(format, "avro")
}
