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

package dbcommons

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
	"github.com/goccy/go-json"
)

const (
	OperationCreate   Operation = iota + 1 // create
	OperationUpdate                        // update
	OperationDelete                        // delete
	OperationSnapshot                      // snapshot
)

// Operation defines what triggered the creation of a record.
type Operation int

func _() {
	// An "invalid array index" compiler error signifies that the constant values have changed.
	var cTypes [1]struct{}
	_ = cTypes[int(OperationCreate)-int(cpluginv1.OperationCreate)]
	_ = cTypes[int(OperationUpdate)-int(cpluginv1.OperationUpdate)]
	_ = cTypes[int(OperationDelete)-int(cpluginv1.OperationDelete)]
	_ = cTypes[int(OperationSnapshot)-int(cpluginv1.OperationSnapshot)]
}

var operationNames = map[Operation]string{
	OperationCreate:   "create",
	OperationUpdate:   "update",
	OperationDelete:   "delete",
	OperationSnapshot: "snapshot",
}

func (i Operation) String() string {
	if name, ok := operationNames[i]; ok {
		return name
	}
	return "Operation(" + strconv.Itoa(int(i)) + ")"
}

func (i Operation) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Operation) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		return nil // empty string, do nothing
	}
	for op, name := range operationNames {
		if string(b) == name {
			*i = op
			return nil
		}
	}
	// it's not a known operation, but we also allow Operation(int)
	valIntRaw := strings.TrimSuffix(strings.TrimPrefix(string(b), "Operation("), ")")
	valInt, err := strconv.Atoi(valIntRaw)
	if err != nil {
		return fmt.Errorf("unknown operation %q", b)
	}
	*i = Operation(valInt)
	return nil
}

// Record represents a single row produced by a source or consumed by a
// destination.
type Record struct {
	// Position uniquely represents the record. Positions produced by the
	// database source identify the split and the row offset within it.
	Position Position `json:"position"`
	// Operation defines what triggered the creation of a record. Rows read
	// from a table are snapshots.
	Operation Operation `json:"operation"`
	// Metadata contains additional information regarding the record.
	Metadata Metadata `json:"metadata"`

	// Key holds the values of the key columns of the row, if any.
	Key Data `json:"key"`
	// Payload holds the row.
	Payload Change `json:"payload"`
}

type Metadata map[string]string

// Bytes returns the JSON encoding of the Record.
func (r Record) Bytes() []byte {
	if r.Metadata == nil {
		// since we are dealing with a Record value this will not be seen
		// outside this function
		r.Metadata = make(map[string]string)
	}

	// before encoding the record set the opencdc version metadata field
	r.Metadata.SetOpenCDCVersion()
	// we don't want to mutate the metadata permanently, so we revert it
	// when we are done
	defer func() {
		delete(r.Metadata, MetadataOpenCDCVersion)
	}()

	b, err := json.Marshal(r)
	if err != nil {
		// Unlikely to happen, records only hold JSON-safe values.
		panic(fmt.Errorf("error while marshaling Record as JSON: %w", err))
	}
	return b
}

type Change struct {
	// Before contains the data before the operation occurred. Only populated
	// for updates and deletes.
	Before Data `json:"before"`
	// After contains the data after the operation occurred. Populated for all
	// operations except OperationDelete.
	After Data `json:"after"`
}

// Position is a unique identifier for a record, it contains everything needed
// to restart a pipeline at a certain position.
type Position []byte

// Data is a structure that contains some bytes. The only structs implementing
// Data are RawData and StructuredData.
type Data interface {
	isData()
	Bytes() []byte
}

// RawData contains unstructured data in form of a byte slice.
type RawData []byte

func (RawData) isData() {}

// Bytes simply casts RawData to a byte slice.
func (d RawData) Bytes() []byte {
	return d
}

// StructuredData contains data in form of a map with string keys and arbitrary
// values.
type StructuredData map[string]interface{}

func (StructuredData) isData() {}

// Bytes returns the JSON encoding of the map.
func (d StructuredData) Bytes() []byte {
	b, err := json.Marshal(d)
	if err != nil {
		panic(fmt.Errorf("error while marshaling StructuredData as JSON: %w", err))
	}
	return b
}

// StructuredDataFrom interprets data as structured data. Raw data is parsed
// as a JSON object.
func StructuredDataFrom(d Data) (StructuredData, error) {
	switch d := d.(type) {
	case nil:
		return nil, nil
	case StructuredData:
		return d, nil
	case RawData:
		if len(d) == 0 {
			return nil, nil
		}
		var sd StructuredData
		if err := json.Unmarshal(d, &sd); err != nil {
			return nil, fmt.Errorf("raw data is not a JSON object: %w", err)
		}
		return sd, nil
	default:
		return nil, fmt.Errorf("unexpected data type %T", d)
	}
}

func toProtocolRecord(r Record) cpluginv1.Record {
	return cpluginv1.Record{
		Position:  r.Position,
		Operation: cpluginv1.Operation(r.Operation),
		Metadata:  r.Metadata,
		Key:       toProtocolData(r.Key),
		Payload: cpluginv1.Change{
			Before: toProtocolData(r.Payload.Before),
			After:  toProtocolData(r.Payload.After),
		},
	}
}

func toProtocolData(d Data) cpluginv1.Data {
	switch v := d.(type) {
	case nil:
		return nil
	case RawData:
		return cpluginv1.RawData(v)
	case StructuredData:
		return cpluginv1.StructuredData(v)
	default:
		panic("unknown data type")
	}
}

func fromProtocolRecord(r cpluginv1.Record) Record {
	return Record{
		Position:  r.Position,
		Operation: Operation(r.Operation),
		Metadata:  r.Metadata,
		Key:       fromProtocolData(r.Key),
		Payload: Change{
			Before: fromProtocolData(r.Payload.Before),
			After:  fromProtocolData(r.Payload.After),
		},
	}
}

func fromProtocolData(d cpluginv1.Data) Data {
	switch v := d.(type) {
	case nil:
		return nil
	case cpluginv1.RawData:
		return RawData(v)
	case cpluginv1.StructuredData:
		return StructuredData(v)
	default:
		panic("unknown data type")
	}
}
