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
	"time"

	"github.com/conduitio/conduit-connector-dbcommons/schema"
)

const (
	DebeziumOpCreate DebeziumOp = "c"
	DebeziumOpUpdate DebeziumOp = "u"
	DebeziumOpDelete DebeziumOp = "d"
	DebeziumOpRead   DebeziumOp = "r" // snapshot
)

type DebeziumOp string

type DebeziumPayload struct {
	Before map[string]any `json:"before"`
	After  map[string]any `json:"after"`
	Source any            `json:"source"`
	Op     DebeziumOp     `json:"op"`
	// TimestampMillis is what we call ReadAt in Conduit.
	TimestampMillis int64                `json:"ts_ms,omitempty"`
	Transaction     *DebeziumTransaction `json:"transaction"`
}

type DebeziumTransaction struct {
	ID                  string `json:"id"`
	TotalOrder          int64  `json:"total_order"`
	DataCollectionOrder int64  `json:"data_collection_order"`
}

// DebeziumSource is the source block of the change events emitted by the
// database source.
type DebeziumSource struct {
	Connector string `json:"connector"`
	// Name is the name of the schema of the rows.
	Name string `json:"name"`
	// Snapshot is "true" for rows read from a table, "last" for the last row
	// of the last split.
	Snapshot        string `json:"snapshot"`
	Split           string `json:"split"`
	TimestampMillis int64  `json:"ts_ms"`
}

// NewDebeziumRead returns the change event of a row read by a snapshot.
func NewDebeziumRead(rec *schema.Record, source DebeziumSource, readAt time.Time) (Envelope, error) {
	after, err := Payload(rec)
	if err != nil {
		return Envelope{}, err
	}
	source.TimestampMillis = readAt.UnixMilli()
	p := DebeziumPayload{
		After:           after,
		Source:          source,
		Op:              DebeziumOpRead,
		TimestampMillis: readAt.UnixMilli(),
	}
	return p.ToEnvelope(FromSchema(rec.Schema())), nil
}

// ToEnvelope returns the change event including its schema, value is the
// struct schema of the before and after values.
func (p DebeziumPayload) ToEnvelope(value Schema) Envelope {
	s := Schema{
		Type: TypeStruct,
		Name: value.Name + ".Envelope",
		Fields: []Schema{
			p.valueSchema("before", value),
			p.valueSchema("after", value),
			p.sourceSchema(), // we use a custom source schema, we put our metadata here
			{
				Field: "op",
				Type:  TypeString,
			}, {
				Field:    "ts_ms",
				Type:     TypeInt64,
				Optional: true,
			}, {
				Field:    "transaction",
				Type:     TypeStruct,
				Optional: true,
				Fields: []Schema{{
					Field: "id",
					Type:  TypeString,
				}, {
					Field: "total_order",
					Type:  TypeInt64,
				}, {
					Field: "data_collection_order",
					Type:  TypeInt64,
				}},
			},
		},
	}
	return Envelope{
		Schema:  s,
		Payload: p,
	}
}

func (p DebeziumPayload) valueSchema(field string, value Schema) Schema {
	value.Field = field
	value.Optional = true // before and after are always optional
	return value
}

func (p DebeziumPayload) sourceSchema() Schema {
	s := Reflect(p.Source)
	if s == nil {
		// source is nil
		s = &Schema{
			Type:     TypeStruct,
			Optional: true,
		}
	}
	s.Field = "source"
	return *s
}
