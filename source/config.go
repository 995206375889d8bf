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

package source

import (
	"fmt"
	"slices"

	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/connection"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/split"
	"github.com/conduitio/conduit-connector-dbcommons/validate"
)

const (
	ParamFetchSize     = "fetchSize"
	ParamSchema        = "schema"
	ParamKeyColumns    = "keyColumns"
	ParamPayloadFormat = "payloadFormat"
)

// PayloadFormat selects how a row is encoded in the payload of a record.
type PayloadFormat string

const (
	// PayloadFormatStructured emits structured data with wire safe values.
	PayloadFormatStructured PayloadFormat = "structured"
	// PayloadFormatAvro emits the Avro binary encoding of the row.
	PayloadFormatAvro PayloadFormat = "avro"
	// PayloadFormatKafkaConnect emits a JSON envelope with a Kafka Connect
	// schema.
	PayloadFormatKafkaConnect PayloadFormat = "kafkaconnect"
	// PayloadFormatDebezium emits a JSON Debezium read event.
	PayloadFormatDebezium PayloadFormat = "debezium"
)

var payloadFormats = []string{
	string(PayloadFormatStructured),
	string(PayloadFormatAvro),
	string(PayloadFormatKafkaConnect),
	string(PayloadFormatDebezium),
}

// Config is the configuration of a source.
type Config struct {
	connection.Config

	ImportQuery   string `json:"importQuery"`
	BoundingQuery string `json:"boundingQuery"`
	SplitBy       string `json:"splitBy"`
	NumSplits     int    `json:"numSplits"`
	// FetchSize is the number of rows fetched from the result set at once.
	FetchSize int `json:"fetchSize"`
	// Schema is an Avro record schema overriding the derived schema.
	Schema        string        `json:"schema"`
	KeyColumns    []string      `json:"keyColumns"`
	PayloadFormat PayloadFormat `json:"payloadFormat"`
}

func (c Config) split() split.Config {
	return split.Config{
		ImportQuery:   c.ImportQuery,
		BoundingQuery: c.BoundingQuery,
		SplitBy:       c.SplitBy,
		NumSplits:     c.NumSplits,
	}
}

// Validate reports all problems of the configuration. It returns the parsed
// schema override, if any.
func (c Config) Validate(d dialect.Dialect) (*schema.Schema, error) {
	var errs validate.Collector
	errs.Merge(c.Config.Validate(d))
	errs.Merge(c.split().Validate())
	if c.FetchSize < 1 {
		errs.Addf(ParamFetchSize, "fetchSize must be at least 1, got %d", c.FetchSize)
	}
	if c.PayloadFormat != "" && !slices.Contains(payloadFormats, string(c.PayloadFormat)) {
		errs.Addf(ParamPayloadFormat, "unknown payload format %q", c.PayloadFormat)
	}

	var override *schema.Schema
	if c.Schema != "" {
		s, err := schema.ParseAvro([]byte(c.Schema))
		if err != nil {
			errs.Add(ParamSchema, err)
		} else {
			override = s
		}
	}
	if override != nil {
		for _, k := range c.KeyColumns {
			if _, ok := override.Field(k); !ok {
				errs.Add(ParamKeyColumns, fmt.Errorf("key column %q is not part of the schema", k))
			}
		}
	}
	return override, errs.Err()
}

// Parameters returns the parameters of a source.
func Parameters() map[string]dbcommons.Parameter {
	params := connection.Parameters()
	params[split.ParamImportQuery] = dbcommons.Parameter{
		Description: "Query returning the rows to read. With more than one split the query must contain the placeholder " + split.Conditions + ".",
		Type:        dbcommons.ParameterTypeString,
		Validations: []dbcommons.Validation{dbcommons.ValidationRequired{}},
	}
	params[split.ParamBoundingQuery] = dbcommons.Parameter{
		Description: "Query returning the minimum and maximum value of splitBy. Required with more than one split.",
		Type:        dbcommons.ParameterTypeString,
	}
	params[split.ParamSplitBy] = dbcommons.Parameter{
		Description: "Numeric column used to split the import query. Required with more than one split.",
		Type:        dbcommons.ParameterTypeString,
	}
	params[split.ParamNumSplits] = dbcommons.Parameter{
		Default:     "1",
		Description: "Number of splits the import query is divided into.",
		Type:        dbcommons.ParameterTypeInt,
		Validations: []dbcommons.Validation{dbcommons.ValidationGreaterThan{Value: 0}},
	}
	params[ParamFetchSize] = dbcommons.Parameter{
		Default:     "1000",
		Description: "Number of rows fetched from the database at once.",
		Type:        dbcommons.ParameterTypeInt,
		Validations: []dbcommons.Validation{dbcommons.ValidationGreaterThan{Value: 0}},
	}
	params[ParamSchema] = dbcommons.Parameter{
		Description: "Avro record schema overriding the schema derived from the import query.",
		Type:        dbcommons.ParameterTypeString,
	}
	params[ParamKeyColumns] = dbcommons.Parameter{
		Description: "Comma separated list of columns forming the record key.",
		Type:        dbcommons.ParameterTypeString,
	}
	params[ParamPayloadFormat] = dbcommons.Parameter{
		Default:     string(PayloadFormatStructured),
		Description: "Encoding of the record payload.",
		Type:        dbcommons.ParameterTypeString,
		Validations: []dbcommons.Validation{dbcommons.ValidationInclusion{List: payloadFormats}},
	}
	return params
}
