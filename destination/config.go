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

package destination

import (
	"database/sql"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/connection"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/validate"
	"github.com/mitchellh/mapstructure"
)

const (
	ParamTable                     = "table"
	ParamColumns                   = "columns"
	ParamEscapeIdentifiers         = "escapeIdentifiers"
	ParamTransactionIsolationLevel = "transactionIsolationLevel"
	ParamSchema                    = "schema"
)

// TxIsolation is the isolation level of the transaction a batch is written
// in. TxNone writes every record on its own.
type TxIsolation int

const (
	TxNone            TxIsolation = -1
	TxReadUncommitted             = TxIsolation(sql.LevelReadUncommitted)
	TxReadCommitted               = TxIsolation(sql.LevelReadCommitted)
	TxRepeatableRead              = TxIsolation(sql.LevelRepeatableRead)
	TxSerializable                = TxIsolation(sql.LevelSerializable)
)

var txIsolationNames = map[string]TxIsolation{
	"TRANSACTION_NONE":             TxNone,
	"TRANSACTION_READ_UNCOMMITTED": TxReadUncommitted,
	"TRANSACTION_READ_COMMITTED":   TxReadCommitted,
	"TRANSACTION_REPEATABLE_READ":  TxRepeatableRead,
	"TRANSACTION_SERIALIZABLE":     TxSerializable,
}

const defaultTxIsolation = "TRANSACTION_READ_COMMITTED"

// ParseTxIsolation parses the name of an isolation level. An empty name is
// TRANSACTION_READ_COMMITTED.
func ParseTxIsolation(name string) (TxIsolation, error) {
	if name == "" {
		return TxReadCommitted, nil
	}
	l, ok := txIsolationNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown transaction isolation level %q", name)
	}
	return l, nil
}

func (l TxIsolation) String() string {
	for name, v := range txIsolationNames {
		if v == l {
			return name
		}
	}
	return fmt.Sprintf("TxIsolation(%d)", int(l))
}

// TxOptions returns the options of a batch transaction, nil for TxNone.
func (l TxIsolation) TxOptions() *sql.TxOptions {
	if l == TxNone {
		return nil
	}
	return &sql.TxOptions{Isolation: sql.IsolationLevel(l)}
}

func txIsolationHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(TxIsolation(0)) {
			return data, nil
		}
		return ParseTxIsolation(data.(string))
	}
}

// Config is the configuration of a destination.
type Config struct {
	connection.Config

	Table             string   `json:"table"`
	Columns           []string `json:"columns"`
	EscapeIdentifiers bool     `json:"escapeIdentifiers"`
	// TransactionIsolationLevel defaults to TRANSACTION_READ_COMMITTED.
	TransactionIsolationLevel TxIsolation `json:"transactionIsolationLevel"`
	// Schema is the Avro record schema of incoming records.
	Schema string `json:"schema"`
}

// Validate reports all problems of the configuration. It returns the parsed
// schema, if any.
func (c Config) Validate(d dialect.Dialect) (*schema.Schema, error) {
	var errs validate.Collector
	errs.Merge(c.Config.Validate(d))
	if strings.TrimSpace(c.Table) == "" {
		errs.Addf(ParamTable, "table is required")
	}

	var input *schema.Schema
	if c.Schema != "" {
		s, err := schema.ParseAvro([]byte(c.Schema))
		if err != nil {
			errs.Add(ParamSchema, err)
		} else {
			input = s
		}
	}
	if input != nil && len(c.Columns) > 0 {
		errs.Addf(ParamColumns, "columns can't be combined with a schema, the schema fields are the columns")
	}
	return input, errs.Err()
}

func isolationLevels() []string {
	return slices.Sorted(maps.Keys(txIsolationNames))
}

// Parameters returns the parameters of a destination.
func Parameters() map[string]dbcommons.Parameter {
	params := connection.Parameters()
	params[ParamTable] = dbcommons.Parameter{
		Description: "Table the records are inserted into.",
		Type:        dbcommons.ParameterTypeString,
		Validations: []dbcommons.Validation{dbcommons.ValidationRequired{}},
	}
	params[ParamColumns] = dbcommons.Parameter{
		Description: "Comma separated list of columns written to. Defaults to all columns of the table.",
		Type:        dbcommons.ParameterTypeString,
	}
	params[ParamEscapeIdentifiers] = dbcommons.Parameter{
		Default:     "false",
		Description: "Whether table and column names are quoted.",
		Type:        dbcommons.ParameterTypeBool,
	}
	params[ParamTransactionIsolationLevel] = dbcommons.Parameter{
		Default:     defaultTxIsolation,
		Description: "Isolation level of the transaction a batch is written in. TRANSACTION_NONE writes records without a transaction.",
		Type:        dbcommons.ParameterTypeString,
		Validations: []dbcommons.Validation{dbcommons.ValidationInclusion{List: isolationLevels()}},
	}
	params[ParamSchema] = dbcommons.Parameter{
		Description: "Avro record schema of the incoming records, its fields are the columns written to.",
		Type:        dbcommons.ParameterTypeString,
	}
	return params
}
