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

// Package destination implements a dbcommons.Destination inserting records
// into a table.
package destination

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/codec"
	"github.com/conduitio/conduit-connector-dbcommons/connection"
	"github.com/conduitio/conduit-connector-dbcommons/contract"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/drivers"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/linkedin/goavro/v2"
)

// payloadFormatAvro is the payload format of records produced by a source
// with payloadFormat=avro.
const payloadFormatAvro = "avro"

type Destination struct {
	dbcommons.UnimplementedDestination

	dialect  dialect.Dialect
	registry *drivers.Registry

	config Config
	input  *schema.Schema

	task     *connection.Task
	contract *contract.SinkContract
	writer   *codec.Writer
	insert   string

	// avro caches decoders by the schema in the record metadata.
	avro sync.Map
}

type avroDecoder struct {
	schema *schema.Schema
	codec  *goavro.Codec
}

// execer is implemented by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type Option func(*Destination)

// WithRegistry replaces drivers.Default.
func WithRegistry(r *drivers.Registry) Option {
	return func(d *Destination) {
		d.registry = r
	}
}

func New(d dialect.Dialect, opts ...Option) *Destination {
	dest := &Destination{
		dialect:  d,
		registry: drivers.Default,
	}
	for _, opt := range opts {
		opt(dest)
	}
	return dest
}

func (d *Destination) Parameters() map[string]dbcommons.Parameter {
	return Parameters()
}

func (d *Destination) Configure(ctx context.Context, cfg map[string]string) error {
	var config Config
	if err := dbcommons.Util.ParseConfig(cfg, &config, txIsolationHook()); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := cfg[ParamTransactionIsolationLevel]; !ok {
		config.TransactionIsolationLevel = TxReadCommitted
	}
	var columns []string
	for _, c := range config.Columns {
		if c != "" {
			columns = append(columns, c)
		}
	}
	config.Columns = columns

	input, err := config.Validate(d.dialect)
	if err != nil {
		return err
	}
	d.config = config
	d.input = input

	dbcommons.Logger(ctx).Debug().
		Str("table", config.Table).
		Stringer("isolation", config.TransactionIsolationLevel).
		Msg("destination configured")
	return nil
}

func (d *Destination) Open(ctx context.Context) error {
	task, err := connection.Open(ctx, d.registry, d.dialect, d.config.Config)
	if err != nil {
		return err
	}
	c, err := contract.ResolveSink(ctx, task.DB, d.dialect, contract.SinkConfig{
		Table:             d.config.Table,
		Columns:           d.config.Columns,
		EscapeIdentifiers: d.config.EscapeIdentifiers,
	}, d.input)
	if err == nil && d.input != nil {
		err = c.Validate(d.input)
	}
	if err != nil {
		_ = task.Close(ctx)
		return err
	}

	d.task = task
	d.contract = c
	d.writer = codec.NewWriter(c.Columns, dialect.ValueCodec(d.dialect))
	d.insert = c.InsertQuery()

	dbcommons.Logger(ctx).Info().
		Str("table", c.Table).
		Strs("columns", c.Names()).
		Msg("destination opened")
	return nil
}

// Write inserts created and snapshotted records. A batch is written in one
// transaction, if a record fails the transaction is rolled back and no record
// of the batch counts as written. With TxNone the records written before the
// failing one stay written.
func (d *Destination) Write(ctx context.Context, records []dbcommons.Record) (int, error) {
	opts := d.config.TransactionIsolationLevel.TxOptions()
	if opts == nil {
		for i, r := range records {
			if err := d.route(ctx, d.task.DB, r); err != nil {
				return i, err
			}
		}
		return len(records), nil
	}

	tx, err := d.task.DB.BeginTx(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	for _, r := range records {
		if err := d.route(ctx, tx, r); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				dbcommons.Logger(ctx).Err(rbErr).Msg("failed to roll back transaction")
			}
			return 0, err
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	dbcommons.Logger(ctx).Trace().Int("records", len(records)).Msg("batch committed")
	return len(records), nil
}

func (d *Destination) Teardown(ctx context.Context) error {
	if d.task == nil {
		return nil
	}
	err := d.task.Close(ctx)
	d.task = nil
	return err
}

func (d *Destination) route(ctx context.Context, exec execer, r dbcommons.Record) error {
	insert := func(ctx context.Context, r dbcommons.Record) error {
		return d.insertRecord(ctx, exec, r)
	}
	if err := dbcommons.Util.Destination.Route(ctx, r, insert, nil, nil, insert); err != nil {
		return fmt.Errorf("failed to write record at position %q: %w", r.Position, err)
	}
	return nil
}

func (d *Destination) insertRecord(ctx context.Context, exec execer, r dbcommons.Record) error {
	row, err := d.row(r)
	if err != nil {
		return err
	}
	if row == nil {
		return errors.New("record has no payload")
	}
	args, err := d.writer.Args(row)
	if err != nil {
		return err
	}
	if _, err := exec.ExecContext(ctx, d.insert, args...); err != nil {
		return fmt.Errorf("failed to insert row: %w", err)
	}
	return nil
}

// row returns the values of the record payload keyed by field name.
func (d *Destination) row(r dbcommons.Record) (map[string]any, error) {
	if format, _ := r.Metadata.GetPayloadFormat(); format == payloadFormatAvro {
		raw, ok := r.Payload.After.(dbcommons.RawData)
		if !ok {
			return nil, fmt.Errorf("avro payload must be raw data, got %T", r.Payload.After)
		}
		return d.decodeAvro(r.Metadata, raw)
	}
	sd, err := dbcommons.StructuredDataFrom(r.Payload.After)
	if err != nil {
		return nil, err
	}
	return sd, nil
}

func (d *Destination) decodeAvro(m dbcommons.Metadata, raw []byte) (map[string]any, error) {
	avroSchema, err := m.GetPayloadSchema()
	if err != nil {
		return nil, fmt.Errorf("avro payload without schema: %w", err)
	}
	dec, err := d.avroDecoder(avroSchema)
	if err != nil {
		return nil, err
	}
	native, _, err := dec.codec.NativeFromBinary(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode avro payload: %w", err)
	}
	values, ok := native.(map[string]any)
	if !ok {
		return nil, errors.New("avro payload is not a record")
	}
	rec, err := dec.schema.FromNative(values)
	if err != nil {
		return nil, err
	}
	return rec.Map(), nil
}

func (d *Destination) avroDecoder(avroSchema string) (*avroDecoder, error) {
	if dec, ok := d.avro.Load(avroSchema); ok {
		return dec.(*avroDecoder), nil
	}
	s, err := schema.ParseAvro([]byte(avroSchema))
	if err != nil {
		return nil, err
	}
	c, err := s.Codec()
	if err != nil {
		return nil, err
	}
	dec := &avroDecoder{schema: s, codec: c}
	d.avro.Store(avroSchema, dec)
	return dec, nil
}
