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

// Package source implements a dbcommons.Source reading the rows returned by an
// import query, optionally divided into range splits.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/codec"
	"github.com/conduitio/conduit-connector-dbcommons/connection"
	"github.com/conduitio/conduit-connector-dbcommons/contract"
	"github.com/conduitio/conduit-connector-dbcommons/dialect"
	"github.com/conduitio/conduit-connector-dbcommons/drivers"
	"github.com/conduitio/conduit-connector-dbcommons/kafkaconnect"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/split"
	"github.com/goccy/go-json"
	"github.com/linkedin/goavro/v2"
	"go.uber.org/multierr"
)

// DefaultSchemaName is the name of the derived schema if no schema override
// is configured.
const DefaultSchemaName = "row"

type Source struct {
	dbcommons.UnimplementedSource

	dialect  dialect.Dialect
	registry *drivers.Registry

	config   Config
	override *schema.Schema

	task *connection.Task
	// conn is the only connection of the task, the bounding query and all
	// splits run on it.
	conn   *sql.Conn
	splits []split.Split
	// next is the position of the next row read from the database.
	next Position

	rows   *sql.Rows
	reader *codec.Reader
	buffer []row

	avroSchema string
	avroCodec  *goavro.Codec
}

type row struct {
	rec      *schema.Record
	position Position
}

type Option func(*Source)

// WithRegistry replaces drivers.Default.
func WithRegistry(r *drivers.Registry) Option {
	return func(s *Source) {
		s.registry = r
	}
}

func New(d dialect.Dialect, opts ...Option) *Source {
	s := &Source{
		dialect:  d,
		registry: drivers.Default,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) Parameters() map[string]dbcommons.Parameter {
	return Parameters()
}

func (s *Source) Configure(ctx context.Context, cfg map[string]string) error {
	var config Config
	if err := dbcommons.Util.ParseConfig(cfg, &config); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if config.NumSplits == 0 {
		config.NumSplits = 1
	}
	if config.FetchSize == 0 {
		config.FetchSize = 1000
	}
	if config.PayloadFormat == "" {
		config.PayloadFormat = PayloadFormatStructured
	}
	config.KeyColumns = trimAll(config.KeyColumns)

	override, err := config.Validate(s.dialect)
	if err != nil {
		return err
	}
	s.config = config
	s.override = override

	dbcommons.Logger(ctx).Debug().
		Int("numSplits", config.NumSplits).
		Int("fetchSize", config.FetchSize).
		Str("payloadFormat", string(config.PayloadFormat)).
		Msg("source configured")
	return nil
}

func (s *Source) Open(ctx context.Context, pos dbcommons.Position) error {
	p, err := ParsePosition(pos)
	if err != nil {
		return err
	}

	task, err := connection.Open(ctx, s.registry, s.dialect, s.config.Config)
	if err != nil {
		return err
	}
	conn, err := task.DB.Conn(ctx)
	if err != nil {
		_ = task.Close(ctx)
		return &connection.ConnectivityError{Op: "get connection", Err: err}
	}
	closeAll := func() {
		_ = conn.Close()
		_ = task.Close(ctx)
	}

	splits, err := split.Plan(ctx, conn, s.config.split())
	if err != nil {
		closeAll()
		return fmt.Errorf("failed to plan splits: %w", err)
	}
	if p.Split >= len(splits) {
		closeAll()
		return fmt.Errorf("position refers to split %d, but the import query has %d splits", p.Split, len(splits))
	}

	s.task = task
	s.conn = conn
	s.splits = splits
	s.next = p

	dbcommons.Logger(ctx).Info().
		Int("splits", len(splits)).
		Int("split", p.Split).
		Int64("row", p.Row).
		Msg("source opened")
	return nil
}

// Read returns the next row. It returns dbcommons.ErrBackoffRetry once all
// splits are read.
func (s *Source) Read(ctx context.Context) (dbcommons.Record, error) {
	for len(s.buffer) == 0 {
		if s.next.Split >= len(s.splits) {
			return dbcommons.Record{}, dbcommons.ErrBackoffRetry
		}
		if s.rows == nil {
			if err := s.openSplit(ctx); err != nil {
				return dbcommons.Record{}, err
			}
		}
		if err := s.fetch(ctx); err != nil {
			return dbcommons.Record{}, err
		}
	}

	r := s.buffer[0]
	s.buffer[0] = row{}
	s.buffer = s.buffer[1:]
	return s.toRecord(r)
}

func (s *Source) Ack(ctx context.Context, pos dbcommons.Position) error {
	dbcommons.Logger(ctx).Trace().Str("position", string(pos)).Msg("got ack")
	return nil
}

func (s *Source) Teardown(ctx context.Context) error {
	err := s.closeSplit()
	if s.conn != nil {
		err = multierr.Append(err, s.conn.Close())
		s.conn = nil
	}
	if s.task != nil {
		err = multierr.Append(err, s.task.Close(ctx))
		s.task = nil
	}
	return err
}

// openSplit issues the query of the next split on the task's connection and
// skips the rows that were already read.
func (s *Source) openSplit(ctx context.Context) error {
	sp := s.splits[s.next.Split]
	rows, err := s.conn.QueryContext(ctx, sp.Query(s.config.ImportQuery))
	if err != nil {
		return fmt.Errorf("failed to query split %q: %w", sp, err)
	}
	s.rows = rows

	if err := s.prepareReader(rows); err != nil {
		_ = s.closeSplit()
		return err
	}

	for i := int64(0); i < s.next.Row && rows.Next(); i++ {
		// skip rows read before the restart
	}
	dbcommons.Logger(ctx).Info().
		Int("split", s.next.Split).
		Stringer("predicate", sp).
		Int64("skipped", s.next.Row).
		Msg("reading split")
	return nil
}

func (s *Source) prepareReader(rows *sql.Rows) error {
	cols, err := s.task.Describe(rows)
	if err != nil {
		return err
	}
	name := DefaultSchemaName
	if s.override != nil {
		name = s.override.Name()
	}
	sch, err := contract.ResolveSource(cols, s.dialect, name, s.override)
	if err != nil {
		return err
	}
	for _, k := range s.config.KeyColumns {
		if _, ok := sch.Field(k); !ok {
			return fmt.Errorf("key column %q is not returned by the import query", k)
		}
	}
	reader, err := codec.NewReader(cols, sch, dialect.ValueCodec(s.dialect))
	if err != nil {
		return err
	}
	s.reader = reader

	if s.avroSchema == "" {
		raw, err := sch.MarshalAvro()
		if err != nil {
			return err
		}
		s.avroSchema = string(raw)
	}
	if s.config.PayloadFormat == PayloadFormatAvro && s.avroCodec == nil {
		s.avroCodec, err = sch.Codec()
		if err != nil {
			return err
		}
	}
	return nil
}

// fetch buffers up to fetchSize rows. When the result set is exhausted the
// split is closed and next moves to the following split.
func (s *Source) fetch(ctx context.Context) error {
	for len(s.buffer) < s.config.FetchSize {
		if !s.rows.Next() {
			if err := s.rows.Err(); err != nil {
				return fmt.Errorf("failed to read split %d: %w", s.next.Split, err)
			}
			dbcommons.Logger(ctx).Info().
				Int("split", s.next.Split).
				Int64("rows", s.next.Row).
				Msg("split read")
			if err := s.closeSplit(); err != nil {
				return err
			}
			s.next = Position{Split: s.next.Split + 1}
			return nil
		}
		rec, err := s.reader.Read(s.rows)
		if err != nil {
			return fmt.Errorf("failed to read row %d of split %d: %w", s.next.Row+1, s.next.Split, err)
		}
		s.next.Row++
		s.buffer = append(s.buffer, row{rec: rec, position: s.next})
	}
	return nil
}

func (s *Source) closeSplit() error {
	if s.rows == nil {
		return nil
	}
	err := s.rows.Close()
	s.rows = nil
	return err
}

func (s *Source) toRecord(r row) (dbcommons.Record, error) {
	sp := s.splits[r.position.Split]
	metadata := dbcommons.Metadata{}
	metadata.SetSplit(sp.String())
	metadata.SetPayloadFormat(string(s.config.PayloadFormat))

	var payload dbcommons.Data
	switch s.config.PayloadFormat {
	case PayloadFormatAvro:
		native, err := r.rec.Native()
		if err != nil {
			return dbcommons.Record{}, err
		}
		b, err := s.avroCodec.BinaryFromNative(nil, native)
		if err != nil {
			return dbcommons.Record{}, fmt.Errorf("failed to encode row as avro: %w", err)
		}
		metadata.SetPayloadSchema(s.avroSchema)
		payload = dbcommons.RawData(b)
	case PayloadFormatKafkaConnect:
		env, err := kafkaconnect.NewEnvelope(r.rec)
		if err != nil {
			return dbcommons.Record{}, err
		}
		b, err := json.Marshal(env)
		if err != nil {
			return dbcommons.Record{}, err
		}
		payload = dbcommons.RawData(b)
	case PayloadFormatDebezium:
		env, err := kafkaconnect.NewDebeziumRead(r.rec, kafkaconnect.DebeziumSource{
			Connector: s.dialect.Name(),
			Name:      r.rec.Schema().Name(),
			Snapshot:  "true",
			Split:     sp.String(),
		}, time.Now())
		if err != nil {
			return dbcommons.Record{}, err
		}
		b, err := json.Marshal(env)
		if err != nil {
			return dbcommons.Record{}, err
		}
		payload = dbcommons.RawData(b)
	default:
		metadata.SetPayloadSchema(s.avroSchema)
		payload = dbcommons.StructuredData(r.rec.StructuredData())
	}

	return dbcommons.Util.Source.NewRecordSnapshot(
		r.position.ToRecordPosition(),
		metadata,
		s.key(r.rec),
		payload,
	), nil
}

func (s *Source) key(rec *schema.Record) dbcommons.Data {
	if len(s.config.KeyColumns) == 0 {
		return nil
	}
	values := rec.StructuredData()
	key := make(dbcommons.StructuredData, len(s.config.KeyColumns))
	for _, k := range s.config.KeyColumns {
		key[k] = values[k]
	}
	return key
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
