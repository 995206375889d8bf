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
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	dbcommons "github.com/conduitio/conduit-connector-dbcommons"
	"github.com/conduitio/conduit-connector-dbcommons/codec"
	"github.com/conduitio/conduit-connector-dbcommons/connection"
	"github.com/conduitio/conduit-connector-dbcommons/contract"
	"github.com/conduitio/conduit-connector-dbcommons/dialect/generic"
	"github.com/conduitio/conduit-connector-dbcommons/dialect/sqlite"
	"github.com/conduitio/conduit-connector-dbcommons/drivers"
	"github.com/conduitio/conduit-connector-dbcommons/schema"
	"github.com/conduitio/conduit-connector-dbcommons/validate"
	"github.com/matryer/is"
	"github.com/shopspring/decimal"
)

const tableExistsQuery = "SELECT 1 FROM information_schema.tables WHERE table_name = ?"

func newMockDestination(t *testing.T, dsn string, cfg map[string]string) (*Destination, sqlmock.Sqlmock) {
	is := is.New(t)

	db, mock, err := sqlmock.NewWithDSN(dsn)
	is.NoErr(err)
	t.Cleanup(func() { _ = db.Close() })

	cfg[connection.ParamConnectionString] = dsn
	dest := New(generic.New("sqlmock", ""), WithRegistry(drivers.NewRegistry()))
	is.NoErr(dest.Configure(context.Background(), cfg))
	return dest, mock
}

func expectUsersTable(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta(tableExistsQuery)).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE 1 = 0")).
		WillReturnRows(mock.NewRowsWithColumnDefinition(
			sqlmock.NewColumn("id").OfType("BIGINT", int64(0)),
			sqlmock.NewColumn("name").OfType("VARCHAR", "").Nullable(true),
			sqlmock.NewColumn("score").OfType("DECIMAL", "").WithPrecisionAndScale(10, 6).Nullable(true),
		))
}

func snapshot(pos string, payload dbcommons.Data) dbcommons.Record {
	return dbcommons.Util.Source.NewRecordSnapshot(dbcommons.Position(pos), nil, nil, payload)
}

func TestDestination_Configure(t *testing.T) {
	is := is.New(t)

	dest := New(generic.New("sqlmock", ""))
	err := dest.Configure(context.Background(), map[string]string{
		connection.ParamConnectionString: "dsn",
		ParamTable:                       "users",
		ParamColumns:                     "id,name",
		ParamTransactionIsolationLevel:   "transaction_serializable",
	})
	is.NoErr(err)
	is.Equal(dest.config.Columns, []string{"id", "name"})
	is.Equal(dest.config.TransactionIsolationLevel, TxSerializable)

	err = dest.Configure(context.Background(), map[string]string{
		connection.ParamConnectionString: "dsn",
		ParamTable:                       "users",
	})
	is.NoErr(err)
	is.Equal(dest.config.TransactionIsolationLevel, TxReadCommitted)
	is.Equal(len(dest.config.Columns), 0)
}

func TestDestination_Configure_Invalid(t *testing.T) {
	is := is.New(t)

	dest := New(generic.New("sqlmock", ""))
	err := dest.Configure(context.Background(), map[string]string{
		ParamColumns: "id",
		ParamSchema:  `{"type":"record","name":"users","fields":[{"name":"id","type":"long"}]}`,
	})
	var params []string
	for _, e := range validate.Errors(err) {
		params = append(params, e.Parameter)
	}
	is.Equal(params, []string{connection.ParamConnectionString, ParamTable, ParamColumns})

	err = dest.Configure(context.Background(), map[string]string{
		connection.ParamConnectionString: "dsn",
		ParamTable:                       "users",
		ParamTransactionIsolationLevel:   "SNAPSHOT",
	})
	is.True(err != nil)
}

func TestParseTxIsolation(t *testing.T) {
	is := is.New(t)

	for name, want := range map[string]TxIsolation{
		"":                             TxReadCommitted,
		"TRANSACTION_NONE":             TxNone,
		"TRANSACTION_READ_UNCOMMITTED": TxReadUncommitted,
		" transaction_repeatable_read": TxRepeatableRead,
	} {
		got, err := ParseTxIsolation(name)
		is.NoErr(err)
		is.Equal(got, want) // name
	}
	is.Equal(TxNone.TxOptions(), nil)
	is.Equal(TxSerializable.TxOptions(), &sql.TxOptions{Isolation: sql.LevelSerializable})
	is.Equal(TxNone.String(), "TRANSACTION_NONE")
}

func TestDestination_Open_TableNotFound(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	dest, mock := newMockDestination(t, "destination-table-not-found-test", map[string]string{
		ParamTable: "users",
	})
	mock.ExpectQuery(regexp.QuoteMeta(tableExistsQuery)).
		WithArgs("users").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	err := dest.Open(ctx)
	is.True(errors.Is(err, contract.ErrTableNotFound))
	is.NoErr(mock.ExpectationsWereMet())
}

func TestDestination_Open_SchemaMismatch(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	dest, mock := newMockDestination(t, "destination-schema-mismatch-test", map[string]string{
		ParamTable:  "users",
		ParamSchema: `{"type":"record","name":"users","fields":[{"name":"id","type":"boolean"}]}`,
	})
	expectUsersTable(mock)

	err := dest.Open(ctx)
	is.True(errors.Is(err, schema.ErrSchemaMismatch))
}

func TestDestination_Write(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	dest, mock := newMockDestination(t, "destination-write-test", map[string]string{
		ParamTable: "users",
	})
	expectUsersTable(mock)
	is.NoErr(dest.Open(ctx))

	insert := regexp.QuoteMeta("INSERT INTO users (id, name, score) VALUES (?, ?, ?)")
	mock.ExpectBegin()
	mock.ExpectExec(insert).WithArgs(int64(1), "foo", "123.45").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insert).WithArgs(int64(2), nil, nil).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := dest.Write(ctx, []dbcommons.Record{
		snapshot("1", dbcommons.StructuredData{"id": int64(1), "name": "foo", "score": "123.450000"}),
		snapshot("2", dbcommons.RawData(`{"id":2}`)),
	})
	is.NoErr(err)
	is.Equal(n, 2)
	is.NoErr(mock.ExpectationsWereMet())
}

func TestDestination_Write_RollsBack(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	dest, mock := newMockDestination(t, "destination-rollback-test", map[string]string{
		ParamTable:   "users",
		ParamColumns: "id",
	})
	expectUsersTable(mock)
	is.NoErr(dest.Open(ctx))

	insert := regexp.QuoteMeta("INSERT INTO users (id) VALUES (?)")
	mock.ExpectBegin()
	mock.ExpectExec(insert).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	deleted := snapshot("2", dbcommons.StructuredData{"id": int64(2)})
	deleted.Operation = dbcommons.OperationDelete

	n, err := dest.Write(ctx, []dbcommons.Record{
		snapshot("1", dbcommons.StructuredData{"id": int64(1)}),
		deleted,
	})
	is.True(err != nil)
	is.Equal(n, 0)
	is.NoErr(mock.ExpectationsWereMet())
}

func TestDestination_Write_BindError(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	dest, mock := newMockDestination(t, "destination-bind-error-test", map[string]string{
		ParamTable:                     "users",
		ParamColumns:                   "id",
		ParamTransactionIsolationLevel: "TRANSACTION_NONE",
	})
	expectUsersTable(mock)
	is.NoErr(dest.Open(ctx))

	insert := regexp.QuoteMeta("INSERT INTO users (id) VALUES (?)")
	mock.ExpectExec(insert).WithArgs(int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := dest.Write(ctx, []dbcommons.Record{
		snapshot("1", dbcommons.StructuredData{"id": int64(1)}),
		snapshot("2", dbcommons.StructuredData{"id": "two"}),
	})
	is.True(errors.Is(err, codec.ErrBind))
	is.Equal(n, 1)
	is.NoErr(mock.ExpectationsWereMet())
}

func TestDestination_Write_Avro(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	dest, mock := newMockDestination(t, "destination-avro-test", map[string]string{
		ParamTable: "users",
	})
	expectUsersTable(mock)
	is.NoErr(dest.Open(ctx))

	s := schema.MustNew("users",
		schema.NewField("id", schema.TypeLong),
		schema.NewField("name", schema.TypeString).AsNullable(),
		schema.DecimalField("score", 10, 6).AsNullable(),
	)
	rec := schema.NewRecord(s)
	is.NoErr(rec.Set("id", int64(7)))
	is.NoErr(rec.Set("name", "bar"))
	is.NoErr(rec.Set("score", decimal.RequireFromString("0.5")))
	native, err := rec.Native()
	is.NoErr(err)
	c, err := s.Codec()
	is.NoErr(err)
	raw, err := c.BinaryFromNative(nil, native)
	is.NoErr(err)
	avroSchema, err := s.MarshalAvro()
	is.NoErr(err)

	r := snapshot("1", dbcommons.RawData(raw))
	r.Metadata.SetPayloadFormat("avro")
	r.Metadata.SetPayloadSchema(string(avroSchema))

	insert := regexp.QuoteMeta("INSERT INTO users (id, name, score) VALUES (?, ?, ?)")
	mock.ExpectBegin()
	mock.ExpectExec(insert).WithArgs(int64(7), "bar", "0.5").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	n, err := dest.Write(ctx, []dbcommons.Record{r})
	is.NoErr(err)
	is.Equal(n, 1)
	is.NoErr(mock.ExpectationsWereMet())
}

func TestDestination_SQLite(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "scores.db")
	db, err := sql.Open("sqlite", "file:"+path)
	is.NoErr(err)
	defer db.Close()
	_, err = db.ExecContext(ctx, `CREATE TABLE scores (id INTEGER NOT NULL, name VARCHAR(20), score NUMERIC(10,6))`)
	is.NoErr(err)

	dest := New(sqlite.New(), WithRegistry(drivers.NewRegistry()))
	is.NoErr(dest.Configure(ctx, map[string]string{
		connection.ParamDatabase:       path,
		ParamTable:                     "scores",
		ParamEscapeIdentifiers:         "true",
		ParamTransactionIsolationLevel: "TRANSACTION_NONE",
	}))
	is.NoErr(dest.Open(ctx))

	n, err := dest.Write(ctx, []dbcommons.Record{
		snapshot("1", dbcommons.StructuredData{"id": int64(1), "name": "foo", "score": "1.5"}),
		snapshot("2", dbcommons.StructuredData{"id": int64(2)}),
	})
	is.NoErr(err)
	is.Equal(n, 2)
	is.NoErr(dest.Teardown(ctx))

	var count int
	is.NoErr(db.QueryRowContext(ctx, `SELECT COUNT(*) FROM scores WHERE name IS NULL`).Scan(&count))
	is.Equal(count, 1)
	var name string
	is.NoErr(db.QueryRowContext(ctx, `SELECT name FROM scores WHERE id = 1`).Scan(&name))
	is.Equal(name, "foo")
}
