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

/*
Package dbcommons is the shared engine behind the Conduit connectors for SQL
databases. A database connector only provides a dialect, everything else is
implemented once in this module.

# Getting started

A database connector defines a [Connector] in its main package and passes it
to [Serve]:

	func main() {
	    d := postgres.New()
	    dbcommons.Serve(dbcommons.Connector{
	        NewSpecification: Specification,
	        NewSource:        func() dbcommons.Source { return source.New(d) },
	        NewDestination:   func() dbcommons.Destination { return destination.New(d) },
	    })
	}

The engine is split into packages that can be used on their own:
  - sqltype enumerates the portable SQL types and describes result columns.
  - schema maps result columns to a static schema of Avro-compatible fields.
  - codec reads rows into records and binds record values to statements.
  - drivers keeps track of the database/sql drivers acquired by tasks,
    including drivers loaded from Go plugins.
  - connection opens the database of a task and runs init queries.
  - contract resolves the columns a destination writes to.
  - split partitions the import query of a source into range queries.
  - dialect and its sub-packages describe database specifics.

# Source

The source runs the import query once per split and emits one snapshot
[Record] per row. The position of a record identifies its split and row, so a
restarted pipeline skips the splits that were already read. Reads can be
throttled with the parameter sdk.rate.perSecond.

# Destination

The destination inserts created and snapshotted records into a table. Records
are collected into batches based on the parameters sdk.batch.size and
sdk.batch.delay, every batch is written in one transaction.

# Logging

[Logger] returns the structured logger of a context. Code on the hot path
(i.e. executed for every row) should log with level "trace".
*/
package dbcommons
