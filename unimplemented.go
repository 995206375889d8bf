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
	"context"
	"fmt"
)

func unimplemented(method string) error {
	return fmt.Errorf("%s: %w", method, ErrUnimplemented)
}

// UnimplementedDestination is embedded by every Destination. A destination
// has to provide Configure, Open and Write. Teardown is a no-op, it is called
// even if Configure or Open failed and has nothing to release then.
type UnimplementedDestination struct{}

// Parameters returns no parameters. The adapter adds sdk.batch.size and
// sdk.batch.delay to whatever the destination returns.
func (UnimplementedDestination) Parameters() map[string]Parameter {
	return nil
}

func (UnimplementedDestination) Configure(context.Context, map[string]string) error {
	return unimplemented("destination Configure")
}

func (UnimplementedDestination) Open(context.Context) error {
	return unimplemented("destination Open")
}

// Write writes no records, the batch is nacked.
func (UnimplementedDestination) Write(context.Context, []Record) (int, error) {
	return 0, unimplemented("destination Write")
}

func (UnimplementedDestination) Teardown(context.Context) error {
	return nil
}

func (UnimplementedDestination) mustEmbedUnimplementedDestination() {}

// UnimplementedSource is embedded by every Source. A source has to provide
// Configure, Open and Read. Positions of database sources describe how far an
// import query was read, so acks carry nothing to persist and the adapter
// ignores the error returned by Ack. Teardown is a no-op.
type UnimplementedSource struct{}

// Parameters returns no parameters. The adapter adds sdk.rate.perSecond and
// sdk.rate.burst to whatever the source returns.
func (UnimplementedSource) Parameters() map[string]Parameter {
	return nil
}

func (UnimplementedSource) Configure(context.Context, map[string]string) error {
	return unimplemented("source Configure")
}

func (UnimplementedSource) Open(context.Context, Position) error {
	return unimplemented("source Open")
}

func (UnimplementedSource) Read(context.Context) (Record, error) {
	return Record{}, unimplemented("source Read")
}

func (UnimplementedSource) Ack(context.Context, Position) error {
	return unimplemented("source Ack")
}

func (UnimplementedSource) Teardown(context.Context) error {
	return nil
}

func (UnimplementedSource) mustEmbedUnimplementedSource() {}
