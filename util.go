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
	"time"

	"github.com/mitchellh/mapstructure"
)

// Util provides utilities for implementing connectors.
var Util = struct {
	// Source provides utility methods for implementing a source.
	Source SourceUtil
	// Destination provides utility methods for implementing a destination.
	Destination DestinationUtil
	// ParseConfig parses a config map into a struct. Under the hood, this
	// function uses the library mitchellh/mapstructure, with the
	// "mapstructure" tag renamed to "json", so to rename a key, use the "json"
	// tag and set a value directly. To embed structs, append ",squash" to your
	// tag. Durations and comma separated slices are decoded out of the box,
	// additional hooks can be passed for connector specific types.
	ParseConfig func(map[string]string, interface{}, ...mapstructure.DecodeHookFunc) error
}{
	ParseConfig: parseConfig,
}

// SourceUtil provides utility methods for implementing a source.
type SourceUtil struct{}

// NewRecordSnapshot can be used to instantiate a record with OperationSnapshot.
func (SourceUtil) NewRecordSnapshot(
	position Position,
	metadata Metadata,
	key Data,
	payload Data,
) Record {
	if metadata == nil {
		metadata = make(map[string]string)
	}
	metadata.SetReadAt(time.Now())
	return Record{
		Position:  position,
		Operation: OperationSnapshot,
		Metadata:  metadata,
		Key:       key,
		Payload: Change{
			After: payload,
		},
	}
}

// DestinationUtil provides utility methods for implementing a destination.
type DestinationUtil struct{}

// Route inspects the operation on the record and based on that chooses which
// handler to call. A nil handler means the operation is not supported and
// results in an error.
//
// Example usage:
//
//	func (d *Destination) write(ctx context.Context, r dbcommons.Record) error {
//	  return dbcommons.Util.Destination.Route(ctx, r,
//	    d.insert,
//	    nil, // updates are not supported
//	    nil, // deletes are not supported
//	    d.insert,
//	  )
//	}
func (DestinationUtil) Route(
	ctx context.Context,
	rec Record,
	handleCreate func(context.Context, Record) error,
	handleUpdate func(context.Context, Record) error,
	handleDelete func(context.Context, Record) error,
	handleSnapshot func(context.Context, Record) error,
) error {
	var handler func(context.Context, Record) error
	switch rec.Operation {
	case OperationCreate:
		handler = handleCreate
	case OperationUpdate:
		handler = handleUpdate
	case OperationDelete:
		handler = handleDelete
	case OperationSnapshot:
		handler = handleSnapshot
	default:
		return fmt.Errorf("invalid operation %q", rec.Operation)
	}
	if handler == nil {
		return fmt.Errorf("operation %q is not supported", rec.Operation)
	}
	return handler(ctx, rec)
}

func mergeParameters(p1 map[string]Parameter, p2 map[string]Parameter) map[string]Parameter {
	params := make(map[string]Parameter, len(p1)+len(p2))
	for k, v := range p1 {
		params[k] = v
	}
	for k, v := range p2 {
		_, ok := params[k]
		if ok {
			panic(fmt.Errorf("parameter %q declared twice", k))
		}
		params[k] = v
	}
	return params
}

func parseConfig(cfg map[string]string, v interface{}, hooks ...mapstructure.DecodeHookFunc) error {
	hooks = append([]mapstructure.DecodeHookFunc{
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	}, hooks...)

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(hooks...),
		WeaklyTypedInput: true,
		Squash:           true,
		TagName:          "json",
		Result:           v,
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}
