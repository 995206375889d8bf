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

//go:generate mockgen -destination=mock_destination_test.go -self_package=github.com/conduitio/conduit-connector-dbcommons -package=dbcommons -write_package_comment=false . Destination

package dbcommons

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/conduitio/conduit-connector-dbcommons/internal"
	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
)

const (
	configDestinationBatchSize  = "sdk.batch.size"
	configDestinationBatchDelay = "sdk.batch.delay"
)

// Destination receives records from Conduit and writes them to a database.
// All implementations must embed UnimplementedDestination for forward
// compatibility.
type Destination interface {
	// Parameters is a map of named Parameters that describe how to configure
	// the Destination.
	Parameters() map[string]Parameter

	// Configure is the first function to be called in a connector. It provides
	// the connector with the configuration that needs to be validated and
	// stored. Defaults of all parameters are already applied. Testing if the
	// database can be reached should be done in Open, not in Configure.
	Configure(context.Context, map[string]string) error

	// Open is called after Configure to signal the plugin it can prepare to
	// start writing records. If needed, the plugin should open connections in
	// this function.
	Open(context.Context) error

	// Write writes a batch of records. The adapter collects records into
	// batches based on sdk.batch.size and sdk.batch.delay. It should return
	// the number of records written from r (0 <= n <= len(r)) and any error
	// encountered that caused the write to stop early. Write must return a
	// non-nil error if it returns n < len(r).
	Write(ctx context.Context, r []Record) (n int, err error)

	// Teardown signals to the plugin that all records were written and there
	// will be no more calls to any other function. After Teardown returns, the
	// plugin should be ready for a graceful shutdown.
	Teardown(context.Context) error

	mustEmbedUnimplementedDestination()
}

// NewDestinationPlugin takes a Destination and wraps it into an adapter that
// converts it into a cpluginv1.DestinationPlugin. If the parameter is nil it
// will wrap UnimplementedDestination instead.
func NewDestinationPlugin(impl Destination) cpluginv1.DestinationPlugin {
	if impl == nil {
		// prevent nil pointers
		impl = UnimplementedDestination{}
	}
	return &destinationPluginAdapter{impl: impl, batchSize: 1}
}

// destinationAdapterParameters are handled by the adapter and apply to every
// destination.
func destinationAdapterParameters() map[string]Parameter {
	return map[string]Parameter{
		configDestinationBatchSize: {
			Default:     "1",
			Description: "Maximum number of records written in one batch, a batch is written in one transaction.",
			Type:        ParameterTypeInt,
			Validations: []Validation{ValidationGreaterThan{Value: 0}},
		},
		configDestinationBatchDelay: {
			Default:     "0",
			Description: "Maximum delay before an incomplete batch is written.",
			Type:        ParameterTypeDuration,
		},
	}
}

type destinationPluginAdapter struct {
	impl Destination

	batchSize  int
	batchDelay time.Duration
	batcher    *internal.Batcher[Record]

	// runCtx and stream are set when Run is called, before any record is
	// enqueued.
	runCtx context.Context
	stream cpluginv1.DestinationRunStream

	lastPosition *internal.ValueWatcher[Position]

	openCancel context.CancelFunc
}

func (a *destinationPluginAdapter) Configure(ctx context.Context, req cpluginv1.DestinationConfigureRequest) (cpluginv1.DestinationConfigureResponse, error) {
	v := validator(mergeParameters(a.impl.Parameters(), destinationAdapterParameters()))
	// run builtin validations
	if err := v.Validate(req.Config); err != nil {
		return cpluginv1.DestinationConfigureResponse{}, err
	}
	cfg := v.ApplyDefaults(req.Config)

	if err := a.configureBatching(cfg); err != nil {
		return cpluginv1.DestinationConfigureResponse{}, err
	}
	err := a.impl.Configure(ctx, cfg)
	return cpluginv1.DestinationConfigureResponse{}, err
}

func (a *destinationPluginAdapter) configureBatching(cfg map[string]string) error {
	size, err := strconv.Atoi(cfg[configDestinationBatchSize])
	if err != nil {
		return fmt.Errorf("invalid %s: %w", configDestinationBatchSize, err)
	}
	delay, err := time.ParseDuration(cfg[configDestinationBatchDelay])
	if err != nil {
		return fmt.Errorf("invalid %s: %w", configDestinationBatchDelay, err)
	}
	a.batchSize, a.batchDelay = size, delay
	return nil
}

func (a *destinationPluginAdapter) Start(ctx context.Context, req cpluginv1.DestinationStartRequest) (cpluginv1.DestinationStartResponse, error) {
	a.lastPosition = new(internal.ValueWatcher[Position])
	a.batcher = internal.NewBatcher(a.batchSize, a.batchDelay, a.write)

	// detach context, so we can control when it's canceled
	ctxOpen := context.WithoutCancel(ctx)
	ctxOpen, a.openCancel = context.WithCancel(ctxOpen)

	startDone := make(chan struct{})
	defer close(startDone)
	go func() {
		// for duration of the Start call we propagate the cancellation of ctx to
		// ctxOpen, after Start returns we decouple the context and let it live
		// until the plugin should stop running
		select {
		case <-ctx.Done():
			a.openCancel()
		case <-startDone:
			// start finished before ctx was canceled, leave context open
		}
	}()

	err := a.impl.Open(ctxOpen)
	return cpluginv1.DestinationStartResponse{}, err
}

func (a *destinationPluginAdapter) Run(ctx context.Context, stream cpluginv1.DestinationRunStream) error {
	a.runCtx, a.stream = ctx, stream
	defer a.batcher.Stop()

	for {
		req, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				// stream is closed, write what is left
				return a.batcher.Flush()
			}
			return fmt.Errorf("write stream error: %w", err)
		}
		if _, err := a.batcher.Enqueue(fromProtocolRecord(req.Record)); err != nil {
			return err
		}
	}
}

// write passes the batch to the destination and acks every record. Records
// that were not written are acked with the write error. Only stream errors
// are returned.
func (a *destinationPluginAdapter) write(batch []Record) error {
	ctx, stream := a.runCtx, a.stream
	n, writeErr := a.impl.Write(ctx, batch)
	if writeErr != nil {
		Logger(ctx).Err(writeErr).
			Int("batch", len(batch)).
			Int("written", n).
			Msg("failed to write batch")
	}

	for i, r := range batch {
		var ackErr error
		if i >= n {
			ackErr = writeErr
			if ackErr == nil {
				ackErr = fmt.Errorf("destination wrote %d of %d records", n, len(batch))
			}
		}
		if err := a.ack(r, ackErr, stream); err != nil {
			return err
		}
		a.lastPosition.Store(r.Position) // store last processed position
	}
	return nil
}

func (a *destinationPluginAdapter) ack(r Record, writeErr error, stream cpluginv1.DestinationRunStream) error {
	var ackErrStr string
	if writeErr != nil {
		ackErrStr = writeErr.Error()
	}
	err := stream.Send(cpluginv1.DestinationRunResponse{
		AckPosition: r.Position,
		Error:       ackErrStr,
	})
	if err != nil {
		return fmt.Errorf("ack stream error: %w", err)
	}
	return nil
}

func (a *destinationPluginAdapter) Stop(ctx context.Context, req cpluginv1.DestinationStopRequest) (cpluginv1.DestinationStopResponse, error) {
	// last thing we do is cancel context in Open
	defer a.openCancel()

	// records up to the last position might still wait for the batch to fill
	// up
	if err := a.batcher.Drain(); err != nil {
		return cpluginv1.DestinationStopResponse{}, err
	}

	// wait for at most 1 minute
	waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	// wait for last record to be received
	err := a.lastPosition.Await(waitCtx, func(val Position) bool {
		return bytes.Equal(val, req.LastPosition)
	})

	return cpluginv1.DestinationStopResponse{}, err
}

func (a *destinationPluginAdapter) Teardown(ctx context.Context, req cpluginv1.DestinationTeardownRequest) (cpluginv1.DestinationTeardownResponse, error) {
	err := a.impl.Teardown(ctx)
	if err != nil {
		return cpluginv1.DestinationTeardownResponse{}, err
	}
	return cpluginv1.DestinationTeardownResponse{}, nil
}
