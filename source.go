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

//go:generate mockgen -destination=mock_source_test.go -self_package=github.com/conduitio/conduit-connector-dbcommons -package=dbcommons -write_package_comment=false . Source

package dbcommons

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
	"github.com/jpillora/backoff"
	"go.uber.org/multierr"
	"golang.org/x/time/rate"
	"gopkg.in/tomb.v2"
)

const (
	configSourceRatePerSecond = "sdk.rate.perSecond"
	configSourceRateBurst     = "sdk.rate.burst"
)

// Source fetches rows from a database and sends them to Conduit.
// All implementations must embed UnimplementedSource for forward compatibility.
type Source interface {
	// Parameters is a map of named Parameters that describe how to configure
	// the Source.
	Parameters() map[string]Parameter

	// Configure is the first function to be called in a connector. It provides
	// the connector with the configuration that needs to be validated and
	// stored. Defaults of all parameters are already applied. Testing if the
	// database can be reached should be done in Open, not in Configure.
	Configure(context.Context, map[string]string) error

	// Open is called after Configure to signal the plugin it can prepare to
	// start producing records. The position parameter will contain the
	// position of the last record that was successfully processed, Source
	// should therefore start producing records after this position. The
	// context passed to Open will be cancelled once the plugin receives a stop
	// signal from Conduit.
	Open(context.Context, Position) error

	// Read returns a new Record and is supposed to block until there is either
	// a new record or the context gets cancelled. It can also return the error
	// ErrBackoffRetry to signal to the adapter it should call Read again with
	// a backoff retry.
	// If Read receives a cancelled context it must stop reading rows and
	// return the context error. After Read returns an error the function won't
	// be called again (except if the error is ErrBackoffRetry).
	// Read can be called concurrently with Ack.
	Read(context.Context) (Record, error)
	// Ack signals to the implementation that the record with the supplied
	// position was successfully processed. This method might be called after
	// the context of Read is already cancelled, since there might be
	// outstanding acks that need to be delivered.
	// Ack can be called concurrently with Read.
	Ack(context.Context, Position) error

	// Teardown signals to the plugin that there will be no more calls to any
	// other function. After Teardown returns, the plugin should be ready for a
	// graceful shutdown.
	Teardown(context.Context) error

	mustEmbedUnimplementedSource()
}

// NewSourcePlugin takes a Source and wraps it into an adapter that converts it
// into a cpluginv1.SourcePlugin. If the parameter is nil it will wrap
// UnimplementedSource instead.
func NewSourcePlugin(impl Source) cpluginv1.SourcePlugin {
	if impl == nil {
		// prevent nil pointers
		impl = UnimplementedSource{}
	}
	return &sourcePluginAdapter{impl: impl}
}

// sourceAdapterParameters are handled by the adapter and apply to every
// source.
func sourceAdapterParameters() map[string]Parameter {
	return map[string]Parameter{
		configSourceRatePerSecond: {
			Default:     "0",
			Description: "Maximum number of records read per second, 0 means no limit.",
			Type:        ParameterTypeFloat,
			Validations: []Validation{ValidationGreaterThan{Value: -1}},
		},
		configSourceRateBurst: {
			Default:     "1",
			Description: "Number of records that can be read at once when the rate limit is set.",
			Type:        ParameterTypeInt,
			Validations: []Validation{ValidationGreaterThan{Value: 0}},
		},
	}
}

type sourcePluginAdapter struct {
	impl Source

	// limiter throttles calls to Read, it is nil if no limit is configured.
	limiter *rate.Limiter

	// readDone will be closed after runRead stops running.
	readDone chan struct{}

	// lastPosition stores the position of the last record sent to Conduit.
	lastPosition Position

	openCancel context.CancelFunc
	readCancel context.CancelFunc
	t          *tomb.Tomb
}

func (a *sourcePluginAdapter) Configure(ctx context.Context, req cpluginv1.SourceConfigureRequest) (cpluginv1.SourceConfigureResponse, error) {
	v := validator(mergeParameters(a.impl.Parameters(), sourceAdapterParameters()))
	// run builtin validations
	if err := v.Validate(req.Config); err != nil {
		return cpluginv1.SourceConfigureResponse{}, err
	}
	cfg := v.ApplyDefaults(req.Config)

	var multiErr error
	multiErr = multierr.Append(multiErr, a.configureRateLimit(cfg))
	// run connector validations
	multiErr = multierr.Append(multiErr, a.impl.Configure(ctx, cfg))

	return cpluginv1.SourceConfigureResponse{}, multiErr
}

func (a *sourcePluginAdapter) configureRateLimit(cfg map[string]string) error {
	perSecond, err := strconv.ParseFloat(cfg[configSourceRatePerSecond], 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", configSourceRatePerSecond, err)
	}
	burst, err := strconv.Atoi(cfg[configSourceRateBurst])
	if err != nil {
		return fmt.Errorf("invalid %s: %w", configSourceRateBurst, err)
	}
	if perSecond > 0 {
		a.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
	return nil
}

func (a *sourcePluginAdapter) Start(ctx context.Context, req cpluginv1.SourceStartRequest) (cpluginv1.SourceStartResponse, error) {
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

	err := a.impl.Open(ctxOpen, req.Position)
	return cpluginv1.SourceStartResponse{}, err
}

func (a *sourcePluginAdapter) Run(ctx context.Context, stream cpluginv1.SourceRunStream) error {
	t, ctx := tomb.WithContext(ctx)
	readCtx, readCancel := context.WithCancel(ctx)

	a.t = t
	a.readCancel = readCancel
	a.readDone = make(chan struct{})

	t.Go(func() error {
		defer close(a.readDone)
		return a.runRead(readCtx, stream)
	})
	t.Go(func() error {
		return a.runAck(ctx, stream)
	})

	<-t.Dying() // stop as soon as it's dying
	return t.Err()
}

func (a *sourcePluginAdapter) runRead(ctx context.Context, stream cpluginv1.SourceRunStream) error {
	b := &backoff.Backoff{
		Factor: 2,
		Min:    time.Millisecond * 100,
		Max:    time.Second * 5,
	}

	for {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return nil // context canceled, not an actual error
			}
		}

		r, err := a.impl.Read(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil // not an actual error
			}
			if errors.Is(err, ErrBackoffRetry) {
				// the plugin wants us to retry reading later
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(b.Duration()):
					continue
				}
			}
			return fmt.Errorf("read plugin error: %w", err)
		}

		err = stream.Send(cpluginv1.SourceRunResponse{Record: toProtocolRecord(r)})
		if err != nil {
			return fmt.Errorf("read stream error: %w", err)
		}
		a.lastPosition = r.Position // store last sent position

		// reset backoff retry
		b.Reset()
	}
}

func (a *sourcePluginAdapter) runAck(ctx context.Context, stream cpluginv1.SourceRunStream) error {
	for {
		req, err := stream.Recv()
		if err != nil {
			if err == io.EOF {
				return nil // stream is closed, not an error
			}
			return fmt.Errorf("ack stream error: %w", err)
		}
		err = a.impl.Ack(ctx, req.AckPosition)
		// implementing Ack is optional
		if err != nil && !errors.Is(err, ErrUnimplemented) {
			return fmt.Errorf("ack plugin error: %w", err)
		}
	}
}

func (a *sourcePluginAdapter) Stop(ctx context.Context, req cpluginv1.SourceStopRequest) (cpluginv1.SourceStopResponse, error) {
	// stop reading new messages
	a.openCancel()
	if a.readCancel != nil {
		a.readCancel()
		<-a.readDone // wait for read to actually stop running
	}

	return cpluginv1.SourceStopResponse{
		LastPosition: a.lastPosition,
	}, nil
}

func (a *sourcePluginAdapter) Teardown(ctx context.Context, req cpluginv1.SourceTeardownRequest) (cpluginv1.SourceTeardownResponse, error) {
	var waitErr error
	if a.t != nil {
		// wait for at most 1 minute
		waitCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()

		waitErr = a.waitForRun(waitCtx) // wait for Run to stop running
		if waitErr != nil {
			// just log error and continue to call Teardown to keep guarantee
			Logger(ctx).Warn().Err(waitErr).Msg("failed to wait for Run to stop running")
		}
	}

	err := a.impl.Teardown(ctx)
	if err != nil {
		return cpluginv1.SourceTeardownResponse{}, err
	}

	return cpluginv1.SourceTeardownResponse{}, waitErr
}

// waitForRun returns once the Run function returns or the context gets
// cancelled, whichever happens first. If the context gets cancelled the context
// error will be returned.
func (a *sourcePluginAdapter) waitForRun(ctx context.Context) error {
	// wait for all acks to be sent back to Conduit
	runDone := make(chan struct{})
	go func() {
		_ = a.t.Wait() // ignore tomb error, it will be returned in Run anyway
		close(runDone)
	}()
	return waitForClose(ctx, runDone)
}
