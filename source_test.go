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

package dbcommons

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/conduitio/conduit-connector-protocol/cpluginv1"
	"github.com/matryer/is"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"
)

func TestSourcePluginAdapter_Configure(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	srcPlugin := NewSourcePlugin(src).(*sourcePluginAdapter)

	src.EXPECT().Parameters().Return(map[string]Parameter{
		"importQuery": {Type: ParameterTypeString, Validations: []Validation{ValidationRequired{}}},
		"numSplits":   {Type: ParameterTypeInt, Default: "1"},
	}).AnyTimes()
	src.EXPECT().Configure(gomock.Any(), map[string]string{
		"importQuery":             "SELECT * FROM users",
		"numSplits":               "1",
		configSourceRatePerSecond: "50",
		configSourceRateBurst:     "1",
	}).Return(nil)

	_, err := srcPlugin.Configure(context.Background(), cpluginv1.SourceConfigureRequest{
		Config: map[string]string{
			"importQuery":             "SELECT * FROM users",
			configSourceRatePerSecond: "50",
		},
	})
	is.NoErr(err)
	is.True(srcPlugin.limiter != nil)
	is.Equal(srcPlugin.limiter.Limit(), rate.Limit(50))
}

func TestSourcePluginAdapter_Configure_Invalid(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	srcPlugin := NewSourcePlugin(src).(*sourcePluginAdapter)

	src.EXPECT().Parameters().Return(map[string]Parameter{
		"importQuery": {Type: ParameterTypeString, Validations: []Validation{ValidationRequired{}}},
	}).AnyTimes()

	// Configure of the connector is not called
	_, err := srcPlugin.Configure(context.Background(), cpluginv1.SourceConfigureRequest{
		Config: map[string]string{"foo": "bar"},
	})
	is.True(errors.Is(err, ErrUnrecognizedParameter))
	is.True(errors.Is(err, ErrRequiredParameterMissing))
}

func TestSourcePluginAdapter_Start_OpenContext(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	srcPlugin := NewSourcePlugin(src).(*sourcePluginAdapter)

	var gotCtx context.Context
	src.EXPECT().Open(gomock.Any(), Position(nil)).
		DoAndReturn(func(ctx context.Context, _ Position) error {
			gotCtx = ctx // assign to gotCtx so it can be inspected
			return ctx.Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	_, err := srcPlugin.Start(ctx, cpluginv1.SourceStartRequest{})
	is.NoErr(err)
	is.NoErr(gotCtx.Err()) // expected context to be open

	// even if we cancel the context afterwards, the context in Open should stay open
	cancel()
	is.NoErr(gotCtx.Err()) // expected context to be open
}

func TestSourcePluginAdapter_Start_ClosedContext(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	srcPlugin := NewSourcePlugin(src).(*sourcePluginAdapter)

	var gotCtx context.Context
	src.EXPECT().Open(gomock.Any(), Position(nil)).
		DoAndReturn(func(ctx context.Context, _ Position) error {
			gotCtx = ctx // assign to gotCtx so it can be inspected
			select {
			case <-ctx.Done():
				return ctx.Err() // that's expected
			case <-time.After(time.Millisecond * 10):
				is.Fail() // didn't see context getting closed in time
				return nil
			}
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := srcPlugin.Start(ctx, cpluginv1.SourceStartRequest{})
	is.True(err != nil)
	is.Equal(err, ctx.Err())
	is.Equal(gotCtx.Err(), context.Canceled)
}

func TestSourcePluginAdapter_Run(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	srcPlugin := NewSourcePlugin(src).(*sourcePluginAdapter)

	want := Record{
		Position:  Position(`{"split":0,"row":1}`),
		Operation: OperationSnapshot,
		Metadata:  map[string]string{MetadataSplit: "id >= 0 AND id < 50"},
		Key:       StructuredData{"id": int64(1)},
		Payload: Change{
			After: StructuredData{"id": int64(1), "name": "foo"},
		},
	}
	wantLast := want
	wantLast.Position = Position(`{"split":0,"row":2}`)

	src.EXPECT().Open(gomock.Any(), Position(nil)).Return(nil)
	r1 := src.EXPECT().Read(gomock.Any()).Return(want, nil)
	r2 := src.EXPECT().Read(gomock.Any()).Return(Record{}, ErrBackoffRetry).After(r1)
	r3 := src.EXPECT().Read(gomock.Any()).Return(wantLast, nil).After(r2)
	src.EXPECT().Read(gomock.Any()).
		DoAndReturn(func(ctx context.Context) (Record, error) {
			<-ctx.Done()
			return Record{}, ctx.Err()
		}).After(r3)
	src.EXPECT().Ack(gomock.Any(), want.Position).Return(nil)
	src.EXPECT().Ack(gomock.Any(), wantLast.Position).Return(ErrUnimplemented)
	src.EXPECT().Teardown(gomock.Any()).Return(nil)

	ctx := context.Background()
	_, err := srcPlugin.Start(ctx, cpluginv1.SourceStartRequest{})
	is.NoErr(err)

	stream := newSourceStream()
	runDone := make(chan error)
	go func() {
		runDone <- srcPlugin.Run(ctx, stream)
	}()

	for _, wantRec := range []Record{want, wantLast} {
		select {
		case resp := <-stream.sent:
			is.Equal(resp.Record, toProtocolRecord(wantRec))
			stream.acks <- cpluginv1.SourceRunRequest{AckPosition: resp.Record.Position}
		case <-time.After(time.Second):
			t.Fatal("expected record to be sent")
		}
	}

	stopResp, err := srcPlugin.Stop(ctx, cpluginv1.SourceStopRequest{})
	is.NoErr(err)
	is.Equal(stopResp.LastPosition, []byte(wantLast.Position))

	close(stream.acks)
	select {
	case err := <-runDone:
		is.NoErr(err)
	case <-time.After(time.Second):
		t.Fatal("expected Run to stop")
	}

	_, err = srcPlugin.Teardown(ctx, cpluginv1.SourceTeardownRequest{})
	is.NoErr(err)
}

func TestSourcePluginAdapter_Run_ReadError(t *testing.T) {
	is := is.New(t)
	ctrl := gomock.NewController(t)
	src := NewMockSource(ctrl)

	srcPlugin := NewSourcePlugin(src).(*sourcePluginAdapter)

	errBoom := errors.New("boom")
	src.EXPECT().Open(gomock.Any(), Position(nil)).Return(nil)
	src.EXPECT().Read(gomock.Any()).Return(Record{}, errBoom)

	ctx := context.Background()
	_, err := srcPlugin.Start(ctx, cpluginv1.SourceStartRequest{})
	is.NoErr(err)

	stream := newSourceStream()
	defer close(stream.acks)

	err = srcPlugin.Run(ctx, stream)
	is.True(errors.Is(err, errBoom))
}
