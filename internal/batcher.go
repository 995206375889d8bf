// Copyright © 2023 Meroxa, Inc.
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

package internal

import (
	"sync"
	"time"
)

// Batcher collects items and passes them to a BatchFn once the batch reaches
// the size threshold or the delay threshold passed since the first item was
// enqueued, whichever happens first. The BatchFn is never called concurrently.
type Batcher[T any] struct {
	sizeThreshold  int
	delayThreshold time.Duration
	fn             BatchFn[T]

	batch      []T
	flushTimer *time.Timer
	// draining is set once the batcher should flush every item right away.
	draining bool
	// err is the first error returned by fn, the batcher does not accept new
	// items after a failed flush.
	err error
	m   sync.Mutex
}

type BatchFn[T any] func([]T) error

type EnqueueStatus int

const (
	Scheduled EnqueueStatus = iota + 1
	Flushed
)

func NewBatcher[T any](sizeThreshold int, delayThreshold time.Duration, fn BatchFn[T]) *Batcher[T] {
	if sizeThreshold < 1 {
		sizeThreshold = 1
	}
	return &Batcher[T]{
		sizeThreshold:  sizeThreshold,
		delayThreshold: delayThreshold,
		fn:             fn,
	}
}

// Enqueue adds an item to the batch. If the batch is full it is flushed
// synchronously and the error of the flush is returned. A flush error that
// happened in the background is returned by the next call to Enqueue.
func (b *Batcher[T]) Enqueue(item T) (EnqueueStatus, error) {
	b.m.Lock()
	defer b.m.Unlock()

	if b.err != nil {
		return 0, b.err
	}

	b.batch = append(b.batch, item)
	if b.draining || len(b.batch) >= b.sizeThreshold {
		// trigger flush synchronously
		b.flushNow()
		return Flushed, b.err
	}
	if b.flushTimer == nil && b.delayThreshold > 0 {
		b.flushTimer = time.AfterFunc(b.delayThreshold, func() { _ = b.Flush() })
	}
	return Scheduled, nil
}

// Flush flushes the current batch and returns the error of the batcher.
func (b *Batcher[T]) Flush() error {
	b.m.Lock()
	defer b.m.Unlock()
	if b.err == nil {
		b.flushNow()
	}
	return b.err
}

// Drain flushes the current batch and makes the batcher flush every item
// enqueued from now on immediately.
func (b *Batcher[T]) Drain() error {
	b.m.Lock()
	defer b.m.Unlock()
	b.draining = true
	if b.err == nil {
		b.flushNow()
	}
	return b.err
}

// Stop stops the flush timer, items that are still in the batch are dropped.
func (b *Batcher[T]) Stop() {
	b.m.Lock()
	defer b.m.Unlock()
	b.stopTimer()
	b.batch = nil
}

func (b *Batcher[T]) stopTimer() {
	if b.flushTimer != nil {
		b.flushTimer.Stop()
		b.flushTimer = nil
	}
}

func (b *Batcher[T]) flushNow() {
	b.stopTimer()
	if len(b.batch) == 0 {
		// nothing to flush
		return
	}

	batch := b.batch
	b.batch = nil
	b.err = b.fn(batch)
}
