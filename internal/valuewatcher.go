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

package internal

import (
	"context"
	"sync"
)

// ValueWatcher holds a value and lets goroutines wait until the value
// satisfies a condition. The zero value is ready to use.
type ValueWatcher[T any] struct {
	m   sync.Mutex
	val T
	// changed is closed and cleared by Store, it is only created when
	// somebody waits for a change.
	changed chan struct{}
}

// Store sets the value and wakes up all goroutines waiting in Await.
func (w *ValueWatcher[T]) Store(val T) {
	w.m.Lock()
	defer w.m.Unlock()

	w.val = val
	if w.changed != nil {
		close(w.changed)
		w.changed = nil
	}
}

// Load returns the current value.
func (w *ValueWatcher[T]) Load() T {
	w.m.Lock()
	defer w.m.Unlock()
	return w.val
}

// Await blocks until cond returns true for the current value or the context
// is done, in which case the context error is returned. Values stored while
// cond runs are not missed, but a value replaced before Await observes it is
// only seen in its latest state.
func (w *ValueWatcher[T]) Await(ctx context.Context, cond func(T) bool) error {
	for {
		w.m.Lock()
		val := w.val
		if w.changed == nil {
			w.changed = make(chan struct{})
		}
		changed := w.changed
		w.m.Unlock()

		if cond(val) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
