/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package kv

import (
	"context"
	"sync"
)

const watchBufferSize = 16

// watchers fans key change notifications out to Watch subscribers.
// Sends never block: when a subscriber's buffer is full the update is dropped,
// since the subscriber still has a pending update that will make it re-read.
type watchers struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	closed bool
	done   chan struct{}
}

type subscription struct {
	ch chan []byte
}

func newWatchers() *watchers {
	return &watchers{
		subs: make(map[string]map[*subscription]struct{}),
		done: make(chan struct{}),
	}
}

func (w *watchers) add(ctx context.Context, key string) (<-chan []byte, error) {
	w.mu.Lock()

	if w.closed {
		w.mu.Unlock()

		return nil, ErrClosed
	}

	sub := &subscription{ch: make(chan []byte, watchBufferSize)}

	if w.subs[key] == nil {
		w.subs[key] = make(map[*subscription]struct{})
	}

	w.subs[key][sub] = struct{}{}
	w.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			w.remove(key, sub)
		case <-w.done:
		}
	}()

	return sub.ch, nil
}

func (w *watchers) remove(key string, sub *subscription) {
	w.mu.Lock()
	defer w.mu.Unlock()

	subs, ok := w.subs[key]
	if !ok {
		return
	}

	if _, ok := subs[sub]; !ok {
		return
	}

	delete(subs, sub)
	close(sub.ch)

	if len(subs) == 0 {
		delete(w.subs, key)
	}
}

// has reports whether anyone is watching key.
func (w *watchers) has(key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return len(w.subs[key]) > 0
}

func (w *watchers) notify(key string, value []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for sub := range w.subs[key] {
		select {
		case sub.ch <- value:
		default:
		}
	}
}

func (w *watchers) closeAll() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.closed = true
	close(w.done)

	for key, subs := range w.subs {
		for sub := range subs {
			close(sub.ch)
		}

		delete(w.subs, key)
	}
}
