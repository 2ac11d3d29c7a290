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

// MemoryStore is a process-local KVStore. It is used by tests and by hosts
// that do not need trust state to survive a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	data    map[string][]byte
	closed  bool
	watches *watchers
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:    make(map[string][]byte),
		watches: newWatchers(),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrClosed
	}

	value, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}

	return cloneBytes(value), true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, value []byte) error {
	stored := append([]byte{}, value...)

	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return ErrClosed
	}

	m.data[key] = stored
	m.mu.Unlock()

	m.watches.notify(key, append([]byte{}, stored...))

	return nil
}

func (m *MemoryStore) Create(_ context.Context, key string, value []byte) (bool, error) {
	stored := append([]byte{}, value...)

	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return false, ErrClosed
	}

	if _, exists := m.data[key]; exists {
		m.mu.Unlock()

		return false, nil
	}

	m.data[key] = stored
	m.mu.Unlock()

	m.watches.notify(key, append([]byte{}, stored...))

	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()

	if m.closed {
		m.mu.Unlock()

		return ErrClosed
	}

	_, existed := m.data[key]
	delete(m.data, key)
	m.mu.Unlock()

	if existed {
		m.watches.notify(key, nil)
	}

	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	keys := make([]string, 0, len(m.data))
	for key := range m.data {
		keys = append(keys, key)
	}

	return keys, nil
}

func (m *MemoryStore) Watch(ctx context.Context, key string) (<-chan []byte, error) {
	return m.watches.add(ctx, key)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.watches.closeAll()

	return nil
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}

	out := make([]byte, len(b))
	copy(out, b)

	return out
}

var _ KVStore = (*MemoryStore)(nil)
