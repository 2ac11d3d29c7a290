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

package keystore

import (
	"context"
	"crypto/x509"
	"sync"
	"time"
)

// MemoryKeystore keeps certificates and identities in process memory.
type MemoryKeystore struct {
	mu         sync.Mutex
	certs      map[string]*x509.Certificate
	identities map[string]*Identity
	now        func() time.Time
}

// NewMemoryKeystore returns an empty MemoryKeystore.
func NewMemoryKeystore() *MemoryKeystore {
	return &MemoryKeystore{
		certs:      make(map[string]*x509.Certificate),
		identities: make(map[string]*Identity),
		now:        time.Now,
	}
}

func (m *MemoryKeystore) Find(_ context.Context, name string) (*x509.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cert, ok := m.certs[name]; ok {
		return cert, nil
	}

	if id, ok := m.identities[name]; ok {
		return id.Certificate, nil
	}

	return nil, nil
}

func (m *MemoryKeystore) Add(_ context.Context, cert *x509.Certificate, name string) error {
	if cert == nil {
		return errNilCertificate
	}

	if name == "" {
		return errEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.certs[name]; ok {
		return ErrDuplicateName
	}

	if _, ok := m.identities[name]; ok {
		return ErrDuplicateName
	}

	m.certs[name] = cert

	return nil
}

func (m *MemoryKeystore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.certs[name]; ok {
		delete(m.certs, name)
		return nil
	}

	if _, ok := m.identities[name]; ok {
		delete(m.identities, name)
		return nil
	}

	return ErrNotFound
}

func (m *MemoryKeystore) GetOrCreateIdentity(_ context.Context, name, commonName string, expiration time.Duration) (*Identity, error) {
	if name == "" {
		return nil, errEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if id, ok := m.identities[name]; ok && identityUsable(id, commonName, now) {
		return id, nil
	}

	if _, ok := m.certs[name]; ok {
		return nil, ErrDuplicateName
	}

	id, err := generateIdentity(name, commonName, expiration, now)
	if err != nil {
		return nil, err
	}

	m.identities[name] = id

	return id, nil
}

// Len reports how many certificates and identities are stored.
func (m *MemoryKeystore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.certs) + len(m.identities)
}

var _ Keystore = (*MemoryKeystore)(nil)
