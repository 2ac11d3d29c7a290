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
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/logger"
)

const (
	certificateKeyPrefix = "keystore/certificate/"
	identityKeyPrefix    = "keystore/identity/"
)

// storedIdentity is the JSON document written under identityKeyPrefix.
type storedIdentity struct {
	Certificate string `json:"certificate"`
	SealedKey   string `json:"sealed_key"`
}

// KVKeystore persists certificates as PEM and identities as age-sealed
// PKCS#8 keys inside a kv.KVStore.
type KVKeystore struct {
	store  kv.KVStore
	sealer *Sealer
	log    logger.Logger
	now    func() time.Time

	// mu serializes identity creation within this process.
	mu sync.Mutex
}

// NewKVKeystore returns a keystore writing into store.
func NewKVKeystore(store kv.KVStore, sealer *Sealer, log logger.Logger) *KVKeystore {
	return &KVKeystore{
		store:  store,
		sealer: sealer,
		log:    logger.OrNop(log),
		now:    time.Now,
	}
}

func (k *KVKeystore) Find(ctx context.Context, name string) (*x509.Certificate, error) {
	data, found, err := k.store.Get(ctx, certificateKeyPrefix+name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	if found {
		cert, err := decodeCertificatePEM(data)
		if err != nil {
			return nil, fmt.Errorf("%w: certificate %q: %w", ErrKeystore, name, err)
		}

		return cert, nil
	}

	id, err := k.loadIdentity(ctx, name)
	if err != nil || id == nil {
		return nil, err
	}

	return id.Certificate, nil
}

func (k *KVKeystore) Add(ctx context.Context, cert *x509.Certificate, name string) error {
	if cert == nil {
		return errNilCertificate
	}

	if name == "" {
		return errEmptyName
	}

	_, found, err := k.store.Get(ctx, identityKeyPrefix+name)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	if found {
		return ErrDuplicateName
	}

	created, err := k.store.Create(ctx, certificateKeyPrefix+name, encodeCertificatePEM(cert))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	if !created {
		return ErrDuplicateName
	}

	return nil
}

func (k *KVKeystore) Delete(ctx context.Context, name string) error {
	for _, key := range []string{certificateKeyPrefix + name, identityKeyPrefix + name} {
		_, found, err := k.store.Get(ctx, key)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrKeystore, err)
		}

		if !found {
			continue
		}

		if err := k.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: %w", ErrKeystore, err)
		}

		return nil
	}

	return ErrNotFound
}

func (k *KVKeystore) GetOrCreateIdentity(ctx context.Context, name, commonName string, expiration time.Duration) (*Identity, error) {
	if name == "" {
		return nil, errEmptyName
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	now := k.now()

	existing, err := k.loadIdentity(ctx, name)
	if err != nil {
		// An unreadable identity is replaced rather than blocking the host forever.
		k.log.Warn().Err(err).Str("identity", name).Msg("stored identity unreadable, regenerating")
	}

	if identityUsable(existing, commonName, now) {
		return existing, nil
	}

	_, found, err := k.store.Get(ctx, certificateKeyPrefix+name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	if found {
		return nil, ErrDuplicateName
	}

	id, err := generateIdentity(name, commonName, expiration, now)
	if err != nil {
		return nil, err
	}

	if err := k.storeIdentity(ctx, id); err != nil {
		return nil, err
	}

	k.log.Info().
		Str("identity", name).
		Str("common_name", commonName).
		Time("not_after", id.Certificate.NotAfter).
		Msg("generated self-signed identity")

	return id, nil
}

func (k *KVKeystore) loadIdentity(ctx context.Context, name string) (*Identity, error) {
	data, found, err := k.store.Get(ctx, identityKeyPrefix+name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	if !found {
		return nil, nil
	}

	var stored storedIdentity
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%w: identity %q: %w", ErrKeystore, name, err)
	}

	cert, err := decodeCertificatePEM([]byte(stored.Certificate))
	if err != nil {
		return nil, fmt.Errorf("%w: identity %q certificate: %w", ErrKeystore, name, err)
	}

	keyPEM, err := k.sealer.Open(stored.SealedKey)
	if err != nil {
		return nil, fmt.Errorf("%w: identity %q key: %w", ErrKeystore, name, err)
	}

	key, err := parsePrivateKey(keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: identity %q key: %w", ErrKeystore, name, err)
	}

	return &Identity{Name: name, Certificate: cert, PrivateKey: key}, nil
}

func (k *KVKeystore) storeIdentity(ctx context.Context, id *Identity) error {
	keyPEM, err := marshalPrivateKey(id.PrivateKey)
	if err != nil {
		return fmt.Errorf("%w: marshal private key: %w", ErrKeystore, err)
	}

	sealed, err := k.sealer.Seal(keyPEM)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	data, err := json.Marshal(storedIdentity{
		Certificate: string(encodeCertificatePEM(id.Certificate)),
		SealedKey:   sealed,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	if err := k.store.Put(ctx, identityKeyPrefix+id.Name, data); err != nil {
		return fmt.Errorf("%w: %w", ErrKeystore, err)
	}

	return nil
}

var _ Keystore = (*KVKeystore)(nil)
