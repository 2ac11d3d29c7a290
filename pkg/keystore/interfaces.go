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

//go:generate mockgen -destination=mock_keystore.go -package=keystore github.com/carverauto/devicetrust/pkg/keystore Keystore

// Package keystore stores peer certificates and the host's long-lived
// self-signed identity under stable names.
package keystore

import (
	"context"
	"crypto"
	"crypto/tls"
	"crypto/x509"
	"time"
)

// Keystore is the named certificate store consumed by the trust registry.
type Keystore interface {
	// Find returns the certificate stored under name, or nil when there is none.
	Find(ctx context.Context, name string) (*x509.Certificate, error)

	// Add stores cert under name. It fails with ErrDuplicateName when name is
	// already taken.
	Add(ctx context.Context, cert *x509.Certificate, name string) error

	// Delete removes the certificate stored under name. It fails with
	// ErrNotFound when there is none.
	Delete(ctx context.Context, name string) error

	// GetOrCreateIdentity returns the valid identity stored under name, or
	// generates, stores and returns a new self-signed one whose subject common
	// name is commonName and which expires after expiration.
	GetOrCreateIdentity(ctx context.Context, name, commonName string, expiration time.Duration) (*Identity, error)
}

// Identity is a certificate together with its private key.
type Identity struct {
	Name        string
	Certificate *x509.Certificate
	PrivateKey  crypto.Signer
}

// TLSCertificate returns the identity in the form crypto/tls expects.
func (i *Identity) TLSCertificate() tls.Certificate {
	return tls.Certificate{
		Certificate: [][]byte{i.Certificate.Raw},
		PrivateKey:  i.PrivateKey,
		Leaf:        i.Certificate,
	}
}
