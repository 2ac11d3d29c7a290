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
	"errors"
)

var (
	// ErrDuplicateName is returned by Add when the name is already in use.
	ErrDuplicateName = errors.New("certificate name already in use")
	// ErrNotFound is returned by Delete when nothing is stored under the name.
	ErrNotFound = errors.New("certificate not found")
	// ErrKeystore wraps every failure of the underlying storage or key generation.
	ErrKeystore = errors.New("keystore failure")

	errNilCertificate   = errors.New("certificate is nil")
	errEmptyName        = errors.New("certificate name is empty")
	errInvalidPEM       = errors.New("invalid PEM block")
	errNoX25519Identity = errors.New("no X25519 age identity found")
)
