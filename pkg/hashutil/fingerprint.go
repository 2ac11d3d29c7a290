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

// Package hashutil formats and compares SHA-256 certificate fingerprints.
package hashutil

import (
	"crypto/sha256"
	"crypto/subtle"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
)

var (
	errEmptyFingerprint       = errors.New("empty fingerprint")
	errUnsupportedFingerprint = errors.New("unsupported fingerprint encoding")
)

// Fingerprint returns the SHA-256 digest of the certificate's DER encoding.
func Fingerprint(cert *x509.Certificate) [sha256.Size]byte {
	return sha256.Sum256(cert.Raw)
}

// Format renders sum as colon-separated uppercase hex pairs, the form most
// certificate tools print.
func Format(sum [sha256.Size]byte) string {
	var b strings.Builder

	b.Grow(len(sum)*3 - 1)

	for i, v := range sum {
		if i > 0 {
			b.WriteByte(':')
		}

		b.WriteString(strings.ToUpper(hex.EncodeToString([]byte{v})))
	}

	return b.String()
}

// FormatCertificate is Format(Fingerprint(cert)), or "" for a nil cert.
func FormatCertificate(cert *x509.Certificate) string {
	if cert == nil {
		return ""
	}

	return Format(Fingerprint(cert))
}

// Decode parses a SHA-256 digest written as hex (with or without colons) or
// as any base64 alphabet.
func Decode(s string) ([]byte, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return nil, errEmptyFingerprint
	}

	if decoded, err := hex.DecodeString(strings.ReplaceAll(clean, ":", "")); err == nil && len(decoded) == sha256.Size {
		return decoded, nil
	}

	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		if decoded, err := enc.DecodeString(clean); err == nil && len(decoded) == sha256.Size {
			return decoded, nil
		}
	}

	return nil, errUnsupportedFingerprint
}

// Matches reports whether expected, in any form Decode accepts, is the
// fingerprint of cert.
func Matches(expected string, cert *x509.Certificate) bool {
	if cert == nil {
		return false
	}

	decoded, err := Decode(expected)
	if err != nil {
		return false
	}

	sum := Fingerprint(cert)

	return subtle.ConstantTimeCompare(decoded, sum[:]) == 1
}
