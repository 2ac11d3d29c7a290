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

package hashutil

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	var sum [sha256.Size]byte
	sum[0] = 0xab
	sum[31] = 0x01

	got := Format(sum)

	assert.Len(t, got, sha256.Size*3-1)
	assert.True(t, strings.HasPrefix(got, "AB:00:"))
	assert.True(t, strings.HasSuffix(got, ":00:01"))
}

func TestDecode(t *testing.T) {
	sum := sha256.Sum256([]byte("device"))

	cases := []struct {
		name       string
		input      string
		shouldFail bool
	}{
		{name: "hex lowercase", input: hex.EncodeToString(sum[:])},
		{name: "hex uppercase", input: strings.ToUpper(hex.EncodeToString(sum[:]))},
		{name: "colon separated", input: Format(sum)},
		{name: "surrounding space", input: "  " + Format(sum) + "\n"},
		{name: "base64 standard", input: base64.StdEncoding.EncodeToString(sum[:])},
		{name: "base64 raw url", input: base64.RawURLEncoding.EncodeToString(sum[:])},
		{name: "empty", input: "  ", shouldFail: true},
		{name: "short digest", input: hex.EncodeToString(sum[:16]), shouldFail: true},
		{name: "unsupported encoding", input: "not*valid*digest", shouldFail: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decoded, err := Decode(tc.input)
			if tc.shouldFail {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, sum[:], decoded)
		})
	}
}

func TestMatches(t *testing.T) {
	cert := &x509.Certificate{Raw: []byte("not really DER")}
	sum := sha256.Sum256(cert.Raw)

	assert.True(t, Matches(Format(sum), cert))
	assert.True(t, Matches(base64.StdEncoding.EncodeToString(sum[:]), cert))
	assert.False(t, Matches(Format(sha256.Sum256([]byte("other"))), cert))
	assert.False(t, Matches("garbage", cert))
	assert.False(t, Matches(Format(sum), nil))
	assert.Empty(t, FormatCertificate(nil))
	assert.Equal(t, Format(sum), FormatCertificate(cert))
}
