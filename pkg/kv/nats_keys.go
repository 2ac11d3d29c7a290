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
	"fmt"
	"strconv"
	"strings"
)

// NATS KV keys only allow [-/_=.a-zA-Z0-9] and reject empty '.' tokens, so
// every other byte (and '=', '.' themselves) is written as "=XX".
const natsEscape = '='

func isNatsKeyByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-', b == '_', b == '/':
		return true
	default:
		return false
	}
}

func encodeNatsKey(key string) (string, error) {
	if key == "" {
		return "", ErrInvalidKey
	}

	var sb strings.Builder

	sb.Grow(len(key))

	for i := 0; i < len(key); i++ {
		b := key[i]
		if isNatsKeyByte(b) {
			sb.WriteByte(b)
			continue
		}

		fmt.Fprintf(&sb, "%c%02X", natsEscape, b)
	}

	return sb.String(), nil
}

func decodeNatsKey(encoded string) (string, error) {
	if !strings.ContainsRune(encoded, natsEscape) {
		return encoded, nil
	}

	var sb strings.Builder

	sb.Grow(len(encoded))

	for i := 0; i < len(encoded); i++ {
		b := encoded[i]
		if b != natsEscape {
			sb.WriteByte(b)
			continue
		}

		if i+2 >= len(encoded) {
			return "", fmt.Errorf("%w: %q", errInvalidKeyEscape, encoded)
		}

		v, err := strconv.ParseUint(encoded[i+1:i+3], 16, 8)
		if err != nil {
			return "", fmt.Errorf("%w: %q", errInvalidKeyEscape, encoded)
		}

		sb.WriteByte(byte(v))
		i += 2
	}

	return sb.String(), nil
}
