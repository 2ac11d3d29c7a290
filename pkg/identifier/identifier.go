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

// Package identifier generates device identifiers that are safe to use as
// storage key suffixes and as certificate common names.
package identifier

import (
	"strings"

	"github.com/google/uuid"
)

// Generate returns a fresh random identifier in which every character outside
// [0-9a-zA-Z_] has been replaced with '_'.
func Generate() string {
	return Sanitize(uuid.NewString())
}

// Sanitize maps every unsafe character of s to '_'.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if IsSafeCharacter(r) {
			return r
		}

		return '_'
	}, s)
}

// IsSafeCharacter reports whether c is an ASCII letter, digit or underscore.
func IsSafeCharacter(c rune) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= 'A' && c <= 'Z':
		return true
	default:
		return c == '_'
	}
}
