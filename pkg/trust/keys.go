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

package trust

import (
	"fmt"
	"net/url"
	"strings"
)

// DeviceConfigKeyPrefix starts every device record key in the store.
const DeviceConfigKeyPrefix = "com/soduto/device/"

// Host keys.
const (
	HostNameKey            = "hostName"
	HostDeviceIDKey        = "hostDeviceId"
	HostCertificateNameKey = "hostCertificateName"
	LaunchOnLoginKey       = "launchOnLogin"
)

const upperhex = "0123456789ABCDEF"

// ConfigKey returns the store key of deviceID's record.
func ConfigKey(deviceID string) string {
	return DeviceConfigKeyPrefix + percentEncode(deviceID)
}

// IsDeviceConfigKey reports whether key names a device record.
func IsDeviceConfigKey(key string) bool {
	return strings.HasPrefix(key, DeviceConfigKeyPrefix)
}

// DeviceIDFromKey is the inverse of ConfigKey.
func DeviceIDFromKey(key string) (string, error) {
	if !IsDeviceConfigKey(key) {
		return "", fmt.Errorf("%w: %q", ErrNotDeviceConfigKey, key)
	}

	deviceID, err := url.PathUnescape(strings.TrimPrefix(key, DeviceConfigKeyPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrNotDeviceConfigKey, key, err)
	}

	return deviceID, nil
}

// percentEncode escapes every byte outside the URL host character set.
func percentEncode(s string) string {
	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if isHostAllowed(c) {
			b.WriteByte(c)
			continue
		}

		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&0x0f])
	}

	return b.String()
}

// isHostAllowed matches the characters allowed unescaped in a URL host,
// including the IP-literal brackets and the sub-delims.
func isHostAllowed(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}

	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', '-', '.', ':', ';', '=', '[', ']', '_', '~':
		return true
	}

	return false
}
