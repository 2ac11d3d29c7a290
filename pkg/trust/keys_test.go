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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/devicetrust/pkg/identifier"
)

func TestConfigKey(t *testing.T) {
	tests := []struct {
		name     string
		deviceID string
		want     string
	}{
		{name: "safe characters", deviceID: "abc_123", want: "com/soduto/device/abc_123"},
		{name: "space and slash", deviceID: "a b/c", want: "com/soduto/device/a%20b%2Fc"},
		{name: "percent", deviceID: "100%", want: "com/soduto/device/100%25"},
		{name: "host sub-delims kept", deviceID: "[fe80::1]!$&'()*+,;=-._~", want: "com/soduto/device/[fe80::1]!$&'()*+,;=-._~"},
		{name: "query and fragment", deviceID: "a?b#c@d", want: "com/soduto/device/a%3Fb%23c%40d"},
		{name: "utf-8", deviceID: "ü", want: "com/soduto/device/%C3%BC"},
		{name: "empty", deviceID: "", want: "com/soduto/device/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := ConfigKey(tt.deviceID)
			assert.Equal(t, tt.want, key)
			assert.True(t, IsDeviceConfigKey(key))

			deviceID, err := DeviceIDFromKey(key)
			require.NoError(t, err)
			assert.Equal(t, tt.deviceID, deviceID)
		})
	}
}

func TestConfigKeyOfGeneratedIdentifiers(t *testing.T) {
	for i := 0; i < 100; i++ {
		id := identifier.Generate()
		assert.Equal(t, DeviceConfigKeyPrefix+id, ConfigKey(id))
	}
}

func TestIsDeviceConfigKey(t *testing.T) {
	assert.False(t, IsDeviceConfigKey(HostDeviceIDKey))
	assert.False(t, IsDeviceConfigKey("com/soduto/devic"))
	assert.False(t, IsDeviceConfigKey("keystore/certificate/x"))
}

func TestDeviceIDFromForeignKey(t *testing.T) {
	_, err := DeviceIDFromKey(LaunchOnLoginKey)
	require.ErrorIs(t, err, ErrNotDeviceConfigKey)

	_, err = DeviceIDFromKey(DeviceConfigKeyPrefix + "%zz")
	require.ErrorIs(t, err, ErrNotDeviceConfigKey)
}
