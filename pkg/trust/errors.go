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

import "errors"

var (
	// ErrNotDeviceConfigKey is returned for store keys outside the device record prefix.
	ErrNotDeviceConfigKey = errors.New("not a device config key")
	// ErrEmptyDeviceID is returned when a record is requested for an empty device id.
	ErrEmptyDeviceID = errors.New("device id is empty")

	errStoreRequired    = errors.New("registry requires a KV store")
	errKeystoreRequired = errors.New("registry requires a keystore")
	errLoginItem        = errors.New("login item update failed")
)
