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

package cli

import "errors"

var (
	errUnknownCommand    = errors.New("unknown command")
	errMissingCommand    = errors.New("no command given")
	errWrongArgCount     = errors.New("wrong number of arguments")
	errInvalidDeviceType = errors.New("invalid device type")
	errInvalidSwitch     = errors.New("expected on or off")
	errNoCertificate     = errors.New("no certificate in file")

	errNoDeviceCertificate = errors.New("device has no certificate")
	errFingerprintMismatch = errors.New("fingerprint does not match")
)
