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

import (
	"io"
	"time"

	"github.com/carverauto/devicetrust/pkg/trust"
)

// CmdConfig holds the parsed command line.
type CmdConfig struct {
	ConfigFile string
	JSON       bool
	Help       bool
	Version    bool
	SubCmd     string
	Args       []string

	// devices
	PairedOnly bool
	// watch
	WatchFor time.Duration
}

// Env is what a command runs against.
type Env struct {
	Registry *trust.Registry
	Out      io.Writer
}

type hostInfo struct {
	DeviceID          string    `json:"deviceId"`
	Name              string    `json:"name"`
	CertificateName   string    `json:"certificateName"`
	LaunchOnLogin     bool      `json:"launchOnLogin"`
	IdentityAvailable bool      `json:"identityAvailable"`
	CommonName        string    `json:"commonName,omitempty"`
	NotAfter          time.Time `json:"notAfter,omitempty"`
	Fingerprint       string    `json:"fingerprint,omitempty"`
}

type deviceInfo struct {
	trust.DeviceSnapshot
	Fingerprint string `json:"fingerprint,omitempty"`
}
