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
	"fmt"
	"io"
)

// ShowHelp writes the usage message.
func ShowHelp(w io.Writer) {
	fmt.Fprint(w, `devicetrust: inspect and edit device trust records

Usage:
  devicetrust [--config FILE] [--json] COMMAND [ARGS]

Commands:
  host                        show the host identity
  devices [--paired]          list known devices
  show ID                     show one device
  pair ID                     mark a device as paired
  unpair ID                   mark a device as not paired
  rename ID NAME              set the display name
  set-type ID TYPE            set the type (desktop, laptop, phone, tablet, unknown)
  add-hw ID ADDRESS           record a hardware address
  set-cert ID FILE            trust the PEM certificate in FILE for the device
  verify ID FINGERPRINT       check the device certificate's SHA-256 fingerprint
  clear-cert ID               forget the device certificate
  launch-on-login [on|off]    show or change launch on login
  watch ID [--for DURATION]   print the record whenever it changes

Options:
  -c, --config FILE   configuration file (JSON)
      --json          print JSON instead of text
  -h, --help          show this help message
      --version       print the version and exit

Every configuration value can be overridden with DEVICETRUST_<SECTION>_<FIELD>
environment variables, or replaced wholesale with DEVICETRUST_CONFIG_JSON.
`)
}
