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

// Package version reports the build version of devicetrust binaries.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/carverauto/devicetrust/pkg/version.version=...".
//
//nolint:gochecknoglobals // ldflags injection targets
var (
	version = "dev"
	buildID = ""
)

// Version is the release version, or the main module version recorded by the
// Go toolchain when none was injected.
func Version() string {
	if version != "dev" {
		return version
	}

	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}

	return version
}

// BuildID is the injected build identifier, falling back to the VCS revision.
func BuildID() string {
	if buildID != "" {
		return buildID
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}

	return "unknown"
}

// String formats the version line printed by --version.
func String(program string) string {
	return fmt.Sprintf("%s %s (build: %s, %s)", program, Version(), BuildID(), runtime.Version())
}
