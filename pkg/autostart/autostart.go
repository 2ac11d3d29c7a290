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

// Package autostart registers the devicetrust agent as a login item.
package autostart

import "errors"

// Status is the registration state reported by a Service.
type Status int

const (
	StatusNotRegistered Status = iota
	StatusEnabled
	StatusRequiresApproval
	StatusNotFound
)

var (
	// ErrUnsupported is returned by NopService.Register.
	ErrUnsupported = errors.New("login items are not supported on this host")

	errUnknownBackend = errors.New("unknown autostart backend")
)

// String returns the lower-case name used in logs and CLI output.
func (s Status) String() string {
	switch s {
	case StatusNotRegistered:
		return "not-registered"
	case StatusEnabled:
		return "enabled"
	case StatusRequiresApproval:
		return "requires-approval"
	case StatusNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// Service is a login-item registration facility.
type Service interface {
	Register() error
	Unregister() error
	Status() (Status, error)
}

// NopService reports NotFound and refuses to register. It stands in on hosts
// without a desktop session.
type NopService struct{}

func (NopService) Register() error         { return ErrUnsupported }
func (NopService) Unregister() error       { return nil }
func (NopService) Status() (Status, error) { return StatusNotFound, nil }
