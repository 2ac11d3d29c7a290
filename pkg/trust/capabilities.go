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

import "sort"

// Capability is an opaque token naming a service feature offered to peers.
type Capability string

// CapabilitySet is an unordered set of capabilities.
type CapabilitySet map[Capability]struct{}

func NewCapabilitySet(caps ...Capability) CapabilitySet {
	set := make(CapabilitySet, len(caps))
	for _, c := range caps {
		set[c] = struct{}{}
	}

	return set
}

func (s CapabilitySet) Contains(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in lexical order.
func (s CapabilitySet) Sorted() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

func (s CapabilitySet) clone() CapabilitySet {
	out := make(CapabilitySet, len(s))
	for c := range s {
		out[c] = struct{}{}
	}

	return out
}

// CapabilityProvider supplies the capability sets the host negotiates with.
type CapabilityProvider interface {
	IncomingCapabilities() CapabilitySet
	OutgoingCapabilities() CapabilitySet
}

// StaticCapabilities is a fixed CapabilityProvider.
type StaticCapabilities struct {
	Incoming CapabilitySet
	Outgoing CapabilitySet
}

func (s StaticCapabilities) IncomingCapabilities() CapabilitySet { return s.Incoming }
func (s StaticCapabilities) OutgoingCapabilities() CapabilitySet { return s.Outgoing }

// providerRef boxes a provider for atomic swaps.
type providerRef struct {
	provider CapabilityProvider
}
