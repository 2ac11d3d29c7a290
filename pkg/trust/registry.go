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

// Package trust keeps the host's identity and the per-device trust records
// used to authenticate paired devices.
package trust

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/carverauto/devicetrust/pkg/autostart"
	"github.com/carverauto/devicetrust/pkg/identifier"
	"github.com/carverauto/devicetrust/pkg/keystore"
	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/logger"
	"github.com/carverauto/devicetrust/pkg/notify"
)

const (
	// DefaultHostCertificateName is the keystore name of the host identity.
	DefaultHostCertificateName = "com.soduto.hostcertificate"

	// HostIdentityLifetime is the validity of a generated host certificate.
	HostIdentityLifetime = 10 * 365 * 24 * time.Hour

	loginItemNotificationID = "com.soduto.launchOnLogin"
)

// Options configures a Registry. Store and Keystore are required.
type Options struct {
	Store      kv.KVStore
	Keystore   keystore.Keystore
	Logger     logger.Logger
	LoginItems autostart.Service
	Notifier   notify.Notifier

	// Hostname supplies the initial host name. Defaults to os.Hostname.
	Hostname func() (string, error)
}

// Registry is the host-level entry point to trust state. One Registry is
// created per process and passed to whatever needs it.
type Registry struct {
	store      kv.KVStore
	keystore   keystore.Keystore
	log        logger.Logger
	loginItems autostart.Service
	notifier   notify.Notifier

	hostDeviceID        string
	hostCertificateName string

	capabilities atomic.Pointer[providerRef]
}

// NewRegistry opens the registry on opts.Store, creating the host keys that
// are not there yet. Existing host keys are never replaced.
func NewRegistry(ctx context.Context, opts Options) (*Registry, error) {
	if opts.Store == nil {
		return nil, errStoreRequired
	}

	if opts.Keystore == nil {
		return nil, errKeystoreRequired
	}

	log := logger.OrNop(opts.Logger)

	r := &Registry{
		store:      opts.Store,
		keystore:   opts.Keystore,
		log:        log,
		loginItems: opts.LoginItems,
		notifier:   opts.Notifier,
	}

	if r.loginItems == nil {
		r.loginItems = autostart.NopService{}
	}

	if r.notifier == nil {
		r.notifier = notify.NewLogNotifier(log)
	}

	var err error

	r.hostDeviceID, err = r.initString(ctx, HostDeviceIDKey, identifier.Generate())
	if err != nil {
		return nil, err
	}

	r.hostCertificateName, err = r.initString(ctx, HostCertificateNameKey, DefaultHostCertificateName)
	if err != nil {
		return nil, err
	}

	hostname := opts.Hostname
	if hostname == nil {
		hostname = os.Hostname
	}

	if name, herr := hostname(); herr != nil {
		log.Warn().Err(herr).Msg("could not determine host name")
	} else if _, err := r.initString(ctx, HostNameKey, name); err != nil {
		return nil, err
	}

	log.Info().
		Str("host_device_id", r.hostDeviceID).
		Str("host_certificate_name", r.hostCertificateName).
		Msg("trust registry ready")

	return r, nil
}

// initString stores value under key unless the key exists, and returns what
// the store holds afterwards.
func (r *Registry) initString(ctx context.Context, key, value string) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	created, err := r.store.Create(ctx, key, data)
	if err != nil {
		return "", fmt.Errorf("initializing %s: %w", key, err)
	}

	if created {
		r.log.Info().Str("key", key).Msg("initialized host key")

		return value, nil
	}

	stored, _, err := r.getString(ctx, key)

	return stored, err
}

func (r *Registry) getString(ctx context.Context, key string) (string, bool, error) {
	data, found, err := r.store.Get(ctx, key)
	if err != nil || !found {
		return "", false, err
	}

	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return "", false, fmt.Errorf("decoding %s: %w", key, err)
	}

	return value, true, nil
}

func (r *Registry) put(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if err := r.store.Put(ctx, key, data); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}

	return nil
}

// HostDeviceID is the install-wide identifier of this host.
func (r *Registry) HostDeviceID() string { return r.hostDeviceID }

// HostCertificateName is the keystore name of the host identity.
func (r *Registry) HostCertificateName() string { return r.hostCertificateName }

func (r *Registry) HostName(ctx context.Context) (string, error) {
	name, _, err := r.getString(ctx, HostNameKey)

	return name, err
}

func (r *Registry) SetHostName(ctx context.Context, name string) error {
	return r.put(ctx, HostNameKey, name)
}

// HostIdentity returns the host's self-signed identity, creating it on first
// use. It returns nil when the keystore fails.
func (r *Registry) HostIdentity(ctx context.Context) *keystore.Identity {
	id, err := r.keystore.GetOrCreateIdentity(ctx, r.hostCertificateName, r.hostDeviceID, HostIdentityLifetime)
	if err != nil {
		recordKeystoreFailure(ctx, "get_or_create_identity")
		r.log.Error().Err(err).
			Str("certificate_name", r.hostCertificateName).
			Msg("failed to get host identity")

		return nil
	}

	return id
}

// DeviceConfig returns a new record for deviceID, loaded from the store. The
// caller owns it and should Close it.
func (r *Registry) DeviceConfig(ctx context.Context, deviceID string) (*DeviceConfig, error) {
	return newDeviceConfig(ctx, deviceID, r.store, r.keystore, r.log)
}

// DeviceConfigForKey is DeviceConfig for a device record store key.
func (r *Registry) DeviceConfigForKey(ctx context.Context, key string) (*DeviceConfig, error) {
	deviceID, err := DeviceIDFromKey(key)
	if err != nil {
		return nil, err
	}

	return r.DeviceConfig(ctx, deviceID)
}

// KnownDeviceConfigs returns one new record per device key in the store, in
// the store's order. Records that fail to load are skipped and logged.
func (r *Registry) KnownDeviceConfigs(ctx context.Context) ([]*DeviceConfig, error) {
	keys, err := r.store.Keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing store keys: %w", err)
	}

	configs := make([]*DeviceConfig, 0)

	for _, key := range keys {
		if !IsDeviceConfigKey(key) {
			continue
		}

		config, err := r.DeviceConfigForKey(ctx, key)
		if err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("skipping unreadable device config")
			continue
		}

		configs = append(configs, config)
	}

	return configs, nil
}

// LaunchOnLogin reports the persisted launch-on-login flag.
func (r *Registry) LaunchOnLogin(ctx context.Context) (bool, error) {
	data, found, err := r.store.Get(ctx, LaunchOnLoginKey)
	if err != nil || !found {
		return false, err
	}

	var enabled bool
	if err := json.Unmarshal(data, &enabled); err != nil {
		return false, fmt.Errorf("decoding %s: %w", LaunchOnLoginKey, err)
	}

	return enabled, nil
}

// SetLaunchOnLogin updates the login item first and persists the flag only
// when that succeeds. Failures are shown to the user and returned.
func (r *Registry) SetLaunchOnLogin(ctx context.Context, enabled bool) error {
	var err error
	if enabled {
		err = r.loginItems.Register()
	} else {
		err = r.loginItems.Unregister()
	}

	if err != nil {
		r.log.Error().Err(err).Bool("enabled", enabled).Msg("failed to update login item")
		r.notifier.Notify(ctx, notify.Notification{
			ID:    loginItemNotificationID,
			Title: "Launch on login",
			Body:  "Failed to update the login item: " + err.Error(),
			Sound: true,
		})

		return fmt.Errorf("%w: %w", errLoginItem, err)
	}

	if enabled {
		status, serr := r.loginItems.Status()

		switch {
		case serr != nil:
			r.log.Warn().Err(serr).Msg("failed to read login item status")
		case status == autostart.StatusRequiresApproval:
			r.notifier.Notify(ctx, notify.Notification{
				ID:    loginItemNotificationID,
				Title: "Launch on login",
				Body:  "The login item is registered but must be enabled in your session settings.",
			})
		}
	}

	return r.put(ctx, LaunchOnLoginKey, enabled)
}

// SetCapabilityProvider installs the source of capability sets. The registry
// only reads from p and never closes it. nil removes the provider.
func (r *Registry) SetCapabilityProvider(p CapabilityProvider) {
	if p == nil {
		r.capabilities.Store(nil)
		return
	}

	r.capabilities.Store(&providerRef{provider: p})
}

// IncomingCapabilities is empty when no provider is installed.
func (r *Registry) IncomingCapabilities() CapabilitySet {
	ref := r.capabilities.Load()
	if ref == nil {
		return NewCapabilitySet()
	}

	return ref.provider.IncomingCapabilities().clone()
}

// OutgoingCapabilities is empty when no provider is installed.
func (r *Registry) OutgoingCapabilities() CapabilitySet {
	ref := r.capabilities.Load()
	if ref == nil {
		return NewCapabilitySet()
	}

	return ref.provider.OutgoingCapabilities().clone()
}
