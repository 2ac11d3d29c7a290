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
	"bytes"
	"context"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/carverauto/devicetrust/pkg/keystore"
	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/logger"
)

// DefaultCertificatePrefix prefixes the keystore name allocated for a device
// certificate when the record has none yet.
const DefaultCertificatePrefix = "com.soduto.device.certificate."

// DeviceType classifies a remote device.
type DeviceType string

const (
	DeviceTypeUnknown DeviceType = "Unknown"
	DeviceTypeDesktop DeviceType = "Desktop"
	DeviceTypeLaptop  DeviceType = "Laptop"
	DeviceTypePhone   DeviceType = "Phone"
	DeviceTypeTablet  DeviceType = "Tablet"
)

// ParseDeviceType matches s case-insensitively. Anything else is Unknown.
func ParseDeviceType(s string) DeviceType {
	for _, t := range []DeviceType{DeviceTypeDesktop, DeviceTypeLaptop, DeviceTypePhone, DeviceTypeTablet} {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}

	return DeviceTypeUnknown
}

// DefaultCertificateName is the keystore name used for deviceID's certificate.
func DefaultCertificateName(deviceID string) string {
	return DefaultCertificatePrefix + deviceID
}

// deviceBlob is the stored attribute set. Pointer fields distinguish an
// absent attribute from a zero one.
type deviceBlob struct {
	Name            *string     `json:"name,omitempty"`
	Type            *DeviceType `json:"type,omitempty"`
	IsPaired        *bool       `json:"isPaired,omitempty"`
	CertificateName *string     `json:"certificateName,omitempty"`
	HwAddresses     *[]string   `json:"hwAddresses,omitempty"`
}

// DeviceSnapshot is a point-in-time copy of a DeviceConfig.
type DeviceSnapshot struct {
	DeviceID        string     `json:"deviceId"`
	Name            string     `json:"name"`
	Type            DeviceType `json:"type"`
	IsPaired        bool       `json:"isPaired"`
	CertificateName string     `json:"certificateName"`
	HwAddresses     []string   `json:"hwAddresses"`
}

// DeviceConfig is the persisted trust record of one remote device. Every
// setter that changes a value writes the whole record through to the store,
// and the record reloads itself when the store reports a change to its key.
//
// Two DeviceConfig values for the same device do not coordinate; callers
// should hold one live record per device.
type DeviceConfig struct {
	deviceID string
	key      string
	store    kv.KVStore
	keystore keystore.Keystore
	log      logger.Logger

	// mu serializes mutate+save against load+apply.
	mu sync.RWMutex
	// loading is set while a load applies stored state. It is read without mu
	// so a change reported from inside a load never waits on the lock.
	loading atomic.Bool
	// pending marks a change notification that has not been loaded yet.
	pending atomic.Bool
	// watchPending marks that a pending change came from the store watch.
	watchPending atomic.Bool

	name            string
	deviceType      DeviceType
	paired          bool
	certificateName string
	hwAddresses     []string

	// synced holds the bytes last read from or written to the store.
	synced []byte

	onChange atomic.Pointer[func()]

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

func newDeviceConfig(ctx context.Context, deviceID string, store kv.KVStore, ks keystore.Keystore, log logger.Logger) (*DeviceConfig, error) {
	if deviceID == "" {
		return nil, ErrEmptyDeviceID
	}

	c := &DeviceConfig{
		deviceID:   deviceID,
		key:        ConfigKey(deviceID),
		store:      store,
		keystore:   ks,
		log:        logger.OrNop(log),
		deviceType: DeviceTypeUnknown,
		done:       make(chan struct{}),
	}

	// The subscription is opened before the initial load so that no write
	// between the two goes unnoticed.
	watchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	updates, err := store.Watch(watchCtx, c.key)
	if err != nil {
		cancel()

		return nil, fmt.Errorf("watching device config %s: %w", deviceID, err)
	}

	c.cancel = cancel

	c.pending.Store(true)

	if err := c.drain(ctx, triggerInitial); err != nil {
		cancel()

		return nil, err
	}

	go c.watch(watchCtx, updates)

	return c, nil
}

func (c *DeviceConfig) watch(ctx context.Context, updates <-chan []byte) {
	defer close(c.done)

	for range updates {
		c.changed(ctx)
	}
}

// changed handles a store notification for this record's key. A notification
// that arrives while a load is applying state is left to that load's drain
// loop instead of nesting a second load.
func (c *DeviceConfig) changed(ctx context.Context) {
	c.watchPending.Store(true)
	c.pending.Store(true)

	if c.loading.Load() {
		return
	}

	if err := c.drain(ctx, triggerWatch); err != nil {
		c.log.Warn().Err(err).Str("device_id", c.deviceID).Msg("failed to reload device config")
	}
}

// drain loads until no notification is pending. OnChange runs for every
// applied load that covers a watch notification, including one absorbed by
// a Reload.
func (c *DeviceConfig) drain(ctx context.Context, trigger string) error {
	for c.pending.Swap(false) {
		fromWatch := c.watchPending.Swap(false) || trigger == triggerWatch

		applied, err := c.load(ctx, trigger)
		if err != nil {
			return err
		}

		// A notification that arrived during this load is covered by it.
		if applied && (fromWatch || c.watchPending.Load()) {
			if fn := c.onChange.Load(); fn != nil {
				(*fn)()
			}
		}
	}

	return nil
}

// load applies the stored attributes present in the store. Absent attributes
// keep their current value. It never writes.
func (c *DeviceConfig) load(ctx context.Context, trigger string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.loading.Store(true)
	defer c.loading.Store(false)

	data, found, err := c.store.Get(ctx, c.key)
	if err != nil {
		return false, fmt.Errorf("loading device config %s: %w", c.deviceID, err)
	}

	if !found || bytes.Equal(data, c.synced) {
		return false, nil
	}

	var blob deviceBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return false, fmt.Errorf("decoding device config %s: %w", c.deviceID, err)
	}

	c.apply(&blob)
	c.synced = data

	recordReload(ctx, trigger)

	c.log.Debug().Str("device_id", c.deviceID).Str("trigger", trigger).Msg("loaded device config")

	return true, nil
}

func (c *DeviceConfig) apply(blob *deviceBlob) {
	if blob.Name != nil {
		c.name = *blob.Name
	}

	if blob.Type != nil {
		c.deviceType = ParseDeviceType(string(*blob.Type))
	}

	if blob.IsPaired != nil {
		c.paired = *blob.IsPaired
	}

	if blob.CertificateName != nil {
		c.certificateName = *blob.CertificateName
	}

	if blob.HwAddresses != nil {
		c.hwAddresses = dedupe(*blob.HwAddresses)
	}
}

// deviceFields is a copy of the mutable attributes.
type deviceFields struct {
	name            string
	deviceType      DeviceType
	paired          bool
	certificateName string
	hwAddresses     []string
}

func (c *DeviceConfig) fieldsLocked() deviceFields {
	return deviceFields{
		name:            c.name,
		deviceType:      c.deviceType,
		paired:          c.paired,
		certificateName: c.certificateName,
		hwAddresses:     slices.Clone(c.hwAddresses),
	}
}

func (c *DeviceConfig) restoreLocked(f deviceFields) {
	c.name = f.name
	c.deviceType = f.deviceType
	c.paired = f.paired
	c.certificateName = f.certificateName
	c.hwAddresses = f.hwAddresses
}

// updateLocked applies mutate and saves the result. When the save fails the
// previous values are restored, so memory never holds a value the store
// rejected and a retry writes again. Callers hold mu.
func (c *DeviceConfig) updateLocked(ctx context.Context, mutate func()) error {
	prev := c.fieldsLocked()

	mutate()

	if err := c.saveLocked(ctx); err != nil {
		c.restoreLocked(prev)

		return err
	}

	return nil
}

// saveLocked writes the full attribute set. Callers hold mu.
func (c *DeviceConfig) saveLocked(ctx context.Context) error {
	if c.loading.Load() || c.deviceID == "" {
		return nil
	}

	hw := append([]string{}, c.hwAddresses...)
	deviceType := c.deviceType

	data, err := json.Marshal(deviceBlob{
		Name:            &c.name,
		Type:            &deviceType,
		IsPaired:        &c.paired,
		CertificateName: &c.certificateName,
		HwAddresses:     &hw,
	})
	if err != nil {
		recordSave(ctx, outcomeError)

		return fmt.Errorf("encoding device config %s: %w", c.deviceID, err)
	}

	if err := c.store.Put(ctx, c.key, data); err != nil {
		recordSave(ctx, outcomeError)

		return fmt.Errorf("saving device config %s: %w", c.deviceID, err)
	}

	c.synced = data

	recordSave(ctx, outcomeSuccess)

	return nil
}

// Reload re-reads the record from the store.
func (c *DeviceConfig) Reload(ctx context.Context) error {
	c.pending.Store(true)

	return c.drain(ctx, triggerManual)
}

// OnChange registers fn to run after the record applies a change made by
// another writer. Passing nil removes the callback.
func (c *DeviceConfig) OnChange(fn func()) {
	if fn == nil {
		c.onChange.Store(nil)
		return
	}

	c.onChange.Store(&fn)
}

// Close ends the store subscription. It must not be called from an OnChange
// callback.
func (c *DeviceConfig) Close() {
	c.closeOnce.Do(func() {
		c.cancel()
		<-c.done
	})
}

func (c *DeviceConfig) DeviceID() string { return c.deviceID }

func (c *DeviceConfig) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.name
}

func (c *DeviceConfig) Type() DeviceType {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.deviceType
}

func (c *DeviceConfig) IsPaired() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.paired
}

func (c *DeviceConfig) CertificateName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.certificateName
}

func (c *DeviceConfig) HwAddresses() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]string(nil), c.hwAddresses...)
}

func (c *DeviceConfig) Snapshot() DeviceSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return DeviceSnapshot{
		DeviceID:        c.deviceID,
		Name:            c.name,
		Type:            c.deviceType,
		IsPaired:        c.paired,
		CertificateName: c.certificateName,
		HwAddresses:     append([]string{}, c.hwAddresses...),
	}
}

func (c *DeviceConfig) SetName(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.name == name {
		return nil
	}

	return c.updateLocked(ctx, func() { c.name = name })
}

func (c *DeviceConfig) SetType(ctx context.Context, deviceType DeviceType) error {
	deviceType = ParseDeviceType(string(deviceType))

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.deviceType == deviceType {
		return nil
	}

	return c.updateLocked(ctx, func() { c.deviceType = deviceType })
}

func (c *DeviceConfig) SetPaired(ctx context.Context, paired bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paired == paired {
		return nil
	}

	return c.updateLocked(ctx, func() { c.paired = paired })
}

func (c *DeviceConfig) SetCertificateName(ctx context.Context, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.setCertificateNameLocked(ctx, name)
}

func (c *DeviceConfig) setCertificateNameLocked(ctx context.Context, name string) error {
	if c.certificateName == name {
		return nil
	}

	return c.updateLocked(ctx, func() { c.certificateName = name })
}

// AddHwAddress appends address unless it is already recorded.
func (c *DeviceConfig) AddHwAddress(ctx context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if slices.Contains(c.hwAddresses, address) {
		return nil
	}

	return c.updateLocked(ctx, func() { c.hwAddresses = append(c.hwAddresses, address) })
}

// Certificate resolves the record's certificate from the keystore. Keystore
// failures are logged and reported as no certificate. A failed read does not
// clear CertificateName; only SetCertificate does.
func (c *DeviceConfig) Certificate(ctx context.Context) *x509.Certificate {
	name := c.CertificateName()
	if name == "" {
		return nil
	}

	cert, err := c.keystore.Find(ctx, name)
	if err != nil {
		recordKeystoreFailure(ctx, "find")
		c.log.Warn().Err(err).
			Str("device_id", c.deviceID).
			Str("certificate_name", name).
			Msg("failed to read device certificate")

		return nil
	}

	return cert
}

// CertificateMatches reports whether peer is the certificate stored for this
// device.
func (c *DeviceConfig) CertificateMatches(ctx context.Context, peer *x509.Certificate) bool {
	if peer == nil {
		return false
	}

	cert := c.Certificate(ctx)

	return cert != nil && bytes.Equal(cert.Raw, peer.Raw)
}

// SetCertificate replaces the device certificate. A nil cert clears it. The
// old keystore entry is deleted before the new one is added; if the keystore
// fails the record is left with no certificate. Only store errors are
// returned.
func (c *DeviceConfig) SetCertificate(ctx context.Context, cert *x509.Certificate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	oldName := c.certificateName
	newName := ""

	if cert != nil {
		newName = oldName
		if newName == "" {
			newName = DefaultCertificateName(c.deviceID)
		}
	}

	// A leftover entry under the default name would make Add fail forever.
	for _, name := range uniqueNonEmpty(oldName, newName) {
		if err := c.keystore.Delete(ctx, name); err != nil && !errors.Is(err, keystore.ErrNotFound) {
			c.keystoreFailed(ctx, "delete", name, err)

			return c.setCertificateNameLocked(ctx, "")
		}
	}

	if cert != nil {
		if err := c.keystore.Add(ctx, cert, newName); err != nil {
			c.keystoreFailed(ctx, "add", newName, err)

			return c.setCertificateNameLocked(ctx, "")
		}
	}

	return c.setCertificateNameLocked(ctx, newName)
}

func (c *DeviceConfig) keystoreFailed(ctx context.Context, operation, name string, err error) {
	recordKeystoreFailure(ctx, operation)

	c.log.Error().Err(err).
		Str("device_id", c.deviceID).
		Str("certificate_name", name).
		Str("operation", operation).
		Msg("keystore failure, clearing device certificate")
}

func uniqueNonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}

	return out
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))

	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}

	return out
}
