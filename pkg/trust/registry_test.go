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
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/devicetrust/pkg/autostart"
	"github.com/carverauto/devicetrust/pkg/identifier"
	"github.com/carverauto/devicetrust/pkg/keystore"
	"github.com/carverauto/devicetrust/pkg/kv"
	"github.com/carverauto/devicetrust/pkg/logger"
	"github.com/carverauto/devicetrust/pkg/notify"
)

var errRegistration = errors.New("registration refused")

type fakeLoginItems struct {
	registerErr   error
	unregisterErr error
	status        autostart.Status

	registered   int
	unregistered int
}

func (f *fakeLoginItems) Register() error {
	f.registered++
	return f.registerErr
}

func (f *fakeLoginItems) Unregister() error {
	f.unregistered++
	return f.unregisterErr
}

func (f *fakeLoginItems) Status() (autostart.Status, error) { return f.status, nil }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.sent = append(n.sent, msg)
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.sent)
}

func newLoginRegistry(t *testing.T, items autostart.Service, notifier notify.Notifier) *Registry {
	t.Helper()

	r, err := NewRegistry(context.Background(), Options{
		Store:      kv.NewMemoryStore(),
		Keystore:   keystore.NewMemoryKeystore(),
		Logger:     logger.NewTestLogger(),
		LoginItems: items,
		Notifier:   notifier,
		Hostname:   func() (string, error) { return "test-host", nil },
	})
	require.NoError(t, err)

	return r
}

func TestNewRegistryRequiresCollaborators(t *testing.T) {
	ctx := context.Background()

	_, err := NewRegistry(ctx, Options{Keystore: keystore.NewMemoryKeystore()})
	require.ErrorIs(t, err, errStoreRequired)

	_, err = NewRegistry(ctx, Options{Store: kv.NewMemoryStore()})
	require.ErrorIs(t, err, errKeystoreRequired)
}

func TestEmptyStoreScenario(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	r := newTestRegistry(t, store, nil)

	hostID := r.HostDeviceID()
	assert.GreaterOrEqual(t, len(hostID), 36)

	for _, c := range hostID {
		assert.True(t, identifier.IsSafeCharacter(c), "unsafe character %q", c)
	}

	configs, err := r.KnownDeviceConfigs(ctx)
	require.NoError(t, err)
	assert.Empty(t, configs)

	require.NoError(t, store.Put(ctx, ConfigKey("phone_1"), []byte(`{"name":"Phone","isPaired":false}`)))

	configs, err = r.KnownDeviceConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)

	record := configs[0]
	t.Cleanup(record.Close)

	assert.Equal(t, "phone_1", record.DeviceID())
	assert.False(t, record.IsPaired())

	require.NoError(t, record.SetPaired(ctx, true))

	second := openDevice(t, r, "phone_1")
	assert.True(t, second.IsPaired())
}

func TestHostKeysAreCreatedOnce(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	first := newTestRegistry(t, store, nil)
	second := newTestRegistry(t, store, nil)

	assert.Equal(t, first.HostDeviceID(), second.HostDeviceID())
	assert.Equal(t, DefaultHostCertificateName, second.HostCertificateName())

	require.NoError(t, first.SetHostName(ctx, "renamed"))

	third := newTestRegistry(t, store, nil)
	name, err := third.HostName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "renamed", name, "an existing host name must not be reset")
}

func TestExistingHostKeysAreKept(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()

	require.NoError(t, store.Put(ctx, HostDeviceIDKey, []byte(`"existing_host"`)))
	require.NoError(t, store.Put(ctx, HostCertificateNameKey, []byte(`"custom.cert"`)))

	r := newTestRegistry(t, store, nil)

	assert.Equal(t, "existing_host", r.HostDeviceID())
	assert.Equal(t, "custom.cert", r.HostCertificateName())

	name, err := r.HostName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "test-host", name)
}

func TestHostnameFailureIsTolerated(t *testing.T) {
	ctx := context.Background()

	r, err := NewRegistry(ctx, Options{
		Store:    kv.NewMemoryStore(),
		Keystore: keystore.NewMemoryKeystore(),
		Hostname: func() (string, error) { return "", errors.New("no uts namespace") },
	})
	require.NoError(t, err)

	name, err := r.HostName(ctx)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestHostIdentity(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t, kv.NewMemoryStore(), nil)

	id := r.HostIdentity(ctx)
	require.NotNil(t, id)
	assert.Equal(t, r.HostDeviceID(), id.Certificate.Subject.CommonName)
	assert.WithinDuration(t, time.Now().Add(HostIdentityLifetime), id.Certificate.NotAfter, time.Minute)

	again := r.HostIdentity(ctx)
	require.NotNil(t, again)
	assert.Equal(t, id.Certificate.Raw, again.Certificate.Raw)
}

func TestHostIdentityKeystoreFailure(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	ks := keystore.NewMockKeystore(ctrl)
	r := newTestRegistry(t, kv.NewMemoryStore(), ks)

	before := counterValue(t, metricKeystoreFailures, "operation", "get_or_create_identity")

	ks.EXPECT().
		GetOrCreateIdentity(gomock.Any(), DefaultHostCertificateName, r.HostDeviceID(), HostIdentityLifetime).
		Return(nil, keystore.ErrKeystore)

	assert.Nil(t, r.HostIdentity(ctx))
	assert.Equal(t, before+1, counterValue(t, metricKeystoreFailures, "operation", "get_or_create_identity"))
}

func TestDeviceConfigForForeignKey(t *testing.T) {
	r := newTestRegistry(t, kv.NewMemoryStore(), nil)

	_, err := r.DeviceConfigForKey(context.Background(), HostDeviceIDKey)
	require.ErrorIs(t, err, ErrNotDeviceConfigKey)
}

func TestKnownDeviceConfigsSkipsUnreadableRecords(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	r := newTestRegistry(t, store, nil)

	require.NoError(t, store.Put(ctx, ConfigKey("good"), []byte(`{"name":"Good"}`)))
	require.NoError(t, store.Put(ctx, ConfigKey("bad"), []byte(`not json`)))
	require.NoError(t, store.Put(ctx, "unrelated", []byte(`{}`)))

	configs, err := r.KnownDeviceConfigs(ctx)
	require.NoError(t, err)
	require.Len(t, configs, 1)
	t.Cleanup(configs[0].Close)

	assert.Equal(t, "good", configs[0].DeviceID())
	assert.Equal(t, "Good", configs[0].Name())
}

func TestSetLaunchOnLogin(t *testing.T) {
	ctx := context.Background()
	items := &fakeLoginItems{status: autostart.StatusEnabled}
	notifier := &recordingNotifier{}
	r := newLoginRegistry(t, items, notifier)

	enabled, err := r.LaunchOnLogin(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	require.NoError(t, r.SetLaunchOnLogin(ctx, true))

	enabled, err = r.LaunchOnLogin(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 1, items.registered)
	assert.Zero(t, notifier.count())

	require.NoError(t, r.SetLaunchOnLogin(ctx, false))

	enabled, err = r.LaunchOnLogin(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Equal(t, 1, items.unregistered)
}

func TestSetLaunchOnLoginFailureKeepsFlag(t *testing.T) {
	ctx := context.Background()
	items := &fakeLoginItems{registerErr: errRegistration}
	notifier := &recordingNotifier{}
	r := newLoginRegistry(t, items, notifier)

	err := r.SetLaunchOnLogin(ctx, true)
	require.ErrorIs(t, err, errRegistration)

	enabled, err := r.LaunchOnLogin(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)
	assert.Equal(t, 1, notifier.count())
}

func TestSetLaunchOnLoginRequiresApproval(t *testing.T) {
	ctx := context.Background()
	items := &fakeLoginItems{status: autostart.StatusRequiresApproval}
	notifier := &recordingNotifier{}
	r := newLoginRegistry(t, items, notifier)

	require.NoError(t, r.SetLaunchOnLogin(ctx, true))

	enabled, err := r.LaunchOnLogin(ctx)
	require.NoError(t, err)
	assert.True(t, enabled)
	assert.Equal(t, 1, notifier.count())
}

func TestLaunchOnLoginWithXDGService(t *testing.T) {
	ctx := context.Background()

	svc, err := autostart.NewXDGService(t.TempDir(), "devicetrust", "", "devicetrust")
	require.NoError(t, err)

	r := newLoginRegistry(t, svc, &recordingNotifier{})
	require.NoError(t, r.SetLaunchOnLogin(ctx, true))

	status, err := svc.Status()
	require.NoError(t, err)
	assert.Equal(t, autostart.StatusEnabled, status)
}

func TestCapabilities(t *testing.T) {
	r := newTestRegistry(t, kv.NewMemoryStore(), nil)

	assert.Empty(t, r.IncomingCapabilities())
	assert.Empty(t, r.OutgoingCapabilities())

	provider := StaticCapabilities{
		Incoming: NewCapabilitySet("soduto.ping", "soduto.share"),
		Outgoing: NewCapabilitySet("soduto.ping"),
	}
	r.SetCapabilityProvider(provider)

	assert.Equal(t, []Capability{"soduto.ping", "soduto.share"}, r.IncomingCapabilities().Sorted())
	assert.True(t, r.OutgoingCapabilities().Contains("soduto.ping"))

	incoming := r.IncomingCapabilities()
	delete(incoming, "soduto.ping")
	assert.True(t, provider.Incoming.Contains("soduto.ping"), "callers get a copy")

	r.SetCapabilityProvider(nil)
	assert.Empty(t, r.IncomingCapabilities())
}
