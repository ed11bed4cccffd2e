package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxled/flux2mqtt/internal/config"
	"github.com/fluxled/flux2mqtt/internal/events"
	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

func testConfig(devices ...config.Device) config.Config {
	return config.Config{
		Bridge: config.Bridge{
			DiscoveryPrefix: "homeassistant",
			TopicBase:       "flux2mqtt",
			PollSeconds:     1,
			OfflineAfter:    3,
		},
		Devices: devices,
	}
}

func stripDevice() config.Device {
	return config.Device{ID: "office-strip", Name: "Office Strip", Host: "192.0.2.10"}
}

// fixedFactory hands out pre-built fakes by host and records calls.
type fixedFactory struct {
	mu      sync.Mutex
	clients map[string]func() *fluxdev.Fake
	made    []*fluxdev.Fake
	err     error
}

func newFixedFactory() *fixedFactory {
	return &fixedFactory{clients: make(map[string]func() *fluxdev.Fake)}
}

func (f *fixedFactory) new(host string) (fluxdev.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	build, ok := f.clients[host]
	if !ok {
		build = fluxdev.NewFakeStrip
	}
	c := build()
	f.made = append(f.made, c)
	return c, nil
}

func (f *fixedFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.made)
}

func (f *fixedFactory) last() *fluxdev.Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.made[len(f.made)-1]
}

func newTestBridge(t *testing.T, cfg config.Config) (*Bridge, *mqtt.Fake, *fixedFactory) {
	t.Helper()
	conn := mqtt.NewFake()
	factory := newFixedFactory()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := New(conn, events.New(), factory.new, cfg, log, "test")
	return b, conn, factory
}

func TestSetupEntryAnnouncesDevice(t *testing.T) {
	b, conn, factory := newTestBridge(t, testConfig(stripDevice()))

	b.startEntry(context.Background(), stripDevice())
	require.Len(t, b.entries, 1)
	require.Equal(t, 1, factory.count())

	// First refresh happened before anything was announced.
	e := b.entries["office-strip"]
	assert.Equal(t, "office-strip", e.nodeID)

	// Discovery configs retained for each entity the strip reports.
	for _, object := range []string{"operating-mode", "wiring", "ic-type"} {
		p, ok := conn.Retained("homeassistant/select/office-strip/" + object + "/config")
		require.True(t, ok, "missing discovery config for %s", object)
		assert.NotEmpty(t, p)
	}
	_, ok := conn.Retained("homeassistant/switch/office-strip/power/config")
	assert.True(t, ok)
	_, ok = conn.Retained("homeassistant/button/office-strip/reboot/config")
	assert.True(t, ok)

	// A strip has no power restore select.
	_, ok = conn.Retained("homeassistant/select/office-strip/power-restored/config")
	assert.False(t, ok)

	avail, ok := conn.Retained("flux2mqtt/office-strip/availability")
	require.True(t, ok)
	assert.Equal(t, "online", avail)

	state, ok := conn.Retained("flux2mqtt/office-strip/wiring/state")
	require.True(t, ok)
	assert.Equal(t, "BGR", state)
	b.shutdown()
}

func TestSetupEntryFailedFirstRefresh(t *testing.T) {
	b, conn, factory := newTestBridge(t, testConfig(stripDevice()))
	factory.clients["192.0.2.10"] = func() *fluxdev.Fake {
		f := fluxdev.NewFakeStrip()
		f.UpdateErr = errors.New("connection refused")
		return f
	}

	b.startEntry(context.Background(), stripDevice())
	assert.Empty(t, b.entries)
	assert.Contains(t, b.pending, "office-strip")
	assert.True(t, factory.last().Closed())

	// Nothing announced for a device that never answered.
	_, ok := conn.Retained("homeassistant/select/office-strip/wiring/config")
	assert.False(t, ok)

	// Once the device answers, the retry pass brings it up.
	delete(factory.clients, "192.0.2.10")
	b.retryPending(context.Background())
	assert.Len(t, b.entries, 1)
	assert.Empty(t, b.pending)
	b.shutdown()
}

func TestCommandReachesDevice(t *testing.T) {
	b, conn, factory := newTestBridge(t, testConfig(stripDevice()))
	b.startEntry(context.Background(), stripDevice())

	conn.Deliver("flux2mqtt/office-strip/wiring/set", "GRB")

	client := factory.last()
	b.shutdown()
	require.Len(t, client.ConfigCalls, 1)
	assert.Equal(t, fluxdev.DeviceConfig{Wiring: "GRB"}, client.ConfigCalls[0])
}

func TestOperatingModeCommandQueuesReload(t *testing.T) {
	b, conn, _ := newTestBridge(t, testConfig(stripDevice()))
	b.startEntry(context.Background(), stripDevice())
	entryID := b.entries["office-strip"].id

	conn.Deliver("flux2mqtt/office-strip/operating-mode/set", "RGB/W")

	select {
	case id := <-b.reloads:
		assert.Equal(t, entryID, id)
	default:
		t.Fatal("no reload queued")
	}
	// Exactly one request.
	assert.Empty(t, b.reloads)
	b.shutdown()
}

func TestReloadEntryReplacesClient(t *testing.T) {
	b, _, factory := newTestBridge(t, testConfig(stripDevice()))
	b.startEntry(context.Background(), stripDevice())
	old := b.entries["office-strip"]

	b.reloadEntry(context.Background(), old.id)

	require.Len(t, b.entries, 1)
	fresh := b.entries["office-strip"]
	assert.NotEqual(t, old.id, fresh.id)
	assert.Equal(t, 2, factory.count())
	assert.True(t, factory.made[0].Closed())
	b.shutdown()
}

func TestReloadUnknownEntryIsIgnored(t *testing.T) {
	b, _, factory := newTestBridge(t, testConfig(stripDevice()))
	b.startEntry(context.Background(), stripDevice())

	b.reloadEntry(context.Background(), "not-an-entry")

	assert.Equal(t, 1, factory.count())
	b.shutdown()
}

func TestApplyDevicesRemovesAndAdds(t *testing.T) {
	b, conn, factory := newTestBridge(t, testConfig(stripDevice()))
	b.startEntry(context.Background(), stripDevice())

	next := testConfig(config.Device{ID: "hall-switch", Name: "Hall Switch", Host: "192.0.2.20"})
	factory.clients["192.0.2.20"] = fluxdev.NewFakeSwitch
	b.applyDevices(context.Background(), next)

	require.Len(t, b.entries, 1)
	assert.Contains(t, b.entries, "hall-switch")
	assert.True(t, factory.made[0].Closed())

	// Removed device's discovery configs cleared, availability offline.
	p, ok := conn.Retained("homeassistant/select/office-strip/wiring/config")
	assert.True(t, ok)
	assert.Empty(t, p)
	avail, _ := conn.Retained("flux2mqtt/office-strip/availability")
	assert.Equal(t, "offline", avail)

	// The switch gets its power restore select.
	_, ok = conn.Retained("homeassistant/select/hall-switch/power-restored/config")
	assert.True(t, ok)
	b.shutdown()
}

func TestApplyDevicesRemovalSurvivesTeardownFailure(t *testing.T) {
	b, conn, factory := newTestBridge(t, testConfig(stripDevice()))
	b.startEntry(context.Background(), stripDevice())

	conn.UnsubscribeErr = errors.New("broker gone")
	b.applyDevices(context.Background(), testConfig())

	// The entry goes away and its client is released even when the
	// broker rejects the unsubscribes.
	assert.Empty(t, b.entries)
	assert.True(t, factory.made[0].Closed())
	avail, _ := conn.Retained("flux2mqtt/office-strip/availability")
	assert.Equal(t, "offline", avail)
}

func TestApplyDevicesKeepsUnchanged(t *testing.T) {
	b, _, factory := newTestBridge(t, testConfig(stripDevice()))
	b.startEntry(context.Background(), stripDevice())
	old := b.entries["office-strip"]

	b.applyDevices(context.Background(), testConfig(stripDevice()))

	assert.Same(t, old, b.entries["office-strip"])
	assert.Equal(t, 1, factory.count())
	b.shutdown()
}

func TestRunServesReloads(t *testing.T) {
	b, conn, factory := newTestBridge(t, testConfig(stripDevice()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		b.Run(ctx)
	}()

	// The power state is the last thing setup publishes, so once it is
	// retained every command subscription is live.
	require.Eventually(t, func() bool {
		_, ok := conn.Retained("flux2mqtt/office-strip/power/state")
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	conn.Deliver("flux2mqtt/office-strip/operating-mode/set", "RGB&W")

	require.Eventually(t, func() bool { return factory.count() == 2 },
		2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}

	assert.True(t, factory.made[0].Closed())
	assert.True(t, factory.made[1].Closed())
	avail, _ := conn.Retained("flux2mqtt/bridge/availability")
	assert.Equal(t, "offline", avail)
}
