package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxled/flux2mqtt/internal/events"
	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

func testCoordinator(device fluxdev.Client, bus *events.Bus, conn *mqtt.Fake) *Coordinator {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewCoordinator("entry-1", "strip", device, conn, bus, log,
		time.Second, 2, "flux2mqtt/strip/availability")
}

func TestCoordinatorFirstRefresh(t *testing.T) {
	conn := mqtt.NewFake()
	device := fluxdev.NewFakeStrip()
	c := testCoordinator(device, events.New(), conn)

	require.NoError(t, c.FirstRefresh(context.Background()))
	assert.Equal(t, 1, device.UpdateCalls)

	avail, ok := conn.Retained("flux2mqtt/strip/availability")
	require.True(t, ok)
	assert.Equal(t, "online", avail)
}

func TestCoordinatorFirstRefreshFailure(t *testing.T) {
	conn := mqtt.NewFake()
	device := fluxdev.NewFakeStrip()
	device.UpdateErr = errors.New("timeout")
	c := testCoordinator(device, events.New(), conn)

	require.Error(t, c.FirstRefresh(context.Background()))
	_, ok := conn.Retained("flux2mqtt/strip/availability")
	assert.False(t, ok)
}

func TestCoordinatorOfflineAfterConsecutiveFailures(t *testing.T) {
	conn := mqtt.NewFake()
	c := testCoordinator(fluxdev.NewFakeStrip(), events.New(), conn)
	require.NoError(t, c.FirstRefresh(context.Background()))

	err := errors.New("timeout")
	c.pollFailed(err)
	avail, _ := conn.Retained("flux2mqtt/strip/availability")
	assert.Equal(t, "online", avail, "one failure must not mark offline")

	c.pollFailed(err)
	avail, _ = conn.Retained("flux2mqtt/strip/availability")
	assert.Equal(t, "offline", avail)

	// A single success brings it straight back.
	c.pollSucceeded()
	avail, _ = conn.Retained("flux2mqtt/strip/availability")
	assert.Equal(t, "online", avail)
	assert.Zero(t, c.failures)
}

func TestCoordinatorPublishesStateEvents(t *testing.T) {
	conn := mqtt.NewFake()
	bus := events.New()
	got := make(chan events.StateUpdated, 4)
	defer bus.Subscribe(func(e events.StateUpdated) { got <- e })()

	c := testCoordinator(fluxdev.NewFakeStrip(), bus, conn)
	require.NoError(t, c.FirstRefresh(context.Background()))
	c.pollSucceeded()

	select {
	case e := <-got:
		assert.Equal(t, "entry-1", e.EntryID)
	case <-time.After(2 * time.Second):
		t.Fatal("no state event")
	}
}
