package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxled/flux2mqtt/internal/events"
	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/metrics"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

const pollTimeout = 15 * time.Second

// Coordinator polls one device client on an interval. A successful
// poll broadcasts a state update; enough consecutive failures mark the
// device offline until a poll succeeds again.
type Coordinator struct {
	entryID      string
	label        string
	device       fluxdev.Client
	conn         mqtt.Conn
	bus          *events.Bus
	log          *slog.Logger
	interval     time.Duration
	offlineAfter int

	availabilityTopic string

	failures int
	online   bool
}

func NewCoordinator(entryID, label string, device fluxdev.Client, conn mqtt.Conn, bus *events.Bus, log *slog.Logger, interval time.Duration, offlineAfter int, availabilityTopic string) *Coordinator {
	return &Coordinator{
		entryID:           entryID,
		label:             label,
		device:            device,
		conn:              conn,
		bus:               bus,
		log:               log,
		interval:          interval,
		offlineAfter:      offlineAfter,
		availabilityTopic: availabilityTopic,
	}
}

// FirstRefresh polls once, synchronously, and marks the device online
// on success. Entry setup refuses to register entities for a device
// that has never answered, so entity state is never read before the
// client has polled successfully.
func (c *Coordinator) FirstRefresh(ctx context.Context) error {
	if err := c.poll(ctx); err != nil {
		return err
	}
	c.markOnline()
	return nil
}

// Run polls until ctx is done, then closes done.
func (c *Coordinator) Run(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.poll(ctx); err != nil {
				c.pollFailed(err)
				continue
			}
			c.pollSucceeded()
		}
	}
}

func (c *Coordinator) poll(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()
	err := c.device.Update(pctx)
	metrics.RecordPoll(c.label, err)
	return err
}

func (c *Coordinator) pollSucceeded() {
	c.failures = 0
	if !c.online {
		c.markOnline()
	}
	c.bus.Publish(events.StateUpdated{EntryID: c.entryID})
}

func (c *Coordinator) pollFailed(err error) {
	c.failures++
	c.log.Debug("poll failed", "device", c.label, "failures", c.failures, "error", err)
	if c.online && c.failures >= c.offlineAfter {
		c.log.Warn("device lost", "device", c.label, "failures", c.failures)
		c.markOffline()
	}
}

func (c *Coordinator) markOnline() {
	c.online = true
	if err := c.conn.Publish(c.availabilityTopic, 1, true, "online"); err != nil {
		c.log.Error("availability publish failed", "device", c.label, "error", err)
	}
	c.bus.Publish(events.AvailabilityChanged{EntryID: c.entryID, Online: true})
}

func (c *Coordinator) markOffline() {
	c.online = false
	if err := c.conn.Publish(c.availabilityTopic, 1, true, "offline"); err != nil {
		c.log.Error("availability publish failed", "device", c.label, "error", err)
	}
	c.bus.Publish(events.AvailabilityChanged{EntryID: c.entryID, Online: false})
}
