package bridge

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxled/flux2mqtt/internal/config"
	"github.com/fluxled/flux2mqtt/internal/events"
	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/hass"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

const retryInterval = time.Minute

// ClientFactory opens a device client for a host. The production
// binary wires in the real flux client; tests substitute fakes.
type ClientFactory func(host string) (fluxdev.Client, error)

// Bridge owns the config entries: one per configured device, each with
// its own client, coordinator and entity set. All entry mutation
// happens on the Run goroutine; other goroutines talk to it through
// channels.
type Bridge struct {
	conn    mqtt.Conn
	bus     *events.Bus
	factory ClientFactory
	log     *slog.Logger
	version string

	cfg config.Config

	entries map[string]*entry // keyed by device config id
	pending map[string]config.Device

	reloads chan string
	cfgCh   chan config.Config
	stateCh chan string
	availCh chan events.AvailabilityChanged
}

func New(conn mqtt.Conn, bus *events.Bus, factory ClientFactory, cfg config.Config, log *slog.Logger, version string) *Bridge {
	return &Bridge{
		conn:    conn,
		bus:     bus,
		factory: factory,
		log:     log,
		version: version,
		cfg:     cfg,
		entries: make(map[string]*entry),
		pending: make(map[string]config.Device),
		reloads: make(chan string, 16),
		cfgCh:   make(chan config.Config, 1),
		stateCh: make(chan string, 64),
		availCh: make(chan events.AvailabilityChanged, 16),
	}
}

var _ hass.Reloader = (*Bridge)(nil)

// RequestReload schedules an asynchronous teardown and re-setup of the
// entry. Safe to call from entity command handlers; requests for an
// entry already queued are coalesced by the channel buffer.
func (b *Bridge) RequestReload(entryID string) {
	select {
	case b.reloads <- entryID:
	default:
		b.log.Warn("reload queue full, dropping request", "entry", entryID)
	}
}

// ApplyConfig hands a freshly loaded configuration to the Run loop.
// Only the device list is applied live; broker and logging changes
// need a restart.
func (b *Bridge) ApplyConfig(cfg config.Config) {
	select {
	case b.cfgCh <- cfg:
	default:
		// Run loop still chewing on the previous one; the watcher
		// will call again on the next change.
	}
}

// Run sets up every configured device and serves reload and config
// events until ctx is done.
func (b *Bridge) Run(ctx context.Context) error {
	if err := b.conn.Publish(hass.BridgeAvailabilityTopic(b.cfg.Bridge.TopicBase), 1, true, "online"); err != nil {
		return err
	}

	// Bus callbacks run on the dispatcher goroutine; hand them to the
	// Run goroutine so the entries map has a single writer and reader.
	unsubState := b.bus.Subscribe(func(e events.StateUpdated) {
		select {
		case b.stateCh <- e.EntryID:
		default:
		}
	})
	defer unsubState()
	unsubAvail := b.bus.Subscribe(func(e events.AvailabilityChanged) {
		select {
		case b.availCh <- e:
		default:
		}
	})
	defer unsubAvail()

	for _, dev := range b.cfg.Devices {
		b.startEntry(ctx, dev)
	}

	retry := time.NewTicker(retryInterval)
	defer retry.Stop()

	for {
		select {
		case <-ctx.Done():
			b.shutdown()
			return nil
		case id := <-b.reloads:
			b.reloadEntry(ctx, id)
		case cfg := <-b.cfgCh:
			b.applyDevices(ctx, cfg)
		case id := <-b.stateCh:
			b.publishEntryState(id)
		case av := <-b.availCh:
			b.recordAvailability(av)
		case <-retry.C:
			b.retryPending(ctx)
		}
	}
}
