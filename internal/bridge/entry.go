package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fluxled/flux2mqtt/internal/config"
	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/hass"
)

// entry binds one configured device to a client, a coordinator and the
// entities announced for it. Every setup mints a fresh id, so a reload
// produces a new entry.
type entry struct {
	id       string
	dev      config.Device
	nodeID   string
	log      *slog.Logger
	client   fluxdev.Client
	entities []hass.Entity
	cancel   context.CancelFunc
	done     chan struct{}
}

func (b *Bridge) setupEntry(ctx context.Context, dev config.Device) (*entry, error) {
	nodeID, err := hass.SanitizeID(dev.ID)
	if err != nil {
		return nil, fmt.Errorf("device %q: %w", dev.ID, err)
	}

	client, err := b.factory(dev.Host)
	if err != nil {
		return nil, fmt.Errorf("device %q: %w", dev.ID, err)
	}

	e := &entry{
		id:     uuid.NewString(),
		dev:    dev,
		nodeID: nodeID,
		log:    b.log,
		client: client,
		done:   make(chan struct{}),
	}

	info := hass.Info{
		EntryID:         e.id,
		NodeID:          nodeID,
		Name:            dev.Name,
		UniqueID:        dev.ID,
		Model:           client.Model(),
		DiscoveryPrefix: b.cfg.Bridge.DiscoveryPrefix,
		TopicBase:       b.cfg.Bridge.TopicBase,
		Version:         b.version,
	}

	coord := NewCoordinator(e.id, nodeID, client, b.conn, b.bus, b.log,
		time.Duration(b.cfg.Bridge.PollSeconds)*time.Second,
		b.cfg.Bridge.OfflineAfter, info.AvailabilityTopic())

	if err := coord.FirstRefresh(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("device %q: first refresh: %w", dev.ID, err)
	}

	e.entities = hass.ForDevice(b.conn, b.log, info, client, b)
	for _, ent := range e.entities {
		if err := ent.Setup(); err != nil {
			e.close(true)
			return nil, fmt.Errorf("device %q: entity %s: %w", dev.ID, ent.ObjectID(), err)
		}
	}
	for _, ent := range e.entities {
		if err := ent.PublishState(); err != nil {
			b.log.Warn("initial state publish failed",
				"device", nodeID, "entity", ent.ObjectID(), "error", err)
		}
	}

	rctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	go coord.Run(rctx, e.done)

	b.log.Info("device ready", "device", nodeID, "model", client.Model(), "entities", len(e.entities))
	return e, nil
}

// close stops the coordinator and releases the client. With remove set
// the entities are torn down too: command subscriptions dropped and
// retained discovery configs cleared, so the device drops out of Home
// Assistant until something announces it again. A plain shutdown
// leaves discovery in place.
func (e *entry) close(remove bool) {
	if e.cancel != nil {
		e.cancel()
		<-e.done
	}
	if remove {
		for i := len(e.entities) - 1; i >= 0; i-- {
			ent := e.entities[i]
			if err := ent.Teardown(); err != nil {
				e.log.Warn("entity teardown failed",
					"device", e.nodeID, "entity", ent.ObjectID(), "error", err)
			}
		}
	}
	e.client.Close()
}
