package bridge

import (
	"context"

	"github.com/fluxled/flux2mqtt/internal/config"
	"github.com/fluxled/flux2mqtt/internal/events"
	"github.com/fluxled/flux2mqtt/internal/hass"
	"github.com/fluxled/flux2mqtt/internal/metrics"
)

func (b *Bridge) startEntry(ctx context.Context, dev config.Device) {
	e, err := b.setupEntry(ctx, dev)
	if err != nil {
		b.log.Warn("device setup failed, will retry", "device", dev.ID, "error", err)
		b.pending[dev.ID] = dev
		return
	}
	delete(b.pending, dev.ID)
	b.entries[dev.ID] = e
}

func (b *Bridge) reloadEntry(ctx context.Context, entryID string) {
	devID, e := b.findByEntryID(entryID)
	if e == nil {
		// Entry already gone; a reload raced a removal or an earlier
		// reload. Nothing to do.
		b.log.Debug("reload for unknown entry", "entry", entryID)
		return
	}
	b.log.Info("reloading device", "device", e.nodeID)
	metrics.RecordReload(e.nodeID)
	e.close(true)
	delete(b.entries, devID)
	b.startEntry(ctx, e.dev)
}

func (b *Bridge) retryPending(ctx context.Context) {
	for _, dev := range b.pending {
		b.startEntry(ctx, dev)
	}
}

// applyDevices reconciles the running entries with a new device list:
// removed devices are torn down, new ones set up, and changed ones
// recreated. Untouched devices keep running.
func (b *Bridge) applyDevices(ctx context.Context, cfg config.Config) {
	want := make(map[string]config.Device, len(cfg.Devices))
	for _, dev := range cfg.Devices {
		want[dev.ID] = dev
	}

	for id, e := range b.entries {
		dev, keep := want[id]
		if keep && dev == e.dev {
			continue
		}
		e.close(true)
		b.publishEntryAvailability(e, "offline")
		metrics.Forget(e.nodeID)
		delete(b.entries, id)
		if !keep {
			b.log.Info("device removed", "device", e.nodeID)
		}
	}
	for id := range b.pending {
		if _, keep := want[id]; !keep {
			delete(b.pending, id)
		}
	}

	b.cfg = cfg
	for _, dev := range cfg.Devices {
		if _, running := b.entries[dev.ID]; !running {
			b.startEntry(ctx, dev)
		}
	}
}

func (b *Bridge) shutdown() {
	for id, e := range b.entries {
		e.close(false)
		b.publishEntryAvailability(e, "offline")
		delete(b.entries, id)
	}
	b.conn.Publish(hass.BridgeAvailabilityTopic(b.cfg.Bridge.TopicBase), 1, true, "offline")
}

func (b *Bridge) publishEntryState(entryID string) {
	_, e := b.findByEntryID(entryID)
	if e == nil {
		return
	}
	for _, ent := range e.entities {
		if err := ent.PublishState(); err != nil {
			b.log.Warn("state publish failed", "device", e.nodeID, "entity", ent.ObjectID(), "error", err)
		}
	}
}

func (b *Bridge) recordAvailability(av events.AvailabilityChanged) {
	_, e := b.findByEntryID(av.EntryID)
	if e == nil {
		return
	}
	metrics.SetOnline(e.nodeID, av.Online)
}

func (b *Bridge) publishEntryAvailability(e *entry, payload string) {
	info := hass.Info{NodeID: e.nodeID, TopicBase: b.cfg.Bridge.TopicBase}
	if err := b.conn.Publish(info.AvailabilityTopic(), 1, true, payload); err != nil {
		b.log.Error("availability publish failed", "device", e.nodeID, "error", err)
	}
}

func (b *Bridge) findByEntryID(entryID string) (string, *entry) {
	for devID, e := range b.entries {
		if e.id == entryID {
			return devID, e
		}
	}
	return "", nil
}
