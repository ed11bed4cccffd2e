package hass

import (
	"context"
	"log/slog"
	"time"

	"github.com/fluxled/flux2mqtt/internal/metrics"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

// commandTimeout bounds a single device setter call made on behalf of
// a platform command.
const commandTimeout = 10 * time.Second

// Entity is one adapter registered with the platform.
type Entity interface {
	// ObjectID is the entity's topic-safe identifier.
	ObjectID() string

	// Setup publishes the discovery config and subscribes the command
	// topic.
	Setup() error

	// PublishState mirrors current device state to the state topic.
	// Entities whose state is unknown (not yet polled) publish nothing
	// and return nil.
	PublishState() error

	// Teardown unsubscribes and clears the retained discovery config.
	Teardown() error
}

// base carries what every entity needs: the broker connection, the
// owning entry's identity, and the entity's own naming.
type base struct {
	conn mqtt.Conn
	log  *slog.Logger
	info Info

	platform string // discovery platform: select, switch, button
	objectID string
	name     string // suffix appended to the device name
	icon     string
	category string
}

func (b *base) ObjectID() string { return b.objectID }

func (b *base) uniqueID() string {
	return b.info.UniqueID + "_" + b.objectID
}

func (b *base) friendlyName() string {
	return b.info.Name + " " + b.name
}

func (b *base) discoveryTopic() string {
	return b.info.DiscoveryPrefix + "/" + b.platform + "/" + b.info.NodeID + "/" + b.objectID + "/config"
}

func (b *base) stateTopic() string {
	return b.info.TopicBase + "/" + b.info.NodeID + "/" + b.objectID + "/state"
}

func (b *base) commandTopic() string {
	return b.info.TopicBase + "/" + b.info.NodeID + "/" + b.objectID + "/set"
}

// payload builds the common discovery fields; callers fill in the
// platform-specific ones.
func (b *base) payload() discoveryPayload {
	return discoveryPayload{
		Name:           b.friendlyName(),
		UniqueID:       b.uniqueID(),
		EntityCategory: b.category,
		Icon:           b.icon,
		Availability: []availabilityEntry{
			{Topic: BridgeAvailabilityTopic(b.info.TopicBase)},
			{Topic: b.info.AvailabilityTopic()},
		},
		AvailabilityMode: availabilityModeAll,
		Device:           b.info.device(),
	}
}

// announce publishes the retained discovery config and, when handler is
// non-nil, subscribes the command topic to it.
func (b *base) announce(p discoveryPayload, handler func(payload string)) error {
	raw, err := p.encode()
	if err != nil {
		return err
	}
	if err := b.conn.Publish(b.discoveryTopic(), 1, true, raw); err != nil {
		return err
	}
	if handler == nil {
		return nil
	}
	return b.conn.Subscribe(b.commandTopic(), 1, func(_, payload string) {
		handler(payload)
	})
}

// publishString puts value on the entity's state topic, retained.
func (b *base) publishString(value string) error {
	return b.conn.Publish(b.stateTopic(), 1, true, value)
}

// teardown unsubscribes the command topic and clears the retained
// discovery config so the platform forgets the entity.
func (b *base) teardown() error {
	if err := b.conn.Unsubscribe(b.commandTopic()); err != nil {
		return err
	}
	return b.conn.Publish(b.discoveryTopic(), 1, true, "")
}

// recordCommand counts the command against the entity and logs
// failures; the error itself propagates to the caller untouched.
func (b *base) recordCommand(err error) {
	metrics.RecordCommand(b.info.NodeID, b.objectID, err)
	if err != nil {
		b.log.Error("device command failed", "entity", b.objectID, "error", err)
	}
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}
