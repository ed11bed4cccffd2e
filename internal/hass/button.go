package hass

import (
	"log/slog"

	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

// payloadPress is the platform's default button press payload.
const payloadPress = "PRESS"

// RebootButton power-cycles the device controller on press.
type RebootButton struct {
	base
	device fluxdev.Client
}

func NewRebootButton(conn mqtt.Conn, log *slog.Logger, info Info, device fluxdev.Client) *RebootButton {
	return &RebootButton{
		base: base{
			conn:     conn,
			log:      log,
			info:     info,
			platform: "button",
			objectID: "reboot",
			name:     "Reboot",
			icon:     "mdi:restart",
			category: CategoryConfig,
		},
		device: device,
	}
}

func (b *RebootButton) Setup() error {
	p := b.payload()
	p.CommandTopic = b.commandTopic()
	return b.announce(p, b.handleCommand)
}

// PublishState is a no-op; buttons are stateless.
func (b *RebootButton) PublishState() error { return nil }

func (b *RebootButton) handleCommand(payload string) {
	if payload != payloadPress {
		b.log.Warn("unknown command", "entity", b.objectID, "payload", payload)
		return
	}
	ctx, cancel := commandContext()
	defer cancel()
	b.recordCommand(b.device.Reboot(ctx))
}

func (b *RebootButton) Teardown() error { return b.teardown() }
