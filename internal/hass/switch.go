package hass

import (
	"log/slog"

	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

const (
	payloadOn  = "ON"
	payloadOff = "OFF"
)

// namesForOnOff maps the command spellings we accept to a power state.
var namesForOnOff = map[string]bool{
	payloadOn:  true,
	"on":       true,
	"1":        true,
	"true":     true,
	payloadOff: false,
	"off":      false,
	"0":        false,
	"false":    false,
}

// PowerSwitch turns the device on and off.
type PowerSwitch struct {
	base
	device fluxdev.Client
}

func NewPowerSwitch(conn mqtt.Conn, log *slog.Logger, info Info, device fluxdev.Client) *PowerSwitch {
	return &PowerSwitch{
		base: base{
			conn:     conn,
			log:      log,
			info:     info,
			platform: "switch",
			objectID: "power",
			name:     "Power",
		},
		device: device,
	}
}

func (s *PowerSwitch) Setup() error {
	p := s.payload()
	p.StateTopic = s.stateTopic()
	p.CommandTopic = s.commandTopic()
	return s.announce(p, s.handleCommand)
}

func (s *PowerSwitch) PublishState() error {
	if s.device.IsOn() {
		return s.publishString(payloadOn)
	}
	return s.publishString(payloadOff)
}

func (s *PowerSwitch) handleCommand(payload string) {
	on, ok := namesForOnOff[payload]
	if !ok {
		s.log.Warn("unknown command", "entity", s.objectID, "payload", payload)
		return
	}
	ctx, cancel := commandContext()
	defer cancel()
	err := s.device.SetPower(ctx, on)
	s.recordCommand(err)
	if err != nil {
		return
	}
	if err := s.PublishState(); err != nil {
		s.log.Error("state publish failed", "entity", s.objectID, "error", err)
	}
}

func (s *PowerSwitch) Teardown() error { return s.teardown() }
