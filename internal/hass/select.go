package hass

import (
	"log/slog"
	"strings"

	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

// Reloader requests re-initialization of a config entry. The bridge
// implements it; the operating mode select is its only caller here,
// because a mode change requires the device connection to be rebuilt.
type Reloader interface {
	RequestReload(entryID string)
}

// HumanReadableOption turns an enumeration constant into the label the
// platform shows: "NEVER_ON" becomes "Never On". The transform is total
// and reversible over the power restore enumeration; the selects keep
// the reverse map.
func HumanReadableOption(constOption string) string {
	words := strings.Split(constOption, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// PowerRestoredSelect exposes the channel 1 power restore behavior of
// switch-type devices. Options come from the fixed enumeration, shown
// through the human-readable transform.
type PowerRestoredSelect struct {
	base
	device      fluxdev.Client
	options     []string
	nameToState map[string]fluxdev.PowerRestoreState
}

// NewPowerRestoredSelect builds the power restore select for device.
func NewPowerRestoredSelect(conn mqtt.Conn, log *slog.Logger, info Info, device fluxdev.Client) *PowerRestoredSelect {
	s := &PowerRestoredSelect{
		base: base{
			conn:     conn,
			log:      log,
			info:     info,
			platform: "select",
			objectID: "power-restored",
			name:     "Power Restored",
			icon:     "mdi:transmission-tower-off",
			category: CategoryConfig,
		},
		device:      device,
		nameToState: make(map[string]fluxdev.PowerRestoreState),
	}
	for _, state := range fluxdev.PowerRestoreStateValues() {
		label := HumanReadableOption(string(state))
		s.options = append(s.options, label)
		s.nameToState[label] = state
	}
	return s
}

func (s *PowerRestoredSelect) Setup() error {
	p := s.payload()
	p.StateTopic = s.stateTopic()
	p.CommandTopic = s.commandTopic()
	p.Options = s.options
	return s.announce(p, s.handleCommand)
}

// CurrentOption returns the label for the device-reported channel 1
// restore state.
func (s *PowerRestoredSelect) CurrentOption() (string, error) {
	states := s.device.PowerRestoreStates()
	if states == nil || states.Channel1 == nil {
		return "", fluxdev.ErrNotPolled
	}
	return HumanReadableOption(string(*states.Channel1)), nil
}

func (s *PowerRestoredSelect) PublishState() error {
	option, err := s.CurrentOption()
	if err != nil {
		s.log.Debug("power restore state not yet known", "entity", s.objectID)
		return nil
	}
	return s.publishString(option)
}

func (s *PowerRestoredSelect) handleCommand(option string) {
	state, ok := s.nameToState[option]
	if !ok {
		s.log.Warn("unknown option", "entity", s.objectID, "option", option)
		return
	}
	ctx, cancel := commandContext()
	defer cancel()
	err := s.device.SetPowerRestore(ctx, fluxdev.PowerRestoreChange{Channel1: &state})
	s.recordCommand(err)
	if err != nil {
		return
	}
	// Mirror the device-reported state back out, not the request.
	if err := s.PublishState(); err != nil {
		s.log.Error("state publish failed", "entity", s.objectID, "error", err)
	}
}

func (s *PowerRestoredSelect) Teardown() error { return s.teardown() }

// ConfigSelect exposes one device-reported option list (operating
// mode, wiring or IC type). Both the list and the current value are
// owned and validated by the device client; selecting an option issues
// exactly one SetDeviceConfig call.
type ConfigSelect struct {
	base
	device  fluxdev.Client
	options func() []string
	current func() string
	apply   func(option string) fluxdev.DeviceConfig

	// reload, when set, is asked to reload the owning entry after a
	// successful change.
	reload Reloader
}

// NewOperatingModeSelect builds the operating mode select. A mode
// change reinitializes the device, so a successful selection requests
// a reload of the owning entry through r.
func NewOperatingModeSelect(conn mqtt.Conn, log *slog.Logger, info Info, device fluxdev.Client, r Reloader) *ConfigSelect {
	return &ConfigSelect{
		base: base{
			conn:     conn,
			log:      log,
			info:     info,
			platform: "select",
			objectID: "operating-mode",
			name:     "Operating Mode",
			category: CategoryConfig,
		},
		device:  device,
		options: device.OperatingModes,
		current: device.OperatingMode,
		apply: func(option string) fluxdev.DeviceConfig {
			return fluxdev.DeviceConfig{OperatingMode: option}
		},
		reload: r,
	}
}

// NewWiringSelect builds the wiring layout select.
func NewWiringSelect(conn mqtt.Conn, log *slog.Logger, info Info, device fluxdev.Client) *ConfigSelect {
	return &ConfigSelect{
		base: base{
			conn:     conn,
			log:      log,
			info:     info,
			platform: "select",
			objectID: "wiring",
			name:     "Wiring",
			icon:     "mdi:led-strip-variant",
			category: CategoryConfig,
		},
		device:  device,
		options: device.Wirings,
		current: device.Wiring,
		apply: func(option string) fluxdev.DeviceConfig {
			return fluxdev.DeviceConfig{Wiring: option}
		},
	}
}

// NewICTypeSelect builds the IC chip type select.
func NewICTypeSelect(conn mqtt.Conn, log *slog.Logger, info Info, device fluxdev.Client) *ConfigSelect {
	return &ConfigSelect{
		base: base{
			conn:     conn,
			log:      log,
			info:     info,
			platform: "select",
			objectID: "ic-type",
			name:     "IC Type",
			icon:     "mdi:chip",
			category: CategoryConfig,
		},
		device:  device,
		options: device.ICTypes,
		current: device.ICType,
		apply: func(option string) fluxdev.DeviceConfig {
			return fluxdev.DeviceConfig{ICType: option}
		},
	}
}

func (s *ConfigSelect) Setup() error {
	p := s.payload()
	p.StateTopic = s.stateTopic()
	p.CommandTopic = s.commandTopic()
	p.Options = s.options()
	return s.announce(p, s.handleCommand)
}

func (s *ConfigSelect) PublishState() error {
	option := s.current()
	if option == "" {
		s.log.Debug("current option not yet known", "entity", s.objectID)
		return nil
	}
	return s.publishString(option)
}

func (s *ConfigSelect) handleCommand(option string) {
	ctx, cancel := commandContext()
	defer cancel()
	err := s.device.SetDeviceConfig(ctx, s.apply(option))
	s.recordCommand(err)
	if err != nil {
		return
	}
	if s.reload != nil {
		// The device reinitializes; rebuild the entry instead of
		// publishing possibly stale state.
		s.reload.RequestReload(s.info.EntryID)
		return
	}
	if err := s.PublishState(); err != nil {
		s.log.Error("state publish failed", "entity", s.objectID, "error", err)
	}
}

func (s *ConfigSelect) Teardown() error { return s.teardown() }
