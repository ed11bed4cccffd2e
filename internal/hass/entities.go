package hass

import (
	"log/slog"

	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

// ForDevice builds the entity set for a polled device. Power restore
// only exists on switch-type devices; the three config selects only
// exist when the device reports a non-empty option list for them. The
// power switch and reboot button apply to every device.
func ForDevice(conn mqtt.Conn, log *slog.Logger, info Info, device fluxdev.Client, r Reloader) []Entity {
	var entities []Entity

	if device.DeviceType() == fluxdev.DeviceTypeSwitch {
		entities = append(entities, NewPowerRestoredSelect(conn, log, info, device))
	}
	if len(device.OperatingModes()) > 0 {
		entities = append(entities, NewOperatingModeSelect(conn, log, info, device, r))
	}
	if len(device.Wirings()) > 0 {
		entities = append(entities, NewWiringSelect(conn, log, info, device))
	}
	if len(device.ICTypes()) > 0 {
		entities = append(entities, NewICTypeSelect(conn, log, info, device))
	}

	entities = append(entities,
		NewPowerSwitch(conn, log, info, device),
		NewRebootButton(conn, log, info, device),
	)
	return entities
}
