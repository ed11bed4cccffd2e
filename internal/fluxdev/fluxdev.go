// Package fluxdev defines the contract this bridge consumes from a
// Magic-Home-style ("flux") LED controller client library.
//
// The bridge never speaks the device wire protocol itself. Discovery,
// framing, connection lifecycle and retry behavior all belong to the
// client implementation; this package only pins down the state a client
// must report and the setters the bridge is allowed to call. The lists
// of valid wirings, operating modes and IC types are owned and
// validated by the client, not by this package.
package fluxdev

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("fluxdev: client closed")

	// ErrNotPolled is returned when state is read before the first
	// successful Update.
	ErrNotPolled = errors.New("fluxdev: device state not yet polled")
)

// DeviceType classifies what kind of flux controller a client is
// connected to. Some entities only apply to some types.
type DeviceType int

const (
	DeviceTypeBulb DeviceType = iota
	DeviceTypeSwitch
	DeviceTypeAddressable
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeBulb:
		return "bulb"
	case DeviceTypeSwitch:
		return "switch"
	case DeviceTypeAddressable:
		return "addressable"
	default:
		return "unknown"
	}
}

// Client is a connected flux device as implemented by an external
// client library. All state getters return the cached result of the
// last Update; setters issue exactly one device call each. Slices
// returned by getters must not be mutated by callers.
type Client interface {
	// Model returns the device model name, e.g. "AK001-ZJ2149".
	Model() string

	// DeviceType reports what kind of controller this is.
	DeviceType() DeviceType

	// PowerRestoreStates returns the per-channel power restore states,
	// or nil before the first successful Update.
	PowerRestoreStates() *PowerRestoreStates

	// OperatingModes lists the modes the device reports as valid.
	// Empty for devices without configurable modes.
	OperatingModes() []string

	// OperatingMode returns the current operating mode, or "" when
	// unknown.
	OperatingMode() string

	// Wirings lists the wiring layouts valid for the strip protocol.
	Wirings() []string

	// Wiring returns the current wiring layout, or "" when unknown.
	Wiring() string

	// ICTypes lists the IC chip types the device reports as valid.
	ICTypes() []string

	// ICType returns the current IC chip type, or "" when unknown.
	ICType() string

	// IsOn reports the current power state.
	IsOn() bool

	// Update refreshes the cached device state.
	Update(ctx context.Context) error

	// SetPowerRestore changes the power restore behavior for the
	// channels set in change, leaving the others untouched.
	SetPowerRestore(ctx context.Context, change PowerRestoreChange) error

	// SetDeviceConfig changes operating mode, wiring and/or IC type.
	// Zero-valued fields are left untouched. Changing the operating
	// mode requires the device to reinitialize; callers are expected
	// to reconnect afterwards.
	SetDeviceConfig(ctx context.Context, cfg DeviceConfig) error

	// SetPower turns the device on or off.
	SetPower(ctx context.Context, on bool) error

	// Reboot power-cycles the device controller.
	Reboot(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// DeviceConfig describes a device configuration change. Empty fields
// mean "leave unchanged".
type DeviceConfig struct {
	OperatingMode string
	Wiring        string
	ICType        string
}

// PowerRestoreChange describes a power restore change. Nil channels
// mean "leave unchanged".
type PowerRestoreChange struct {
	Channel1 *PowerRestoreState
	Channel2 *PowerRestoreState
	Channel3 *PowerRestoreState
	Channel4 *PowerRestoreState
}
