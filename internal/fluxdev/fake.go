package fluxdev

import (
	"context"
	"sync"
)

// Interface guard
var _ Client = (*Fake)(nil)

// Fake is an in-memory Client for tests. Setters apply their change to
// the fake's state, so a successful call is immediately visible through
// the getters, the way a real client refreshes its cache from the
// device acknowledgment. Every setter call is recorded.
type Fake struct {
	mu sync.Mutex

	ModelName     string
	Type          DeviceType
	Restore       *PowerRestoreStates
	Modes         []string
	Mode          string
	WiringChoices []string
	CurrentWiring string
	ICChoices     []string
	CurrentIC     string
	On            bool

	// UpdateErr and SetErr, when non-nil, are returned by Update and
	// by every setter respectively.
	UpdateErr error
	SetErr    error

	closed bool

	UpdateCalls       int
	RebootCalls       int
	PowerCalls        []bool
	PowerRestoreCalls []PowerRestoreChange
	ConfigCalls       []DeviceConfig
}

// NewFakeStrip returns a fake addressable strip controller with the
// option lists a typical SPI model reports.
func NewFakeStrip() *Fake {
	return &Fake{
		ModelName:     "AK001-ZJ2149",
		Type:          DeviceTypeAddressable,
		Modes:         []string{"RGB", "RGB&W", "RGB/W"},
		Mode:          "RGB",
		WiringChoices: []string{"RGB", "RBG", "GRB", "GBR", "BRG", "BGR"},
		CurrentWiring: "BGR",
		ICChoices:     []string{"WS2812B", "SM16703", "UCS1903", "WS2811"},
		CurrentIC:     "WS2812B",
	}
}

// NewFakeSwitch returns a fake smart switch with channel 1 power
// restore state populated.
func NewFakeSwitch() *Fake {
	s := PowerRestoreLastState
	return &Fake{
		ModelName: "SSL-SWP06",
		Type:      DeviceTypeSwitch,
		Restore:   &PowerRestoreStates{Channel1: &s},
		On:        true,
	}
}

func (f *Fake) Model() string { return f.ModelName }

func (f *Fake) DeviceType() DeviceType { return f.Type }

func (f *Fake) PowerRestoreStates() *PowerRestoreStates {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Restore
}

func (f *Fake) OperatingModes() []string { return f.Modes }

func (f *Fake) OperatingMode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Mode
}

func (f *Fake) Wirings() []string { return f.WiringChoices }

func (f *Fake) Wiring() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CurrentWiring
}

func (f *Fake) ICTypes() []string { return f.ICChoices }

func (f *Fake) ICType() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.CurrentIC
}

func (f *Fake) IsOn() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.On
}

func (f *Fake) Update(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.UpdateCalls++
	return f.UpdateErr
}

func (f *Fake) SetPowerRestore(ctx context.Context, change PowerRestoreChange) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.PowerRestoreCalls = append(f.PowerRestoreCalls, change)
	if f.SetErr != nil {
		return f.SetErr
	}
	if f.Restore == nil {
		f.Restore = &PowerRestoreStates{}
	}
	if change.Channel1 != nil {
		v := *change.Channel1
		f.Restore.Channel1 = &v
	}
	if change.Channel2 != nil {
		v := *change.Channel2
		f.Restore.Channel2 = &v
	}
	if change.Channel3 != nil {
		v := *change.Channel3
		f.Restore.Channel3 = &v
	}
	if change.Channel4 != nil {
		v := *change.Channel4
		f.Restore.Channel4 = &v
	}
	return nil
}

func (f *Fake) SetDeviceConfig(ctx context.Context, cfg DeviceConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.ConfigCalls = append(f.ConfigCalls, cfg)
	if f.SetErr != nil {
		return f.SetErr
	}
	if cfg.OperatingMode != "" {
		f.Mode = cfg.OperatingMode
	}
	if cfg.Wiring != "" {
		f.CurrentWiring = cfg.Wiring
	}
	if cfg.ICType != "" {
		f.CurrentIC = cfg.ICType
	}
	return nil
}

func (f *Fake) SetPower(ctx context.Context, on bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.PowerCalls = append(f.PowerCalls, on)
	if f.SetErr != nil {
		return f.SetErr
	}
	f.On = on
	return nil
}

func (f *Fake) Reboot(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.RebootCalls++
	return f.SetErr
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
