package fluxdev

// PowerRestoreState is the behavior a device channel adopts after
// power is lost and restored. The constant names mirror the values the
// client library exposes on the wire side.
type PowerRestoreState string

const (
	PowerRestoreLastState PowerRestoreState = "LAST_STATE"
	PowerRestoreAlwaysOn  PowerRestoreState = "ALWAYS_ON"
	PowerRestoreAlwaysOff PowerRestoreState = "ALWAYS_OFF"
	PowerRestoreNeverOn   PowerRestoreState = "NEVER_ON"
)

// PowerRestoreStateValues returns the fixed enumeration in its
// canonical order.
func PowerRestoreStateValues() []PowerRestoreState {
	return []PowerRestoreState{
		PowerRestoreLastState,
		PowerRestoreAlwaysOn,
		PowerRestoreAlwaysOff,
		PowerRestoreNeverOn,
	}
}

// Valid reports whether s is a member of the enumeration.
func (s PowerRestoreState) Valid() bool {
	switch s {
	case PowerRestoreLastState, PowerRestoreAlwaysOn, PowerRestoreAlwaysOff, PowerRestoreNeverOn:
		return true
	}
	return false
}

// PowerRestoreStates holds the restore behavior per device channel.
// Channels a device does not have are nil.
type PowerRestoreStates struct {
	Channel1 *PowerRestoreState
	Channel2 *PowerRestoreState
	Channel3 *PowerRestoreState
	Channel4 *PowerRestoreState
}
