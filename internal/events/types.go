package events

// Event type constants for kelindar/event.
const (
	TypeStateUpdated uint32 = iota + 1
	TypeAvailabilityChanged
)

// Event is the interface kelindar/event requires.
type Event interface {
	Type() uint32
}

// StateUpdated is broadcast after a successful device poll; entities
// for the entry republish their state topics.
type StateUpdated struct {
	EntryID string
}

func (e StateUpdated) Type() uint32 { return TypeStateUpdated }

// AvailabilityChanged is broadcast when an entry's device goes online
// or offline.
type AvailabilityChanged struct {
	EntryID string
	Online  bool
}

func (e AvailabilityChanged) Type() uint32 { return TypeAvailabilityChanged }
