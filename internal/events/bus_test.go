package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBusDeliversTypedEvents(t *testing.T) {
	b := New()

	got := make(chan StateUpdated, 1)
	unsub := b.Subscribe(func(e StateUpdated) { got <- e })
	defer unsub()

	avail := make(chan AvailabilityChanged, 1)
	defer b.Subscribe(func(e AvailabilityChanged) { avail <- e })()

	b.Publish(StateUpdated{EntryID: "e1"})
	b.Publish(AvailabilityChanged{EntryID: "e1", Online: false})

	select {
	case e := <-got:
		assert.Equal(t, "e1", e.EntryID)
	case <-time.After(time.Second):
		t.Fatal("StateUpdated not delivered")
	}
	select {
	case e := <-avail:
		assert.False(t, e.Online)
	case <-time.After(time.Second):
		t.Fatal("AvailabilityChanged not delivered")
	}
}

func TestBusUnknownHandlerIsNoop(t *testing.T) {
	b := New()
	unsub := b.Subscribe(func(s string) {})
	assert.NotPanics(t, unsub)
}
