package mqtt

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAnnounceConnectedPublishesBirth(t *testing.T) {
	conn := NewFake()
	var connected bool
	opts := Options{
		WillTopic:    "flux2mqtt/bridge/availability",
		WillPayload:  "offline",
		BirthPayload: "online",
		OnConnect:    func() { connected = true },
	}

	announceConnected(conn, opts, testLogger())

	p, ok := conn.Retained("flux2mqtt/bridge/availability")
	require.True(t, ok)
	assert.Equal(t, "online", p)
	assert.True(t, connected)
}

func TestAnnounceConnectedWithoutBirth(t *testing.T) {
	conn := NewFake()
	announceConnected(conn, Options{WillTopic: "flux2mqtt/bridge/availability"}, testLogger())
	assert.Empty(t, conn.Topics())
}

func TestDialHonorsContext(t *testing.T) {
	// Connect retry would otherwise keep Dial blocked on an
	// unreachable broker.
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := Dial(ctx, Options{BrokerURL: "tcp://127.0.0.1:1", ClientID: "test"}, testLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
