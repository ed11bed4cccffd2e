package config

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherNotifiesOnChange(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	w := NewWatcher(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.debounce = 50 * time.Millisecond

	got := make(chan Config, 1)
	w.OnReload(func(cfg Config) { got <- cfg })
	require.NoError(t, w.Start())
	defer w.Stop()

	updated := sampleConfig + "\n[[device]]\nid = \"aa99\"\nname = \"New\"\nhost = \"10.0.0.9\"\n"
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-got:
		assert.Len(t, cfg.Devices, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload notification")
	}
}

func TestWatcherKeepsPreviousOnBadConfig(t *testing.T) {
	path := writeConfig(t, sampleConfig)
	w := NewWatcher(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	w.debounce = 50 * time.Millisecond

	got := make(chan Config, 1)
	w.OnReload(func(cfg Config) { got <- cfg })
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[[[["), 0o644))

	select {
	case <-got:
		t.Fatal("handler called for invalid config")
	case <-time.After(500 * time.Millisecond):
	}
}
