// Package logging configures slog for the daemon: one handler, text or
// JSON, with per-module level overrides.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Config selects handler format and levels.
type Config struct {
	// Level is the global minimum level: debug, info, warn, error.
	Level string

	// Format is "text" or "json".
	Format string

	// Modules maps a module name to a level overriding Level.
	Modules map[string]string
}

// Check verifies levels and format without installing anything, so
// typos can be surfaced before (or instead of) Setup.
func Check(cfg Config) error {
	if _, err := parseLevel(cfg.Level); err != nil {
		return err
	}
	for mod, l := range cfg.Modules {
		if _, err := parseLevel(l); err != nil {
			return fmt.Errorf("module %s: %w", mod, err)
		}
	}
	switch strings.ToLower(cfg.Format) {
	case "", "text", "json":
		return nil
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// Setup installs the default slog handler. Returns an error on an
// unknown level or format.
func Setup(cfg Config) error {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return err
	}

	overrides := make(map[string]slog.Level, len(cfg.Modules))
	for mod, l := range cfg.Modules {
		ml, err := parseLevel(l)
		if err != nil {
			return fmt.Errorf("module %s: %w", mod, err)
		}
		overrides[mod] = ml
	}

	var inner slog.Handler
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		inner = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		inner = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format %q", cfg.Format)
	}

	slog.SetDefault(slog.New(&moduleHandler{
		inner:     inner,
		level:     level,
		overrides: overrides,
	}))
	return nil
}

// Module returns a logger tagged with the module name. The module tag
// also selects any per-module level override.
func Module(name string) *slog.Logger {
	return slog.Default().With(slog.String("module", name))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", s)
	}
}

// moduleHandler filters records by the level configured for their
// module attribute, falling back to the global level.
type moduleHandler struct {
	inner     slog.Handler
	level     slog.Level
	overrides map[string]slog.Level

	// module is set once the "module" attribute is attached via With.
	module string
}

func (h *moduleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	min := h.level
	if ml, ok := h.overrides[h.module]; ok {
		min = ml
	}
	return level >= min
}

func (h *moduleHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *moduleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	for _, a := range attrs {
		if a.Key == "module" {
			nh.module = a.Value.String()
		}
	}
	nh.inner = h.inner.WithAttrs(attrs)
	return &nh
}

func (h *moduleHandler) WithGroup(name string) slog.Handler {
	nh := *h
	nh.inner = h.inner.WithGroup(name)
	return &nh
}
