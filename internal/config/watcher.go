package config

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the config file and notifies handlers when it
// changes. The config is loaded fresh on each change so handlers never
// see stale data; editors that replace the file show up as create
// events, which are handled too.
type Watcher struct {
	path     string
	debounce time.Duration
	log      *slog.Logger

	mu       sync.RWMutex
	handlers []func(Config)

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewWatcher creates a watcher for the config at path.
func NewWatcher(path string, log *slog.Logger) *Watcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		debounce: 1500 * time.Millisecond,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnReload registers a handler called with each freshly loaded config.
func (w *Watcher) OnReload(handler func(Config)) {
	w.mu.Lock()
	w.handlers = append(w.handlers, handler)
	w.mu.Unlock()
}

// Start begins watching.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(w.path); err != nil {
		watcher.Close()
		return err
	}
	w.watcher = watcher
	w.log.Info("watching config", "path", w.path)
	go w.watch()
	return nil
}

// Stop stops watching.
func (w *Watcher) Stop() error {
	w.cancel()
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) watch() {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}

		case <-timerC:
			timerC = nil
			w.loadAndNotify()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("config watcher error", "error", err)
		}
	}
}

func (w *Watcher) loadAndNotify() {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("config changed but did not load, keeping previous", "error", err)
		return
	}
	w.log.Info("config changed, reloading")

	w.mu.RLock()
	handlers := append(([]func(Config))(nil), w.handlers...)
	w.mu.RUnlock()
	for _, h := range handlers {
		h(cfg)
	}
}
