package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fluxled/flux2mqtt/internal/bridge"
	"github.com/fluxled/flux2mqtt/internal/config"
	"github.com/fluxled/flux2mqtt/internal/events"
	"github.com/fluxled/flux2mqtt/internal/fluxdev"
	"github.com/fluxled/flux2mqtt/internal/hass"
	"github.com/fluxled/flux2mqtt/internal/logging"
	"github.com/fluxled/flux2mqtt/internal/metrics"
	"github.com/fluxled/flux2mqtt/internal/mqtt"
)

func newServeCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the bridge daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(version, cmd.Flags())
		},
	}
	cmd.Flags().String("broker", "", "override the configured MQTT broker URL")
	cmd.Flags().String("metrics-addr", "", "override the configured metrics listen address")
	return cmd
}

// applyFlags lays command line overrides over the loaded config; flags
// win over file and environment values.
func applyFlags(cfg *config.Config, fs *pflag.FlagSet) {
	if fs.Changed("broker") {
		cfg.MQTT.Broker, _ = fs.GetString("broker")
	}
	if fs.Changed("metrics-addr") {
		cfg.Bridge.MetricsAddr, _ = fs.GetString("metrics-addr")
	}
}

func runServe(version string, fs *pflag.FlagSet) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlags(&cfg, fs)
	if err := logging.Setup(logging.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Modules: cfg.Logging.Modules,
	}); err != nil {
		return err
	}
	log := logging.Module("serve")
	log.Info("starting flux2mqtt", "version", version, "devices", len(cfg.Devices))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := mqtt.Dial(ctx, mqtt.Options{
		BrokerURL: cfg.MQTT.Broker,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
		ClientID:  "bridge",
		// The will marks the bridge offline on an unclean drop; the
		// birth undoes it after every (re)connect.
		WillTopic:    hass.BridgeAvailabilityTopic(cfg.Bridge.TopicBase),
		WillPayload:  "offline",
		BirthPayload: "online",
	}, logging.Module("mqtt"))
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.Bridge.MetricsAddr != "" {
		go serveMetrics(cfg.Bridge.MetricsAddr)
	}

	b := bridge.New(conn, events.New(), fluxdev.Dial, cfg, logging.Module("bridge"), version)

	watcher := config.NewWatcher(configFile, logging.Module("config"))
	watcher.OnReload(func(next config.Config) {
		log.Info("configuration changed, applying device list")
		b.ApplyConfig(next)
	})
	if err := watcher.Start(); err != nil {
		log.Warn("config watch unavailable, live reload disabled", "error", err)
	} else {
		defer watcher.Stop()
	}

	return b.Run(ctx)
}

func serveMetrics(addr string) {
	log := logging.Module("metrics")
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info("metrics listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Error("metrics server stopped", "error", err)
	}
}
