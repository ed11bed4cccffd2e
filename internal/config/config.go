// Package config loads the daemon configuration: broker, topics, poll
// cadence and the list of devices to bridge. Values come from the TOML
// file, overridden by FLUX2MQTT_* environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

const (
	defaultBroker          = "tcp://127.0.0.1:1883"
	defaultTopicBase       = "flux2mqtt"
	defaultDiscoveryPrefix = "homeassistant"
	defaultPollSeconds     = 10

	// defaultOfflineAfter is how many consecutive failed polls mark a
	// device offline.
	defaultOfflineAfter = 10
)

// MQTT is the broker connection section.
type MQTT struct {
	Broker   string `toml:"broker"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Bridge is the bridging behavior section.
type Bridge struct {
	DiscoveryPrefix string `toml:"discovery_prefix"`
	TopicBase       string `toml:"topic_base"`
	PollSeconds     int    `toml:"poll_seconds"`
	OfflineAfter    int    `toml:"offline_after"`

	// MetricsAddr, when set, serves Prometheus metrics, e.g. ":9090".
	MetricsAddr string `toml:"metrics_addr"`
}

// Logging mirrors internal/logging.Config in TOML form.
type Logging struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

// Device is one controller to bridge.
type Device struct {
	// ID is the stable unique identifier, normally the MAC.
	ID string `toml:"id"`

	// Name is the friendly name entities are prefixed with.
	Name string `toml:"name"`

	// Host is the device address handed to the client library.
	Host string `toml:"host"`
}

// Config is the full daemon configuration.
type Config struct {
	MQTT    MQTT     `toml:"mqtt"`
	Bridge  Bridge   `toml:"bridge"`
	Logging Logging  `toml:"logging"`
	Devices []Device `toml:"device"`
}

// Load reads, defaults and validates the config at path.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = defaultBroker
	}
	if c.Bridge.TopicBase == "" {
		c.Bridge.TopicBase = defaultTopicBase
	}
	if c.Bridge.DiscoveryPrefix == "" {
		c.Bridge.DiscoveryPrefix = defaultDiscoveryPrefix
	}
	if c.Bridge.PollSeconds <= 0 {
		c.Bridge.PollSeconds = defaultPollSeconds
	}
	if c.Bridge.OfflineAfter <= 0 {
		c.Bridge.OfflineAfter = defaultOfflineAfter
	}
}

func (c *Config) applyEnv() {
	if v, ok := os.LookupEnv("FLUX2MQTT_BROKER"); ok {
		c.MQTT.Broker = v
	}
	if v, ok := os.LookupEnv("FLUX2MQTT_USERNAME"); ok {
		c.MQTT.Username = v
	}
	if v, ok := os.LookupEnv("FLUX2MQTT_PASSWORD"); ok {
		c.MQTT.Password = v
	}
	if v, ok := os.LookupEnv("FLUX2MQTT_TOPIC_BASE"); ok {
		c.Bridge.TopicBase = v
	}
	if v, ok := os.LookupEnv("FLUX2MQTT_DISCOVERY_PREFIX"); ok {
		c.Bridge.DiscoveryPrefix = v
	}
	if v, ok := os.LookupEnv("FLUX2MQTT_POLL_SECONDS"); ok {
		if n, err := strconv.Atoi(v); err == nil {
			c.Bridge.PollSeconds = n
		}
	}
}

// Validate rejects configs the bridge cannot run with.
func (c *Config) Validate() error {
	if len(c.Devices) == 0 {
		return fmt.Errorf("no devices configured")
	}
	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		if d.ID == "" {
			return fmt.Errorf("device %d: missing id", i)
		}
		if d.Name == "" {
			return fmt.Errorf("device %q: missing name", d.ID)
		}
		if d.Host == "" {
			return fmt.Errorf("device %q: missing host", d.ID)
		}
		if seen[d.ID] {
			return fmt.Errorf("device %q: duplicate id", d.ID)
		}
		seen[d.ID] = true
	}
	return nil
}
