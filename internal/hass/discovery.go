// Package hass presents a flux device to Home Assistant as MQTT
// discovery entities. Each entity is a thin adapter: it mirrors one
// piece of device-client state onto a state topic and forwards one
// command topic to one device-client setter.
package hass

import (
	"encoding/json"
)

// Entity categories understood by the platform.
const (
	CategoryConfig     = "config"
	CategoryDiagnostic = "diagnostic"
)

// availabilityModeAll marks the entity available only when the bridge
// and the device are both online.
const availabilityModeAll = "all"

// deviceInfo is the discovery device block grouping all entities of
// one controller.
type deviceInfo struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Model        string   `json:"model,omitempty"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	SwVersion    string   `json:"sw_version,omitempty"`
}

type availabilityEntry struct {
	Topic string `json:"topic"`
}

// discoveryPayload is the retained config message registering one
// entity with the platform.
type discoveryPayload struct {
	Name             string              `json:"name"`
	UniqueID         string              `json:"unique_id"`
	StateTopic       string              `json:"state_topic,omitempty"`
	CommandTopic     string              `json:"command_topic,omitempty"`
	Options          []string            `json:"options,omitempty"`
	EntityCategory   string              `json:"entity_category,omitempty"`
	Icon             string              `json:"icon,omitempty"`
	Availability     []availabilityEntry `json:"availability,omitempty"`
	AvailabilityMode string              `json:"availability_mode,omitempty"`
	Device           deviceInfo          `json:"device"`
}

func (p discoveryPayload) encode() (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Info is the per-entry identity every entity of a device shares.
type Info struct {
	// EntryID identifies the owning config entry.
	EntryID string

	// NodeID is the sanitized device identifier used in topics.
	NodeID string

	// Name is the friendly device name entities prefix.
	Name string

	// UniqueID is the stable device identifier (configured id or MAC)
	// entity unique ids derive from.
	UniqueID string

	// Model is the device-reported model string.
	Model string

	// DiscoveryPrefix is the platform's discovery prefix, normally
	// "homeassistant".
	DiscoveryPrefix string

	// TopicBase is the base for state/command/availability topics.
	TopicBase string

	// Version is the bridge version advertised in the device block.
	Version string
}

// AvailabilityTopic is where the entry's online/offline marker lives.
func (i Info) AvailabilityTopic() string {
	return i.TopicBase + "/" + i.NodeID + "/availability"
}

// BridgeAvailabilityTopic is the bridge-wide marker, set offline by the
// broker via Last Will when the bridge dies.
func BridgeAvailabilityTopic(topicBase string) string {
	return topicBase + "/bridge/availability"
}

func (i Info) device() deviceInfo {
	return deviceInfo{
		Identifiers:  []string{i.UniqueID},
		Name:         i.Name,
		Model:        i.Model,
		Manufacturer: "Magic Home",
		SwVersion:    "flux2mqtt " + i.Version,
	}
}
