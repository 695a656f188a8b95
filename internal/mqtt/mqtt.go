// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/lightboard/internal/events"
)

// TopicEvents is the MQTT topic for ensemble events.
const TopicEvents = "lightboard/ensemble/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "lightboard/ensemble/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an ensemble event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event events.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Ensemble EnsemblePayload `json:"ensemble"`
}

// EnsemblePayload contains the ensemble event details.
// Light and Lit are omitted for mode changes.
type EnsemblePayload struct {
	Timestamp   string `json:"timestamp"`
	Event       string `json:"event"`
	Tick        int64  `json:"tick"`
	Mode        string `json:"mode"`
	Light       int    `json:"light,omitempty"`
	Lit         *bool  `json:"lit,omitempty"`
	Transitions int    `json:"transitions,omitempty"`
	Status      string `json:"status"`
}

// FormatPayload creates the JSON payload for an ensemble event.
func FormatPayload(event events.Event) ([]byte, error) {
	var p EnsemblePayload
	switch e := event.(type) {
	case events.ModeChangedEvent:
		p = EnsemblePayload{
			Timestamp: formatTime(e.Timestamp),
			Event:     "MODE_CHANGED",
			Tick:      int64(e.Tick),
			Mode:      e.Mode.String(),
			Status:    e.Status,
		}
	case events.LightToggledEvent:
		p = EnsemblePayload{
			Timestamp: formatTime(e.Timestamp),
			Event:     "LIGHT_TOGGLED",
			Tick:      int64(e.Tick),
			Mode:      e.Mode.String(),
			Light:     e.Light,
			Lit:       &e.Lit,
			Status:    e.Status,
		}
	case events.LightTransitionEvent:
		p = EnsemblePayload{
			Timestamp:   formatTime(e.Timestamp),
			Event:       "LIGHT_TRANSITION",
			Tick:        int64(e.Tick),
			Mode:        e.Mode.String(),
			Light:       e.Light,
			Lit:         &e.Lit,
			Transitions: e.Transitions,
			Status:      e.Status,
		}
	default:
		return nil, fmt.Errorf("unsupported event %T", event)
	}
	return json.Marshal(Payload{Ensemble: p})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: formatTime(event.Timestamp),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
