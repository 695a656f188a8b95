package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/lightboard/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string      `json:"event,omitempty"`
	Reason        string      `json:"reason,omitempty"`
	Mode          string      `json:"mode"`
	Display       string      `json:"display"`
	Ready         bool        `json:"ready"`
	Tick          int64       `json:"tick"`
	UptimeSeconds int64       `json:"uptime_seconds"`
	StartTime     string      `json:"start_time"`
	Timestamp     string      `json:"timestamp"`
	MQTT          MQTTStatus  `json:"mqtt"`
	Counts        CountsJSON  `json:"press_counts"`
	Lights        []LightJSON `json:"lights"`
	Config        ConfigJSON  `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of press counts.
type CountsJSON struct {
	Selector int   `json:"selector"`
	Buttons  []int `json:"buttons"`
}

// LightJSON is the JSON representation of one light.
type LightJSON struct {
	Light          int     `json:"light"`
	Output         int     `json:"output"`
	State          string  `json:"state"`
	Lit            bool    `json:"lit"`
	NextTransition int64   `json:"next_transition,omitempty"`
	Sequence       []int64 `json:"sequence,omitempty"`
	Transitions    int     `json:"transitions"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
	ConfigFile  string `json:"config_file,omitempty"`
	Lights      int    `json:"lights"`
}

func buildInner(snap Snapshot) StatusInner {
	mode := snap.Ensemble.Mode.String()
	display := snap.Ensemble.Status
	if display == "" {
		mode = "UNKNOWN"
	}

	buttons := snap.Counts.Buttons
	if buttons == nil {
		buttons = []int{}
	}

	lights := make([]LightJSON, len(snap.Ensemble.Lights))
	for i, l := range snap.Ensemble.Lights {
		lj := LightJSON{
			Light:       l.Label,
			Output:      l.Output,
			State:       l.Mode.String(),
			Lit:         l.Lit,
			Transitions: l.Transitions,
		}
		// Schedule only means something while blinking
		if l.Mode == logic.LightBlinking {
			lj.NextTransition = int64(l.NextTransition)
			for _, d := range l.Sequence {
				lj.Sequence = append(lj.Sequence, int64(d))
			}
		}
		lights[i] = lj
	}

	return StatusInner{
		Mode:          mode,
		Display:       display,
		Ready:         snap.Baselined,
		Tick:          int64(snap.Tick),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts:        CountsJSON{Selector: snap.Counts.Selector, Buttons: buttons},
		Lights:        lights,
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
			ConfigFile:  snap.Config.ConfigFile,
			Lights:      snap.Config.Lights,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
