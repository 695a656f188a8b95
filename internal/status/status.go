// Package status provides a thread-safe status tracker for the lightboard daemon.
// It is read by HTTP handlers and by the heartbeat publisher.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/lightboard/internal/input"
	"github.com/sweeney/lightboard/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	ConfigFile  string
	Lights      int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type: safe to use after the lock is released.
type Snapshot struct {
	Ensemble      logic.EnsembleState
	Tick          logic.Tick
	Baselined     bool
	Counts        input.Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update records the ensemble state after a tick together with the input
// baseline status and press counts. Called from runLoop on every tick.
func (t *Tracker) Update(state logic.EnsembleState, tick logic.Tick, baselined bool, counts input.Counts) {
	t.mu.Lock()
	t.snap.Ensemble = state
	t.snap.Tick = tick
	t.snap.Baselined = baselined
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetConfig replaces the displayed configuration, e.g. after a reload.
func (t *Tracker) SetConfig(cfg Config) {
	t.mu.Lock()
	t.snap.Config = cfg
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Ensemble = copyEnsemble(t.snap.Ensemble)
	s.Counts.Buttons = append([]int(nil), t.snap.Counts.Buttons...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}

func copyEnsemble(e logic.EnsembleState) logic.EnsembleState {
	if e.Lights == nil {
		return e
	}
	lights := make([]logic.LightState, len(e.Lights))
	for i, l := range e.Lights {
		l.Sequence = append([]logic.Tick(nil), l.Sequence...)
		lights[i] = l
	}
	e.Lights = lights
	return e
}
