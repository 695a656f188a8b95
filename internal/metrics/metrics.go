// Package metrics provides Prometheus metrics for the lightboard daemon.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sweeney/lightboard/internal/events"
	"github.com/sweeney/lightboard/internal/logic"
)

var (
	ensembleMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightboard",
		Subsystem: "ensemble",
		Name:      "mode",
		Help:      "1 for the selected ensemble mode, 0 otherwise",
	}, []string{"mode"})

	modeChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "lightboard",
		Subsystem: "ensemble",
		Name:      "mode_changes_total",
		Help:      "Total ensemble mode changes",
	})

	lightLit = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "lightboard",
		Subsystem: "light",
		Name:      "lit",
		Help:      "Current lit state of a light",
	}, []string{"light"})

	lightTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightboard",
		Subsystem: "light",
		Name:      "transitions_total",
		Help:      "Total blink transitions realized by a light",
	}, []string{"light"})

	lightToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightboard",
		Subsystem: "light",
		Name:      "toggles_total",
		Help:      "Total manual toggles of a light",
	}, []string{"light"})

	buttonPresses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightboard",
		Subsystem: "input",
		Name:      "presses_total",
		Help:      "Total debounced button presses",
	}, []string{"button"})

	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "lightboard",
		Subsystem: "loop",
		Name:      "tick_duration_seconds",
		Help:      "Time spent processing one poll tick",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	})

	tickErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "lightboard",
		Subsystem: "loop",
		Name:      "errors_total",
		Help:      "Total tick errors by stage",
	}, []string{"stage"})

	mqttConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "lightboard",
		Subsystem: "mqtt",
		Name:      "connected",
		Help:      "1 while the broker connection is up",
	})
)

// Stages reported by TickError.
const (
	StageRead    = "read"
	StageProcess = "process"
	StageWrite   = "write"
)

// SelectorLabel is the button label used for the mode selector.
const SelectorLabel = "selector"

// SetMode marks mode as the selected one.
func SetMode(mode logic.Mode) {
	for _, m := range logic.Modes() {
		v := 0.0
		if m == mode {
			v = 1
		}
		ensembleMode.WithLabelValues(m.String()).Set(v)
	}
}

// SetLit records the lit state of every light, labelled 1..N.
func SetLit(lit []bool) {
	for i, on := range lit {
		v := 0.0
		if on {
			v = 1
		}
		lightLit.WithLabelValues(lightLabel(i + 1)).Set(v)
	}
}

// ObservePresses counts the press edges of one tick.
func ObservePresses(act logic.Activations) {
	if act.Selector {
		buttonPresses.WithLabelValues(SelectorLabel).Inc()
	}
	for i, pressed := range act.Lights {
		if pressed {
			buttonPresses.WithLabelValues(lightLabel(i + 1)).Inc()
		}
	}
}

// ObserveTick records how long one tick took.
func ObserveTick(d time.Duration) {
	tickDuration.Observe(d.Seconds())
}

// TickError counts a failed tick stage.
func TickError(stage string) {
	tickErrors.WithLabelValues(stage).Inc()
}

// SetMQTTConnected records the broker connection state.
func SetMQTTConnected(connected bool) {
	if connected {
		mqttConnected.Set(1)
		return
	}
	mqttConnected.Set(0)
}

// Observe updates the metrics affected by one ensemble event.
func Observe(ev events.Event) {
	switch e := ev.(type) {
	case events.ModeChangedEvent:
		modeChanges.Inc()
		SetMode(e.Mode)
	case events.LightToggledEvent:
		lightToggles.WithLabelValues(lightLabel(e.Light)).Inc()
	case events.LightTransitionEvent:
		lightTransitions.WithLabelValues(lightLabel(e.Light)).Add(float64(e.Transitions))
	case events.HeartbeatEvent:
		// Resync the gauges from the full state
		SetMode(e.State.Mode)
		lit := make([]bool, len(e.State.Lights))
		for i, l := range e.State.Lights {
			lit[i] = l.Lit
		}
		SetLit(lit)
	}
}

// Attach subscribes the metrics to the ensemble events on bus.
// The returned function unsubscribes.
func Attach(bus *events.Bus) func() {
	unsubs := []func(){
		bus.Subscribe(func(e events.ModeChangedEvent) { Observe(e) }),
		bus.Subscribe(func(e events.LightToggledEvent) { Observe(e) }),
		bus.Subscribe(func(e events.LightTransitionEvent) { Observe(e) }),
		bus.Subscribe(func(e events.HeartbeatEvent) { Observe(e) }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func lightLabel(n int) string {
	return strconv.Itoa(n)
}
