package config

import (
	"time"

	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagBroker      = "broker"
	FlagHTTP        = "http"
	FlagMode        = "mode"
	FlagPoll        = "poll"
	FlagDebounce    = "debounce"
	FlagHeartbeat   = "heartbeat"
	FlagChip        = "chip"
	FlagSelectorPin = "selector-pin"
	FlagButtonPins  = "button-pins"
	FlagLightPins   = "light-pins"
	FlagFrame       = "frame"
	FlagTransitions = "publish-transitions"
)

// RegisterFlags adds the override flags to fs, with the built-in defaults
// shown in the help text.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.String(FlagBroker, d.MQTT.Broker, "MQTT broker address (empty to disable)")
	fs.String(FlagHTTP, d.HTTP.Addr, "HTTP status address (empty to disable)")
	fs.String(FlagMode, d.Ensemble.InitialMode, "ensemble mode at startup")
	fs.Duration(FlagPoll, d.Poll(), "GPIO polling interval")
	fs.Duration(FlagDebounce, d.Debounce(), "debounce duration")
	fs.Duration(FlagHeartbeat, d.Heartbeat(), "heartbeat interval (0 to disable)")
	fs.String(FlagChip, d.GPIO.Chip, "GPIO chip name")
	fs.Int(FlagSelectorPin, d.GPIO.Selector, "BCM pin number for the mode selector button")
	fs.IntSlice(FlagButtonPins, d.GPIO.Buttons, "BCM pin numbers for the light buttons")
	fs.IntSlice(FlagLightPins, d.GPIO.Lights, "BCM pin numbers for the LEDs")
	fs.Duration(FlagFrame, time.Duration(d.Timing.FrameMs)*time.Millisecond, "animation frame duration for the sweep modes")
	fs.Bool(FlagTransitions, d.MQTT.PublishTransitions, "publish every blink transition to MQTT")
}

// ApplyFlags overrides settings with the flags the user actually set.
func (c *Config) ApplyFlags(fs *pflag.FlagSet) error {
	var err error
	set := func(name string, apply func() error) {
		if err != nil || !fs.Changed(name) {
			return
		}
		err = apply()
	}

	set(FlagBroker, func() (e error) { c.MQTT.Broker, e = fs.GetString(FlagBroker); return })
	set(FlagHTTP, func() (e error) { c.HTTP.Addr, e = fs.GetString(FlagHTTP); return })
	set(FlagMode, func() (e error) { c.Ensemble.InitialMode, e = fs.GetString(FlagMode); return })
	set(FlagChip, func() (e error) { c.GPIO.Chip, e = fs.GetString(FlagChip); return })
	set(FlagSelectorPin, func() (e error) { c.GPIO.Selector, e = fs.GetInt(FlagSelectorPin); return })
	set(FlagTransitions, func() (e error) { c.MQTT.PublishTransitions, e = fs.GetBool(FlagTransitions); return })
	set(FlagButtonPins, func() (e error) {
		c.GPIO.Buttons, e = fs.GetIntSlice(FlagButtonPins)
		c.GPIO.Count = 0
		return
	})
	set(FlagLightPins, func() (e error) {
		c.GPIO.Lights, e = fs.GetIntSlice(FlagLightPins)
		c.GPIO.Count = 0
		return
	})
	set(FlagPoll, durationMs(fs, FlagPoll, &c.Input.PollMs))
	set(FlagDebounce, durationMs(fs, FlagDebounce, &c.Input.DebounceMs))
	set(FlagHeartbeat, durationMs(fs, FlagHeartbeat, &c.MQTT.HeartbeatMs))
	set(FlagFrame, durationMs(fs, FlagFrame, &c.Timing.FrameMs))

	return err
}

func durationMs(fs *pflag.FlagSet, name string, dst *int64) func() error {
	return func() error {
		d, err := fs.GetDuration(name)
		if err != nil {
			return err
		}
		*dst = d.Milliseconds()
		return nil
	}
}
