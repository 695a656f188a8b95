// Package config loads daemon settings from a TOML file, LIGHTBOARD_*
// environment variables and command-line flags, in rising precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/sweeney/lightboard/internal/gpio"
	"github.com/sweeney/lightboard/internal/logic"
)

// Config is the complete daemon configuration.
type Config struct {
	GPIO     GPIOConfig     `toml:"gpio"`
	Input    InputConfig    `toml:"input"`
	Timing   TimingConfig   `toml:"timing"`
	Ensemble EnsembleConfig `toml:"ensemble"`
	MQTT     MQTTConfig     `toml:"mqtt"`
	HTTP     HTTPConfig     `toml:"http"`
}

// GPIOConfig selects the chip and lines. When Count is set, button and light
// lines are Count consecutive offsets from ButtonStart and LightStart and the
// explicit lists are ignored.
type GPIOConfig struct {
	Chip        string `toml:"chip"`
	Selector    int    `toml:"selector_pin"`
	Buttons     []int  `toml:"button_pins"`
	Lights      []int  `toml:"light_pins"`
	ButtonStart int    `toml:"button_start"`
	LightStart  int    `toml:"light_start"`
	Count       int    `toml:"count"`
}

// InputConfig controls button polling.
type InputConfig struct {
	PollMs     int64 `toml:"poll_ms"`
	DebounceMs int64 `toml:"debounce_ms"`
}

// TimingConfig mirrors logic.Timing in milliseconds and frame counts.
type TimingConfig struct {
	SyncShortOnMs      int64 `toml:"sync_short_on_ms"`
	SyncShortOffMs     int64 `toml:"sync_short_off_ms"`
	SyncLongOnMs       int64 `toml:"sync_long_on_ms"`
	SyncLongOffMs      int64 `toml:"sync_long_off_ms"`
	UnsyncOnMs         int64 `toml:"unsync_on_ms"`
	UnsyncOffMs        int64 `toml:"unsync_off_ms"`
	UnsyncDelayMs      int64 `toml:"unsync_delay_ms"`
	FrameMs            int64 `toml:"frame_ms"`
	ChaseFrames        int   `toml:"chase_frames"`
	ChaseSlowFrames    int   `toml:"chase_slow_frames"`
	ChaseInverseFrames int   `toml:"chase_inverse_frames"`
	CylonFrames        int   `toml:"cylon_frames"`
}

// EnsembleConfig holds the mode selected at startup.
type EnsembleConfig struct {
	InitialMode string `toml:"initial_mode"`
}

// MQTTConfig configures event publishing. An empty broker disables MQTT.
type MQTTConfig struct {
	Broker             string `toml:"broker"`
	ClientID           string `toml:"client_id"`
	HeartbeatMs        int64  `toml:"heartbeat_ms"`
	BufferSize         int    `toml:"buffer_size"`
	PublishTransitions bool   `toml:"publish_transitions"`
}

// HTTPConfig configures the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	p := gpio.DefaultPins()
	return Config{
		GPIO: GPIOConfig{
			Chip:     p.Chip,
			Selector: p.Selector,
			Buttons:  p.Buttons,
			Lights:   p.Lights,
		},
		Input: InputConfig{
			PollMs:     10,
			DebounceMs: 30,
		},
		Timing: timingConfig(logic.DefaultTiming()),
		Ensemble: EnsembleConfig{
			InitialMode: logic.ModeOff.String(),
		},
		MQTT: MQTTConfig{
			Broker:      "tcp://192.168.1.200:1883",
			ClientID:    "lightboard",
			HeartbeatMs: (15 * time.Minute).Milliseconds(),
			BufferSize:  100,
		},
		HTTP: HTTPConfig{
			Addr: ":80",
		},
	}
}

func timingConfig(t logic.Timing) TimingConfig {
	return TimingConfig{
		SyncShortOnMs:      int64(t.SyncShortOn),
		SyncShortOffMs:     int64(t.SyncShortOff),
		SyncLongOnMs:       int64(t.SyncLongOn),
		SyncLongOffMs:      int64(t.SyncLongOff),
		UnsyncOnMs:         int64(t.UnsyncOn),
		UnsyncOffMs:        int64(t.UnsyncOff),
		UnsyncDelayMs:      int64(t.UnsyncDelay),
		FrameMs:            int64(t.FrameDuration),
		ChaseFrames:        t.ChaseFrames,
		ChaseSlowFrames:    t.ChaseSlowFrames,
		ChaseInverseFrames: t.ChaseInverseFrames,
		CylonFrames:        t.CylonFrames,
	}
}

// Load reads the TOML file at path over the defaults. Unknown keys are an
// error. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data into cfg, keeping the values of absent keys.
func Parse(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return fmt.Errorf("unknown keys:\n%s", strict.String())
		}
		return err
	}
	return nil
}

// Environment variables read by ApplyEnv.
const (
	EnvBroker    = "LIGHTBOARD_BROKER"
	EnvHTTPAddr  = "LIGHTBOARD_HTTP_ADDR"
	EnvMode      = "LIGHTBOARD_MODE"
	EnvPoll      = "LIGHTBOARD_POLL_MS"
	EnvDebounce  = "LIGHTBOARD_DEBOUNCE_MS"
	EnvHeartbeat = "LIGHTBOARD_HEARTBEAT_MS"
	EnvChip      = "LIGHTBOARD_GPIO_CHIP"
	EnvFrame     = "LIGHTBOARD_FRAME_MS"
)

// ApplyEnv overrides settings from environment variables. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok {
			*dst = v
		}
	}
	ms := func(name string, dst *int64) error {
		v, ok := lookup(name)
		if !ok {
			return nil
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*dst = n
		return nil
	}

	str(EnvBroker, &c.MQTT.Broker)
	str(EnvHTTPAddr, &c.HTTP.Addr)
	str(EnvMode, &c.Ensemble.InitialMode)
	str(EnvChip, &c.GPIO.Chip)

	return errors.Join(
		ms(EnvPoll, &c.Input.PollMs),
		ms(EnvDebounce, &c.Input.DebounceMs),
		ms(EnvHeartbeat, &c.MQTT.HeartbeatMs),
		ms(EnvFrame, &c.Timing.FrameMs),
	)
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var errs []error
	if c.Input.PollMs <= 0 {
		errs = append(errs, errors.New("input: poll_ms must be positive"))
	}
	if c.Input.DebounceMs < 0 {
		errs = append(errs, errors.New("input: debounce_ms must not be negative"))
	}
	if c.MQTT.HeartbeatMs < 0 {
		errs = append(errs, errors.New("mqtt: heartbeat_ms must not be negative"))
	}
	if c.GPIO.Count < 0 {
		errs = append(errs, errors.New("gpio: count must not be negative"))
	}
	if err := c.Pins().Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.LogicTiming().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.InitialMode(); err != nil {
		errs = append(errs, fmt.Errorf("ensemble: %w", err))
	}
	return errors.Join(errs...)
}

// Pins returns the GPIO wiring.
func (c Config) Pins() gpio.Pins {
	p := gpio.Pins{
		Chip:     c.GPIO.Chip,
		Selector: c.GPIO.Selector,
		Buttons:  append([]int(nil), c.GPIO.Buttons...),
		Lights:   append([]int(nil), c.GPIO.Lights...),
	}
	if c.GPIO.Count > 0 {
		p.Buttons = gpio.PinRange(c.GPIO.ButtonStart, c.GPIO.Count)
		p.Lights = gpio.PinRange(c.GPIO.LightStart, c.GPIO.Count)
	}
	return p
}

// LogicTiming converts the timing section for the ensemble.
func (c Config) LogicTiming() logic.Timing {
	t := c.Timing
	return logic.Timing{
		SyncShortOn:        logic.Tick(t.SyncShortOnMs),
		SyncShortOff:       logic.Tick(t.SyncShortOffMs),
		SyncLongOn:         logic.Tick(t.SyncLongOnMs),
		SyncLongOff:        logic.Tick(t.SyncLongOffMs),
		UnsyncOn:           logic.Tick(t.UnsyncOnMs),
		UnsyncOff:          logic.Tick(t.UnsyncOffMs),
		UnsyncDelay:        logic.Tick(t.UnsyncDelayMs),
		FrameDuration:      logic.Tick(t.FrameMs),
		ChaseFrames:        t.ChaseFrames,
		ChaseSlowFrames:    t.ChaseSlowFrames,
		ChaseInverseFrames: t.ChaseInverseFrames,
		CylonFrames:        t.CylonFrames,
	}
}

// InitialMode parses the startup mode.
func (c Config) InitialMode() (logic.Mode, error) {
	return logic.ParseMode(c.Ensemble.InitialMode)
}

// Poll returns the polling interval.
func (c Config) Poll() time.Duration {
	return time.Duration(c.Input.PollMs) * time.Millisecond
}

// Debounce returns the debounce duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Input.DebounceMs) * time.Millisecond
}

// Heartbeat returns the heartbeat interval; zero disables heartbeats.
func (c Config) Heartbeat() time.Duration {
	return time.Duration(c.MQTT.HeartbeatMs) * time.Millisecond
}
