// Command lightboard drives an ensemble of button-lights from GPIO and
// publishes its state changes to MQTT.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/lightboard/internal/config"
	"github.com/sweeney/lightboard/internal/events"
	"github.com/sweeney/lightboard/internal/gpio"
	"github.com/sweeney/lightboard/internal/input"
	"github.com/sweeney/lightboard/internal/logic"
	"github.com/sweeney/lightboard/internal/metrics"
	"github.com/sweeney/lightboard/internal/mqtt"
	"github.com/sweeney/lightboard/internal/status"
	"github.com/sweeney/lightboard/internal/web"
)

const flagConfig = "config"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "lightboard",
		Short:         "Drive a board of button-lights",
		Long:          "Runs the lightboard daemon: polls the selector and light buttons, animates the LEDs in the selected mode and publishes changes to MQTT.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cfg, path, cmd)
		},
	}
	root.PersistentFlags().String(flagConfig, "", "TOML config file (watched for timing changes)")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newPlanCmd(), newModesCmd(), newInputsCmd())
	return root
}

// loadConfig layers the config file, LIGHTBOARD_* variables and explicit
// flags, then validates the result.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	path, _ := cmd.Flags().GetString(flagConfig)
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, path, err
	}
	if err := overrides(cmd)(&cfg); err != nil {
		return cfg, path, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, path, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, path, nil
}

func overrides(cmd *cobra.Command) func(*config.Config) error {
	return func(c *config.Config) error {
		if err := c.ApplyEnv(os.LookupEnv); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
		return c.ApplyFlags(cmd.Flags())
	}
}

func run(cfg config.Config, configPath string, cmd *cobra.Command) error {
	pins := cfg.Pins()
	board, err := gpio.NewRealBoard(pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer board.Close()

	ensemble, err := newEnsemble(cfg)
	if err != nil {
		return err
	}

	bus := events.New()
	defer metrics.Attach(bus)()
	metrics.SetMode(ensemble.Mode())

	// Initialize MQTT; an empty broker runs without publishing
	var publisher mqtt.Publisher
	var mqttStatus mqtt.ConnectionStatus
	if cfg.MQTT.Broker != "" {
		p, err := mqtt.NewRealPublisher(mqtt.Options{
			Broker:     cfg.MQTT.Broker,
			ClientID:   cfg.MQTT.ClientID,
			BufferSize: cfg.MQTT.BufferSize,
		})
		if err != nil {
			return fmt.Errorf("init mqtt: %w", err)
		}
		defer p.Close()
		defer mqtt.Attach(bus, p, cfg.MQTT.PublishTransitions)()
		publisher, mqttStatus = p, p
	} else {
		log.Printf("mqtt disabled")
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), statusConfig(cfg, configPath))
	tracker.Update(ensemble.Snapshot(), 0, false, input.Counts{Buttons: make([]int, ensemble.Len())})

	if publisher != nil {
		snap := tracker.Snapshot()
		startup := mqtt.SystemEvent{
			Timestamp:  snap.Now,
			Event:      "STARTUP",
			Retained:   true,
			RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
		}
		if err := publisher.PublishSystem(startup); err != nil {
			log.Printf("failed to publish startup event: %v", err)
		} else {
			log.Printf("published startup event")
		}
	}

	commands := make(chan web.Command, 16)
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, tracker, commands, cmd.ErrOrStderr())
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.HTTP.Addr)
	}

	timings := make(chan logic.Timing, 1)
	if configPath != "" {
		w := config.NewWatcher(configPath, config.DefaultWatchDebounce, overrides(cmd))
		w.OnReload(func(c config.Config) {
			tracker.SetConfig(statusConfig(c, configPath))
			// Keep only the newest timing if the loop has not caught up
			select {
			case <-timings:
			default:
			}
			timings <- c.LogicTiming()
		})
		if err := w.Start(); err != nil {
			log.Printf("config watcher disabled: %v", err)
		} else {
			defer w.Stop()
		}
	}

	log.Printf("started: lights=%d mode=%s poll=%v debounce=%v broker=%q heartbeat=%v",
		ensemble.Len(), ensemble.Mode(), cfg.Poll(), cfg.Debounce(), cfg.MQTT.Broker, cfg.Heartbeat())

	ticker := time.NewTicker(cfg.Poll())
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(loopDeps{
		board:      board,
		ensemble:   ensemble,
		debouncer:  input.NewDebouncer(ensemble.Len(), cfg.Debounce()),
		bus:        bus,
		publisher:  publisher,
		mqttStatus: mqttStatus,
		tracker:    tracker,
		heartbeat:  cfg.Heartbeat(),
		commands:   commands,
		timings:    timings,
	}, time.Now, ticker.C, sigCh)
}

// newEnsemble builds the ensemble for the configured lights and selects the
// initial mode at tick 0.
func newEnsemble(cfg config.Config) (*logic.Ensemble, error) {
	ensemble, err := logic.NewEnsemble(cfg.Pins().Lights, cfg.LogicTiming())
	if err != nil {
		return nil, fmt.Errorf("init ensemble: %w", err)
	}
	mode, err := cfg.InitialMode()
	if err != nil {
		return nil, err
	}
	if err := ensemble.SetMode(mode, 0); err != nil {
		return nil, fmt.Errorf("initial mode: %w", err)
	}
	// The startup mode change is not news to anyone
	ensemble.Process(0, logic.Activations{})
	return ensemble, nil
}

func statusConfig(cfg config.Config, configPath string) status.Config {
	return status.Config{
		PollMs:      cfg.Input.PollMs,
		DebounceMs:  cfg.Input.DebounceMs,
		HeartbeatMs: cfg.MQTT.HeartbeatMs,
		Broker:      cfg.MQTT.Broker,
		HTTPAddr:    cfg.HTTP.Addr,
		ConfigFile:  configPath,
		Lights:      len(cfg.Pins().Lights),
	}
}

// loopDeps are the collaborators of runLoop. publisher, mqttStatus,
// tracker, commands and timings may be nil.
type loopDeps struct {
	board      gpio.Board
	ensemble   *logic.Ensemble
	debouncer  *input.Debouncer
	bus        *events.Bus
	publisher  mqtt.Publisher
	mqttStatus mqtt.ConnectionStatus
	tracker    *status.Tracker
	heartbeat  time.Duration
	commands   <-chan web.Command
	timings    <-chan logic.Timing
}

func runLoop(d loopDeps, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	lastHeartbeat := startTime

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			if d.publisher == nil {
				return nil
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if d.tracker != nil {
				refreshConnected(d)
				event.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "SHUTDOWN", signalName)
			}
			if err := d.publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			begin := time.Now()
			t := now()
			at := logic.Tick(t.Sub(startTime).Milliseconds())

			act := logic.Activations{}
			levels, err := d.board.Read()
			if err != nil {
				// Lights keep animating without input
				log.Printf("gpio read error: %v", err)
				metrics.TickError(metrics.StageRead)
			} else {
				act = d.debouncer.Process(input.Sample{
					Selector: levels.Selector,
					Buttons:  levels.Buttons,
					Time:     t,
				})
			}

			applyRemote(d, at)
			metrics.ObservePresses(act)

			evs, err := d.ensemble.Process(at, act)
			if err != nil {
				log.Printf("ensemble error: %v", err)
				metrics.TickError(metrics.StageProcess)
			}

			lit := d.ensemble.Lit()
			if err := d.board.Write(lit); err != nil {
				log.Printf("gpio write error: %v", err)
				metrics.TickError(metrics.StageWrite)
			}
			metrics.SetLit(lit)

			statusLine := d.ensemble.Status()
			for _, ev := range evs {
				if ev.Type != logic.EventLightTransition {
					log.Printf("event: %s light=%d %s", ev.Type, ev.Light, statusLine)
				}
			}
			d.bus.PublishAll(evs, statusLine, t)

			// Update status tracker for HTTP consumers
			state := d.ensemble.Snapshot()
			if d.tracker != nil {
				d.tracker.Update(state, at, d.debouncer.IsBaselined(), d.debouncer.Counts())
				refreshConnected(d)
			}

			if d.heartbeat > 0 && t.Sub(lastHeartbeat) >= d.heartbeat {
				lastHeartbeat = t
				heartbeat(d, state, t)
			}

			metrics.ObserveTick(time.Since(begin))
		}
	}
}

// applyRemote applies queued web commands and reloaded timing before the
// tick's own presses.
func applyRemote(d loopDeps, at logic.Tick) {
	for {
		select {
		case c := <-d.commands:
			if err := applyCommand(d.ensemble, c, at); err != nil {
				log.Printf("remote command rejected: %v", err)
			}
			continue
		case tm := <-d.timings:
			if err := d.ensemble.SetTiming(tm, at); err != nil {
				log.Printf("timing reload rejected: %v", err)
			} else {
				log.Printf("timing reloaded")
			}
			continue
		default:
		}
		return
	}
}

func applyCommand(e *logic.Ensemble, c web.Command, at logic.Tick) error {
	switch {
	case c.Mode != nil:
		return e.SetMode(*c.Mode, at)
	case c.Selector:
		return e.OnSelectorActivate(at)
	case c.Light > 0:
		return e.ActivateLight(c.Light-1, at)
	}
	return nil
}

func refreshConnected(d loopDeps) {
	if d.mqttStatus == nil {
		return
	}
	connected := d.mqttStatus.IsConnected()
	metrics.SetMQTTConnected(connected)
	if d.tracker != nil {
		d.tracker.SetMQTTConnected(connected)
	}
}

func heartbeat(d loopDeps, state logic.EnsembleState, t time.Time) {
	d.bus.Publish(events.HeartbeatEvent{State: state, Timestamp: t})
	if d.publisher == nil {
		return
	}

	counts := d.debouncer.Counts()
	log.Printf("heartbeat: %s selector=%d buttons=%v", state.Status, counts.Selector, counts.Buttons)

	hb := mqtt.SystemEvent{
		Timestamp: t,
		Event:     "HEARTBEAT",
	}
	if d.tracker != nil {
		hb.RawPayload = status.FormatStatusEvent(d.tracker.Snapshot(), "HEARTBEAT", "")
	}
	if err := d.publisher.PublishSystem(hb); err != nil {
		log.Printf("heartbeat publish error: %v", err)
	}
}
