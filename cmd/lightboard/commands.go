package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sweeney/lightboard/internal/gpio"
	"github.com/sweeney/lightboard/internal/logic"
)

func newModesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "modes",
		Short: "List the ensemble modes in selector order",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			writeModes(cmd.OutOrStdout())
		},
	}
}

func writeModes(w io.Writer) {
	for i, m := range logic.Modes() {
		kind := "blink"
		switch {
		case m == logic.ModeOff || m == logic.ModeConstantOn:
			kind = "static"
		case m.IsSweep():
			kind = "sweep"
		}
		fmt.Fprintf(w, "%d  %-18s %s\n", i, m, kind)
	}
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the per-light plan of a mode and preview its frames",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			lights, _ := cmd.Flags().GetInt("lights")
			if lights <= 0 {
				lights = len(cfg.Pins().Lights)
			}
			modeName, _ := cmd.Flags().GetString("mode")
			if modeName == "" {
				modeName = cfg.Ensemble.InitialMode
			}
			mode, err := logic.ParseMode(modeName)
			if err != nil {
				return err
			}
			steps, _ := cmd.Flags().GetInt("steps")
			step, _ := cmd.Flags().GetDuration("step")
			if step <= 0 {
				step = time.Duration(cfg.Timing.FrameMs) * time.Millisecond
			}
			return writePlan(cmd.OutOrStdout(), mode, lights, cfg.LogicTiming(), steps, logic.Tick(step.Milliseconds()))
		},
	}
	cmd.Flags().Int("lights", 0, "number of lights (default: configured light pins)")
	cmd.Flags().Int("steps", 0, "number of preview frames to print")
	cmd.Flags().Duration("step", 0, "time between preview frames (default: frame duration)")
	return cmd
}

// writePlan prints the derived plan for every light, then steps frames of
// the animation every step ms starting at tick 0.
func writePlan(w io.Writer, mode logic.Mode, n int, t logic.Timing, steps int, step logic.Tick) error {
	plans, err := logic.Plan(mode, n, t)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s over %d lights", mode, n)
	if logic.IsDegenerate(mode, n, t) {
		fmt.Fprint(w, " (too few lights to animate, all on)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-6s %-6s %-8s %-8s %s\n", "LIGHT", "STATE", "OFFSET", "CYCLE", "SEQUENCE")
	for i, p := range plans {
		seq := "-"
		if len(p.Durations) > 0 {
			parts := make([]string, len(p.Durations))
			for j, d := range p.Durations {
				parts[j] = fmt.Sprint(d)
			}
			seq = strings.Join(parts, ",")
			if p.InitialLit {
				seq += " (starts lit)"
			}
		}
		fmt.Fprintf(w, "%-6d %-6s %-8d %-8d %s\n", i+1, p.Mode, p.Offset, p.Total(), seq)
	}

	if steps <= 0 {
		return nil
	}
	if step <= 0 {
		return fmt.Errorf("preview step must be positive, got %d", step)
	}

	outputs := make([]int, n)
	for i := range outputs {
		outputs[i] = i
	}
	e, err := logic.NewEnsemble(outputs, t)
	if err != nil {
		return err
	}
	if err := e.SetMode(mode, 0); err != nil {
		return err
	}
	fmt.Fprintln(w)
	for i := 0; i < steps; i++ {
		at := logic.Tick(i) * step
		if _, err := e.Process(at, logic.Activations{}); err != nil {
			return err
		}
		fmt.Fprintf(w, "%8dms %s\n", at, e.Status())
	}
	return nil
}

func newInputsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inputs",
		Short: "Print the current button levels and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			board, err := gpio.NewRealBoard(cfg.Pins())
			if err != nil {
				return fmt.Errorf("init gpio: %w", err)
			}
			defer board.Close()

			levels, err := board.Read()
			if err != nil {
				return fmt.Errorf("read gpio: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatLevels(levels))
			return nil
		},
	}
}

func formatLevels(l gpio.Levels) string {
	parts := []string{"SELECTOR: " + stateString(l.Selector)}
	for i, b := range l.Buttons {
		parts = append(parts, fmt.Sprintf("%d: %s", i+1, stateString(b)))
	}
	return strings.Join(parts, ", ")
}

func stateString(pressed bool) string {
	if pressed {
		return "PRESSED"
	}
	return "RELEASED"
}
