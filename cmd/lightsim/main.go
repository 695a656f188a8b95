// Command lightsim runs the lightboard ensemble in a terminal, with the
// keyboard standing in for the buttons.
package main

import (
	"fmt"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/sweeney/lightboard/internal/config"
	"github.com/sweeney/lightboard/internal/logic"
)

func main() {
	lights := pflag.Int("lights", 5, "number of simulated lights (1-9)")
	mode := pflag.String("mode", logic.ModeOff.String(), "ensemble mode at startup")
	configPath := pflag.String("config", "", "TOML config file for timing")
	pflag.Parse()

	if err := run(*lights, *mode, *configPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(lights int, modeName, configPath string) error {
	if lights < 1 || lights > 9 {
		return fmt.Errorf("lights must be between 1 and 9, got %d", lights)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.LogicTiming().Validate(); err != nil {
		return err
	}
	mode, err := logic.ParseMode(modeName)
	if err != nil {
		return err
	}

	outputs := make([]int, lights)
	for i := range outputs {
		outputs[i] = i
	}
	e, err := logic.NewEnsemble(outputs, cfg.LogicTiming())
	if err != nil {
		return err
	}
	if err := e.SetMode(mode, 0); err != nil {
		return err
	}

	p := tea.NewProgram(newModel(e, time.Now()), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
