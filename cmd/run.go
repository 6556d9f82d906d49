package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/display"
	"github.com/tifye/crossroads/driver"
	"github.com/tifye/crossroads/sim"
)

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	assert.AssertNotNil(flag)
	err := v.BindPFlag(key, flag)
	assert.Assert(err == nil, fmt.Sprintf("bind flag %s", key))
}

func newLogger(w io.Writer, debug bool) *log.Logger {
	level := log.WarnLevel
	if debug {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
	})
}

func loadSettings(v *viper.Viper) (sim.Config, driver.RunSettings, error) {
	world, err := driver.LoadConfig(v)
	if err != nil {
		return sim.Config{}, driver.RunSettings{}, err
	}
	settings, err := driver.LoadRunSettings(v)
	if err != nil {
		return sim.Config{}, driver.RunSettings{}, fmt.Errorf("load run settings: %w", err)
	}
	return world, settings, nil
}

func newRunCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one simulation straight in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			world, settings, err := loadSettings(v)
			if err != nil {
				return err
			}

			logger := newLogger(cmd.ErrOrStderr(), settings.Debug)
			logger.Debug("run", "seconds", settings.DurationSeconds, "seed1", settings.Seed1, "seed2", settings.Seed2)

			s, err := sim.New(world, settings.Rand(), sim.WithLogger(logger.WithPrefix("sim")))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			term := display.NewTerminal(out, s.Geometry(), display.NewPalette(lipgloss.NewRenderer(out)))
			if err := term.Begin(); err != nil {
				return err
			}

			d := driver.New(logger.WithPrefix("driver"), s, settings.TicksPerSecond)
			runErr := d.Run(cmd.Context(), settings.Ticks(settings.DurationSeconds), term.Draw)
			if errors.Is(runErr, context.Canceled) {
				runErr = nil
			}

			return errors.Join(runErr, term.Finish())
		},
	}

	cmd.Flags().Int("duration", driver.StandardDurationSeconds,
		fmt.Sprintf("Seconds to run, %d-%d", driver.MinDurationSeconds, driver.MaxDurationSeconds))
	bindFlag(v, "DURATION_SECONDS", cmd.Flags().Lookup("duration"))
	return cmd
}

func newMenuLogger(debug bool) (*log.Logger, func() error, error) {
	if !debug {
		return log.New(io.Discard), func() error { return nil }, nil
	}

	f, err := os.OpenFile("crossroads-debug.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open debug log: %s", err)
	}
	return newLogger(f, true), f.Close, nil
}
