package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

type options struct {
	seed1     uint64
	seed2     uint64
	times     uint
	endless   bool
	congested bool
	debug     bool
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "simcheck",
		Short:         "Replay seeded intersections and check every frame",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logLevel := log.InfoLevel
			if opts.debug {
				logLevel = log.DebugLevel
			}

			logger := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
				Level:           logLevel,
				ReportTimestamp: false,
			})

			config := V1Config()
			if opts.congested {
				config = CongestedConfig()
			}

			var err error
			switch {
			case opts.endless:
				err = runEndless(cmd.Context(), logger, config)
			case opts.times > 0:
				err = runTimes(cmd.Context(), logger, config, opts.times)
			default:
				if !cmd.Flags().Changed("seed1") {
					opts.seed1 = rand.Uint64()
				}
				if !cmd.Flags().Changed("seed2") {
					opts.seed2 = rand.Uint64()
				}
				err = runSeeded(cmd.Context(), logger, config, opts.seed1, opts.seed2)
			}

			if errors.Is(err, context.Canceled) {
				logger.Warn("interrupted")
				return nil
			}
			if err != nil {
				logger.Error(err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.Uint64Var(&opts.seed1, "seed1", 0, "First seed value")
	flags.Uint64Var(&opts.seed2, "seed2", 0, "Second seed value")
	flags.UintVar(&opts.times, "times", 0, "Amount of times to run the simulation each time with random seeds")
	flags.BoolVar(&opts.endless, "endless", false, "Run the simulation an endless amount of times with random seeds until stopped")
	flags.BoolVar(&opts.congested, "congested", false, "Use a small crowded world with mismatched light cycles")
	flags.BoolVar(&opts.debug, "debug", false, "Include debug logs")

	return cmd
}

func runSeeded(ctx context.Context, logger *log.Logger, config SimulatorConfig, seed1, seed2 uint64) error {
	sim, err := NewSimulator(seed1, seed2, config, logger)
	if err != nil {
		return err
	}
	return sim.Run(ctx)
}

func runTimes(ctx context.Context, logger *log.Logger, config SimulatorConfig, times uint) error {
	for i := range times {
		if err := runSeeded(ctx, logger, config, rand.Uint64(), rand.Uint64()); err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
	}
	return nil
}

func runEndless(ctx context.Context, logger *log.Logger, config SimulatorConfig) error {
	for {
		if err := runSeeded(ctx, logger, config, rand.Uint64(), rand.Uint64()); err != nil {
			return err
		}
	}
}
