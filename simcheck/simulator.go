package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/api"
	"github.com/tifye/crossroads/sim"
	"github.com/tifye/crossroads/stream"
)

const probabilityRange = 100

// Simulator replays one seeded world together with a crowd of
// spectators and stops at the first broken rule. The same seeds always
// replay the same run.
type Simulator struct {
	logger *log.Logger
	seed1  uint64
	seed2  uint64
	config SimulatorConfig

	traffic    *trafficSimulator
	spectators *spectatorSimulator
	publisher  *api.Publisher
}

func NewSimulator(seed1, seed2 uint64, config SimulatorConfig, logger *log.Logger) (*Simulator, error) {
	rnd := rand.New(rand.NewPCG(seed1, seed2))
	quiet := log.New(io.Discard)

	world, err := sim.New(config.World, rnd, sim.WithLogger(logger.WithPrefix("sim")))
	if err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}

	store := api.NewSnapshotStore(time.Hour)
	hub := stream.NewHub(quiet)
	api.RegisterSpectatorHandlers(quiet, hub, store)

	return &Simulator{
		logger: logger,
		seed1:  seed1,
		seed2:  seed2,
		config: config,

		traffic:    newTrafficSimulator(logger.WithPrefix("traffic"), world, rnd, config.traffic),
		spectators: newSpectatorSimulator(logger.WithPrefix("spectators"), hub, rnd, config.spectators),
		publisher:  api.NewPublisher(quiet, store, hub, world.Geometry()),
	}, nil
}

func (s *Simulator) Run(ctx context.Context) error {
	s.logger.Info("Simulator started",
		"seed1", s.seed1, "seed2", s.seed2,
	)
	defer func() {
		s.logger.Info("Simulator finished",
			"seed1", s.seed1, "seed2", s.seed2,
		)
		s.logger.Debug("traffic\n" + s.traffic.String())
		s.logger.Debug("spectators\n" + s.spectators.String())
	}()

	for i := range s.config.Iterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Step(); err != nil {
			s.logger.Error("Simulator failed",
				"seed1", s.seed1, "seed2", s.seed2, "iteration", i, "err", err,
			)
			return err
		}
	}
	return nil
}

func (s *Simulator) Step() error {
	if err := s.spectators.Step(); err != nil {
		return err
	}

	f, err := s.traffic.Step()
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(f, s.traffic.sim.Cars()); err != nil {
		return fmt.Errorf("publish: %w", err)
	}
	return s.spectators.Published()
}
