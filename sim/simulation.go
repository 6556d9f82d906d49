package sim

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/assert"
)

// RandomSource picks spawn directions. *rand.Rand from math/rand/v2
// satisfies it.
type RandomSource interface {
	IntN(n int) int
}

type Option func(s *Simulation)

func WithLogger(logger *log.Logger) Option {
	assert.AssertNotNil(logger)
	return func(s *Simulation) {
		s.logger = logger
	}
}

// Simulation owns the whole world state for one intersection. It is
// not safe for concurrent use; the driver calls Tick from a single
// goroutine.
type Simulation struct {
	logger *log.Logger
	rnd    RandomSource

	config   Config
	geometry Geometry
	ns       *TrafficLight
	ew       *TrafficLight
	registry *Registry
	tick     int
}

func New(cfg Config, rnd RandomSource, opts ...Option) (*Simulation, error) {
	assert.AssertNotNil(rnd)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		logger:   log.New(io.Discard),
		rnd:      rnd,
		config:   cfg,
		geometry: newGeometry(cfg),
		ns:       NewTrafficLight(AxisNS, Green, cfg.NSLight),
		ew:       NewTrafficLight(AxisEW, Red, cfg.EWLight),
		registry: NewRegistry(cfg.MaxCars),
	}
	for _, opt := range opts {
		opt(s)
	}

	if cfg.NSLight.Cycle() != cfg.EWLight.Cycle() {
		s.logger.Warn("light cycles differ, phases will drift",
			"nsCycle", cfg.NSLight.Cycle(), "ewCycle", cfg.EWLight.Cycle())
	}

	return s, nil
}

// Tick runs one frame: both lights advance, a spawn is attempted every
// SpawnInterval ticks, then every car advances.
func (s *Simulation) Tick() Frame {
	frame := Frame{Tick: s.tick}

	s.tickLight(s.ns)
	s.tickLight(s.ew)

	// Taken before the spawn so a new car is a plain draw.
	before := s.registry.snapshot()
	if s.tick%s.config.SpawnInterval == 0 {
		frame.SpawnAttempted = true
		frame.Spawned = s.Spawn()
	}

	outcomes := advanceAll(s.geometry, s.registry, s.lightState)
	for id, o := range outcomes {
		if o == outcomeRetired {
			s.logger.Debug("car retired", "id", id, "x", before[id].X, "y", before[id].Y)
		}
	}
	frame.Events = diffCars(s.geometry, before, s.registry.cars)

	s.tick++
	frame.Lights = s.Lights()
	frame.Stats = s.Stats()
	return frame
}

func (s *Simulation) tickLight(l *TrafficLight) {
	if l.Tick() {
		s.logger.Debug("light changed", "axis", l.Axis(), "state", l.State(), "timer", l.Timer())
	}
}

func (s *Simulation) lightState(d Direction) LightState {
	switch d.Axis() {
	case AxisNS:
		return s.ns.State()
	case AxisEW:
		return s.ew.State()
	default:
		panic(fmt.Sprintf("invalid axis: %d", d.Axis()))
	}
}

// Spawn attempts to add a car travelling in a uniformly random
// direction.
func (s *Simulation) Spawn() bool {
	d := Directions[s.rnd.IntN(len(Directions))]
	return s.SpawnDirection(d)
}

func (s *Simulation) SpawnDirection(d Direction) bool {
	id, ok := s.registry.Spawn(s.geometry, d)
	if !ok {
		s.logger.Debug("spawn rejected", "direction", d, "active", s.registry.ActiveCount())
		return false
	}

	c := s.registry.Car(id)
	s.logger.Debug("car spawned", "id", id, "direction", d, "x", c.X, "y", c.Y)
	return true
}

func (s *Simulation) Stats() Stats {
	return Stats{
		TotalSpawned: s.registry.TotalSpawned(),
		ActiveCount:  s.registry.ActiveCount(),
		TickIndex:    s.tick,
	}
}

func (s *Simulation) Lights() []LightSnapshot {
	return []LightSnapshot{s.ns.Snapshot(), s.ew.Snapshot()}
}

// PhaseConflict reports whether both axes are GREEN at once. The
// lights are not coordinated beyond their initial states; with equal
// cycles this never happens as long as EW red lasts at least as long
// as NS green.
func (s *Simulation) PhaseConflict() bool {
	return s.ns.State() == Green && s.ew.State() == Green
}

func (s *Simulation) Cars() []Car {
	return s.registry.Active()
}

func (s *Simulation) Geometry() Geometry {
	return s.geometry
}

func (s *Simulation) Config() Config {
	return s.config
}
