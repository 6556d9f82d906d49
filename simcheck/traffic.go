package main

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/display"
	"github.com/tifye/crossroads/sim"
)

var ErrInvariant = errors.New("invariant violated")

type trafficConfig struct {
	// Chance out of 100 that an extra car is requested before a tick,
	// on top of the regular spawn interval.
	ExtraSpawnProbability uint
}

// trafficSimulator drives one simulation and checks every frame it
// produces against the world rules.
type trafficSimulator struct {
	logger *log.Logger
	rnd    *rand.Rand
	config trafficConfig

	sim    *sim.Simulation
	canvas *display.Canvas

	numTicks            uint
	numExtraSpawns      uint
	numRejectedSpawns   uint
	numHeldAtRed        uint
	numConflictingTicks uint
}

func newTrafficSimulator(logger *log.Logger, s *sim.Simulation, rnd *rand.Rand, config trafficConfig) *trafficSimulator {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(s)
	assert.AssertNotNil(rnd)

	return &trafficSimulator{
		logger: logger,
		rnd:    rnd,
		config: config,
		sim:    s,
		canvas: display.NewCanvas(s.Geometry(), display.PlainPalette()),
	}
}

func (s *trafficSimulator) String() string {
	return fmt.Sprintf(
		`extraSpawnProbability: %d%%
numTicks: %d
numExtraSpawns: %d
numRejectedSpawns: %d
numHeldAtRed: %d
numConflictingTicks: %d
`, s.config.ExtraSpawnProbability,
		s.numTicks,
		s.numExtraSpawns,
		s.numRejectedSpawns,
		s.numHeldAtRed,
		s.numConflictingTicks,
	)
}

// Step optionally injects a car, runs one tick and checks the result.
func (s *trafficSimulator) Step() (sim.Frame, error) {
	if Chance(s.rnd, s.config.ExtraSpawnProbability) {
		d := sim.Directions[s.rnd.IntN(len(sim.Directions))]
		if s.sim.SpawnDirection(d) {
			s.numExtraSpawns++
			s.logger.Debug("extra car", "direction", d)
		} else {
			s.numRejectedSpawns++
		}
	}

	before := s.sim.Stats()
	prev := s.sim.Cars()
	f := s.sim.Tick()
	cur := s.sim.Cars()
	s.numTicks++

	s.canvas.Apply(f.Events)
	if f.SpawnAttempted && !f.Spawned {
		s.numRejectedSpawns++
	}
	if s.sim.PhaseConflict() {
		s.numConflictingTicks++
	}

	g := s.sim.Geometry()
	cfg := s.sim.Config()
	err := errors.Join(
		checkStats(before, f, cur, cfg.MaxCars),
		checkPlacement(g, cur),
		checkSteps(g, f.Lights, prev, cur, &s.numHeldAtRed),
		checkCanvas(g, s.canvas, cur),
		checkPhases(cfg, s.sim.PhaseConflict()),
	)
	if err != nil {
		return f, fmt.Errorf("tick %d: %w", f.Tick, err)
	}
	return f, nil
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
}

func checkStats(before sim.Stats, f sim.Frame, cur []sim.Car, maxCars int) error {
	var errs []error
	if f.Stats.TickIndex != before.TickIndex+1 {
		errs = append(errs, violation("tick index went from %d to %d", before.TickIndex, f.Stats.TickIndex))
	}
	if f.Stats.TotalSpawned < before.TotalSpawned {
		errs = append(errs, violation("total spawned went down from %d to %d", before.TotalSpawned, f.Stats.TotalSpawned))
	}
	if f.Stats.ActiveCount != len(cur) {
		errs = append(errs, violation("active count %d but %d active cars", f.Stats.ActiveCount, len(cur)))
	}
	if f.Stats.ActiveCount > maxCars {
		errs = append(errs, violation("%d active cars exceeds max of %d", f.Stats.ActiveCount, maxCars))
	}
	if f.Stats.ActiveCount > f.Stats.TotalSpawned {
		errs = append(errs, violation("%d active cars but only %d ever spawned", f.Stats.ActiveCount, f.Stats.TotalSpawned))
	}
	return errors.Join(errs...)
}

// checkPlacement verifies every active car is on the grid and no two
// cars share a cell.
func checkPlacement(g sim.Geometry, cars []sim.Car) error {
	var errs []error
	seen := make(map[[2]int]int, len(cars))
	for _, c := range cars {
		if !g.InBounds(c.X, c.Y) {
			errs = append(errs, violation("car %d out of bounds at (%d,%d)", c.ID, c.X, c.Y))
		}
		pos := [2]int{c.X, c.Y}
		if other, ok := seen[pos]; ok {
			errs = append(errs, violation("cars %d and %d share (%d,%d)", other, c.ID, c.X, c.Y))
		}
		seen[pos] = c.ID
	}
	return errors.Join(errs...)
}

// checkSteps compares each car that was active before the tick with
// itself after it. A car moves at most one cell along its direction,
// never enters the intersection from its stop line on RED, and never
// loses its crossed flag.
func checkSteps(g sim.Geometry, lights []sim.LightSnapshot, prev, cur []sim.Car, heldAtRed *uint) error {
	after := make(map[int]sim.Car, len(cur))
	for _, c := range cur {
		after[c.ID] = c
	}

	red := map[sim.Axis]bool{}
	for _, l := range lights {
		red[l.Axis] = l.State == sim.Red
	}

	var errs []error
	for _, p := range prev {
		c, ok := after[p.ID]
		if !ok {
			dx, dy := p.Direction.Delta()
			if g.InBounds(p.X+dx, p.Y+dy) {
				errs = append(errs, violation("car %d retired at (%d,%d) before reaching the edge", p.ID, p.X, p.Y))
			}
			continue
		}
		if c.Direction != p.Direction {
			errs = append(errs, violation("car %d turned from %s to %s", p.ID, p.Direction, c.Direction))
			continue
		}

		dx, dy := p.Direction.Delta()
		moved := c.X != p.X || c.Y != p.Y
		if moved && (c.X != p.X+dx || c.Y != p.Y+dy) {
			errs = append(errs, violation("car %d jumped from (%d,%d) to (%d,%d)", p.ID, p.X, p.Y, c.X, c.Y))
		}
		if p.HasCrossed && !c.HasCrossed {
			errs = append(errs, violation("car %d lost its crossed flag", p.ID))
		}

		atStop := !p.HasCrossed && !g.IsInIntersection(p.X, p.Y) && g.IsAtStopLine(p.Direction, p.X, p.Y)
		if atStop && red[p.Direction.Axis()] {
			if moved {
				errs = append(errs, violation("car %d ran the red light at (%d,%d)", p.ID, p.X, p.Y))
			} else {
				*heldAtRed++
			}
		}
	}
	return errors.Join(errs...)
}

// checkCanvas verifies that replaying frame events alone reproduces
// the world: every car cell shows its car and every other cell shows
// the background.
func checkCanvas(g sim.Geometry, canvas *display.Canvas, cars []sim.Car) error {
	occupied := make(map[[2]int]sim.Car, len(cars))
	for _, c := range cars {
		occupied[[2]int{c.X, c.Y}] = c
	}

	var errs []error
	for y := range g.Height {
		for x := range g.Width {
			glyph, class := canvas.At(x, y)
			c, ok := occupied[[2]int{x, y}]
			wantGlyph, wantClass := g.CharAt(x, y), sim.Background
			if ok {
				wantGlyph, wantClass = c.Glyph(), g.Zone(c)
			}
			if glyph != wantGlyph || class != wantClass {
				errs = append(errs, violation("canvas (%d,%d) shows %q %s, want %q %s", x, y, glyph, class, wantGlyph, wantClass))
			}
		}
	}
	return errors.Join(errs...)
}

// checkPhases only applies when both lights share a cycle length and
// east-west stays red for at least the north-south green. The green
// phases can then never overlap.
func checkPhases(cfg sim.Config, conflict bool) error {
	if !phasesExclusive(cfg) {
		return nil
	}
	if conflict {
		return violation("both axes green with exclusive phases")
	}
	return nil
}

func phasesExclusive(cfg sim.Config) bool {
	return cfg.NSLight.Cycle() == cfg.EWLight.Cycle() && cfg.EWLight.Red >= cfg.NSLight.Green
}
