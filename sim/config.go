package sim

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid simulation config")

const (
	// Lanes sit two cells inside their borders, which needs a half
	// width of at least two for the lane to stay inside the road.
	MinLaneWidth = 4

	// Entry cells are two cells in from the grid edge and must stay
	// strictly before the stop line on every approach.
	minBorderMargin = 4
)

type LightDurations struct {
	Green  int
	Yellow int
	Red    int
}

// Cycle is the number of ticks a light takes to return to its
// starting state.
func (d LightDurations) Cycle() int {
	return d.Green + d.Yellow + d.Red
}

type Config struct {
	GridWidth     int
	GridHeight    int
	IntersectionX int
	IntersectionY int
	NSLaneWidth   int
	EWLaneWidth   int

	NSLight LightDurations
	EWLight LightDurations

	MaxCars int
	// Ticks between spawn attempts. Tick 0 always attempts a spawn.
	SpawnInterval int
}

func DefaultLightDurations() LightDurations {
	return LightDurations{
		Green:  50,
		Yellow: 10,
		Red:    50,
	}
}

func DefaultConfig() Config {
	return Config{
		GridWidth:     80,
		GridHeight:    24,
		IntersectionX: 40,
		IntersectionY: 12,
		NSLaneWidth:   6,
		EWLaneWidth:   4,
		NSLight:       DefaultLightDurations(),
		EWLight:       DefaultLightDurations(),
		MaxCars:       50,
		SpawnInterval: 30,
	}
}

// Validate reports every precondition the config violates. The
// returned error wraps ErrInvalidConfig.
func (c Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.GridWidth <= 0 || c.GridHeight <= 0 {
		invalid("grid must have positive dimensions, got %dx%d", c.GridWidth, c.GridHeight)
	}
	if c.NSLaneWidth < MinLaneWidth {
		invalid("north-south lane width must be at least %d, got %d", MinLaneWidth, c.NSLaneWidth)
	}
	if c.EWLaneWidth < MinLaneWidth {
		invalid("east-west lane width must be at least %d, got %d", MinLaneWidth, c.EWLaneWidth)
	}
	validateDurations := func(axis Axis, d LightDurations) {
		if d.Green <= 0 || d.Yellow <= 0 || d.Red <= 0 {
			invalid("%s light durations must be positive, got green=%d yellow=%d red=%d", axis, d.Green, d.Yellow, d.Red)
		}
	}
	validateDurations(AxisNS, c.NSLight)
	validateDurations(AxisEW, c.EWLight)
	if c.MaxCars <= 0 {
		invalid("max cars must be positive, got %d", c.MaxCars)
	}
	if c.SpawnInterval <= 0 {
		invalid("spawn interval must be positive, got %d", c.SpawnInterval)
	}

	if len(errs) == 0 {
		g := newGeometry(c)
		if g.LeftBorder < minBorderMargin || g.RightBorder > c.GridWidth-1-minBorderMargin {
			invalid("intersection at x=%d with lane width %d does not fit a %d wide grid", c.IntersectionX, c.NSLaneWidth, c.GridWidth)
		}
		if g.TopBorder < minBorderMargin || g.BottomBorder > c.GridHeight-1-minBorderMargin {
			invalid("intersection at y=%d with lane width %d does not fit a %d high grid", c.IntersectionY, c.EWLaneWidth, c.GridHeight)
		}
	}

	return errors.Join(errs...)
}
