package driver

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/tifye/crossroads/sim"
)

const (
	MinDurationSeconds      = 1
	MaxDurationSeconds      = 300
	StandardDurationSeconds = 60
	DefaultTicksPerSecond   = 10
)

var (
	ErrInvalidDuration = errors.New("invalid duration")
	ErrNotANumber      = errors.New("not a number")
)

// LoadConfig reads the simulation config from v. Keys that are not set
// fall back to sim.DefaultConfig.
func LoadConfig(v *viper.Viper) (sim.Config, error) {
	def := sim.DefaultConfig()
	v.SetDefault("GRID_WIDTH", def.GridWidth)
	v.SetDefault("GRID_HEIGHT", def.GridHeight)
	v.SetDefault("INTERSECTION_X", def.IntersectionX)
	v.SetDefault("INTERSECTION_Y", def.IntersectionY)
	v.SetDefault("NS_LANE_WIDTH", def.NSLaneWidth)
	v.SetDefault("EW_LANE_WIDTH", def.EWLaneWidth)
	v.SetDefault("NS_GREEN_TICKS", def.NSLight.Green)
	v.SetDefault("NS_YELLOW_TICKS", def.NSLight.Yellow)
	v.SetDefault("NS_RED_TICKS", def.NSLight.Red)
	v.SetDefault("EW_GREEN_TICKS", def.EWLight.Green)
	v.SetDefault("EW_YELLOW_TICKS", def.EWLight.Yellow)
	v.SetDefault("EW_RED_TICKS", def.EWLight.Red)
	v.SetDefault("MAX_CARS", def.MaxCars)
	v.SetDefault("SPAWN_INTERVAL", def.SpawnInterval)

	cfg := sim.Config{
		GridWidth:     v.GetInt("GRID_WIDTH"),
		GridHeight:    v.GetInt("GRID_HEIGHT"),
		IntersectionX: v.GetInt("INTERSECTION_X"),
		IntersectionY: v.GetInt("INTERSECTION_Y"),
		NSLaneWidth:   v.GetInt("NS_LANE_WIDTH"),
		EWLaneWidth:   v.GetInt("EW_LANE_WIDTH"),
		NSLight: sim.LightDurations{
			Green:  v.GetInt("NS_GREEN_TICKS"),
			Yellow: v.GetInt("NS_YELLOW_TICKS"),
			Red:    v.GetInt("NS_RED_TICKS"),
		},
		EWLight: sim.LightDurations{
			Green:  v.GetInt("EW_GREEN_TICKS"),
			Yellow: v.GetInt("EW_YELLOW_TICKS"),
			Red:    v.GetInt("EW_RED_TICKS"),
		},
		MaxCars:       v.GetInt("MAX_CARS"),
		SpawnInterval: v.GetInt("SPAWN_INTERVAL"),
	}

	if err := cfg.Validate(); err != nil {
		return sim.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// RunSettings are the knobs of a single run that are not part of the
// world itself.
type RunSettings struct {
	TicksPerSecond  int
	DurationSeconds int
	// Zero seeds are replaced with random ones.
	Seed1 uint64
	Seed2 uint64
	Debug bool
}

func LoadRunSettings(v *viper.Viper) (RunSettings, error) {
	v.SetDefault("TICKS_PER_SECOND", DefaultTicksPerSecond)
	v.SetDefault("DURATION_SECONDS", StandardDurationSeconds)
	v.SetDefault("SEED1", 0)
	v.SetDefault("SEED2", 0)
	v.SetDefault("DEBUG", false)

	s := RunSettings{
		TicksPerSecond:  v.GetInt("TICKS_PER_SECOND"),
		DurationSeconds: v.GetInt("DURATION_SECONDS"),
		Seed1:           v.GetUint64("SEED1"),
		Seed2:           v.GetUint64("SEED2"),
		Debug:           v.GetBool("DEBUG"),
	}

	if s.TicksPerSecond <= 0 {
		return RunSettings{}, fmt.Errorf("ticks per second must be positive, got %d", s.TicksPerSecond)
	}
	if err := ValidateDuration(s.DurationSeconds); err != nil {
		return RunSettings{}, err
	}

	if s.Seed1 == 0 && s.Seed2 == 0 {
		s.Seed1, s.Seed2 = rand.Uint64(), rand.Uint64()
	}
	return s, nil
}

// Rand returns the source the run spawns from. The same seeds always
// produce the same run.
func (s RunSettings) Rand() *rand.Rand {
	return rand.New(rand.NewPCG(s.Seed1, s.Seed2))
}

// Ticks is the number of frames a run of seconds lasts.
func (s RunSettings) Ticks(seconds int) int {
	return seconds * s.TicksPerSecond
}

func ValidateDuration(seconds int) error {
	if seconds < MinDurationSeconds || seconds > MaxDurationSeconds {
		return fmt.Errorf("%w: %d is outside %d-%d seconds", ErrInvalidDuration, seconds, MinDurationSeconds, MaxDurationSeconds)
	}
	return nil
}

// ParseDuration reads a duration in whole seconds as typed by a user.
func ParseDuration(input string) (int, error) {
	seconds, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, fmt.Errorf("%w: %w: %q", ErrInvalidDuration, ErrNotANumber, input)
	}
	if err := ValidateDuration(seconds); err != nil {
		return 0, err
	}
	return seconds, nil
}
