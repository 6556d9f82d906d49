package driver

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tifye/crossroads/sim"
)

// eastOnly always rolls sim.East.
type eastOnly struct{}

func (eastOnly) IntN(int) int { return int(sim.East) }

func newTestDriver(t *testing.T, tps int) *Driver {
	t.Helper()
	s, err := sim.New(sim.DefaultConfig(), RunSettings{Seed1: 1, Seed2: 2}.Rand())
	require.NoError(t, err)
	return New(log.New(io.Discard), s, tps)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(viper.New())
	require.NoError(t, err)
	assert.Equal(t, sim.DefaultConfig(), cfg)
}

func TestLoadConfigOverrides(t *testing.T) {
	v := viper.New()
	v.Set("MAX_CARS", 12)
	v.Set("EW_GREEN_TICKS", 30)
	v.Set("SPAWN_INTERVAL", "7")

	cfg, err := LoadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.MaxCars)
	assert.Equal(t, 30, cfg.EWLight.Green)
	assert.Equal(t, 7, cfg.SpawnInterval)
	assert.Equal(t, sim.DefaultConfig().NSLight, cfg.NSLight)
}

func TestLoadConfigInvalid(t *testing.T) {
	v := viper.New()
	v.Set("NS_YELLOW_TICKS", 0)
	v.Set("MAX_CARS", -1)

	_, err := LoadConfig(v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sim.ErrInvalidConfig))
}

func TestLoadRunSettings(t *testing.T) {
	v := viper.New()
	v.Set("SEED1", 42)
	v.Set("SEED2", 7)

	s, err := LoadRunSettings(v)
	require.NoError(t, err)
	assert.Equal(t, DefaultTicksPerSecond, s.TicksPerSecond)
	assert.Equal(t, StandardDurationSeconds, s.DurationSeconds)
	assert.Equal(t, uint64(42), s.Seed1)
	assert.Equal(t, uint64(7), s.Seed2)
	assert.Equal(t, 600, s.Ticks(s.DurationSeconds))
}

func TestLoadRunSettingsRandomSeeds(t *testing.T) {
	s, err := LoadRunSettings(viper.New())
	require.NoError(t, err)
	assert.False(t, s.Seed1 == 0 && s.Seed2 == 0)
}

func TestLoadRunSettingsInvalid(t *testing.T) {
	v := viper.New()
	v.Set("DURATION_SECONDS", 301)
	_, err := LoadRunSettings(v)
	assert.True(t, errors.Is(err, ErrInvalidDuration))

	v = viper.New()
	v.Set("TICKS_PER_SECOND", 0)
	_, err = LoadRunSettings(v)
	assert.Error(t, err)
}

func TestValidateDuration(t *testing.T) {
	tests := []struct {
		seconds int
		valid   bool
	}{
		{seconds: 0, valid: false},
		{seconds: 1, valid: true},
		{seconds: 60, valid: true},
		{seconds: 300, valid: true},
		{seconds: 301, valid: false},
		{seconds: -5, valid: false},
	}

	for _, tt := range tests {
		err := ValidateDuration(tt.seconds)
		if tt.valid {
			assert.NoError(t, err, "seconds=%d", tt.seconds)
		} else {
			assert.ErrorIs(t, err, ErrInvalidDuration, "seconds=%d", tt.seconds)
		}
	}
}

func TestParseDuration(t *testing.T) {
	seconds, err := ParseDuration(" 45\n")
	require.NoError(t, err)
	assert.Equal(t, 45, seconds)

	_, err = ParseDuration("forty")
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.ErrorIs(t, err, ErrNotANumber)

	_, err = ParseDuration("500")
	assert.ErrorIs(t, err, ErrInvalidDuration)
	assert.NotErrorIs(t, err, ErrNotANumber)
}

func TestSameSeedsSameRun(t *testing.T) {
	run := func() []sim.Stats {
		d := newTestDriver(t, 0)
		var stats []sim.Stats
		err := d.Run(context.Background(), 500, func(f sim.Frame) error {
			stats = append(stats, f.Stats)
			return nil
		})
		require.NoError(t, err)
		return stats
	}

	assert.Equal(t, run(), run())
}

func TestDriverRunsTotalTicks(t *testing.T) {
	d := newTestDriver(t, 0)

	var ticks []int
	err := d.Run(context.Background(), 25, func(f sim.Frame) error {
		ticks = append(ticks, f.Tick)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, ticks, 25)
	for i, tick := range ticks {
		assert.Equal(t, i, tick)
	}
	assert.Equal(t, 25, d.Simulation().Stats().TickIndex)
}

func TestDriverEndlessStopsOnCancel(t *testing.T) {
	d := newTestDriver(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	frames := 0
	err := d.Run(ctx, 0, func(f sim.Frame) error {
		frames++
		if frames == 100 {
			cancel()
		}
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 100, frames)
}

func TestDriverStopsOnFrameError(t *testing.T) {
	d := newTestDriver(t, 0)
	boom := errors.New("boom")

	err := d.Run(context.Background(), 10, func(f sim.Frame) error {
		if f.Tick == 3 {
			return boom
		}
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 4, d.Simulation().Stats().TickIndex)
}

func TestDriverPacesFrames(t *testing.T) {
	d := newTestDriver(t, 100)

	start := time.Now()
	err := d.Run(context.Background(), 11, func(sim.Frame) error { return nil })
	require.NoError(t, err)

	// The first frame is free, the other ten wait 10ms each.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestDriverRequestSpawn(t *testing.T) {
	cfg := sim.DefaultConfig()
	cfg.SpawnInterval = 1000
	s, err := sim.New(cfg, eastOnly{})
	require.NoError(t, err)
	d := New(log.New(io.Discard), s, 0)

	require.True(t, d.RequestSpawn(sim.West))
	require.True(t, d.RequestSpawn(sim.North))

	// Tick 0 spawns eastbound on its own, the two requests come on top.
	err = d.Run(context.Background(), 1, func(f sim.Frame) error {
		assert.Equal(t, 3, f.Stats.TotalSpawned)
		return nil
	})
	require.NoError(t, err)
}

func TestDriverRequestSpawnQueueFull(t *testing.T) {
	d := newTestDriver(t, 0)
	for range spawnQueueSize {
		require.True(t, d.RequestSpawn(sim.East))
	}
	assert.False(t, d.RequestSpawn(sim.East))
}
