package main

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

func TestCleanup(t *testing.T) {
	expected := []int{4, 3, 2, 1, 0}
	out := []int{}
	cfs := CleanupFuncs{}
	for i := range 5 {
		cfs.Defer(func() error {
			out = append(out, i)
			return nil
		})
	}

	err := cfs.Cleanup()
	assert.NoError(t, err)

	require.Len(t, out, 5)
	for i := range expected {
		assert.Equal(t, expected[i], out[i])
	}

	assert.NoError(t, cfs.Cleanup(), "cleanup funcs run once")
	assert.Len(t, out, 5)
}

func TestCleanupJoinsErrors(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	cfs := CleanupFuncs{}
	cfs.Defer(func() error { return errA })
	cfs.Defer(func() error { return nil })
	cfs.DeferShutdown(time.Second, func(ctx context.Context) error {
		_, ok := ctx.Deadline()
		assert.True(t, ok)
		return errB
	})

	err := cfs.Cleanup()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
}

func TestInitDependencies(t *testing.T) {
	config := viper.New()
	config.Set("TICKS_PER_SECOND", 200)
	config.Set("SEED1", 1)
	config.Set("SEED2", 2)

	deps, cfs, err := initDependencies(context.Background(), log.New(io.Discard), config)
	require.NoError(t, err)
	require.NotNil(t, deps)

	assert.False(t, deps.Auth.Enabled())
	require.Eventually(t, func() bool {
		snap, ok := deps.Snapshots.Latest()
		return ok && snap.Frame.Tick >= 5
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, deps.Spawner.RequestSpawn(sim.East))
	assert.NoError(t, cfs.Cleanup())
}

func TestInitDependenciesInvalidConfig(t *testing.T) {
	config := viper.New()
	config.Set("NS_LANE_WIDTH", 2)

	_, _, err := initDependencies(context.Background(), log.New(io.Discard), config)
	assert.ErrorIs(t, err, sim.ErrInvalidConfig)
}
