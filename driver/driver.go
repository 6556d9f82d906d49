package driver

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/sim"
	"golang.org/x/time/rate"
)

const spawnQueueSize = 16

// Driver ticks a simulation at a fixed frame rate and hands every frame
// to a callback. It owns the simulation for the duration of Run; other
// goroutines reach it only through RequestSpawn.
type Driver struct {
	logger  *log.Logger
	sim     *sim.Simulation
	limiter *rate.Limiter
	spawns  chan sim.Direction
}

// New paces at ticksPerSecond frames per second. A value of zero or
// less runs unpaced.
func New(logger *log.Logger, s *sim.Simulation, ticksPerSecond int) *Driver {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(s)

	limit := rate.Inf
	if ticksPerSecond > 0 {
		limit = rate.Limit(ticksPerSecond)
	}

	return &Driver{
		logger:  logger,
		sim:     s,
		limiter: rate.NewLimiter(limit, 1),
		spawns:  make(chan sim.Direction, spawnQueueSize),
	}
}

// RequestSpawn queues an extra car for the start of the next frame. It
// reports false when the queue is full.
func (d *Driver) RequestSpawn(dir sim.Direction) bool {
	select {
	case d.spawns <- dir:
		return true
	default:
		return false
	}
}

func (d *Driver) drainSpawns() {
	for {
		select {
		case dir := <-d.spawns:
			if !d.sim.SpawnDirection(dir) {
				d.logger.Debug("requested spawn rejected", "direction", dir)
			}
		default:
			return
		}
	}
}

// Run executes totalTicks frames, or frames until ctx is done when
// totalTicks is zero or less. It returns ctx.Err() when cancelled and
// stops at the first error from onFrame.
func (d *Driver) Run(ctx context.Context, totalTicks int, onFrame func(f sim.Frame) error) error {
	assert.AssertNotNil(onFrame)

	d.logger.Debug("run started", "ticks", totalTicks, "limit", d.limiter.Limit())
	for i := 0; totalTicks <= 0 || i < totalTicks; i++ {
		if err := d.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("pace frame: %s", err)
		}

		d.drainSpawns()
		f := d.sim.Tick()
		if err := onFrame(f); err != nil {
			return fmt.Errorf("frame %d: %w", f.Tick, err)
		}
	}

	stats := d.sim.Stats()
	d.logger.Debug("run finished", "ticks", stats.TickIndex, "spawned", stats.TotalSpawned, "active", stats.ActiveCount)
	return nil
}

func (d *Driver) Simulation() *sim.Simulation {
	return d.sim
}
