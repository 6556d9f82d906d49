package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/display"
	"github.com/tifye/crossroads/sim"
	"github.com/tifye/crossroads/stream"
)

const latestKey = "latest"

// Snapshot is the state of the world after one frame, ready to serve.
type Snapshot struct {
	// RunID changes whenever the server restarts its simulation, which
	// also resets the tick counter.
	RunID string       `json:"runId"`
	Frame FrameMessage `json:"frame"`
	Cars  []sim.Car    `json:"cars"`
	// Grid is the plain rendering of the intersection.
	Grid string `json:"grid"`
	// Status is the plain light and car summary.
	Status     string    `json:"status"`
	Geometry   Geometry  `json:"geometry"`
	RecordedAt time.Time `json:"recordedAt"`
}

type Geometry struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SnapshotStore holds the most recent snapshot. A snapshot that is not
// replaced within the TTL expires, so a stalled simulation reads as
// unavailable rather than frozen.
type SnapshotStore struct {
	cache *cache.Cache
}

func NewSnapshotStore(ttl time.Duration) *SnapshotStore {
	assert.Assert(ttl > 0, "snapshot ttl must be positive")
	return &SnapshotStore{
		cache: cache.New(ttl, 2*ttl),
	}
}

func (s *SnapshotStore) Put(snap Snapshot) {
	s.cache.Set(latestKey, snap, cache.DefaultExpiration)
}

func (s *SnapshotStore) Latest() (Snapshot, bool) {
	v, ok := s.cache.Get(latestKey)
	if !ok {
		return Snapshot{}, false
	}
	snap, ok := v.(Snapshot)
	assert.Assert(ok, fmt.Sprintf("unexpected snapshot type %T", v))
	return snap, true
}

// Publisher turns frames into snapshots and broadcasts them to
// spectators. It must be called from the goroutine driving the
// simulation.
type Publisher struct {
	logger  *log.Logger
	runID   uuid.UUID
	store   *SnapshotStore
	hub     *stream.Hub
	canvas  *display.Canvas
	palette display.Palette
	geom    Geometry
}

func NewPublisher(logger *log.Logger, store *SnapshotStore, hub *stream.Hub, g sim.Geometry) *Publisher {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(store)
	assert.AssertNotNil(hub)

	palette := display.PlainPalette()
	runID := uuid.New()
	logger.Info("publishing run", "runId", runID)
	return &Publisher{
		logger:  logger,
		runID:   runID,
		store:   store,
		hub:     hub,
		canvas:  display.NewCanvas(g, palette),
		palette: palette,
		geom:    Geometry{Width: g.Width, Height: g.Height},
	}
}

func (p *Publisher) RunID() uuid.UUID {
	return p.runID
}

func (p *Publisher) Publish(f sim.Frame, cars []sim.Car) error {
	p.canvas.Apply(f.Events)

	snap := Snapshot{
		RunID:      p.runID.String(),
		Frame:      newFrameMessage(f),
		Cars:       cars,
		Grid:       p.canvas.PlainView(),
		Status:     strings.Join(display.StatusLines(p.palette, f.Lights, f.Stats), "\n"),
		Geometry:   p.geom,
		RecordedAt: time.Now(),
	}
	p.store.Put(snap)

	payload, err := json.Marshal(snap.Frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %s", err)
	}
	if err := p.hub.Broadcast(MessageTypeFrame, payload, nil); err != nil {
		return fmt.Errorf("broadcast frame: %s", err)
	}
	return nil
}
