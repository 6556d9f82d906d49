package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/api"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/stream"
)

type spectatorConfig struct {
	// Chance out of 100 that a new spectator will connect
	ConnectProbability uint
	// Chance out of 100 that an existing spectator will disconnect
	DisconnectProbability uint
	// Chance out of 100 that a disconnect will be called on a
	// spectator that already left
	InvalidDisconnectFaultProbability uint
	// Chance out of 100 that a spectator toggles its frame subscription
	SubscribeProbability   uint
	UnsubscribeProbability uint
}

// inbox records what the hub wrote to one spectator.
type inbox struct {
	mu        sync.Mutex
	frames    int
	snapshots int
	lastTick  int
	err       error
}

func (b *inbox) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var msg stream.Message
	if err := json.Unmarshal(p, &msg); err != nil {
		b.err = fmt.Errorf("unmarshal message: %s", err)
		return len(p), nil
	}

	switch msg.Type {
	case api.MessageTypeFrame:
		var f api.FrameMessage
		if err := json.Unmarshal(msg.Payload, &f); err != nil {
			b.err = fmt.Errorf("unmarshal frame: %s", err)
			return len(p), nil
		}
		if b.frames > 0 && f.Tick <= b.lastTick {
			b.err = violation("frame %d delivered after frame %d", f.Tick, b.lastTick)
		}
		b.lastTick = f.Tick
		b.frames++
	case api.MessageTypeSnapshot:
		b.snapshots++
	default:
		b.err = violation("unexpected message type %q", msg.Type)
	}
	return len(p), nil
}

func (b *inbox) counts() (frames, snapshots int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frames, b.snapshots, b.err
}

type spectator struct {
	id         stream.ID
	inbox      *inbox
	subscribed bool
	// frames expected so far
	wantFrames int
}

// spectatorSimulator connects, subscribes and disconnects spectators at
// random while frames are being published, and checks that each one
// receives exactly the frames published while it was subscribed.
type spectatorSimulator struct {
	logger *log.Logger
	rnd    *rand.Rand

	numConnects           uint
	numDisconnects        uint
	numInvalidDisconnects uint
	numSubscribes         uint
	numUnsubscribes       uint
	numPublished          uint

	config spectatorConfig

	// Kept in slices so a seed always picks the same spectator.
	connected    []*spectator
	disconnected []stream.ID

	hub *stream.Hub
}

func newSpectatorSimulator(
	logger *log.Logger,
	hub *stream.Hub,
	rnd *rand.Rand,
	config spectatorConfig,
) *spectatorSimulator {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(hub)
	assert.AssertNotNil(rnd)

	return &spectatorSimulator{
		logger: logger,
		rnd:    rnd,

		config: config,

		connected:    []*spectator{},
		disconnected: []stream.ID{},

		hub: hub,
	}
}

func (s *spectatorSimulator) String() string {
	return fmt.Sprintf(
		`connectProbability: %d%%
disconnectProbability: %d%%
invalidDisconnectFaultProbability: %d%%
numConnects: %d
numDisconnects: %d
numInvalidDisconnects: %d
numSubscribes: %d
numUnsubscribes: %d
`, s.config.ConnectProbability,
		s.config.DisconnectProbability,
		s.config.InvalidDisconnectFaultProbability,
		s.numConnects,
		s.numDisconnects,
		s.numInvalidDisconnects,
		s.numSubscribes,
		s.numUnsubscribes,
	)
}

// Step changes the spectator population before a frame is published.
func (s *spectatorSimulator) Step() error {
	if Chance(s.rnd, s.config.ConnectProbability) {
		s.connect()
	}

	if Chance(s.rnd, s.config.DisconnectProbability) {
		if Chance(s.rnd, s.config.InvalidDisconnectFaultProbability) {
			s.invalidDisconnect()
		} else {
			s.disconnect()
		}
	}

	if Chance(s.rnd, s.config.SubscribeProbability) {
		if err := s.toggle(true); err != nil {
			return err
		}
	}
	if Chance(s.rnd, s.config.UnsubscribeProbability) {
		if err := s.toggle(false); err != nil {
			return err
		}
	}

	if s.hub.Count() != len(s.connected) {
		return violation("hub has %d spectators, expected %d", s.hub.Count(), len(s.connected))
	}
	return nil
}

// Published records that a frame went out and checks every inbox.
func (s *spectatorSimulator) Published() error {
	s.numPublished++
	for _, sp := range s.connected {
		if sp.subscribed {
			sp.wantFrames++
		}

		frames, _, err := sp.inbox.counts()
		if err != nil {
			return fmt.Errorf("spectator %s: %w", sp.id, err)
		}
		if frames != sp.wantFrames {
			return violation("spectator %s got %d frames, expected %d", sp.id, frames, sp.wantFrames)
		}
	}
	return nil
}

func (s *spectatorSimulator) connect() {
	in := &inbox{}
	id := s.hub.Connect(in)
	s.connected = append(s.connected, &spectator{id: id, inbox: in})

	s.logger.Debug("Spectator connected", "id", id)
	s.numConnects += 1
}

func (s *spectatorSimulator) pick() (int, *spectator) {
	if len(s.connected) == 0 {
		return -1, nil
	}

	n := s.rnd.IntN(len(s.connected))
	return n, s.connected[n]
}

func (s *spectatorSimulator) disconnect() {
	n, sp := s.pick()
	if sp == nil {
		s.logger.Debug("No spectators to disconnect")
		return
	}

	s.hub.Disconnect(sp.id)

	last := len(s.connected) - 1
	s.connected[n] = s.connected[last]
	s.connected[last] = nil
	s.connected = s.connected[:last]
	s.disconnected = append(s.disconnected, sp.id)

	s.logger.Debug("Spectator disconnected", "id", sp.id)
	s.numDisconnects += 1
}

func (s *spectatorSimulator) invalidDisconnect() {
	if len(s.disconnected) == 0 {
		return
	}

	id := s.disconnected[s.rnd.IntN(len(s.disconnected))]
	s.hub.Disconnect(id)

	s.numInvalidDisconnects += 1
}

// toggle subscribes or unsubscribes a random spectator to frames.
// Subscribing also delivers a baseline snapshot.
func (s *spectatorSimulator) toggle(subscribe bool) error {
	_, sp := s.pick()
	if sp == nil {
		return nil
	}

	action := "hub:unsubscribe"
	if subscribe {
		action = "hub:subscribe"
	}
	msg := fmt.Sprintf(`{"type":%q,"payload":{"messageType":%q}}`, action, api.MessageTypeFrame)

	_, snapshotsBefore, _ := sp.inbox.counts()
	if err := s.hub.Message(sp.id, []byte(msg)); err != nil {
		return fmt.Errorf("%s %s: %w", action, sp.id, err)
	}
	_, snapshotsAfter, _ := sp.inbox.counts()

	switch {
	case subscribe && !sp.subscribed:
		s.numSubscribes++
		if s.numPublished > 0 && snapshotsAfter != snapshotsBefore+1 {
			return violation("spectator %s subscribed without a baseline snapshot", sp.id)
		}
	case !subscribe && sp.subscribed:
		s.numUnsubscribes++
	default:
		if snapshotsAfter != snapshotsBefore {
			return violation("spectator %s got a snapshot for a repeated %s", sp.id, action)
		}
	}

	sp.subscribed = subscribe
	if sub := s.hub.Spectator(sp.id).IsSubscribedTo(api.MessageTypeFrame); sub != subscribe {
		return violation("spectator %s subscription is %t, expected %t", sp.id, sub, subscribe)
	}
	return nil
}
