package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/assert"
	"github.com/tifye/crossroads/stream"
)

const (
	MessageTypeFrame    stream.MessageType = "frame"
	MessageTypeSnapshot stream.MessageType = "snapshot"
)

var ErrNoSnapshot = errors.New("no snapshot available")

// RegisterSpectatorHandlers wires the frame and snapshot message types
// into hub. A spectator that subscribes to frames first receives a full
// snapshot so later frame events have a grid to apply to.
func RegisterSpectatorHandlers(logger *log.Logger, hub *stream.Hub, store *SnapshotStore) {
	assert.AssertNotNil(logger)
	assert.AssertNotNil(hub)
	assert.AssertNotNil(store)

	sendSnapshot := func(s *stream.Spectator) error {
		snap, ok := store.Latest()
		if !ok {
			return ErrNoSnapshot
		}
		payload, err := json.Marshal(snap)
		if err != nil {
			return fmt.Errorf("marshal snapshot: %s", err)
		}
		return hub.Send(s.ID(), MessageTypeSnapshot, payload)
	}

	hub.RegisterHandler(MessageTypeFrame, stream.HandlerFunc(func(s *stream.Spectator, _ []byte) error {
		snap, ok := store.Latest()
		if !ok {
			return ErrNoSnapshot
		}
		payload, err := json.Marshal(snap.Frame)
		if err != nil {
			return fmt.Errorf("marshal frame: %s", err)
		}
		return hub.Send(s.ID(), MessageTypeFrame, payload)
	}))

	hub.RegisterHandler(MessageTypeSnapshot, stream.HandlerFunc(func(s *stream.Spectator, _ []byte) error {
		return sendSnapshot(s)
	}))

	hub.AddSubscriptionHook(MessageTypeFrame, func(s *stream.Spectator, _ stream.MessageType, didSub bool) {
		if !didSub {
			return
		}
		if err := sendSnapshot(s); err != nil {
			logger.Debug("baseline snapshot", "id", s.ID(), "err", err)
		}
	})

	hub.AddConnectHook(func(s *stream.Spectator) {
		logger.Info("spectator joined", "id", s.ID(), "spectators", hub.Count())
	})
	hub.AddDisconnectHook(func(s *stream.Spectator) {
		logger.Info("spectator left", "id", s.ID(), "spectators", hub.Count())
	})
}
