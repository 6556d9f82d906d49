package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/tifye/crossroads/assert"
)

var (
	idSeed = [...]byte{41, 7, 203, 88, 150, 12, 99, 244, 3, 178, 61, 230, 17, 95, 140, 66, 201, 33, 8, 127, 190, 54, 222, 71, 13, 168, 249, 36, 105, 84, 159, 2}

	ErrMessageTooLarge  = errors.New("message too large")
	ErrUnknownSpectator = errors.New("spectator does not exist")
)

const (
	MessageSizeLimit  = 65_535
	MaxMessageTypeLen = 16

	hubMessageTypePrefix = "hub:"
	subscribeMessage     = "subscribe"
	unsubscribeMessage   = "unsubscribe"
)

type MessageType = string

type Handler interface {
	HandleMessage(s *Spectator, payload []byte) error
}

type HandlerFunc func(s *Spectator, payload []byte) error

func (f HandlerFunc) HandleMessage(s *Spectator, payload []byte) error {
	return f(s, payload)
}

type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitzero,omitempty"`
}

// Hub fans simulation messages out to spectators. Spectators subscribe
// to a message type with a "hub:subscribe" message and receive every
// broadcast of that type until they unsubscribe or disconnect. Any other
// message type is routed to the handler registered for it.
type Hub struct {
	*hooks
	logger *log.Logger

	rndMu sync.Mutex
	rnd   *rand.ChaCha8

	mu            sync.RWMutex
	spectators    map[ID]*Spectator
	subscriptions map[MessageType][]*Spectator
	handlers      map[MessageType]Handler
}

func NewHub(logger *log.Logger) *Hub {
	assert.AssertNotNil(logger)
	return &Hub{
		hooks:         newHooks(),
		logger:        logger,
		rnd:           rand.NewChaCha8(idSeed),
		spectators:    map[ID]*Spectator{},
		subscriptions: map[MessageType][]*Spectator{},
		handlers:      map[MessageType]Handler{},
	}
}

func (h *Hub) RegisterHandler(typ MessageType, handler Handler) {
	assert.AssertNotNil(handler)
	assert.AssertNotEmpty(typ)
	assert.Assert(len(typ) <= MaxMessageTypeLen, "message type too long")
	assert.Assert(!strings.HasPrefix(typ, hubMessageTypePrefix), "message type uses the reserved hub prefix")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, exists := h.handlers[typ]
	assert.Assert(!exists, "handler already registered for this MessageType")
	h.handlers[typ] = handler
}

// Connect adds a spectator writing to writer and returns its ID.
// Connect hooks are called after the spectator is added.
func (h *Hub) Connect(writer io.Writer) ID {
	id := ID{}
	h.rndMu.Lock()
	_, _ = h.rnd.Read(id[:])
	h.rndMu.Unlock()

	s := newSpectator(id, writer)

	h.mu.Lock()
	_, exists := h.spectators[id]
	assert.Assert(!exists, fmt.Sprintf("spectator %s already connected", id))
	h.spectators[id] = s
	h.mu.Unlock()

	h.logger.Debug("spectator connected", "id", id)
	h.runConnectHooks(s)
	return id
}

// Disconnect removes a spectator and all its subscriptions. It is a
// noop for an unknown ID.
//
// Disconnect hooks are called after the spectator is removed.
func (h *Hub) Disconnect(id ID) {
	h.mu.Lock()
	s, ok := h.spectators[id]
	if !ok {
		h.mu.Unlock()
		return
	}
	delete(h.spectators, id)
	for typ, subs := range h.subscriptions {
		h.subscriptions[typ] = slices.DeleteFunc(subs, func(o *Spectator) bool {
			return o.ID() == id
		})
	}
	h.mu.Unlock()

	h.logger.Debug("spectator disconnected", "id", id)
	h.runDisconnectHooks(s)
}

func (h *Hub) Spectator(id ID) *Spectator {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.spectators[id]
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.spectators)
}

// Message handles one raw message received from a spectator.
func (h *Hub) Message(id ID, data []byte) error {
	assert.AssertNotNil(data)

	s := h.Spectator(id)
	if s == nil {
		return ErrUnknownSpectator
	}

	if len(data) > MessageSizeLimit {
		return fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("unmarshal message: %s", err)
	}

	if len(msg.Type) == 0 {
		return fmt.Errorf("no message type provided")
	}
	if len(msg.Type) > MaxMessageTypeLen {
		return fmt.Errorf("message type too long, expect length of %d but got %d", MaxMessageTypeLen, len(msg.Type))
	}

	h.logger.Debug("message", "id", id, "type", msg.Type)

	if strings.HasPrefix(msg.Type, hubMessageTypePrefix) {
		return h.handleHubMessage(s, msg)
	}
	return h.handleMessage(s, msg)
}

type subscriptionMessage struct {
	MessageType MessageType `json:"messageType"`
}

func (h *Hub) handleHubMessage(s *Spectator, msg Message) error {
	assert.AssertNotNil(s)

	action := strings.TrimPrefix(msg.Type, hubMessageTypePrefix)
	var sub subscriptionMessage
	if err := json.Unmarshal(msg.Payload, &sub); err != nil {
		return fmt.Errorf("unmarshal %s message: %s", action, err)
	}
	if len(sub.MessageType) == 0 {
		return fmt.Errorf("no MessageType provided to %s", action)
	}

	switch action {
	case subscribeMessage:
		h.mu.Lock()
		_, handlerExists := h.handlers[sub.MessageType]
		if !handlerExists {
			h.mu.Unlock()
			h.logger.Warn("subscribe on MessageType with no registered handler", "messageType", sub.MessageType, "id", s.ID())
			return nil
		}
		added := s.addSubscription(sub.MessageType)
		if added {
			h.subscriptions[sub.MessageType] = append(h.subscriptions[sub.MessageType], s)
		}
		h.mu.Unlock()

		if added {
			h.runSubscriptionHooks(s, sub.MessageType, true)
		}
	case unsubscribeMessage:
		h.mu.Lock()
		removed := s.removeSubscription(sub.MessageType)
		if removed {
			h.subscriptions[sub.MessageType] = slices.DeleteFunc(h.subscriptions[sub.MessageType], func(o *Spectator) bool {
				return o.ID() == s.ID()
			})
		}
		h.mu.Unlock()

		if removed {
			h.runSubscriptionHooks(s, sub.MessageType, false)
		}
	default:
		return fmt.Errorf("unknown hub action: %s", action)
	}

	return nil
}

func (h *Hub) handleMessage(s *Spectator, msg Message) error {
	h.mu.RLock()
	handler, ok := h.handlers[msg.Type]
	h.mu.RUnlock()

	if !ok {
		h.logger.Warn("no handler for message type", "messageType", msg.Type, "id", s.ID())
		return nil
	}

	if err := handler.HandleMessage(s, msg.Payload); err != nil {
		return fmt.Errorf("handler[%s]: %s", msg.Type, err)
	}
	return nil
}

func (h *Hub) Subscribers(typ MessageType) []*Spectator {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]*Spectator, len(h.subscriptions[typ]))
	copy(subs, h.subscriptions[typ])
	return subs
}

func encode(typ MessageType, payload []byte) ([]byte, error) {
	assert.AssertNotEmpty(typ)
	assert.Assert(len(typ) <= MaxMessageTypeLen, "message type too long")

	data, err := json.Marshal(Message{Type: typ, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("json marshal: %s", err)
	}
	if len(data) > MessageSizeLimit {
		return nil, fmt.Errorf("%w: %d bytes", ErrMessageTooLarge, len(data))
	}
	return data, nil
}

// Send writes a message to one spectator regardless of its
// subscriptions.
func (h *Hub) Send(id ID, typ MessageType, payload []byte) error {
	s := h.Spectator(id)
	if s == nil {
		return ErrUnknownSpectator
	}

	data, err := encode(typ, payload)
	if err != nil {
		return err
	}

	if err := s.write(data); err != nil {
		return fmt.Errorf("write to %s: %s", id, err)
	}
	return nil
}

// Broadcast writes a message to every spectator subscribed to typ,
// skipping those for which exclude returns true. A failed write is
// logged and does not stop the broadcast.
func (h *Hub) Broadcast(typ MessageType, payload []byte, exclude func(s *Spectator) bool) error {
	data, err := encode(typ, payload)
	if err != nil {
		return err
	}

	if exclude == nil {
		exclude = func(_ *Spectator) bool { return false }
	}

	for _, s := range h.Subscribers(typ) {
		assert.AssertNotNil(s)
		if exclude(s) {
			continue
		}

		if err := s.write(data); err != nil {
			h.logger.Warn("write to spectator", "id", s.ID(), "err", err)
		}
	}

	return nil
}
