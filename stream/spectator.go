package stream

import (
	"encoding/hex"
	"io"
	"slices"
	"sync"

	"github.com/tifye/crossroads/assert"
)

type ID [16]byte

func (id ID) String() string {
	return hex.EncodeToString(id[:8])
}

// Spectator is one connected viewer. Writes to it are serialized so the
// underlying connection only ever sees one writer at a time.
type Spectator struct {
	id     ID
	writer io.Writer

	writeMu sync.Mutex

	mu            sync.RWMutex
	subscriptions []MessageType
}

func newSpectator(id ID, writer io.Writer) *Spectator {
	assert.AssertNotNil(writer)
	return &Spectator{
		id:            id,
		writer:        writer,
		subscriptions: []MessageType{},
	}
}

func (s *Spectator) ID() ID {
	return s.id
}

func (s *Spectator) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_, err := s.writer.Write(data)
	return err
}

func (s *Spectator) IsSubscribedTo(typ MessageType) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.subscriptions, typ)
}

// addSubscription reports whether typ was newly added.
func (s *Spectator) addSubscription(typ MessageType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.Contains(s.subscriptions, typ) {
		return false
	}
	s.subscriptions = append(s.subscriptions, typ)
	return true
}

// removeSubscription reports whether typ was present.
func (s *Spectator) removeSubscription(typ MessageType) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.subscriptions)
	s.subscriptions = slices.DeleteFunc(s.subscriptions, func(t MessageType) bool {
		return t == typ
	})
	return len(s.subscriptions) != n
}

func (s *Spectator) Subscriptions() []MessageType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subs := make([]MessageType, len(s.subscriptions))
	copy(subs, s.subscriptions)
	return subs
}
