package stream

import (
	"sync"
)

// ConnectHooks get called after a spectator is added to the hub.
type ConnectHook func(s *Spectator)

// DisconnectHooks get called after a spectator is removed from the hub
// and all of its subscriptions are dropped.
type DisconnectHook func(s *Spectator)

// SubscriptionHooks are called when a spectator has subscribed or
// unsubscribed from a MessageType.
//
// didSub is true when the spectator has subscribed and false
// when it has unsubscribed.
type SubscriptionHook func(s *Spectator, typ MessageType, didSub bool)

type hooks struct {
	connect      []ConnectHook
	disconnect   []DisconnectHook
	subscription map[MessageType][]SubscriptionHook
	mu           sync.RWMutex
}

func newHooks() *hooks {
	return &hooks{
		connect:      []ConnectHook{},
		disconnect:   []DisconnectHook{},
		subscription: map[MessageType][]SubscriptionHook{},
	}
}

func (h *hooks) runConnectHooks(s *Spectator) {
	h.mu.RLock()
	funcs := make([]ConnectHook, len(h.connect))
	copy(funcs, h.connect)
	h.mu.RUnlock()

	for _, f := range funcs {
		f(s)
	}
}

func (h *hooks) AddConnectHook(f ConnectHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.connect = append(h.connect, f)
}

func (h *hooks) runDisconnectHooks(s *Spectator) {
	h.mu.RLock()
	funcs := make([]DisconnectHook, len(h.disconnect))
	copy(funcs, h.disconnect)
	h.mu.RUnlock()

	for _, f := range funcs {
		f(s)
	}
}

func (h *hooks) AddDisconnectHook(f DisconnectHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.disconnect = append(h.disconnect, f)
}

func (h *hooks) runSubscriptionHooks(s *Spectator, typ MessageType, didSub bool) {
	h.mu.RLock()
	funcs := make([]SubscriptionHook, len(h.subscription[typ]))
	copy(funcs, h.subscription[typ])
	h.mu.RUnlock()

	for _, f := range funcs {
		f(s, typ, didSub)
	}
}

func (h *hooks) AddSubscriptionHook(typ MessageType, f SubscriptionHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscription[typ] = append(h.subscription[typ], f)
}
