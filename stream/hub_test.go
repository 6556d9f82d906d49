package stream

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testType MessageType = "frame"

type WriterFunc func(data []byte) (n int, err error)

func (w WriterFunc) Write(data []byte) (n int, err error) {
	return w(data)
}

// recorder collects every message written to a spectator.
type recorder struct {
	mu   sync.Mutex
	msgs []Message
}

func (r *recorder) Write(data []byte) (int, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return 0, err
	}
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
	return len(data), nil
}

func (r *recorder) types() []MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]MessageType, len(r.msgs))
	for i, m := range r.msgs {
		types[i] = m.Type
	}
	return types
}

func newTestHub() *Hub {
	h := NewHub(log.New(io.Discard))
	h.RegisterHandler(testType, HandlerFunc(func(s *Spectator, payload []byte) error { return nil }))
	return h
}

func subscribeMsg(t *testing.T, typ MessageType) []byte {
	t.Helper()
	return hubMsg(t, subscribeMessage, typ)
}

func unsubscribeMsg(t *testing.T, typ MessageType) []byte {
	t.Helper()
	return hubMsg(t, unsubscribeMessage, typ)
}

func hubMsg(t *testing.T, action string, typ MessageType) []byte {
	t.Helper()
	payload, err := json.Marshal(subscriptionMessage{MessageType: typ})
	require.NoError(t, err)
	data, err := json.Marshal(Message{Type: hubMessageTypePrefix + action, Payload: payload})
	require.NoError(t, err)
	return data
}

func TestHubConnectDisconnect(t *testing.T) {
	h := newTestHub()

	id1 := h.Connect(io.Discard)
	id2 := h.Connect(io.Discard)
	assert.NotEqual(t, id1, id2)
	assert.Equal(t, 2, h.Count())
	assert.NotNil(t, h.Spectator(id1))

	h.Disconnect(id1)
	assert.Nil(t, h.Spectator(id1))
	assert.NotNil(t, h.Spectator(id2))

	// Unknown and repeated disconnects are noops.
	h.Disconnect(id1)
	h.Disconnect(ID{})
	assert.Equal(t, 1, h.Count())
}

func TestHubBroadcast(t *testing.T) {
	t.Run("Spectator not subscribed", func(t *testing.T) {
		h := newTestHub()
		didWrite := false
		id := h.Connect(WriterFunc(func(data []byte) (int, error) {
			didWrite = true
			return len(data), nil
		}))

		require.NoError(t, h.Message(id, subscribeMsg(t, testType)))
		require.NoError(t, h.Message(id, unsubscribeMsg(t, testType)))

		require.NoError(t, h.Broadcast(testType, []byte("{}"), nil))
		assert.False(t, didWrite)
	})

	t.Run("Spectator is subscribed", func(t *testing.T) {
		h := newTestHub()
		rec := &recorder{}
		id := h.Connect(rec)

		require.NoError(t, h.Message(id, subscribeMsg(t, testType)))
		require.NoError(t, h.Broadcast(testType, []byte(`{"tick":1}`), nil))

		require.Len(t, rec.msgs, 1)
		assert.Equal(t, testType, rec.msgs[0].Type)
		assert.JSONEq(t, `{"tick":1}`, string(rec.msgs[0].Payload))
	})

	t.Run("Subscribing twice delivers once", func(t *testing.T) {
		h := newTestHub()
		rec := &recorder{}
		id := h.Connect(rec)

		require.NoError(t, h.Message(id, subscribeMsg(t, testType)))
		require.NoError(t, h.Message(id, subscribeMsg(t, testType)))
		require.NoError(t, h.Broadcast(testType, []byte("{}"), nil))

		assert.Len(t, rec.msgs, 1)
	})

	t.Run("Excluded spectator", func(t *testing.T) {
		h := newTestHub()
		rec1, rec2 := &recorder{}, &recorder{}
		id1 := h.Connect(rec1)
		id2 := h.Connect(rec2)
		require.NoError(t, h.Message(id1, subscribeMsg(t, testType)))
		require.NoError(t, h.Message(id2, subscribeMsg(t, testType)))

		err := h.Broadcast(testType, []byte("{}"), func(s *Spectator) bool { return s.ID() == id1 })
		require.NoError(t, err)
		assert.Empty(t, rec1.msgs)
		assert.Len(t, rec2.msgs, 1)
	})

	t.Run("Failed write does not stop broadcast", func(t *testing.T) {
		h := newTestHub()
		broken := h.Connect(WriterFunc(func([]byte) (int, error) { return 0, io.ErrClosedPipe }))
		rec := &recorder{}
		ok := h.Connect(rec)
		require.NoError(t, h.Message(broken, subscribeMsg(t, testType)))
		require.NoError(t, h.Message(ok, subscribeMsg(t, testType)))

		require.NoError(t, h.Broadcast(testType, []byte("{}"), nil))
		assert.Len(t, rec.msgs, 1)
	})
}

func TestHubDisconnectCleanup(t *testing.T) {
	h := newTestHub()
	didWrite := false
	id := h.Connect(WriterFunc(func(data []byte) (int, error) {
		didWrite = true
		return len(data), nil
	}))
	require.NoError(t, h.Message(id, subscribeMsg(t, testType)))

	h.Disconnect(id)
	assert.Empty(t, h.Subscribers(testType))

	require.NoError(t, h.Broadcast(testType, []byte("{}"), nil))
	assert.False(t, didWrite)
}

func TestHubSubscribeWithoutHandler(t *testing.T) {
	h := newTestHub()
	id := h.Connect(io.Discard)

	require.NoError(t, h.Message(id, subscribeMsg(t, "lights")))
	assert.Empty(t, h.Subscribers("lights"))
	assert.Empty(t, h.Spectator(id).Subscriptions())
}

func TestHubRoutesToHandler(t *testing.T) {
	h := NewHub(log.New(io.Discard))
	var got []byte
	var from ID
	h.RegisterHandler("snapshot", HandlerFunc(func(s *Spectator, payload []byte) error {
		from = s.ID()
		got = payload
		return nil
	}))

	id := h.Connect(io.Discard)
	require.NoError(t, h.Message(id, []byte(`{"type":"snapshot","payload":{"plain":true}}`)))
	assert.Equal(t, id, from)
	assert.JSONEq(t, `{"plain":true}`, string(got))
}

func TestHubHandlerError(t *testing.T) {
	h := NewHub(log.New(io.Discard))
	h.RegisterHandler("snapshot", HandlerFunc(func(*Spectator, []byte) error {
		return errors.New("no frame yet")
	}))

	id := h.Connect(io.Discard)
	err := h.Message(id, []byte(`{"type":"snapshot"}`))
	assert.ErrorContains(t, err, "handler[snapshot]: no frame yet")
}

func TestHubMessageErrors(t *testing.T) {
	h := newTestHub()
	id := h.Connect(io.Discard)

	tests := []struct {
		name string
		data []byte
	}{
		{name: "not json", data: []byte("hello")},
		{name: "no type", data: []byte(`{}`)},
		{name: "type too long", data: []byte(`{"type":"abcdefghijklmnopqrstuvwxyz"}`)},
		{name: "unknown hub action", data: []byte(`{"type":"hub:explode","payload":{"messageType":"frame"}}`)},
		{name: "subscribe without type", data: []byte(`{"type":"hub:subscribe","payload":{}}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, h.Message(id, tt.data))
		})
	}

	assert.ErrorIs(t, h.Message(ID{1}, []byte(`{"type":"frame"}`)), ErrUnknownSpectator)
}

func TestHubSend(t *testing.T) {
	h := newTestHub()
	rec1, rec2 := &recorder{}, &recorder{}
	id1 := h.Connect(rec1)
	_ = h.Connect(rec2)

	require.NoError(t, h.Send(id1, "snapshot", []byte(`"grid"`)))
	assert.Equal(t, []MessageType{"snapshot"}, rec1.types())
	assert.Empty(t, rec2.types())

	assert.ErrorIs(t, h.Send(ID{9}, "snapshot", nil), ErrUnknownSpectator)
}

func TestHubRejectsOversizedPayload(t *testing.T) {
	h := newTestHub()
	big := make([]byte, MessageSizeLimit)
	for i := range big {
		big[i] = '1'
	}
	assert.ErrorIs(t, h.Broadcast(testType, big, nil), ErrMessageTooLarge)
}

func TestHubHooks(t *testing.T) {
	h := newTestHub()

	var events []string
	h.AddConnectHook(func(s *Spectator) { events = append(events, "connect") })
	h.AddDisconnectHook(func(s *Spectator) { events = append(events, "disconnect") })
	h.AddSubscriptionHook(testType, func(s *Spectator, typ MessageType, didSub bool) {
		if didSub {
			events = append(events, "sub:"+typ)
		} else {
			events = append(events, "unsub:"+typ)
		}
	})

	id := h.Connect(io.Discard)
	require.NoError(t, h.Message(id, subscribeMsg(t, testType)))
	require.NoError(t, h.Message(id, unsubscribeMsg(t, testType)))
	// Unsubscribing again does not fire the hook.
	require.NoError(t, h.Message(id, unsubscribeMsg(t, testType)))
	h.Disconnect(id)

	assert.Equal(t, []string{"connect", "sub:frame", "unsub:frame", "disconnect"}, events)
}

func TestHubSubscriptionHookCanSend(t *testing.T) {
	h := newTestHub()
	h.AddSubscriptionHook(testType, func(s *Spectator, typ MessageType, didSub bool) {
		if didSub {
			require.NoError(t, h.Send(s.ID(), "snapshot", []byte(`"baseline"`)))
		}
	})

	rec := &recorder{}
	id := h.Connect(rec)
	require.NoError(t, h.Message(id, subscribeMsg(t, testType)))
	require.NoError(t, h.Broadcast(testType, []byte("{}"), nil))

	assert.Equal(t, []MessageType{"snapshot", testType}, rec.types())
}
