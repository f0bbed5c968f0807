package wsgateway

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recvEvent pops the next queued frame off a connection and decodes the
// envelope. Fails the test if nothing was queued.
func recvEvent(t *testing.T, conn *Connection) ClientEvent {
	t.Helper()
	select {
	case frame := <-conn.Outbound():
		var envelope ClientEvent
		require.NoError(t, json.Unmarshal(frame, &envelope))
		return envelope
	default:
		t.Fatalf("Expected a queued event on %s", conn.ID)
		return ClientEvent{}
	}
}

// assertNoEvent asserts a connection's queue is empty
func assertNoEvent(t *testing.T, conn *Connection) {
	t.Helper()
	select {
	case frame := <-conn.Outbound():
		t.Fatalf("Expected no queued event on %s, got %s", conn.ID, frame)
	default:
	}
}

func TestDispatcher_EmitToConnections(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	connA := newTestConn("conn-a", "alice")
	connB := newTestConn("conn-b", "bob")
	connC := newTestConn("conn-c", "carol")
	registry.Register(connA)
	registry.Register(connB)
	registry.Register(connC)

	dispatcher.EmitToConnections([]string{"conn-a", "conn-b"}, EventAlert, "hello")

	for _, conn := range []*Connection{connA, connB} {
		envelope := recvEvent(t, conn)
		assert.Equal(t, EventAlert, envelope.Event)

		var data string
		require.NoError(t, json.Unmarshal(envelope.Data, &data))
		assert.Equal(t, "hello", data)
	}
	assertNoEvent(t, connC)
}

func TestDispatcher_SkipsUnknownConnections(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	connB := newTestConn("conn-b", "bob")
	registry.Register(connB)

	dispatcher.EmitToConnections([]string{"conn-gone", "conn-b"}, EventAlert, nil)

	envelope := recvEvent(t, connB)
	assert.Equal(t, EventAlert, envelope.Event)
}

func TestDispatcher_ClosedConnectionDoesNotAbortBatch(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	connA := newTestConn("conn-a", "alice")
	connB := newTestConn("conn-b", "bob")
	registry.Register(connA)
	registry.Register(connB)

	connA.Close()

	dispatcher.EmitToConnections([]string{"conn-a", "conn-b"}, EventRefetchChats, nil)

	envelope := recvEvent(t, connB)
	assert.Equal(t, EventRefetchChats, envelope.Event)
}

func TestDispatcher_EmitToAllExcept(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	connA := newTestConn("conn-a", "alice")
	connB := newTestConn("conn-b", "bob")
	connC := newTestConn("conn-c", "carol")
	registry.Register(connA)
	registry.Register(connB)
	registry.Register(connC)

	dispatcher.EmitToAllExcept("conn-a", EventOnlineUsers, []string{"bob", "carol"})

	assertNoEvent(t, connA)
	for _, conn := range []*Connection{connB, connC} {
		envelope := recvEvent(t, conn)
		assert.Equal(t, EventOnlineUsers, envelope.Event)

		var users []string
		require.NoError(t, json.Unmarshal(envelope.Data, &users))
		assert.Equal(t, []string{"bob", "carol"}, users)
	}
}

func TestDispatcher_EmitToOne(t *testing.T) {
	registry := NewRegistry()
	dispatcher := NewDispatcher(registry)

	connA := newTestConn("conn-a", "alice")
	registry.Register(connA)

	dispatcher.EmitToOne("conn-a", EventError, ErrorPayload{Code: "unknown_event", Message: "unknown event: PING"})

	envelope := recvEvent(t, connA)
	assert.Equal(t, EventError, envelope.Event)

	var payload ErrorPayload
	require.NoError(t, json.Unmarshal(envelope.Data, &payload))
	assert.Equal(t, "unknown_event", payload.Code)

	// Unknown target is a no-op
	dispatcher.EmitToOne("conn-gone", EventError, nil)
}
