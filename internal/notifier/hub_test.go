package notifier

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string, buffer int) *Client {
	return &Client{
		ID:   id,
		Send: make(chan []byte, buffer),
	}
}

func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.Send:
		var event Event
		require.NoError(t, json.Unmarshal(data, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	client := newTestClient("client-1", 4)

	hub.Register(client)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount())

	// A second unregister is a no-op, not a double close.
	hub.Unregister(client)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	first := newTestClient("client-1", 4)
	second := newTestClient("client-2", 4)
	hub.Register(first)
	hub.Register(second)

	hub.Broadcast(EventStatusChange, map[string]interface{}{
		"status":        "approved",
		"appointmentId": 7,
	})

	for _, client := range []*Client{first, second} {
		event := receiveEvent(t, client)
		assert.Equal(t, EventStatusChange, event.Name)

		payload, ok := event.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "approved", payload["status"])
		assert.EqualValues(t, 7, payload["appointmentId"])
	}
}

func TestBroadcastAfterDisconnectSkipsClient(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	stays := newTestClient("stays", 4)
	leaves := newTestClient("leaves", 4)
	hub.Register(stays)
	hub.Register(leaves)

	hub.Unregister(leaves)
	hub.Broadcast(EventNewAppointment, map[string]interface{}{"id": 1})

	event := receiveEvent(t, stays)
	assert.Equal(t, EventNewAppointment, event.Name)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestBroadcastSkipsFullBuffers(t *testing.T) {
	hub := NewHub(zerolog.Nop())
	slow := newTestClient("slow", 1)
	hub.Register(slow)

	hub.Broadcast(EventUpdate, map[string]interface{}{"n": 1})
	hub.Broadcast(EventUpdate, map[string]interface{}{"n": 2}) // dropped, buffer full

	event := receiveEvent(t, slow)
	payload := event.Payload.(map[string]interface{})
	assert.EqualValues(t, 1, payload["n"])

	select {
	case extra := <-slow.Send:
		t.Fatalf("expected dropped event, got %s", extra)
	default:
	}
}

func TestEventsHaveNoReplay(t *testing.T) {
	hub := NewHub(zerolog.Nop())

	hub.Broadcast(EventNewAppointment, map[string]interface{}{"id": 1})

	late := newTestClient("late", 4)
	hub.Register(late)

	select {
	case data := <-late.Send:
		t.Fatalf("late subscriber must not receive earlier events, got %s", data)
	default:
	}
}
