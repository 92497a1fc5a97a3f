package ws

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addClient registers a client with no underlying transport; frames land on
// its send channel where the test can inspect them.
func addClient(h *Hub) *Client {
	c := newClient(h, nil, nil)
	h.register(c)
	return c
}

// receiveEvent pops one queued frame off the client, failing the test when
// the queue is empty.
func receiveEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case data := <-c.send:
		evt, err := DecodeEvent(data)
		require.NoError(t, err)
		return evt
	default:
		t.Fatal("no frame queued")
		return Event{}
	}
}

func TestHub_BroadcastReachesRoomMembersOnly(t *testing.T) {
	hub := NewHub()
	member1 := addClient(hub)
	member2 := addClient(hub)
	outsider := addClient(hub)
	room := UserRoom(uuid.New())
	hub.join(member1, room)
	hub.join(member2, room)

	hub.Broadcast(room, EventPresence, PresencePayload{Online: true})

	for _, c := range []*Client{member1, member2} {
		evt := receiveEvent(t, c)
		assert.Equal(t, EventPresence, evt.Type)
	}
	assert.Empty(t, outsider.send)
}

func TestHub_BroadcastEmptyRoomIsNoop(t *testing.T) {
	hub := NewHub()
	c := addClient(hub)

	hub.Broadcast("user:nobody-here", EventPresence, PresencePayload{})

	assert.Empty(t, c.send)
}

func TestHub_BroadcastAllIgnoresMembership(t *testing.T) {
	hub := NewHub()
	member := addClient(hub)
	loner := addClient(hub)
	hub.join(member, UserRoom(uuid.New()))

	hub.BroadcastAll(EventPresence, PresencePayload{Online: false})

	assert.Len(t, member.send, 1)
	assert.Len(t, loner.send, 1)
}

// A member whose queue is full is skipped; the rest of the room still gets
// the frame and the broadcast returns without blocking.
func TestHub_BroadcastSkipsBackpressuredMember(t *testing.T) {
	hub := NewHub()
	slow := addClient(hub)
	fast := addClient(hub)
	room := GroupRoom(uuid.New())
	hub.join(slow, room)
	hub.join(fast, room)

	for i := 0; i < sendQueueLen; i++ {
		slow.trySend([]byte("{}"))
	}

	hub.Broadcast(room, EventNewMessage, map[string]string{"content": "hi"})

	assert.Len(t, slow.send, sendQueueLen, "full queue stays full, frame dropped")
	assert.Len(t, fast.send, 1)
}

func TestHub_UnregisterDiscardsEmptyRooms(t *testing.T) {
	hub := NewHub()
	c1 := addClient(hub)
	c2 := addClient(hub)
	room := GroupRoom(uuid.New())
	hub.join(c1, room)
	hub.join(c2, room)
	require.Equal(t, 2, hub.roomSize(room))

	hub.unregister(c1)
	assert.Equal(t, 1, hub.roomSize(room))

	hub.unregister(c2)
	assert.Equal(t, 0, hub.roomSize(room))
	assert.NotContains(t, hub.rooms, room)
}

func TestHub_UnregisterClosesSendChannel(t *testing.T) {
	hub := NewHub()
	c := addClient(hub)

	hub.unregister(c)

	_, open := <-c.send
	assert.False(t, open)
}

// Joining after teardown must not resurrect the connection's membership; the
// read pump can race a join from a service goroutine.
func TestHub_JoinAfterUnregisterIgnored(t *testing.T) {
	hub := NewHub()
	c := addClient(hub)
	hub.unregister(c)

	room := UserRoom(uuid.New())
	hub.join(c, room)

	assert.Equal(t, 0, hub.roomSize(room))
	assert.NotContains(t, hub.members, c)
}

func TestHub_BroadcastPayloadShape(t *testing.T) {
	hub := NewHub()
	c := addClient(hub)
	userID := uuid.New()
	hub.join(c, UserRoom(userID))

	hub.Broadcast(UserRoom(userID), EventPresence, PresencePayload{UserID: userID, Online: true})

	evt := receiveEvent(t, c)
	var p PresencePayload
	require.NoError(t, json.Unmarshal(evt.Payload, &p))
	assert.Equal(t, PresencePayload{UserID: userID, Online: true}, p)
}
