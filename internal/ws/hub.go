package ws

import (
	"log"
	"sync"
)

// Hub is the connection registry: it maps live connections to the rooms they
// are members of and fans events out to rooms. Rooms have no existence of
// their own; the last member leaving discards the room.
//
// Membership mutations and broadcast enumeration are serialized by a single
// RWMutex, so a broadcast never observes a connection mid-teardown. Nothing
// under the lock blocks: delivery to each member is a non-blocking enqueue
// onto its buffered outbound channel.
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]bool
	members map[*Client]map[string]bool
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]bool),
		members: make(map[*Client]map[string]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.members[c] = make(map[string]bool)
}

// unregister removes the connection from every room and closes its outbound
// channel. Safe to call once per client; the read pump owns that call.
func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for room := range h.members[c] {
		delete(h.rooms[room], c)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	if _, ok := h.members[c]; ok {
		delete(h.members, c)
		close(c.send)
	}
}

func (h *Hub) join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.members[c]; !ok {
		// Connection already torn down; joining would resurrect the room.
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][c] = true
	h.members[c][room] = true
}

// Broadcast delivers an event to every current member of a room,
// best-effort: a backpressured member is skipped rather than awaited.
// Broadcasting to a room with no members is a no-op, not an error.
func (h *Hub) Broadcast(room, event string, payload any) {
	data, err := EncodeEvent(event, payload)
	if err != nil {
		log.Printf("broadcast %s to %s: %v", event, room, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[room] {
		c.trySend(data)
	}
}

// BroadcastAll delivers an event to every registered connection, member of a
// room or not. Used for presence change notifications.
func (h *Hub) BroadcastAll(event string, payload any) {
	data, err := EncodeEvent(event, payload)
	if err != nil {
		log.Printf("broadcast %s: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.members {
		c.trySend(data)
	}
}

// Shutdown closes every remaining connection. Called once at process exit.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.members))
	for c := range h.members {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.closeConn()
	}
}

func (h *Hub) roomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
