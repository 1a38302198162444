package socket

import (
	"encoding/json"
	"sync"

	"notesync/pkg/logger"
)

const (
	// Events pushed to clients. Rooms are keyed by user identity, so an
	// event lands on every live connection a recipient currently has.
	EventNoteCreated = "note:created"
	EventNoteUpdated = "note:updated"
	EventNoteDeleted = "note:deleted"
	EventNoteShared  = "note:shared"

	// Commands received from clients.
	JoinRoomType  = "joinRoom"
	LeaveRoomType = "leaveRoom"
)

// Event is the wire format for everything the server pushes.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Command is the wire format for client-to-server messages. Clients join the
// room equal to their own user id immediately after connecting.
type Command struct {
	Type string `json:"type"`
	Room string `json:"room"`
}

// Hub tracks which connections belong to which identity-addressed room.
// It is constructed in main and handed by reference to everything that
// broadcasts; membership is process-lifetime state and never persisted.
type Hub struct {
	mu          sync.Mutex
	rooms       map[string]map[*Client]bool
	clientRooms map[*Client]map[string]bool

	Register   chan *Client
	Unregister chan *Client
}

func NewHub() *Hub {
	return &Hub{
		rooms:       make(map[string]map[*Client]bool),
		clientRooms: make(map[*Client]map[string]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
	}
}

// Run owns the connection lifecycle. Membership mutations triggered by
// client commands go through Join/Leave directly from the read pumps.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			if !client.closed && h.clientRooms[client] == nil {
				h.clientRooms[client] = make(map[string]bool)
			}
			h.mu.Unlock()
			logger.Sugar.Infof("Client connected for user %s", client.UserID)

		case client := <-h.Unregister:
			h.RemoveClient(client)
		}
	}
}

// Join adds the connection to a room. A connection may occupy several rooms
// at once; joining twice is harmless.
func (h *Hub) Join(c *Client, roomID string) {
	if roomID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		// A late joinRoom from a connection already torn down.
		return
	}
	// The read pump can race the Register channel; track the client as soon
	// as its first membership change lands.
	if h.clientRooms[c] == nil {
		h.clientRooms[c] = make(map[string]bool)
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
	h.clientRooms[c][roomID] = true
}

// Leave removes the connection from a room. Unknown rooms are a no-op.
func (h *Hub) Leave(c *Client, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropMembership(c, roomID)
	if rooms, ok := h.clientRooms[c]; ok {
		delete(rooms, roomID)
	}
}

// RemoveClient takes the connection out of every room it occupies and stops
// its write pump. Safe to call more than once per connection. The Send
// channel stays open: a broadcast that snapshotted the member set just
// before removal may still deliver into the buffer, where the message is
// simply dropped.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if c.closed {
		h.mu.Unlock()
		return
	}
	c.closed = true
	for roomID := range h.clientRooms[c] {
		h.dropMembership(c, roomID)
	}
	delete(h.clientRooms, c)
	close(c.done)
	h.mu.Unlock()

	logger.Sugar.Infof("Client disconnected for user %s", c.UserID)
}

// dropMembership must be called with h.mu held.
func (h *Hub) dropMembership(c *Client, roomID string) {
	if members, ok := h.rooms[roomID]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

// Broadcast delivers a typed event to every connection in the room. An empty
// room is a no-op, not an error.
func (h *Hub) Broadcast(roomID, eventType string, payload any) {
	h.BroadcastExcept(roomID, eventType, payload, nil)
}

// BroadcastExcept is Broadcast with one connection skipped, used when the
// triggering connection should not hear its own event.
func (h *Hub) BroadcastExcept(roomID, eventType string, payload any, exclude *Client) {
	raw, err := json.Marshal(payload)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s payload for room %s: %v", eventType, roomID, err)
		return
	}
	message, err := json.Marshal(Event{Type: eventType, Payload: raw})
	if err != nil {
		logger.Sugar.Errorf("Error marshalling %s event for room %s: %v", eventType, roomID, err)
		return
	}

	// Snapshot the member set under the lock, send outside it.
	h.mu.Lock()
	recipients := make([]*Client, 0, len(h.rooms[roomID]))
	for client := range h.rooms[roomID] {
		if client != exclude {
			recipients = append(recipients, client)
		}
	}
	h.mu.Unlock()

	for _, client := range recipients {
		select {
		case client.Send <- message:
		default:
			// Send buffer full: the client is lagging. Unregister it so one
			// slow connection never blocks delivery to the rest of the room.
			logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
			go func(c *Client) { h.Unregister <- c }(client)
		}
	}
}

// RoomSize reports the current number of connections in a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}
