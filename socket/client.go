package socket

import (
	"encoding/json"
	"net/http"
	"time"

	"notesync/pkg/logger"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin allows us to connect from the SPA dev server.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is one live websocket connection bound to an authenticated user.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	UserID string
	Send   chan []byte

	// done tells writePump to stop; closed by the hub on removal. The Send
	// channel itself is never closed, so a broadcast racing a disconnect
	// lands in a buffer nobody drains instead of panicking.
	done chan struct{}

	// closed is guarded by the hub's mutex; set once on removal so a
	// duplicate unregister or a late join cannot touch a dead connection.
	closed bool
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		UserID: userID,
		Send:   make(chan []byte, 256),
		done:   make(chan struct{}),
	}
}

// ServeWs upgrades the HTTP connection and starts the read/write pumps.
// userID comes from the auth middleware, never from the client.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request, userID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Error(err)
		return
	}

	client := NewClient(hub, conn, userID)
	client.Hub.Register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		_, rawMessage, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Sugar.Errorf("error: %v", err)
			}
			break
		}

		var cmd Command
		if err := json.Unmarshal(rawMessage, &cmd); err != nil {
			logger.Sugar.Errorf("Error unmarshalling command from user %s: %v", c.UserID, err)
			continue
		}

		switch cmd.Type {
		case JoinRoomType:
			// A connection may only join the room matching its own
			// identity; events for other users must stay invisible.
			if cmd.Room != c.UserID {
				logger.Sugar.Warnf("User %s refused entry to room %q", c.UserID, cmd.Room)
				continue
			}
			c.Hub.Join(c, cmd.Room)
		case LeaveRoomType:
			c.Hub.Leave(c, cmd.Room)
		default:
			logger.Sugar.Warnf("Unknown command type %q from user %s", cmd.Type, c.UserID)
		}
	}
}

func (c *Client) writePump() {
	// The ticker sends a ping every 30s to keep the connection alive and
	// detect when it has dropped.
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.WriteMessage(websocket.TextMessage, message)
		case <-c.done:
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
