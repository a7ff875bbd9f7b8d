package ws

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16384
	sendBuffer     = 256
)

// Conn is the subset of *websocket.Conn the pumps need, kept as an
// interface so clients are testable without a live socket.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// Client is one websocket connection bound to a nickname. Send is buffered;
// a full buffer drops the frame rather than blocking the hub.
type Client struct {
	ID   string
	Nick string
	IP   string

	conn Conn
	send chan []byte

	mu     sync.RWMutex
	rooms  map[string]bool
	closed bool
}

func newClient(id, nick, ip string, conn Conn) *Client {
	return &Client{
		ID:    id,
		Nick:  nick,
		IP:    ip,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]bool),
	}
}

func (c *Client) joinRoom(room string) {
	c.mu.Lock()
	c.rooms[room] = true
	c.mu.Unlock()
}

func (c *Client) leaveRoom(room string) {
	c.mu.Lock()
	delete(c.rooms, room)
	c.mu.Unlock()
}

func (c *Client) inRoom(room string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rooms[room]
}

// enqueue drops the frame when the client cannot keep up or has
// already disconnected. The closed flag is checked under the same
// lock closeSend holds, so a broadcast walking a stale snapshot
// never sends on a closed channel.
func (c *Client) enqueue(data []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// closeSend marks the client dead and closes its send channel exactly
// once. writePump drains the close and shuts the socket down.
func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// Inbound is the wire shape of client-to-server events.
type Inbound struct {
	Event string `json:"event"`
	Room  string `json:"room,omitempty"`
	Text  string `json:"text,omitempty"`
}

// Outbound wraps every server-to-client event.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func encodeOutbound(event string, data any) ([]byte, error) {
	return json.Marshal(Outbound{Event: event, Data: data})
}
