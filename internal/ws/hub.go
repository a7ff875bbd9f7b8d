package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/RZKGWIXX/March/internal/moderation"
	"github.com/RZKGWIXX/March/internal/presence"
	"github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin policy is enforced by the HTTP layer in front of the hub.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns every live connection and the room fan-out. Delivery is
// fire-and-forget: a slow subscriber loses frames, it never blocks the
// sender or the other subscribers.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client            // conn id -> client
	byNick  map[string]map[string]*Client // nick -> conn id -> client

	tracker *presence.Tracker
	logger  *logger.Logger

	// Wired at startup; the hub itself knows nothing about rooms,
	// moderation, or persistence.
	OnJoin    func(ctx context.Context, nick, room string) error
	OnLeave   func(nick, room string)
	OnMessage func(ctx context.Context, nick, room, text string) error
}

func NewHub(tracker *presence.Tracker, logger *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		byNick:  make(map[string]map[string]*Client),
		tracker: tracker,
		logger:  logger,
	}
}

// ServeWS upgrades the request and runs the client pumps. The caller has
// already authenticated nick.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, nick, ip string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "nick", nick, "err", err)
		return
	}

	client := newClient(uuid.New().String(), nick, ip, conn)
	h.register(client)

	go h.writePump(client)
	h.readPump(r.Context(), client)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	if h.byNick[c.Nick] == nil {
		h.byNick[c.Nick] = make(map[string]*Client)
	}
	h.byNick[c.Nick][c.ID] = c
	h.mu.Unlock()

	h.tracker.Bind(c.ID, c.Nick)
	h.tracker.Touch(c.Nick, "")
	h.ToAll(EventUserActivity, map[string]any{"nick": c.Nick, "online": true})
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID)
	lastConn := false
	if conns, ok := h.byNick[c.Nick]; ok {
		delete(conns, c.ID)
		if len(conns) == 0 {
			delete(h.byNick, c.Nick)
			lastConn = true
		}
	}
	h.mu.Unlock()

	h.tracker.Disconnect(c.ID)
	c.closeSend()
	if lastConn {
		h.ToAll(EventUserActivity, map[string]any{"nick": c.Nick, "online": false})
	}
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		h.dispatch(ctx, c, data)
	}
}

func (h *Hub) dispatch(ctx context.Context, c *Client, data []byte) {
	var in Inbound
	if err := json.Unmarshal(data, &in); err != nil {
		h.emitError(c, errors.InvalidArg("malformed event"))
		return
	}

	switch in.Event {
	case EventJoin:
		if h.OnJoin != nil {
			if err := h.OnJoin(ctx, c.Nick, in.Room); err != nil {
				h.emitError(c, err)
				return
			}
		}
		c.joinRoom(in.Room)
		h.tracker.Touch(c.Nick, in.Room)

	case EventLeave:
		c.leaveRoom(in.Room)
		if h.OnLeave != nil {
			h.OnLeave(c.Nick, in.Room)
		}

	case EventMessage:
		h.tracker.Touch(c.Nick, in.Room)
		if h.OnMessage != nil {
			if err := h.OnMessage(ctx, c.Nick, in.Room, in.Text); err != nil {
				h.emitError(c, err)
			}
		}

	default:
		h.emitError(c, errors.InvalidArg("unknown event"))
	}
}

func (h *Hub) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ToRoom delivers an event to every connection joined to room, skipping
// excludeNick when non-empty.
func (h *Hub) ToRoom(room, event string, payload any, excludeNick string) {
	data, err := encodeOutbound(event, payload)
	if err != nil {
		h.logger.Error("failed to encode outbound event", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		if excludeNick != "" && c.Nick == excludeNick {
			continue
		}
		if c.inRoom(room) {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if !c.enqueue(data) {
			h.logger.Warn("dropped frame for slow subscriber", "nick", c.Nick, "event", event)
		}
	}
}

// ToAll delivers an event to every live connection, room membership aside.
// Used for global moderation notices such as user_banned.
func (h *Hub) ToAll(event string, payload any) {
	data, err := encodeOutbound(event, payload)
	if err != nil {
		h.logger.Error("failed to encode outbound event", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}

// ToNick delivers an event to all of one user's connections.
func (h *Hub) ToNick(nick, event string, payload any) {
	data, err := encodeOutbound(event, payload)
	if err != nil {
		h.logger.Error("failed to encode outbound event", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.byNick[nick]))
	for _, c := range h.byNick[nick] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(data)
	}
}

// emitError sends a structured error event to one client only.
func (h *Hub) emitError(c *Client, err error) {
	payload := map[string]any{
		"message": err.Error(),
	}
	if rej, ok := moderation.AsRejection(err); ok {
		payload["code"] = string(rejectionCode(rej.Reason))
		payload["reason"] = string(rej.Reason)
		if rej.Until != "" {
			payload["until"] = rej.Until
		}
		if rej.RemainingMinutes > 0 {
			payload["remaining_minutes"] = rej.RemainingMinutes
		}
	} else {
		payload["code"] = string(errors.CodeOf(err))
	}

	data, encErr := encodeOutbound(EventError, payload)
	if encErr != nil {
		return
	}
	c.enqueue(data)
}

func rejectionCode(reason moderation.Reason) errors.Code {
	switch reason {
	case moderation.ReasonBanned:
		return errors.CodeBanned
	case moderation.ReasonMuted, moderation.ReasonAutoMuted:
		return errors.CodeMuted
	case moderation.ReasonTooFast:
		return errors.CodeRateLimited
	case moderation.ReasonAccountGone:
		return errors.CodeUnauthenticated
	default:
		return errors.CodeInvalidArgument
	}
}
