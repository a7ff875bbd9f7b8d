package presence

import (
	"sync"
	"time"
)

// Entry is advisory, process-lifetime state. A restart resets everyone to
// offline; nothing here is persisted.
type Entry struct {
	LastSeen time.Time
	Room     string
}

// Tracker maps nicknames to last-seen/current-room and connection ids to
// nicknames, so a transport-level disconnect can be attributed to a logical
// user without the client resending identity.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]Entry
	conns   map[string]string // connection id -> nickname

	now func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		entries: make(map[string]Entry),
		conns:   make(map[string]string),
		now:     time.Now,
	}
}

// Touch records activity for nick and its current room.
func (t *Tracker) Touch(nick, room string) {
	t.mu.Lock()
	t.entries[nick] = Entry{LastSeen: t.now(), Room: room}
	t.mu.Unlock()
}

// Bind associates a connection id with a nickname.
func (t *Tracker) Bind(connID, nick string) {
	t.mu.Lock()
	t.conns[connID] = nick
	t.mu.Unlock()
}

// Disconnect updates last-seen for the user bound to connID without clearing
// their room, then drops the binding. Unknown connection ids are a no-op.
func (t *Tracker) Disconnect(connID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	nick, ok := t.conns[connID]
	if !ok {
		return
	}
	delete(t.conns, connID)
	e := t.entries[nick]
	e.LastSeen = t.now()
	t.entries[nick] = e
}

// Online reports whether nick was seen within window.
func (t *Tracker) Online(nick string, window time.Duration) bool {
	t.mu.RLock()
	e, ok := t.entries[nick]
	t.mu.RUnlock()
	if !ok {
		return false
	}
	return t.now().Sub(e.LastSeen) < window
}

// Room returns the last room nick was seen in.
func (t *Tracker) Room(nick string) (string, bool) {
	t.mu.RLock()
	e, ok := t.entries[nick]
	t.mu.RUnlock()
	return e.Room, ok
}

// Rename moves presence state from an old nickname to a new one.
func (t *Tracker) Rename(oldNick, newNick string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[oldNick]; ok {
		delete(t.entries, oldNick)
		t.entries[newNick] = e
	}
	for connID, nick := range t.conns {
		if nick == oldNick {
			t.conns[connID] = newNick
		}
	}
}

// Forget removes all state for nick (account deletion).
func (t *Tracker) Forget(nick string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, nick)
	for connID, n := range t.conns {
		if n == nick {
			delete(t.conns, connID)
		}
	}
}

// Snapshot returns the nicknames seen within window, for user listings.
func (t *Tracker) Snapshot(window time.Duration) map[string]bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	now := t.now()
	online := make(map[string]bool, len(t.entries))
	for nick, e := range t.entries {
		if now.Sub(e.LastSeen) < window {
			online[nick] = true
		}
	}
	return online
}
