package store

import (
	"context"
	"time"
)

// Collection names the top-level documents the chat core persists. Each
// collection is one JSON document, read and written whole.
type Collection string

const (
	Users             Collection = "users"
	Rooms             Collection = "rooms"
	Messages          Collection = "messages"
	Blocks            Collection = "blocks"
	Banned            Collection = "banned"
	Muted             Collection = "muted"
	HiddenMessages    Collection = "hidden_messages"
	NicknameCooldowns Collection = "nickname_cooldowns"
)

// Store is the document store every repository reads through. Get returns
// (nil, nil) when the collection has never been written. Writes are
// last-writer-wins at document granularity: two concurrent read-modify-write
// round trips can clobber each other. Callers accept that trade-off.
type Store interface {
	Get(ctx context.Context, collection Collection) ([]byte, error)
	Put(ctx context.Context, collection Collection, doc []byte) error
}

// DefaultFor returns the defined default shape for an absent collection.
func DefaultFor(collection Collection) []byte {
	switch collection {
	case Messages:
		return []byte(`{"general": []}`)
	case Banned:
		return []byte(`{"users": []}`)
	default:
		return []byte(`{}`)
	}
}

// timeoutStore bounds every store call so a stalled backend fails soft
// instead of hanging a request.
type timeoutStore struct {
	inner   Store
	timeout time.Duration
}

func WithTimeout(inner Store, timeout time.Duration) Store {
	if timeout <= 0 {
		return inner
	}
	return &timeoutStore{inner: inner, timeout: timeout}
}

func (s *timeoutStore) Get(ctx context.Context, collection Collection) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Get(ctx, collection)
}

func (s *timeoutStore) Put(ctx context.Context, collection Collection, doc []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.inner.Put(ctx, collection, doc)
}
