package memory

import (
	"context"
	"sync"

	"github.com/RZKGWIXX/March/internal/store"
)

// Store keeps every collection in a mutex-guarded map. Used in tests and as
// the default backend for local development.
type Store struct {
	mu   sync.RWMutex
	docs map[store.Collection][]byte
}

func New() *Store {
	return &Store{docs: make(map[store.Collection][]byte)}
}

func (s *Store) Get(ctx context.Context, collection store.Collection) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[collection]
	if !ok {
		return nil, nil
	}
	cp := make([]byte, len(doc))
	copy(cp, doc)
	return cp, nil
}

func (s *Store) Put(ctx context.Context, collection store.Collection, doc []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cp := make([]byte, len(doc))
	copy(cp, doc)
	s.mu.Lock()
	s.docs[collection] = cp
	s.mu.Unlock()
	return nil
}
