package redisstore

import (
	"context"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/RZKGWIXX/March/internal/store"
)

const keyPrefix = "march:doc:"

// Store persists each collection as one JSON blob under a prefixed redis key.
type Store struct {
	rdb *redis.Client
}

func New(addr string) *Store {
	return &Store{rdb: redis.NewClient(&redis.Options{Addr: addr})}
}

func NewWithClient(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Get(ctx context.Context, collection store.Collection) ([]byte, error) {
	doc, err := s.rdb.Get(ctx, keyPrefix+string(collection)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redisstore.Get: ")
	}
	return doc, nil
}

func (s *Store) Put(ctx context.Context, collection store.Collection, doc []byte) error {
	if err := s.rdb.Set(ctx, keyPrefix+string(collection), doc, 0).Err(); err != nil {
		return errors.Wrap(err, "redisstore.Put: ")
	}
	return nil
}

func (s *Store) Close() error {
	return s.rdb.Close()
}
