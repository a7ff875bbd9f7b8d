package bunstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/RZKGWIXX/March/internal/store"
)

// Document is one collection's JSON payload. Version counts writes and is
// diagnostic only; concurrency stays last-writer-wins at document
// granularity, same as the other backends.
type Document struct {
	bun.BaseModel `bun:"table:documents"`

	Collection string    `bun:",pk"`
	Payload    []byte    `bun:",notnull,type:jsonb"`
	Version    int64     `bun:",notnull,default:0"`
	UpdatedAt  time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

type Store struct {
	db *bun.DB
}

func New(dsn string) (*Store, error) {
	connector := pgdriver.NewConnector(pgdriver.WithDSN(dsn))
	sqlDB := sql.OpenDB(connector)
	db := bun.NewDB(sqlDB, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "bunstore.New.Ping: ")
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func NewWithDB(db *bun.DB) (*Store, error) {
	s := &Store{db: db}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Document)(nil)).IfNotExists().Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "bunstore.migrate.CreateTable: ")
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection store.Collection) ([]byte, error) {
	doc := new(Document)
	err := s.db.NewSelect().Model(doc).Where("collection = ?", string(collection)).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "bunstore.Get.Scan: ")
	}
	return doc.Payload, nil
}

func (s *Store) Put(ctx context.Context, collection store.Collection, payload []byte) error {
	doc := &Document{
		Collection: string(collection),
		Payload:    payload,
		UpdatedAt:  time.Now(),
	}
	_, err := s.db.NewInsert().
		Model(doc).
		On("CONFLICT (collection) DO UPDATE").
		Set("payload = EXCLUDED.payload").
		Set("version = documents.version + 1").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "bunstore.Put.Exec: ")
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
