package repository

import (
	"context"

	"github.com/RZKGWIXX/March/internal/room/model"
	"github.com/RZKGWIXX/March/internal/store"
	"github.com/RZKGWIXX/March/pkg/logger"
)

type RoomRepository struct {
	store  store.Store
	logger *logger.Logger
}

func NewRoomRepository(s store.Store, logger *logger.Logger) *RoomRepository {
	return &RoomRepository{store: s, logger: logger}
}

func (r *RoomRepository) Rooms(ctx context.Context) (model.RoomsDoc, error) {
	var doc model.RoomsDoc
	degraded, err := store.Load(ctx, r.store, store.Rooms, &doc)
	if err != nil {
		return nil, err
	}
	if degraded {
		r.logger.Warn("rooms read degraded to default document")
	}
	if doc == nil {
		doc = model.RoomsDoc{}
	}
	return doc, nil
}

func (r *RoomRepository) SaveRooms(ctx context.Context, doc model.RoomsDoc) error {
	return store.Save(ctx, r.store, store.Rooms, doc)
}

func (r *RoomRepository) Blocks(ctx context.Context) (model.BlocksDoc, error) {
	var doc model.BlocksDoc
	degraded, err := store.Load(ctx, r.store, store.Blocks, &doc)
	if err != nil {
		return nil, err
	}
	if degraded {
		r.logger.Warn("blocks read degraded to default document")
	}
	if doc == nil {
		doc = model.BlocksDoc{}
	}
	return doc, nil
}

func (r *RoomRepository) SaveBlocks(ctx context.Context, doc model.BlocksDoc) error {
	return store.Save(ctx, r.store, store.Blocks, doc)
}
