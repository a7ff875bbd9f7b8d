package room

import (
	"context"

	"github.com/RZKGWIXX/March/internal/room/model"
)

type Repository interface {
	Rooms(ctx context.Context) (model.RoomsDoc, error)
	SaveRooms(ctx context.Context, doc model.RoomsDoc) error

	Blocks(ctx context.Context) (model.BlocksDoc, error)
	SaveBlocks(ctx context.Context, doc model.BlocksDoc) error
}

// HistoryPurger removes a deleted room's message history. Implemented by the
// message repository; injected so room deletion can cascade without the room
// package depending on message internals.
type HistoryPurger interface {
	PurgeRoom(ctx context.Context, room string) error
}
