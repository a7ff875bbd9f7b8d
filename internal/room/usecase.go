package room

import (
	"context"

	"github.com/RZKGWIXX/March/internal/room/model"
)

type Registry interface {
	// ListRoomsFor returns general plus every room nick is a member of,
	// general first.
	ListRoomsFor(ctx context.Context, nick string) ([]string, error)

	// CreatePrivate opens (or returns the existing) private room between
	// actor and target. Idempotent.
	CreatePrivate(ctx context.Context, actor, target string) (string, error)

	// CreateGroup creates a named group room with creator as sole member
	// and admin.
	CreateGroup(ctx context.Context, name, creator string) (string, error)

	// DeleteRoom removes a room and its message history. general is never
	// deletable.
	DeleteRoom(ctx context.Context, roomName, actor string) error

	AddMember(ctx context.Context, roomName, actor, nick string) error
	KickMember(ctx context.Context, roomName, actor, nick string) error
	LeaveRoom(ctx context.Context, roomName, nick string) error

	IsMember(ctx context.Context, roomName, nick string) (bool, error)
	IsAdmin(ctx context.Context, roomName, nick string) (bool, error)
	Get(ctx context.Context, roomName string) (*model.Room, error)

	// Block hides actor from target-initiated actions. Directional.
	Block(ctx context.Context, actor, target string) error
	// BlockPeer blocks the other member of a private room.
	BlockPeer(ctx context.Context, actor, privateRoom string) (string, error)
	// Unblock treats absence as success.
	Unblock(ctx context.Context, actor, target string) error
	IsBlocked(ctx context.Context, from, to string) (bool, error)
}
