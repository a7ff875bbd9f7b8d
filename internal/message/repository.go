package message

import (
	"context"

	"github.com/RZKGWIXX/March/internal/message/model"
)

type Repository interface {
	Messages(ctx context.Context) (model.MessagesDoc, error)
	SaveMessages(ctx context.Context, doc model.MessagesDoc) error

	Hidden(ctx context.Context) (model.HiddenDoc, error)
	SaveHidden(ctx context.Context, doc model.HiddenDoc) error

	// PurgeRoom drops a room's sequence entirely (room deletion cascade).
	PurgeRoom(ctx context.Context, room string) error
}

// Broadcaster is the fan-out surface the pipeline emits through. Delivery is
// fire-and-forget: a slow subscriber never blocks the caller.
type Broadcaster interface {
	// ToRoom delivers an event to every connection joined to room,
	// skipping excludeNick when non-empty.
	ToRoom(room, event string, payload any, excludeNick string)
	// ToNick delivers an event to one user's connections only.
	ToNick(nick, event string, payload any)
}
