package moderation

import (
	"context"

	"github.com/RZKGWIXX/March/internal/moderation/model"
)

type Repository interface {
	Bans(ctx context.Context) (model.BannedDoc, error)
	SaveBans(ctx context.Context, doc model.BannedDoc) error

	Mutes(ctx context.Context) (model.MutedDoc, error)
	SaveMutes(ctx context.Context, doc model.MutedDoc) error
}

// UserDirectory is the slice of the user registry the engine needs: account
// existence for the identity gate and IP resolution for bans.
type UserDirectory interface {
	Exists(ctx context.Context, nick string) (bool, error)
	IP(ctx context.Context, nick string) (string, error)
}
