package user

import (
	"context"

	"github.com/RZKGWIXX/March/internal/user/model"
)

type Repository interface {
	Users(ctx context.Context) (model.UsersDoc, error)
	SaveUsers(ctx context.Context, doc model.UsersDoc) error

	Cooldowns(ctx context.Context) (model.CooldownsDoc, error)
	SaveCooldowns(ctx context.Context, doc model.CooldownsDoc) error
}
