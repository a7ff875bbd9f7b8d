package repository

import (
	"context"

	"github.com/RZKGWIXX/March/internal/store"
	"github.com/RZKGWIXX/March/internal/user/model"
	"github.com/RZKGWIXX/March/pkg/logger"
)

type UserRepository struct {
	store  store.Store
	logger *logger.Logger
}

func NewUserRepository(s store.Store, logger *logger.Logger) *UserRepository {
	return &UserRepository{store: s, logger: logger}
}

func (r *UserRepository) Users(ctx context.Context) (model.UsersDoc, error) {
	var doc model.UsersDoc
	degraded, err := store.Load(ctx, r.store, store.Users, &doc)
	if err != nil {
		return nil, err
	}
	if degraded {
		r.logger.Warn("users read degraded to default document")
	}
	if doc == nil {
		doc = model.UsersDoc{}
	}
	return doc, nil
}

func (r *UserRepository) SaveUsers(ctx context.Context, doc model.UsersDoc) error {
	return store.Save(ctx, r.store, store.Users, doc)
}

func (r *UserRepository) Cooldowns(ctx context.Context) (model.CooldownsDoc, error) {
	var doc model.CooldownsDoc
	degraded, err := store.Load(ctx, r.store, store.NicknameCooldowns, &doc)
	if err != nil {
		return nil, err
	}
	if degraded {
		r.logger.Warn("nickname_cooldowns read degraded to default document")
	}
	if doc == nil {
		doc = model.CooldownsDoc{}
	}
	return doc, nil
}

func (r *UserRepository) SaveCooldowns(ctx context.Context, doc model.CooldownsDoc) error {
	return store.Save(ctx, r.store, store.NicknameCooldowns, doc)
}
