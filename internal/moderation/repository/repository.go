package repository

import (
	"context"

	"github.com/RZKGWIXX/March/internal/moderation/model"
	"github.com/RZKGWIXX/March/internal/store"
	"github.com/RZKGWIXX/March/pkg/logger"
)

type ModerationRepository struct {
	store  store.Store
	logger *logger.Logger
}

func NewModerationRepository(s store.Store, logger *logger.Logger) *ModerationRepository {
	return &ModerationRepository{store: s, logger: logger}
}

func (r *ModerationRepository) Bans(ctx context.Context) (model.BannedDoc, error) {
	var doc model.BannedDoc
	degraded, err := store.Load(ctx, r.store, store.Banned, &doc)
	if err != nil {
		return model.BannedDoc{}, err
	}
	if degraded {
		r.logger.Warn("banned read degraded to default document")
	}
	return doc, nil
}

func (r *ModerationRepository) SaveBans(ctx context.Context, doc model.BannedDoc) error {
	return store.Save(ctx, r.store, store.Banned, doc)
}

func (r *ModerationRepository) Mutes(ctx context.Context) (model.MutedDoc, error) {
	var doc model.MutedDoc
	degraded, err := store.Load(ctx, r.store, store.Muted, &doc)
	if err != nil {
		return nil, err
	}
	if degraded {
		r.logger.Warn("muted read degraded to default document")
	}
	if doc == nil {
		doc = model.MutedDoc{}
	}
	return doc, nil
}

func (r *ModerationRepository) SaveMutes(ctx context.Context, doc model.MutedDoc) error {
	return store.Save(ctx, r.store, store.Muted, doc)
}
