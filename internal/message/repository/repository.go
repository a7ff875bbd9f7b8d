package repository

import (
	"context"

	"github.com/RZKGWIXX/March/internal/message/model"
	"github.com/RZKGWIXX/March/internal/store"
	"github.com/RZKGWIXX/March/pkg/logger"
)

type MessageRepository struct {
	store  store.Store
	logger *logger.Logger
}

func NewMessageRepository(s store.Store, logger *logger.Logger) *MessageRepository {
	return &MessageRepository{store: s, logger: logger}
}

func (r *MessageRepository) Messages(ctx context.Context) (model.MessagesDoc, error) {
	var doc model.MessagesDoc
	degraded, err := store.Load(ctx, r.store, store.Messages, &doc)
	if err != nil {
		return nil, err
	}
	if degraded {
		r.logger.Warn("messages read degraded to default document")
	}
	if doc == nil {
		doc = model.MessagesDoc{"general": {}}
	}
	return doc, nil
}

func (r *MessageRepository) SaveMessages(ctx context.Context, doc model.MessagesDoc) error {
	return store.Save(ctx, r.store, store.Messages, doc)
}

func (r *MessageRepository) Hidden(ctx context.Context) (model.HiddenDoc, error) {
	var doc model.HiddenDoc
	degraded, err := store.Load(ctx, r.store, store.HiddenMessages, &doc)
	if err != nil {
		return nil, err
	}
	if degraded {
		r.logger.Warn("hidden_messages read degraded to default document")
	}
	if doc == nil {
		doc = model.HiddenDoc{}
	}
	return doc, nil
}

func (r *MessageRepository) SaveHidden(ctx context.Context, doc model.HiddenDoc) error {
	return store.Save(ctx, r.store, store.HiddenMessages, doc)
}

func (r *MessageRepository) PurgeRoom(ctx context.Context, room string) error {
	doc, err := r.Messages(ctx)
	if err != nil {
		return err
	}
	if _, ok := doc[room]; !ok {
		return nil
	}
	delete(doc, room)
	return r.SaveMessages(ctx, doc)
}
