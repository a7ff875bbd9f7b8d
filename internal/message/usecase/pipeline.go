package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/RZKGWIXX/March/config"
	"github.com/RZKGWIXX/March/internal/message"
	"github.com/RZKGWIXX/March/internal/message/model"
	"github.com/RZKGWIXX/March/internal/moderation"
	"github.com/RZKGWIXX/March/internal/room"
	roommodel "github.com/RZKGWIXX/March/internal/room/model"
	"github.com/RZKGWIXX/March/internal/ws"
	"github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

// Pipeline owns the Received -> Validated -> Persisted -> Broadcast flow.
// Any moderation rejection is terminal: nothing is persisted, nothing is
// broadcast, only the sender learns the reason.
type Pipeline struct {
	repo      message.Repository
	rooms     room.Registry
	gate      moderation.Gatekeeper
	broadcast message.Broadcaster
	cfg       *config.Config
	logger    *logger.Logger

	now func() time.Time
}

func NewPipeline(repo message.Repository, rooms room.Registry, gate moderation.Gatekeeper,
	broadcast message.Broadcaster, cfg *config.Config, logger *logger.Logger) *Pipeline {
	return &Pipeline{
		repo:      repo,
		rooms:     rooms,
		gate:      gate,
		broadcast: broadcast,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (p *Pipeline) Send(ctx context.Context, roomName, nick, text string, opts message.SendOptions) (*message.SendResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.InvalidArg("message is empty")
	}

	member, err := p.rooms.IsMember(ctx, roomName, nick)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errors.ErrNotMember
	}

	if err := p.gate.Check(ctx, roomName, nick, text); err != nil {
		return nil, err
	}

	msg := model.Message{
		Nick:           nick,
		Text:           text,
		Timestamp:      p.now().Unix(),
		Type:           opts.Type,
		FileType:       opts.FileType,
		Forwarded:      opts.Forwarded,
		OriginalSender: opts.OriginalSender,
	}

	persisted := true
	if err := p.append(ctx, roomName, msg); err != nil {
		// Soft failure: the message still reaches connected clients.
		p.logger.Warn("message persist failed, delivering best-effort", "room", roomName, "err", err)
		persisted = false
	}

	payload := map[string]any{
		"room":      roomName,
		"nick":      msg.Nick,
		"text":      msg.Text,
		"timestamp": msg.Timestamp,
	}
	if msg.Type != "" {
		payload["type"] = msg.Type
	}
	if msg.FileType != "" {
		payload["file_type"] = msg.FileType
	}
	if msg.Forwarded {
		payload["forwarded"] = true
		payload["original_sender"] = msg.OriginalSender
	}

	echo := p.cfg.Chat.EchoSelf || opts.ForceEcho
	if echo {
		p.broadcast.ToRoom(roomName, ws.EventNewMessage, payload, "")
	} else {
		p.broadcast.ToRoom(roomName, ws.EventNewMessage, payload, nick)
		p.broadcast.ToNick(nick, ws.EventMessageSent, payload)
	}

	return &message.SendResult{Message: msg, Persisted: persisted}, nil
}

func (p *Pipeline) SendFile(ctx context.Context, roomName, nick, fileName, fileType string) (*message.SendResult, error) {
	return p.Send(ctx, roomName, nick, fileName, message.SendOptions{
		Type:      "file",
		FileType:  fileType,
		ForceEcho: true,
	})
}

func (p *Pipeline) Forward(ctx context.Context, fromRoom string, index int, toRoom, actor string) (*message.SendResult, error) {
	member, err := p.rooms.IsMember(ctx, fromRoom, actor)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, errors.ErrNotMember
	}

	doc, err := p.repo.Messages(ctx)
	if err != nil {
		return nil, err
	}
	seq := doc[fromRoom]
	if index < 0 || index >= len(seq) {
		return nil, errors.ErrMessageNotFound
	}
	original := seq[index]

	origin := original.Nick
	if original.Forwarded && original.OriginalSender != "" {
		origin = original.OriginalSender
	}

	text := fmt.Sprintf("[Forwarded from %s] %s", origin, original.Text)
	return p.Send(ctx, toRoom, actor, text, message.SendOptions{
		Forwarded:      true,
		OriginalSender: origin,
		ForceEcho:      true,
	})
}

func (p *Pipeline) append(ctx context.Context, roomName string, msg model.Message) error {
	doc, err := p.repo.Messages(ctx)
	if err != nil {
		return err
	}
	seq := append(doc[roomName], msg)
	if limit := p.cfg.Chat.HistoryLimit; len(seq) > limit {
		seq = seq[len(seq)-limit:]
	}
	doc[roomName] = seq
	return p.repo.SaveMessages(ctx, doc)
}

// History returns a room's sequence with the viewer's hidden indices
// filtered out, highest index first so removals do not shift the rest.
// Non-members of non-general rooms see an empty feed rather than an error.
func (p *Pipeline) History(ctx context.Context, roomName, viewer string) ([]model.Message, error) {
	member, err := p.rooms.IsMember(ctx, roomName, viewer)
	if err != nil {
		return nil, err
	}
	if !member {
		return []model.Message{}, nil
	}

	doc, err := p.repo.Messages(ctx)
	if err != nil {
		return nil, err
	}
	seq := append([]model.Message(nil), doc[roomName]...)

	hidden, err := p.repo.Hidden(ctx)
	if err != nil {
		return nil, err
	}
	indices := append([]int(nil), hidden[viewer][roomName]...)
	sort.Sort(sort.Reverse(sort.IntSlice(indices)))
	for _, idx := range indices {
		if idx >= 0 && idx < len(seq) {
			seq = append(seq[:idx], seq[idx+1:]...)
		}
	}
	return seq, nil
}

func (p *Pipeline) DeleteForAll(ctx context.Context, roomName string, index int, actor string) error {
	doc, err := p.repo.Messages(ctx)
	if err != nil {
		return err
	}
	seq := doc[roomName]
	if index < 0 || index >= len(seq) {
		return errors.ErrMessageNotFound
	}

	isPrivileged := actor == p.cfg.Chat.AdminNick
	isOwn := seq[index].Nick == actor
	if !(isPrivileged || (roomName != roommodel.General && isOwn)) {
		return errors.Forbidden("permission denied")
	}

	doc[roomName] = append(seq[:index], seq[index+1:]...)
	if err := p.repo.SaveMessages(ctx, doc); err != nil {
		return err
	}

	p.broadcast.ToRoom(roomName, ws.EventMessageDeleted, map[string]any{
		"room":       roomName,
		"index":      index,
		"deleted_by": actor,
	}, "")
	return nil
}

func (p *Pipeline) DeleteForMe(ctx context.Context, roomName string, index int, actor string) error {
	doc, err := p.repo.Messages(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(doc[roomName]) {
		return errors.ErrMessageNotFound
	}

	hidden, err := p.repo.Hidden(ctx)
	if err != nil {
		return err
	}
	if hidden[actor] == nil {
		hidden[actor] = make(map[string][]int)
	}
	for _, existing := range hidden[actor][roomName] {
		if existing == index {
			return nil
		}
	}
	hidden[actor][roomName] = append(hidden[actor][roomName], index)
	return p.repo.SaveHidden(ctx, hidden)
}

func (p *Pipeline) ClearRoom(ctx context.Context, roomName, actor string) error {
	if actor != p.cfg.Chat.AdminNick {
		return errors.ErrNotAdmin
	}
	doc, err := p.repo.Messages(ctx)
	if err != nil {
		return err
	}
	doc[roomName] = []model.Message{}
	if err := p.repo.SaveMessages(ctx, doc); err != nil {
		return err
	}
	p.broadcast.ToRoom(roomName, ws.EventChatCleared, map[string]any{
		"room":       roomName,
		"cleared_by": actor,
	}, "")
	return nil
}
