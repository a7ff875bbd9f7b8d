package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/RZKGWIXX/March/config"
	"github.com/RZKGWIXX/March/internal/message"
	"github.com/RZKGWIXX/March/internal/presence"
	"github.com/RZKGWIXX/March/internal/room"
	roommodel "github.com/RZKGWIXX/March/internal/room/model"
	"github.com/RZKGWIXX/March/internal/user"
	"github.com/RZKGWIXX/March/internal/user/model"
	"github.com/RZKGWIXX/March/internal/ws"
	"github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

const nicknameCooldown = 24 * time.Hour

// Notifier is the slice of the hub the registry needs for rename events.
type Notifier interface {
	ToRoom(room, event string, payload any, excludeNick string)
}

type UserUsecase struct {
	repo     user.Repository
	rooms    room.Repository
	messages message.Repository
	tracker  *presence.Tracker
	notify   Notifier
	cfg      *config.Config
	logger   *logger.Logger

	now func() time.Time
}

func NewUserUsecase(repo user.Repository, rooms room.Repository, messages message.Repository,
	tracker *presence.Tracker, notify Notifier, cfg *config.Config, logger *logger.Logger) *UserUsecase {
	return &UserUsecase{
		repo:     repo,
		rooms:    rooms,
		messages: messages,
		tracker:  tracker,
		notify:   notify,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (uc *UserUsecase) Ensure(ctx context.Context, nick, password, ip string) error {
	nick = strings.TrimSpace(nick)
	if nick == "" || password == "" {
		return errors.InvalidArg("nickname and password are required")
	}

	doc, err := uc.repo.Users(ctx)
	if err != nil {
		return err
	}
	if existing, ok := doc[nick]; ok {
		existing.IP = ip
		doc[nick] = existing
	} else {
		doc[nick] = model.User{
			ID:        uuid.New(),
			IP:        ip,
			Nickname:  nick,
			Password:  password,
			CreatedAt: uc.now().Unix(),
		}
	}
	return uc.repo.SaveUsers(ctx, doc)
}

func (uc *UserUsecase) Exists(ctx context.Context, nick string) (bool, error) {
	doc, err := uc.repo.Users(ctx)
	if err != nil {
		return false, err
	}
	_, ok := doc[nick]
	return ok, nil
}

func (uc *UserUsecase) IP(ctx context.Context, nick string) (string, error) {
	doc, err := uc.repo.Users(ctx)
	if err != nil {
		return "", err
	}
	u, ok := doc[nick]
	if !ok {
		return "", errors.ErrUserNotFound
	}
	return u.IP, nil
}

func (uc *UserUsecase) ChangeNickname(ctx context.Context, oldNick, newNick string) error {
	newNick = strings.TrimSpace(newNick)
	if newNick == "" || newNick == oldNick {
		return errors.InvalidArg("invalid nickname")
	}

	users, err := uc.repo.Users(ctx)
	if err != nil {
		return err
	}
	rec, ok := users[oldNick]
	if !ok {
		return errors.ErrUserNotFound
	}
	if _, taken := users[newNick]; taken {
		return errors.ErrNicknameTaken
	}

	cooldowns, err := uc.repo.Cooldowns(ctx)
	if err != nil {
		return err
	}
	now := uc.now()
	if last, ok := cooldowns[oldNick]; ok && now.Sub(time.Unix(last, 0)) < nicknameCooldown {
		return errors.ErrNicknameCooldown
	}

	// From here on every back-reference is rewritten. The round trips are
	// read-modify-write without a transaction; the accepted last-writer-
	// wins trade-off applies.
	rec.Nickname = newNick
	delete(users, oldNick)
	users[newNick] = rec
	if err := uc.repo.SaveUsers(ctx, users); err != nil {
		return err
	}

	delete(cooldowns, oldNick)
	cooldowns[newNick] = now.Unix()
	if err := uc.repo.SaveCooldowns(ctx, cooldowns); err != nil {
		uc.logger.Warn("failed to persist nickname cooldown", "nick", newNick, "err", err)
	}

	renamedRooms, err := uc.rewriteRooms(ctx, oldNick, newNick)
	if err != nil {
		return err
	}
	if err := uc.rewriteBlocks(ctx, oldNick, newNick); err != nil {
		return err
	}
	if err := uc.rewriteMessageKeys(ctx, oldNick, newNick, renamedRooms); err != nil {
		return err
	}

	uc.tracker.Rename(oldNick, newNick)
	uc.notify.ToRoom(roommodel.General, ws.EventNicknameChanged, map[string]any{
		"old": oldNick,
		"new": newNick,
	}, "")
	return nil
}

// rewriteRooms swaps the nickname in member and admin lists and re-keys
// private rooms whose canonical name embeds it. Returns old->new room keys
// for the message/hidden rewrite.
func (uc *UserUsecase) rewriteRooms(ctx context.Context, oldNick, newNick string) (map[string]string, error) {
	doc, err := uc.rooms.Rooms(ctx)
	if err != nil {
		return nil, err
	}

	renamed := make(map[string]string)
	out := make(map[string]roommodel.Room, len(doc))
	for name, rm := range doc {
		if !rm.HasMember(oldNick) && !rm.HasAdmin(oldNick) {
			out[name] = rm
			continue
		}
		rm.Members = replaceAll(rm.Members, oldNick, newNick)
		rm.Admins = replaceAll(rm.Admins, oldNick, newNick)

		newName := name
		if rm.Type == roommodel.TypePrivate && len(rm.Members) == 2 {
			newName = roommodel.PrivateKey(rm.Members[0], rm.Members[1])
		}
		if newName != name {
			renamed[name] = newName
		}
		out[newName] = rm
	}

	if err := uc.rooms.SaveRooms(ctx, out); err != nil {
		return nil, err
	}
	return renamed, nil
}

func (uc *UserUsecase) rewriteBlocks(ctx context.Context, oldNick, newNick string) error {
	doc, err := uc.rooms.Blocks(ctx)
	if err != nil {
		return err
	}
	out := make(roommodel.BlocksDoc, len(doc))
	for blocker, list := range doc {
		if blocker == oldNick {
			blocker = newNick
		}
		out[blocker] = replaceAll(list, oldNick, newNick)
	}
	return uc.rooms.SaveBlocks(ctx, out)
}

// rewriteMessageKeys follows renamed private rooms in the message history
// and moves the viewer's hidden-index entries to the new nickname.
func (uc *UserUsecase) rewriteMessageKeys(ctx context.Context, oldNick, newNick string, renamedRooms map[string]string) error {
	if len(renamedRooms) > 0 {
		msgs, err := uc.messages.Messages(ctx)
		if err != nil {
			return err
		}
		for oldName, newName := range renamedRooms {
			if seq, ok := msgs[oldName]; ok {
				msgs[newName] = seq
				delete(msgs, oldName)
			}
		}
		if err := uc.messages.SaveMessages(ctx, msgs); err != nil {
			return err
		}
	}

	hidden, err := uc.messages.Hidden(ctx)
	if err != nil {
		return err
	}
	changed := false
	if rooms, ok := hidden[oldNick]; ok {
		delete(hidden, oldNick)
		hidden[newNick] = rooms
		changed = true
	}
	for _, rooms := range hidden {
		for oldName, newName := range renamedRooms {
			if indices, ok := rooms[oldName]; ok {
				rooms[newName] = indices
				delete(rooms, oldName)
				changed = true
			}
		}
	}
	if !changed {
		return nil
	}
	return uc.messages.SaveHidden(ctx, hidden)
}

func (uc *UserUsecase) Delete(ctx context.Context, nick string) error {
	users, err := uc.repo.Users(ctx)
	if err != nil {
		return err
	}
	if _, ok := users[nick]; !ok {
		return errors.ErrUserNotFound
	}
	delete(users, nick)
	if err := uc.repo.SaveUsers(ctx, users); err != nil {
		return err
	}

	rooms, err := uc.rooms.Rooms(ctx)
	if err != nil {
		return err
	}
	var purge []string
	for name, rm := range rooms {
		if !rm.HasMember(nick) {
			continue
		}
		if rm.Type == roommodel.TypePrivate {
			delete(rooms, name)
			purge = append(purge, name)
			continue
		}
		rm.Members = roommodel.WithoutMember(rm.Members, nick)
		rm.Admins = roommodel.WithoutMember(rm.Admins, nick)
		if len(rm.Members) == 0 {
			delete(rooms, name)
			purge = append(purge, name)
			continue
		}
		if len(rm.Admins) == 0 {
			rm.Admins = []string{rm.Members[0]}
		}
		rooms[name] = rm
	}
	if err := uc.rooms.SaveRooms(ctx, rooms); err != nil {
		return err
	}
	for _, name := range purge {
		if err := uc.messages.PurgeRoom(ctx, name); err != nil {
			uc.logger.Warn("failed to purge room history", "room", name, "err", err)
		}
	}

	blocks, err := uc.rooms.Blocks(ctx)
	if err != nil {
		return err
	}
	delete(blocks, nick)
	for blocker, list := range blocks {
		blocks[blocker] = roommodel.WithoutMember(list, nick)
	}
	if err := uc.rooms.SaveBlocks(ctx, blocks); err != nil {
		return err
	}

	hidden, err := uc.messages.Hidden(ctx)
	if err != nil {
		return err
	}
	delete(hidden, nick)
	if err := uc.messages.SaveHidden(ctx, hidden); err != nil {
		return err
	}

	cooldowns, err := uc.repo.Cooldowns(ctx)
	if err != nil {
		return err
	}
	delete(cooldowns, nick)
	if err := uc.repo.SaveCooldowns(ctx, cooldowns); err != nil {
		uc.logger.Warn("failed to clear nickname cooldown", "nick", nick, "err", err)
	}

	uc.tracker.Forget(nick)
	return nil
}

func (uc *UserUsecase) Search(ctx context.Context, query, exclude string, limit int) ([]string, error) {
	doc, err := uc.repo.Users(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	matches := make([]string, 0, limit)
	for nick := range doc {
		if nick == exclude {
			continue
		}
		if strings.Contains(strings.ToLower(nick), q) {
			matches = append(matches, nick)
		}
	}
	sort.Strings(matches)
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (uc *UserUsecase) List(ctx context.Context, exclude string) ([]user.Info, error) {
	doc, err := uc.repo.Users(ctx)
	if err != nil {
		return nil, err
	}
	window := time.Duration(uc.cfg.Moderation.OnlineWindowSecs) * time.Second
	online := uc.tracker.Snapshot(window)

	infos := make([]user.Info, 0, len(doc))
	for nick := range doc {
		if nick == exclude {
			continue
		}
		infos = append(infos, user.Info{Nickname: nick, Online: online[nick]})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Nickname < infos[j].Nickname })
	return infos, nil
}

func replaceAll(list []string, old, new string) []string {
	out := make([]string, len(list))
	for i, v := range list {
		if v == old {
			out[i] = new
		} else {
			out[i] = v
		}
	}
	return out
}
