package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/RZKGWIXX/March/internal/room"
	"github.com/RZKGWIXX/March/internal/room/model"
	"github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

type RoomUsecase struct {
	repo   room.Repository
	purger room.HistoryPurger
	logger *logger.Logger
}

func NewRoomUsecase(repo room.Repository, purger room.HistoryPurger, logger *logger.Logger) *RoomUsecase {
	return &RoomUsecase{repo: repo, purger: purger, logger: logger}
}

func (uc *RoomUsecase) ListRoomsFor(ctx context.Context, nick string) ([]string, error) {
	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(doc))
	for name, rm := range doc {
		if rm.HasMember(nick) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	// general is implicit and always listed first.
	return append([]string{model.General}, names...), nil
}

func (uc *RoomUsecase) CreatePrivate(ctx context.Context, actor, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return "", errors.InvalidArg("username is required")
	}
	if target == actor {
		return "", errors.ErrSelfChat
	}

	blocked, err := uc.blockedEither(ctx, actor, target)
	if err != nil {
		return "", err
	}
	if blocked {
		return "", errors.ErrBlocked
	}

	key := model.PrivateKey(actor, target)

	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return "", err
	}
	if _, ok := doc[key]; ok {
		return key, nil // idempotent
	}

	pair := []string{actor, target}
	sort.Strings(pair)
	doc[key] = model.Room{
		Members: pair,
		Admins:  []string{actor},
		Type:    model.TypePrivate,
	}
	if err := uc.repo.SaveRooms(ctx, doc); err != nil {
		return "", err
	}
	return key, nil
}

func (uc *RoomUsecase) CreateGroup(ctx context.Context, name, creator string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == model.General {
		return "", errors.ErrInvalidRoomName
	}

	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return "", err
	}
	// Private rooms share the namespace, so a colliding private key also
	// blocks creation.
	if _, ok := doc[name]; ok {
		return "", errors.ErrRoomExists
	}

	doc[name] = model.Room{
		Members: []string{creator},
		Admins:  []string{creator},
		Type:    model.TypeGroup,
	}
	if err := uc.repo.SaveRooms(ctx, doc); err != nil {
		return "", err
	}
	return name, nil
}

func (uc *RoomUsecase) DeleteRoom(ctx context.Context, roomName, actor string) error {
	if roomName == model.General {
		return errors.ErrGeneralImmutable
	}

	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return err
	}
	rm, ok := doc[roomName]
	if !ok {
		return errors.ErrRoomNotFound
	}

	switch rm.Type {
	case model.TypePrivate:
		if !rm.HasMember(actor) {
			return errors.ErrNotMember
		}
	default:
		if !rm.HasAdmin(actor) {
			return errors.ErrNotRoomAdmin
		}
	}

	delete(doc, roomName)
	if err := uc.repo.SaveRooms(ctx, doc); err != nil {
		return err
	}
	if err := uc.purger.PurgeRoom(ctx, roomName); err != nil {
		uc.logger.Warn("failed to purge messages of deleted room", "room", roomName, "err", err)
	}
	return nil
}

func (uc *RoomUsecase) AddMember(ctx context.Context, roomName, actor, nick string) error {
	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return err
	}
	rm, ok := doc[roomName]
	if !ok {
		return errors.ErrRoomNotFound
	}
	if rm.Type != model.TypeGroup {
		return errors.Forbidden("members can only be added to group rooms")
	}
	if !rm.HasAdmin(actor) {
		return errors.ErrNotRoomAdmin
	}
	if rm.HasMember(nick) {
		return nil
	}
	rm.Members = append(rm.Members, nick)
	doc[roomName] = rm
	return uc.repo.SaveRooms(ctx, doc)
}

func (uc *RoomUsecase) KickMember(ctx context.Context, roomName, actor, nick string) error {
	if actor == nick {
		return errors.ErrKickSelf
	}

	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return err
	}
	rm, ok := doc[roomName]
	if !ok {
		return errors.ErrRoomNotFound
	}
	if rm.Type != model.TypeGroup {
		return errors.Forbidden("members can only be kicked from group rooms")
	}
	if !rm.HasAdmin(actor) {
		return errors.ErrNotRoomAdmin
	}
	if !rm.HasMember(nick) {
		return errors.ErrUserNotFound
	}
	return uc.removeMember(ctx, doc, roomName, nick)
}

func (uc *RoomUsecase) LeaveRoom(ctx context.Context, roomName, nick string) error {
	if roomName == model.General {
		return errors.ErrGeneralImmutable
	}
	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return err
	}
	rm, ok := doc[roomName]
	if !ok {
		return errors.ErrRoomNotFound
	}
	if !rm.HasMember(nick) {
		return errors.ErrNotMember
	}
	return uc.removeMember(ctx, doc, roomName, nick)
}

// removeMember applies the departure invariants: an emptied admin set is
// refilled with the first remaining member in storage order, an emptied
// member set deletes the room and its history.
func (uc *RoomUsecase) removeMember(ctx context.Context, doc model.RoomsDoc, roomName, nick string) error {
	rm := doc[roomName]
	rm.Members = model.WithoutMember(rm.Members, nick)
	rm.Admins = model.WithoutMember(rm.Admins, nick)

	if len(rm.Members) == 0 {
		delete(doc, roomName)
		if err := uc.repo.SaveRooms(ctx, doc); err != nil {
			return err
		}
		if err := uc.purger.PurgeRoom(ctx, roomName); err != nil {
			uc.logger.Warn("failed to purge messages of emptied room", "room", roomName, "err", err)
		}
		return nil
	}

	if len(rm.Admins) == 0 {
		rm.Admins = []string{rm.Members[0]}
	}
	doc[roomName] = rm
	return uc.repo.SaveRooms(ctx, doc)
}

func (uc *RoomUsecase) IsMember(ctx context.Context, roomName, nick string) (bool, error) {
	if roomName == model.General {
		return true, nil
	}
	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return false, err
	}
	rm, ok := doc[roomName]
	if !ok {
		return false, nil
	}
	return rm.HasMember(nick), nil
}

func (uc *RoomUsecase) IsAdmin(ctx context.Context, roomName, nick string) (bool, error) {
	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return false, err
	}
	rm, ok := doc[roomName]
	if !ok {
		return false, nil
	}
	return rm.HasAdmin(nick), nil
}

func (uc *RoomUsecase) Get(ctx context.Context, roomName string) (*model.Room, error) {
	doc, err := uc.repo.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	rm, ok := doc[roomName]
	if !ok {
		return nil, errors.ErrRoomNotFound
	}
	return &rm, nil
}

func (uc *RoomUsecase) Block(ctx context.Context, actor, target string) error {
	if target == "" || target == actor {
		return errors.InvalidArg("invalid user to block")
	}
	doc, err := uc.repo.Blocks(ctx)
	if err != nil {
		return err
	}
	for _, b := range doc[actor] {
		if b == target {
			return nil
		}
	}
	doc[actor] = append(doc[actor], target)
	return uc.repo.SaveBlocks(ctx, doc)
}

func (uc *RoomUsecase) BlockPeer(ctx context.Context, actor, privateRoom string) (string, error) {
	if !strings.HasPrefix(privateRoom, "private_") {
		return "", errors.InvalidArg("can only block users in private chats")
	}
	rm, err := uc.Get(ctx, privateRoom)
	if err != nil {
		return "", err
	}
	var peer string
	for _, m := range rm.Members {
		if m != actor {
			peer = m
			break
		}
	}
	if peer == "" {
		return "", errors.ErrNotMember
	}
	if err := uc.Block(ctx, actor, peer); err != nil {
		return "", err
	}
	return peer, nil
}

func (uc *RoomUsecase) Unblock(ctx context.Context, actor, target string) error {
	doc, err := uc.repo.Blocks(ctx)
	if err != nil {
		return err
	}
	list, ok := doc[actor]
	if !ok {
		return nil // absence is success
	}
	out := list[:0]
	for _, b := range list {
		if b != target {
			out = append(out, b)
		}
	}
	if len(out) == 0 {
		delete(doc, actor)
	} else {
		doc[actor] = out
	}
	return uc.repo.SaveBlocks(ctx, doc)
}

// IsBlocked reports whether from is blocked by to.
func (uc *RoomUsecase) IsBlocked(ctx context.Context, from, to string) (bool, error) {
	doc, err := uc.repo.Blocks(ctx)
	if err != nil {
		return false, err
	}
	for _, b := range doc[to] {
		if b == from {
			return true, nil
		}
	}
	return false, nil
}

func (uc *RoomUsecase) blockedEither(ctx context.Context, a, b string) (bool, error) {
	if blocked, err := uc.IsBlocked(ctx, a, b); err != nil || blocked {
		return blocked, err
	}
	return uc.IsBlocked(ctx, b, a)
}
