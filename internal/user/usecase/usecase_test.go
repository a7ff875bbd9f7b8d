package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RZKGWIXX/March/config"
	messagemodel "github.com/RZKGWIXX/March/internal/message/model"
	messagerepo "github.com/RZKGWIXX/March/internal/message/repository"
	"github.com/RZKGWIXX/March/internal/presence"
	roommodel "github.com/RZKGWIXX/March/internal/room/model"
	roomrepo "github.com/RZKGWIXX/March/internal/room/repository"
	"github.com/RZKGWIXX/March/internal/store/memory"
	"github.com/RZKGWIXX/March/internal/user/repository"
	"github.com/RZKGWIXX/March/internal/ws"
	appErrors "github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

type notifyRecorder struct {
	events []string
}

func (n *notifyRecorder) ToRoom(_, event string, _ any, _ string) {
	n.events = append(n.events, event)
}

type userFixture struct {
	uc       *UserUsecase
	rooms    *roomrepo.RoomRepository
	messages *messagerepo.MessageRepository
	tracker  *presence.Tracker
	notify   *notifyRecorder
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	st := memory.New()
	userRepo := repository.NewUserRepository(st, logger.Nop())
	roomRepo := roomrepo.NewRoomRepository(st, logger.Nop())
	msgRepo := messagerepo.NewMessageRepository(st, logger.Nop())
	tracker := presence.NewTracker()
	notify := &notifyRecorder{}

	return &userFixture{
		uc:       NewUserUsecase(userRepo, roomRepo, msgRepo, tracker, notify, config.Default(), logger.Nop()),
		rooms:    roomRepo,
		messages: msgRepo,
		tracker:  tracker,
		notify:   notify,
	}
}

func TestUserUsecase_Ensure(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - creates then refreshes IP", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.uc.Ensure(ctx, "alice", "secret", "10.0.0.1"))
		require.NoError(t, f.uc.Ensure(ctx, "alice", "secret", "10.0.0.9"))

		ip, err := f.uc.IP(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, "10.0.0.9", ip)

		exists, err := f.uc.Exists(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("sad path - missing credentials", func(t *testing.T) {
		f := newUserFixture(t)
		assert.Error(t, f.uc.Ensure(ctx, "", "secret", "10.0.0.1"))
		assert.Error(t, f.uc.Ensure(ctx, "alice", "", "10.0.0.1"))
	})
}

func TestUserUsecase_ChangeNickname(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - rewrites every back-reference", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.uc.Ensure(ctx, "alice", "secret", "10.0.0.1"))
		require.NoError(t, f.uc.Ensure(ctx, "bob", "secret", "10.0.0.2"))

		// A private room keyed on the old nickname, with history,
		// blocks in both directions, and hidden indices.
		key := roommodel.PrivateKey("alice", "bob")
		rooms, err := f.rooms.Rooms(ctx)
		require.NoError(t, err)
		rooms[key] = roommodel.Room{
			Members: []string{"alice", "bob"},
			Admins:  []string{"alice"},
			Type:    roommodel.TypePrivate,
		}
		require.NoError(t, f.rooms.SaveRooms(ctx, rooms))

		msgs, err := f.messages.Messages(ctx)
		require.NoError(t, err)
		msgs[key] = []messagemodel.Message{{Nick: "alice", Text: "hi", Timestamp: 1}}
		require.NoError(t, f.messages.SaveMessages(ctx, msgs))

		blocks, err := f.rooms.Blocks(ctx)
		require.NoError(t, err)
		blocks["alice"] = []string{"carol"}
		blocks["carol"] = []string{"alice"}
		require.NoError(t, f.rooms.SaveBlocks(ctx, blocks))

		hidden, err := f.messages.Hidden(ctx)
		require.NoError(t, err)
		hidden["alice"] = map[string][]int{key: {0}}
		require.NoError(t, f.messages.SaveHidden(ctx, hidden))

		require.NoError(t, f.uc.ChangeNickname(ctx, "alice", "alicia"))

		newKey := roommodel.PrivateKey("alicia", "bob")
		rooms, err = f.rooms.Rooms(ctx)
		require.NoError(t, err)
		assert.NotContains(t, rooms, key)
		require.Contains(t, rooms, newKey)
		assert.Equal(t, []string{"alicia", "bob"}, rooms[newKey].Members)
		assert.Equal(t, []string{"alicia"}, rooms[newKey].Admins)

		msgs, err = f.messages.Messages(ctx)
		require.NoError(t, err)
		assert.NotContains(t, msgs, key)
		require.Len(t, msgs[newKey], 1)
		assert.Equal(t, "hi", msgs[newKey][0].Text)

		blocks, err = f.rooms.Blocks(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"carol"}, blocks["alicia"])
		assert.Equal(t, []string{"alicia"}, blocks["carol"])

		hidden, err = f.messages.Hidden(ctx)
		require.NoError(t, err)
		assert.NotContains(t, hidden, "alice")
		assert.Contains(t, hidden["alicia"], newKey)

		exists, err := f.uc.Exists(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, exists)
		exists, err = f.uc.Exists(ctx, "alicia")
		require.NoError(t, err)
		assert.True(t, exists)

		assert.Contains(t, f.notify.events, ws.EventNicknameChanged)
	})

	t.Run("sad path - taken nickname leaves state unchanged", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.uc.Ensure(ctx, "alice", "secret", "10.0.0.1"))
		require.NoError(t, f.uc.Ensure(ctx, "bob", "secret", "10.0.0.2"))

		err := f.uc.ChangeNickname(ctx, "alice", "bob")
		assert.ErrorIs(t, err, appErrors.ErrNicknameTaken)

		exists, err := f.uc.Exists(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("sad path - once per day", func(t *testing.T) {
		f := newUserFixture(t)
		base := time.Now()
		f.uc.now = func() time.Time { return base }
		require.NoError(t, f.uc.Ensure(ctx, "alice", "secret", "10.0.0.1"))

		require.NoError(t, f.uc.ChangeNickname(ctx, "alice", "alicia"))
		err := f.uc.ChangeNickname(ctx, "alicia", "ali")
		assert.ErrorIs(t, err, appErrors.ErrNicknameCooldown)

		f.uc.now = func() time.Time { return base.Add(25 * time.Hour) }
		require.NoError(t, f.uc.ChangeNickname(ctx, "alicia", "ali"))
	})

	t.Run("sad path - unknown user", func(t *testing.T) {
		f := newUserFixture(t)
		err := f.uc.ChangeNickname(ctx, "ghost", "spirit")
		assert.ErrorIs(t, err, appErrors.ErrUserNotFound)
	})
}

func TestUserUsecase_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - cascades to rooms, blocks, hidden state", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.uc.Ensure(ctx, "alice", "secret", "10.0.0.1"))
		require.NoError(t, f.uc.Ensure(ctx, "bob", "secret", "10.0.0.2"))

		key := roommodel.PrivateKey("alice", "bob")
		rooms, err := f.rooms.Rooms(ctx)
		require.NoError(t, err)
		rooms[key] = roommodel.Room{
			Members: []string{"alice", "bob"},
			Admins:  []string{"alice"},
			Type:    roommodel.TypePrivate,
		}
		rooms["gophers"] = roommodel.Room{
			Members: []string{"alice", "bob", "carol"},
			Admins:  []string{"alice"},
			Type:    roommodel.TypeGroup,
		}
		require.NoError(t, f.rooms.SaveRooms(ctx, rooms))

		blocks, err := f.rooms.Blocks(ctx)
		require.NoError(t, err)
		blocks["alice"] = []string{"carol"}
		blocks["bob"] = []string{"alice", "carol"}
		require.NoError(t, f.rooms.SaveBlocks(ctx, blocks))

		require.NoError(t, f.uc.Delete(ctx, "alice"))

		rooms, err = f.rooms.Rooms(ctx)
		require.NoError(t, err)
		assert.NotContains(t, rooms, key)
		require.Contains(t, rooms, "gophers")
		assert.Equal(t, []string{"bob", "carol"}, rooms["gophers"].Members)
		// Admin seat passes to the first remaining member.
		assert.Equal(t, []string{"bob"}, rooms["gophers"].Admins)

		blocks, err = f.rooms.Blocks(ctx)
		require.NoError(t, err)
		assert.NotContains(t, blocks, "alice")
		assert.Equal(t, []string{"carol"}, blocks["bob"])

		exists, err := f.uc.Exists(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("sad path - unknown user", func(t *testing.T) {
		f := newUserFixture(t)
		assert.ErrorIs(t, f.uc.Delete(ctx, "ghost"), appErrors.ErrUserNotFound)
	})
}

func TestUserUsecase_SearchAndList(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)
	for _, nick := range []string{"alice", "Alfred", "bob", "malice"} {
		require.NoError(t, f.uc.Ensure(ctx, nick, "secret", "10.0.0.1"))
	}

	t.Run("happy path - case-insensitive substring, excludes caller", func(t *testing.T) {
		matches, err := f.uc.Search(ctx, "AL", "alice", 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alfred", "malice"}, matches)
	})

	t.Run("happy path - limit applies after sorting", func(t *testing.T) {
		matches, err := f.uc.Search(ctx, "", "", 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"Alfred", "alice"}, matches)
	})

	t.Run("happy path - list carries presence flags", func(t *testing.T) {
		f.tracker.Touch("bob", roommodel.General)

		infos, err := f.uc.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, infos, 3)
		for _, info := range infos {
			assert.Equal(t, info.Nickname == "bob", info.Online, info.Nickname)
		}
	})
}
