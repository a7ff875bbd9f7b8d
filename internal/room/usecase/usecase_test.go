package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RZKGWIXX/March/internal/room/model"
	"github.com/RZKGWIXX/March/internal/room/repository"
	"github.com/RZKGWIXX/March/internal/store/memory"
	appErrors "github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

type purgeRecorder struct {
	purged []string
}

func (p *purgeRecorder) PurgeRoom(_ context.Context, roomName string) error {
	p.purged = append(p.purged, roomName)
	return nil
}

func newTestRegistry(t *testing.T) (*RoomUsecase, *purgeRecorder) {
	t.Helper()
	repo := repository.NewRoomRepository(memory.New(), logger.Nop())
	purger := &purgeRecorder{}
	return NewRoomUsecase(repo, purger, logger.Nop()), purger
}

func TestRoomUsecase_CreatePrivate(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - key is order independent and idempotent", func(t *testing.T) {
		uc, _ := newTestRegistry(t)

		key1, err := uc.CreatePrivate(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.Equal(t, "private_alice_bob", key1)

		key2, err := uc.CreatePrivate(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.Equal(t, key1, key2)

		rm, err := uc.Get(ctx, key1)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "bob"}, rm.Members)
		assert.Equal(t, model.TypePrivate, rm.Type)
	})

	t.Run("sad path - self chat", func(t *testing.T) {
		uc, _ := newTestRegistry(t)

		_, err := uc.CreatePrivate(ctx, "alice", "alice")
		assert.ErrorIs(t, err, appErrors.ErrSelfChat)
	})

	t.Run("sad path - blocked in either direction", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		require.NoError(t, uc.Block(ctx, "bob", "alice"))

		_, err := uc.CreatePrivate(ctx, "alice", "bob")
		assert.ErrorIs(t, err, appErrors.ErrBlocked)

		_, err = uc.CreatePrivate(ctx, "bob", "alice")
		assert.ErrorIs(t, err, appErrors.ErrBlocked)
	})
}

func TestRoomUsecase_CreateGroup(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - creator is sole member and admin", func(t *testing.T) {
		uc, _ := newTestRegistry(t)

		name, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)
		assert.Equal(t, "gophers", name)

		rm, err := uc.Get(ctx, "gophers")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice"}, rm.Members)
		assert.Equal(t, []string{"alice"}, rm.Admins)
		assert.Equal(t, model.TypeGroup, rm.Type)
	})

	t.Run("sad path - reserved and empty names", func(t *testing.T) {
		uc, _ := newTestRegistry(t)

		_, err := uc.CreateGroup(ctx, model.General, "alice")
		assert.ErrorIs(t, err, appErrors.ErrInvalidRoomName)

		_, err = uc.CreateGroup(ctx, "   ", "alice")
		assert.ErrorIs(t, err, appErrors.ErrInvalidRoomName)
	})

	t.Run("sad path - name collision with existing room", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		_, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)

		_, err = uc.CreateGroup(ctx, "gophers", "bob")
		assert.ErrorIs(t, err, appErrors.ErrRoomExists)
	})
}

func TestRoomUsecase_ListRoomsFor(t *testing.T) {
	ctx := context.Background()
	uc, _ := newTestRegistry(t)

	_, err := uc.CreateGroup(ctx, "zebra", "alice")
	require.NoError(t, err)
	_, err = uc.CreateGroup(ctx, "apple", "alice")
	require.NoError(t, err)
	_, err = uc.CreateGroup(ctx, "not-hers", "bob")
	require.NoError(t, err)

	rooms, err := uc.ListRoomsFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{model.General, "apple", "zebra"}, rooms)

	rooms, err = uc.ListRoomsFor(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, []string{model.General}, rooms)
}

func TestRoomUsecase_DeleteRoom(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - either member deletes a private room", func(t *testing.T) {
		uc, purger := newTestRegistry(t)
		key, err := uc.CreatePrivate(ctx, "alice", "bob")
		require.NoError(t, err)

		require.NoError(t, uc.DeleteRoom(ctx, key, "bob"))
		_, err = uc.Get(ctx, key)
		assert.ErrorIs(t, err, appErrors.ErrRoomNotFound)
		assert.Contains(t, purger.purged, key)
	})

	t.Run("sad path - general is immutable", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		err := uc.DeleteRoom(ctx, model.General, "alice")
		assert.ErrorIs(t, err, appErrors.ErrGeneralImmutable)
	})

	t.Run("sad path - group requires admin", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		_, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)
		require.NoError(t, uc.AddMember(ctx, "gophers", "alice", "bob"))

		err = uc.DeleteRoom(ctx, "gophers", "bob")
		assert.ErrorIs(t, err, appErrors.ErrNotRoomAdmin)
	})
}

func TestRoomUsecase_Membership(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - everyone is a member of general", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		member, err := uc.IsMember(ctx, model.General, "anyone")
		require.NoError(t, err)
		assert.True(t, member)
	})

	t.Run("happy path - sole admin leaving promotes first remaining member", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		_, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)
		require.NoError(t, uc.AddMember(ctx, "gophers", "alice", "bob"))
		require.NoError(t, uc.AddMember(ctx, "gophers", "alice", "carol"))

		require.NoError(t, uc.LeaveRoom(ctx, "gophers", "alice"))

		rm, err := uc.Get(ctx, "gophers")
		require.NoError(t, err)
		assert.Equal(t, []string{"bob", "carol"}, rm.Members)
		assert.Equal(t, []string{"bob"}, rm.Admins)
	})

	t.Run("happy path - last member leaving deletes the room", func(t *testing.T) {
		uc, purger := newTestRegistry(t)
		_, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)

		require.NoError(t, uc.LeaveRoom(ctx, "gophers", "alice"))
		_, err = uc.Get(ctx, "gophers")
		assert.ErrorIs(t, err, appErrors.ErrRoomNotFound)
		assert.Contains(t, purger.purged, "gophers")
	})

	t.Run("sad path - admin cannot kick themselves", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		_, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)

		err = uc.KickMember(ctx, "gophers", "alice", "alice")
		assert.ErrorIs(t, err, appErrors.ErrKickSelf)
	})

	t.Run("sad path - only admins kick", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		_, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)
		require.NoError(t, uc.AddMember(ctx, "gophers", "alice", "bob"))
		require.NoError(t, uc.AddMember(ctx, "gophers", "alice", "carol"))

		err = uc.KickMember(ctx, "gophers", "bob", "carol")
		assert.ErrorIs(t, err, appErrors.ErrNotRoomAdmin)
	})
}

func TestRoomUsecase_Blocks(t *testing.T) {
	ctx := context.Background()

	t.Run("happy path - block peer of a private room", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		key, err := uc.CreatePrivate(ctx, "alice", "bob")
		require.NoError(t, err)

		peer, err := uc.BlockPeer(ctx, "alice", key)
		require.NoError(t, err)
		assert.Equal(t, "bob", peer)

		blocked, err := uc.IsBlocked(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.True(t, blocked)

		// Directional: alice is not blocked by bob.
		blocked, err = uc.IsBlocked(ctx, "alice", "bob")
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("happy path - unblock is idempotent", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		require.NoError(t, uc.Block(ctx, "alice", "bob"))
		require.NoError(t, uc.Unblock(ctx, "alice", "bob"))
		require.NoError(t, uc.Unblock(ctx, "alice", "bob"))

		blocked, err := uc.IsBlocked(ctx, "bob", "alice")
		require.NoError(t, err)
		assert.False(t, blocked)
	})

	t.Run("sad path - block peer outside private rooms", func(t *testing.T) {
		uc, _ := newTestRegistry(t)
		_, err := uc.CreateGroup(ctx, "gophers", "alice")
		require.NoError(t, err)

		_, err = uc.BlockPeer(ctx, "alice", "gophers")
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeInvalidArgument, appErrors.CodeOf(err))
	})
}
