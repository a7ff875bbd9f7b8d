package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RZKGWIXX/March/config"
	messagerepo "github.com/RZKGWIXX/March/internal/message/repository"
	messageusecase "github.com/RZKGWIXX/March/internal/message/usecase"
	moderationrepo "github.com/RZKGWIXX/March/internal/moderation/repository"
	moderationusecase "github.com/RZKGWIXX/March/internal/moderation/usecase"
	"github.com/RZKGWIXX/March/internal/presence"
	roomrepo "github.com/RZKGWIXX/March/internal/room/repository"
	roomusecase "github.com/RZKGWIXX/March/internal/room/usecase"
	"github.com/RZKGWIXX/March/internal/store/memory"
	userrepo "github.com/RZKGWIXX/March/internal/user/repository"
	userusecase "github.com/RZKGWIXX/March/internal/user/usecase"
	"github.com/RZKGWIXX/March/internal/ws"
	"github.com/RZKGWIXX/March/pkg/logger"
)

// newTestServer wires the full stack over the in-memory store, same shape
// as the production composition.
func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()
	st := memory.New()
	cfg := config.Default()
	nop := logger.Nop()

	userRepository := userrepo.NewUserRepository(st, nop)
	roomRepository := roomrepo.NewRoomRepository(st, nop)
	moderationRepository := moderationrepo.NewModerationRepository(st, nop)
	messageRepository := messagerepo.NewMessageRepository(st, nop)

	tracker := presence.NewTracker()
	hub := ws.NewHub(tracker, nop)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	users := userusecase.NewUserUsecase(userRepository, roomRepository, messageRepository,
		tracker, hub, cfg, nop)
	engine := moderationusecase.NewEngine(ctx, moderationRepository, users, cfg, nop)
	rooms := roomusecase.NewRoomUsecase(roomRepository, messageRepository, nop)
	pipeline := messageusecase.NewPipeline(messageRepository, rooms, engine, hub, cfg, nop)

	gateway := NewCookieGateway("test-secret")
	srv := &Server{
		Users:    users,
		Rooms:    rooms,
		Pipeline: pipeline,
		Mod:      engine,
		Hub:      hub,
		Gateway:  gateway,
		Issuer:   gateway,
		Cfg:      cfg,
		Logger:   nop,
	}
	return srv, srv.Routes()
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "10.0.0.1:50000"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, mux *http.ServeMux, nick string) []*http.Cookie {
	t.Helper()
	rec := doJSON(t, mux, http.MethodPost, "/login", map[string]string{
		"nickname": nick, "password": "secret",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return rec.Result().Cookies()
}

func TestServer_Login(t *testing.T) {
	t.Run("happy path - issues a session", func(t *testing.T) {
		_, mux := newTestServer(t)
		cookies := login(t, mux, "alice")
		require.NotEmpty(t, cookies)

		rec := doJSON(t, mux, http.MethodGet, "/rooms", nil, cookies)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("sad path - unauthenticated request", func(t *testing.T) {
		_, mux := newTestServer(t)
		rec := doJSON(t, mux, http.MethodGet, "/rooms", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("sad path - banned identity cannot log back in", func(t *testing.T) {
		srv, mux := newTestServer(t)
		login(t, mux, "alice")

		_, err := srv.Mod.Ban(context.Background(), "alice", "spamming", -1, "Wixxy")
		require.NoError(t, err)

		rec := doJSON(t, mux, http.MethodPost, "/login", map[string]string{
			"nickname": "alice", "password": "secret",
		}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		// Same IP, fresh nickname: still rejected.
		rec = doJSON(t, mux, http.MethodPost, "/login", map[string]string{
			"nickname": "alice2", "password": "secret",
		}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("sad path - login attempts are rate limited per IP", func(t *testing.T) {
		srv, mux := newTestServer(t)
		limit := srv.Cfg.RateLimit.LoginAttempts
		for i := 0; i < limit; i++ {
			doJSON(t, mux, http.MethodPost, "/login", map[string]string{
				"nickname": "alice", "password": "secret",
			}, nil)
		}
		rec := doJSON(t, mux, http.MethodPost, "/login", map[string]string{
			"nickname": "alice", "password": "secret",
		}, nil)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})
}

func TestServer_Rooms(t *testing.T) {
	t.Run("happy path - create group and list", func(t *testing.T) {
		_, mux := newTestServer(t)
		cookies := login(t, mux, "alice")

		rec := doJSON(t, mux, http.MethodPost, "/create_group", map[string]string{"name": "gophers"}, cookies)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, mux, http.MethodGet, "/rooms", nil, cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		var rooms []string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rooms))
		assert.Equal(t, []string{"general", "gophers"}, rooms)
	})

	t.Run("happy path - private chat requires an existing target", func(t *testing.T) {
		_, mux := newTestServer(t)
		alice := login(t, mux, "alice")
		login(t, mux, "bob")

		rec := doJSON(t, mux, http.MethodPost, "/create_private", map[string]string{"nick": "bob"}, alice)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp struct {
			Room string `json:"room"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "private_alice_bob", resp.Room)

		rec = doJSON(t, mux, http.MethodPost, "/create_private", map[string]string{"nick": "ghost"}, alice)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_AdminGate(t *testing.T) {
	t.Run("sad path - non-admin hits the wall", func(t *testing.T) {
		_, mux := newTestServer(t)
		cookies := login(t, mux, "alice")

		rec := doJSON(t, mux, http.MethodPost, "/admin/ban_user", map[string]any{
			"username": "bob", "reason": "spam", "duration": 1,
		}, cookies)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("happy path - admin bans and lists", func(t *testing.T) {
		_, mux := newTestServer(t)
		admin := login(t, mux, "Wixxy")
		login(t, mux, "bob")

		rec := doJSON(t, mux, http.MethodPost, "/admin/ban_user", map[string]any{
			"username": "bob", "reason": "spam", "duration": -1,
		}, admin)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = doJSON(t, mux, http.MethodGet, "/admin/banned_users", nil, admin)
		require.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Banned []struct {
				Username string `json:"username"`
				Until    string `json:"until"`
			} `json:"banned"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Banned, 1)
		assert.Equal(t, "bob", resp.Banned[0].Username)
		assert.Equal(t, "Permanent", resp.Banned[0].Until)
	})
}

func TestServer_Messages(t *testing.T) {
	_, mux := newTestServer(t)
	alice := login(t, mux, "alice")

	rec := doJSON(t, mux, http.MethodPost, "/send_file", map[string]string{
		"room": "general", "file_name": "photo.png", "file_type": "image/png",
	}, alice)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, mux, http.MethodGet, "/messages/general", nil, alice)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []struct {
		Nick string `json:"nick"`
		Type string `json:"type"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "file", history[0].Type)
}
