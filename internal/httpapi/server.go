package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/RZKGWIXX/March/config"
	"github.com/RZKGWIXX/March/internal/message"
	"github.com/RZKGWIXX/March/internal/moderation"
	"github.com/RZKGWIXX/March/internal/room"
	"github.com/RZKGWIXX/March/internal/user"
	"github.com/RZKGWIXX/March/internal/ws"
	"github.com/RZKGWIXX/March/pkg/errors"
	"github.com/RZKGWIXX/March/pkg/logger"
)

// Moderator bundles the two moderation surfaces the API consumes.
type Moderator interface {
	moderation.Gatekeeper
	moderation.Admin
}

type Server struct {
	Users    user.Usecase
	Rooms    room.Registry
	Pipeline message.Sender
	Mod      Moderator
	Hub      *ws.Hub
	Gateway  Gateway
	Issuer   *CookieGateway
	Cfg      *config.Config
	Logger   *logger.Logger
}

func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/ws", s.authed(s.handleWS))

	mux.HandleFunc("/rooms", s.authed(s.handleRooms))
	mux.HandleFunc("/messages/", s.authed(s.handleMessages))
	mux.HandleFunc("/users", s.authed(s.handleUsers))
	mux.HandleFunc("/search_users", s.authed(s.handleSearchUsers))

	mux.HandleFunc("/create_private", s.authed(s.handleCreatePrivate))
	mux.HandleFunc("/create_group", s.authed(s.handleCreateGroup))
	mux.HandleFunc("/delete_room", s.authed(s.handleDeleteRoom))
	mux.HandleFunc("/room/add_member", s.authed(s.handleAddMember))
	mux.HandleFunc("/room/kick", s.authed(s.handleKick))
	mux.HandleFunc("/room/leave", s.authed(s.handleLeave))

	mux.HandleFunc("/block_user", s.authed(s.handleBlock))
	mux.HandleFunc("/unblock_user", s.authed(s.handleUnblock))

	mux.HandleFunc("/delete_message", s.authed(s.handleDeleteMessage))
	mux.HandleFunc("/forward_message", s.authed(s.handleForward))
	mux.HandleFunc("/send_file", s.authed(s.handleSendFile))

	mux.HandleFunc("/change_nickname", s.authed(s.handleChangeNickname))
	mux.HandleFunc("/delete_account", s.authed(s.handleDeleteAccount))

	mux.HandleFunc("/admin/ban_user", s.admin(s.handleBan))
	mux.HandleFunc("/admin/unban_user", s.admin(s.handleUnban))
	mux.HandleFunc("/admin/banned_users", s.admin(s.handleBannedUsers))
	mux.HandleFunc("/admin/mute_user", s.admin(s.handleMute))
	mux.HandleFunc("/admin/unmute_user", s.admin(s.handleUnmute))
	mux.HandleFunc("/admin/clear_chat", s.admin(s.handleClearChat))

	return mux
}

type identityHandler func(w http.ResponseWriter, r *http.Request, nick, ip string)

func (s *Server) authed(next identityHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nick, ip, ok := s.Gateway.Identity(r)
		if !ok {
			writeError(w, errors.Unauthorized("not authenticated"))
			return
		}
		next(w, r, nick, ip)
	}
}

func (s *Server) admin(next identityHandler) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, nick, ip string) {
		if nick != s.Cfg.Chat.AdminNick {
			writeError(w, errors.ErrNotAdmin)
			return
		}
		next(w, r, nick, ip)
	})
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.InvalidArg("malformed request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.CodeOf(err)
	payload := map[string]any{
		"success": false,
		"error":   err.Error(),
		"code":    string(code),
	}
	if rej, ok := moderation.AsRejection(err); ok {
		payload["reason"] = string(rej.Reason)
		if rej.Until != "" {
			payload["until"] = rej.Until
		}
	}
	writeJSON(w, statusFor(code, err), payload)
}

func statusFor(code errors.Code, err error) int {
	if _, ok := moderation.AsRejection(err); ok {
		return http.StatusForbidden
	}
	switch code {
	case errors.CodeInvalidArgument:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeAlreadyExists:
		return http.StatusConflict
	case errors.CodePermissionDenied, errors.CodeBanned, errors.CodeMuted:
		return http.StatusForbidden
	case errors.CodeUnauthenticated:
		return http.StatusUnauthorized
	case errors.CodeRateLimited:
		return http.StatusTooManyRequests
	case errors.CodeFailedPrecondition:
		return http.StatusBadRequest
	case errors.CodeDeadlineExceeded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
