package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	roommodel "github.com/RZKGWIXX/March/internal/room/model"
	"github.com/RZKGWIXX/March/internal/ws"
	"github.com/RZKGWIXX/March/pkg/errors"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, errors.InvalidArg("POST required"))
		return
	}
	ip := clientIP(r)
	if !s.Mod.LoginAllowed(ip) {
		writeError(w, errors.ErrLoginRateLimited)
		return
	}

	var req struct {
		Nickname string `json:"nickname"`
		Password string `json:"password"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	// Ban check precedes any credential handling.
	ban, err := s.Mod.LoginBan(r.Context(), req.Nickname, ip)
	if err != nil {
		writeError(w, err)
		return
	}
	if ban != nil {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"success": false,
			"error":   fmt.Sprintf("You are banned. Reason: %s. Until: %s", ban.Reason, ban.Until),
			"until":   ban.Until,
		})
		return
	}

	if err := s.Users.Ensure(r.Context(), req.Nickname, req.Password, ip); err != nil {
		writeError(w, err)
		return
	}
	s.Issuer.Issue(w, strings.TrimSpace(req.Nickname))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request, nick, ip string) {
	s.Hub.ServeWS(w, r, nick, ip)
}

func (s *Server) handleRooms(w http.ResponseWriter, r *http.Request, nick, _ string) {
	rooms, err := s.Rooms.ListRoomsFor(r.Context(), nick)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request, nick, _ string) {
	roomName := strings.TrimPrefix(r.URL.Path, "/messages/")
	if roomName == "" {
		writeError(w, errors.InvalidArg("room is required"))
		return
	}
	msgs, err := s.Pipeline.History(r.Context(), roomName, nick)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, nick, _ string) {
	users, err := s.Users.List(r.Context(), nick)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request, nick, _ string) {
	matches, err := s.Users.Search(r.Context(), r.URL.Query().Get("q"), nick, 10)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

func (s *Server) handleCreatePrivate(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Nick string `json:"nick"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	target := strings.TrimSpace(req.Nick)
	if exists, err := s.Users.Exists(r.Context(), target); err != nil {
		writeError(w, err)
		return
	} else if !exists {
		writeError(w, errors.ErrUserNotFound)
		return
	}

	roomKey, err := s.Rooms.CreatePrivate(r.Context(), nick, target)
	if err != nil {
		writeError(w, err)
		return
	}
	s.Hub.ToNick(target, ws.EventRoomUpdate, map[string]any{"room": roomKey, "action": "created"})
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "room": roomKey})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	roomName, err := s.Rooms.CreateGroup(r.Context(), req.Name, nick)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "room": roomName})
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room string `json:"room"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Rooms.DeleteRoom(r.Context(), req.Room, nick); err != nil {
		writeError(w, err)
		return
	}
	s.Hub.ToRoom(req.Room, ws.EventRoomUpdate, map[string]any{"room": req.Room, "action": "deleted"}, "")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room string `json:"room"`
		Nick string `json:"nick"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Rooms.AddMember(r.Context(), req.Room, nick, req.Nick); err != nil {
		writeError(w, err)
		return
	}
	s.Hub.ToNick(req.Nick, ws.EventRoomUpdate, map[string]any{"room": req.Room, "action": "added"})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleKick(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room string `json:"room"`
		Nick string `json:"nick"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Rooms.KickMember(r.Context(), req.Room, nick, req.Nick); err != nil {
		writeError(w, err)
		return
	}
	s.Hub.ToNick(req.Nick, ws.EventRoomUpdate, map[string]any{"room": req.Room, "action": "kicked"})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room string `json:"room"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Rooms.LeaveRoom(r.Context(), req.Room, nick); err != nil {
		writeError(w, err)
		return
	}
	s.Hub.ToRoom(req.Room, ws.EventRoomUpdate, map[string]any{"room": req.Room, "action": "left", "nick": nick}, "")
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room string `json:"room"`
		Nick string `json:"nick"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Room != "" {
		peer, err := s.Rooms.BlockPeer(r.Context(), nick, req.Room)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "blocked": peer})
		return
	}
	if err := s.Rooms.Block(r.Context(), nick, req.Nick); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "blocked": req.Nick})
}

func (s *Server) handleUnblock(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Nick string `json:"nick"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Rooms.Unblock(r.Context(), nick, req.Nick); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room  string `json:"room"`
		Index int    `json:"index"`
		Type  string `json:"type"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	var err error
	if req.Type == "me" {
		err = s.Pipeline.DeleteForMe(r.Context(), req.Room, req.Index, nick)
	} else {
		err = s.Pipeline.DeleteForAll(r.Context(), req.Room, req.Index, nick)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleForward(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		FromRoom string `json:"from_room"`
		Index    int    `json:"index"`
		ToRoom   string `json:"to_room"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.Pipeline.Forward(r.Context(), req.FromRoom, req.Index, req.ToRoom, nick)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "persisted": res.Persisted})
}

func (s *Server) handleSendFile(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room     string `json:"room"`
		FileName string `json:"file_name"`
		FileType string `json:"file_type"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	res, err := s.Pipeline.SendFile(r.Context(), req.Room, nick, req.FileName, req.FileType)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "persisted": res.Persisted})
}

func (s *Server) handleChangeNickname(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		New string `json:"new"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Users.ChangeNickname(r.Context(), nick, req.New); err != nil {
		writeError(w, err)
		return
	}
	s.Issuer.Issue(w, strings.TrimSpace(req.New))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request, nick, _ string) {
	if err := s.Users.Delete(r.Context(), nick); err != nil {
		writeError(w, err)
		return
	}
	s.Issuer.Clear(w)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleBan(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Username string `json:"username"`
		Reason   string `json:"reason"`
		Duration int    `json:"duration"` // hours, -1 for permanent
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ban, err := s.Mod.Ban(r.Context(), req.Username, req.Reason, req.Duration, nick)
	if err != nil {
		writeError(w, err)
		return
	}
	s.Hub.ToAll(ws.EventUserBanned, map[string]any{
		"username": ban.Username,
		"reason":   ban.Reason,
		"until":    ban.Until,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUnban(w http.ResponseWriter, r *http.Request, _, _ string) {
	var req struct {
		Username string `json:"username"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Mod.Unban(r.Context(), req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleBannedUsers(w http.ResponseWriter, r *http.Request, _, _ string) {
	bans, err := s.Mod.ActiveBans(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"banned": bans})
}

func (s *Server) handleMute(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room     string `json:"room"`
		Username string `json:"username"`
		Minutes  int    `json:"minutes"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Room == "" {
		req.Room = roommodel.General
	}
	if err := s.Mod.Mute(r.Context(), req.Room, req.Username, req.Minutes, nick); err != nil {
		writeError(w, err)
		return
	}
	s.Hub.ToNick(req.Username, ws.EventUserMuted, map[string]any{
		"room":    req.Room,
		"minutes": req.Minutes,
		"by":      nick,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleUnmute(w http.ResponseWriter, r *http.Request, _, _ string) {
	var req struct {
		Room     string `json:"room"`
		Username string `json:"username"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Room == "" {
		req.Room = roommodel.General
	}
	if err := s.Mod.Unmute(r.Context(), req.Room, req.Username); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleClearChat(w http.ResponseWriter, r *http.Request, nick, _ string) {
	var req struct {
		Room string `json:"room"`
	}
	if err := decode(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := s.Pipeline.ClearRoom(r.Context(), req.Room, nick); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
