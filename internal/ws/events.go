package ws

// Inbound event types.
const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMessage = "message"
)

// Outbound event types.
const (
	EventNewMessage      = "new_message"
	EventMessageSent     = "message_sent"
	EventMessageDeleted  = "message_deleted"
	EventChatCleared     = "chat_cleared"
	EventUserBanned      = "user_banned"
	EventUserMuted       = "user_muted"
	EventNicknameChanged = "nickname_changed"
	EventRoomUpdate      = "room_update"
	EventUserActivity    = "user_activity"
	EventError           = "error"
)
