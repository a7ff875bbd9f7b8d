package errors

var (
	// Domain errors used across usecases and handlers.
	ErrNicknameTaken    = AlreadyExists("nickname is already taken")
	ErrUserNotFound     = NotFound("user not found")
	ErrRoomNotFound     = NotFound("room not found")
	ErrMessageNotFound  = NotFound("message not found")
	ErrInvalidRoomName  = InvalidArg("invalid room name")
	ErrRoomExists       = AlreadyExists("room already exists")
	ErrNotMember        = Forbidden("not a member of this room")
	ErrNotRoomAdmin     = Forbidden("only room admins can do that")
	ErrNotAdmin         = Forbidden("access denied")
	ErrGeneralImmutable = Forbidden("cannot delete general chat")
	ErrBlocked          = FailedPrecondition("you are blocked by this user")
	ErrSelfChat         = InvalidArg("cannot open a private chat with yourself")
	ErrKickSelf         = InvalidArg("cannot kick yourself, leave the room instead")
	ErrNicknameCooldown = FailedPrecondition("nickname can only be changed once per 24 hours")
	ErrLoginRateLimited = RateLimited("too many attempts, try again later")
)
