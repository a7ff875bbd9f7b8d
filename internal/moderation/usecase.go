package moderation

import (
	"context"

	"github.com/RZKGWIXX/March/internal/moderation/model"
)

// Gatekeeper is the per-message moderation surface the pipeline consumes.
type Gatekeeper interface {
	// Check runs every gate in the defined order against an inbound
	// message. A nil return means the message may be persisted and
	// broadcast; otherwise the error unwraps to a *Rejection.
	Check(ctx context.Context, roomName, nick, text string) error

	// LoginBan returns the active ban matching nick or ip, if any.
	// Used by the login path, which also matches on IP.
	LoginBan(ctx context.Context, nick, ip string) (*model.Ban, error)

	// LoginAllowed gates login attempts per IP.
	LoginAllowed(ip string) bool
}

// Admin is the privileged moderation surface.
type Admin interface {
	Ban(ctx context.Context, username, reason string, durationHours int, by string) (*model.Ban, error)
	Unban(ctx context.Context, username string) error
	ActiveBans(ctx context.Context) ([]model.Ban, error)
	Mute(ctx context.Context, roomName, nick string, minutes int, by string) error
	Unmute(ctx context.Context, roomName, nick string) error
}
