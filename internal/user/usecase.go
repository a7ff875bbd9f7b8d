package user

import "context"

// Info is a directory listing entry; Online is advisory presence state.
type Info struct {
	Nickname string `json:"nickname"`
	Online   bool   `json:"online"`
}

type Usecase interface {
	// Ensure creates the account at first successful login and refreshes
	// its IP on later ones. Credential validation belongs to the session
	// gateway, not here.
	Ensure(ctx context.Context, nick, password, ip string) error

	Exists(ctx context.Context, nick string) (bool, error)
	IP(ctx context.Context, nick string) (string, error)

	// ChangeNickname is rate-limited to once per 24h and rewrites every
	// back-reference: rooms (including private room keys and their
	// message history), blocks, hidden-message keys, presence.
	ChangeNickname(ctx context.Context, oldNick, newNick string) error

	// Delete removes the account and cascades to memberships and blocks.
	Delete(ctx context.Context, nick string) error

	Search(ctx context.Context, query, exclude string, limit int) ([]string, error)
	List(ctx context.Context, exclude string) ([]Info, error)
}
