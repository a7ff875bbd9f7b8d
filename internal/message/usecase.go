package message

import (
	"context"

	"github.com/RZKGWIXX/March/internal/message/model"
)

// SendOptions carry the per-call variations of a send: media type metadata,
// forward attribution, and the echo override used by forwarded and file
// messages regardless of the deployment's default.
type SendOptions struct {
	Type           string
	FileType       string
	Forwarded      bool
	OriginalSender string
	ForceEcho      bool
}

// SendResult distinguishes "saved" from "best-effort, possibly lost": a
// store write failure is soft and does not abort the broadcast, but callers
// can tell the difference.
type SendResult struct {
	Message   model.Message
	Persisted bool
}

type Sender interface {
	Send(ctx context.Context, roomName, nick, text string, opts SendOptions) (*SendResult, error)
	SendFile(ctx context.Context, roomName, nick, fileName, fileType string) (*SendResult, error)
	Forward(ctx context.Context, fromRoom string, index int, toRoom, actor string) (*SendResult, error)

	History(ctx context.Context, roomName, viewer string) ([]model.Message, error)

	DeleteForAll(ctx context.Context, roomName string, index int, actor string) error
	DeleteForMe(ctx context.Context, roomName string, index int, actor string) error
	ClearRoom(ctx context.Context, roomName, actor string) error
}
