package contract

import (
	"context"

	"linkchat-be/internal/entity"
)

// MessageCursor selects where backward pagination starts. Exactly one of
// the fields is meaningful: a last-seen message id, or the number of
// messages the client already holds. The zero value means "from the end".
type MessageCursor struct {
	LastMessageId string
	LoadedCount   int
}

// ChatStore is the storage abstraction behind the chat engine. Both
// backends (in-process map, Postgres) implement it with identical
// semantics. Lookups return (nil, nil) when the record is absent.
type ChatStore interface {
	CreateRoom(ctx context.Context, room *entity.ChatRoom) error
	LoadRoom(ctx context.Context, roomId string) (*entity.ChatRoom, []*entity.Member, error)
	DeleteRoom(ctx context.Context, roomId string) error

	AddMember(ctx context.Context, roomId string, member *entity.Member) error
	UpdateMember(ctx context.Context, roomId string, member *entity.Member) error

	AppendMessage(ctx context.Context, roomId string, message *entity.Message) error
	// PageMessages returns at most count messages older than the cursor,
	// oldest-first within the returned page.
	PageMessages(ctx context.Context, roomId string, count int, cursor MessageCursor) ([]*entity.Message, error)
	GetMessage(ctx context.Context, roomId, messageId string) (*entity.Message, error)
}
