package conversation

import (
	"context"
)

// Repository defines the storage operations behind the conversation store.
type Repository interface {
	// FindOrCreateThread inserts the thread or refreshes updated_at when it exists.
	FindOrCreateThread(ctx context.Context, key ThreadKey) (*Thread, error)
	FindThreadByKey(ctx context.Context, key string) (*Thread, error)

	// ListMessagesByThreadKey returns the thread's log ordered by position.
	ListMessagesByThreadKey(ctx context.Context, key string) ([]Message, error)
	ListMessages(ctx context.Context, threadID uint, limit int) ([]Message, error)
	GetTail(ctx context.Context, threadID uint) (Tail, error)

	// AppendMessages inserts all messages in one statement. Positions that are
	// already taken are skipped; the number of inserted rows is returned.
	AppendMessages(ctx context.Context, messages []Message) (int, error)
}

// Locker serializes work on one thread key.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
