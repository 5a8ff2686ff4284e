package conversation

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("knowledge-memory/conversation")

// Store persists thread message logs and rebuilds checkpoints from them.
type Store struct {
	repo   Repository
	locker Locker
	now    func() time.Time
}

// NewStore creates a new conversation store
func NewStore(repo Repository, locker Locker) *Store {
	return &Store{
		repo:   repo,
		locker: locker,
		now:    time.Now,
	}
}

// GetCheckpoint rebuilds the checkpoint of a thread. It returns nil when the
// thread has no messages.
func (s *Store) GetCheckpoint(ctx context.Context, threadKey string) (*Checkpoint, error) {
	key, err := ParseThreadKey(threadKey)
	if err != nil {
		return nil, err
	}
	canonical := key.String()

	ctx, span := tracer.Start(ctx, "conversation.GetCheckpoint")
	defer span.End()
	span.SetAttributes(attribute.String("thread.key", canonical))

	messages, err := s.repo.ListMessagesByThreadKey(ctx, canonical)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list messages: %w", err)
	}

	return Project(canonical, messages), nil
}

// ListCheckpoints returns the current checkpoint of a thread, if any. Only the
// latest state is materialized, so the result holds at most one entry.
func (s *Store) ListCheckpoints(ctx context.Context, threadKey string) ([]Checkpoint, error) {
	checkpoint, err := s.GetCheckpoint(ctx, threadKey)
	if err != nil {
		return nil, err
	}
	if checkpoint == nil {
		return []Checkpoint{}, nil
	}
	return []Checkpoint{*checkpoint}, nil
}

// PutCheckpoint appends the messages of proposed that are not stored yet and
// returns the canonical thread key. Entries without a known role or without
// content are dropped before positions are compared, so replaying the same
// list, or a stored prefix plus new messages, never duplicates rows.
func (s *Store) PutCheckpoint(ctx context.Context, threadKey string, proposed []ProposedMessage) (string, error) {
	key, err := ParseThreadKey(threadKey)
	if err != nil {
		return "", err
	}
	canonical := key.String()

	ctx, span := tracer.Start(ctx, "conversation.PutCheckpoint")
	defer span.End()
	span.SetAttributes(
		attribute.String("thread.key", canonical),
		attribute.Int("messages.proposed", len(proposed)),
	)

	valid := make([]ProposedMessage, 0, len(proposed))
	for _, msg := range proposed {
		if msg.valid() {
			valid = append(valid, msg)
		}
	}
	if skipped := len(proposed) - len(valid); skipped > 0 {
		log.Debug().Str("thread_key", canonical).Int("skipped", skipped).Msg("Dropped malformed messages")
	}

	unlock, err := s.locker.Lock(ctx, canonical)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("lock thread: %w", err)
	}
	defer unlock()

	thread, err := s.repo.FindOrCreateThread(ctx, key)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("find or create thread: %w", err)
	}

	tail, err := s.repo.GetTail(ctx, thread.ID)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("count messages: %w", err)
	}

	if tail.Count >= len(valid) {
		return canonical, nil
	}

	createdAt := s.now().UTC().Truncate(time.Microsecond)
	if createdAt.Before(tail.LastCreatedAt) {
		createdAt = tail.LastCreatedAt
	}

	pending := valid[tail.Count:]
	messages := make([]Message, len(pending))
	for i, msg := range pending {
		messages[i] = Message{
			ThreadID:  thread.ID,
			Seq:       tail.Count + i,
			Role:      msg.Role,
			Content:   msg.Content,
			Metadata:  msg.Metadata,
			CreatedAt: createdAt,
		}
	}

	appended, err := s.repo.AppendMessages(ctx, messages)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("append messages: %w", err)
	}
	span.SetAttributes(attribute.Int("messages.appended", appended))

	log.Debug().
		Str("thread_key", canonical).
		Int("existing", tail.Count).
		Int("appended", appended).
		Msg("Checkpoint persisted")

	return canonical, nil
}

// RecordSideEffect accepts intermediate writes of a step. Only the message log
// is durable, so there is nothing to persist.
func (s *Store) RecordSideEffect(ctx context.Context, threadKey string, taskID string, writes []ProposedMessage) error {
	return nil
}

// GetThread returns the thread stored under threadKey.
func (s *Store) GetThread(ctx context.Context, threadKey string) (*Thread, error) {
	key, err := ParseThreadKey(threadKey)
	if err != nil {
		return nil, err
	}
	return s.repo.FindThreadByKey(ctx, key.String())
}

// History returns up to limit messages of an existing thread, oldest first.
// A non-positive limit returns the whole log.
func (s *Store) History(ctx context.Context, threadKey string, limit int) ([]Message, error) {
	thread, err := s.GetThread(ctx, threadKey)
	if err != nil {
		return nil, err
	}

	messages, err := s.repo.ListMessages(ctx, thread.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}
