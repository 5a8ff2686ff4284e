package conversationrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janhq/knowledge-memory/internal/domain/conversation"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/dbschema"
	"github.com/janhq/knowledge-memory/internal/metrics"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ conversation.Repository = (*Repository)(nil)

// FindOrCreateThread inserts the thread, or refreshes updated_at when the key
// already exists, then reads the row back.
func (r *Repository) FindOrCreateThread(ctx context.Context, key conversation.ThreadKey) (*conversation.Thread, error) {
	row := dbschema.NewSchemaThread(key)

	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).
		Create(row).Error; err != nil {
		return nil, database.WrapError(ctx, err, "upsert thread")
	}

	var stored dbschema.Thread
	if err := r.db.WithContext(ctx).
		Clauses(clause.Where{Exprs: []clause.Expression{clause.Eq{Column: clause.Column{Table: "threads", Name: "key"}, Value: row.Key}}}).
		Take(&stored).Error; err != nil {
		return nil, database.WrapError(ctx, err, "load thread")
	}
	return stored.EtoD(), nil
}

func (r *Repository) FindThreadByKey(ctx context.Context, key string) (*conversation.Thread, error) {
	var row dbschema.Thread
	err := r.db.WithContext(ctx).
		Clauses(clause.Where{Exprs: []clause.Expression{clause.Eq{Column: clause.Column{Table: "threads", Name: "key"}, Value: key}}}).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NotFound(ctx, conversation.ErrThreadNotFound, fmt.Sprintf("thread %q not found", key))
	}
	if err != nil {
		return nil, database.WrapError(ctx, err, "find thread")
	}
	return row.EtoD(), nil
}

// ListMessagesByThreadKey reads the whole log of a thread in one query.
// An unknown key yields no messages.
func (r *Repository) ListMessagesByThreadKey(ctx context.Context, key string) ([]conversation.Message, error) {
	var rows []dbschema.Message
	if err := r.db.WithContext(ctx).
		Model(&dbschema.Message{}).
		Joins("JOIN threads ON threads.id = messages.thread_id").
		Clauses(clause.Where{Exprs: []clause.Expression{clause.Eq{Column: clause.Column{Table: "threads", Name: "key"}, Value: key}}}).
		Order("messages.seq ASC").
		Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "list thread messages")
	}
	return toMessages(rows), nil
}

func (r *Repository) ListMessages(ctx context.Context, threadID uint, limit int) ([]conversation.Message, error) {
	query := r.db.WithContext(ctx).
		Where("thread_id = ?", threadID).
		Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []dbschema.Message
	if err := query.Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "list messages")
	}
	return toMessages(rows), nil
}

// GetTail reads the last message of the thread. Positions are contiguous
// from zero, so the count is the last position plus one.
func (r *Repository) GetTail(ctx context.Context, threadID uint) (conversation.Tail, error) {
	var last dbschema.Message
	err := r.db.WithContext(ctx).
		Select("seq", "created_at").
		Where("thread_id = ?", threadID).
		Order("seq DESC").
		Take(&last).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conversation.Tail{}, nil
	}
	if err != nil {
		return conversation.Tail{}, database.WrapError(ctx, err, "read thread tail")
	}
	return conversation.Tail{Count: last.Seq + 1, LastCreatedAt: last.CreatedAt}, nil
}

// AppendMessages writes all messages in one INSERT. Positions taken by a
// concurrent writer are skipped.
func (r *Repository) AppendMessages(ctx context.Context, messages []conversation.Message) (int, error) {
	if len(messages) == 0 {
		return 0, nil
	}

	rows := make([]*dbschema.Message, len(messages))
	for i := range messages {
		rows[i] = dbschema.NewSchemaMessage(&messages[i])
	}

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "thread_id"}, {Name: "seq"}},
			DoNothing: true,
		}).
		Create(&rows)
	if result.Error != nil {
		return 0, database.WrapError(ctx, result.Error, "append messages")
	}

	appended := int(result.RowsAffected)
	metrics.RecordMessagesAppended(appended)
	return appended, nil
}

func toMessages(rows []dbschema.Message) []conversation.Message {
	messages := make([]conversation.Message, 0, len(rows))
	for i := range rows {
		messages = append(messages, *rows[i].EtoD())
	}
	return messages
}
