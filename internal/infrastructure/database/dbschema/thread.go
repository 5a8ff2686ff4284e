package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/janhq/knowledge-memory/internal/domain/conversation"
)

func (Thread) TableName() string {
	return "threads"
}

type Thread struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"column:key;size:512;not null;uniqueIndex:idx_threads_key"`
	Source    string    `gorm:"size:128;not null"`
	Channel   string    `gorm:"size:255;not null"`
	UserRef   string    `gorm:"column:user_ref;size:255;not null"`
	Subthread string    `gorm:"size:255"`
	Messages  []Message `gorm:"foreignKey:ThreadID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSchemaThread(key conversation.ThreadKey) *Thread {
	return &Thread{
		Key:       key.String(),
		Source:    key.Source,
		Channel:   key.Channel,
		UserRef:   key.User,
		Subthread: key.Subthread,
	}
}

func (s *Thread) EtoD() *conversation.Thread {
	if s == nil {
		return nil
	}

	return &conversation.Thread{
		ID:        s.ID,
		Key:       s.Key,
		Source:    s.Source,
		Channel:   s.Channel,
		User:      s.UserRef,
		Subthread: s.Subthread,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (Message) TableName() string {
	return "messages"
}

// Message is one row of a thread log. (thread_id, seq) is unique so a
// position can only be written once.
type Message struct {
	ID        uint   `gorm:"primaryKey"`
	ThreadID  uint   `gorm:"not null;uniqueIndex:idx_messages_thread_seq,priority:1"`
	Seq       int    `gorm:"not null;uniqueIndex:idx_messages_thread_seq,priority:2"`
	Role      string `gorm:"size:16;not null;check:chk_messages_role,role IN ('human','assistant','system')"`
	Content   string `gorm:"type:text;not null"`
	Metadata  datatypes.JSONMap
	CreatedAt time.Time `gorm:"not null;index"`
}

func NewSchemaMessage(d *conversation.Message) *Message {
	if d == nil {
		return nil
	}

	var metadata datatypes.JSONMap
	if len(d.Metadata) > 0 {
		metadata = datatypes.JSONMap(d.Metadata)
	}

	return &Message{
		ID:        d.ID,
		ThreadID:  d.ThreadID,
		Seq:       d.Seq,
		Role:      string(d.Role),
		Content:   d.Content,
		Metadata:  metadata,
		CreatedAt: d.CreatedAt,
	}
}

func (s *Message) EtoD() *conversation.Message {
	if s == nil {
		return nil
	}

	var metadata map[string]any
	if len(s.Metadata) > 0 {
		metadata = map[string]any(s.Metadata)
	}

	return &conversation.Message{
		ID:        s.ID,
		ThreadID:  s.ThreadID,
		Seq:       s.Seq,
		Role:      conversation.Role(s.Role),
		Content:   s.Content,
		Metadata:  metadata,
		CreatedAt: s.CreatedAt,
	}
}
