package conversation

import (
	"time"
)

// Role of the participant that produced a message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) Valid() bool {
	switch r {
	case RoleHuman, RoleAssistant, RoleSystem:
		return true
	}
	return false
}

// Thread is one conversation, unique per key.
type Thread struct {
	ID        uint      `json:"id"`
	Key       string    `json:"key"`
	Source    string    `json:"source"`
	Channel   string    `json:"channel"`
	User      string    `json:"user"`
	Subthread string    `json:"subthread,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is one entry of a thread's append-only log. Seq is its zero-based
// position in the thread.
type Message struct {
	ID        uint           `json:"id"`
	ThreadID  uint           `json:"thread_id"`
	Seq       int            `json:"seq"`
	Role      Role           `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// ProposedMessage is a message as submitted by the caller of PutCheckpoint.
type ProposedMessage struct {
	Role     Role           `json:"role"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (m ProposedMessage) valid() bool {
	return m.Role.Valid() && m.Content != ""
}

// Tail describes the end of a thread's log.
type Tail struct {
	Count         int
	LastCreatedAt time.Time
}
