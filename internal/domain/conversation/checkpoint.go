package conversation

import "time"

// Checkpoint is the conversation state of a thread rebuilt from its messages.
type Checkpoint struct {
	ThreadKey string    `json:"thread_key"`
	Messages  []Message `json:"messages"`
	Step      int       `json:"step"`
	Timestamp time.Time `json:"timestamp"`
}

// Project folds an ordered message log into a checkpoint. It returns nil for
// an empty log.
func Project(threadKey string, messages []Message) *Checkpoint {
	if len(messages) == 0 {
		return nil
	}

	copied := make([]Message, len(messages))
	copy(copied, messages)

	return &Checkpoint{
		ThreadKey: threadKey,
		Messages:  copied,
		Step:      len(copied),
		Timestamp: copied[len(copied)-1].CreatedAt,
	}
}
