package memory

import (
	"context"
	"time"
)

// Repository defines the interface for memory storage operations
type Repository interface {
	// Create inserts m and fills its ID and timestamps.
	Create(ctx context.Context, m *Memory) error
	// Update persists content, tags, sha, embedding and the stale flag of m.
	Update(ctx context.Context, m *Memory) error
	// FindByID returns ErrMemoryNotFound when no row matches.
	FindByID(ctx context.Context, id uint) (*Memory, error)
	Delete(ctx context.Context, id uint) error
	Retrieve(ctx context.Context, filter Filter) ([]Memory, error)
	ListAnalyticsRows(ctx context.Context, since *time.Time) ([]AnalyticsRow, error)
}

// Embedder turns memory text into a vector.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// SyncRepository adds the hash lookup a memory sync needs.
type SyncRepository interface {
	Repository
	// FindExistingSHAs returns the subset of shas already stored as memories.
	FindExistingSHAs(ctx context.Context, shas []string) ([]string, error)
}
