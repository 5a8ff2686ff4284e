package search

import (
	"context"
	"time"
)

// Target selects the collection a query runs against.
type Target string

const (
	TargetDocuments Target = "documents"
	TargetMemories  Target = "memories"
)

func (t Target) Valid() bool {
	return t == TargetDocuments || t == TargetMemories
}

// Mode names a retrieval strategy.
type Mode string

const (
	ModeVector  Mode = "vector"
	ModeTag     Mode = "tag"
	ModeKeyword Mode = "keyword"
	ModeRecency Mode = "recency"
)

const (
	DefaultVectorLimit   = 10
	DefaultThreshold     = 0.7
	DefaultTagLimit      = 10
	DefaultKeywordLimit  = 5
	DefaultK             = 5
	DefaultRecencyWeight = 0.1
)

// Item is the searchable view shared by documents and memories.
type Item struct {
	Kind      Target    `json:"kind"`
	ID        uint      `json:"id"`
	CorpusID  *uint     `json:"corpus_id,omitempty"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	SHA       string    `json:"sha"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result pairs an item with the scores of the strategy that produced it.
// Strategies that do not score leave the score fields nil.
type Result struct {
	Item       Item     `json:"item"`
	Similarity *float64 `json:"similarity,omitempty"`
	Recency    *float64 `json:"recency,omitempty"`
	Score      *float64 `json:"score,omitempty"`
}

// Query carries the inputs of every strategy; each one reads the fields it needs.
type Query struct {
	Target    Target
	Text      string
	Embedding []float32
	Tags      []string
	Keywords  []string
	Limit     int

	// Threshold is a pointer because zero is a meaningful threshold.
	Threshold  *float64
	FilterTags []string

	K             int
	RecencyWeight *float64
}

type VectorOptions struct {
	Limit     int
	Threshold float64
	Tags      []string
}

type RankOptions struct {
	K             int
	RecencyWeight float64
	Now           time.Time
}

// Backend is implemented by the storage layer for both targets.
type Backend interface {
	SearchByEmbedding(ctx context.Context, target Target, vector []float32, opts VectorOptions) ([]Result, error)
	FindByTags(ctx context.Context, target Target, tags []string, limit int) ([]Item, error)
	FindByKeywords(ctx context.Context, target Target, keywords []string, limit int) ([]Item, error)
	RankMemories(ctx context.Context, vector []float32, opts RankOptions) ([]Result, error)
}

func float64Ptr(v float64) *float64 {
	return &v
}
