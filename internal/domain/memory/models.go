package memory

import (
	"time"
)

// Memory is a mutable unit of personal or session knowledge.
type Memory struct {
	ID        uint      `json:"id"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	SHA       string    `json:"sha"`
	Embedding []float32 `json:"-"`
	// EmbeddingStale is set when the content changed after the embedding
	// was computed.
	EmbeddingStale bool      `json:"embedding_stale"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (m *Memory) HasEmbedding() bool {
	return len(m.Embedding) > 0
}

// CreateInput is the payload of Service.Create. Context, when set, is
// prepended to the content for embedding only.
type CreateInput struct {
	Content string   `json:"content"`
	Path    string   `json:"path"`
	Tags    []string `json:"tags"`
	Context string   `json:"context,omitempty"`
}

// UpdateInput is a partial update. Nil fields are left untouched; Tags
// replaces the whole tag set.
type UpdateInput struct {
	Content       *string   `json:"content,omitempty"`
	Tags          *[]string `json:"tags,omitempty"`
	AppendContent bool      `json:"append_content,omitempty"`
}

// Filter selects memories for Retrieve.
type Filter struct {
	Path  string
	Tags  []string
	Limit int
}

// AnalyticsRow is the projection analytics are computed from.
type AnalyticsRow struct {
	Path      string
	Tags      []string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type GroupBy string

const (
	GroupByNone GroupBy = ""
	GroupByPath GroupBy = "path"
	GroupByTag  GroupBy = "tag"
	GroupByDate GroupBy = "date"
)

func (g GroupBy) Valid() bool {
	switch g {
	case GroupByNone, GroupByPath, GroupByTag, GroupByDate:
		return true
	}
	return false
}

// Summary is the ungrouped analytics view.
type Summary struct {
	TotalMemories int        `json:"total_memories"`
	UniquePaths   int        `json:"unique_paths"`
	UniqueTags    int        `json:"unique_tags"`
	Oldest        *time.Time `json:"oldest,omitempty"`
	Newest        *time.Time `json:"newest,omitempty"`
}

type PathGroup struct {
	Path        string    `json:"path"`
	Count       int       `json:"count"`
	Tags        []string  `json:"tags"`
	LastUpdated time.Time `json:"last_updated"`
}

type TagGroup struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

type DateGroup struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Analytics holds the rows of one grouping; only the field matching GroupBy is set.
type Analytics struct {
	GroupBy GroupBy     `json:"group_by"`
	Summary *Summary    `json:"summary,omitempty"`
	Paths   []PathGroup `json:"paths,omitempty"`
	Tags    []TagGroup  `json:"tags,omitempty"`
	Dates   []DateGroup `json:"dates,omitempty"`
}
