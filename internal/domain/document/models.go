package document

import (
	"time"
)

// Kind of source a corpus is synced from.
type Kind string

const (
	KindDirectory Kind = "directory"
)

// Corpus is a named collection of documents read from one source.
type Corpus struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	Root      string    `json:"root"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Document is an immutable unit of external knowledge. A new revision of the
// same path replaces the stored row.
type Document struct {
	ID         uint      `json:"id"`
	CorpusID   uint      `json:"corpus_id"`
	Path       string    `json:"path"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
	Tags       []string  `json:"tags"`
	SHA        string    `json:"sha"`
	ModifiedAt time.Time `json:"modified_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Entry is a document as listed by a source, before it is fetched.
type Entry struct {
	Path       string
	ModifiedAt time.Time
}

// SyncReport summarizes one corpus sync.
type SyncReport struct {
	CorpusID uint `json:"corpus_id"`
	Scanned  int  `json:"scanned"`
	Saved    int  `json:"saved"`
	Skipped  int  `json:"skipped"`
	Failed   int  `json:"failed"`
}
