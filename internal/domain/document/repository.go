package document

import (
	"context"
)

// CorpusRepository stores corpus definitions.
type CorpusRepository interface {
	Create(ctx context.Context, corpus *Corpus) error
	List(ctx context.Context) ([]Corpus, error)
	// FindByID returns ErrCorpusNotFound when no row matches.
	FindByID(ctx context.Context, id uint) (*Corpus, error)
}

// Repository stores documents.
type Repository interface {
	// FindExistingSHAs returns the subset of shas already stored in the corpus.
	FindExistingSHAs(ctx context.Context, corpusID uint, shas []string) ([]string, error)
	// Upsert inserts the document or replaces the row stored under its path.
	Upsert(ctx context.Context, doc *Document) error
	ListByCorpus(ctx context.Context, corpusID uint) ([]Document, error)
}

// Embedder embeds a batch of texts, one vector per text in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// JobRunner runs fn as an instrumented background job.
type JobRunner interface {
	InstrumentJob(ctx context.Context, jobType string, jobID string, fn func(context.Context) error) error
}
