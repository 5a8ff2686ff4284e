package document

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/janhq/knowledge-memory/internal/domain/embedding"
	"github.com/janhq/knowledge-memory/internal/metrics"
	"github.com/janhq/knowledge-memory/internal/utils/hasher"
	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

const (
	syncJobType      = "corpus_sync"
	defaultBatchSize = 16
)

type SyncConfig struct {
	// BatchSize is the number of documents embedded per provider call.
	BatchSize int
	// Dimension, when positive, is enforced on every document embedding.
	Dimension int
}

// SyncService loads a corpus from its source into the document store.
type SyncService struct {
	corpora   CorpusRepository
	documents Repository
	embedder  Embedder
	jobs      JobRunner
	sources   SourceFactory
	cfg       SyncConfig
}

func NewSyncService(corpora CorpusRepository, documents Repository, embedder Embedder, jobs JobRunner, cfg SyncConfig) *SyncService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}
	return &SyncService{
		corpora:   corpora,
		documents: documents,
		embedder:  embedder,
		jobs:      jobs,
		sources:   NewSource,
		cfg:       cfg,
	}
}

// WithSourceFactory replaces the factory used to open corpus sources.
func (s *SyncService) WithSourceFactory(factory SourceFactory) *SyncService {
	s.sources = factory
	return s
}

// Sync fetches every document of the corpus, skips those whose content hash is
// already stored, embeds the rest in batches and upserts them by path.
// Per-document failures are counted in the report and do not abort the sync.
func (s *SyncService) Sync(ctx context.Context, corpusID uint) (*SyncReport, error) {
	if s.embedder == nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			"document sync needs an embedding provider", ErrInvalidCorpus)
	}

	corpus, err := s.corpora.FindByID(ctx, corpusID)
	if err != nil {
		return nil, err
	}

	report := &SyncReport{CorpusID: corpus.ID}
	run := func(ctx context.Context) error {
		return s.sync(ctx, corpus, report)
	}

	if s.jobs != nil {
		err = s.jobs.InstrumentJob(ctx, syncJobType, strconv.FormatUint(uint64(corpus.ID), 10), run)
	} else {
		err = run(ctx)
	}
	if err != nil {
		return nil, err
	}

	metrics.RecordDocumentSynced("saved", report.Saved)
	metrics.RecordDocumentSynced("skipped", report.Skipped)
	metrics.RecordDocumentSynced("failed", report.Failed)

	log.Info().
		Uint("corpus_id", corpus.ID).
		Int("scanned", report.Scanned).
		Int("saved", report.Saved).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Corpus sync completed")

	return report, nil
}

func (s *SyncService) sync(ctx context.Context, corpus *Corpus, report *SyncReport) error {
	source, err := s.sources(corpus)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "open corpus source", err)
	}

	entries, err := source.Entries(ctx)
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "list corpus entries", err)
	}
	report.Scanned = len(entries)

	docs := make([]*Document, 0, len(entries))
	shas := make([]string, 0, len(entries))
	for _, entry := range entries {
		content, err := source.Fetch(ctx, entry.Path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Str("path", entry.Path).Msg("Failed to fetch document")
			report.Failed++
			continue
		}
		doc := &Document{
			CorpusID:   corpus.ID,
			Path:       entry.Path,
			Content:    content,
			Tags:       ExtractTags(content),
			SHA:        hasher.SHA256(content),
			ModifiedAt: entry.ModifiedAt,
		}
		docs = append(docs, doc)
		shas = append(shas, doc.SHA)
	}

	existing, err := s.documents.FindExistingSHAs(ctx, corpus.ID, shas)
	if err != nil {
		return fmt.Errorf("find existing documents: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, sha := range existing {
		known[sha] = struct{}{}
	}

	pending := make([]*Document, 0, len(docs))
	for _, doc := range docs {
		if _, ok := known[doc.SHA]; ok {
			report.Skipped++
			continue
		}
		pending = append(pending, doc)
	}

	for start := 0; start < len(pending); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(pending))
		if err := s.saveBatch(ctx, pending[start:end], report); err != nil {
			return err
		}
	}
	return nil
}

func (s *SyncService) saveBatch(ctx context.Context, batch []*Document, report *SyncReport) error {
	vectors := s.embedBatch(ctx, batch)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	for i, doc := range batch {
		if vectors[i] == nil {
			report.Failed++
			continue
		}
		doc.Embedding = vectors[i]
		if err := s.documents.Upsert(ctx, doc); err != nil {
			log.Error().Err(err).Str("path", doc.Path).Msg("Failed to save document")
			report.Failed++
			continue
		}
		report.Saved++
	}
	return nil
}

// embedBatch embeds the batch in one call. When the call fails each document
// is retried alone so one oversized text does not fail its neighbours. Entries
// left nil could not be embedded.
func (s *SyncService) embedBatch(ctx context.Context, batch []*Document) [][]float32 {
	texts := make([]string, len(batch))
	for i, doc := range batch {
		texts[i] = doc.Content
	}

	vectors, err := s.embedder.Embed(ctx, texts)
	if err == nil && len(vectors) == len(batch) {
		for i := range vectors {
			if !s.validVector(vectors[i], batch[i].Path) {
				vectors[i] = nil
			}
		}
		return vectors
	}
	if err != nil {
		log.Debug().Err(err).Int("batch_size", len(batch)).Msg("Batch embedding failed, retrying documents one by one")
	}

	vectors = make([][]float32, len(batch))
	for i, text := range texts {
		if ctx.Err() != nil {
			return vectors
		}
		single, err := s.embedder.Embed(ctx, []string{text})
		if err != nil || len(single) != 1 {
			log.Warn().Err(err).Str("path", batch[i].Path).Msg("Failed to embed document")
			continue
		}
		if s.validVector(single[0], batch[i].Path) {
			vectors[i] = single[0]
		}
	}
	return vectors
}

func (s *SyncService) validVector(vector []float32, path string) bool {
	if s.cfg.Dimension <= 0 {
		return len(vector) > 0
	}
	if err := embedding.Validate(vector, s.cfg.Dimension); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Discarding invalid document embedding")
		return false
	}
	return true
}
