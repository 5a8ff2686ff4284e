package memory

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/metrics"
	"github.com/janhq/knowledge-memory/internal/utils/hasher"
	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

// SyncReport counts the outcome of one memory sync.
type SyncReport struct {
	Root    string `json:"root"`
	Scanned int    `json:"scanned"`
	Saved   int    `json:"saved"`
	Skipped int    `json:"skipped"`
	Failed  int    `json:"failed"`
}

// SyncService loads memory files from a directory into the memory store.
type SyncService struct {
	repo    SyncRepository
	writer  *Service
	sources func(root string) (document.Source, error)
}

func NewSyncService(repo SyncRepository, embedder Embedder, cfg Config) *SyncService {
	return &SyncService{
		repo:    repo,
		writer:  NewService(repo, embedder, cfg),
		sources: directorySource,
	}
}

func directorySource(root string) (document.Source, error) {
	return document.NewSource(&document.Corpus{Kind: document.KindDirectory, Root: root})
}

// MemoryPath maps a file path relative to the sync root to a memory path:
// "user/prefs.md" becomes "/user/prefs".
func MemoryPath(file string) string {
	return "/" + strings.TrimSuffix(file, path.Ext(file))
}

// Sync reads every memory file below root, skips files whose content hash is
// already stored and embeds the rest. A changed file replaces the newest
// memory at its path; a new path creates a memory. Per-file failures are
// counted and do not abort the sync.
func (s *SyncService) Sync(ctx context.Context, root string) (*SyncReport, error) {
	if s.writer.embedder == nil {
		return nil, invalid(ctx, ErrInvalidMemory, "memory sync needs an embedding provider")
	}
	if strings.TrimSpace(root) == "" {
		return nil, invalid(ctx, ErrInvalidMemory, "sync root is required")
	}

	ctx, span := tracer.Start(ctx, "memory.Sync")
	defer span.End()

	source, err := s.sources(root)
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, "open memory source", err)
	}
	entries, err := source.Entries(ctx)
	if err != nil {
		span.RecordError(err)
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "list memory files", err)
	}

	report := &SyncReport{Root: root, Scanned: len(entries)}
	files := make([]*Memory, 0, len(entries))
	shas := make([]string, 0, len(entries))
	for _, entry := range entries {
		content, err := source.Fetch(ctx, entry.Path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn().Err(err).Str("path", entry.Path).Msg("Failed to read memory file")
			report.Failed++
			continue
		}
		if strings.TrimSpace(content) == "" {
			report.Skipped++
			continue
		}
		m := &Memory{
			Path:    MemoryPath(entry.Path),
			Content: content,
			Tags:    NormalizeTags(document.ExtractTags(content)),
			SHA:     hasher.SHA256(content),
		}
		files = append(files, m)
		shas = append(shas, m.SHA)
	}

	existing, err := s.repo.FindExistingSHAs(ctx, shas)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("find existing memories: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, sha := range existing {
		known[sha] = struct{}{}
	}

	for _, m := range files {
		if _, ok := known[m.SHA]; ok {
			report.Skipped++
			continue
		}
		if err := s.save(ctx, m); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Error().Err(err).Str("path", m.Path).Msg("Failed to sync memory")
			metrics.RecordMemoryWrite("sync", "error")
			report.Failed++
			continue
		}
		metrics.RecordMemoryWrite("sync", "success")
		known[m.SHA] = struct{}{}
		report.Saved++
	}

	log.Info().
		Str("root", root).
		Int("scanned", report.Scanned).
		Int("saved", report.Saved).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Memory sync completed")

	return report, nil
}

func (s *SyncService) save(ctx context.Context, m *Memory) error {
	vector, err := s.writer.embed(ctx, m.Content)
	if err != nil {
		return err
	}
	m.Embedding = vector

	current, err := s.repo.Retrieve(ctx, Filter{Path: m.Path, Limit: 1})
	if err != nil {
		return fmt.Errorf("look up memory path: %w", err)
	}
	if len(current) == 0 {
		return s.repo.Create(ctx, m)
	}

	m.ID = current[0].ID
	m.CreatedAt = current[0].CreatedAt
	m.UpdatedAt = s.writer.now().UTC()
	return s.repo.Update(ctx, m)
}
