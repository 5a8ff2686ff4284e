package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/janhq/knowledge-memory/internal/domain/embedding"
	"github.com/janhq/knowledge-memory/internal/metrics"
	"github.com/janhq/knowledge-memory/internal/utils/hasher"
	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

var (
	ErrNoFieldsToUpdate = errors.New("no fields to update")
	ErrMemoryNotFound   = errors.New("memory not found")
	ErrInvalidMemory    = errors.New("invalid memory")
)

var tracer = otel.Tracer("knowledge-memory/memory")

// analyticsWindow bounds the date grouping.
const analyticsWindow = 30 * 24 * time.Hour

type Config struct {
	// Dimension, when positive, is enforced on every computed embedding.
	Dimension int
	// ReembedOnUpdate regenerates the embedding when an update changes content.
	ReembedOnUpdate bool
}

// Service handles memory operations
type Service struct {
	repo     Repository
	embedder Embedder
	cfg      Config
	now      func() time.Time
}

// NewService creates a new memory service. A nil embedder stores memories
// without embeddings.
func NewService(repo Repository, embedder Embedder, cfg Config) *Service {
	return &Service{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
		now:      time.Now,
	}
}

func invalid(ctx context.Context, sentinel error, message string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, message, sentinel)
}

// Create persists a new memory. The embedding, when a provider is configured,
// is computed over context and content separated by a blank line.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Memory, error) {
	path := strings.TrimSpace(in.Path)
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid(ctx, ErrInvalidMemory, "content is required")
	}
	if path == "" {
		return nil, invalid(ctx, ErrInvalidMemory, "path is required")
	}

	ctx, span := tracer.Start(ctx, "memory.Create")
	defer span.End()
	span.SetAttributes(attribute.String("memory.path", path))

	m := &Memory{
		Path:    path,
		Content: in.Content,
		Tags:    NormalizeTags(in.Tags),
		SHA:     hasher.SHA256(in.Content),
	}

	if s.embedder != nil {
		text := in.Content
		if in.Context != "" {
			text = in.Context + "\n\n" + in.Content
		}
		vector, err := s.embed(ctx, text)
		if err != nil {
			span.RecordError(err)
			metrics.RecordMemoryWrite("create", "error")
			return nil, err
		}
		m.Embedding = vector
	}

	if err := s.repo.Create(ctx, m); err != nil {
		span.RecordError(err)
		metrics.RecordMemoryWrite("create", "error")
		return nil, fmt.Errorf("create memory: %w", err)
	}
	metrics.RecordMemoryWrite("create", "success")

	log.Info().
		Uint("memory_id", m.ID).
		Str("path", m.Path).
		Bool("embedded", m.HasEmbedding()).
		Msg("Memory created")

	return m, nil
}

// Update applies a partial update. Tags replace the stored set; content is
// replaced, or appended after a blank line when AppendContent is set.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*Memory, error) {
	if in.Content == nil && in.Tags == nil {
		return nil, invalid(ctx, ErrNoFieldsToUpdate, "content or tags must be provided")
	}
	if in.Content != nil && !in.AppendContent && strings.TrimSpace(*in.Content) == "" {
		return nil, invalid(ctx, ErrInvalidMemory, "content cannot be replaced with an empty value")
	}

	ctx, span := tracer.Start(ctx, "memory.Update")
	defer span.End()
	span.SetAttributes(attribute.Int64("memory.id", int64(id)))

	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	contentChanged := false
	if in.Content != nil {
		content := *in.Content
		if in.AppendContent {
			content = appendContent(m.Content, content)
		}
		contentChanged = content != m.Content
		m.Content = content
	}
	if in.Tags != nil {
		m.Tags = NormalizeTags(*in.Tags)
	}

	if contentChanged {
		m.SHA = hasher.SHA256(m.Content)
		switch {
		case s.cfg.ReembedOnUpdate && s.embedder != nil:
			vector, err := s.embed(ctx, m.Content)
			if err != nil {
				span.RecordError(err)
				metrics.RecordMemoryWrite("update", "error")
				return nil, err
			}
			m.Embedding = vector
			m.EmbeddingStale = false
		case m.HasEmbedding():
			m.EmbeddingStale = true
			log.Warn().
				Uint("memory_id", m.ID).
				Msg("Memory content changed; embedding is stale until re-embedded")
		}
	}
	m.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, m); err != nil {
		span.RecordError(err)
		metrics.RecordMemoryWrite("update", "error")
		return nil, fmt.Errorf("update memory: %w", err)
	}
	metrics.RecordMemoryWrite("update", "success")

	log.Debug().
		Uint("memory_id", m.ID).
		Bool("content_changed", contentChanged).
		Bool("embedding_stale", m.EmbeddingStale).
		Msg("Memory updated")

	return m, nil
}

// Retrieve lists memories by exact path and tag containment, newest first.
func (s *Service) Retrieve(ctx context.Context, filter Filter) ([]Memory, error) {
	if filter.Limit < 0 {
		return nil, invalid(ctx, ErrInvalidMemory, "limit must not be negative")
	}
	filter.Path = strings.TrimSpace(filter.Path)
	filter.Tags = NormalizeTags(filter.Tags)

	memories, err := s.repo.Retrieve(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieve memories: %w", err)
	}
	return memories, nil
}

func (s *Service) Get(ctx context.Context, id uint) (*Memory, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		metrics.RecordMemoryWrite("delete", "error")
		return err
	}
	metrics.RecordMemoryWrite("delete", "success")
	log.Info().Uint("memory_id", id).Msg("Memory deleted")
	return nil
}

// Analytics aggregates memories by the requested grouping. The date grouping
// covers the last 30 days.
func (s *Service) Analytics(ctx context.Context, groupBy GroupBy) (*Analytics, error) {
	if !groupBy.Valid() {
		return nil, invalid(ctx, ErrInvalidMemory, fmt.Sprintf("unsupported group_by %q", groupBy))
	}

	now := s.now().UTC()
	var since *time.Time
	if groupBy == GroupByDate {
		start := now.Add(-analyticsWindow).Truncate(24 * time.Hour)
		since = &start
	}

	rows, err := s.repo.ListAnalyticsRows(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("load analytics rows: %w", err)
	}
	return Aggregate(rows, groupBy), nil
}

func (s *Service) embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := s.embedder.EmbedSingle(ctx, text)
	if err != nil {
		if errors.Is(err, embedding.ErrTextTooLong) {
			return nil, invalid(ctx, err, "memory text is too long to embed")
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "embed memory", err)
	}
	if s.cfg.Dimension > 0 {
		if err := embedding.Validate(vector, s.cfg.Dimension); err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "embedding provider returned an unusable vector", err)
		}
	}
	return vector, nil
}

func appendContent(existing, addition string) string {
	if addition == "" {
		return existing
	}
	if existing == "" {
		return addition
	}
	return existing + "\n\n" + addition
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping the first
// occurrence order. The result is never nil.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
