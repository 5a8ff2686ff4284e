package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

var (
	ErrUnknownMode   = errors.New("unknown search mode")
	ErrUnknownTarget = errors.New("unknown search target")
	ErrEmptyQuery    = errors.New("empty search query")
	ErrInvalidOption = errors.New("invalid search option")
)

// Strategy is one way of finding relevant items. Every strategy returns
// results in their final order, already bounded by the query limit.
type Strategy interface {
	Mode() Mode
	Search(ctx context.Context, q Query) ([]Result, error)
}

// Embedder turns query text into a vector.
type Embedder interface {
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Defaults holds the values used when a query leaves an option unset.
type Defaults struct {
	VectorLimit   int
	Threshold     float64
	TagLimit      int
	KeywordLimit  int
	K             int
	RecencyWeight float64

	// Dimension, when positive, is enforced on query vectors.
	Dimension int
}

func DefaultSettings() Defaults {
	return Defaults{
		VectorLimit:   DefaultVectorLimit,
		Threshold:     DefaultThreshold,
		TagLimit:      DefaultTagLimit,
		KeywordLimit:  DefaultKeywordLimit,
		K:             DefaultK,
		RecencyWeight: DefaultRecencyWeight,
	}
}

func validationError(ctx context.Context, sentinel error, format string, args ...any) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation, fmt.Sprintf(format, args...), sentinel)
}

func resolveVector(ctx context.Context, embedder Embedder, q Query, dimension int) ([]float32, error) {
	vector := q.Embedding
	if len(vector) == 0 {
		text := strings.TrimSpace(q.Text)
		if text == "" {
			return nil, validationError(ctx, ErrEmptyQuery, "query needs an embedding or text")
		}
		if embedder == nil {
			return nil, validationError(ctx, ErrInvalidOption, "text queries need an embedding provider")
		}
		embedded, err := embedder.EmbedSingle(ctx, text)
		if err != nil {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal, "embed query", err)
		}
		vector = embedded
	}

	if dimension > 0 && len(vector) != dimension {
		return nil, validationError(ctx, ErrInvalidOption, "query vector has %d dimensions, want %d", len(vector), dimension)
	}
	return vector, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// VectorStrategy ranks items by cosine similarity to the query vector.
type VectorStrategy struct {
	backend  Backend
	embedder Embedder
	defaults Defaults
}

func NewVectorStrategy(backend Backend, embedder Embedder, defaults Defaults) *VectorStrategy {
	return &VectorStrategy{backend: backend, embedder: embedder, defaults: defaults}
}

func (s *VectorStrategy) Mode() Mode { return ModeVector }

func (s *VectorStrategy) Search(ctx context.Context, q Query) ([]Result, error) {
	vector, err := resolveVector(ctx, s.embedder, q, s.defaults.Dimension)
	if err != nil {
		return nil, err
	}

	threshold := s.defaults.Threshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, validationError(ctx, ErrInvalidOption, "similarity threshold %v is outside [0,1]", threshold)
	}

	return s.backend.SearchByEmbedding(ctx, q.Target, vector, VectorOptions{
		Limit:     orDefault(q.Limit, s.defaults.VectorLimit),
		Threshold: threshold,
		Tags:      q.FilterTags,
	})
}

// TagStrategy returns items carrying every requested tag, newest first.
type TagStrategy struct {
	backend  Backend
	defaults Defaults
}

func NewTagStrategy(backend Backend, defaults Defaults) *TagStrategy {
	return &TagStrategy{backend: backend, defaults: defaults}
}

func (s *TagStrategy) Mode() Mode { return ModeTag }

func (s *TagStrategy) Search(ctx context.Context, q Query) ([]Result, error) {
	items, err := s.backend.FindByTags(ctx, q.Target, q.Tags, orDefault(q.Limit, s.defaults.TagLimit))
	if err != nil {
		return nil, err
	}
	return wrapItems(items), nil
}

// KeywordStrategy returns items whose content or path contains any keyword.
// Without explicit keywords the query text is split on whitespace.
type KeywordStrategy struct {
	backend  Backend
	defaults Defaults
}

func NewKeywordStrategy(backend Backend, defaults Defaults) *KeywordStrategy {
	return &KeywordStrategy{backend: backend, defaults: defaults}
}

func (s *KeywordStrategy) Mode() Mode { return ModeKeyword }

func (s *KeywordStrategy) Search(ctx context.Context, q Query) ([]Result, error) {
	keywords := q.Keywords
	if len(keywords) == 0 {
		keywords = strings.Fields(q.Text)
	}
	keywords = NormalizeKeywords(keywords)
	if len(keywords) == 0 {
		return nil, validationError(ctx, ErrEmptyQuery, "keyword search needs at least one keyword")
	}

	items, err := s.backend.FindByKeywords(ctx, q.Target, keywords, orDefault(q.Limit, s.defaults.KeywordLimit))
	if err != nil {
		return nil, err
	}
	return wrapItems(items), nil
}

// RecencyStrategy ranks memories by a blend of similarity and recency.
type RecencyStrategy struct {
	backend  Backend
	embedder Embedder
	defaults Defaults
	now      func() time.Time
}

func NewRecencyStrategy(backend Backend, embedder Embedder, defaults Defaults) *RecencyStrategy {
	return &RecencyStrategy{backend: backend, embedder: embedder, defaults: defaults, now: time.Now}
}

func (s *RecencyStrategy) Mode() Mode { return ModeRecency }

func (s *RecencyStrategy) Search(ctx context.Context, q Query) ([]Result, error) {
	if q.Target != TargetMemories {
		return nil, validationError(ctx, ErrUnknownTarget, "recency ranking only applies to memories")
	}

	weight := s.defaults.RecencyWeight
	if q.RecencyWeight != nil {
		weight = *q.RecencyWeight
	}
	if weight < 0 || weight > 1 {
		return nil, validationError(ctx, ErrInvalidOption, "recency weight %v is outside [0,1]", weight)
	}

	vector, err := resolveVector(ctx, s.embedder, q, s.defaults.Dimension)
	if err != nil {
		return nil, err
	}

	k := q.K
	if k <= 0 {
		k = orDefault(q.Limit, s.defaults.K)
	}

	return s.backend.RankMemories(ctx, vector, RankOptions{
		K:             k,
		RecencyWeight: weight,
		Now:           s.now().UTC(),
	})
}

func wrapItems(items []Item) []Result {
	results := make([]Result, len(items))
	for i, item := range items {
		results[i] = Result{Item: item}
	}
	return results
}
