package search_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/janhq/knowledge-memory/internal/domain/search"
	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryBackend scores an in-memory item list with the shared scoring helpers.
type memoryBackend struct {
	items map[search.Target][]search.Item

	lastVector  search.VectorOptions
	lastRank    search.RankOptions
	lastLimit   int
	lastKeyword []string
}

func (b *memoryBackend) SearchByEmbedding(ctx context.Context, target search.Target, vector []float32, opts search.VectorOptions) ([]search.Result, error) {
	b.lastVector = opts
	return search.ScoreByEmbedding(b.items[target], vector, opts), nil
}

func (b *memoryBackend) FindByTags(ctx context.Context, target search.Target, tags []string, limit int) ([]search.Item, error) {
	b.lastLimit = limit
	return search.FilterByTags(b.items[target], tags, limit), nil
}

func (b *memoryBackend) FindByKeywords(ctx context.Context, target search.Target, keywords []string, limit int) ([]search.Item, error) {
	b.lastLimit = limit
	b.lastKeyword = keywords
	return search.FilterByKeywords(b.items[target], keywords, limit), nil
}

func (b *memoryBackend) RankMemories(ctx context.Context, vector []float32, opts search.RankOptions) ([]search.Result, error) {
	b.lastRank = opts
	return search.RankByRelevance(b.items[search.TargetMemories], vector, opts), nil
}

type embedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f embedderFunc) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

func newTestEngine(backend *memoryBackend, embedder search.Embedder) *search.Engine {
	defaults := search.DefaultSettings()
	return search.NewEngine(
		search.NewVectorStrategy(backend, embedder, defaults),
		search.NewTagStrategy(backend, defaults),
		search.NewKeywordStrategy(backend, defaults),
		search.NewRecencyStrategy(backend, embedder, defaults),
	)
}

func TestEngine_Modes(t *testing.T) {
	engine := newTestEngine(&memoryBackend{}, nil)
	assert.Equal(t, []search.Mode{search.ModeKeyword, search.ModeRecency, search.ModeTag, search.ModeVector}, engine.Modes())
}

func TestEngine_UnknownModeAndTarget(t *testing.T) {
	engine := newTestEngine(&memoryBackend{}, nil)

	_, err := engine.Search(context.Background(), "fuzzy", search.Query{})
	assert.ErrorIs(t, err, search.ErrUnknownMode)
	assert.Equal(t, platformerrors.ErrorTypeValidation, platformerrors.TypeOf(err))

	_, err = engine.Search(context.Background(), search.ModeTag, search.Query{Target: "notes"})
	assert.ErrorIs(t, err, search.ErrUnknownTarget)
}

func TestEngine_VectorDefaults(t *testing.T) {
	backend := &memoryBackend{items: map[search.Target][]search.Item{
		search.TargetDocuments: {
			{ID: 1, Embedding: []float32{1, 0}},
			{ID: 2, Embedding: []float32{1, 0}},
		},
	}}
	engine := newTestEngine(backend, nil)

	zero := 0.0
	results, err := engine.Search(context.Background(), search.ModeVector, search.Query{
		Embedding: []float32{1, 0},
		Threshold: &zero,
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 10, backend.lastVector.Limit)
	assert.Equal(t, 0.0, backend.lastVector.Threshold)

	_, err = engine.Search(context.Background(), search.ModeVector, search.Query{Embedding: []float32{1, 0}})
	require.NoError(t, err)
	assert.Equal(t, 0.7, backend.lastVector.Threshold)
}

func TestEngine_VectorEmbedsText(t *testing.T) {
	backend := &memoryBackend{items: map[search.Target][]search.Item{
		search.TargetMemories: {{ID: 7, Kind: search.TargetMemories, Embedding: []float32{0, 1}}},
	}}
	var embedded string
	engine := newTestEngine(backend, embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		embedded = text
		return []float32{0, 1}, nil
	}))

	results, err := engine.Search(context.Background(), search.ModeVector, search.Query{Target: search.TargetMemories, Text: "  design notes "})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(7), results[0].Item.ID)
	assert.Equal(t, "design notes", embedded)
}

func TestEngine_VectorRequiresInput(t *testing.T) {
	engine := newTestEngine(&memoryBackend{}, nil)

	_, err := engine.Search(context.Background(), search.ModeVector, search.Query{})
	assert.ErrorIs(t, err, search.ErrEmptyQuery)

	_, err = engine.Search(context.Background(), search.ModeVector, search.Query{Text: "needs embedder"})
	assert.ErrorIs(t, err, search.ErrInvalidOption)
}

func TestEngine_EmbedderFailureIsExternal(t *testing.T) {
	engine := newTestEngine(&memoryBackend{}, embedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("provider down")
	}))

	_, err := engine.Search(context.Background(), search.ModeVector, search.Query{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeExternal, platformerrors.TypeOf(err))
}

func TestEngine_DimensionEnforced(t *testing.T) {
	defaults := search.DefaultSettings()
	defaults.Dimension = 3
	engine := search.NewEngine(search.NewVectorStrategy(&memoryBackend{}, nil, defaults))

	_, err := engine.Search(context.Background(), search.ModeVector, search.Query{Embedding: []float32{1, 0}})
	assert.ErrorIs(t, err, search.ErrInvalidOption)
}

func TestEngine_VectorThresholdRange(t *testing.T) {
	backend := &memoryBackend{items: map[search.Target][]search.Item{
		search.TargetMemories: {{ID: 1, Kind: search.TargetMemories, Embedding: []float32{1, 0}}},
	}}
	engine := newTestEngine(backend, nil)

	for _, bad := range []float64{-0.1, 1.5} {
		threshold := bad
		_, err := engine.Search(context.Background(), search.ModeVector, search.Query{Embedding: []float32{1, 0}, Threshold: &threshold})
		assert.ErrorIs(t, err, search.ErrInvalidOption)
	}

	low, high := 0.0, 1.0
	results, err := engine.Search(context.Background(), search.ModeVector, search.Query{Embedding: []float32{1, 0}, Threshold: &low})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	results, err = engine.Search(context.Background(), search.ModeVector, search.Query{Embedding: []float32{1, 0}, Threshold: &high})
	require.NoError(t, err)
	assert.Empty(t, results)

	defaults := search.DefaultSettings()
	defaults.Threshold = 2
	engine = search.NewEngine(search.NewVectorStrategy(backend, nil, defaults))
	_, err = engine.Search(context.Background(), search.ModeVector, search.Query{Embedding: []float32{1, 0}})
	assert.ErrorIs(t, err, search.ErrInvalidOption)
}

func TestEngine_TagScenario(t *testing.T) {
	backend := &memoryBackend{items: map[search.Target][]search.Item{
		search.TargetMemories: {
			{ID: 1, Kind: search.TargetMemories, Tags: []string{"architecture", "important"}},
			{ID: 2, Kind: search.TargetMemories, Tags: []string{"personal"}},
		},
	}}
	engine := newTestEngine(backend, nil)

	results, err := engine.Search(context.Background(), search.ModeTag, search.Query{
		Target: search.TargetMemories,
		Tags:   []string{"architecture"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, uint(1), results[0].Item.ID)
	assert.Nil(t, results[0].Similarity)
	assert.Equal(t, 10, backend.lastLimit)
}

func TestEngine_KeywordFromText(t *testing.T) {
	backend := &memoryBackend{items: map[search.Target][]search.Item{
		search.TargetDocuments: {{ID: 1, Path: "go/channels.md", Content: "x"}},
	}}
	engine := newTestEngine(backend, nil)

	results, err := engine.Search(context.Background(), search.ModeKeyword, search.Query{Text: "channels  CHANNELS"})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, []string{"channels"}, backend.lastKeyword)
	assert.Equal(t, 5, backend.lastLimit)

	_, err = engine.Search(context.Background(), search.ModeKeyword, search.Query{Keywords: []string{" "}})
	assert.ErrorIs(t, err, search.ErrEmptyQuery)
}

func TestEngine_Recency(t *testing.T) {
	now := time.Now().UTC()
	backend := &memoryBackend{items: map[search.Target][]search.Item{
		search.TargetMemories: {
			{ID: 1, Embedding: []float32{1, 0}, CreatedAt: now.Add(-48 * time.Hour)},
			{ID: 2, Embedding: []float32{0.9, 0.1}, CreatedAt: now},
		},
	}}
	engine := newTestEngine(backend, nil)

	results, err := engine.Search(context.Background(), search.ModeRecency, search.Query{Embedding: []float32{1, 0}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 5, backend.lastRank.K)
	assert.Equal(t, 0.1, backend.lastRank.RecencyWeight)
	for _, r := range results {
		require.NotNil(t, r.Score)
		assert.GreaterOrEqual(t, *r.Score, 0.0)
		assert.LessOrEqual(t, *r.Score, 1.0)
	}

	_, err = engine.Search(context.Background(), search.ModeRecency, search.Query{Target: search.TargetDocuments, Embedding: []float32{1, 0}})
	assert.ErrorIs(t, err, search.ErrUnknownTarget)

	bad := 1.5
	_, err = engine.Search(context.Background(), search.ModeRecency, search.Query{Embedding: []float32{1, 0}, RecencyWeight: &bad})
	assert.ErrorIs(t, err, search.ErrInvalidOption)
}
