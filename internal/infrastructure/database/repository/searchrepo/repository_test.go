package searchrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/domain/memory"
	"github.com/janhq/knowledge-memory/internal/domain/search"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/databasetest"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/dbschema"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/corpusrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/documentrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/memoryrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/searchrepo"
)

type fixture struct {
	db       *gorm.DB
	backend  *searchrepo.Repository
	engine   *search.Engine
	corpusID uint
}

func newFixture(t *testing.T) *fixture {
	return newFixtureOn(t, databasetest.Open(t))
}

func newFixtureOn(t *testing.T, db *gorm.DB) *fixture {
	corpus := &document.Corpus{Name: "notes", Kind: document.KindDirectory, Root: "/srv/notes"}
	require.NoError(t, corpusrepo.NewRepository(db).Create(context.Background(), corpus))

	backend := searchrepo.NewRepository(db)
	defaults := search.DefaultSettings()
	engine := search.NewEngine(
		search.NewVectorStrategy(backend, nil, defaults),
		search.NewTagStrategy(backend, defaults),
		search.NewKeywordStrategy(backend, defaults),
		search.NewRecencyStrategy(backend, nil, defaults),
	)
	return &fixture{db: db, backend: backend, engine: engine, corpusID: corpus.ID}
}

func (f *fixture) addDocument(t *testing.T, path, content string, embedding []float32, tags ...string) uint {
	t.Helper()
	doc := &document.Document{CorpusID: f.corpusID, Path: path, Content: content, SHA: path, Embedding: embedding, Tags: tags}
	require.NoError(t, documentrepo.NewRepository(f.db).Upsert(context.Background(), doc))
	return doc.ID
}

func (f *fixture) addMemory(t *testing.T, path, content string, embedding []float32, tags ...string) uint {
	t.Helper()
	m := &memory.Memory{Path: path, Content: content, SHA: content, Embedding: embedding, Tags: tags}
	require.NoError(t, memoryrepo.NewRepository(f.db).Create(context.Background(), m))
	return m.ID
}

func threshold(v float64) *float64 { return &v }

func TestVectorSearch_IdenticalEmbeddings(t *testing.T) {
	f := newFixture(t)
	vec := []float32{0.2, 0.4, 0.6}
	first := f.addDocument(t, "a.md", "alpha", vec)
	second := f.addDocument(t, "b.md", "beta", vec)
	f.addDocument(t, "c.md", "no embedding", nil)

	results, err := f.engine.Search(context.Background(), search.ModeVector, search.Query{
		Target:    search.TargetDocuments,
		Embedding: vec,
		Threshold: threshold(0),
		Limit:     10,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, first, results[0].Item.ID)
	assert.Equal(t, second, results[1].Item.ID)
	for _, r := range results {
		assert.InDelta(t, 1.0, *r.Similarity, 1e-6)
		require.NotNil(t, r.Item.CorpusID)
		assert.Equal(t, f.corpusID, *r.Item.CorpusID)
		assert.Equal(t, search.TargetDocuments, r.Item.Kind)
	}
}

func TestVectorSearch_ThresholdAndTagIntersection(t *testing.T) {
	f := newFixture(t)
	f.addDocument(t, "a.md", "alpha", []float32{1, 0}, "a")
	f.addDocument(t, "b.md", "beta", []float32{0.9, 0.1}, "b")
	f.addDocument(t, "c.md", "gamma", []float32{1, 0}, "c")
	f.addDocument(t, "d.md", "delta", []float32{0, 1}, "a")

	results, err := f.backend.SearchByEmbedding(context.Background(), search.TargetDocuments, []float32{1, 0}, search.VectorOptions{
		Limit:     10,
		Threshold: 0.5,
		Tags:      []string{"a", "b"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.md", results[0].Item.Path)
	assert.Equal(t, "b.md", results[1].Item.Path)
}

func TestFindByTags_MemoryScenario(t *testing.T) {
	f := newFixture(t)
	want := f.addMemory(t, "/notes", "use hexagonal layout", nil, "architecture", "important")
	f.addMemory(t, "/notes", "buy milk", nil, "errands")

	results, err := f.engine.Search(context.Background(), search.ModeTag, search.Query{
		Target: search.TargetMemories,
		Tags:   []string{"architecture"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, want, results[0].Item.ID)
	assert.Nil(t, results[0].Item.CorpusID)
	assert.Nil(t, results[0].Similarity)
}

func TestFindByTags_Containment(t *testing.T) {
	f := newFixture(t)
	f.addDocument(t, "a.md", "one", nil, "a")
	both := f.addDocument(t, "ab.md", "two", nil, "a", "b")

	items, err := f.backend.FindByTags(context.Background(), search.TargetDocuments, []string{"a", "b"}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, both, items[0].ID)
}

func TestFindByKeywords(t *testing.T) {
	f := newFixture(t)
	f.addDocument(t, "guides/setup.md", "install the server", nil)
	f.addDocument(t, "notes.md", "Deploy with Docker", nil)
	f.addDocument(t, "other.md", "unrelated", nil)

	results, err := f.engine.Search(context.Background(), search.ModeKeyword, search.Query{
		Target: search.TargetDocuments,
		Text:   "docker SETUP",
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "notes.md", results[0].Item.Path)
	assert.Equal(t, "guides/setup.md", results[1].Item.Path)
}

func TestRankMemories_RecencyBreaksTies(t *testing.T) {
	f := newFixture(t)
	vec := []float32{1, 0}
	older := f.addMemory(t, "/m", "older", vec)
	newer := f.addMemory(t, "/m", "newer", vec)
	f.addMemory(t, "/m", "unembedded", nil)

	past := time.Now().UTC().Add(-72 * time.Hour)
	require.NoError(t, f.db.Model(&dbschema.Memory{}).Where("id = ?", older).Update("created_at", past).Error)

	results, err := f.engine.Search(context.Background(), search.ModeRecency, search.Query{
		Embedding: vec,
		K:         5,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, newer, results[0].Item.ID)
	assert.Equal(t, older, results[1].Item.ID)
	for _, r := range results {
		require.NotNil(t, r.Score)
		assert.GreaterOrEqual(t, *r.Score, 0.0)
		assert.LessOrEqual(t, *r.Score, 1.0)
		assert.Equal(t, search.TargetMemories, r.Item.Kind)
	}
	assert.Greater(t, *results[0].Recency, *results[1].Recency)
}

func TestRankMemories_K(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 4; i++ {
		f.addMemory(t, "/m", string(rune('a'+i)), []float32{1, float32(i)})
	}

	results, err := f.backend.RankMemories(context.Background(), []float32{1, 0}, search.RankOptions{
		K:             2,
		RecencyWeight: 0,
		Now:           time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].Item.Content)
	assert.Equal(t, "b", results[1].Item.Content)
}

func TestPostgres_SearchPushdown(t *testing.T) {
	f := newFixtureOn(t, databasetest.OpenPostgres(t))
	ctx := context.Background()
	f.addDocument(t, "a.md", "alpha", []float32{1, 0}, "a")
	f.addDocument(t, "b.md", "beta", []float32{0.9, 0.1}, "b")
	f.addDocument(t, "c.md", "gamma", []float32{1, 0}, "c")
	both := f.addDocument(t, "ab.md", "Deploy 50% faster", []float32{0, 1}, "a", "b")

	results, err := f.backend.SearchByEmbedding(ctx, search.TargetDocuments, []float32{1, 0}, search.VectorOptions{
		Limit:     10,
		Threshold: 0.5,
		Tags:      []string{"a", "b"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a.md", results[0].Item.Path)
	assert.Equal(t, "b.md", results[1].Item.Path)

	items, err := f.backend.FindByTags(ctx, search.TargetDocuments, []string{"a", "b"}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, both, items[0].ID)

	items, err = f.backend.FindByKeywords(ctx, search.TargetDocuments, []string{"50%", "DEPLOY"}, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, both, items[0].ID)

	f.addMemory(t, "/m", "older", []float32{1, 0})
	f.addMemory(t, "/m", "newer", []float32{1, 0})
	ranked, err := f.backend.RankMemories(ctx, []float32{1, 0}, search.RankOptions{K: 1, RecencyWeight: 0.1, Now: time.Now().UTC()})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.LessOrEqual(t, *ranked[0].Score, 1.0)
}
