package documentrepo_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/databasetest"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/corpusrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/documentrepo"
)

func setup(t *testing.T) (*documentrepo.Repository, uint) {
	db := databasetest.Open(t)
	corpus := &document.Corpus{Name: "notes", Kind: document.KindDirectory, Root: "/srv/notes"}
	require.NoError(t, corpusrepo.NewRepository(db).Create(context.Background(), corpus))
	return documentrepo.NewRepository(db), corpus.ID
}

func TestUpsert_ReplacesRevisionAtPath(t *testing.T) {
	ctx := context.Background()
	repo, corpusID := setup(t)

	doc := &document.Document{
		CorpusID:   corpusID,
		Path:       "a.md",
		Content:    "first",
		SHA:        "sha-1",
		Tags:       []string{"x"},
		Embedding:  []float32{1, 0},
		ModifiedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, doc))
	firstID := doc.ID
	require.NotZero(t, firstID)

	revised := &document.Document{
		CorpusID:   corpusID,
		Path:       "a.md",
		Content:    "second",
		SHA:        "sha-2",
		Tags:       []string{"y"},
		Embedding:  []float32{0, 1},
		ModifiedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, revised))
	assert.Equal(t, firstID, revised.ID)

	docs, err := repo.ListByCorpus(ctx, corpusID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "second", docs[0].Content)
	assert.Equal(t, "sha-2", docs[0].SHA)
	assert.Equal(t, []string{"y"}, docs[0].Tags)
	assert.Equal(t, []float32{0, 1}, docs[0].Embedding)
}

func TestFindExistingSHAs(t *testing.T) {
	ctx := context.Background()
	repo, corpusID := setup(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Upsert(ctx, &document.Document{
			CorpusID: corpusID,
			Path:     fmt.Sprintf("doc-%d.md", i),
			Content:  fmt.Sprintf("content %d", i),
			SHA:      fmt.Sprintf("sha-%d", i),
		}))
	}

	queried := []string{"sha-0", "sha-2", "sha-9"}
	for i := 0; i < 600; i++ {
		queried = append(queried, fmt.Sprintf("missing-%d", i))
	}

	existing, err := repo.FindExistingSHAs(ctx, corpusID, queried)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sha-0", "sha-2"}, existing)

	other, err := repo.FindExistingSHAs(ctx, corpusID+1, []string{"sha-0"})
	require.NoError(t, err)
	assert.Empty(t, other)
}
