package corpusrepo_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/databasetest"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/corpusrepo"
	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

func TestCorpusRepository(t *testing.T) {
	ctx := context.Background()
	repo := corpusrepo.NewRepository(databasetest.Open(t))

	notes := &document.Corpus{Name: "notes", Kind: document.KindDirectory, Root: "/srv/notes"}
	require.NoError(t, repo.Create(ctx, notes))
	require.NotZero(t, notes.ID)

	wiki := &document.Corpus{Name: "wiki", Kind: document.KindDirectory, Root: "/srv/wiki"}
	require.NoError(t, repo.Create(ctx, wiki))

	duplicate := &document.Corpus{Name: "notes", Kind: document.KindDirectory, Root: "/elsewhere"}
	err := repo.Create(ctx, duplicate)
	require.Error(t, err)
	assert.Equal(t, platformerrors.ErrorTypeConflict, platformerrors.TypeOf(err))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "notes", list[0].Name)
	assert.Equal(t, "wiki", list[1].Name)

	found, err := repo.FindByID(ctx, wiki.ID)
	require.NoError(t, err)
	assert.Equal(t, "/srv/wiki", found.Root)
	assert.Equal(t, document.KindDirectory, found.Kind)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, document.ErrCorpusNotFound)
}
