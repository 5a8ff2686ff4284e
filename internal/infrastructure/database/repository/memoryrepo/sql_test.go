package memoryrepo

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhq/knowledge-memory/internal/domain/memory"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/databasetest"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/dbschema"
)

func TestRetrieveQuery_Postgres(t *testing.T) {
	repo := NewRepository(databasetest.DryRunPostgres(t))

	query, err := repo.retrieveQuery(context.Background(), memory.Filter{
		Path:  "/user/prefs",
		Tags:  []string{"food", "drinks"},
		Limit: 3,
	}, true)
	require.NoError(t, err)

	var rows []dbschema.Memory
	tx := query.Find(&rows)
	require.NoError(t, tx.Error)
	sql := tx.Statement.SQL.String()

	assert.Contains(t, sql, `FROM "memories"`)
	assert.Regexp(t, regexp.MustCompile(`path = \$\d+`), sql)
	assert.Regexp(t, regexp.MustCompile(`tags @> \$\d+::jsonb`), sql)
	assert.Contains(t, sql, "ORDER BY created_at DESC, id DESC")
	assert.Contains(t, sql, "LIMIT")
	assert.Contains(t, tx.Statement.Vars, "/user/prefs")
	assert.Contains(t, tx.Statement.Vars, `["food","drinks"]`)
}

func TestRetrieveQuery_SqliteFiltersTagsInProcess(t *testing.T) {
	repo := NewRepository(databasetest.DryRunPostgres(t))

	query, err := repo.retrieveQuery(context.Background(), memory.Filter{Tags: []string{"food"}, Limit: 3}, false)
	require.NoError(t, err)

	var rows []dbschema.Memory
	tx := query.Find(&rows)
	require.NoError(t, tx.Error)
	sql := tx.Statement.SQL.String()

	assert.NotContains(t, sql, "@>")
	assert.NotContains(t, sql, "LIMIT")
}
