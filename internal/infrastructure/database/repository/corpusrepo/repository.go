package corpusrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/dbschema"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ document.CorpusRepository = (*Repository)(nil)

func (r *Repository) Create(ctx context.Context, corpus *document.Corpus) error {
	row := dbschema.NewSchemaCorpus(corpus)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return database.WrapError(ctx, err, fmt.Sprintf("create corpus %q", corpus.Name))
	}

	corpus.ID = row.ID
	corpus.CreatedAt = row.CreatedAt
	corpus.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) List(ctx context.Context) ([]document.Corpus, error) {
	var rows []dbschema.Corpus
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "list corpora")
	}

	corpora := make([]document.Corpus, 0, len(rows))
	for i := range rows {
		corpora = append(corpora, *rows[i].EtoD())
	}
	return corpora, nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*document.Corpus, error) {
	var row dbschema.Corpus
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.NotFound(ctx, document.ErrCorpusNotFound, fmt.Sprintf("corpus %d not found", id))
	}
	if err != nil {
		return nil, database.WrapError(ctx, err, "find corpus")
	}
	return row.EtoD(), nil
}
