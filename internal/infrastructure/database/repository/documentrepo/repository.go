package documentrepo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/dbschema"
)

// shaChunkSize keeps IN lists below sqlite's bound variable limit.
const shaChunkSize = 500

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ document.Repository = (*Repository)(nil)

func (r *Repository) FindExistingSHAs(ctx context.Context, corpusID uint, shas []string) ([]string, error) {
	existing := make([]string, 0)
	for start := 0; start < len(shas); start += shaChunkSize {
		end := min(start+shaChunkSize, len(shas))

		var found []string
		err := r.db.WithContext(ctx).
			Model(&dbschema.Document{}).
			Where("corpus_id = ? AND sha IN ?", corpusID, shas[start:end]).
			Distinct().
			Pluck("sha", &found).Error
		if err != nil {
			return nil, database.WrapError(ctx, err, "look up document hashes")
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

// Upsert writes the document, replacing the revision stored under the same
// corpus and path.
func (r *Repository) Upsert(ctx context.Context, doc *document.Document) error {
	row := dbschema.NewSchemaDocument(doc)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "corpus_id"}, {Name: "path"}},
			DoUpdates: clause.AssignmentColumns([]string{"content", "embedding", "tags", "sha", "modified_at", "updated_at"}),
		}).
		Create(row).Error
	if err != nil {
		return database.WrapError(ctx, err, "upsert document")
	}

	var stored dbschema.Document
	if err := r.db.WithContext(ctx).
		Where("corpus_id = ? AND path = ?", doc.CorpusID, doc.Path).
		Take(&stored).Error; err != nil {
		return database.WrapError(ctx, err, "reload document")
	}
	doc.ID = stored.ID
	doc.CreatedAt = stored.CreatedAt
	doc.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *Repository) ListByCorpus(ctx context.Context, corpusID uint) ([]document.Document, error) {
	var rows []dbschema.Document
	if err := r.db.WithContext(ctx).
		Where("corpus_id = ?", corpusID).
		Order("path ASC").
		Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "list documents")
	}

	docs := make([]document.Document, 0, len(rows))
	for i := range rows {
		docs = append(docs, *rows[i].EtoD())
	}
	return docs, nil
}
