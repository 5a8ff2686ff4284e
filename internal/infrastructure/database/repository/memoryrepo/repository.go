package memoryrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/janhq/knowledge-memory/internal/domain/memory"
	"github.com/janhq/knowledge-memory/internal/domain/search"
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

var _ memory.SyncRepository = (*Repository)(nil)

func notFound(ctx context.Context, id uint) error {
	return database.NotFound(ctx, memory.ErrMemoryNotFound, fmt.Sprintf("memory %d not found", id))
}

func (r *Repository) Create(ctx context.Context, m *memory.Memory) error {
	row := dbschema.NewSchemaMemory(m)
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return database.WrapError(ctx, err, "insert memory")
	}

	m.ID = row.ID
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	return nil
}

func (r *Repository) Update(ctx context.Context, m *memory.Memory) error {
	row := dbschema.NewSchemaMemory(m)
	result := r.db.WithContext(ctx).
		Model(&dbschema.Memory{}).
		Where("id = ?", m.ID).
		Select("content", "tags", "sha", "embedding", "embedding_stale", "updated_at").
		Updates(row)
	if result.Error != nil {
		return database.WrapError(ctx, result.Error, "update memory")
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, m.ID)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uint) (*memory.Memory, error) {
	var row dbschema.Memory
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(ctx, id)
	}
	if err != nil {
		return nil, database.WrapError(ctx, err, "find memory")
	}
	return row.EtoD(), nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&dbschema.Memory{}, id)
	if result.Error != nil {
		return database.WrapError(ctx, result.Error, "delete memory")
	}
	if result.RowsAffected == 0 {
		return notFound(ctx, id)
	}
	return nil
}

// Retrieve filters by exact path and tag containment, newest first. Postgres
// evaluates containment with the jsonb @> operator; sqlite filters in process.
func (r *Repository) Retrieve(ctx context.Context, filter memory.Filter) ([]memory.Memory, error) {
	postgres := database.IsPostgres(r.db)
	query, err := r.retrieveQuery(ctx, filter, postgres)
	if err != nil {
		return nil, err
	}

	var rows []dbschema.Memory
	if err := query.Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "retrieve memories")
	}

	memories := make([]memory.Memory, 0, len(rows))
	for i := range rows {
		if !postgres && !search.ContainsAll(rows[i].Tags, filter.Tags) {
			continue
		}
		memories = append(memories, *rows[i].EtoD())
		if filter.Limit > 0 && len(memories) == filter.Limit {
			break
		}
	}
	return memories, nil
}

func (r *Repository) retrieveQuery(ctx context.Context, filter memory.Filter, postgres bool) (*gorm.DB, error) {
	query := r.db.WithContext(ctx).Model(&dbschema.Memory{}).Order("created_at DESC, id DESC")

	if filter.Path != "" {
		query = query.Where("path = ?", filter.Path)
	}
	if len(filter.Tags) > 0 && postgres {
		tags, err := json.Marshal(filter.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		query = query.Where("tags @> ?::jsonb", string(tags))
	}
	if filter.Limit > 0 && (postgres || len(filter.Tags) == 0) {
		query = query.Limit(filter.Limit)
	}
	return query, nil
}

// FindExistingSHAs returns the subset of shas already stored as memories.
func (r *Repository) FindExistingSHAs(ctx context.Context, shas []string) ([]string, error) {
	existing := make([]string, 0)
	for start := 0; start < len(shas); start += shaChunkSize {
		end := min(start+shaChunkSize, len(shas))

		var found []string
		err := r.db.WithContext(ctx).
			Model(&dbschema.Memory{}).
			Where("sha IN ?", shas[start:end]).
			Distinct().
			Pluck("sha", &found).Error
		if err != nil {
			return nil, database.WrapError(ctx, err, "look up memory hashes")
		}
		existing = append(existing, found...)
	}
	return existing, nil
}

// ListAnalyticsRows loads the lean projection analytics are computed from.
func (r *Repository) ListAnalyticsRows(ctx context.Context, since *time.Time) ([]memory.AnalyticsRow, error) {
	postgres := database.IsPostgres(r.db)
	query := r.db.WithContext(ctx).
		Model(&dbschema.Memory{}).
		Select("path", "tags", "created_at", "updated_at").
		Order("created_at ASC")
	if since != nil && postgres {
		query = query.Where("created_at >= ?", *since)
	}

	var rows []dbschema.Memory
	if err := query.Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "load memory analytics")
	}

	out := make([]memory.AnalyticsRow, 0, len(rows))
	for _, row := range rows {
		if since != nil && row.CreatedAt.Before(*since) {
			continue
		}
		out = append(out, memory.AnalyticsRow{
			Path:      row.Path,
			Tags:      row.Tags,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, nil
}
