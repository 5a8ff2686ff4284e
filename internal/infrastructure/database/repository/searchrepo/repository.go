package searchrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/janhq/knowledge-memory/internal/domain/search"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/dbschema"
)

// Repository serves every search strategy over documents and memories. On
// postgres the filtering and scoring run in SQL through pgvector; the sqlite
// backend loads the candidates and scores them in process.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

var _ search.Backend = (*Repository)(nil)

// row is the union of the searchable columns plus the computed scores.
type row struct {
	ID         uint
	CorpusID   *uint
	Path       string
	Content    string
	Tags       datatypes.JSONSlice[string]
	SHA        string `gorm:"column:sha"`
	Embedding  *pgvector.Vector
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Similarity float64
	Recency    float64
	Score      float64
}

func (r row) item(target search.Target) search.Item {
	tags := []string(r.Tags)
	if tags == nil {
		tags = []string{}
	}
	return search.Item{
		Kind:      target,
		ID:        r.ID,
		CorpusID:  r.CorpusID,
		Path:      r.Path,
		Content:   r.Content,
		Tags:      tags,
		SHA:       r.SHA,
		Embedding: dbschema.VectorSlice(r.Embedding),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func tableFor(target search.Target) (string, error) {
	switch target {
	case search.TargetDocuments:
		return dbschema.Document{}.TableName(), nil
	case search.TargetMemories:
		return dbschema.Memory{}.TableName(), nil
	default:
		return "", fmt.Errorf("unknown search target %q", target)
	}
}

func (r *Repository) base(ctx context.Context, target search.Target) (*gorm.DB, error) {
	table, err := tableFor(target)
	if err != nil {
		return nil, err
	}
	return r.db.WithContext(ctx).Table(table), nil
}

// candidates loads every row of the target in insertion order.
func (r *Repository) candidates(ctx context.Context, target search.Target) ([]search.Item, error) {
	query, err := r.base(ctx, target)
	if err != nil {
		return nil, err
	}

	var rows []row
	if err := query.Order("id ASC").Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, fmt.Sprintf("load %s", target))
	}
	items := make([]search.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].item(target)
	}
	return items, nil
}

func (r *Repository) SearchByEmbedding(ctx context.Context, target search.Target, vector []float32, opts search.VectorOptions) ([]search.Result, error) {
	if !database.IsPostgres(r.db) {
		items, err := r.candidates(ctx, target)
		if err != nil {
			return nil, err
		}
		return search.ScoreByEmbedding(items, vector, opts), nil
	}

	query, err := r.vectorQuery(ctx, target, vector, opts)
	if err != nil {
		return nil, err
	}

	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "vector search")
	}
	results := make([]search.Result, len(rows))
	for i := range rows {
		similarity := rows[i].Similarity
		results[i] = search.Result{Item: rows[i].item(target), Similarity: &similarity}
	}
	return results, nil
}

func (r *Repository) vectorQuery(ctx context.Context, target search.Target, vector []float32, opts search.VectorOptions) (*gorm.DB, error) {
	query, err := r.base(ctx, target)
	if err != nil {
		return nil, err
	}
	vec := pgvector.NewVector(vector)
	query = query.
		Select("*, 1 - (embedding <=> ?::vector) AS similarity", vec).
		Where("embedding IS NOT NULL").
		Where("1 - (embedding <=> ?::vector) > ?", vec, opts.Threshold)
	if len(opts.Tags) > 0 {
		array, args := textArray(opts.Tags)
		query = query.Where("jsonb_exists_any(tags, "+array+")", args...)
	}
	query = query.Order("similarity DESC, id ASC")
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	return query, nil
}

func (r *Repository) FindByTags(ctx context.Context, target search.Target, tags []string, limit int) ([]search.Item, error) {
	if !database.IsPostgres(r.db) {
		items, err := r.candidates(ctx, target)
		if err != nil {
			return nil, err
		}
		return search.FilterByTags(items, tags, limit), nil
	}

	query, err := r.tagQuery(ctx, target, tags, limit)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, query, target)
}

func (r *Repository) tagQuery(ctx context.Context, target search.Target, tags []string, limit int) (*gorm.DB, error) {
	query, err := r.base(ctx, target)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		encoded, err := json.Marshal(tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		query = query.Where("tags @> ?::jsonb", string(encoded))
	}
	return newest(query, limit), nil
}

func (r *Repository) FindByKeywords(ctx context.Context, target search.Target, keywords []string, limit int) ([]search.Item, error) {
	if !database.IsPostgres(r.db) {
		items, err := r.candidates(ctx, target)
		if err != nil {
			return nil, err
		}
		return search.FilterByKeywords(items, keywords, limit), nil
	}

	query, err := r.keywordQuery(ctx, target, keywords, limit)
	if err != nil {
		return nil, err
	}
	return r.load(ctx, query, target)
}

func (r *Repository) keywordQuery(ctx context.Context, target search.Target, keywords []string, limit int) (*gorm.DB, error) {
	query, err := r.base(ctx, target)
	if err != nil {
		return nil, err
	}
	conditions := make([]string, 0, len(keywords))
	args := make([]any, 0, 2*len(keywords))
	for _, kw := range keywords {
		pattern := "%" + escapeLike(kw) + "%"
		conditions = append(conditions, `(content ILIKE ? ESCAPE '\' OR path ILIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}
	query = query.Where(strings.Join(conditions, " OR "), args...)
	return newest(query, limit), nil
}

func newest(query *gorm.DB, limit int) *gorm.DB {
	query = query.Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	return query
}

func (r *Repository) load(ctx context.Context, query *gorm.DB, target search.Target) ([]search.Item, error) {
	var rows []row
	if err := query.Find(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, fmt.Sprintf("search %s", target))
	}
	items := make([]search.Item, len(rows))
	for i := range rows {
		items[i] = rows[i].item(target)
	}
	return items, nil
}

// RankMemories scores every embedded memory by similarity blended with
// recency. The postgres path mirrors search.CombinedScore in SQL.
func (r *Repository) RankMemories(ctx context.Context, vector []float32, opts search.RankOptions) ([]search.Result, error) {
	if !database.IsPostgres(r.db) {
		items, err := r.candidates(ctx, search.TargetMemories)
		if err != nil {
			return nil, err
		}
		return search.RankByRelevance(items, vector, opts), nil
	}

	query := r.rankQuery(ctx, vector, opts)
	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		return nil, database.WrapError(ctx, err, "rank memories")
	}
	results := make([]search.Result, len(rows))
	for i := range rows {
		similarity, recency, score := rows[i].Similarity, rows[i].Recency, rows[i].Score
		results[i] = search.Result{
			Item:       rows[i].item(search.TargetMemories),
			Similarity: &similarity,
			Recency:    &recency,
			Score:      &score,
		}
	}
	return results, nil
}

func (r *Repository) rankQuery(ctx context.Context, vector []float32, opts search.RankOptions) *gorm.DB {
	vec := pgvector.NewVector(vector)
	db := r.db.WithContext(ctx)
	inner := db.Table(dbschema.Memory{}.TableName()).
		Select(`*,
			1 - (embedding <=> ?::vector) AS similarity,
			1.0 / (1.0 + GREATEST(EXTRACT(EPOCH FROM (?::timestamptz - created_at)) / 86400.0, 0)) AS recency`,
			vec, opts.Now).
		Where("embedding IS NOT NULL")

	query := db.Table("(?) AS ranked", inner).
		Select("ranked.*, LEAST(GREATEST(similarity, 0), 1) * ? + recency * ? AS score",
			1-opts.RecencyWeight, opts.RecencyWeight).
		Order("score DESC, id ASC")
	if opts.K > 0 {
		query = query.Limit(opts.K)
	}
	return query
}

// textArray renders ARRAY[?, ...]::text[] with one placeholder per value. A
// slice bound to a single placeholder renders as a row constructor instead.
func textArray(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return "ARRAY[" + strings.Join(placeholders, ", ") + "]::text[]", args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
