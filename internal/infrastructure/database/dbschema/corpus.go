package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/pgvector/pgvector-go"
)

func (Corpus) TableName() string {
	return "corpora"
}

type Corpus struct {
	ID        uint       `gorm:"primaryKey"`
	Name      string     `gorm:"size:255;not null;uniqueIndex:idx_corpora_name"`
	Kind      string     `gorm:"size:32;not null"`
	Root      string     `gorm:"type:text;not null"`
	Documents []Document `gorm:"foreignKey:CorpusID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSchemaCorpus(d *document.Corpus) *Corpus {
	if d == nil {
		return nil
	}

	return &Corpus{
		ID:        d.ID,
		Name:      d.Name,
		Kind:      string(d.Kind),
		Root:      d.Root,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (s *Corpus) EtoD() *document.Corpus {
	if s == nil {
		return nil
	}

	return &document.Corpus{
		ID:        s.ID,
		Name:      s.Name,
		Kind:      document.Kind(s.Kind),
		Root:      s.Root,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (Document) TableName() string {
	return "documents"
}

// Document paths are unique per corpus.
type Document struct {
	ID         uint                        `gorm:"primaryKey"`
	CorpusID   uint                        `gorm:"not null;uniqueIndex:idx_documents_corpus_path,priority:1"`
	Path       string                      `gorm:"size:1024;not null;uniqueIndex:idx_documents_corpus_path,priority:2"`
	Content    string                      `gorm:"type:text;not null"`
	Embedding  *pgvector.Vector            `gorm:"type:vector"`
	Tags       datatypes.JSONSlice[string] `gorm:"not null"`
	SHA        string                      `gorm:"column:sha;size:64;not null;index"`
	ModifiedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func NewSchemaDocument(d *document.Document) *Document {
	if d == nil {
		return nil
	}

	return &Document{
		ID:         d.ID,
		CorpusID:   d.CorpusID,
		Path:       d.Path,
		Content:    d.Content,
		Embedding:  NewVector(d.Embedding),
		Tags:       tagsOrEmpty(d.Tags),
		SHA:        d.SHA,
		ModifiedAt: d.ModifiedAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func (s *Document) EtoD() *document.Document {
	if s == nil {
		return nil
	}

	return &document.Document{
		ID:         s.ID,
		CorpusID:   s.CorpusID,
		Path:       s.Path,
		Content:    s.Content,
		Embedding:  VectorSlice(s.Embedding),
		Tags:       tagsOrEmpty(s.Tags),
		SHA:        s.SHA,
		ModifiedAt: s.ModifiedAt,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
