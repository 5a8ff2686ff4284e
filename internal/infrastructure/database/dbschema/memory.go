package dbschema

import (
	"time"

	"gorm.io/datatypes"

	"github.com/janhq/knowledge-memory/internal/domain/memory"
	"github.com/pgvector/pgvector-go"
)

func (Memory) TableName() string {
	return "memories"
}

type Memory struct {
	ID             uint                        `gorm:"primaryKey"`
	Path           string                      `gorm:"size:1024;not null;index"`
	Content        string                      `gorm:"type:text;not null"`
	Embedding      *pgvector.Vector            `gorm:"type:vector"`
	Tags           datatypes.JSONSlice[string] `gorm:"not null"`
	SHA            string                      `gorm:"column:sha;size:64;not null;index"`
	EmbeddingStale bool                        `gorm:"not null;default:false"`
	CreatedAt      time.Time                   `gorm:"index"`
	UpdatedAt      time.Time
}

func NewSchemaMemory(d *memory.Memory) *Memory {
	if d == nil {
		return nil
	}

	return &Memory{
		ID:             d.ID,
		Path:           d.Path,
		Content:        d.Content,
		Embedding:      NewVector(d.Embedding),
		Tags:           tagsOrEmpty(d.Tags),
		SHA:            d.SHA,
		EmbeddingStale: d.EmbeddingStale,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func (s *Memory) EtoD() *memory.Memory {
	if s == nil {
		return nil
	}

	return &memory.Memory{
		ID:             s.ID,
		Path:           s.Path,
		Content:        s.Content,
		Embedding:      VectorSlice(s.Embedding),
		Tags:           tagsOrEmpty(s.Tags),
		SHA:            s.SHA,
		EmbeddingStale: s.EmbeddingStale,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}
