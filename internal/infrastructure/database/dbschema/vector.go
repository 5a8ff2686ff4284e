package dbschema

import (
	"github.com/pgvector/pgvector-go"
)

// NewVector wraps an embedding for storage. Empty embeddings are stored as NULL.
func NewVector(embedding []float32) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}

// VectorSlice unwraps a stored embedding.
func VectorSlice(v *pgvector.Vector) []float32 {
	if v == nil {
		return nil
	}
	return v.Slice()
}
