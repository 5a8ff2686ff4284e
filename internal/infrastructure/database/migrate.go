package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/janhq/knowledge-memory/internal/infrastructure/database/dbschema"
)

var postgresIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_documents_tags ON documents USING GIN (tags jsonb_path_ops)`,
	`CREATE INDEX IF NOT EXISTS idx_memories_tags ON memories USING GIN (tags jsonb_path_ops)`,
}

// AutoMigrate brings the schema up to date. On postgres it also enables
// pgvector and adds the tag indexes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	db = db.WithContext(ctx)

	if IsPostgres(db) {
		if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
			return fmt.Errorf("enable pgvector: %w", err)
		}
	}

	if err := db.AutoMigrate(
		&dbschema.Thread{},
		&dbschema.Message{},
		&dbschema.Corpus{},
		&dbschema.Document{},
		&dbschema.Memory{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if IsPostgres(db) {
		for _, stmt := range postgresIndexes {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create index: %w", err)
			}
		}
	}

	log.Info().Str("dialect", db.Dialector.Name()).Msg("database schema up to date")
	return nil
}
