package databasetest

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/knowledge-memory/internal/infrastructure/database"
)

// PostgresDSNEnv names the variable holding a DSN for postgres-backed tests.
const PostgresDSNEnv = "KNOWLEDGE_MEMORY_TEST_POSTGRES_DSN"

// DryRunPostgres returns a postgres dialect DB that renders statements
// without connecting. Inspect tx.Statement after a finisher such as Find.
func DryRunPostgres(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost port=5432 user=knowledge dbname=knowledge sslmode=disable",
	}), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               gormlogger.Discard,
	})
	require.NoError(t, err)
	return db
}

// OpenPostgres connects to the database named by PostgresDSNEnv, migrates it
// and empties every table. The test is skipped when the variable is unset.
func OpenPostgres(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	db, err := database.Connect(database.Config{
		Driver:   database.DriverPostgres,
		DSN:      dsn,
		LogLevel: gormlogger.Silent,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	require.NoError(t, database.AutoMigrate(context.Background(), db, zerolog.Nop()))
	require.NoError(t, db.Exec("TRUNCATE messages, threads, documents, corpora, memories RESTART IDENTITY CASCADE").Error)
	return db
}
