package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SqliteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("LOG_LEVEL", " DEBUG ")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 8092, cfg.HTTPPort)
	assert.Equal(t, 0.7, cfg.SearchVectorThreshold)
	assert.Equal(t, 10, cfg.SearchVectorLimit)
	assert.Equal(t, 10, cfg.SearchTagLimit)
	assert.Equal(t, 5, cfg.SearchKeywordLimit)
	assert.Equal(t, 5, cfg.MemoryRankK)
	assert.Equal(t, 0.1, cfg.MemoryRecencyWeight)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Same(t, cfg, GetGlobal())
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_POSTGRESQL_WRITE_DSN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_POSTGRESQL_WRITE_DSN")
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			DBDriver:              "sqlite",
			EmbeddingProvider:     "none",
			ThreadLockType:        "local",
			EmbeddingDimension:    1024,
			MemoryRecencyWeight:   0.1,
			SearchVectorThreshold: 0.7,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, "DB_DRIVER"},
		{"openai without key", func(c *Config) { c.EmbeddingProvider = "openai" }, "OPENAI_API_KEY"},
		{"redis lock without url", func(c *Config) { c.ThreadLockType = "redis" }, "THREAD_LOCK_REDIS_URL"},
		{"weight above one", func(c *Config) { c.MemoryRecencyWeight = 1.5 }, "MEMORY_RECENCY_WEIGHT"},
		{"negative threshold", func(c *Config) { c.SearchVectorThreshold = -0.1 }, "SEARCH_VECTOR_THRESHOLD"},
		{"zero dimension", func(c *Config) { c.EmbeddingDimension = 0 }, "EMBEDDING_DIMENSION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDatabaseReadDSN_FallsBackToWrite(t *testing.T) {
	cfg := &Config{DBPostgresqlWriteDSN: "postgres://write"}
	assert.Equal(t, "postgres://write", cfg.GetDatabaseReadDSN())

	cfg.DBPostgresqlRead1DSN = "postgres://read"
	assert.Equal(t, "postgres://read", cfg.GetDatabaseReadDSN())
}
