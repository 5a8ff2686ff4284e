package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

var global *Config

type Config struct {
	HTTPPort int `env:"KNOWLEDGE_MEMORY_PORT" envDefault:"8092"`

	// Database. DB_DRIVER selects postgres (pgvector) or the embedded sqlite backend.
	DBDriver             string        `env:"DB_DRIVER" envDefault:"postgres"`
	DBPostgresqlWriteDSN string        `env:"DB_POSTGRESQL_WRITE_DSN"`
	DBPostgresqlRead1DSN string        `env:"DB_POSTGRESQL_READ1_DSN"` // Optional read replica
	DBSqlitePath         string        `env:"DB_SQLITE_PATH" envDefault:"knowledge-memory.db"`
	DBMaxIdleConns       int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns       int           `env:"DB_MAX_OPEN_CONNS" envDefault:"20"`
	DBConnMaxLifetime    time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	DBLogLevel           string        `env:"DB_LOG_LEVEL" envDefault:"warn"`
	AutoMigrate          bool          `env:"AUTO_MIGRATE" envDefault:"true"`

	EmbeddingProvider       string        `env:"EMBEDDING_PROVIDER" envDefault:"tei"`
	EmbeddingServiceURL     string        `env:"EMBEDDING_SERVICE_URL" envDefault:"http://localhost:8091"`
	EmbeddingDimension      int           `env:"EMBEDDING_DIMENSION" envDefault:"1024"`
	OpenAIAPIKey            string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL           string        `env:"OPENAI_BASE_URL"`
	OpenAIEmbeddingModel    string        `env:"OPENAI_EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	EmbeddingCacheType      string        `env:"EMBEDDING_CACHE_TYPE" envDefault:"memory"`
	EmbeddingCacheTTL       time.Duration `env:"EMBEDDING_CACHE_TTL" envDefault:"1h"`
	EmbeddingCacheMaxSize   int           `env:"EMBEDDING_CACHE_MAX_SIZE" envDefault:"10000"`
	EmbeddingCacheRedisURL  string        `env:"EMBEDDING_CACHE_REDIS_URL" envDefault:"redis://redis:6379/3"`
	EmbeddingCacheKeyPrefix string        `env:"EMBEDDING_CACHE_KEY_PREFIX" envDefault:"emb:"`
	EmbeddingBreakerFails   uint32        `env:"EMBEDDING_BREAKER_MAX_FAILURES" envDefault:"5"`
	EmbeddingBreakerTimeout time.Duration `env:"EMBEDDING_BREAKER_TIMEOUT" envDefault:"30s"`

	ValidateEmbedding        bool          `env:"VALIDATE_EMBEDDING_ON_START" envDefault:"false"`
	ValidateEmbeddingTimeout time.Duration `env:"VALIDATE_EMBEDDING_TIMEOUT" envDefault:"10s"`

	ThreadLockType     string        `env:"THREAD_LOCK_TYPE" envDefault:"local"`
	ThreadLockRedisURL string        `env:"THREAD_LOCK_REDIS_URL"`
	ThreadLockTTL      time.Duration `env:"THREAD_LOCK_TTL" envDefault:"10s"`

	MemoryReembedOnUpdate bool `env:"MEMORY_REEMBED_ON_UPDATE" envDefault:"false"`

	SearchVectorThreshold float64 `env:"SEARCH_VECTOR_THRESHOLD" envDefault:"0.7"`
	SearchVectorLimit     int     `env:"SEARCH_VECTOR_LIMIT" envDefault:"10"`
	SearchTagLimit        int     `env:"SEARCH_TAG_LIMIT" envDefault:"10"`
	SearchKeywordLimit    int     `env:"SEARCH_KEYWORD_LIMIT" envDefault:"5"`
	MemoryRankK           int     `env:"MEMORY_RANK_K" envDefault:"5"`
	MemoryRecencyWeight   float64 `env:"MEMORY_RECENCY_WEIGHT" envDefault:"0.1"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	IdleTimeout    time.Duration `env:"IDLE_TIMEOUT" envDefault:"120s"`

	OTELEnabled      bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint     string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"otel-collector:4318"`
	OTELSamplingRate float64 `env:"OTEL_SAMPLING_RATE" envDefault:"1.0"`
	OTELPIILevel     string  `env:"OTEL_PII_LEVEL" envDefault:"hashed"`
	Environment      string  `env:"ENVIRONMENT" envDefault:"development"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"console"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.EmbeddingProvider = strings.ToLower(strings.TrimSpace(cfg.EmbeddingProvider))
	cfg.ThreadLockType = strings.ToLower(strings.TrimSpace(cfg.ThreadLockType))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	global = cfg
	return cfg, nil
}

func GetGlobal() *Config {
	return global
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres":
		if c.DBPostgresqlWriteDSN == "" {
			return fmt.Errorf("DB_POSTGRESQL_WRITE_DSN is required when DB_DRIVER=postgres")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}

	switch c.EmbeddingProvider {
	case "tei", "none":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when EMBEDDING_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unsupported EMBEDDING_PROVIDER %q", c.EmbeddingProvider)
	}

	if c.ThreadLockType == "redis" && c.ThreadLockRedisURL == "" {
		return fmt.Errorf("THREAD_LOCK_REDIS_URL is required when THREAD_LOCK_TYPE=redis")
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("EMBEDDING_DIMENSION must be positive")
	}
	if c.MemoryRecencyWeight < 0 || c.MemoryRecencyWeight > 1 {
		return fmt.Errorf("MEMORY_RECENCY_WEIGHT must be within [0,1]")
	}
	if c.SearchVectorThreshold < 0 || c.SearchVectorThreshold > 1 {
		return fmt.Errorf("SEARCH_VECTOR_THRESHOLD must be within [0,1]")
	}
	return nil
}

// GetDatabaseWriteDSN returns the write database connection string.
func (c *Config) GetDatabaseWriteDSN() string {
	return c.DBPostgresqlWriteDSN
}

// GetDatabaseReadDSN returns the read database connection string.
// Falls back to the write DSN when no replica is configured.
func (c *Config) GetDatabaseReadDSN() string {
	if c.DBPostgresqlRead1DSN != "" {
		return c.DBPostgresqlRead1DSN
	}
	return c.GetDatabaseWriteDSN()
}
