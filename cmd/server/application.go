package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/janhq/knowledge-memory/internal/configs"
	"github.com/janhq/knowledge-memory/internal/domain/conversation"
	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/domain/embedding"
	"github.com/janhq/knowledge-memory/internal/domain/memory"
	"github.com/janhq/knowledge-memory/internal/domain/search"
	"github.com/janhq/knowledge-memory/internal/infrastructure/cache"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/corpusrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/documentrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/memoryrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/searchrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/lock"
	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver"
	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/handlers"
	"github.com/janhq/knowledge-memory/internal/metrics"
	"github.com/janhq/knowledge-memory/pkg/observability"
	"github.com/janhq/knowledge-memory/pkg/observability/worker"
)

const serviceName = "knowledge-memory"

type Application struct {
	server    *http.Server
	db        *gorm.DB
	telemetry *observability.Provider
}

func newApplication(cfg *configs.Config) (*Application, error) {
	ctx := context.Background()

	obsCfg := observability.DefaultConfig(serviceName)
	obsCfg.Environment = cfg.Environment
	obsCfg.TracingEnabled = cfg.OTELEnabled
	obsCfg.OTLPEndpoint = cfg.OTELEndpoint
	obsCfg.SamplingRate = cfg.OTELSamplingRate
	obsCfg.PIILevel = cfg.OTELPIILevel
	provider, err := observability.Init(ctx, obsCfg)
	if err != nil {
		return nil, fmt.Errorf("init observability: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embeddingClient, err := newEmbeddingClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	locker, err := lock.New(ctx, lock.Config{
		Type:     cfg.ThreadLockType,
		RedisURL: cfg.ThreadLockRedisURL,
		TTL:      cfg.ThreadLockTTL,
	})
	if err != nil {
		return nil, err
	}

	corpora := corpusrepo.NewRepository(db)
	store := conversation.NewStore(conversationrepo.NewRepository(db), locker)
	memoryService := memory.NewService(memoryrepo.NewRepository(db), embeddingClient, memory.Config{
		Dimension:       cfg.EmbeddingDimension,
		ReembedOnUpdate: cfg.MemoryReembedOnUpdate,
	})
	corpusService := document.NewCorpusService(corpora)
	syncService := document.NewSyncService(
		corpora,
		documentrepo.NewRepository(db),
		embeddingClient,
		worker.NewWorkerInstrumenter(provider.Tracer, metrics.Jobs{}),
		document.SyncConfig{Dimension: cfg.EmbeddingDimension},
	)
	engine := newSearchEngine(cfg, searchrepo.NewRepository(db), embeddingClient)

	router := httpserver.NewRouter(httpserver.Handlers{
		Health:  handlers.NewHealthHandler(pingDatabase(db), modeNames(engine)),
		Threads: handlers.NewThreadHandler(store),
		Search:  handlers.NewSearchHandler(engine, provider.Sanitizer),
		Memory:  handlers.NewMemoryHandler(memoryService, provider.Sanitizer),
		Corpora: handlers.NewCorpusHandler(corpusService, syncService),
	}, httpserver.RouterConfig{
		RequestTimeout: cfg.RequestTimeout,
		Tracer:         provider.Tracer,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.RequestTimeout,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &Application{
		server:    server,
		db:        db,
		telemetry: provider,
	}, nil
}

func openDatabase(ctx context.Context, cfg *configs.Config) (*gorm.DB, error) {
	db, err := database.Connect(database.Config{
		Driver:          cfg.DBDriver,
		DSN:             cfg.GetDatabaseWriteDSN(),
		ReplicaDSN:      cfg.GetDatabaseReadDSN(),
		SqlitePath:      cfg.DBSqlitePath,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:        database.ParseLogLevel(cfg.DBLogLevel),
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.DBDriver).Msg("Database connection established")

	if cfg.AutoMigrate {
		if err := database.AutoMigrate(ctx, db, log.Logger); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// newEmbeddingClient returns a nil client when no provider is configured, so
// the services see a nil interface rather than a typed nil.
func newEmbeddingClient(ctx context.Context, cfg *configs.Config) (embedding.Client, error) {
	cacheCfg := embedding.CacheConfig{
		Type:      cfg.EmbeddingCacheType,
		RedisURL:  cfg.EmbeddingCacheRedisURL,
		KeyPrefix: cfg.EmbeddingCacheKeyPrefix,
		MaxSize:   cfg.EmbeddingCacheMaxSize,
		TTL:       cfg.EmbeddingCacheTTL,
	}
	if cfg.EmbeddingProvider != embedding.ProviderNone && cfg.EmbeddingCacheType == "redis" {
		client, err := cache.NewUniversalClient(ctx, cfg.EmbeddingCacheRedisURL)
		if err != nil {
			return nil, fmt.Errorf("embedding cache: %w", err)
		}
		cacheCfg.RedisClient = client
	}

	client, err := embedding.NewClient(embedding.ProviderConfig{
		Provider:   cfg.EmbeddingProvider,
		ServiceURL: cfg.EmbeddingServiceURL,
		Dimension:  cfg.EmbeddingDimension,
		OpenAI: embedding.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIEmbeddingModel,
		},
		Cache:              cacheCfg,
		BreakerMaxFailures: cfg.EmbeddingBreakerFails,
		BreakerTimeout:     cfg.EmbeddingBreakerTimeout,
	})
	if err != nil {
		return nil, err
	}
	if client == nil {
		log.Warn().Msg("No embedding provider configured; vector search needs explicit query embeddings")
		return nil, nil
	}

	if cfg.ValidateEmbedding {
		validateCtx, cancel := context.WithTimeout(ctx, cfg.ValidateEmbeddingTimeout)
		defer cancel()

		if err := client.ValidateServer(validateCtx); err != nil {
			return nil, fmt.Errorf("validate embedding server: %w", err)
		}
		log.Info().Str("provider", cfg.EmbeddingProvider).Msg("Embedding server validated successfully")
	}
	return client, nil
}

func newSearchEngine(cfg *configs.Config, backend search.Backend, embedder search.Embedder) *search.Engine {
	defaults := search.Defaults{
		VectorLimit:   cfg.SearchVectorLimit,
		Threshold:     cfg.SearchVectorThreshold,
		TagLimit:      cfg.SearchTagLimit,
		KeywordLimit:  cfg.SearchKeywordLimit,
		K:             cfg.MemoryRankK,
		RecencyWeight: cfg.MemoryRecencyWeight,
		Dimension:     cfg.EmbeddingDimension,
	}
	return search.NewEngine(
		search.NewVectorStrategy(backend, embedder, defaults),
		search.NewTagStrategy(backend, defaults),
		search.NewKeywordStrategy(backend, defaults),
		search.NewRecencyStrategy(backend, embedder, defaults),
	)
}

func pingDatabase(db *gorm.DB) handlers.Pinger {
	return func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

func modeNames(engine *search.Engine) func() []string {
	return func() []string {
		modes := engine.Modes()
		names := make([]string, len(modes))
		for i, mode := range modes {
			names[i] = string(mode)
		}
		return names
	}
}

func (a *Application) Start(ctx context.Context) error {
	log.Info().Msg("Starting Knowledge Memory Service")

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.server.Addr).Msg("Knowledge Memory Service listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Failed to flush telemetry")
	}
	if a.db != nil {
		_ = database.Close(a.db)
	}

	log.Info().Msg("Server exited")
	return nil
}
