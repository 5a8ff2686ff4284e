package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/janhq/knowledge-memory/internal/configs"
	"github.com/janhq/knowledge-memory/internal/domain/conversation"
	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/domain/embedding"
	"github.com/janhq/knowledge-memory/internal/domain/memory"
	"github.com/janhq/knowledge-memory/internal/domain/search"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/conversationrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/corpusrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/documentrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/memoryrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/database/repository/searchrepo"
	"github.com/janhq/knowledge-memory/internal/infrastructure/lock"
)

// runtime holds the services a command works with. The CLI always uses the
// in-process lock and the in-memory embedding cache. embedder is nil when no
// provider is configured.
type runtime struct {
	cfg      *configs.Config
	db       *gorm.DB
	embedder embedding.Client
}

func openRuntime(withEmbedder bool) (*runtime, error) {
	cfg, err := configs.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(database.Config{
		Driver:          cfg.DBDriver,
		DSN:             cfg.GetDatabaseWriteDSN(),
		SqlitePath:      cfg.DBSqlitePath,
		MaxIdleConns:    1,
		MaxOpenConns:    2,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:        database.ParseLogLevel(cfg.DBLogLevel),
	})
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, db: db}
	if !withEmbedder {
		return rt, nil
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
		Cache:              embedding.CacheConfig{Type: "memory", MaxSize: cfg.EmbeddingCacheMaxSize, TTL: cfg.EmbeddingCacheTTL},
		BreakerMaxFailures: cfg.EmbeddingBreakerFails,
		BreakerTimeout:     cfg.EmbeddingBreakerTimeout,
	})
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}
	rt.embedder = client
	return rt, nil
}

func (rt *runtime) Close() {
	if err := database.Close(rt.db); err != nil {
		log.Debug().Err(err).Msg("close database")
	}
}

func (rt *runtime) memoryService() *memory.Service {
	return memory.NewService(memoryrepo.NewRepository(rt.db), rt.embedder, memory.Config{
		Dimension:       rt.cfg.EmbeddingDimension,
		ReembedOnUpdate: rt.cfg.MemoryReembedOnUpdate,
	})
}

func (rt *runtime) memorySyncService() *memory.SyncService {
	return memory.NewSyncService(memoryrepo.NewRepository(rt.db), rt.embedder, memory.Config{
		Dimension: rt.cfg.EmbeddingDimension,
	})
}

func (rt *runtime) corpusService() *document.CorpusService {
	return document.NewCorpusService(corpusrepo.NewRepository(rt.db))
}

func (rt *runtime) syncService() *document.SyncService {
	return document.NewSyncService(
		corpusrepo.NewRepository(rt.db),
		documentrepo.NewRepository(rt.db),
		rt.embedder,
		nil,
		document.SyncConfig{Dimension: rt.cfg.EmbeddingDimension},
	)
}

func (rt *runtime) conversationStore() *conversation.Store {
	return conversation.NewStore(conversationrepo.NewRepository(rt.db), lock.NewLocalLocker())
}

func (rt *runtime) searchEngine() *search.Engine {
	backend := searchrepo.NewRepository(rt.db)
	defaults := search.Defaults{
		VectorLimit:   rt.cfg.SearchVectorLimit,
		Threshold:     rt.cfg.SearchVectorThreshold,
		TagLimit:      rt.cfg.SearchTagLimit,
		KeywordLimit:  rt.cfg.SearchKeywordLimit,
		K:             rt.cfg.MemoryRankK,
		RecencyWeight: rt.cfg.MemoryRecencyWeight,
		Dimension:     rt.cfg.EmbeddingDimension,
	}
	return search.NewEngine(
		search.NewVectorStrategy(backend, rt.embedder, defaults),
		search.NewTagStrategy(backend, defaults),
		search.NewKeywordStrategy(backend, defaults),
		search.NewRecencyStrategy(backend, rt.embedder, defaults),
	)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// printResult writes v in the format selected by --output.
func printResult(cmd *cobra.Command, v any) error {
	format, _ := cmd.Flags().GetString("output")
	return writeResult(cmd.OutOrStdout(), format, v)
}

func writeResult(w io.Writer, format string, v any) error {
	switch format {
	case "yaml":
		// Round-trip through JSON so yaml keys follow the json tags.
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
