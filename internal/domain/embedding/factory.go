package embedding

import (
	"fmt"
	"time"
)

const (
	ProviderTEI    = "tei"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)

// ProviderConfig selects and configures the embedding provider.
type ProviderConfig struct {
	Provider   string
	ServiceURL string
	Dimension  int
	OpenAI     OpenAIConfig
	Cache      CacheConfig

	BreakerMaxFailures uint32
	BreakerTimeout     time.Duration
}

// NewClient builds the configured provider behind a circuit breaker. It
// returns a nil Client for the "none" provider.
func NewClient(cfg ProviderConfig) (Client, error) {
	var (
		inner Client
		err   error
	)
	switch cfg.Provider {
	case ProviderNone:
		return nil, nil
	case ProviderTEI, "":
		inner, err = NewTEIClient(cfg.ServiceURL, cfg.Dimension, cfg.Cache)
	case ProviderOpenAI:
		openaiCfg := cfg.OpenAI
		openaiCfg.Dimension = cfg.Dimension
		inner, err = NewOpenAIClient(openaiCfg, cfg.Cache)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s embedding client: %w", cfg.Provider, err)
	}

	return NewBreakerClient(inner, BreakerConfig{
		Name:        "embedding-" + cfg.Provider,
		MaxFailures: cfg.BreakerMaxFailures,
		OpenTimeout: cfg.BreakerTimeout,
	}), nil
}
