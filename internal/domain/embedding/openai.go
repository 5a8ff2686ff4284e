package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"

	"github.com/janhq/knowledge-memory/internal/metrics"
)

// Roughly 300k tokens at four characters per token.
const openAIMaxChars = 120000

// OpenAIClient embeds text with the OpenAI embeddings API.
type OpenAIClient struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
	cache     Cache
	cacheTTL  time.Duration
}

type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
}

func NewOpenAIClient(cfg OpenAIConfig, cacheConfig CacheConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key is not set")
	}

	cache, err := NewCache(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	ttl := cacheConfig.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &OpenAIClient{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     openai.EmbeddingModel(cfg.Model),
		dimension: cfg.Dimension,
		cache:     cache,
		cacheTTL:  ttl,
	}, nil
}

func (c *OpenAIClient) Dimension() int {
	return c.dimension
}

func (c *OpenAIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var uncachedIndices []int
	var uncachedTexts []string

	for i, text := range texts {
		if n := utf8.RuneCountInString(text); n > openAIMaxChars {
			return nil, fmt.Errorf("%w: %d chars (max %d)", ErrTextTooLong, n, openAIMaxChars)
		}
		if cached, found := c.cache.Get(text); found {
			results[i] = cached
			continue
		}
		uncachedIndices = append(uncachedIndices, i)
		uncachedTexts = append(uncachedTexts, text)
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	req := openai.EmbeddingRequest{
		Input: uncachedTexts,
		Model: c.model,
	}
	// Only the text-embedding-3 family accepts a reduced dimension.
	if strings.HasPrefix(string(c.model), "text-embedding-3") {
		req.Dimensions = c.dimension
	}

	start := time.Now()
	resp, err := c.client.CreateEmbeddings(ctx, req)
	metrics.RecordEmbedding("openai", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(uncachedTexts) {
		return nil, fmt.Errorf("openai returned %d embeddings for %d inputs", len(resp.Data), len(uncachedTexts))
	}

	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(uncachedIndices) {
			return nil, fmt.Errorf("openai returned out of range index %d", item.Index)
		}
		results[uncachedIndices[item.Index]] = item.Embedding
		c.cache.Set(uncachedTexts[item.Index], item.Embedding, c.cacheTTL)
	}

	return results, nil
}

func (c *OpenAIClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (c *OpenAIClient) ValidateServer(ctx context.Context) error {
	vector, err := c.EmbedSingle(ctx, "test")
	if err != nil {
		return fmt.Errorf("test embedding failed: %w", err)
	}
	return Validate(vector, c.dimension)
}
