package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/janhq/knowledge-memory/internal/metrics"
)

var (
	ErrTextTooLong       = errors.New("text too long for embedding")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	ErrInvalidVector     = errors.New("embedding contains NaN or Inf")
)

// Client turns text into dense vectors of a fixed dimension.
type Client interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
	Dimension() int
	ValidateServer(ctx context.Context) error
}

// Validate checks that vector has the expected dimension and only finite values.
func Validate(vector []float32, dimension int) error {
	if len(vector) != dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vector), dimension)
	}
	for i, v := range vector {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w at index %d", ErrInvalidVector, i)
		}
	}
	return nil
}

// TEIClient talks to a text-embeddings-inference compatible server (BGE-M3 by default).
type TEIClient struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	cacheTTL   time.Duration
	dimension  int
}

type EmbedRequest struct {
	Inputs    interface{} `json:"inputs"` // string or []string
	Normalize bool        `json:"normalize"`
	Truncate  bool        `json:"truncate"`
}

type EmbedResponse [][]float32

type ModelInfo struct {
	ModelID string `json:"model_id"`
}

func NewTEIClient(baseURL string, dimension int, cacheConfig CacheConfig) (*TEIClient, error) {
	cache, err := NewCache(cacheConfig)
	if err != nil {
		return nil, fmt.Errorf("initialize cache: %w", err)
	}

	ttl := cacheConfig.TTL
	if ttl == 0 {
		ttl = time.Hour
	}

	return &TEIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache:     cache,
		cacheTTL:  ttl,
		dimension: dimension,
	}, nil
}

func (c *TEIClient) Dimension() int {
	return c.dimension
}

func (c *TEIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	uncachedIndices := []int{}
	uncachedTexts := []string{}

	for i, text := range texts {
		if cached, found := c.cache.Get(text); found {
			results[i] = cached
		} else {
			uncachedIndices = append(uncachedIndices, i)
			uncachedTexts = append(uncachedTexts, text)
		}
	}

	if len(uncachedTexts) == 0 {
		return results, nil
	}

	start := time.Now()
	embeddings, err := c.post(ctx, uncachedTexts)
	metrics.RecordEmbedding("tei", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if len(embeddings) != len(uncachedTexts) {
		return nil, fmt.Errorf("embedding service returned %d vectors for %d inputs", len(embeddings), len(uncachedTexts))
	}

	for i, idx := range uncachedIndices {
		results[idx] = embeddings[i]
		c.cache.Set(uncachedTexts[i], embeddings[i], c.cacheTTL)
	}

	return results, nil
}

func (c *TEIClient) post(ctx context.Context, texts []string) (EmbedResponse, error) {
	jsonData, err := json.Marshal(EmbedRequest{
		Inputs:    texts,
		Normalize: true,
		Truncate:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embed", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var embeddings EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embeddings); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return embeddings, nil
}

func (c *TEIClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	embeddings, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (c *TEIClient) ValidateServer(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("create health request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("embedding server not healthy: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding server not healthy: status %d", resp.StatusCode)
	}

	req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/info", nil)
	if err != nil {
		return fmt.Errorf("create info request: %w", err)
	}
	resp, err = c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to get model info: %w", err)
	}
	defer resp.Body.Close()

	var info ModelInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return fmt.Errorf("failed to decode model info: %w", err)
	}
	log.Info().Str("model", info.ModelID).Msg("Embedding model detected")

	embeddings, err := c.post(ctx, []string{"test"})
	if err != nil {
		return fmt.Errorf("test embedding failed: %w", err)
	}
	if len(embeddings) == 0 {
		return fmt.Errorf("test embedding returned no vectors")
	}
	return Validate(embeddings[0], c.dimension)
}
