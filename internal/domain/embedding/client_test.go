package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTEIServer(t *testing.T, dimension int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
			return
		case "/info":
			json.NewEncoder(w).Encode(ModelInfo{ModelID: "BAAI/bge-m3"})
			return
		case "/embed":
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}

		if calls != nil {
			atomic.AddInt32(calls, 1)
		}

		var req EmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}

		inputs, ok := req.Inputs.([]interface{})
		if !ok {
			inputs = []interface{}{req.Inputs}
		}

		embeddings := make([][]float32, len(inputs))
		for i := range embeddings {
			embeddings[i] = make([]float32, dimension)
			for j := range embeddings[i] {
				embeddings[i][j] = float32(i+j) / float32(dimension)
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embeddings)
	}))
}

func TestTEIClient_Embed(t *testing.T) {
	server := newTEIServer(t, 1024, nil)
	defer server.Close()

	client, err := NewTEIClient(server.URL, 1024, CacheConfig{Type: "noop"})
	require.NoError(t, err)

	embeddings, err := client.Embed(context.Background(), []string{"text1", "text2", "text3"})
	require.NoError(t, err)
	require.Len(t, embeddings, 3)
	for _, emb := range embeddings {
		assert.Len(t, emb, 1024)
	}
	assert.Equal(t, 1024, client.Dimension())
}

func TestTEIClient_CacheHit(t *testing.T) {
	var calls int32
	server := newTEIServer(t, 8, &calls)
	defer server.Close()

	client, err := NewTEIClient(server.URL, 8, CacheConfig{Type: "memory", MaxSize: 100, TTL: time.Hour})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.EmbedSingle(ctx, "same text")
	require.NoError(t, err)
	_, err = client.EmbedSingle(ctx, "same text")
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// Mixed batch only sends the uncached text.
	embeddings, err := client.Embed(ctx, []string{"same text", "new text"})
	require.NoError(t, err)
	assert.Len(t, embeddings, 2)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTEIClient_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewTEIClient(server.URL, 8, CacheConfig{Type: "noop"})
	require.NoError(t, err)

	_, err = client.EmbedSingle(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestTEIClient_ValidateServer(t *testing.T) {
	server := newTEIServer(t, 16, nil)
	defer server.Close()

	ok, err := NewTEIClient(server.URL, 16, CacheConfig{Type: "noop"})
	require.NoError(t, err)
	assert.NoError(t, ok.ValidateServer(context.Background()))

	wrongDim, err := NewTEIClient(server.URL, 32, CacheConfig{Type: "noop"})
	require.NoError(t, err)
	assert.ErrorIs(t, wrongDim.ValidateServer(context.Background()), ErrDimensionMismatch)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]float32{0.1, 0.2}, 2))
	assert.ErrorIs(t, Validate([]float32{0.1}, 2), ErrDimensionMismatch)
	assert.ErrorIs(t, Validate([]float32{0.1, float32(math.NaN())}, 2), ErrInvalidVector)
	assert.ErrorIs(t, Validate([]float32{float32(math.Inf(1)), 0}, 2), ErrInvalidVector)
}

func TestMemoryCache_Expiry(t *testing.T) {
	cache, err := NewMemoryCache(10)
	require.NoError(t, err)

	cache.Set("a", []float32{1, 2}, time.Hour)
	got, ok := cache.Get("a")
	require.True(t, ok)
	assert.Equal(t, []float32{1, 2}, got)

	cache.Set("b", []float32{3}, -time.Second)
	_, ok = cache.Get("b")
	assert.False(t, ok)
}

func TestNewCache_UnknownType(t *testing.T) {
	_, err := NewCache(CacheConfig{Type: "disk"})
	assert.Error(t, err)
}

func TestEncodeDecodeVector(t *testing.T) {
	in := []float32{0, -1.5, 3.25, float32(math.MaxFloat32)}
	assert.Equal(t, in, decodeVector(encodeVector(in)))
}

type stubClient struct {
	embedFunc func(ctx context.Context, texts []string) ([][]float32, error)
	calls     int
}

func (s *stubClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	s.calls++
	return s.embedFunc(ctx, texts)
}

func (s *stubClient) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	out, err := s.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

func (s *stubClient) Dimension() int                           { return 2 }
func (s *stubClient) ValidateServer(ctx context.Context) error { return nil }

func TestBreakerClient_OpensAfterConsecutiveFailures(t *testing.T) {
	stub := &stubClient{embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("upstream down")
	}}
	client := NewBreakerClient(stub, BreakerConfig{Name: "test", MaxFailures: 2, OpenTimeout: time.Minute})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.EmbedSingle(ctx, "x")
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.State())

	_, err := client.EmbedSingle(ctx, "x")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, stub.calls)
}

func TestBreakerClient_InputErrorsDoNotTrip(t *testing.T) {
	stub := &stubClient{embedFunc: func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, ErrTextTooLong
	}}
	client := NewBreakerClient(stub, BreakerConfig{Name: "test", MaxFailures: 1, OpenTimeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := client.EmbedSingle(context.Background(), "x")
		assert.ErrorIs(t, err, ErrTextTooLong)
	}
	assert.Equal(t, gobreaker.StateClosed, client.State())
	assert.Equal(t, 2, client.Dimension())
}
