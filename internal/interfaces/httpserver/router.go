// Package httpserver exposes the conversation store, retrieval engine, memory
// write path and corpus sync over HTTP.
package httpserver

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/handlers"
	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/middleware"
	"github.com/janhq/knowledge-memory/internal/metrics"
	obsmiddleware "github.com/janhq/knowledge-memory/pkg/observability/middleware"
)

type Handlers struct {
	Health  *handlers.HealthHandler
	Threads *handlers.ThreadHandler
	Search  *handlers.SearchHandler
	Memory  *handlers.MemoryHandler
	Corpora *handlers.CorpusHandler
}

type RouterConfig struct {
	RequestTimeout time.Duration
	Tracer         trace.Tracer
}

// NewRouter registers every route and wraps the mux with the middleware
// chain. Tracing sits closest to the mux so it sees the matched pattern.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.Health.HandleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /v1/threads/{key}/checkpoint", h.Threads.HandleGetCheckpoint)
	mux.HandleFunc("PUT /v1/threads/{key}/checkpoint", h.Threads.HandlePutCheckpoint)
	mux.HandleFunc("GET /v1/threads/{key}/messages", h.Threads.HandleListMessages)

	mux.HandleFunc("POST /v1/search", h.Search.HandleSearch)

	mux.HandleFunc("POST /v1/memories", h.Memory.HandleCreate)
	mux.HandleFunc("GET /v1/memories", h.Memory.HandleList)
	mux.HandleFunc("GET /v1/memories/analytics", h.Memory.HandleAnalytics)
	mux.HandleFunc("GET /v1/memories/{id}", h.Memory.HandleGet)
	mux.HandleFunc("PATCH /v1/memories/{id}", h.Memory.HandleUpdate)
	mux.HandleFunc("DELETE /v1/memories/{id}", h.Memory.HandleDelete)

	mux.HandleFunc("POST /v1/corpora", h.Corpora.HandleCreate)
	mux.HandleFunc("GET /v1/corpora", h.Corpora.HandleList)
	mux.HandleFunc("POST /v1/corpora/{id}/sync", h.Corpora.HandleSync)

	var handler http.Handler = mux
	if cfg.Tracer != nil {
		handler = obsmiddleware.HTTPMiddleware(cfg.Tracer, metrics.RecordRequest)(handler)
	}
	handler = middleware.TimeoutMiddleware(cfg.RequestTimeout)(handler)
	handler = middleware.AccessLogMiddleware()(handler)
	handler = middleware.RequestIDMiddleware()(handler)
	return handler
}
