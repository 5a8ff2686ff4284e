package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestHTTPMiddleware_RecordsRoutePattern(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/memories/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	type observation struct{ method, route, status string }
	var seen []observation
	handler := HTTPMiddleware(tp.Tracer("test"), func(method, route, status string, durationSec float64) {
		seen = append(seen, observation{method, route, status})
	})(mux)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/memories/42", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	require.Len(t, seen, 2)
	assert.Equal(t, observation{"GET", "GET /v1/memories/{id}", "404"}, seen[0])
	assert.Equal(t, "unmatched", seen[1].route)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "GET /v1/memories/{id}", spans[0].Name())
}
