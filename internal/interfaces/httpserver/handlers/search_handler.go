package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/knowledge-memory/internal/domain/search"
	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/responses"
	"github.com/janhq/knowledge-memory/pkg/telemetry"
)

type SearchHandler struct {
	engine    *search.Engine
	sanitizer *telemetry.Sanitizer
}

func NewSearchHandler(engine *search.Engine, sanitizer *telemetry.Sanitizer) *SearchHandler {
	return &SearchHandler{engine: engine, sanitizer: sanitizer}
}

type searchRequest struct {
	Mode          search.Mode   `json:"mode"`
	Target        search.Target `json:"target"`
	Text          string        `json:"text"`
	Embedding     []float32     `json:"embedding"`
	Tags          []string      `json:"tags"`
	Keywords      []string      `json:"keywords"`
	Limit         int           `json:"limit"`
	Threshold     *float64      `json:"threshold"`
	FilterTags    []string      `json:"filter_tags"`
	K             int           `json:"k"`
	RecencyWeight *float64      `json:"recency_weight"`
}

type searchResponse struct {
	Mode    search.Mode     `json:"mode"`
	Target  search.Target   `json:"target"`
	Results []search.Result `json:"results"`
}

// HandleSearch handles POST /v1/search
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if logger == nil {
		logger = &log.Logger
	}

	var req searchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = search.ModeVector
	}
	if req.Limit < 0 || req.K < 0 {
		responses.Error(w, r, http.StatusBadRequest, "limit and k must not be negative")
		return
	}

	if h.sanitizer != nil && req.Text != "" {
		trace.SpanFromContext(r.Context()).SetAttributes(
			attribute.String("search.query", h.sanitizer.SanitizeText(req.Text)),
		)
	}

	results, err := h.engine.Search(r.Context(), req.Mode, search.Query{
		Target:        req.Target,
		Text:          req.Text,
		Embedding:     req.Embedding,
		Tags:          req.Tags,
		Keywords:      req.Keywords,
		Limit:         req.Limit,
		Threshold:     req.Threshold,
		FilterTags:    req.FilterTags,
		K:             req.K,
		RecencyWeight: req.RecencyWeight,
	})
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	target := req.Target
	if target == "" && len(results) > 0 {
		target = results[0].Item.Kind
	}

	logger.Debug().
		Str("mode", string(req.Mode)).
		Int("results", len(results)).
		Msg("search served")

	responses.JSON(w, r, http.StatusOK, searchResponse{Mode: req.Mode, Target: target, Results: results})
}
