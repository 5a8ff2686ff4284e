package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhq/knowledge-memory/internal/domain/memory"
	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/responses"
	"github.com/janhq/knowledge-memory/pkg/telemetry"
)

type MemoryHandler struct {
	service   *memory.Service
	sanitizer *telemetry.Sanitizer
}

func NewMemoryHandler(service *memory.Service, sanitizer *telemetry.Sanitizer) *MemoryHandler {
	return &MemoryHandler{service: service, sanitizer: sanitizer}
}

// HandleCreate handles POST /v1/memories
func (h *MemoryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req memory.CreateInput
	if err := decodeJSON(w, r, &req); err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if h.sanitizer != nil {
		trace.SpanFromContext(r.Context()).SetAttributes(
			attribute.String("memory.content", h.sanitizer.SanitizeText(req.Content)),
		)
	}

	m, err := h.service.Create(r.Context(), req)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusCreated, m)
}

// HandleList handles GET /v1/memories
func (h *MemoryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	memories, err := h.service.Retrieve(r.Context(), memory.Filter{
		Path:  r.URL.Query().Get("path"),
		Tags:  queryList(r, "tags"),
		Limit: limit,
	})
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusOK, map[string]any{
		"memories": memories,
		"count":    len(memories),
	})
}

// HandleGet handles GET /v1/memories/{id}
func (h *MemoryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.Get(r.Context(), id)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusOK, m)
}

// HandleUpdate handles PATCH /v1/memories/{id}
func (h *MemoryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var req memory.UpdateInput
	if err := decodeJSON(w, r, &req); err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	m, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusOK, m)
}

// HandleDelete handles DELETE /v1/memories/{id}
func (h *MemoryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if logger == nil {
		logger = &log.Logger
	}

	id, err := pathID(r, "id")
	if err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		responses.FromError(w, r, err)
		return
	}

	logger.Debug().Uint("memory_id", id).Msg("memory deleted")
	w.WriteHeader(http.StatusNoContent)
}

// HandleAnalytics handles GET /v1/memories/analytics
func (h *MemoryHandler) HandleAnalytics(w http.ResponseWriter, r *http.Request) {
	groupBy := memory.GroupBy(r.URL.Query().Get("group_by"))

	analytics, err := h.service.Analytics(r.Context(), groupBy)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusOK, analytics)
}
