package handlers

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/responses"
)

// Pinger checks a backing service.
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	storage Pinger
	modes   func() []string
}

func NewHealthHandler(storage Pinger, modes func() []string) *HealthHandler {
	return &HealthHandler{storage: storage, modes: modes}
}

// HandleHealth handles GET /healthz
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	payload := map[string]any{"status": "ok"}

	if h.storage != nil {
		if err := h.storage(r.Context()); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("storage health check failed")
			status = http.StatusServiceUnavailable
			payload["status"] = "degraded"
			payload["storage"] = "unavailable"
		} else {
			payload["storage"] = "ok"
		}
	}
	if h.modes != nil {
		payload["search_modes"] = h.modes()
	}

	responses.JSON(w, r, status, payload)
}
