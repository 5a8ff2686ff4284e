package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/janhq/knowledge-memory/internal/domain/conversation"
	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/responses"
)

type ThreadHandler struct {
	store *conversation.Store
}

func NewThreadHandler(store *conversation.Store) *ThreadHandler {
	return &ThreadHandler{store: store}
}

type putCheckpointRequest struct {
	Messages []conversation.ProposedMessage `json:"messages"`
}

type putCheckpointResponse struct {
	ThreadKey  string                   `json:"thread_key"`
	Checkpoint *conversation.Checkpoint `json:"checkpoint"`
}

// HandleGetCheckpoint handles GET /v1/threads/{key}/checkpoint
func (h *ThreadHandler) HandleGetCheckpoint(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	checkpoint, err := h.store.GetCheckpoint(r.Context(), key)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}
	if checkpoint == nil {
		responses.Error(w, r, http.StatusNotFound, "no checkpoint for thread")
		return
	}

	responses.JSON(w, r, http.StatusOK, checkpoint)
}

// HandlePutCheckpoint handles PUT /v1/threads/{key}/checkpoint
func (h *ThreadHandler) HandlePutCheckpoint(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if logger == nil {
		logger = &log.Logger
	}

	var req putCheckpointRequest
	if err := decodeJSON(w, r, &req); err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.store.PutCheckpoint(r.Context(), r.PathValue("key"), req.Messages)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	checkpoint, err := h.store.GetCheckpoint(r.Context(), key)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	logger.Debug().
		Str("thread_key", key).
		Int("proposed", len(req.Messages)).
		Msg("checkpoint stored")

	responses.JSON(w, r, http.StatusOK, putCheckpointResponse{ThreadKey: key, Checkpoint: checkpoint})
}

// HandleListMessages handles GET /v1/threads/{key}/messages
func (h *ThreadHandler) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	messages, err := h.store.History(r.Context(), r.PathValue("key"), limit)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusOK, map[string]any{
		"messages": messages,
		"count":    len(messages),
	})
}
