package handlers

import (
	"net/http"

	"github.com/janhq/knowledge-memory/internal/domain/document"
	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/responses"
)

type CorpusHandler struct {
	corpora *document.CorpusService
	syncer  *document.SyncService
}

func NewCorpusHandler(corpora *document.CorpusService, syncer *document.SyncService) *CorpusHandler {
	return &CorpusHandler{corpora: corpora, syncer: syncer}
}

// HandleCreate handles POST /v1/corpora
func (h *CorpusHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req document.CreateCorpusInput
	if err := decodeJSON(w, r, &req); err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	corpus, err := h.corpora.Create(r.Context(), req)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusCreated, corpus)
}

// HandleList handles GET /v1/corpora
func (h *CorpusHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	corpora, err := h.corpora.List(r.Context())
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusOK, map[string]any{"corpora": corpora})
}

// HandleSync handles POST /v1/corpora/{id}/sync
func (h *CorpusHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		responses.Error(w, r, http.StatusBadRequest, err.Error())
		return
	}

	report, err := h.syncer.Sync(r.Context(), id)
	if err != nil {
		responses.FromError(w, r, err)
		return
	}

	responses.JSON(w, r, http.StatusOK, report)
}
