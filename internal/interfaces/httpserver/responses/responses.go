package responses

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/janhq/knowledge-memory/internal/interfaces/httpserver/middleware"
	"github.com/janhq/knowledge-memory/internal/utils/platformerrors"
)

type errorResponse struct {
	Error     string `json:"error"`
	Type      string `json:"type,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// JSON writes a JSON response and propagates the request ID header.
func JSON(w http.ResponseWriter, r *http.Request, status int, payload interface{}) {
	requestID := middleware.GetRequestID(r.Context())
	if requestID != "" {
		w.Header().Set(middleware.RequestIDHeader, requestID)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("failed to write response")
	}
}

// Error writes a structured error response with request ID included.
func Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	resp := errorResponse{
		Error:     message,
		RequestID: middleware.GetRequestID(r.Context()),
	}
	JSON(w, r, status, resp)
}

// FromError maps a domain or storage error to its HTTP status. Internal
// failures are logged and reported without their details.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	logger := log.Ctx(r.Context())
	if logger == nil {
		logger = &log.Logger
	}

	errType := platformerrors.TypeOf(err)
	if errors.Is(err, platformerrors.ErrStorageUnavailable) {
		errType = platformerrors.ErrorTypeDatabaseError
	}
	status := platformerrors.ErrorTypeToHTTPStatus(errType)

	message := err.Error()
	var platformErr *platformerrors.PlatformError
	if errors.As(err, &platformErr) {
		message = platformErr.Message
	}

	switch {
	case status >= 500:
		logger.Error().Err(err).Str("error_type", string(errType)).Msg("request failed")
		if errType == platformerrors.ErrorTypeInternal {
			message = "internal error"
		}
	default:
		logger.Debug().Err(err).Str("error_type", string(errType)).Msg("request rejected")
	}

	JSON(w, r, status, errorResponse{
		Error:     message,
		Type:      string(errType),
		RequestID: middleware.GetRequestID(r.Context()),
	})
}
