package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"billing-service/internal/ai"
	"billing-service/internal/core"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a service error onto a status code. Unknown errors are
// logged and reported with a generic message so driver or provider details
// never reach the client.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var cfgErr *core.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		writeError(w, r, "feature locked: configure "+cfgErr.Setting, "NOT_CONFIGURED", http.StatusServiceUnavailable)
	case errors.Is(err, core.ErrNotConfigured):
		writeError(w, r, "feature locked", "NOT_CONFIGURED", http.StatusServiceUnavailable)
	case errors.Is(err, core.ErrValidation):
		writeError(w, r, err.Error(), "VALIDATION", http.StatusBadRequest)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, err.Error(), "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrInvalidTransition):
		writeError(w, r, err.Error(), "INVALID_TRANSITION", http.StatusConflict)
	case errors.Is(err, core.ErrDocumentLocked):
		writeError(w, r, err.Error(), "DOCUMENT_LOCKED", http.StatusConflict)
	case errors.Is(err, core.ErrUnreachable):
		writeError(w, r, "storage is unreachable, try again later", "UNAVAILABLE", http.StatusServiceUnavailable)
	case errors.Is(err, ai.ErrProviderFailed):
		h.log.Warn("ai provider failed", zap.String("request_id", requestIDFromContext(r.Context())), zap.Error(err))
		writeError(w, r, "the assistant could not answer, try again", "AI_UNAVAILABLE", http.StatusBadGateway)
	default:
		h.log.Error("request failed",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
