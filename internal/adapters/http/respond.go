package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/PabloGalante/jarvis-hud/internal/app/conversation"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrQuotaExhausted):
		return http.StatusPaymentRequired
	case errors.Is(err, domain.ErrSpeechUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, conversation.ErrEmptyInput):
		return http.StatusBadRequest
	case errors.Is(err, conversation.ErrSuperseded), errors.Is(err, context.Canceled):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and writes it with its mapped status. Dispatch errors
// carry the console wording; everything else gets a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	log := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		log.Warn("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}

	resp := errorResponse{Error: http.StatusText(status)}
	switch status {
	case http.StatusNotFound:
		resp.Error = "not found"
	case http.StatusInternalServerError:
		resp.Error = "internal server error"
	case http.StatusNotImplemented:
		resp.Error = err.Error()
	default:
		resp.Error = conversation.UserMessage(err)
		resp.Kind = conversation.ErrorKind(err)
	}
	writeJSON(w, status, resp)
}

// decodeJSON reads an optional JSON body into v. An empty body is allowed.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
