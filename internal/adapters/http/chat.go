package httpadapter

import (
	"io"
	"net/http"
	"strings"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

// handleChat exposes the configured chat backend as a stateless streaming
// endpoint: JSON history in, `data: {"content"}` events out, closed by
// `data: [DONE]`.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if len(req.Messages) == 0 {
		badRequest(w, "messages are required")
		return
	}
	for _, m := range req.Messages {
		if !m.Role.Valid() {
			badRequest(w, "invalid message role")
			return
		}
	}

	personality := domain.DefaultPersonality()
	if req.Personality != nil {
		personality = req.Personality.Normalized()
	}

	ctx := r.Context()
	log := observability.LoggerFromContext(ctx).With("history_len", len(req.Messages))

	ch, err := s.chat.StreamChat(ctx, domain.ChatRequest{Messages: req.Messages, Personality: personality})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadGateway
		}
		log.Warn("chat backend rejected request", "status", status, "error", err)
		writeJSON(w, status, errorResponse{Error: chatErrorMessage(status)})
		return
	}

	sse := newSSEWriter(w)
	sse.start()

	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				if ctx.Err() == nil {
					_ = sse.Event("error", errorResponse{Error: "stream ended unexpectedly"})
				}
				return
			}
			if chunk.Delta != "" {
				if err := sse.Content(chunk.Delta); err != nil {
					log.Warn("client went away", "error", err)
					return
				}
			}
			if chunk.Done {
				if chunk.Err != nil {
					log.Warn("chat stream failed", "error", chunk.Err)
					_ = sse.Event("error", errorResponse{Error: chunk.Err.Error()})
					return
				}
				_ = sse.Done()
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func chatErrorMessage(status int) string {
	switch status {
	case http.StatusTooManyRequests:
		return "Rate limits exceeded, please try again later."
	case http.StatusPaymentRequired:
		return "Payment required, please add funds to your workspace."
	default:
		return "AI gateway error"
	}
}

func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	var req weatherRequest
	// A bad body falls back to the default location like an empty one.
	_ = decodeJSON(r, &req)

	writeJSON(w, http.StatusOK, s.weather.Lookup(r.Context(), req.City, req.Country))
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	audio, err := s.speechOut.Synthesize(r.Context(), req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, audio); err != nil {
		observability.LoggerFromContext(r.Context()).Warn("tts copy interrupted", "error", err)
	}
}
