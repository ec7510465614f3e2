package httpadapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/PabloGalante/jarvis-hud/internal/app/conversation"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

const maxVoiceUpload = 32 << 20

// ─────────────────────────────────────────────
// Sessions
// ─────────────────────────────────────────────

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*conversation.Session, bool) {
	sess, err := s.conv.Session(domain.SessionID(chi.URLParam(r, "sid")))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	sess := s.conv.OpenSession(r.Context(), domain.UserID(strings.TrimSpace(req.UserID)))
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.conv.CloseSession(r.Context(), domain.SessionID(chi.URLParam(r, "sid"))); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Console input
// ─────────────────────────────────────────────

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req inputRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		badRequest(w, "text is required")
		return
	}

	s.dispatch(w, r, sess, req.Text, "")
}

func (s *Server) handleVoice(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxVoiceUpload); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "audio file is required (field 'file')")
		return
	}
	defer file.Close()

	text, err := s.speechIn.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if strings.TrimSpace(text) == "" {
		badRequest(w, "empty transcription")
		return
	}

	s.dispatch(w, r, sess, text, text)
}

// dispatch runs input through the session. Local answers are JSON. Remote
// replies stream as SSE once the first chunk arrives; failures before that
// are plain JSON errors with a mapped status.
func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, sess *conversation.Session, text, transcript string) {
	sse := newSSEWriter(w)
	begin := func() {
		if sse.started {
			return
		}
		if transcript != "" {
			_ = sse.Event("transcript", transcriptEvent{Text: transcript})
			return
		}
		sse.start()
	}

	res, err := s.conv.Dispatch(r.Context(), sess, text, func(delta string) {
		begin()
		_ = sse.Content(delta)
	})

	if res != nil && res.Local {
		writeJSON(w, http.StatusOK, localResponse{
			Handled:    true,
			Response:   res.Response,
			Action:     res.Action,
			Actions:    orEmpty(sess.DrainActions()),
			Transcript: transcript,
		})
		return
	}

	if !sse.started {
		if err != nil {
			writeError(w, r, err)
			return
		}
		begin()
	}

	if err != nil {
		_ = sse.Event("error", errorResponse{
			Error: conversation.UserMessage(err),
			Kind:  conversation.ErrorKind(err),
		})
	}

	done := doneEvent{ConversationID: string(sess.ActiveConversation())}
	if res != nil && res.Message != nil {
		done.MessageID = string(res.Message.ID)
	}
	_ = sse.Event("done", done)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{Cancelled: s.conv.Cancel(sess)})
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, messagesResponse{
		ConversationID: string(sess.ActiveConversation()),
		Loading:        sess.Loading(),
		Messages:       toMessagesResponse(sess.Messages()),
	})
}

// ─────────────────────────────────────────────
// Conversations
// ─────────────────────────────────────────────

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	convs, err := s.conv.ListConversations(r.Context(), sess)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationsResponse(convs))
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req createConversationRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	id, err := s.conv.CreateConversation(r.Context(), sess, req.Title)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createConversationResponse{ConversationID: string(id)})
}

func (s *Server) handleSwitchConversation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	id := domain.ConversationID(chi.URLParam(r, "cid"))
	if err := s.conv.SwitchConversation(r.Context(), sess, id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messagesResponse{
		ConversationID: string(id),
		Messages:       toMessagesResponse(sess.Messages()),
	})
}

func (s *Server) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	id := domain.ConversationID(chi.URLParam(r, "cid"))
	if err := s.conv.DeleteConversation(r.Context(), sess, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─────────────────────────────────────────────
// Settings
// ─────────────────────────────────────────────

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	st, err := s.settings.Get(r.Context(), domain.UserID(chi.URLParam(r, "uid")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(st))
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	userID := domain.UserID(chi.URLParam(r, "uid"))

	var req settingsRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	st, err := s.settings.Get(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	req.apply(st)

	saved, err := s.settings.Update(r.Context(), st)
	if err != nil {
		writeError(w, r, fmt.Errorf("updating settings for %s: %w", userID, err))
		return
	}
	writeJSON(w, http.StatusOK, toSettingsResponse(saved))
}

func orEmpty(actions []domain.Action) []domain.Action {
	if actions == nil {
		return []domain.Action{}
	}
	return actions
}
