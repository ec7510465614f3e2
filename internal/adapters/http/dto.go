package httpadapter

import (
	"time"

	"github.com/PabloGalante/jarvis-hud/internal/app/conversation"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type openSessionRequest struct {
	UserID string `json:"user_id"`
}

type sessionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	Anonymous bool      `json:"anonymous"`
	CreatedAt time.Time `json:"created_at"`
}

type inputRequest struct {
	Text string `json:"text"`
}

// localResponse answers input handled by a local command.
type localResponse struct {
	Handled    bool            `json:"handled"`
	Response   string          `json:"response"`
	Action     *domain.Action  `json:"action,omitempty"`
	Actions    []domain.Action `json:"actions"`
	Transcript string          `json:"transcript,omitempty"`
}

type transcriptEvent struct {
	Text string `json:"text"`
}

type doneEvent struct {
	ConversationID string `json:"conversation_id,omitempty"`
	MessageID      string `json:"message_id,omitempty"`
}

type cancelResponse struct {
	Cancelled bool `json:"cancelled"`
}

type messageResponse struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

type messagesResponse struct {
	ConversationID string            `json:"conversation_id,omitempty"`
	Loading        bool              `json:"loading"`
	Messages       []messageResponse `json:"messages"`
}

type conversationResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createConversationRequest struct {
	Title string `json:"title"`
}

type createConversationResponse struct {
	ConversationID string `json:"conversation_id,omitempty"`
}

type chatRequest struct {
	Messages    []domain.ChatMessage      `json:"messages"`
	Personality *domain.PersonalityConfig `json:"personality,omitempty"`
}

type weatherRequest struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

type ttsRequest struct {
	Text string `json:"text"`
}

type settingsResponse struct {
	UserID       string                   `json:"user_id"`
	Personality  domain.PersonalityConfig `json:"personality"`
	VoiceEnabled bool                     `json:"voice_enabled"`
	AutoSpeak    bool                     `json:"auto_speak"`
	SpeechRate   float64                  `json:"speech_rate"`
	Suit         string                   `json:"suit"`
	UpdatedAt    *time.Time               `json:"updated_at,omitempty"`
}

// settingsRequest is a partial update; nil fields keep their current value.
type settingsRequest struct {
	Personality  *domain.PersonalityConfig `json:"personality"`
	VoiceEnabled *bool                     `json:"voice_enabled"`
	AutoSpeak    *bool                     `json:"auto_speak"`
	SpeechRate   *float64                  `json:"speech_rate"`
	Suit         *string                   `json:"suit"`
}

// ─────────────────────────────────────────────
// Conversions
// ─────────────────────────────────────────────

func toSessionResponse(s *conversation.Session) sessionResponse {
	return sessionResponse{
		ID:        string(s.ID),
		UserID:    string(s.UserID),
		Anonymous: s.Anonymous(),
		CreatedAt: s.CreatedAt,
	}
}

func toMessagesResponse(msgs []domain.Message) []messageResponse {
	out := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageResponse{
			ID:             string(m.ID),
			ConversationID: string(m.ConversationID),
			Role:           string(m.Role),
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out
}

func toConversationsResponse(convs []*domain.Conversation) []conversationResponse {
	out := make([]conversationResponse, 0, len(convs))
	for _, c := range convs {
		out = append(out, conversationResponse{
			ID:        string(c.ID),
			Title:     c.Title,
			CreatedAt: c.CreatedAt,
			UpdatedAt: c.UpdatedAt,
		})
	}
	return out
}

func toSettingsResponse(st *domain.UserSettings) settingsResponse {
	resp := settingsResponse{
		UserID:       string(st.UserID),
		Personality:  st.Personality,
		VoiceEnabled: st.VoiceEnabled,
		AutoSpeak:    st.AutoSpeak,
		SpeechRate:   st.SpeechRate,
		Suit:         st.Suit,
	}
	if !st.UpdatedAt.IsZero() {
		t := st.UpdatedAt
		resp.UpdatedAt = &t
	}
	return resp
}

func (req settingsRequest) apply(st *domain.UserSettings) {
	if req.Personality != nil {
		st.Personality = *req.Personality
	}
	if req.VoiceEnabled != nil {
		st.VoiceEnabled = *req.VoiceEnabled
	}
	if req.AutoSpeak != nil {
		st.AutoSpeak = *req.AutoSpeak
	}
	if req.SpeechRate != nil {
		st.SpeechRate = *req.SpeechRate
	}
	if req.Suit != nil {
		st.Suit = *req.Suit
	}
}
