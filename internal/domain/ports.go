package domain

import (
	"context"
	"io"
)

// ChatStreamer streams an assistant reply for one conversation turn.
// The returned channel is closed after a chunk with Done set.
type ChatStreamer interface {
	StreamChat(ctx context.Context, req ChatRequest) (<-chan ChatChunk, error)
}

// ConversationStore defines conversation persistence.
type ConversationStore interface {
	CreateConversation(ctx context.Context, conv *Conversation) error
	UpdateConversation(ctx context.Context, conv *Conversation) error
	GetConversation(ctx context.Context, id ConversationID) (*Conversation, error)
	// ListConversationsByUser returns conversations sorted by UpdatedAt descending.
	ListConversationsByUser(ctx context.Context, userID UserID, limit int) ([]*Conversation, error)
	DeleteConversation(ctx context.Context, id ConversationID) error
}

// MessageStore defines message persistence.
type MessageStore interface {
	AppendMessage(ctx context.Context, msg *Message) error
	// GetMessagesByConversation returns messages in creation order.
	GetMessagesByConversation(ctx context.Context, id ConversationID, limit int) ([]*Message, error)
	DeleteMessagesByConversation(ctx context.Context, id ConversationID) error
}

// SettingsStore defines user settings persistence.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID UserID) (*UserSettings, error)
	SaveSettings(ctx context.Context, settings *UserSettings) error
}

// SpeechInput turns recorded audio into text.
type SpeechInput interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// SpeechOutput turns assistant text into audio.
type SpeechOutput interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}

// WeatherProvider fetches a live weather snapshot.
type WeatherProvider interface {
	Current(ctx context.Context, city, country string) (*WeatherSnapshot, error)
}
