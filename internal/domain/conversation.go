package domain

// Message is one entry of a conversation transcript (user or assistant).
type Message struct {
	ID             MessageID
	ConversationID ConversationID
	Role           Role
	Content        string
	CreatedAt      Timestamp
}

// Conversation is a durable, user-owned ordered log of messages.
type Conversation struct {
	ID        ConversationID
	UserID    UserID
	Title     string
	CreatedAt Timestamp
	UpdatedAt Timestamp
}

// ChatMessage is the wire shape of a message sent to a chat backend.
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is one conversation turn sent to a chat backend.
type ChatRequest struct {
	Messages    []ChatMessage     `json:"messages"`
	Personality PersonalityConfig `json:"personality"`
}

// ChatChunk is an incremental piece of a streamed assistant reply.
// Err is set on the last chunk when the stream failed mid-way.
type ChatChunk struct {
	Delta string
	Done  bool
	Err   error
}

// ToChatMessages converts a transcript into its wire shape.
func ToChatMessages(msgs []*Message) []ChatMessage {
	out := make([]ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}
