package conversation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/jarvis-hud/internal/app/commands"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

const (
	DefaultPageSize       = 10
	DefaultTitleMaxLength = 50
)

// PersonalityResolver returns the personality to send with a user's turns.
type PersonalityResolver interface {
	Personality(ctx context.Context, userID domain.UserID) domain.PersonalityConfig
}

type Config struct {
	// PageSize caps ListConversations.
	PageSize int
	// TitleMaxLength bounds titles derived from the first user message.
	TitleMaxLength int

	Commands      *commands.Handler
	Personalities PersonalityResolver
}

type Service struct {
	llm           domain.ChatStreamer
	conversations domain.ConversationStore
	messages      domain.MessageStore
	commands      *commands.Handler
	personalities PersonalityResolver

	pageSize int
	titleMax int
	now      func() time.Time
	newID    func() string

	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
}

func NewService(
	llm domain.ChatStreamer,
	conversations domain.ConversationStore,
	messages domain.MessageStore,
	cfg Config,
) *Service {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.TitleMaxLength <= 0 {
		cfg.TitleMaxLength = DefaultTitleMaxLength
	}
	if cfg.Commands == nil {
		cfg.Commands = commands.NewHandler()
	}

	return &Service{
		llm:           llm,
		conversations: conversations,
		messages:      messages,
		commands:      cfg.Commands,
		personalities: cfg.Personalities,
		pageSize:      cfg.PageSize,
		titleMax:      cfg.TitleMaxLength,
		now:           time.Now,
		newID:         uuid.NewString,
		sessions:      make(map[domain.SessionID]*Session),
	}
}

// OpenSession starts a console session. An empty userID opens an
// anonymous session whose transcript lives only in memory.
func (s *Service) OpenSession(ctx context.Context, userID domain.UserID) *Session {
	sess := newSession(domain.SessionID(s.newID()), userID, s.now())

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("session opened",
		"session_id", sess.ID,
		"user_id", userID,
		"anonymous", sess.Anonymous(),
	)
	return sess
}

func (s *Service) Session(id domain.SessionID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}
	return sess, nil
}

// CloseSession drops the session and aborts its in-flight request.
func (s *Service) CloseSession(ctx context.Context, id domain.SessionID) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	sess.mu.Lock()
	sess.supersedeLocked()
	sess.mu.Unlock()

	observability.LoggerFromContext(ctx).Info("session closed", "session_id", id)
	return nil
}

func (s *Service) newMessage(convID domain.ConversationID, role domain.Role, content string) *domain.Message {
	return &domain.Message{
		ID:             domain.MessageID(s.newID()),
		ConversationID: convID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now(),
	}
}
