package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

const titleEllipsis = "..."

// TruncateTitle trims content and cuts it to max runes, appending an
// ellipsis when anything was cut.
func TruncateTitle(content string, max int) string {
	runes := []rune(strings.TrimSpace(content))
	if max <= 0 || len(runes) <= max {
		return string(runes)
	}
	return string(runes[:max]) + titleEllipsis
}

// CreateConversation starts a fresh conversation and empties the in-memory
// log. Anonymous sessions, and sessions whose store write fails, end up
// with no active conversation and an empty id.
func (s *Service) CreateConversation(ctx context.Context, sess *Session, seedTitle string) (domain.ConversationID, error) {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"user_id", sess.UserID,
	)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.resetLocked(nil, nil)
	if sess.Anonymous() {
		log.Info("anonymous session reset")
		return "", nil
	}

	conv, err := s.createDurable(ctx, sess.UserID, seedTitle)
	if err != nil {
		log.Error("failed to create conversation, continuing without persistence", "error", err)
		return "", nil
	}

	sess.active = conv
	log.Info("conversation created", "conversation_id", conv.ID)
	return conv.ID, nil
}

// SaveMessage appends a message to the in-memory log and to the durable log
// of the active conversation.
func (s *Service) SaveMessage(ctx context.Context, sess *Session, role domain.Role, content string) (*domain.Message, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("invalid role %q", role)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	var convID domain.ConversationID
	if sess.active != nil {
		convID = sess.active.ID
	}

	msg := s.newMessage(convID, role, content)
	sess.messages = append(sess.messages, msg)
	s.persistLocked(ctx, sess, msg)

	cp := *msg
	return &cp, nil
}

// persistLocked writes msg to durable storage. A user session with no
// active conversation gets one created on the fly. Failures are logged and
// leave the in-memory state as is.
func (s *Service) persistLocked(ctx context.Context, sess *Session, msg *domain.Message) {
	if sess.Anonymous() {
		return
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"user_id", sess.UserID,
		"role", msg.Role,
	)

	if sess.active == nil {
		conv, err := s.createDurable(ctx, sess.UserID, "")
		if err != nil {
			log.Error("failed to create conversation for message", "error", err)
			return
		}
		sess.active = conv
		sess.userTurns = 0
	}

	msg.ConversationID = sess.active.ID
	if err := s.messages.AppendMessage(ctx, msg); err != nil {
		log.Error("failed to append message", "conversation_id", msg.ConversationID, "error", err)
		return
	}

	conv := *sess.active
	conv.UpdatedAt = s.now()
	if msg.Role == domain.RoleUser && sess.userTurns == 0 {
		conv.Title = TruncateTitle(msg.Content, s.titleMax)
	}

	// The turn only counts once the title it may carry is stored, so a
	// failed update leaves the next user message to name the conversation.
	if err := s.conversations.UpdateConversation(ctx, &conv); err != nil {
		log.Error("failed to update conversation", "conversation_id", conv.ID, "error", err)
		return
	}
	if msg.Role == domain.RoleUser {
		sess.userTurns++
	}
	sess.active = &conv
}

// SwitchConversation loads the durable log of id into the session.
func (s *Service) SwitchConversation(ctx context.Context, sess *Session, id domain.ConversationID) error {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"conversation_id", id,
	)

	conv, err := s.ownedConversation(ctx, sess, id)
	if err != nil {
		return err
	}

	msgs, err := s.messages.GetMessagesByConversation(ctx, id, 0)
	if err != nil {
		log.Error("failed to load messages", "error", err)
		return fmt.Errorf("loading conversation %s: %w", id, err)
	}

	sess.mu.Lock()
	sess.resetLocked(conv, msgs)
	sess.mu.Unlock()

	log.Info("switched conversation", "message_count", len(msgs))
	return nil
}

// DeleteConversation removes a conversation and its messages. Deleting the
// active conversation leaves the session with nothing active.
func (s *Service) DeleteConversation(ctx context.Context, sess *Session, id domain.ConversationID) error {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"conversation_id", id,
	)

	if _, err := s.ownedConversation(ctx, sess, id); err != nil {
		return err
	}

	// The conversation row goes first: if it cannot be removed the
	// transcript stays intact. Messages left behind by a failure after that
	// point are unreachable and only logged.
	if err := s.conversations.DeleteConversation(ctx, id); err != nil {
		log.Error("failed to delete conversation", "error", err)
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	if err := s.messages.DeleteMessagesByConversation(ctx, id); err != nil {
		log.Error("failed to delete messages of deleted conversation", "error", err)
	}

	sess.mu.Lock()
	wasActive := sess.active != nil && sess.active.ID == id
	if wasActive {
		sess.resetLocked(nil, nil)
	}
	sess.mu.Unlock()

	log.Info("conversation deleted", "was_active", wasActive)
	return nil
}

// ListConversations returns the user's most recently updated conversations,
// never more than the configured page size.
func (s *Service) ListConversations(ctx context.Context, sess *Session) ([]*domain.Conversation, error) {
	if sess.Anonymous() {
		return []*domain.Conversation{}, nil
	}

	convs, err := s.conversations.ListConversationsByUser(ctx, sess.UserID, s.pageSize)
	if err != nil {
		observability.LoggerFromContext(ctx).Error("failed to list conversations",
			"session_id", sess.ID,
			"error", err,
		)
		return nil, err
	}

	if len(convs) > s.pageSize {
		convs = convs[:s.pageSize]
	}
	return convs, nil
}

func (s *Service) createDurable(ctx context.Context, userID domain.UserID, seedTitle string) (*domain.Conversation, error) {
	now := s.now()
	conv := &domain.Conversation{
		ID:        domain.ConversationID(s.newID()),
		UserID:    userID,
		Title:     TruncateTitle(seedTitle, s.titleMax),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.conversations.CreateConversation(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// ownedConversation fetches id and hides conversations of other users.
func (s *Service) ownedConversation(ctx context.Context, sess *Session, id domain.ConversationID) (*domain.Conversation, error) {
	if sess.Anonymous() {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}

	conv, err := s.conversations.GetConversation(ctx, id)
	if err != nil {
		return nil, err
	}
	if conv.UserID != sess.UserID {
		return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return conv, nil
}
