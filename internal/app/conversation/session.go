package conversation

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// Session is the per-console state the dispatch core works on: the active
// conversation pointer, the in-memory transcript, the admission flag of the
// remote client and the queue of UI actions emitted by local commands.
//
// A session without a UserID is anonymous and never touches durable storage.
type Session struct {
	ID        domain.SessionID
	UserID    domain.UserID
	CreatedAt time.Time

	mu        sync.Mutex
	active    *domain.Conversation
	messages  []*domain.Message
	userTurns int // persisted user messages in the active conversation
	turn      *turn
	turnSeq   uint64
	actions   []domain.Action
}

// turn is the token of the single in-flight remote request.
type turn struct {
	id     uint64
	cancel context.CancelFunc
}

func newSession(id domain.SessionID, userID domain.UserID, now time.Time) *Session {
	return &Session{ID: id, UserID: userID, CreatedAt: now}
}

func (s *Session) Anonymous() bool {
	return s.UserID == ""
}

// ActiveConversation returns the active conversation id, or "" when none.
func (s *Session) ActiveConversation() domain.ConversationID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return ""
	}
	return s.active.ID
}

// Messages returns a snapshot of the in-memory transcript.
func (s *Session) Messages() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Message, 0, len(s.messages))
	for _, m := range s.messages {
		out = append(out, *m)
	}
	return out
}

// Loading reports whether a remote request is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turn != nil
}

// Emit queues a UI action. It makes Session a commands.Effects sink.
func (s *Session) Emit(action domain.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, action)
}

// DrainActions returns and clears the queued UI actions.
func (s *Session) DrainActions() []domain.Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.actions
	s.actions = nil
	return out
}

// supersedeLocked cancels the in-flight turn, if any. Chunks that arrive
// for it afterwards are dropped.
func (s *Session) supersedeLocked() {
	if s.turn != nil {
		s.turn.cancel()
		s.turn = nil
	}
}

// resetLocked points the session at conv (or nothing) with the given log.
func (s *Session) resetLocked(conv *domain.Conversation, msgs []*domain.Message) {
	s.supersedeLocked()
	s.active = conv
	s.messages = msgs
	s.userTurns = 0
	for _, m := range msgs {
		if m.Role == domain.RoleUser {
			s.userTurns++
		}
	}
}

func (s *Session) currentLocked(t *turn) bool {
	return s.turn == t
}
