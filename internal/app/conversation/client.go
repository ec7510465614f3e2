package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

// Send runs one remote conversation turn. The user message is appended to
// the transcript, the full history is streamed to the backend and every
// chunk is concatenated onto a single assistant message. onDelta, if set,
// sees each chunk as it is applied.
//
// Only one Send may be in flight per session; a second one fails with
// domain.ErrBusy. When the backend rejects the request the transcript is
// rolled back. When the stream fails mid-way the user message and any
// assistant text received so far are kept and the error is returned along
// with the partial message.
func (s *Service) Send(
	ctx context.Context,
	sess *Session,
	text string,
	personality domain.PersonalityConfig,
	onDelta func(string),
) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	log := observability.LoggerFromContext(ctx).With(
		"session_id", sess.ID,
		"user_id", sess.UserID,
	)

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Writes outlive a cancelled turn so the partial transcript is kept.
	persistCtx := context.WithoutCancel(ctx)

	// Admission and user message.
	sess.mu.Lock()
	if sess.turn != nil {
		sess.mu.Unlock()
		return nil, domain.ErrBusy
	}
	sess.turnSeq++
	t := &turn{id: sess.turnSeq, cancel: cancel}
	sess.turn = t

	var convID domain.ConversationID
	if sess.active != nil {
		convID = sess.active.ID
	}
	prevLen := len(sess.messages)
	userMsg := s.newMessage(convID, domain.RoleUser, text)
	sess.messages = append(sess.messages, userMsg)
	history := make([]*domain.Message, len(sess.messages))
	copy(history, sess.messages)
	sess.mu.Unlock()

	defer func() {
		sess.mu.Lock()
		if sess.currentLocked(t) {
			sess.turn = nil
		}
		sess.mu.Unlock()
	}()

	log.Info("sending turn", "turn", t.id, "history_len", len(history))

	ch, err := s.llm.StreamChat(turnCtx, domain.ChatRequest{
		Messages:    domain.ToChatMessages(history),
		Personality: personality,
	})
	if err != nil {
		sess.mu.Lock()
		if sess.currentLocked(t) {
			sess.messages = sess.messages[:prevLen]
		}
		sess.mu.Unlock()

		log.Warn("backend rejected turn", "turn", t.id, "error", err)
		return nil, err
	}

	// Accepted: persist the user message and open the assistant message.
	sess.mu.Lock()
	if !sess.currentLocked(t) {
		sess.mu.Unlock()
		return nil, ErrSuperseded
	}
	s.persistLocked(persistCtx, sess, userMsg)
	assistant := s.newMessage(userMsg.ConversationID, domain.RoleAssistant, "")
	sess.messages = append(sess.messages, assistant)
	sess.mu.Unlock()

	streamErr := s.consume(turnCtx, sess, t, assistant, ch, onDelta)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if !sess.currentLocked(t) {
		log.Info("turn superseded", "turn", t.id)
		return nil, ErrSuperseded
	}

	if streamErr != nil && assistant.Content == "" {
		sess.messages = sess.messages[:len(sess.messages)-1]
		log.Warn("stream failed before any text", "turn", t.id, "error", streamErr)
		return nil, streamErr
	}

	// Partial replies are kept: the transcript stays intact up to what arrived.
	s.persistLocked(persistCtx, sess, assistant)
	cp := *assistant

	if streamErr != nil {
		log.Warn("stream ended early", "turn", t.id, "chars", len(assistant.Content), "error", streamErr)
		return &cp, streamErr
	}

	log.Info("turn completed", "turn", t.id, "chars", len(assistant.Content))
	return &cp, nil
}

// consume applies chunks to the assistant message until the stream ends,
// fails or the turn is superseded.
func (s *Service) consume(
	ctx context.Context,
	sess *Session,
	t *turn,
	assistant *domain.Message,
	ch <-chan domain.ChatChunk,
	onDelta func(string),
) error {
	for {
		select {
		case chunk, ok := <-ch:
			if !ok {
				if err := ctx.Err(); err != nil {
					return err
				}
				return fmt.Errorf("stream closed early: %w", domain.ErrUpstream)
			}

			if chunk.Delta != "" {
				sess.mu.Lock()
				if !sess.currentLocked(t) {
					sess.mu.Unlock()
					return ErrSuperseded
				}
				assistant.Content += chunk.Delta
				sess.mu.Unlock()

				if onDelta != nil {
					onDelta(chunk.Delta)
				}
			}

			if chunk.Done {
				return chunk.Err
			}

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Cancel aborts the in-flight remote request of sess, if any. Text that
// already arrived stays in the transcript.
func (s *Service) Cancel(sess *Session) bool {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.turn == nil {
		return false
	}
	sess.turn.cancel()
	return true
}
