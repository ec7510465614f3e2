package conversation

import (
	"context"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

// DispatchResult is the outcome of one console input.
type DispatchResult struct {
	// Local is set when a local command answered without any backend call.
	Local    bool
	Response string
	Action   *domain.Action
	// Message is the assistant message of a remote turn.
	Message *domain.Message
}

// Dispatch routes input to the local command handler first and falls
// through to the remote backend when no intent matches. Local exchanges are
// answered directly and do not enter the transcript.
func (s *Service) Dispatch(ctx context.Context, sess *Session, input string, onDelta func(string)) (*DispatchResult, error) {
	local := s.commands.WithEffects(sess).Execute(input)
	if local.Handled {
		observability.LoggerFromContext(ctx).Info("local command handled",
			"session_id", sess.ID,
			"action", actionKind(local.Action),
		)
		return &DispatchResult{
			Local:    true,
			Response: local.Response,
			Action:   local.Action,
		}, nil
	}

	msg, err := s.Send(ctx, sess, input, s.personality(ctx, sess), onDelta)
	res := &DispatchResult{Message: msg}
	if msg != nil {
		res.Response = msg.Content
	}
	return res, err
}

func (s *Service) personality(ctx context.Context, sess *Session) domain.PersonalityConfig {
	if s.personalities == nil {
		return domain.DefaultPersonality()
	}
	return s.personalities.Personality(ctx, sess.UserID)
}

func actionKind(a *domain.Action) string {
	if a == nil {
		return ""
	}
	return string(a.Kind)
}
