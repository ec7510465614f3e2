package conversation

import (
	"context"
	"errors"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

var (
	ErrEmptyInput = errors.New("input is empty")
	// ErrSuperseded is returned by Send when the conversation was switched,
	// created or deleted while the reply was streaming.
	ErrSuperseded = errors.New("request superseded by a conversation change")
)

// UserMessage maps a dispatch error to the text shown in the console.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrRateLimited):
		return "Rate limit exceeded, sir. Give my servers a moment to cool down and try again."
	case errors.Is(err, domain.ErrQuotaExhausted):
		return "My AI credits are exhausted. Please top up the account to restore full functionality."
	case errors.Is(err, domain.ErrBusy):
		return "One moment, sir. I'm still working on your previous request."
	case errors.Is(err, ErrEmptyInput):
		return "I didn't catch that. Could you repeat the command?"
	case errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		return "Request cancelled."
	default:
		return "My apologies, sir. I'm having trouble connecting to my servers right now."
	}
}

// ErrorKind is a stable machine-readable name for a dispatch error.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, domain.ErrQuotaExhausted):
		return "quota_exhausted"
	case errors.Is(err, domain.ErrBusy):
		return "busy"
	case errors.Is(err, ErrEmptyInput):
		return "empty_input"
	case errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "upstream"
	}
}
