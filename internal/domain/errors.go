package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrBusy              = errors.New("a request is already in flight")
	ErrRateLimited       = errors.New("upstream rate limit exceeded")
	ErrQuotaExhausted    = errors.New("upstream quota exhausted")
	ErrUpstream          = errors.New("upstream failure")
	ErrSpeechUnsupported = errors.New("speech capability not available")
)

// UpstreamError describes a chat backend failure. Kind is one of
// ErrRateLimited, ErrQuotaExhausted or ErrUpstream.
type UpstreamError struct {
	Kind    error
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v (status %d)", e.Kind, e.Status)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Kind
}

// UpstreamErrorFromStatus classifies a non-200 backend status.
// 429 is rate limiting and 402 is exhausted credits.
func UpstreamErrorFromStatus(status int, message string) *UpstreamError {
	kind := ErrUpstream
	switch status {
	case 429:
		kind = ErrRateLimited
	case 402:
		kind = ErrQuotaExhausted
	}
	return &UpstreamError{Kind: kind, Status: status, Message: message}
}
