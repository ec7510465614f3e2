package settings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

// Service holds the logic of reading and updating user settings.
type Service struct {
	store    domain.SettingsStore
	defaults domain.PersonalityConfig
	now      func() time.Time
}

// NewService creates a settings service. defaults is the personality
// returned for users with nothing stored.
func NewService(store domain.SettingsStore, defaults domain.PersonalityConfig) *Service {
	return &Service{
		store:    store,
		defaults: defaults.Normalized(),
		now:      time.Now,
	}
}

func (s *Service) defaultSettings(userID domain.UserID) *domain.UserSettings {
	st := domain.DefaultSettings(userID)
	st.Personality = s.defaults
	return st
}

// Get returns the stored settings for a user, or the defaults when none
// are stored yet.
func (s *Service) Get(ctx context.Context, userID domain.UserID) (*domain.UserSettings, error) {
	if s.store == nil || userID == "" {
		return s.defaultSettings(userID), nil
	}

	st, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return s.defaultSettings(userID), nil
		}
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	st.Normalize()
	return st, nil
}

// Update normalizes and stores settings.
func (s *Service) Update(ctx context.Context, st *domain.UserSettings) (*domain.UserSettings, error) {
	if st == nil || st.UserID == "" {
		return nil, fmt.Errorf("settings require a user id")
	}

	cp := *st
	cp.Normalize()
	cp.UpdatedAt = s.now()

	if s.store != nil {
		if err := s.store.SaveSettings(ctx, &cp); err != nil {
			return nil, fmt.Errorf("saving settings: %w", err)
		}
	}

	observability.LoggerFromContext(ctx).Info("settings updated", "user_id", cp.UserID)
	return &cp, nil
}

// Personality resolves the personality sent with a user's remote turns.
// Store failures fall back to the defaults.
func (s *Service) Personality(ctx context.Context, userID domain.UserID) domain.PersonalityConfig {
	st, err := s.Get(ctx, userID)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn("using default personality", "user_id", userID, "error", err)
		return s.defaults
	}
	return st.Personality
}
