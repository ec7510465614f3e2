package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// SettingsStore is a simple in-memory implementation of domain.SettingsStore.
// It is NOT persistent and is only suitable for development / local mode.
type SettingsStore struct {
	mu       sync.RWMutex
	settings map[domain.UserID]*domain.UserSettings
}

func NewSettingsStore() *SettingsStore {
	return &SettingsStore{
		settings: make(map[domain.UserID]*domain.UserSettings),
	}
}

func (s *SettingsStore) GetSettings(_ context.Context, userID domain.UserID) (*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[userID]
	if !ok {
		return nil, fmt.Errorf("settings for %s: %w", userID, domain.ErrNotFound)
	}

	cp := *st
	return &cp, nil
}

func (s *SettingsStore) SaveSettings(_ context.Context, settings *domain.UserSettings) error {
	if settings == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *settings
	s.settings[settings.UserID] = &cp
	return nil
}
