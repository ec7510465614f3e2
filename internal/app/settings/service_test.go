package settings_test

import (
	"context"
	"errors"
	"testing"

	"github.com/PabloGalante/jarvis-hud/internal/adapters/storage/memory"
	"github.com/PabloGalante/jarvis-hud/internal/app/settings"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

type failingStore struct{}

func (failingStore) GetSettings(context.Context, domain.UserID) (*domain.UserSettings, error) {
	return nil, errors.New("store offline")
}

func (failingStore) SaveSettings(context.Context, *domain.UserSettings) error {
	return errors.New("store offline")
}

func TestGetReturnsDefaultsForUnknownUser(t *testing.T) {
	svc := settings.NewService(memory.NewSettingsStore(), domain.DefaultPersonality())

	st, err := svc.Get(context.Background(), "tony")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if st.Personality != domain.DefaultPersonality() || st.SpeechRate != domain.DefaultSpeechRate {
		t.Fatalf("expected defaults, got %+v", st)
	}
}

func TestUpdateNormalizesAndPersists(t *testing.T) {
	ctx := context.Background()
	svc := settings.NewService(memory.NewSettingsStore(), domain.DefaultPersonality())

	in := domain.DefaultSettings("tony")
	in.Personality.Wit = 400
	in.Personality.AddressStyle = "your majesty"
	in.SpeechRate = 9

	out, err := svc.Update(ctx, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if out.Personality.Wit != 100 || out.Personality.AddressStyle != domain.AddressSir || out.SpeechRate != domain.MaxSpeechRate {
		t.Fatalf("expected normalized settings, got %+v", out)
	}
	if out.UpdatedAt.IsZero() {
		t.Fatalf("expected UpdatedAt to be set")
	}

	if p := svc.Personality(ctx, "tony"); p.Wit != 100 {
		t.Fatalf("expected stored personality, got %+v", p)
	}

	if _, err := svc.Update(ctx, &domain.UserSettings{}); err == nil {
		t.Fatalf("expected error without user id")
	}
}

func TestPersonalityFallsBackOnStoreFailure(t *testing.T) {
	defaults := domain.DefaultPersonality()
	defaults.Wit = 5

	svc := settings.NewService(failingStore{}, defaults)
	if p := svc.Personality(context.Background(), "tony"); p.Wit != 5 {
		t.Fatalf("expected configured defaults, got %+v", p)
	}
	if p := svc.Personality(context.Background(), ""); p.Wit != 5 {
		t.Fatalf("expected defaults for anonymous users, got %+v", p)
	}
}
