package weather

import (
	"context"
	"errors"
	"strings"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

const (
	DefaultCity    = "Malappuram"
	DefaultCountry = "IN"
)

var errNoProvider = errors.New("weather provider not configured")

// Service answers weather lookups for the HUD panel. It never fails: when
// the provider is missing or errors, a fixed fallback snapshot is returned
// with Error set.
type Service struct {
	provider domain.WeatherProvider
}

// NewService accepts a nil provider; every lookup then returns the fallback.
func NewService(provider domain.WeatherProvider) *Service {
	return &Service{provider: provider}
}

func (s *Service) Lookup(ctx context.Context, city, country string) domain.WeatherSnapshot {
	if strings.TrimSpace(city) == "" {
		city = DefaultCity
	}
	if strings.TrimSpace(country) == "" {
		country = DefaultCountry
	}

	log := observability.LoggerFromContext(ctx).With("city", city, "country", country)

	if s.provider == nil {
		return Fallback(errNoProvider)
	}

	snap, err := s.provider.Current(ctx, city, country)
	if err != nil {
		log.Warn("weather lookup failed, serving fallback", "error", err)
		return Fallback(err)
	}
	if snap.Forecast == nil {
		snap.Forecast = []domain.WeatherForecastDay{}
	}

	log.Debug("weather lookup", "condition", snap.Condition)
	return *snap
}

// Fallback is the static snapshot served when live data is unavailable.
func Fallback(err error) domain.WeatherSnapshot {
	msg := "Failed to fetch weather"
	if err != nil {
		msg = err.Error()
	}
	return domain.WeatherSnapshot{
		Temperature: 28,
		Humidity:    65,
		Condition:   "Partly Cloudy",
		Location:    domain.WeatherLocation{City: "Malappuram", Country: "India"},
		Forecast:    []domain.WeatherForecastDay{},
		Error:       msg,
	}
}
