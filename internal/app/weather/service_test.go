package weather_test

import (
	"context"
	"errors"
	"testing"

	"github.com/PabloGalante/jarvis-hud/internal/app/weather"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

type stubProvider struct {
	city, country string
	snap          *domain.WeatherSnapshot
	err           error
}

func (p *stubProvider) Current(_ context.Context, city, country string) (*domain.WeatherSnapshot, error) {
	p.city, p.country = city, country
	return p.snap, p.err
}

func TestLookupReturnsLiveSnapshot(t *testing.T) {
	p := &stubProvider{snap: &domain.WeatherSnapshot{Temperature: 19, Condition: "Overcast"}}
	svc := weather.NewService(p)

	got := svc.Lookup(context.Background(), "", "")
	if got.Condition != "Overcast" || got.Error != "" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if p.city != weather.DefaultCity || p.country != weather.DefaultCountry {
		t.Fatalf("expected default location, got %s,%s", p.city, p.country)
	}
	if got.Forecast == nil {
		t.Fatalf("forecast must encode as an empty list, not null")
	}
}

func TestLookupFallsBackOnFailure(t *testing.T) {
	svc := weather.NewService(&stubProvider{err: errors.New("weather api error: status 503")})

	got := svc.Lookup(context.Background(), "London", "UK")
	if got.Error == "" {
		t.Fatalf("expected fallback error to be set")
	}
	if got.Temperature != 28 || got.Humidity != 65 || got.Condition != "Partly Cloudy" {
		t.Fatalf("unexpected fallback %+v", got)
	}
}

func TestLookupWithoutProvider(t *testing.T) {
	got := weather.NewService(nil).Lookup(context.Background(), "Paris", "FR")
	if got.Error == "" || got.Location.City != "Malappuram" {
		t.Fatalf("expected fallback snapshot, got %+v", got)
	}
}
