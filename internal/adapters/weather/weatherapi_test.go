package weather_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PabloGalante/jarvis-hud/internal/adapters/weather"
)

const forecastJSON = `{
  "location": {"name": "Kochi", "region": "Kerala", "country": "India"},
  "current": {
    "temp_c": 31.2, "feelslike_c": 36.5, "humidity": 70, "wind_kph": 14.4,
    "wind_dir": "WSW", "vis_km": 8, "uv": 7, "pressure_mb": 1009, "cloud": 40,
    "condition": {"text": "Partly cloudy"}
  },
  "forecast": {"forecastday": [
    {"date": "2024-06-01", "day": {"maxtemp_c": 32, "mintemp_c": 25, "condition": {"text": "Patchy rain"}},
     "astro": {"sunrise": "06:01 AM", "sunset": "06:45 PM", "moon_phase": "Waning Crescent"}},
    {"date": "2024-06-02", "day": {"maxtemp_c": 31, "mintemp_c": 24, "condition": {"text": "Moderate rain"}},
     "astro": {"sunrise": "06:01 AM", "sunset": "06:46 PM", "moon_phase": "New Moon"}}
  ]}
}`

func TestClientMapsForecast(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/forecast.json" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotKey = r.URL.Query().Get("key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastJSON))
	}))
	defer srv.Close()

	c, err := weather.NewClient(srv.URL+"/", "secret", srv.Client())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	snap, err := c.Current(context.Background(), "Kochi", "IN")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}

	if gotQuery != "Kochi,IN" || gotKey != "secret" {
		t.Fatalf("unexpected query q=%q key=%q", gotQuery, gotKey)
	}
	if snap.Temperature != 31.2 || snap.Humidity != 70 || snap.WindDirection != "WSW" {
		t.Fatalf("unexpected current conditions %+v", snap)
	}
	if snap.Location.City != "Kochi" || snap.Location.Region != "Kerala" {
		t.Fatalf("unexpected location %+v", snap.Location)
	}
	if snap.Astronomy.MoonPhase != "Waning Crescent" {
		t.Fatalf("expected astronomy from first day, got %+v", snap.Astronomy)
	}
	if len(snap.Forecast) != 2 || snap.Forecast[1].Condition != "Moderate rain" {
		t.Fatalf("unexpected forecast %+v", snap.Forecast)
	}
	if snap.Error != "" {
		t.Fatalf("live snapshot must not carry an error")
	}
}

func TestClientReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":1006,"message":"No matching location found."}}`))
	}))
	defer srv.Close()

	c, _ := weather.NewClient(srv.URL, "secret", srv.Client())
	_, err := c.Current(context.Background(), "Atlantis", "")
	if err == nil || !strings.Contains(err.Error(), "No matching location") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := weather.NewClient("https://api.weatherapi.com/v1", "", nil); err == nil {
		t.Fatalf("expected error without api key")
	}
}
