package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

const forecastDays = 3

// Client talks to a WeatherAPI.com compatible forecast.json endpoint.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("weather base url is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("weather api key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    httpClient,
	}, nil
}

type conditionDTO struct {
	Text string `json:"text"`
}

type forecastResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC      float64      `json:"temp_c"`
		FeelsLikeC float64      `json:"feelslike_c"`
		Humidity   int          `json:"humidity"`
		WindKph    float64      `json:"wind_kph"`
		WindDir    string       `json:"wind_dir"`
		VisKm      float64      `json:"vis_km"`
		UV         float64      `json:"uv"`
		PressureMb float64      `json:"pressure_mb"`
		Cloud      int          `json:"cloud"`
		Condition  conditionDTO `json:"condition"`
	} `json:"current"`
	Forecast struct {
		Days []struct {
			Date string `json:"date"`
			Day  struct {
				MaxTempC  float64      `json:"maxtemp_c"`
				MinTempC  float64      `json:"mintemp_c"`
				Condition conditionDTO `json:"condition"`
			} `json:"day"`
			Astro struct {
				Sunrise   string `json:"sunrise"`
				Sunset    string `json:"sunset"`
				MoonPhase string `json:"moon_phase"`
			} `json:"astro"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Current fetches current conditions and a three day forecast.
func (c *Client) Current(ctx context.Context, city, country string) (*domain.WeatherSnapshot, error) {
	q := url.Values{}
	q.Set("key", c.apiKey)
	q.Set("q", query(city, country))
	q.Set("days", fmt.Sprint(forecastDays))
	q.Set("aqi", "no")
	q.Set("alerts", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast.json?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building weather request: %w", err)
	}
	req.Header.Set("User-Agent", "JARVIS-HUD/1.0")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading weather response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(body, &e) == nil && e.Error.Message != "" {
			return nil, fmt.Errorf("weather api error %d: %s", resp.StatusCode, e.Error.Message)
		}
		return nil, fmt.Errorf("weather api error: status %d", resp.StatusCode)
	}

	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("decoding weather response: %w", err)
	}
	return toSnapshot(&fr, city, country), nil
}

func query(city, country string) string {
	city, country = strings.TrimSpace(city), strings.TrimSpace(country)
	if country == "" {
		return city
	}
	return city + "," + country
}

func toSnapshot(fr *forecastResponse, city, country string) *domain.WeatherSnapshot {
	cur := fr.Current
	snap := &domain.WeatherSnapshot{
		Temperature:   cur.TempC,
		FeelsLike:     cur.FeelsLikeC,
		Humidity:      cur.Humidity,
		WindSpeed:     cur.WindKph,
		WindDirection: cur.WindDir,
		Visibility:    cur.VisKm,
		UVIndex:       cur.UV,
		Condition:     orDefault(cur.Condition.Text, "Unknown"),
		Pressure:      cur.PressureMb,
		CloudCover:    cur.Cloud,
		Location: domain.WeatherLocation{
			City:    orDefault(fr.Location.Name, city),
			Region:  fr.Location.Region,
			Country: orDefault(fr.Location.Country, country),
		},
		Forecast: make([]domain.WeatherForecastDay, 0, forecastDays),
	}

	for i, d := range fr.Forecast.Days {
		if i == 0 {
			snap.Astronomy = domain.WeatherAstronomy{
				Sunrise:   d.Astro.Sunrise,
				Sunset:    d.Astro.Sunset,
				MoonPhase: d.Astro.MoonPhase,
			}
		}
		if i >= forecastDays {
			break
		}
		snap.Forecast = append(snap.Forecast, domain.WeatherForecastDay{
			Date:      d.Date,
			MaxTemp:   d.Day.MaxTempC,
			MinTemp:   d.Day.MinTempC,
			Condition: orDefault(d.Day.Condition.Text, "Unknown"),
		})
	}
	return snap
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
