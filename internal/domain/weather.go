package domain

type WeatherLocation struct {
	City    string `json:"city"`
	Region  string `json:"region"`
	Country string `json:"country"`
}

type WeatherAstronomy struct {
	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	MoonPhase string `json:"moonPhase"`
}

type WeatherForecastDay struct {
	Date      string  `json:"date"`
	MaxTemp   float64 `json:"maxTemp"`
	MinTemp   float64 `json:"minTemp"`
	Condition string  `json:"condition"`
}

// WeatherSnapshot is what the HUD weather panel renders. A non-empty
// Error marks a fallback payload.
type WeatherSnapshot struct {
	Temperature   float64              `json:"temperature"`
	FeelsLike     float64              `json:"feelsLike"`
	Humidity      int                  `json:"humidity"`
	WindSpeed     float64              `json:"windSpeed"`
	WindDirection string               `json:"windDirection"`
	Visibility    float64              `json:"visibility"`
	UVIndex       float64              `json:"uvIndex"`
	Condition     string               `json:"condition"`
	Pressure      float64              `json:"pressure"`
	CloudCover    int                  `json:"cloudCover"`
	Location      WeatherLocation      `json:"location"`
	Astronomy     WeatherAstronomy     `json:"astronomy"`
	Forecast      []WeatherForecastDay `json:"forecast"`
	Error         string               `json:"error,omitempty"`
}
