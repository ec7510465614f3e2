package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

type Mode string

const (
	ModeLocal Mode = "local"
	ModeGCP   Mode = "gcp"
)

const (
	DefaultConversationPageSize = 10
	DefaultTitleMaxLength       = 50
)

type Config struct {
	Mode Mode

	Port string

	LLMBackend string // "mock", "openai", "vertex" or "endpoint"

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GCPProjectID string
	GCPLocation  string
	ModelName    string

	ChatEndpointURL string

	StorageBackend string // "memory", "firestore" or "postgres"
	DatabaseURL    string

	WeatherAPIKey  string
	WeatherBaseURL string

	SpeechBackend string // "none" or "openai"

	ConversationPageSize int
	TitleMaxLength       int

	AllowedOrigins []string

	LogLevel string
	LogFile  string

	Personality domain.PersonalityConfig
}

// fileConfig is the optional YAML overlay. Environment variables win over it.
type fileConfig struct {
	AllowedOrigins       []string                  `yaml:"allowed_origins"`
	ConversationPageSize int                       `yaml:"conversation_page_size"`
	TitleMaxLength       int                       `yaml:"title_max_length"`
	Personality          *domain.PersonalityConfig `yaml:"personality"`
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// Load reads the optional YAML overlay and all env vars and builds the config.
func Load() (*Config, error) {
	modeStr := getEnv("JARVIS_MODE", "local")
	var mode Mode
	switch modeStr {
	case "gcp":
		mode = ModeGCP
	default:
		mode = ModeLocal
	}

	cfg := &Config{
		Mode: mode,

		Port: getEnv("JARVIS_PORT", getEnv("PORT", "8080")),

		OpenAIAPIKey:  getEnv("JARVIS_OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("JARVIS_OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("JARVIS_OPENAI_MODEL", "gpt-4o-mini"),

		GCPProjectID: getEnv("JARVIS_GCP_PROJECT", ""),
		GCPLocation:  getEnv("JARVIS_GCP_LOCATION", "us-central1"),
		ModelName:    getEnv("JARVIS_MODEL_NAME", "gemini-2.5-flash"),

		ChatEndpointURL: getEnv("JARVIS_CHAT_ENDPOINT", ""),

		StorageBackend: getEnv("JARVIS_STORAGE_BACKEND", "memory"),
		DatabaseURL:    getEnv("JARVIS_DATABASE_URL", ""),

		WeatherAPIKey:  getEnv("JARVIS_WEATHER_API_KEY", ""),
		WeatherBaseURL: getEnv("JARVIS_WEATHER_BASE_URL", "https://api.weatherapi.com/v1"),

		SpeechBackend: getEnv("JARVIS_SPEECH_BACKEND", "none"),

		ConversationPageSize: DefaultConversationPageSize,
		TitleMaxLength:       DefaultTitleMaxLength,

		AllowedOrigins: []string{"*"},

		LogLevel: getEnv("JARVIS_LOG_LEVEL", "info"),
		LogFile:  getEnv("JARVIS_LOG_FILE", ""),

		Personality: domain.DefaultPersonality(),
	}

	if path := getEnv("JARVIS_CONFIG_FILE", ""); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ConversationPageSize = getIntEnv("JARVIS_CONVERSATION_PAGE_SIZE", cfg.ConversationPageSize)
	cfg.TitleMaxLength = getIntEnv("JARVIS_TITLE_MAX_LENGTH", cfg.TitleMaxLength)
	if origins := getEnv("JARVIS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = splitList(origins)
	}

	useMock := getBoolEnv("JARVIS_USE_MOCK_LLM", mode == ModeLocal && cfg.OpenAIAPIKey == "")
	cfg.LLMBackend = getEnv("JARVIS_LLM_BACKEND", defaultLLMBackend(mode, useMock))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultLLMBackend(mode Mode, useMock bool) string {
	switch {
	case useMock:
		return "mock"
	case mode == ModeGCP:
		return "vertex"
	default:
		return "openai"
	}
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if len(fc.AllowedOrigins) > 0 {
		c.AllowedOrigins = fc.AllowedOrigins
	}
	if fc.ConversationPageSize > 0 {
		c.ConversationPageSize = fc.ConversationPageSize
	}
	if fc.TitleMaxLength > 0 {
		c.TitleMaxLength = fc.TitleMaxLength
	}
	if fc.Personality != nil {
		c.Personality = fc.Personality.Normalized()
	}
	return nil
}

func (c *Config) validate() error {
	switch c.LLMBackend {
	case "mock":
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("JARVIS_OPENAI_API_KEY must be set for the openai backend")
		}
	case "vertex":
		if c.GCPProjectID == "" {
			return fmt.Errorf("JARVIS_GCP_PROJECT must be set for the vertex backend")
		}
	case "endpoint":
		if c.ChatEndpointURL == "" {
			return fmt.Errorf("JARVIS_CHAT_ENDPOINT must be set for the endpoint backend")
		}
	default:
		return fmt.Errorf("unknown llm backend %q", c.LLMBackend)
	}

	switch c.StorageBackend {
	case "memory":
	case "firestore":
		if c.GCPProjectID == "" {
			return fmt.Errorf("JARVIS_GCP_PROJECT is required for Firestore storage backend")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("JARVIS_DATABASE_URL is required for postgres storage backend")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.StorageBackend)
	}

	// Minimal validation in GCP mode
	if c.Mode == ModeGCP && c.GCPProjectID == "" {
		return fmt.Errorf("JARVIS_GCP_PROJECT must be set in gcp mode")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
