package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/PabloGalante/jarvis-hud/internal/adapters/http"
	"github.com/PabloGalante/jarvis-hud/internal/adapters/llm"
	"github.com/PabloGalante/jarvis-hud/internal/adapters/speech"
	firestorestore "github.com/PabloGalante/jarvis-hud/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/jarvis-hud/internal/adapters/storage/memory"
	"github.com/PabloGalante/jarvis-hud/internal/adapters/storage/sqlstore"
	weatherapi "github.com/PabloGalante/jarvis-hud/internal/adapters/weather"
	"github.com/PabloGalante/jarvis-hud/internal/app/commands"
	"github.com/PabloGalante/jarvis-hud/internal/app/conversation"
	"github.com/PabloGalante/jarvis-hud/internal/app/settings"
	"github.com/PabloGalante/jarvis-hud/internal/app/weather"
	"github.com/PabloGalante/jarvis-hud/internal/config"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
	"github.com/PabloGalante/jarvis-hud/internal/observability"
)

type stores struct {
	conversations domain.ConversationStore
	messages      domain.MessageStore
	settings      domain.SettingsStore
	closer        io.Closer
}

func main() {
	if err := run(); err != nil {
		observability.Logger().Error("jarvis api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logCloser := observability.Configure(observability.LogOptions{Level: cfg.LogLevel, File: cfg.LogFile})
	defer logCloser.Close()
	log := observability.WithFields("service", "jarvis-api", "mode", cfg.Mode)

	chat, err := newChatStreamer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing %s llm client: %w", cfg.LLMBackend, err)
	}
	log.Info("llm backend ready", "backend", cfg.LLMBackend)

	st, err := newStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing %s storage: %w", cfg.StorageBackend, err)
	}
	if st.closer != nil {
		defer st.closer.Close()
	}
	log.Info("storage ready", "backend", cfg.StorageBackend)

	speechBackend, err := newSpeech(cfg)
	if err != nil {
		return fmt.Errorf("initializing speech: %w", err)
	}

	settingsSvc := settings.NewService(st.settings, cfg.Personality)
	weatherSvc := weather.NewService(newWeatherProvider(cfg))

	convSvc := conversation.NewService(chat, st.conversations, st.messages, conversation.Config{
		PageSize:       cfg.ConversationPageSize,
		TitleMaxLength: cfg.TitleMaxLength,
		Commands:       commands.NewHandler(),
		Personalities:  settingsSvc,
	})

	handler := httpadapter.NewServer(httpadapter.Deps{
		Conversations:  convSvc,
		Chat:           chat,
		Settings:       settingsSvc,
		Weather:        weatherSvc,
		SpeechIn:       speechBackend,
		SpeechOut:      speechBackend,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("jarvis api listening", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newChatStreamer(ctx context.Context, cfg *config.Config) (domain.ChatStreamer, error) {
	switch cfg.LLMBackend {
	case "openai":
		return llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	case "vertex":
		return llm.NewVertexClient(ctx, llm.VertexConfig{
			ProjectID: cfg.GCPProjectID,
			Location:  cfg.GCPLocation,
			ModelName: cfg.ModelName,
		})
	case "endpoint":
		return llm.NewEndpointClient(cfg.ChatEndpointURL, nil)
	default:
		return llm.NewMockLLM(), nil
	}
}

func newStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.StorageBackend {
	case "firestore":
		fs, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			return nil, err
		}
		// 1 store, implements 3 interfaces
		return &stores{conversations: fs, messages: fs, settings: fs, closer: fs}, nil

	case "postgres":
		db, err := sqlstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return &stores{conversations: db, messages: db, settings: db, closer: db}, nil

	default:
		return &stores{
			conversations: memstore.NewConversationStore(),
			messages:      memstore.NewMessageStore(),
			settings:      memstore.NewSettingsStore(),
		}, nil
	}
}

type speechBackend interface {
	domain.SpeechInput
	domain.SpeechOutput
}

func newSpeech(cfg *config.Config) (speechBackend, error) {
	if cfg.SpeechBackend != "openai" {
		return speech.Noop{}, nil
	}
	return speech.NewOpenAI(speech.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
	})
}

// newWeatherProvider returns nil without an API key; lookups then serve
// the fallback snapshot.
func newWeatherProvider(cfg *config.Config) domain.WeatherProvider {
	if cfg.WeatherAPIKey == "" {
		return nil
	}
	c, err := weatherapi.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, nil)
	if err != nil {
		observability.WithFields("component", "weather").Warn("weather provider disabled", "error", err)
		return nil
	}
	return c
}
