package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/PabloGalante/jarvis-hud/internal/adapters/speech"
	"github.com/PabloGalante/jarvis-hud/internal/app/conversation"
	"github.com/PabloGalante/jarvis-hud/internal/app/settings"
	"github.com/PabloGalante/jarvis-hud/internal/app/weather"
	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// Deps are the services the HTTP API is built on. Chat is the backend
// exposed on POST /chat; SpeechIn and SpeechOut may be speech.Noop.
type Deps struct {
	Conversations *conversation.Service
	Chat          domain.ChatStreamer
	Settings      *settings.Service
	Weather       *weather.Service
	SpeechIn      domain.SpeechInput
	SpeechOut     domain.SpeechOutput

	AllowedOrigins []string
}

type Server struct {
	conv      *conversation.Service
	chat      domain.ChatStreamer
	settings  *settings.Service
	weather   *weather.Service
	speechIn  domain.SpeechInput
	speechOut domain.SpeechOutput
}

func NewServer(deps Deps) http.Handler {
	s := &Server{
		conv:      deps.Conversations,
		chat:      deps.Chat,
		settings:  deps.Settings,
		weather:   deps.Weather,
		speechIn:  deps.SpeechIn,
		speechOut: deps.SpeechOut,
	}

	if s.speechIn == nil {
		s.speechIn = speech.Noop{}
	}
	if s.speechOut == nil {
		s.speechOut = speech.Noop{}
	}
	if s.settings == nil {
		s.settings = settings.NewService(nil, domain.DefaultPersonality())
	}
	if s.weather == nil {
		s.weather = weather.NewService(nil)
	}

	origins := deps.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(withRequestID)
	r.Use(withLogging)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Client-Info", "Apikey"},
		ExposedHeaders: []string{headerRequestID},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)

	r.Post("/chat", s.handleChat)
	r.Post("/weather", s.handleWeather)
	r.Post("/tts", s.handleTTS)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.handleOpenSession)

		r.Route("/{sid}", func(r chi.Router) {
			r.Delete("/", s.handleCloseSession)
			r.Post("/input", s.handleInput)
			r.Post("/voice", s.handleVoice)
			r.Post("/cancel", s.handleCancel)
			r.Get("/messages", s.handleMessages)

			r.Get("/conversations", s.handleListConversations)
			r.Post("/conversations", s.handleCreateConversation)
			r.Put("/conversations/{cid}/active", s.handleSwitchConversation)
			r.Delete("/conversations/{cid}", s.handleDeleteConversation)
		})
	})

	r.Get("/users/{uid}/settings", s.handleGetSettings)
	r.Put("/users/{uid}/settings", s.handlePutSettings)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
