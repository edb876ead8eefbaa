package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gorillahandlers "github.com/gorilla/handlers"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/jaminalder/tictactoe/internal/app"
)

// Config tunes the HTTP layer.
type Config struct {
	// Heartbeat is the keep-alive interval for SSE and WebSocket streams.
	Heartbeat time.Duration
	// AllowedOrigins for the JSON API; empty allows any origin.
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewServer wires routes and returns an http.Handler.
func NewServer(s *app.Service, cfg Config) http.Handler {
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = 15 * time.Second
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	h := &handlers{svc: s, tpl: loadTemplates(), cfg: cfg}

	r := chi.NewRouter()
	r.Use(hlog.NewHandler(cfg.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(accessLog))
	r.Use(middleware.Recoverer)

	r.Get("/", h.index)
	r.Post("/game", h.create)
	r.Route("/game/{id}", func(r chi.Router) {
		r.Get("/", h.view)
		r.Post("/join", h.join)
		r.Post("/play", h.play)
		r.Post("/restart", h.restart)
		r.Post("/reset-score", h.resetScore)
		r.Get("/events", h.events)
		r.Get("/ws", h.socket)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(gorillahandlers.CORS(
			gorillahandlers.AllowedOrigins(cfg.AllowedOrigins),
			gorillahandlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			gorillahandlers.AllowedHeaders([]string{"Content-Type"}),
		))
		r.Post("/evaluate", h.apiEvaluate)
		r.Post("/move", h.apiSuggest)
		r.Post("/games", h.apiCreate)
		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", h.apiGet)
			r.Post("/join", h.apiJoin)
			r.Post("/moves", h.apiMove)
			r.Post("/restart", h.apiRestart)
			r.Post("/reset-score", h.apiResetScore)
		})
	})
	return r
}

func accessLog(r *http.Request, status, size int, dur time.Duration) {
	hlog.FromRequest(r).Info().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Int("bytes", size).
		Dur("dur", dur).
		Msg("http")
}
