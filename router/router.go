// Package router wires the HTTP surface of the mail tester onto a chi mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/pure-golang/mailtester/httpserver"
	"github.com/pure-golang/mailtester/httpserver/middleware"
)

// Config controls cross-origin access to the API routes.
type Config struct {
	AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Handlers groups the endpoints mounted by New. A nil handler leaves its
// route unregistered.
type Handlers struct {
	Page     http.Handler
	SendMail http.Handler
	Preview  http.Handler
}

// New builds the router. Method gating for the API endpoints is done by the
// handlers themselves, so every method is routed to them.
func New(cfg Config, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Monitoring)
	r.Use(middleware.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", Healthz)

	if h.Page != nil {
		r.Method(http.MethodGet, "/", h.Page)
	}
	if h.SendMail != nil {
		r.Handle("/api/sendmail", h.SendMail)
	}
	if h.Preview != nil {
		r.Handle("/api/preview", h.Preview)
	}

	return r
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	_ = httpserver.WriteStatus(w, http.StatusOK, "OK")
}
