package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Mr-Amresh/meeting-scheduler/internal/handler"
	"github.com/Mr-Amresh/meeting-scheduler/internal/middleware"
)

// Router builds the HTTP API.
func (a *App) Router() http.Handler {
	cfg := a.Config

	var db handler.Pinger
	var records handler.MeetingReader
	if a.Records != nil {
		db = a.Records
		records = a.Records
	}
	var nc handler.ConnChecker
	if a.NATS != nil {
		nc = a.NATS
	}

	healthHandler := handler.NewHealthHandler(db, nc)
	sessionHandler := handler.NewSessionHandler(a.Sessions, a.Controller, a.Normalizer, a.Logger.Named("http"))
	meetingHandler := handler.NewMeetingHandler(records, a.Calendar.Duration(), a.Logger.Named("http"))

	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(a.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Per-IP ceiling ahead of auth; several users may share one address.
		r.Use(middleware.RateLimit(cfg.RateLimitRequests*4, cfg.RateLimitWindow))
		if cfg.AuthEnabled {
			r.Use(middleware.Auth(cfg.JWTSecret))
		} else {
			r.Use(middleware.Anonymous())
		}
		r.Use(middleware.UserRateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScope(middleware.ScopeSchedule))

			r.Post("/sessions", sessionHandler.Create)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Delete("/", sessionHandler.Delete)
				r.Post("/proposal", sessionHandler.Propose)
				r.Post("/messages", sessionHandler.SendMessage)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScope(middleware.ScopeRead))

			r.Get("/meetings", meetingHandler.List)
			r.Get("/meetings.ics", meetingHandler.Feed)
			r.Get("/meetings/{eventID}", meetingHandler.Get)
			r.Get("/meetings/{eventID}/event.ics", meetingHandler.ICS)
		})
	})

	return r
}
