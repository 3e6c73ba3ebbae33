// Package http exposes the analytics engine as a JSON API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Options carries everything the server needs at construction time.
type Options struct {
	Port              string
	JWTSecret         string
	RateLimitInterval time.Duration
	RateLimitBurst    int
	Service           AnalyticsService
	Publisher         SyncRequestPublisher // optional
}

type Server struct {
	http.Server
	service   AnalyticsService
	publisher SyncRequestPublisher
	limiter   *rateLimiter
	jwtSecret string
}

func NewServer(opts Options) *Server {
	s := &Server{
		service:   opts.Service,
		publisher: opts.Publisher,
		limiter:   newRateLimiter(opts.RateLimitInterval, opts.RateLimitBurst),
		jwtSecret: opts.JWTSecret,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(logMiddleware)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/analytics", func(r chi.Router) {
		r.Use(s.authMiddleware)
		r.Use(s.rateLimitMiddleware)

		r.Get("/stats", s.handleGetStats)
		r.Get("/trends", s.handleGetTrends)
		r.Get("/forecast", s.handleGetForecast)
		r.Post("/sync", s.handleSync)
		r.Get("/sync/status", s.handleSyncStatus)
		r.Post("/recalculate", s.handleRecalculate)
	})

	s.Server = http.Server{
		Addr:         ":" + opts.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.Server.Handler
}

func (s *Server) Start() error {
	return s.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}
