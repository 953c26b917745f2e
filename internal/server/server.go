// Package server provides the HTTP server and routing.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	analyticshandlers "github.com/peatrack/peatrack/internal/modules/analytics/handlers"
	chartshandlers "github.com/peatrack/peatrack/internal/modules/charts/handlers"
	marketdatahandlers "github.com/peatrack/peatrack/internal/modules/marketdata/handlers"
	portfoliohandlers "github.com/peatrack/peatrack/internal/modules/portfolio/handlers"
	settingshandlers "github.com/peatrack/peatrack/internal/modules/settings/handlers"
	"github.com/peatrack/peatrack/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log     zerolog.Logger
	Port    int
	DevMode bool

	PortfolioHandler  *portfoliohandlers.Handler
	MarketDataHandler *marketdatahandlers.Handler
	AnalyticsHandler  *analyticshandlers.Handler
	ChartsHandler     *chartshandlers.Handler
	SettingsHandler   *settingshandlers.Handler

	Scheduler  *scheduler.Scheduler
	RefreshJob scheduler.Job
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	systemHandlers *SystemHandlers
	scheduler      *scheduler.Scheduler
	refreshJob     scheduler.Job
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		systemHandlers: NewSystemHandlers(cfg.Log),
		scheduler:      cfg.Scheduler,
		refreshJob:     cfg.RefreshJob,
	}

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

func (s *Server) setupRoutes(cfg Config) {
	s.router.Route("/api", func(r chi.Router) {
		cfg.PortfolioHandler.RegisterRoutes(r)
		cfg.MarketDataHandler.RegisterRoutes(r)
		cfg.AnalyticsHandler.RegisterRoutes(r)
		cfg.ChartsHandler.RegisterRoutes(r)
		cfg.SettingsHandler.RegisterRoutes(r)

		r.Get("/system/status", s.systemHandlers.HandleStatus)
		r.Post("/system/refresh", s.handleTriggerRefresh)
	})

	s.router.Get("/health", s.systemHandlers.HandleHealth)
}

// handleTriggerRefresh runs the market refresh job immediately
func (s *Server) handleTriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if s.refreshJob == nil {
		http.Error(w, `{"error":"refresh job not registered"}`, http.StatusServiceUnavailable)
		return
	}

	s.log.Info().Msg("Manual market data refresh triggered")
	if err := s.scheduler.RunNow(s.refreshJob); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":%q}`, err.Error()), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Msg("HTTP request")
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router for tests.
func (s *Server) Router() http.Handler {
	return s.router
}
