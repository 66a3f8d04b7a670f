package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/domain-lists/internal/board"
	"github.com/terra-clan/domain-lists/internal/config"
	"github.com/terra-clan/domain-lists/internal/health"
	"github.com/terra-clan/domain-lists/internal/resolver"
)

// URLBuilder turns a resolved resource into the URL it is fetched from
type URLBuilder interface {
	URL(id resolver.ResourceID) string
}

// Server represents the HTTP API server
type Server struct {
	config   config.ServerConfig
	limits   config.PaginationConfig
	router   *chi.Mux
	pipeline *board.Pipeline
	resolver *resolver.Resolver
	urls     URLBuilder
	health   *health.Registry
	hub      *board.Hub
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	limits config.PaginationConfig,
	pipeline *board.Pipeline,
	res *resolver.Resolver,
	urls URLBuilder,
	registry *health.Registry,
	hub *board.Hub,
) *Server {
	s := &Server{
		config:   cfg,
		limits:   limits,
		pipeline: pipeline,
		resolver: res,
		urls:     urls,
		health:   registry,
		hub:      hub,
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check (outside versioned API)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		// Lists
		r.Route("/lists", func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			r.Get("/", s.handleGetList)
			r.Get("/options", s.handleOptions)
			r.Get("/resolve", s.handleResolve)
		})

		// Live board (long-lived, no request timeout)
		r.Get("/board/ws", s.handleBoardWS)
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
