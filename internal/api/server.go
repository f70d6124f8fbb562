// Package api exposes the tracker operations over JSON/HTTP.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"tracker/internal/tracker"
)

// Server holds dependencies for HTTP handlers
type Server struct {
	tracker *tracker.Service
	router  *chi.Mux
	logger  *zap.Logger
}

// NewServer creates a new HTTP server with all routes configured
func NewServer(svc *tracker.Service, logger *zap.Logger) *Server {
	s := &Server{
		tracker: svc,
		router:  chi.NewRouter(),
		logger:  logger,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router exposes the mux so the application can mount extra endpoints
func (s *Server) Router() chi.Router {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/colormaps", s.handleListColormaps)

		r.Route("/books", func(r chi.Router) {
			r.Get("/", s.handleListBooks)
			r.Post("/", s.handleAddBook)
			r.Put("/", s.handleEditBook)
			r.Delete("/", s.handleRemoveBook)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetBook)
				r.Put("/", s.handleUpdateBook)
				r.Delete("/", s.handleDeleteBook)
				r.Get("/progress", s.handleBookProgress)
			})
		})

		r.Route("/progress", func(r chi.Router) {
			r.Get("/", s.handleProgressTable)
			r.Post("/", s.handleAddProgress)
			r.Get("/matrix", s.handleProgressMatrix)
			r.Get("/summary", s.handleProgressSummary)
			r.Get("/heatmap.png", s.handleHeatmap)
		})
	})
}

// requestLogger logs one line per request with the chi request ID
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
