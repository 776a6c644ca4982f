// Package server provides the HTTP server implementation for the employees API.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/devrev/employees-api/internal/config"
	apierrors "github.com/devrev/employees-api/internal/errors"
	"github.com/devrev/employees-api/internal/handler"
	"github.com/devrev/employees-api/internal/health"
	"github.com/devrev/employees-api/internal/metrics"
	"github.com/devrev/employees-api/internal/middleware"
)

// Server represents the HTTP server.
type Server struct {
	router       *mux.Router
	handler      http.Handler
	httpServer   *http.Server
	handlers     *handler.Handlers
	healthCheck  *health.HealthCheck
	metrics      *metrics.Metrics
	errorHandler *apierrors.Handler
	logger       *zap.Logger
	cfg          *config.Config
}

// NewServer creates a new HTTP server. m may be nil when metrics are disabled.
func NewServer(cfg *config.Config, service handler.EmployeeService, healthCheck *health.HealthCheck, m *metrics.Metrics, logger *zap.Logger) *Server {
	router := mux.NewRouter()
	errorHandler := apierrors.NewHandler(logger)

	s := &Server{
		router:       router,
		handlers:     handler.NewHandlers(service, errorHandler, logger),
		healthCheck:  healthCheck,
		metrics:      m,
		errorHandler: errorHandler,
		logger:       logger,
		cfg:          cfg,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

// setupRoutes configures all HTTP routes. The outer middleware wraps the
// router itself so that preflight, 404 and 405 responses get it too.
func (s *Server) setupRoutes() {
	middlewareChain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.errorHandler, s.logger),
		middleware.RequestID,
		middleware.Logging(s.logger),
		middleware.CORS(s.cfg.CORS.AllowedOrigins),
	}

	if s.cfg.RateLimiter.Enabled {
		rateLimiter := middleware.NewRateLimiter(
			s.cfg.RateLimiter.RequestsPerSecond,
			s.cfg.RateLimiter.BurstSize,
			s.errorHandler,
			s.logger,
		)
		middlewareChain = append(middlewareChain, rateLimiter.Limit)
	}

	if s.metrics != nil {
		s.router.Use(metrics.MetricsMiddleware(s.metrics))
	}

	// Health check endpoints
	s.router.HandleFunc("/health", s.healthCheck.LivenessHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/ready", s.healthCheck.ReadinessHandler).Methods(http.MethodGet)

	s.router.HandleFunc("/", s.handlers.Root).Methods(http.MethodGet)

	employees := s.router.PathPrefix("/employees").Subrouter()
	employees.HandleFunc("", s.handlers.ListEmployees).Methods(http.MethodGet)
	employees.HandleFunc("", s.handlers.CreateEmployee).Methods(http.MethodPost)
	employees.HandleFunc("/{id}", s.handlers.GetEmployee).Methods(http.MethodGet)
	employees.HandleFunc("/{id}", s.handlers.ReplaceEmployee).Methods(http.MethodPut)
	employees.HandleFunc("/{id}", s.handlers.UpdateEmployee).Methods(http.MethodPatch)
	employees.HandleFunc("/{id}", s.handlers.DeleteEmployee).Methods(http.MethodDelete)

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(middleware.RequestIDHeader)
		s.errorHandler.WriteErrorResponse(w, http.StatusNotFound, apierrors.ErrCodeInvalidRequest, "endpoint not found", requestID)
	})

	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(middleware.RequestIDHeader)
		s.errorHandler.WriteErrorResponse(w, http.StatusMethodNotAllowed, apierrors.ErrCodeInvalidRequest, "method not allowed", requestID)
	})

	s.handler = middleware.Chain(middlewareChain...)(s.router)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server",
		zap.Int("port", s.cfg.Server.Port),
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the fully wrapped http.Handler for the server.
func (s *Server) GetHandler() http.Handler {
	return s.handler
}
