// Package server wires the HTTP API and web UI for the review analysis
// service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/restaurantlens/restaurantlens/internal/database"
	"github.com/restaurantlens/restaurantlens/internal/server/handlers"
	"github.com/restaurantlens/restaurantlens/internal/server/response"
	"github.com/restaurantlens/restaurantlens/internal/services"
	"github.com/restaurantlens/restaurantlens/pkg/embeddings"
	"github.com/restaurantlens/restaurantlens/pkg/health"
	"github.com/restaurantlens/restaurantlens/pkg/logger"
	"github.com/restaurantlens/restaurantlens/pkg/rag"
)

// Dependencies carries the wired services the router exposes. Engine,
// Store, DB, and Indexer may be nil when the matching backend is not
// configured.
type Dependencies struct {
	Ingest   *services.IngestService
	Analysis *services.AnalysisService
	Engine   *rag.Engine
	Health   *health.HealthChecker
	Store    *database.Store
	DB       *database.Connection
	Indexer  *embeddings.Indexer
	Logger   *logger.Logger
}

// Server represents the HTTP server
type Server struct {
	config     *Config
	deps       *Dependencies
	httpServer *http.Server
	router     *Router
	log        *logger.Logger
}

// New creates a new HTTP server
func New(config *Config, deps *Dependencies) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if deps == nil || deps.Ingest == nil || deps.Analysis == nil {
		return nil, fmt.Errorf("ingest and analysis services are required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetDefault()
	}

	server := &Server{
		config: config,
		deps:   deps,
		log:    deps.Logger.WithComponent("server"),
	}

	server.router = NewRouter(config, deps)

	server.httpServer = &http.Server{
		Addr:         config.GetAddress(),
		Handler:      server.router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return server, nil
}

// Start starts the HTTP server and blocks until shutdown
func (s *Server) Start(ctx context.Context) error {
	go func() {
		s.log.Info("starting server on %s", s.config.GetAddress())

		var err error
		if s.config.TLSEnabled {
			err = s.httpServer.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.httpServer.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			s.log.Error("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		s.log.Info("shutting down server")
	case <-ctx.Done():
		s.log.Info("context cancelled, shutting down server")
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.log.Error("server shutdown error: %v", err)
		return err
	}

	s.log.Info("server shutdown complete")
	return nil
}

// Router represents the HTTP router
type Router struct {
	*http.ServeMux
	config     *Config
	deps       *Dependencies
	middleware *MiddlewareStack
}

// NewRouter creates a new HTTP router
func NewRouter(config *Config, deps *Dependencies) *Router {
	if deps.Logger == nil {
		deps.Logger = logger.GetDefault()
	}

	router := &Router{
		ServeMux:   http.NewServeMux(),
		config:     config,
		deps:       deps,
		middleware: NewMiddlewareStack(),
	}

	router.setupMiddleware()
	router.setupRoutes()

	return router
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	handler := r.middleware.Apply(r.ServeMux)
	handler.ServeHTTP(w, req)
}

// setupMiddleware configures the middleware stack
func (r *Router) setupMiddleware() {
	log := r.deps.Logger
	r.middleware.Use(RecoveryMiddleware(log))
	r.middleware.Use(SecurityHeadersMiddleware())
	r.middleware.Use(RequestIDMiddleware(r.config.RequestIDHeader))
	r.middleware.Use(LoggingMiddleware(r.config, log))
	r.middleware.Use(CORSMiddleware(r.config))
	r.middleware.Use(RateLimitMiddleware(r.config))
	r.middleware.Use(MaxRequestSizeMiddleware(r.config.MaxRequestSize))
	r.middleware.Use(PaginationMiddleware(r.config))
}

// setupRoutes configures all routes
func (r *Router) setupRoutes() {
	log := r.deps.Logger

	// Health endpoints
	if r.deps.Health != nil {
		healthHandler := health.NewHandler(r.deps.Health, "restaurantlens", "1.0.0")
		r.HandleFunc(r.config.HealthCheckPath, healthHandler.HealthCheckHandler())
		r.HandleFunc(r.config.HealthCheckPath+"/ready", healthHandler.ReadinessHandler())
		r.HandleFunc(r.config.HealthCheckPath+"/live", healthHandler.LivenessHandler())
	}

	// Metrics endpoint
	if r.config.MetricsEnabled {
		r.HandleFunc(r.config.MetricsPath, r.metricsHandler)
	}

	apiPrefix := r.config.APIPrefix

	reviewHandler := handlers.NewReviewHandler(r.deps.Ingest, log)
	sentimentHandler := handlers.NewSentimentHandler(r.deps.Analysis, log)
	queryHandler := handlers.NewQueryHandler(r.deps.Engine, log)
	restaurantHandler := handlers.NewRestaurantHandler(r.deps.Store, r.config.RestaurantData, log)

	r.HandleFunc(apiPrefix+"/reviews/upload", reviewHandler.Upload)
	r.HandleFunc(apiPrefix+"/reviews", reviewHandler.List)
	r.HandleFunc(apiPrefix+"/reviews/summary", reviewHandler.Summary)
	r.HandleFunc(apiPrefix+"/sentiment", sentimentHandler.Analyze)
	r.HandleFunc(apiPrefix+"/query", queryHandler.Ask)
	r.HandleFunc(apiPrefix+"/restaurants", restaurantHandler.List)

	// Web UI
	webHandler := handlers.NewWebHandler(r.config.TemplateGlob, log)
	home := webHandler.HomeHandler()
	r.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/" {
			http.NotFound(w, req)
			return
		}
		home(w, req)
	})
	r.HandleFunc("/chat", webHandler.ChatHandler())
	r.HandleFunc("/restaurants", webHandler.RestaurantsHandler())
}

// metricsHandler reports indexer and database statistics
func (r *Router) metricsHandler(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	metrics := make(map[string]interface{})

	if r.deps.Indexer != nil {
		metrics["indexer"] = r.deps.Indexer.Stats()
	}

	if r.deps.DB != nil {
		stats, err := r.deps.DB.GetStats()
		if err == nil {
			metrics["database"] = stats
		}
	}

	requestID := getRequestID(req.Context())
	response.WriteSuccess(w, requestID, metrics, nil)
}

// RunServer is a convenience function to run the server
func RunServer(config *Config, deps *Dependencies) error {
	server, err := New(config, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	return server.Start(context.Background())
}
