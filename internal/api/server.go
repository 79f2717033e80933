// Package api wires the Connect services and the plain HTTP endpoints into
// one chi router.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/nekolators/internal/api/handlers"
	"github.com/mmynk/nekolators/internal/live"
	"github.com/mmynk/nekolators/internal/metrics"
	"github.com/mmynk/nekolators/internal/middleware"
	"github.com/mmynk/nekolators/internal/receipt"
	"github.com/mmynk/nekolators/internal/rpc"
	"github.com/mmynk/nekolators/internal/service"
	"github.com/mmynk/nekolators/internal/shortlink"
	"github.com/mmynk/nekolators/internal/storage"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	PublicBaseURL  string
	AllowedOrigins []string

	// StaticPath is the directory of the built web client. Empty disables
	// static file serving.
	StaticPath     string
	MaxUploadBytes int64
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		MaxUploadBytes: handlers.DefaultMaxUpload,
	}
}

// Server is the HTTP server of the application.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	store      storage.Store
	links      *shortlink.Service
	extractor  receipt.Extractor
	registry   *prometheus.Registry
}

// NewServer creates a new server. extractor may be nil, which disables
// receipt image uploads. registry may be nil, which disables /metrics.
func NewServer(cfg Config, store storage.Store, extractor receipt.Extractor, registry *prometheus.Registry, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:    cfg,
		router:    chi.NewRouter(),
		logger:    logger,
		store:     store,
		links:     shortlink.NewService(store),
		extractor: extractor,
		registry:  registry,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	s.router.Use(middleware.Logging(s.logger))
	s.router.Use(middleware.Metrics)
}

// setupRoutes configures all routes.
func (s *Server) setupRoutes() {
	s.router.Get("/health", handlers.NewHealthHandler().ServeHTTP)
	if s.registry != nil {
		s.router.Handle("/metrics", metrics.Handler(s.registry))
	}

	// Connect services
	interceptors := connect.WithInterceptors(middleware.LoggingInterceptor(), middleware.MetricsInterceptor())
	calculator := service.NewCalculatorService()
	s.mountRPC(rpc.NewCalculatorServiceHandler(calculator, interceptors))
	s.mountRPC(rpc.NewCalculationServiceHandler(service.NewCalculationService(s.store), interceptors))
	s.mountRPC(rpc.NewExpertCalculationServiceHandler(service.NewExpertCalculationService(s.store), interceptors))
	s.mountRPC(rpc.NewShortLinkServiceHandler(service.NewShortLinkService(s.store, s.links), interceptors))

	// Receipt ingestion, kept on the paths existing integrations post to.
	receipts := handlers.NewReceiptsHandler(s.store, s.links, s.extractor, s.config.PublicBaseURL, s.config.MaxUploadBytes)
	s.router.Post("/functions/v1/receipt-api", receipts.ReceiptAPI)
	s.router.Post("/functions/v1/process-receipt", receipts.ProcessReceipt)

	shortLinks := handlers.NewShortLinksHandler(s.store, s.links, s.config.PublicBaseURL)
	s.router.Get("/s/{code}", shortLinks.Redirect)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/receipts/upload", receipts.Upload)

		exports := handlers.NewExportsHandler(s.store)
		r.Get("/calculations/{id}/export.xlsx", exports.Calculation)
		r.Get("/expert/{id}/export.xlsx", exports.ExpertCalculation)
	})

	s.router.Handle("/ws/live", live.NewHandler(calculator, s.config.AllowedOrigins))

	if s.config.StaticPath != "" {
		s.router.NotFound(s.serveStatic)
	}
}

func (s *Server) mountRPC(path string, h http.Handler) {
	s.router.Handle(path+"*", h)
}

// serveStatic serves the web client. Unknown paths get index.html so client
// routes like /expert/{id}/edit load the app.
func (s *Server) serveStatic(w http.ResponseWriter, r *http.Request) {
	if rpc.IsProcedurePath(r.URL.Path) {
		http.NotFound(w, r)
		return
	}

	urlPath := r.URL.Path
	if urlPath == "/" {
		urlPath = "/index.html"
	}

	filePath := filepath.Join(s.config.StaticPath, filepath.Clean("/"+urlPath))
	if info, err := os.Stat(filePath); err != nil || info.IsDir() {
		http.ServeFile(w, r, filepath.Join(s.config.StaticPath, "index.html"))
		return
	}
	http.ServeFile(w, r, filePath)
}

// Handler returns the root handler, wrapped with h2c so Connect clients can
// speak HTTP/2 without TLS.
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(s.router, &http2.Server{})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.httpServer.Addr
	s.logger.Info("Server starting", "address", addr, "url", "http://localhost"+addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server")
	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
