// Package api provides the spritekiln REST API server.
package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spritekiln/spritekiln/internal/ingest"
	"github.com/spritekiln/spritekiln/internal/logging"
	"github.com/spritekiln/spritekiln/internal/server"
	"github.com/spritekiln/spritekiln/internal/store"
)

// Server ties the ingest pipeline, the store, and the WebSocket hub to
// the HTTP surface.
type Server struct {
	cfg Config
	ing *ingest.Ingestor
	hub *Hub
}

// NewServer creates a Server and starts its WebSocket hub.
func NewServer(cfg Config, ing *ingest.Ingestor) *Server {
	s := &Server{
		cfg: cfg,
		ing: ing,
		hub: NewHub(),
	}
	go s.hub.Run()
	return s
}

// Handler returns the full middleware chain wrapped around the routes.
func (s *Server) Handler() http.Handler {
	mux := s.routes()

	cspConfig := server.APICSPConfig()
	var handler http.Handler = server.SecurityHeadersWithCSP(cspConfig, mux)

	if s.cfg.Auth.Enabled {
		handler = AuthMiddleware(s.cfg.Auth, handler)
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", true,
			"note", "API key required")
	} else {
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", false,
			"note", "all requests allowed")
	}

	if s.cfg.RateLimitRequests > 0 {
		rateLimitConfig := RateLimiterConfig{
			RequestsPerMinute: s.cfg.RateLimitRequests,
			BurstSize:         s.cfg.RateLimitBurst,
		}
		if rateLimitConfig.BurstSize == 0 {
			rateLimitConfig.BurstSize = 10
		}
		rateLimiter := NewRateLimiter(rateLimitConfig)
		handler = rateLimiter.Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", rateLimitConfig.RequestsPerMinute,
			"burst_size", rateLimitConfig.BurstSize)
	}

	corsConfig := server.CORSConfig{
		AllowedOrigins: s.cfg.AllowedOrigins,
	}
	handler = server.CORSMiddlewareWithConfig(corsConfig, handler)
	if len(s.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(s.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}

	return logging.CombinedMiddleware(handler)
}

// routes configures all HTTP routes.
func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/upload", s.handleUpload)
	mux.HandleFunc("/api/v1/catalog", s.handleCatalog)
	mux.HandleFunc("/api/v1/catalog/", s.handleIconByName)
	mux.HandleFunc("/api/v1/sprite", s.handleSprite)
	mux.HandleFunc("/api/v1/events", s.handleEvents)

	return mux
}

// Start opens the configured store, builds the server, and listens until
// the process exits.
func Start(cfg Config) error {
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}

	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	var (
		st  store.Store
		err error
	)
	if cfg.StorePath != "" {
		st, err = store.OpenSQLite(cfg.StorePath)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()
	} else {
		st = store.NewMemory()
		logging.Warn("using in-memory store",
			"note", "catalog will not survive a restart, pass a store path for persistence")
	}

	srv := NewServer(cfg, ingest.New(st))
	handler := srv.Handler()

	protocol := "http"
	wsProtocol := "ws"
	if cfg.TLS.Enabled {
		protocol = "https"
		wsProtocol = "wss"
		logging.Info("TLS enabled", "cert_file", cfg.TLS.CertFile)
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	logging.ServerStartup("rest_api", protocol, cfg.Port,
		"websocket_protocol", wsProtocol,
		"store", storeDescription(cfg.StorePath))

	addr := fmt.Sprintf(":%d", cfg.Port)
	if cfg.TLS.Enabled {
		return http.ListenAndServeTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile, handler)
	}
	return http.ListenAndServe(addr, handler)
}

func storeDescription(path string) string {
	if path == "" {
		return "memory"
	}
	return server.AbsPath(path)
}
