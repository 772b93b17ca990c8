// Package server wires the weaver services together and runs the HTTP
// listener. Endpoints pull their dependencies from the request context.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/promptweaver/weaver/internal/account"
	"github.com/promptweaver/weaver/internal/api"
	"github.com/promptweaver/weaver/internal/assistant"
	"github.com/promptweaver/weaver/internal/config"
	"github.com/promptweaver/weaver/internal/profile"
	"github.com/promptweaver/weaver/internal/ratelimit"
	"github.com/promptweaver/weaver/internal/server/endpoints"
	"github.com/promptweaver/weaver/internal/svcctx"
	"github.com/promptweaver/weaver/internal/upstream"
	"github.com/promptweaver/weaver/internal/workflow"
)

// Server is the main weaver HTTP server. Account endpoints come alive only
// when a database DSN is configured; everything else works without one.
type Server struct {
	httpServer *http.Server
	configMgr  *config.Manager
	logger     *slog.Logger

	db *sql.DB

	// services holds all core services for context enrichment
	services *svcctx.Services

	// endpoints registry for HTTP routes
	endpointRegistry *api.Registry

	mu      sync.RWMutex
	running bool
}

// Config holds server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1)
	Host string
	// Port is the port to listen on (default: 8080)
	Port string
	// ConfigManager provides configuration with hot-reload support
	ConfigManager *config.Manager
	// Logger is the structured logger to use
	Logger *slog.Logger
}

// New creates a new Server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.ConfigManager == nil {
		return nil, errors.New("config manager is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	appCfg := cfg.ConfigManager.Get()
	if cfg.Host == "" {
		cfg.Host = appCfg.Server.Host
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == "" {
		cfg.Port = appCfg.Server.Port
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	s := &Server{
		configMgr: cfg.ConfigManager,
		logger:    cfg.Logger,
	}
	s.services = buildCoreServices(appCfg, cfg.Logger)

	// Rebuild the stateless services when the config file changes. The
	// database-backed services keep their connections across reloads, and
	// the limiter keeps its buckets unless the rate itself changed.
	lastRate := appCfg.Server.RateLimitPerMinute
	cfg.ConfigManager.OnChange(func(c *config.Config) {
		rebuilt := buildCoreServices(c, cfg.Logger)

		s.mu.Lock()
		carryAcrossReload(rebuilt, s.services, c.Server.RateLimitPerMinute != lastRate)
		lastRate = c.Server.RateLimitPerMinute
		s.services = rebuilt
		s.mu.Unlock()

		cfg.Logger.Info("services reloaded from config")
	})

	// Create endpoint registry and register all endpoints
	s.endpointRegistry = api.NewRegistry()
	for _, ep := range endpoints.All(endpoints.Config{}) {
		s.endpointRegistry.Register(ep)
	}

	// Set up HTTP server
	mux := http.NewServeMux()
	s.endpointRegistry.RegisterRoutes(mux, s.requireInit)

	s.httpServer = &http.Server{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:     s.withServices(mux),
		ReadTimeout: 30 * time.Second,
		// Write timeout is generous: the run endpoint can poll for two
		// minutes and the profile feed streams indefinitely.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	return s, nil
}

// buildCoreServices constructs the services that need no external
// connections: the assistant, the workflow client, and the rate limiter.
func buildCoreServices(cfg *config.Config, logger *slog.Logger) *svcctx.Services {
	clientType, upstreamCfg := cfg.ToUpstreamConfig()
	var client upstream.Client
	switch clientType {
	case "openai":
		client = upstream.NewOpenAIClient(upstreamCfg)
	default:
		client = upstream.NewChatClient(upstreamCfg)
	}

	table := cfg.ToWorkflowTable()

	return &svcctx.Services{
		Assistant: assistant.New(client, logger),
		Workflows: workflow.NewClient(table, nil, logger),
		Table:     table,
		Limiter:   ratelimit.New(cfg.Server.RateLimitPerMinute, time.Minute),
		Logger:    logger,
	}
}

// carryAcrossReload moves the stateful services from the current set into a
// freshly rebuilt one. Clients keep their consumed rate-limit budget across
// reloads that leave the rate untouched.
func carryAcrossReload(rebuilt, current *svcctx.Services, rateChanged bool) {
	if !rateChanged {
		rebuilt.Limiter = current.Limiter
	}
	rebuilt.Verifier = current.Verifier
	rebuilt.Accounts = current.Accounts
	rebuilt.ProfileFeed = current.ProfileFeed
}

// Start starts the server. It blocks until the context is cancelled or an
// error occurs.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server already running")
	}
	s.running = true
	s.mu.Unlock()

	appCfg := s.configMgr.Get()

	// Account endpoints require a database; without one they answer 503.
	if dsn := appCfg.ResolvedDSN(); dsn != "" {
		s.logger.Info("connecting to database")
		db, err := account.Open(ctx, dsn)
		if err != nil {
			s.setNotRunning()
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db

		s.mu.Lock()
		s.services.Accounts = account.NewStore(db)
		s.services.Verifier = account.NewVerifier(appCfg.Auth.BaseURL, appCfg.ResolvedServiceRoleKey(), nil)
		s.services.ProfileFeed = profile.NewFeed(dsn, s.logger)
		s.mu.Unlock()

		s.logger.Info("account endpoints enabled")
	} else {
		s.logger.Info("no database configured; account endpoints disabled")
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			_ = s.shutdown()
			return fmt.Errorf("HTTP server error: %w", err)
		}
	}

	return s.shutdown()
}

// shutdown performs graceful shutdown of the HTTP server and the database
// connection.
func (s *Server) shutdown() error {
	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		}
	}

	s.setNotRunning()
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) setNotRunning() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// IsRunning returns whether the server is currently running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Services returns the current service set. Intended for tests.
func (s *Server) Services() *svcctx.Services {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services
}

// withServices wraps a handler to enrich the request context with services.
func (s *Server) withServices(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		services := s.services
		s.mu.RUnlock()

		ctx := r.Context()
		if services != nil {
			ctx = svcctx.WithServices(ctx, services)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireInit is middleware for database-backed endpoints. Returns 503 when
// no database is configured.
func (s *Server) requireInit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.RLock()
		ready := s.services != nil && s.services.Accounts != nil && s.services.ProfileFeed != nil
		s.mu.RUnlock()

		if !ready {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"account endpoints require a configured database"}`))
			return
		}
		next(w, r)
	}
}
