// Package server exposes the BMS management API: scheduled-search CRUD,
// manual execution, run history, ad-hoc search, provider status.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/odsconseil/bms/auth"
	"github.com/odsconseil/bms/config"
	"github.com/odsconseil/bms/provider"
	"github.com/odsconseil/bms/scheduler"
)

// BMSServer ties the HTTP surface to the scheduler core. All handlers
// hang off this struct; stores are cheap views over the shared *sql.DB.
type BMSServer struct {
	db       *sql.DB
	store    *scheduler.Store
	runStore *scheduler.RunStore
	executor *scheduler.Executor
	chain    *provider.Chain
	ticker   *scheduler.Ticker

	authMiddleware *auth.Middleware
	allowedOrigins []string
	logger         *zap.SugaredLogger

	httpServer *http.Server
}

// NewServer creates the management API server. A nil ticker is allowed
// for deployments that run the scheduler loop in a separate process.
func NewServer(
	db *sql.DB,
	executor *scheduler.Executor,
	chain *provider.Chain,
	ticker *scheduler.Ticker,
	cfg *config.ServerConfig,
	logger *zap.SugaredLogger,
) (*BMSServer, error) {
	var jwtManager *auth.JWTManager
	if cfg.JWTSecret != "" {
		var err error
		jwtManager, err = auth.NewJWTManager(cfg.JWTSecret, 24*time.Hour)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Warnw("No JWT secret configured, authentication disabled")
	}

	return &BMSServer{
		db:             db,
		store:          scheduler.NewStore(db),
		runStore:       scheduler.NewRunStore(db),
		executor:       executor,
		chain:          chain,
		ticker:         ticker,
		authMiddleware: auth.NewMiddleware(jwtManager, logger),
		allowedOrigins: cfg.AllowedOrigins,
		logger:         logger,
	}, nil
}

// Start begins serving on the given port. Blocks until the listener
// fails or Shutdown is called.
func (s *BMSServer) Start(port int) error {
	mux := s.routes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.logger.Infow("BMS management API listening", "port", port)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// HandleSchedulerStatus handles GET /api/scheduler/status: ticker
// statistics, or running=false when this process has no scheduler loop.
func (s *BMSServer) HandleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	if !requireMethods(w, r, http.MethodGet) {
		return
	}

	if s.ticker == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"running": false})
		return
	}

	stats := s.ticker.GetStats()
	stats["running"] = true
	writeJSON(w, http.StatusOK, stats)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *BMSServer) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	s.logger.Infow("Shutting down BMS management API")
	return s.httpServer.Shutdown(ctx)
}
