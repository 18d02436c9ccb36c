package app

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/flowsight/flowsight/pkg/analytics/view"
	"github.com/flowsight/flowsight/pkg/config"
	"github.com/flowsight/flowsight/pkg/result"
	"github.com/flowsight/flowsight/pkg/scoring"
	"github.com/flowsight/flowsight/pkg/server/api"
	"github.com/flowsight/flowsight/pkg/server/httpx"
	"github.com/flowsight/flowsight/pkg/server/metrics"
	"github.com/flowsight/flowsight/pkg/server/stream"
)

// App orchestrates the server runtime components:
// - HTTP server (API + metrics)
// - WebSocket prediction stream
// - Lifecycle management
type App struct {
	HTTP    *http.Server
	Hub     *stream.Hub
	Metrics *metrics.Metrics
	Ready   *atomic.Bool
	Config  config.Config
	Deps    *Deps

	stopHub context.CancelFunc
}

// New creates and configures a new server application.
func New(ctx context.Context, cfg config.Config, deps *Deps) (*App, error) {
	deps.Logger.Info().Msg("Initializing server application")

	if deps.Session == nil {
		deps.Session = view.NewSession()
	}
	if deps.Store == nil {
		deps.Store = result.NewStore(cfg.History.StoreCapacity)
	}
	if deps.History == nil {
		deps.History = result.NewHistory(cfg.History.Size)
	}

	m := metrics.New()

	var hub *stream.Hub
	if cfg.Server.StreamEnabled {
		hub = stream.NewHub(m.StreamClients)
		deps.Logger.Info().Msg("Prediction stream enabled")
	} else {
		deps.Logger.Warn().Msg("Prediction stream disabled")
	}

	scorer, flowScorer, err := buildScorer(cfg.Scoring, deps)
	if err != nil {
		return nil, err
	}

	// Prepare API dependencies
	ready := &atomic.Bool{}
	apiDeps := &api.Deps{
		Session:        deps.Session,
		Store:          deps.Store,
		History:        deps.History,
		Scorer:         scorer,
		FlowScorer:     flowScorer,
		Validate:       validator.New(),
		Hub:            hub,
		Metrics:        m,
		Dataset:        cfg.Dataset,
		MaxUploadBytes: int64(cfg.Server.MaxUploadMB) << 20,
		Config:         api.DefaultConfig(),
		Ready:          ready,
	}

	// Create router with all endpoints mounted
	router := httpx.NewRouter(cfg.Server, apiDeps)

	if cfg.Server.APIEnabled {
		deps.Logger.Info().Msg("API endpoints enabled")
	} else {
		deps.Logger.Warn().Msg("API endpoints disabled")
	}

	// Create HTTP server with middleware
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Addr, cfg.Server.Port),
		Handler:      httpx.Chain(cfg.Server, m, router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		HTTP:    httpServer,
		Hub:     hub,
		Metrics: m,
		Ready:   ready,
		Config:  cfg,
		Deps:    deps,
	}, nil
}

// buildScorer resolves the scorer pair from config, honoring an injected
// override first.
func buildScorer(cfg config.ScoringConfig, deps *Deps) (scoring.Scorer, scoring.FlowScorer, error) {
	if deps.Scorer != nil {
		fs, ok := deps.Scorer.(scoring.FlowScorer)
		if !ok {
			return nil, nil, fmt.Errorf("injected scorer does not support single-flow scoring")
		}
		return deps.Scorer, fs, nil
	}

	switch cfg.Mode {
	case "", "heuristic":
		h := scoring.NewHeuristic(cfg.PositiveLabel)
		return h, h, nil
	case "remote":
		if cfg.URL == "" {
			return nil, nil, fmt.Errorf("scoring mode is remote but scoring.url is empty")
		}
		r := scoring.NewRemote(cfg.URL, cfg.PositiveLabel, cfg.Timeout)
		return r, r, nil
	default:
		return nil, nil, fmt.Errorf("unknown scoring mode %q", cfg.Mode)
	}
}

// Run starts the server and blocks until shutdown.
func (a *App) Run(ctx context.Context) error {
	a.Deps.Logger.Info().
		Str("addr", a.HTTP.Addr).
		Bool("api", a.Config.Server.APIEnabled).
		Bool("stream", a.Config.Server.StreamEnabled).
		Str("scoring", a.Config.Scoring.Mode).
		Msg("Starting Flowsight server")

	// Start HTTP server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		if err := a.HTTP.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	// Start the stream hub
	if a.Hub != nil {
		hubCtx, cancel := context.WithCancel(context.Background())
		a.stopHub = cancel
		go a.Hub.Run(hubCtx)
	}

	// Mark as ready
	a.Ready.Store(true)
	a.Deps.Logger.Info().Msg("Server is ready and accepting connections")

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		a.Deps.Logger.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		a.Deps.Logger.Error().Err(err).Msg("Server error")
		return err
	}

	// Graceful shutdown
	return a.shutdown()
}

// shutdown performs graceful shutdown of all components.
func (a *App) shutdown() error {
	a.Deps.Logger.Info().Msg("Initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Mark as not ready
	a.Ready.Store(false)

	// Shutdown HTTP server
	a.Deps.Logger.Info().Msg("Shutting down HTTP server...")
	if err := a.HTTP.Shutdown(shutdownCtx); err != nil {
		a.Deps.Logger.Error().Err(err).Msg("HTTP server shutdown failed")
		return err
	}
	a.Deps.Logger.Info().Msg("HTTP server stopped")

	// Stop the stream hub; its Run loop closes remaining clients
	if a.stopHub != nil {
		a.Deps.Logger.Info().Msg("Stopping prediction stream...")
		a.stopHub()
	}

	a.Deps.Logger.Info().Msg("Server shutdown complete")
	return nil
}
