// Package gateway exposes the adapter registry over HTTP.
//
// DESIGN: A thin ops surface over the registry and adapters:
//   - GET  /health                 liveness
//   - GET  /v1/adapters            registration table
//   - GET  /v1/adapters/resolve    first match and every match for ?model=
//   - POST /v1/prompts/render      render a template without calling the model
//   - POST /v1/chat                render + invoke, non-streaming
//   - GET  /v1/chat/stream         websocket: one request, streamed chunks
//   - GET  /v1/usage               counters and the usage ledger
//
// Every invocation is recorded in the store and the metrics collector.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/compresr/model-adapters/internal/adapters"
	"github.com/compresr/model-adapters/internal/config"
	"github.com/compresr/model-adapters/internal/monitoring"
	"github.com/compresr/model-adapters/internal/store"
	"github.com/compresr/model-adapters/internal/tokens"
)

// Deps are the collaborators a Gateway needs. Nil fields get defaults:
// the built-in registry, an in-memory store and a discard logger.
type Deps struct {
	Registry  *adapters.Registry
	Clients   adapters.ClientProvider
	Store     store.Store
	Estimator *tokens.Estimator
	Logger    *monitoring.Logger
}

// Gateway serves the HTTP surface.
type Gateway struct {
	cfg       *config.Config
	registry  *adapters.Registry
	clients   adapters.ClientProvider
	store     store.Store
	estimator *tokens.Estimator

	metrics       *monitoring.MetricsCollector
	alerts        *monitoring.AlertManager
	requestLogger *monitoring.RequestLogger

	server *http.Server
}

// New creates a gateway.
func New(cfg *config.Config, deps Deps) *Gateway {
	if deps.Registry == nil {
		deps.Registry = adapters.NewDefaultRegistry()
	}
	if deps.Store == nil {
		deps.Store = store.NewMemoryStore(cfg.Store.Retention)
	}
	if deps.Estimator == nil {
		deps.Estimator = tokens.NewEstimator()
	}
	if deps.Logger == nil {
		deps.Logger = monitoring.Nop()
	}

	g := &Gateway{
		cfg:           cfg,
		registry:      deps.Registry,
		clients:       deps.Clients,
		store:         deps.Store,
		estimator:     deps.Estimator,
		metrics:       monitoring.NewMetricsCollector(),
		alerts:        monitoring.NewAlertManager(deps.Logger, monitoring.AlertConfig{HighLatencyThreshold: cfg.Monitoring.HighLatencyThreshold}),
		requestLogger: monitoring.NewRequestLogger(deps.Logger),
	}

	g.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      g.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return g
}

// Handler returns the routed handler wrapped in middleware.
func (g *Gateway) Handler() http.Handler {
	return g.panicRecovery(g.loggingMiddleware(g.security(g.setupRoutes())))
}

// Metrics returns the gateway's counters.
func (g *Gateway) Metrics() *monitoring.MetricsCollector { return g.metrics }

// Start serves until Shutdown. It returns nil after a clean shutdown.
func (g *Gateway) Start() error {
	log.Info().Str("addr", g.server.Addr).Int("adapters", g.registry.Len()).Msg("gateway listening")
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server and closes the store.
func (g *Gateway) Shutdown(ctx context.Context) error {
	err := g.server.Shutdown(ctx)
	if cerr := g.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// =============================================================================
// RESPONSES
// =============================================================================

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func (g *Gateway) writeError(w http.ResponseWriter, r *http.Request, msg string, status int) {
	g.writeJSON(w, status, ErrorResponse{
		Error:     msg,
		RequestID: monitoring.RequestIDFromContext(r.Context()),
	})
}
