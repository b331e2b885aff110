// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/chairside/internal/config"
	"github.com/tomtom215/chairside/internal/middleware"
)

// slowRequestThreshold is where the access log escalates to warn.
const slowRequestThreshold = 2 * time.Second

// Deps are the handlers and state the router serves.
type Deps struct {
	Tokens  SocketTokenIssuer
	Hub     HubStats
	Gateway http.Handler
	SSE     SSEHandler

	// Breaker reports the message store circuit state; optional.
	Breaker BreakerState
}

// Router owns the chi mux and its handlers.
type Router struct {
	cfg           *config.Config
	deps          Deps
	handler       *Handler
	chiMiddleware *ChiMiddleware
}

// NewRouter validates deps and builds the handler set.
func NewRouter(cfg *config.Config, deps Deps) (*Router, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("%w: config", ErrMissingDependency)
	case deps.Tokens == nil:
		return nil, fmt.Errorf("%w: token issuer", ErrMissingDependency)
	case deps.Hub == nil:
		return nil, fmt.Errorf("%w: hub", ErrMissingDependency)
	case deps.Gateway == nil:
		return nil, fmt.Errorf("%w: gateway", ErrMissingDependency)
	case deps.SSE == nil:
		return nil, fmt.Errorf("%w: sse broker", ErrMissingDependency)
	}

	mwCfg := DefaultChiMiddlewareConfig()
	mwCfg.CORSAllowedOrigins = cfg.Security.CORSOrigins
	mwCfg.TokenRateLimit = cfg.Security.TokenRateLimit
	mwCfg.TokenRateWindow = cfg.Security.TokenRateWindow

	return &Router{
		cfg:           cfg,
		deps:          deps,
		handler:       NewHandler(cfg, deps),
		chiMiddleware: NewChiMiddleware(mwCfg),
	}, nil
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(chiMiddleware(middleware.RequestID))
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS())
	r.Use(chiMiddleware(middleware.PrometheusMetrics))
	r.Use(chiMiddleware(middleware.AccessLog(slowRequestThreshold)))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitHealth())
		r.Use(APISecurityHeaders())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.With(router.chiMiddleware.RateLimitToken(), APISecurityHeaders()).
		Get("/rt/issue-socket-token", router.handler.IssueSocketToken)

	r.Method(http.MethodGet, router.cfg.Gateway.Path, router.deps.Gateway)

	// CORS answers real preflights; this covers bare OPTIONS probes.
	r.Method(http.MethodGet, "/events", router.deps.SSE)
	r.Options("/events", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, r, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed")
	})

	return r
}
