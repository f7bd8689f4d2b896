// Motorscope - Industrial Motor Monitoring and Digital Twin Dashboard
// Copyright 2026 The Motorscope Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/motorlab/motorscope

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motorlab/motorscope/internal/auth"
	"github.com/motorlab/motorscope/internal/config"
	"github.com/motorlab/motorscope/internal/middleware"
)

// Router wires all HTTP routes.
type Router struct {
	handler   *Handler
	authMW    *auth.Middleware
	wsHandler http.Handler
	cfg       *config.Config
}

// NewRouter creates the router. wsHandler serves the dashboard
// WebSocket endpoint.
func NewRouter(handler *Handler, authMW *auth.Middleware, wsHandler http.Handler, cfg *config.Config) *Router {
	return &Router{
		handler:   handler,
		authMW:    authMW,
		wsHandler: wsHandler,
		cfg:       cfg,
	}
}

// Setup builds the chi mux with all middleware and routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.HostFilter(router.cfg.Server.AllowedHosts))
	r.Use(middleware.Compression)

	// Probes stay unauthenticated so orchestrators can reach them.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(middleware.RateLimit(router.cfg.Security.LoginRateLimit, time.Minute))
		r.Use(middleware.PrometheusMetrics)
		r.Post("/login", router.handler.Login)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimit(router.cfg.Security.RateLimitReqs, router.cfg.Security.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)
		r.Use(router.authMW.Authenticate)

		r.Get("/dashboard", router.handler.Dashboard)
		r.Get("/plot", router.handler.Plot)

		r.Get("/motor", router.handler.Motor)
		r.Put("/motor", router.handler.UpdateMotor)

		r.Route("/logs", func(r chi.Router) {
			r.Get("/", router.handler.Logs)
			r.Post("/{id}/acknowledge", router.handler.AcknowledgeLog)
			r.Delete("/{id}", router.handler.DeleteLog)
		})

		r.Route("/reference-runs", func(r chi.Router) {
			r.Get("/", router.handler.ReferenceRuns)
			r.Post("/", router.handler.CreateReferenceRun)
			r.Get("/expected", router.handler.ExpectedValues)
			r.Put("/{id}/validity", router.handler.SetReferenceRunValidity)
			r.Delete("/{id}", router.handler.DeleteReferenceRun)
		})
	})

	// WebSocket upgrade carries auth via the session cookie in jwt
	// mode; compression middleware passes upgrades through.
	r.Group(func(r chi.Router) {
		r.Use(router.authMW.Authenticate)
		r.Get("/api/v1/ws", router.wsHandler.ServeHTTP)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
