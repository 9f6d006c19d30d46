// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package web

import (
	"net/http"

	chi "github.com/go-chi/chi/v5"
	middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/pkg/audit"
	"github.com/bizledger/admin-service/pkg/authentication"
	"github.com/bizledger/admin-service/pkg/metrics"
	"github.com/bizledger/admin-service/pkg/ratelimit"
	"github.com/bizledger/admin-service/pkg/status"
	"github.com/bizledger/admin-service/pkg/users"
	"github.com/bizledger/admin-service/pkg/webhooks"
)

// Per-route rate-limit costs. Password resets burn the budget fastest.
const (
	costDefault       = 1
	costResetPassword = 5
)

func routeCost(r *http.Request) int {
	if r.URL.Path == "/api/users/reset-password" {
		return costResetPassword
	}
	return costDefault
}

func NewRouter(
	usersAPI *users.API,
	webhooksAPI *webhooks.API,
	authMiddleware *authentication.Middleware,
	limiter ratelimit.LimiterInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) http.Handler {
	router := chi.NewMux()

	router.Use(
		middleware.RequestID,
		monitoring.NewMiddleware(monitor, logger).ResponseTime(),
		cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		}),
		audit.CaptureMeta,
	)

	metrics.NewAPI(logger).RegisterEndpoints(router)
	status.NewAPI(tracer, monitor, logger).RegisterEndpoints(router)

	// Webhooks are called by the identity provider, not by end users; they
	// carry no bearer token and skip the rate limiter.
	webhooksAPI.RegisterEndpoints(router)

	limit := ratelimit.NewMiddleware(limiter, tracer, monitor, logger)

	// The limiter runs before token verification so abusive callers are
	// rejected before any signature checking happens.
	router.Group(func(r chi.Router) {
		r.Use(limit.LimitFunc(routeCost))
		r.Use(authMiddleware.Authenticate())
		usersAPI.RegisterEndpoints(r)
	})

	return tracing.NewMiddleware(monitor, logger).OpenTelemetry(router)
}
