// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package ratelimit

import (
	"encoding/json"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring"
	"github.com/bizledger/admin-service/internal/tracing"
)

type Middleware struct {
	limiter LimiterInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Limit rejects callers exceeding their budget before any further work
// happens.
func (m *Middleware) Limit(cost int) func(http.Handler) http.Handler {
	return m.LimitFunc(func(*http.Request) int { return cost })
}

// LimitFunc is Limit with a per-request cost, so distinct routes can carry
// distinct costs behind one middleware.
func (m *Middleware) LimitFunc(cost func(*http.Request) int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := m.tracer.Start(r.Context(), "ratelimit.Middleware.Limit")
			defer span.End()

			key := ClientKey(r)
			decision := m.limiter.Consume(key, cost(r))
			if decision.OK {
				next.ServeHTTP(w, r)
				return
			}

			m.logger.Debugf("rate limit exceeded for %s", key)

			retryAfter := int(math.Ceil(decision.RetryAfter.Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}

			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			w.WriteHeader(http.StatusTooManyRequests)
			if err := json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"message": "too many requests, slow down",
				"error":   "RateLimited",
			}); err != nil {
				m.logger.Errorf("failed to encode rate limit response: %v", err)
			}
		})
	}
}

// ClientKey identifies the caller by network address: first X-Forwarded-For
// hop, then X-Real-IP, then the connection's remote host. Requests with no
// derivable address share the "unknown" bucket.
func ClientKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		return "unknown"
	}

	return host
}

func NewMiddleware(limiter LimiterInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *Middleware {
	return &Middleware{
		limiter: limiter,
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
}
