// Copyright 2025 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package config

import (
	"time"
)

// EnvSpec is the basic environment configuration setup needed for the app to start
type EnvSpec struct {
	OtelGRPCEndpoint string `envconfig:"otel_grpc_endpoint"`
	OtelHTTPEndpoint string `envconfig:"otel_http_endpoint"`
	TracingEnabled   bool   `envconfig:"tracing_enabled" default:"true"`

	KratosAdminURL string `envconfig:"kratos_admin_url" required:"true"`

	// OIDCIssuer is the issuer of the bearer tokens presented by callers.
	// When JWKSURL is set, discovery is skipped and keys are fetched directly.
	OIDCIssuer string `envconfig:"oidc_issuer" required:"true"`
	JWKSURL    string `envconfig:"jwks_url"`

	RecoveryLinkLifetime string `envconfig:"recovery_link_lifetime" default:"24h"`

	// Environment gates the rate limiter; anything other than
	// "production" or "staging" runs with the limiter disabled.
	Environment string `envconfig:"environment" default:"development"`

	RateLimitPerMinute int           `envconfig:"rate_limit_per_minute" default:"60"`
	RateLimitBurst     int           `envconfig:"rate_limit_burst" default:"10"`
	RateLimitTTL       time.Duration `envconfig:"rate_limit_ttl" default:"5m"`

	LogLevel string `envconfig:"log_level" default:"error"`
	Debug    bool   `envconfig:"debug" default:"false"`

	Port int `envconfig:"port" default:"8080"`

	DSN string `envconfig:"DSN" required:"true"`

	DBMaxConns        int32         `envconfig:"db_max_conns" default:"25"`
	DBMinConns        int32         `envconfig:"db_min_conns" default:"2"`
	DBMaxConnLifetime time.Duration `envconfig:"db_max_conn_lifetime" default:"1h"`
	DBMaxConnIdleTime time.Duration `envconfig:"db_max_conn_idle_time" default:"30m"`
}

// ProductionLike reports whether rate limiting should be enforced.
func (s *EnvSpec) ProductionLike() bool {
	return s.Environment == "production" || s.Environment == "staging"
}
