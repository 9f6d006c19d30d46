// Copyright 2026 Bizledger Ltd.
// SPDX-License-Identifier: AGPL-3.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/bizledger/admin-service/internal/config"
	"github.com/bizledger/admin-service/internal/db"
	"github.com/bizledger/admin-service/internal/kratos"
	"github.com/bizledger/admin-service/internal/logging"
	"github.com/bizledger/admin-service/internal/monitoring/prometheus"
	"github.com/bizledger/admin-service/internal/storage"
	"github.com/bizledger/admin-service/internal/tracing"
	"github.com/bizledger/admin-service/pkg/accesscontrol"
	"github.com/bizledger/admin-service/pkg/audit"
	"github.com/bizledger/admin-service/pkg/authentication"
	"github.com/bizledger/admin-service/pkg/ratelimit"
	"github.com/bizledger/admin-service/pkg/users"
	"github.com/bizledger/admin-service/pkg/web"
	"github.com/bizledger/admin-service/pkg/webhooks"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "serve starts the web server",
	Long:  `Launch the web application, list of environment variables is available in the readme`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := serve(); err != nil {
			fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve() error {
	specs := new(config.EnvSpec)
	if err := envconfig.Process("", specs); err != nil {
		panic(fmt.Errorf("issues with environment sourcing: %s", err))
	}

	logger := logging.NewLogger(specs.LogLevel)
	logger.Debugf("env vars: %v", specs)
	defer logger.Sync()

	monitor := prometheus.NewMonitor("admin-service", logger)
	tracer := tracing.NewTracer(tracing.NewConfig(specs.TracingEnabled, specs.OtelGRPCEndpoint, specs.OtelHTTPEndpoint, logger))

	dbConfig := db.Config{
		DSN:             specs.DSN,
		MaxConns:        specs.DBMaxConns,
		MinConns:        specs.DBMinConns,
		MaxConnLifetime: specs.DBMaxConnLifetime,
		MaxConnIdleTime: specs.DBMaxConnIdleTime,
		TracingEnabled:  specs.TracingEnabled,
	}
	dbClient, err := db.NewDBClient(dbConfig, tracer, monitor, logger)
	if err != nil {
		return fmt.Errorf("failed to create database client: %v", err)
	}
	defer dbClient.Close()
	s := storage.NewStorage(dbClient, tracer, monitor, logger)

	kratosClient := kratos.NewClient(specs.KratosAdminURL, tracer, monitor, logger)

	verifier, err := authentication.NewJWTAuthenticator(
		context.Background(),
		specs.OIDCIssuer,
		specs.JWKSURL,
		tracer,
		monitor,
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to set up token verification: %v", err)
	}
	authMiddleware := authentication.NewMiddleware(verifier, tracer, monitor, logger)

	var limiter ratelimit.LimiterInterface
	if specs.ProductionLike() {
		limiter = ratelimit.NewLimiter(specs.RateLimitPerMinute, specs.RateLimitBurst, specs.RateLimitTTL)
	} else {
		limiter = ratelimit.NewNoopLimiter()
		logger.Info("Rate limiting disabled outside production-like environments")
	}

	recoveryLinkLifetime, err := time.ParseDuration(specs.RecoveryLinkLifetime)
	if err != nil {
		return fmt.Errorf("invalid recovery link lifetime %q: %v", specs.RecoveryLinkLifetime, err)
	}

	recorder := audit.NewRecorder(s, tracer, monitor, logger)
	guard := accesscontrol.NewGuard(s, tracer, monitor, logger)

	usersService := users.NewService(s, kratosClient, recorder, recoveryLinkLifetime, tracer, monitor, logger)
	usersAPI := users.NewAPI(usersService, guard, tracer, monitor, logger)

	webhooksService := webhooks.NewService(s, dbClient, recorder, tracer, monitor, logger)
	webhooksAPI := webhooks.NewAPI(webhooksService)

	router := web.NewRouter(
		usersAPI,
		webhooksAPI,
		authMiddleware,
		limiter,
		tracer,
		monitor,
		logger,
	)
	logger.Infof("Starting HTTP server on port %v", specs.Port)

	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%v", specs.Port),
		WriteTimeout: time.Second * 60,
		ReadTimeout:  time.Second * 15,
		IdleTimeout:  time.Second * 60,
		Handler:      router,
	}

	var serverError error
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Security().SystemStartup()
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverError = fmt.Errorf("server error: %w", err)
			c <- os.Interrupt
		}
	}()

	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logger.Security().SystemShutdown()
	if err := srv.Shutdown(ctx); err != nil {
		serverError = fmt.Errorf("server shutdown error: %w", err)
	}

	return serverError
}
