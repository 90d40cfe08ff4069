// Package main initializes and runs the timegate API service.
//
// It acts as the composition root: configuration, logging, the Postgres
// pool, the payload cache, the rule substrate, and the HTTP surface are all
// wired together here, along with the server lifecycle.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/garyfan1/timegate/internal/api"
	"github.com/garyfan1/timegate/internal/auth"
	"github.com/garyfan1/timegate/internal/cache"
	"github.com/garyfan1/timegate/internal/config"
	"github.com/garyfan1/timegate/internal/database"
	"github.com/garyfan1/timegate/internal/dispatch"
	"github.com/garyfan1/timegate/internal/logger"
	"github.com/garyfan1/timegate/internal/observability"
	"github.com/garyfan1/timegate/internal/scheduler"
	"github.com/garyfan1/timegate/internal/store"
	"github.com/garyfan1/timegate/internal/substrate"
)

// memoryCacheCapacity caps the in-memory payload cache when Redis is not
// configured.
const memoryCacheCapacity = 10_000

// main is the application entrypoint.
func main() {
	if err := run(); err != nil {
		log.Printf("Fatal error: %v", err)
		os.Exit(1)
	}
}

// run executes the service lifecycle.
func run() error {
	ctx := context.Background()

	// -------------------------------------------------------------------------
	// 1. Configuration & Logging
	// -------------------------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.New(&cfg.App)
	cfg.LogConfig(logg)

	// -------------------------------------------------------------------------
	// 2. Infrastructure Setup
	// -------------------------------------------------------------------------
	pool, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := store.EnsureSchema(ctx, pool, cfg.App.Stage); err != nil {
		return err
	}

	accounts := store.NewPostgresAccounts(pool, cfg.App.Stage)
	ownerships := store.NewPostgresOwnerships(pool, cfg.App.Stage)

	// Payload cache: Redis when configured, otherwise in-process.
	var cacheSvc cache.Service
	if cfg.Redis.IsConfigured() {
		cacheSvc, err = cache.NewRedisCache(ctx, &cfg.Redis)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		logg.Info("using redis payload cache", "addr", cfg.Redis.Address())
	} else {
		cacheSvc, err = cache.NewMemoryCache(memoryCacheCapacity, cfg.Redis.EntryTTL)
		if err != nil {
			return fmt.Errorf("failed to build memory cache: %w", err)
		}
		logg.Info("using in-memory payload cache")
	}
	defer cacheSvc.Close()

	dispatcher := dispatch.New(nil, logg)

	// Rule substrate: EventBridge in real deployments, embedded in-process
	// timers for dev. The embedded substrate invokes the dispatcher
	// directly, so the internal dispatch route stays disabled there.
	var (
		rules     substrate.Client
		targetARN = cfg.Substrate.TargetARN
	)
	switch cfg.Substrate.Mode {
	case config.SubstrateEventBridge:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Substrate.Region))
		if err != nil {
			return fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		rules = substrate.NewEventBridge(awsCfg)
	case config.SubstrateEmbedded:
		emb := substrate.NewEmbedded(dispatcher, logg)
		defer emb.Close()
		rules = emb
		if targetARN == "" {
			targetARN = "embedded:dispatch"
		}
	default:
		return fmt.Errorf("unknown substrate mode %q", cfg.Substrate.Mode)
	}

	// -------------------------------------------------------------------------
	// 3. Wiring (Dependency Injection)
	// -------------------------------------------------------------------------
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTLMinutes)
	engine := scheduler.NewEngine(rules, ownerships, cacheSvc, targetARN, logg)
	app := api.NewAPI(accounts, engine, tokens, dispatcher, logg, cfg.Auth.BcryptCost, cfg.Substrate.DispatchToken)

	// -------------------------------------------------------------------------
	// 4. HTTP Servers
	// -------------------------------------------------------------------------
	server := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           app.Router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		MaxHeaderBytes:    cfg.Server.MaxHeaderBytes,
	}

	var admin *observability.Server
	if cfg.Observability.Enabled {
		admin = observability.NewServer(logg, &cfg.Observability,
			&observability.PostgresChecker{Pool: pool},
			&observability.CacheChecker{Cache: cacheSvc},
		)
		admin.Start()
	}

	errChan := make(chan error, 1)
	go func() {
		logg.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server failed: %w", err)
		}
	}()

	// -------------------------------------------------------------------------
	// 5. Graceful Shutdown
	// -------------------------------------------------------------------------
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		logg.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}
	if admin != nil {
		if err := admin.Shutdown(shutdownCtx); err != nil {
			logg.Warn("admin server shutdown failed", "error", err)
		}
	}

	logg.Info("service exited successfully")
	return nil
}
