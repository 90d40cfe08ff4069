// Package main initializes and runs the timegate sweep worker.
//
// The worker runs the daily and monthly expiry passes on their cron
// schedules, tearing down rules whose trigger date has passed.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/garyfan1/timegate/internal/config"
	"github.com/garyfan1/timegate/internal/logger"
	"github.com/garyfan1/timegate/internal/observability"
	"github.com/garyfan1/timegate/internal/substrate"
	"github.com/garyfan1/timegate/internal/sweeper"
)

// main is the application entrypoint.
func main() {
	if err := run(); err != nil {
		log.Printf("Fatal error: %v", err)
		os.Exit(1)
	}
}

// run executes the worker lifecycle.
func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.New(&cfg.App)
	cfg.LogConfig(logg)

	// The sweep only makes sense against a durable substrate. An embedded
	// substrate lives inside the API process and loses its rules on
	// restart, so there is nothing for a separate worker to collect.
	if cfg.Substrate.Mode != config.SubstrateEventBridge {
		return fmt.Errorf("sweeper requires the eventbridge substrate, got %q", cfg.Substrate.Mode)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Substrate.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	rules := substrate.NewEventBridge(awsCfg)

	var admin *observability.Server
	if cfg.Observability.Enabled {
		admin = observability.NewServer(logg, &cfg.Observability)
		admin.Start()
		defer func() {
			if err := admin.Shutdown(context.Background()); err != nil {
				logg.Warn("admin server shutdown failed", "error", err)
			}
		}()
	}

	svc := sweeper.New(logg, cfg.Sweeper, rules)

	logg.Info("sweep worker started",
		"daily_spec", cfg.Sweeper.DailySpec,
		"monthly_spec", cfg.Sweeper.MonthlySpec,
	)
	return svc.Run(ctx)
}
