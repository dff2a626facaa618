package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/amosroger91/prospector/internal/app"
	"github.com/amosroger91/prospector/internal/config"
	"github.com/amosroger91/prospector/pkg/logger"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM. Cancellation stops
	// unstarted candidates; in-flight probes finish under their own
	// per-call timeouts.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel),
			logger.Error(err),
		)
		_ = logger.SetLevelString("info")
	}

	svc := app.New(
		app.WithConfig(cfg),
		app.WithLogger(log),
	)
	summary, err := svc.Run(ctx)
	if err != nil {
		log.Error(ctx, "run failed", logger.Error(err))
		os.Exit(1)
	}
	if summary.Scored == 0 {
		log.Warn(ctx, "no candidates survived verification")
	}
}
