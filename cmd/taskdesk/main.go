// Package main is the entry point for the taskdesk CLI.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"taskdesk/internal/backend/rest"
	"taskdesk/internal/cli"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/live"
	"taskdesk/internal/logging"
	"taskdesk/internal/service"
	"taskdesk/internal/telemetry"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	shutdown := telemetry.Setup("taskdesk", commands.Version, logging.New(os.Stderr, false))

	factory := func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Service, error) {
		return rest.New(cfg, logger), nil
	}
	dialer := func(cfg *config.Config, logger *slog.Logger) commands.LiveDialer {
		return func(ctx context.Context) (live.Conn, error) {
			return live.Dial(ctx, cfg.Server, logger)
		}
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory, cli.WithLive(dialer))
	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)

	if err := shutdown(context.Background()); err != nil {
		logging.New(os.Stderr, false).Error("telemetry shutdown", "err", err)
	}
	os.Exit(code)
}
