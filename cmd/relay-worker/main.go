// Package main is the entrypoint for the notification relay worker.
//
// The worker is a long-lived daemon that consumes humanized notification
// events from RabbitMQ, posts them to a configured webhook (Alertmanager or
// Apprise), and routes each event onward: delivered events to the forward
// queue, failed ones to a TTL dead-letter reprocess queue for a fixed-delay
// retry.
//
// Startup:
//  1. Initialize the structured logger.
//  2. Load configuration (.env + environment; fail fast on invalid config).
//  3. Connect to RabbitMQ (fatal if unreachable, no retry loop).
//  4. Build renderer, delivery channel, router, and relay worker.
//  5. Run the relay loop and the ops probe server under one errgroup.
//
// SIGINT/SIGTERM cancels the run context; the worker drains its in-flight
// message, the broker connection is closed, and the process exits 0.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"notifyrelay/internal/config"
	"notifyrelay/internal/ops"
	"notifyrelay/internal/queue"
	"notifyrelay/internal/relay"
	"notifyrelay/internal/render"
	"notifyrelay/internal/types"
	"notifyrelay/internal/webhook"
)

// slogAdapter wraps *slog.Logger to implement the types.Logger interface.
// slog satisfies Info/Warn/Error directly, but its With returns a concrete
// *slog.Logger, so an adapter is necessary.
type slogAdapter struct {
	logger *slog.Logger
}

func (a *slogAdapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *slogAdapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *slogAdapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *slogAdapter) With(args ...any) types.Logger {
	return &slogAdapter{logger: a.logger.With(args...)}
}

// Compile-time assertion that slogAdapter implements types.Logger.
var _ types.Logger = (*slogAdapter)(nil)

// parseLogLevel maps the configured level name to a slog.Level, defaulting
// to info for unknown names.
func parseLogLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	bootstrapLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := config.Load()
	if err != nil {
		bootstrapLogger.Error("failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	logger := &slogAdapter{logger: slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))}

	logger.Info("notification relay worker starting",
		"webhook_type", cfg.Webhook.Type,
		"webhook_url", cfg.Webhook.URL(),
		"reprocess_ttl_ms", cfg.RabbitMQ.TTLMillis,
	)

	gateway, err := queue.Dial(cfg.RabbitMQ, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ, shutting down", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if closeErr := gateway.Close(); closeErr != nil {
			logger.Warn("error closing broker connection", "error", closeErr.Error())
		} else {
			logger.Info("broker connection closed")
		}
	}()

	topology := queue.NewTopology(
		cfg.RabbitMQ.SourceNamespace,
		cfg.RabbitMQ.ForwardNamespace,
		cfg.RabbitMQ.TTLMillis,
	)
	renderer := render.ForKind(render.KindFromString(cfg.Webhook.Type))
	channel := webhook.NewChannel(cfg.Webhook, logger)
	router := queue.NewRouter(gateway, topology, logger)
	worker := relay.NewWorker(gateway, topology, renderer, channel, router, logger)

	probe := ops.NewProbe()
	worker.OnReady(probe.MarkReady)
	opsServer := ops.NewServer(cfg.Ops.Port, probe, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.Run(gctx) })
	g.Go(func() error { return opsServer.Run(gctx) })

	if err := g.Wait(); err != nil {
		logger.Error("relay worker failed", "error", err.Error())
		// os.Exit skips deferred calls, so release the broker here.
		_ = gateway.Close()
		os.Exit(1)
	}

	logger.Info("relay worker shut down cleanly")
}
