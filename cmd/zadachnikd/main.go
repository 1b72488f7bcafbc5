// Command zadachnikd is the task-manager bot daemon. It connects the
// Telegram gateway, the dialogue engine, and the reminder scanner, all
// driven by a YAML config file.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dkrasnov/zadachnik/bot"
	"github.com/dkrasnov/zadachnik/config"
	"github.com/dkrasnov/zadachnik/internal/version"
	"github.com/dkrasnov/zadachnik/reminder"
	"github.com/dkrasnov/zadachnik/task"
	"github.com/dkrasnov/zadachnik/transport/telegram"
)

var configPath = flag.String("config", "zadachnik.yaml", "path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	logger.Info("starting zadachnikd",
		"version", version.Version,
		"commit", version.Commit,
	)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer closeStore()

	if cfg.Telegram.Token == "" {
		log.Fatal("No telegram token configured (telegram.token or TELEGRAM_TOKEN)")
	}
	gw, err := telegram.New(cfg.Telegram.Token, logger)
	if err != nil {
		log.Fatalf("Failed to init telegram gateway: %v", err)
	}

	b := bot.New(gw, store, logger)
	b.Bind()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scanner := reminder.New(store, gw, cfg.Reminder.ScanInterval(), logger)
	go scanner.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- gw.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
		cancel()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("gateway stopped", "error", err)
		}
	}
}

// openStore builds the configured backend wrapped with per-user write
// serialization.
func openStore(cfg *config.Config) (task.Store, func(), error) {
	switch cfg.Storage.Backend {
	case "", "csv":
		s, err := task.NewCSVStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return task.NewLockingStore(s), func() {}, nil
	case "sqlite":
		s, err := task.NewSQLiteStore(cfg.Storage.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return task.NewLockingStore(s), func() { s.Close() }, nil
	default:
		return nil, nil, &task.StorageError{Op: "open store", Err: errUnknownBackend(cfg.Storage.Backend)}
	}
}

type errUnknownBackend string

func (e errUnknownBackend) Error() string { return "unknown storage backend: " + string(e) }

func logLevel(s string) slog.Level {
	switch s {
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
