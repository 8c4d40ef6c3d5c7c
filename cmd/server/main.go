// Command server runs the formflow HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/formflow/formflow/api"
	"github.com/formflow/formflow/config"
	"github.com/formflow/formflow/export"
	"github.com/formflow/formflow/metrics"
	"github.com/formflow/formflow/store"
	"github.com/formflow/formflow/webhook"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to YAML config file")
		addr       = flag.String("addr", "", "listen address (overrides config)")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *addr, logger); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath, addr string, logger *slog.Logger) error {
	var cfg *config.Config
	if configPath != "" {
		var err error
		cfg, err = config.LoadFromFile(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = config.Load()
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	deadLetters := webhook.NewDeadLetterStore()
	sender := webhook.NewSender(cfg.Webhook.Retry, deadLetters)

	var notifier *webhook.Notifier
	if cfg.Webhook.URL != "" {
		notifier = webhook.NewNotifier(cfg.Webhook.URL, sender, logger)
		logger.Info("outbound webhook enabled", "url", cfg.Webhook.URL)
	}

	var exporter api.Exporter
	if cfg.Sheets.Configured() {
		exporter = export.NewSheetsExporter(cfg.Sheets)
		logger.Info("sheets export enabled", "client_email", cfg.Sheets.ClientEmail)
	}

	m := metrics.New()
	handler := api.NewRouter(stores, api.Config{
		JWTSecret:       cfg.Server.JWTSecret,
		ExportRateLimit: cfg.Server.ExportRateLimit,
	}, api.Deps{
		Exporter:    exporter,
		Notifier:    notifier,
		DeadLetters: webhook.NewHandler(deadLetters, sender),
		Metrics:     m,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// openStores builds the store pair for the configured driver and returns a
// cleanup func for the underlying connections.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (api.Stores, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		pg, err := store.NewPGStore(ctx, cfg.Store.PG)
		if err != nil {
			return api.Stores{}, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return api.Stores{}, nil, fmt.Errorf("migrate: %w", err)
		}
		return api.Stores{Workflows: pg.Workflows(), Records: pg.Records()}, pg.Close, nil
	case "sqlite":
		db, err := store.NewSQLiteStore(cfg.Store.SQLitePath)
		if err != nil {
			return api.Stores{}, nil, fmt.Errorf("open sqlite: %w", err)
		}
		return api.Stores{Workflows: db.Workflows(), Records: db.Records()}, func() { _ = db.Close() }, nil
	case "memory", "":
		logger.Warn("using in-memory store, data is not persisted")
		return api.Stores{Workflows: store.NewMemoryWorkflowStore(), Records: store.NewMemoryRecordStore()}, func() {}, nil
	default:
		return api.Stores{}, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
