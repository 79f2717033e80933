package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/nekolators/internal/api"
	"github.com/mmynk/nekolators/internal/config"
	"github.com/mmynk/nekolators/internal/metrics"
	"github.com/mmynk/nekolators/internal/receipt"
	"github.com/mmynk/nekolators/internal/storage"
	"github.com/mmynk/nekolators/internal/storage/badger"
	"github.com/mmynk/nekolators/internal/storage/cache"
	"github.com/mmynk/nekolators/internal/storage/postgres"
	"github.com/mmynk/nekolators/internal/storage/sqlite"
	"github.com/mmynk/nekolators/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrEnv(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 8080, "port to listen on (overrides config)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	extractor, closeExtractor, err := newExtractor(ctx, cfg.Receipt)
	if err != nil {
		return err
	}
	defer closeExtractor()

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		PublicBaseURL:  cfg.Server.PublicBaseURL,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		StaticPath:     cfg.Server.StaticPath,
		MaxUploadBytes: cfg.Receipt.MaxUploadBytes,
	}, store, extractor, metrics.NewRegistry(), logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(server.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// openStore opens the configured storage backend, wrapped in the Redis cache
// when one is configured. The returned func releases everything it opened.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func(), error) {
	var (
		store storage.Store
		err   error
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err = sqlite.New(cfg.Storage.SQLitePath)
	case config.DriverBadger:
		store, err = badger.New(cfg.Storage.BadgerDir)
	case config.DriverPostgres:
		store, err = postgres.New(cfg.Storage.PostgresDSN)
	default:
		err = fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	slog.Info("Storage initialized", "driver", cfg.Storage.Driver)

	closeStore := func() {
		if err := store.Close(); err != nil {
			slog.Error("Failed to close storage", "error", err)
		}
	}

	if cfg.Cache.RedisAddr == "" {
		return store, closeStore, nil
	}

	rdb, err := cache.Connect(ctx, cfg.Cache.RedisAddr)
	if err != nil {
		closeStore()
		return nil, nil, err
	}
	slog.Info("Redis cache enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL)

	return cache.New(store, rdb, cfg.Cache.TTL), func() {
		closeStore()
		if err := rdb.Close(); err != nil {
			slog.Error("Failed to close redis client", "error", err)
		}
	}, nil
}

// newExtractor builds the configured receipt extractor. It returns a nil
// extractor when none is usable, which disables image uploads.
func newExtractor(ctx context.Context, cfg config.ReceiptConfig) (receipt.Extractor, func(), error) {
	noop := func() {}

	switch cfg.Extractor {
	case config.ExtractorGemini:
		if cfg.GeminiAPIKey == "" {
			slog.Warn("Gemini extractor selected without an API key; receipt uploads are disabled")
			return nil, noop, nil
		}
		g, err := receipt.NewGeminiExtractor(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Receipt extraction via Gemini", "model", cfg.GeminiModel)
		return g, func() { g.Close() }, nil
	default:
		if cfg.WebhookURL == "" {
			slog.Info("No receipt webhook configured; receipt uploads are disabled")
			return nil, noop, nil
		}
		slog.Info("Receipt extraction via webhook", "url", cfg.WebhookURL)
		return receipt.NewWebhookExtractor(cfg.WebhookURL), noop, nil
	}
}
