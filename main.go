package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/repositories"
	"storefront/internal/seed"
	"storefront/internal/server"
	"storefront/internal/services"
	"storefront/pkg/logger"
	"storefront/pkg/rabbitmq"

	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// application is a fully wired storefront ready to listen.
type application struct {
	server *server.Server
	close  func(ctx context.Context) error
}

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(logger.Config{
		Development: cfg.IsDevelopment(),
		Level:       cfg.Log.Level,
		Encoding:    cfg.Log.Encoding,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()
	app, err := bootstrap(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to start storefront", zap.Error(err))
	}

	// --- Start HTTP Server ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		zl.Info("starting server", zap.String("addr", cfg.App.Port), zap.String("env", cfg.App.Env))
		if err := app.server.App.Listen(cfg.App.Port); err != nil {
			zl.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	zl.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := app.server.App.ShutdownWithContext(shutdownCtx); err != nil {
		zl.Error("error during fiber shutdown", zap.Error(err))
	}
	if err := app.close(shutdownCtx); err != nil {
		zl.Error("error while releasing resources", zap.Error(err))
	}
	zl.Info("server gracefully stopped")
}

// bootstrap opens storage, connects the event broker when enabled, builds the HTTP
// application, creates the configured administrator and seeds the catalog.
func bootstrap(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*application, error) {
	repos, closeDB, err := database.Open(ctx, cfg, zl)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Database.Driver, err)
	}
	closers := []func(context.Context) error{closeDB}
	closeAll := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	opts := server.OptionsFromConfig(cfg)
	if cfg.RabbitMQ.Enabled {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQ.URL}, zl)
		if err != nil {
			_ = closeAll(ctx)
			return nil, err
		}
		closers = append(closers, func(context.Context) error { return mq.Close() })
		opts.Publisher = mq

		if err := mq.ConsumeOrderEvents(orderEventLogger(zl)); err != nil {
			zl.Warn("order event consumer not started", zap.Error(err))
		}
	}

	srv := server.New(repos, opts, zl)

	if _, err := srv.Auth.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
		_ = closeAll(ctx)
		return nil, fmt.Errorf("failed to ensure administrator: %w", err)
	}

	if cfg.SeedFile != "" {
		if err := seedCatalog(ctx, cfg, srv, repos, zl); err != nil {
			_ = closeAll(ctx)
			return nil, err
		}
	}

	return &application{server: srv, close: closeAll}, nil
}

func seedCatalog(ctx context.Context, cfg *config.Config, srv *server.Server, repos *repositories.Set, zl *zap.Logger) error {
	catalog, err := seed.LoadFile(cfg.SeedFile)
	if err != nil {
		return err
	}

	// Seeded products belong to the configured administrator when there is one.
	var ownerID string
	if email := strings.ToLower(strings.TrimSpace(cfg.Admin.Email)); email != "" {
		admin, err := repos.Users.GetByEmail(ctx, email)
		switch {
		case err == nil:
			ownerID = admin.ID
		case !errors.Is(err, apperr.ErrNotFound):
			return fmt.Errorf("failed to find catalog owner: %w", err)
		}
	}

	n, err := seed.NewSeeder(repos.Products, srv.Products, zl).Seed(ctx, ownerID, catalog)
	if err != nil {
		return fmt.Errorf("failed to seed catalog from %s: %w", cfg.SeedFile, err)
	}
	zl.Info("seed file applied", zap.String("file", cfg.SeedFile), zap.Int("products", n))
	return nil
}

// orderEventLogger returns a consumer handler that records every order event.
// Undecodable messages fail, so they are requeued once and then dropped.
func orderEventLogger(zl *zap.Logger) func(amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event services.OrderEvent
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			return fmt.Errorf("failed to decode order event: %w", err)
		}
		zl.Info("order event received",
			zap.String("event", event.Event),
			zap.String("order_id", event.OrderID),
			zap.String("status", string(event.Status)),
			zap.Bool("paid", event.IsPaid),
		)
		return nil
	}
}
