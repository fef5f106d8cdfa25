package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ARIHANT218/Finance-Tracker/internal/auth"
	"github.com/ARIHANT218/Finance-Tracker/internal/config"
	"github.com/ARIHANT218/Finance-Tracker/internal/database"
	"github.com/ARIHANT218/Finance-Tracker/internal/export"
	financeHttp "github.com/ARIHANT218/Finance-Tracker/internal/http"
	exportHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/export"
	importHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/importcsv"
	matchingHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/matching"
	txHandler "github.com/ARIHANT218/Finance-Tracker/internal/http/transaction"
	"github.com/ARIHANT218/Finance-Tracker/internal/importer"
	"github.com/ARIHANT218/Finance-Tracker/internal/matching"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction/memstore"
	"github.com/ARIHANT218/Finance-Tracker/internal/transaction/mongostore"
	txStore "github.com/ARIHANT218/Finance-Tracker/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeRepo()

	resolver, err := newResolver(cfg)
	if err != nil {
		slog.Error("failed to configure auth", "error", err)
		os.Exit(1)
	}

	var (
		transactionService = transaction.NewService(repo, transaction.WithAmountPolicy(cfg.Transactions.AmountPolicy))
		matchingService    = matching.NewService(transactionService)
		importService      = importer.NewService(transactionService, matchingService)
		exportService      = export.NewService(transactionService)
	)

	var (
		transactionH = txHandler.NewHandler(transactionService)
		importH      = importHandler.NewHandler(importService)
		exportH      = exportHandler.NewHandler(exportService)
		matchingH    = matchingHandler.NewHandler(matchingService)
	)

	router := financeHttp.New(financeHttp.Options{
		Resolver:       resolver,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, transactionH, importH, exportH, matchingH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server",
			"app", cfg.App.Name, "port", srv.Addr, "storage", cfg.Storage.Driver, "auth", cfg.Auth.Mode)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "error", err)
			closeRepo()
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}

func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel()}

	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler).With("app", cfg.App.Name))
}

// openRepository connects the configured backend. The returned func releases it.
func openRepository(ctx context.Context, cfg *config.Config) (transaction.Repository, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := database.New(cfg.ConnectionString())
		if err != nil {
			return nil, nil, err
		}

		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}

		return txStore.New(db), func() { db.Close() }, nil

	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		client, err := database.NewMongo(connectCtx, cfg.Mongo.URI)
		if err != nil {
			return nil, nil, err
		}

		disconnect := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				slog.Error("failed to disconnect from mongo", "error", err)
			}
		}

		store := mongostore.New(client.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection))
		if err := store.EnsureIndexes(connectCtx); err != nil {
			disconnect()
			return nil, nil, err
		}

		return store, disconnect, nil

	case config.DriverMemory:
		slog.Warn("using in-memory storage; data is lost on restart")
		return memstore.New(), func() {}, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}

func newResolver(cfg *config.Config) (auth.Resolver, error) {
	switch cfg.Auth.Mode {
	case config.AuthStatic:
		slog.Warn("all requests are attributed to a fixed owner", "owner", cfg.Auth.StaticOwner)
		return auth.StaticResolver{Owner: cfg.Auth.StaticOwner}, nil
	case config.AuthJWT:
		return auth.NewJWTResolver(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer), nil
	}

	return nil, fmt.Errorf("unknown auth mode %q", cfg.Auth.Mode)
}
