package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/jswalia/karigar/internal/auth"
	"github.com/jswalia/karigar/internal/config"
	"github.com/jswalia/karigar/internal/database"
	karigarHttp "github.com/jswalia/karigar/internal/http"
	ownerHandler "github.com/jswalia/karigar/internal/http/owner"
	statsHandler "github.com/jswalia/karigar/internal/http/stats"
	txHandler "github.com/jswalia/karigar/internal/http/transaction"
	userHandler "github.com/jswalia/karigar/internal/http/user"
	"github.com/jswalia/karigar/internal/ledger"
	ledgerStore "github.com/jswalia/karigar/internal/ledger/store"
	"github.com/jswalia/karigar/internal/owner"
	ownerStore "github.com/jswalia/karigar/internal/owner/store"
	"github.com/jswalia/karigar/internal/recon"
	"github.com/jswalia/karigar/internal/stats"
	statsStore "github.com/jswalia/karigar/internal/stats/store"
	"github.com/jswalia/karigar/internal/user"
	userStore "github.com/jswalia/karigar/internal/user/store"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.New(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Client().Disconnect(ctx); err != nil {
			slog.Error("failed to disconnect from database", "error", err)
		}
	}()

	if err := ensureIndexes(ctx, db); err != nil {
		slog.Error("failed to create indexes", "error", err)
		os.Exit(1)
	}

	var (
		txs     = ledgerStore.New(db)
		owners  = ownerStore.New(db)
		users   = userStore.New(db)
		metrics = statsStore.New(db)
	)

	var (
		ledgerService = ledger.NewService(txs, owners, txs, ledgerStore.Pending{Store: txs})
		ownerService  = owner.NewService(owners)
		userService   = user.NewService(users, cfg.Auth.BcryptCost)
		statsService  = stats.NewService(metrics, ledgerService, func() string {
			return time.Now().Format(time.DateOnly)
		})
	)

	tokens := auth.NewManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	reconciler := recon.New(ledgerService, cfg.Recon.Schedule)
	if err := reconciler.Start(); err != nil {
		slog.Error("failed to start reconciler", "error", err)
		os.Exit(1)
	}
	defer reconciler.Stop()

	var (
		transactionH = txHandler.NewHandler(ledgerService)
		ownerH       = ownerHandler.NewHandler(ownerService)
		userH        = userHandler.NewHandler(userService, tokens)
		statsH       = statsHandler.NewHandler(statsService)
	)

	router := karigarHttp.New(tokens, transactionH, ownerH, userH, statsH)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "app", cfg.App.Name, "port", port)

	server := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := server.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	for _, ensure := range []func(context.Context, *mongo.Database) error{
		ledgerStore.EnsureIndexes,
		ownerStore.EnsureIndexes,
		userStore.EnsureIndexes,
	} {
		if err := ensure(ctx, db); err != nil {
			return err
		}
	}

	return nil
}
