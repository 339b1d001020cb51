package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/api-sage/core-banking-ledger/internal/adapter/http/controller"
	"github.com/api-sage/core-banking-ledger/internal/adapter/http/middleware"
	"github.com/api-sage/core-banking-ledger/internal/adapter/http/router"
	"github.com/api-sage/core-banking-ledger/internal/adapter/repository/memory"
	"github.com/api-sage/core-banking-ledger/internal/adapter/repository/postgres"
	"github.com/api-sage/core-banking-ledger/internal/adapter/repository/rediscache"
	"github.com/api-sage/core-banking-ledger/internal/config"
	"github.com/api-sage/core-banking-ledger/internal/domain"
	"github.com/api-sage/core-banking-ledger/internal/logger"
	"github.com/api-sage/core-banking-ledger/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	accounts, movements, closeStores, err := buildStores(cfg)
	if err != nil {
		log.Fatalf("initialize stores: %v", err)
	}
	defer closeStores()

	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		accounts = rediscache.NewAccountCache(accounts, client, cfg.CacheTTL)
		logger.Info("account cache enabled", logger.Fields{"redisAddr": cfg.RedisAddr})
	}

	ids := services.NewIdentifierGenerator(accounts, movements)
	ledger := services.NewAccountLedger(accounts, ids)
	processor := services.NewTransactionProcessor(ledger, accounts, movements, ids)
	reversals := services.NewReversalEngine(movements, processor, ids)

	accountController := controller.NewAccountController(ledger)
	movementController := controller.NewMovementController(processor, reversals)
	auth := middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKeyHash)

	mux := router.New(accountController, movementController, auth)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server listening", logger.Fields{"addr": cfg.ListenAddr, "storeDriver": cfg.StoreDriver})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", err, nil)
			shutdown <- syscall.SIGTERM
		}
	}()

	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", err, nil)
	}
	logger.Info("server stopped", nil)
}

func buildStores(cfg config.Config) (domain.AccountStore, domain.MovementStore, func(), error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		return memory.NewAccountStore(), memory.NewMovementStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, nil, nil, err
	}

	if err := postgres.RunMigrations(ctx, db, cfg.MigrationsDir); err != nil {
		db.Close()
		return nil, nil, nil, err
	}

	return postgres.NewAccountStore(db), postgres.NewMovementStore(db), func() { db.Close() }, nil
}
