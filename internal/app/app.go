package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/api"
	"github.com/greyfinance/ledger-engine/internal/api/middleware"
	"github.com/greyfinance/ledger-engine/internal/config"
	"github.com/greyfinance/ledger-engine/internal/db"
	"github.com/greyfinance/ledger-engine/internal/gateway"
	"github.com/greyfinance/ledger-engine/internal/idempotency"
	"github.com/greyfinance/ledger-engine/internal/notify"
	"github.com/greyfinance/ledger-engine/internal/observability"
	"github.com/greyfinance/ledger-engine/internal/service"
	"github.com/greyfinance/ledger-engine/internal/storage/postgres"
	"github.com/greyfinance/ledger-engine/internal/wallet"
	"github.com/greyfinance/ledger-engine/internal/worker"
)

// Run bootstraps the HTTP server and background workers, blocking until
// shutdown.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	observability.Init()
	middleware.SetJWTSecret(cfg.JWTSecret)
	middleware.SetJWTValidation(cfg.JWTIssuer, cfg.JWTAudience)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("migrations applied")
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	redisClient, err := newRedisClient(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close()

	idemStore := idempotency.NewStore(redisClient, cfg.IdempotencyTTL)
	store := postgres.NewStore(pool)

	var notifier service.Notifier
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		logger.Info("kafka notifier enabled",
			zap.Strings("brokers", cfg.KafkaBrokers),
			zap.String("topic", cfg.KafkaTopic),
		)
	} else {
		notifier = notify.LogNotifier{}
	}

	accountSvc, err := service.NewAccountService(store)
	if err != nil {
		return fmt.Errorf("init account service: %w", err)
	}
	depositSvc := service.NewDepositService(store, notifier)
	withdrawalSvc := service.NewWithdrawalService(store, gateway.NewMockGateway(), notifier)
	tradeSvc := service.NewTradeService(store, notifier)
	promoSvc := service.NewPromoService(store, notifier)
	rewardSvc := service.NewRewardService(store, notifier)
	rankSvc := service.NewRankService(store)
	walletPool := wallet.NewPool(store)

	reaper := worker.NewReaperWorker(depositSvc).WithPollInterval(cfg.ReaperInterval)
	stopReaper := reaper.Run(ctx)
	logger.Info("deposit reaper started", zap.Duration("interval", cfg.ReaperInterval))

	trader := worker.NewTradeWorker(tradeSvc).WithTickInterval(cfg.TradeTickInterval)
	stopTrader := trader.Run(ctx)
	logger.Info("trade worker started", zap.Duration("interval", cfg.TradeTickInterval))

	router := api.NewRouter(api.Deps{
		DB:          pool,
		Redis:       redisClient,
		Idempotency: idemStore,
		Logger:      logger,

		Accounts:    accountSvc,
		Deposits:    depositSvc,
		Withdrawals: withdrawalSvc,
		Trades:      tradeSvc,
		Promos:      promoSvc,
		Rewards:     rewardSvc,
		Ranks:       rankSvc,
		WalletPool:  walletPool,

		WebhookHMACKey:     cfg.WebhookHMACKey,
		AdminLoginKey:      cfg.AdminLoginKey,
		PublicRateLimitRPS: cfg.PublicRateLimitRPS,
		AuthRateLimitRPS:   cfg.AuthRateLimitRPS,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("port", cfg.HTTPPort))
		serverErr <- server.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	}

	logger.Info("stopping workers")
	stopReaper()
	stopTrader()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown failed", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	switch strings.ToLower(level) {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info", "":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

func newRedisClient(url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}
