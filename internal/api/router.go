package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/api/handler"
	"github.com/greyfinance/ledger-engine/internal/api/middleware"
	"github.com/greyfinance/ledger-engine/internal/idempotency"
	"github.com/greyfinance/ledger-engine/internal/service"
	"github.com/greyfinance/ledger-engine/internal/wallet"
)

// Deps carries everything the router needs. Services are constructed by the
// app and injected here so tests can wire substitutes.
type Deps struct {
	DB          *pgxpool.Pool
	Redis       redis.Cmdable
	Idempotency *idempotency.Store
	Logger      *zap.Logger

	Accounts    *service.AccountService
	Deposits    *service.DepositService
	Withdrawals *service.WithdrawalService
	Trades      *service.TradeService
	Promos      *service.PromoService
	Rewards     *service.RewardService
	Ranks       *service.RankService
	WalletPool  *wallet.Pool

	WebhookHMACKey     string
	AdminLoginKey      string
	PublicRateLimitRPS int
	AuthRateLimitRPS   int
}

// NewRouter assembles the HTTP surface: public signup/login plus webhooks,
// token-gated account routes, and an admin-only group.
func NewRouter(deps Deps) chi.Router {
	authHandler := handler.NewAuthHandler(deps.Accounts, deps.AdminLoginKey)
	accountHandler := handler.NewAccountHandler(deps.Accounts)
	depositHandler := handler.NewDepositHandler(deps.Deposits)
	withdrawalHandler := handler.NewWithdrawalHandler(deps.Withdrawals)
	tradeHandler := handler.NewTradeHandler(deps.Trades)
	streamHandler := handler.NewStreamHandler(deps.Trades)
	promoHandler := handler.NewPromoHandler(deps.Promos)
	rewardHandler := handler.NewRewardHandler(deps.Rewards)
	rankHandler := handler.NewRankHandler(deps.Ranks)
	walletHandler := handler.NewWalletHandler(deps.WalletPool)
	webhookHandler := handler.NewWebhookHandler(deps.Deposits, deps.WebhookHMACKey)
	healthHandler := handler.NewHealthHandler(deps.DB, deps.Redis)

	idem := middleware.IdempotencyMiddleware(deps.Idempotency, deps.Logger)

	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.RecoverMiddleware(deps.Logger))
	r.Use(middleware.LoggingMiddleware(deps.Logger))
	r.Use(middleware.MetricsMiddleware)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz/live", healthHandler.Live)
	r.Get("/healthz/ready", healthHandler.Ready)

	// Public routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(deps.PublicRateLimitRPS))

		r.Post("/v1/auth/login", authHandler.Login)
		r.Post("/v1/accounts", accountHandler.CreateAccount)
		r.Get("/v1/ranks", rankHandler.Table)
		r.Get("/v1/wallets/networks", walletHandler.Networks)
		r.Post("/v1/webhooks/gateway", webhookHandler.GatewayConfirmation)
	})

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(deps.AuthRateLimitRPS))

		r.Get("/v1/accounts/{id}", accountHandler.GetAccount)
		r.Get("/v1/accounts/{id}/notifications", accountHandler.ListNotifications)
		r.Get("/v1/accounts/{id}/deposits", depositHandler.ListByAccount)
		r.Get("/v1/accounts/{id}/withdrawals", withdrawalHandler.ListByAccount)
		r.Get("/v1/accounts/{id}/trades", tradeHandler.ListByAccount)

		r.With(idem).Post("/v1/deposits", depositHandler.Submit)
		r.With(idem).Post("/v1/deposits/gateway", depositHandler.SubmitGateway)
		r.Get("/v1/deposits/{id}", depositHandler.Get)

		r.With(idem).Post("/v1/withdrawals", withdrawalHandler.Submit)

		r.With(idem).Post("/v1/trades", tradeHandler.Open)
		r.Get("/v1/trades/{id}", tradeHandler.Get)
		r.Get("/v1/trades/{id}/stream", streamHandler.Trade)

		r.With(idem).Post("/v1/promos/redeem", promoHandler.Redeem)
		r.With(idem).Post("/v1/rewards/claim", rewardHandler.Claim)

		r.Post("/v1/wallets/lease", walletHandler.Lease)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole("admin"))

			r.Post("/v1/admin/accounts/{id}/ban", accountHandler.SetBanned)
			r.Post("/v1/admin/deposits/{id}/approve", depositHandler.Approve)
			r.Post("/v1/admin/deposits/{id}/reject", depositHandler.Reject)
			r.Post("/v1/admin/withdrawals/{id}/approve", withdrawalHandler.Approve)
			r.Post("/v1/admin/withdrawals/{id}/reject", withdrawalHandler.Reject)
			r.Post("/v1/admin/trades/{id}/cancel", tradeHandler.Cancel)
			r.Post("/v1/admin/promos", promoHandler.Create)
			r.Post("/v1/admin/promos/{code}/disable", promoHandler.Disable)
			r.Put("/v1/admin/ranks", rankHandler.UpsertBand)
		})
	})

	return r
}
