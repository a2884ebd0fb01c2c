// Package storage defines the data access contract shared by the postgres
// and in-memory implementations. Services never touch a database handle
// directly; they run their read-modify-write cycles through Store.RunInTx so
// that single-entity mutations serialize on the row lock.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

// Querier is the full query surface. Methods suffixed ForUpdate acquire an
// exclusive lock on the returned row for the remainder of the enclosing
// transaction.
type Querier interface {
	// Accounts
	CreateAccount(ctx context.Context, a *domain.Account) error
	GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	UpdateAccountBalances(ctx context.Context, id uuid.UUID, locked, withdrawable decimal.Decimal) error
	UpdateAccountRank(ctx context.Context, id uuid.UUID, rankID *uuid.UUID) error
	UpdateAccountReferralStats(ctx context.Context, id uuid.UUID, totalReferrals, validReferrals int, earnings decimal.Decimal) error
	SetAccountBanned(ctx context.Context, id uuid.UUID, banned bool) error
	SetAccountLastWithdrawal(ctx context.Context, id uuid.UUID, at time.Time) error

	// Rank bands
	ListRankBands(ctx context.Context) ([]domain.RankBand, error)
	UpsertRankBand(ctx context.Context, b *domain.RankBand) error

	// Deposits
	CreateDeposit(ctx context.Context, d *domain.Deposit) error
	GetDeposit(ctx context.Context, id uuid.UUID) (*domain.Deposit, error)
	GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*domain.Deposit, error)
	GetDepositByReference(ctx context.Context, reference string) (*domain.Deposit, error)
	UpdateDeposit(ctx context.Context, d *domain.Deposit) error
	ListDepositsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Deposit, error)
	ListExpiredApprovedDeposits(ctx context.Context, now time.Time) ([]domain.Deposit, error)

	// Referrals
	CreateReferral(ctx context.Context, r *domain.Referral) error
	ReferralExistsForDeposit(ctx context.Context, depositID uuid.UUID) (bool, error)

	// Copy trades
	CreateTrade(ctx context.Context, t *domain.CopyTrade) error
	GetTrade(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error)
	GetTradeForUpdate(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error)
	UpdateTrade(ctx context.Context, t *domain.CopyTrade) error
	ListTradesByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.CopyTrade, error)
	ListPendingTrades(ctx context.Context) ([]domain.CopyTrade, error)
	CountTradesSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error)

	// Promo codes
	CreatePromoCode(ctx context.Context, p *domain.PromoCode) error
	GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	GetPromoForUpdate(ctx context.Context, id uuid.UUID) (*domain.PromoCode, error)
	UpdatePromoCode(ctx context.Context, p *domain.PromoCode) error
	PromoRedemptionExists(ctx context.Context, accountID, promoID uuid.UUID) (bool, error)
	CreatePromoRedemption(ctx context.Context, r *domain.PromoRedemption) error

	// Wallet leases
	DeleteExpiredLeases(ctx context.Context, network string, now time.Time) error
	ListActiveLeases(ctx context.Context, network string, now time.Time) ([]domain.WalletLease, error)
	UpsertLease(ctx context.Context, l *domain.WalletLease) error

	// Withdrawals
	CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	GetWithdrawalForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error)
	UpdateWithdrawal(ctx context.Context, w *domain.Withdrawal) error
	ListWithdrawalsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Withdrawal, error)

	// Daily rewards
	LastRewardClaim(ctx context.Context, accountID uuid.UUID) (*domain.RewardClaim, error)
	CreateRewardClaim(ctx context.Context, c *domain.RewardClaim) error

	// Notifications
	CreateNotification(ctx context.Context, n *domain.Notification) error
	ListNotificationsByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Notification, error)
}

// Store scopes queries to a transaction. RunInTx rolls the whole unit back
// when fn returns an error, so callers can rely on all-or-nothing semantics
// for multi-entity mutations (deposit approval plus referral settlement).
type Store interface {
	Querier
	RunInTx(ctx context.Context, fn func(q Querier) error) error
}
