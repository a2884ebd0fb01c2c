package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

// Non-transactional access. Each call takes the store mutex for its duration,
// mirroring the single-statement autocommit behavior of the pgx store.

func (st *Store) CreateAccount(ctx context.Context, a *domain.Account) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreateAccount(ctx, a)
}

func (st *Store) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetAccount(ctx, id)
}

func (st *Store) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetAccountForUpdate(ctx, id)
}

func (st *Store) GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetAccountByReferralCode(ctx, code)
}

func (st *Store) UpdateAccountBalances(ctx context.Context, id uuid.UUID, locked, withdrawable decimal.Decimal) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpdateAccountBalances(ctx, id, locked, withdrawable)
}

func (st *Store) UpdateAccountRank(ctx context.Context, id uuid.UUID, rankID *uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpdateAccountRank(ctx, id, rankID)
}

func (st *Store) UpdateAccountReferralStats(ctx context.Context, id uuid.UUID, totalReferrals, validReferrals int, earnings decimal.Decimal) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpdateAccountReferralStats(ctx, id, totalReferrals, validReferrals, earnings)
}

func (st *Store) SetAccountBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).SetAccountBanned(ctx, id, banned)
}

func (st *Store) SetAccountLastWithdrawal(ctx context.Context, id uuid.UUID, at time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).SetAccountLastWithdrawal(ctx, id, at)
}

func (st *Store) ListRankBands(ctx context.Context) ([]domain.RankBand, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListRankBands(ctx)
}

func (st *Store) UpsertRankBand(ctx context.Context, b *domain.RankBand) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpsertRankBand(ctx, b)
}

func (st *Store) CreateDeposit(ctx context.Context, d *domain.Deposit) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreateDeposit(ctx, d)
}

func (st *Store) GetDeposit(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetDeposit(ctx, id)
}

func (st *Store) GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetDepositForUpdate(ctx, id)
}

func (st *Store) GetDepositByReference(ctx context.Context, reference string) (*domain.Deposit, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetDepositByReference(ctx, reference)
}

func (st *Store) UpdateDeposit(ctx context.Context, d *domain.Deposit) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpdateDeposit(ctx, d)
}

func (st *Store) ListDepositsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Deposit, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListDepositsByAccount(ctx, accountID, limit, offset)
}

func (st *Store) ListExpiredApprovedDeposits(ctx context.Context, now time.Time) ([]domain.Deposit, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListExpiredApprovedDeposits(ctx, now)
}

func (st *Store) CreateReferral(ctx context.Context, r *domain.Referral) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreateReferral(ctx, r)
}

func (st *Store) ReferralExistsForDeposit(ctx context.Context, depositID uuid.UUID) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ReferralExistsForDeposit(ctx, depositID)
}

func (st *Store) CreateTrade(ctx context.Context, t *domain.CopyTrade) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreateTrade(ctx, t)
}

func (st *Store) GetTrade(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetTrade(ctx, id)
}

func (st *Store) GetTradeForUpdate(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetTradeForUpdate(ctx, id)
}

func (st *Store) UpdateTrade(ctx context.Context, t *domain.CopyTrade) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpdateTrade(ctx, t)
}

func (st *Store) ListTradesByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.CopyTrade, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListTradesByAccount(ctx, accountID, limit, offset)
}

func (st *Store) ListPendingTrades(ctx context.Context) ([]domain.CopyTrade, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListPendingTrades(ctx)
}

func (st *Store) CountTradesSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CountTradesSince(ctx, accountID, since)
}

func (st *Store) CreatePromoCode(ctx context.Context, p *domain.PromoCode) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreatePromoCode(ctx, p)
}

func (st *Store) GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetPromoByCode(ctx, code)
}

func (st *Store) GetPromoForUpdate(ctx context.Context, id uuid.UUID) (*domain.PromoCode, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetPromoForUpdate(ctx, id)
}

func (st *Store) UpdatePromoCode(ctx context.Context, p *domain.PromoCode) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpdatePromoCode(ctx, p)
}

func (st *Store) PromoRedemptionExists(ctx context.Context, accountID, promoID uuid.UUID) (bool, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).PromoRedemptionExists(ctx, accountID, promoID)
}

func (st *Store) CreatePromoRedemption(ctx context.Context, r *domain.PromoRedemption) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreatePromoRedemption(ctx, r)
}

func (st *Store) DeleteExpiredLeases(ctx context.Context, network string, now time.Time) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).DeleteExpiredLeases(ctx, network, now)
}

func (st *Store) ListActiveLeases(ctx context.Context, network string, now time.Time) ([]domain.WalletLease, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListActiveLeases(ctx, network, now)
}

func (st *Store) UpsertLease(ctx context.Context, l *domain.WalletLease) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpsertLease(ctx, l)
}

func (st *Store) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreateWithdrawal(ctx, w)
}

func (st *Store) GetWithdrawalForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).GetWithdrawalForUpdate(ctx, id)
}

func (st *Store) UpdateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).UpdateWithdrawal(ctx, w)
}

func (st *Store) ListWithdrawalsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Withdrawal, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListWithdrawalsByAccount(ctx, accountID, limit, offset)
}

func (st *Store) LastRewardClaim(ctx context.Context, accountID uuid.UUID) (*domain.RewardClaim, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).LastRewardClaim(ctx, accountID)
}

func (st *Store) CreateRewardClaim(ctx context.Context, c *domain.RewardClaim) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreateRewardClaim(ctx, c)
}

func (st *Store) CreateNotification(ctx context.Context, n *domain.Notification) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).CreateNotification(ctx, n)
}

func (st *Store) ListNotificationsByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Notification, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return (&view{data: st.data}).ListNotificationsByAccount(ctx, accountID, limit)
}
