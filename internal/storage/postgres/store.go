// Package postgres implements storage.Store on pgx. Queries run against a
// DBTX, which is either the pool or an open transaction, so the same method
// set serves both paths.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// DBTX is the subset of pgx shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Queries implements storage.Querier against a DBTX.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// Store wraps a pool with transaction scoping. The embedded Queries run
// against the pool directly for single-statement calls.
type Store struct {
	*Queries
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Queries: New(pool), pool: pool}
}

var _ storage.Querier = (*Queries)(nil)
var _ storage.Store = (*Store)(nil)

// RunInTx executes fn within a database transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(q storage.Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(New(tx)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func mapErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- accounts ---

const accountColumns = `id, email, referral_code, rank_id, locked_balance, withdrawable_balance,
	total_referrals, valid_referrals, referral_earnings, banned, last_withdrawal_at, created_at`

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.ID, &a.Email, &a.ReferralCode, &a.RankID, &a.LockedBalance, &a.WithdrawableBalance,
		&a.TotalReferrals, &a.ValidReferrals, &a.ReferralEarnings, &a.Banned, &a.LastWithdrawalAt, &a.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return a, nil
}

func (q *Queries) CreateAccount(ctx context.Context, a *domain.Account) error {
	query := `INSERT INTO accounts (id, email, referral_code, locked_balance, withdrawable_balance, referral_earnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := q.db.Exec(ctx, query, a.ID, a.Email, a.ReferralCode, a.LockedBalance, a.WithdrawableBalance, a.ReferralEarnings, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (q *Queries) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccount(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccount(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetAccountByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE referral_code = $1`
	return scanAccount(q.db.QueryRow(ctx, query, code))
}

func (q *Queries) UpdateAccountBalances(ctx context.Context, id uuid.UUID, locked, withdrawable decimal.Decimal) error {
	query := `UPDATE accounts SET locked_balance = $2, withdrawable_balance = $3 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, id, locked, withdrawable)
	if err != nil {
		return fmt.Errorf("failed to update balances: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) UpdateAccountRank(ctx context.Context, id uuid.UUID, rankID *uuid.UUID) error {
	query := `UPDATE accounts SET rank_id = $2 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, id, rankID)
	if err != nil {
		return fmt.Errorf("failed to update rank: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) UpdateAccountReferralStats(ctx context.Context, id uuid.UUID, totalReferrals, validReferrals int, earnings decimal.Decimal) error {
	query := `UPDATE accounts SET total_referrals = $2, valid_referrals = $3, referral_earnings = $4 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, id, totalReferrals, validReferrals, earnings)
	if err != nil {
		return fmt.Errorf("failed to update referral stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) SetAccountBanned(ctx context.Context, id uuid.UUID, banned bool) error {
	query := `UPDATE accounts SET banned = $2 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, id, banned)
	if err != nil {
		return fmt.Errorf("failed to set banned flag: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) SetAccountLastWithdrawal(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `UPDATE accounts SET last_withdrawal_at = $2 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("failed to set last withdrawal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// --- rank bands ---

func (q *Queries) ListRankBands(ctx context.Context) ([]domain.RankBand, error) {
	query := `SELECT id, name, min_balance, max_balance, daily_profit_pct, trade_quota, color, created_at
		FROM rank_bands ORDER BY min_balance ASC`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list rank bands: %w", err)
	}
	defer rows.Close()

	var bands []domain.RankBand
	for rows.Next() {
		var b domain.RankBand
		if err := rows.Scan(&b.ID, &b.Name, &b.MinBalance, &b.MaxBalance, &b.DailyProfitPct, &b.TradeQuota, &b.Color, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rank band: %w", err)
		}
		bands = append(bands, b)
	}
	return bands, rows.Err()
}

func (q *Queries) UpsertRankBand(ctx context.Context, b *domain.RankBand) error {
	query := `INSERT INTO rank_bands (id, name, min_balance, max_balance, daily_profit_pct, trade_quota, color, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			min_balance = EXCLUDED.min_balance,
			max_balance = EXCLUDED.max_balance,
			daily_profit_pct = EXCLUDED.daily_profit_pct,
			trade_quota = EXCLUDED.trade_quota,
			color = EXCLUDED.color`
	_, err := q.db.Exec(ctx, query, b.ID, b.Name, b.MinBalance, b.MaxBalance, b.DailyProfitPct, b.TradeQuota, b.Color, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert rank band: %w", err)
	}
	return nil
}

// --- deposits ---

const depositColumns = `id, account_id, kind, amount, network, wallet_address, reference, status,
	referrer_id, approved_at, expires_at, created_at`

func scanDeposit(row pgx.Row) (*domain.Deposit, error) {
	d := &domain.Deposit{}
	err := row.Scan(&d.ID, &d.AccountID, &d.Kind, &d.Amount, &d.Network, &d.WalletAddress, &d.Reference,
		&d.Status, &d.ReferrerID, &d.ApprovedAt, &d.ExpiresAt, &d.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return d, nil
}

func (q *Queries) CreateDeposit(ctx context.Context, d *domain.Deposit) error {
	query := `INSERT INTO deposits (id, account_id, kind, amount, network, wallet_address, reference, status, referrer_id, approved_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := q.db.Exec(ctx, query, d.ID, d.AccountID, d.Kind, d.Amount, d.Network, d.WalletAddress, d.Reference,
		d.Status, d.ReferrerID, d.ApprovedAt, d.ExpiresAt, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deposit: %w", err)
	}
	return nil
}

func (q *Queries) GetDeposit(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1`
	return scanDeposit(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE id = $1 FOR UPDATE`
	return scanDeposit(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetDepositByReference(ctx context.Context, reference string) (*domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE reference = $1 AND reference <> ''`
	return scanDeposit(q.db.QueryRow(ctx, query, reference))
}

func (q *Queries) UpdateDeposit(ctx context.Context, d *domain.Deposit) error {
	query := `UPDATE deposits SET status = $2, referrer_id = $3, approved_at = $4, expires_at = $5 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, d.ID, d.Status, d.ReferrerID, d.ApprovedAt, d.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to update deposit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) ListDepositsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	defer rows.Close()
	return collectDeposits(rows)
}

func (q *Queries) ListExpiredApprovedDeposits(ctx context.Context, now time.Time) ([]domain.Deposit, error) {
	query := `SELECT ` + depositColumns + ` FROM deposits
		WHERE status = 'approved' AND expires_at IS NOT NULL AND expires_at <= $1
		ORDER BY approved_at ASC`
	rows, err := q.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired deposits: %w", err)
	}
	defer rows.Close()
	return collectDeposits(rows)
}

func collectDeposits(rows pgx.Rows) ([]domain.Deposit, error) {
	var deposits []domain.Deposit
	for rows.Next() {
		var d domain.Deposit
		if err := rows.Scan(&d.ID, &d.AccountID, &d.Kind, &d.Amount, &d.Network, &d.WalletAddress, &d.Reference,
			&d.Status, &d.ReferrerID, &d.ApprovedAt, &d.ExpiresAt, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deposit: %w", err)
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

// --- referrals ---

func (q *Queries) CreateReferral(ctx context.Context, r *domain.Referral) error {
	query := `INSERT INTO referrals (id, referrer_id, referee_id, deposit_id, bonus, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := q.db.Exec(ctx, query, r.ID, r.ReferrerID, r.RefereeID, r.DepositID, r.Bonus, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}
	return nil
}

func (q *Queries) ReferralExistsForDeposit(ctx context.Context, depositID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM referrals WHERE deposit_id = $1)`
	if err := q.db.QueryRow(ctx, query, depositID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check referral: %w", err)
	}
	return exists, nil
}

// --- copy trades ---

const tradeColumns = `id, account_id, pair, direction, amount, profit, status, created_at, completed_at`

func (q *Queries) CreateTrade(ctx context.Context, t *domain.CopyTrade) error {
	query := `INSERT INTO copy_trades (id, account_id, pair, direction, amount, profit, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := q.db.Exec(ctx, query, t.ID, t.AccountID, t.Pair, t.Direction, t.Amount, t.Profit, t.Status, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create trade: %w", err)
	}
	return nil
}

func scanTrade(row pgx.Row) (*domain.CopyTrade, error) {
	t := &domain.CopyTrade{}
	err := row.Scan(&t.ID, &t.AccountID, &t.Pair, &t.Direction, &t.Amount, &t.Profit, &t.Status, &t.CreatedAt, &t.CompletedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return t, nil
}

func (q *Queries) GetTrade(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error) {
	query := `SELECT ` + tradeColumns + ` FROM copy_trades WHERE id = $1`
	return scanTrade(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) GetTradeForUpdate(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error) {
	query := `SELECT ` + tradeColumns + ` FROM copy_trades WHERE id = $1 FOR UPDATE`
	return scanTrade(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) UpdateTrade(ctx context.Context, t *domain.CopyTrade) error {
	query := `UPDATE copy_trades SET profit = $2, status = $3, completed_at = $4 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, t.ID, t.Profit, t.Status, t.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to update trade: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) ListTradesByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.CopyTrade, error) {
	query := `SELECT ` + tradeColumns + ` FROM copy_trades WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	defer rows.Close()
	return collectTrades(rows)
}

func (q *Queries) ListPendingTrades(ctx context.Context) ([]domain.CopyTrade, error) {
	query := `SELECT ` + tradeColumns + ` FROM copy_trades WHERE status = 'pending' ORDER BY created_at ASC`
	rows, err := q.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending trades: %w", err)
	}
	defer rows.Close()
	return collectTrades(rows)
}

func collectTrades(rows pgx.Rows) ([]domain.CopyTrade, error) {
	var trades []domain.CopyTrade
	for rows.Next() {
		var t domain.CopyTrade
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Pair, &t.Direction, &t.Amount, &t.Profit, &t.Status, &t.CreatedAt, &t.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (q *Queries) CountTradesSince(ctx context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM copy_trades WHERE account_id = $1 AND created_at >= $2`
	if err := q.db.QueryRow(ctx, query, accountID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count trades: %w", err)
	}
	return count, nil
}

// --- promo codes ---

const promoColumns = `id, code, bonus_min, bonus_max, expiration, usage_limit, usage_count, status, created_at`

func scanPromo(row pgx.Row) (*domain.PromoCode, error) {
	p := &domain.PromoCode{}
	err := row.Scan(&p.ID, &p.Code, &p.BonusMin, &p.BonusMax, &p.Expiration, &p.UsageLimit, &p.UsageCount, &p.Status, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return p, nil
}

func (q *Queries) CreatePromoCode(ctx context.Context, p *domain.PromoCode) error {
	query := `INSERT INTO promo_codes (id, code, bonus_min, bonus_max, expiration, usage_limit, usage_count, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := q.db.Exec(ctx, query, p.ID, p.Code, p.BonusMin, p.BonusMax, p.Expiration, p.UsageLimit, p.UsageCount, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create promo code: %w", err)
	}
	return nil
}

func (q *Queries) GetPromoByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE code = $1`
	return scanPromo(q.db.QueryRow(ctx, query, code))
}

func (q *Queries) GetPromoForUpdate(ctx context.Context, id uuid.UUID) (*domain.PromoCode, error) {
	query := `SELECT ` + promoColumns + ` FROM promo_codes WHERE id = $1 FOR UPDATE`
	return scanPromo(q.db.QueryRow(ctx, query, id))
}

func (q *Queries) UpdatePromoCode(ctx context.Context, p *domain.PromoCode) error {
	query := `UPDATE promo_codes SET usage_count = $2, status = $3 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, p.ID, p.UsageCount, p.Status)
	if err != nil {
		return fmt.Errorf("failed to update promo code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) PromoRedemptionExists(ctx context.Context, accountID, promoID uuid.UUID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM promo_redemptions WHERE account_id = $1 AND promo_id = $2)`
	if err := q.db.QueryRow(ctx, query, accountID, promoID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check redemption: %w", err)
	}
	return exists, nil
}

func (q *Queries) CreatePromoRedemption(ctx context.Context, r *domain.PromoRedemption) error {
	query := `INSERT INTO promo_redemptions (id, account_id, promo_id, bonus, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := q.db.Exec(ctx, query, r.ID, r.AccountID, r.PromoID, r.Bonus, r.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyRedeemed
		}
		return fmt.Errorf("failed to create redemption: %w", err)
	}
	return nil
}

// --- wallet leases ---

func (q *Queries) DeleteExpiredLeases(ctx context.Context, network string, now time.Time) error {
	query := `DELETE FROM wallet_leases WHERE network = $1 AND expires_at <= $2`
	if _, err := q.db.Exec(ctx, query, network, now); err != nil {
		return fmt.Errorf("failed to delete expired leases: %w", err)
	}
	return nil
}

func (q *Queries) ListActiveLeases(ctx context.Context, network string, now time.Time) ([]domain.WalletLease, error) {
	query := `SELECT network, address, holder_id, expires_at FROM wallet_leases
		WHERE network = $1 AND expires_at > $2 ORDER BY address ASC`
	rows, err := q.db.Query(ctx, query, network, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list leases: %w", err)
	}
	defer rows.Close()

	var leases []domain.WalletLease
	for rows.Next() {
		var l domain.WalletLease
		if err := rows.Scan(&l.Network, &l.Address, &l.HolderID, &l.ExpiresAt); err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		leases = append(leases, l)
	}
	return leases, rows.Err()
}

func (q *Queries) UpsertLease(ctx context.Context, l *domain.WalletLease) error {
	query := `INSERT INTO wallet_leases (network, address, holder_id, expires_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (network, address) DO UPDATE SET holder_id = EXCLUDED.holder_id, expires_at = EXCLUDED.expires_at`
	if _, err := q.db.Exec(ctx, query, l.Network, l.Address, l.HolderID, l.ExpiresAt); err != nil {
		return fmt.Errorf("failed to upsert lease: %w", err)
	}
	return nil
}

// --- withdrawals ---

const withdrawalColumns = `id, account_id, kind, amount, network, wallet_address, bank_name,
	account_number, account_holder, status, transfer_ref, processed_at, created_at`

func (q *Queries) CreateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	query := `INSERT INTO withdrawals (id, account_id, kind, amount, network, wallet_address, bank_name, account_number, account_holder, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := q.db.Exec(ctx, query, w.ID, w.AccountID, w.Kind, w.Amount, w.Network, w.WalletAddress,
		w.BankName, w.AccountNumber, w.AccountHolder, w.Status, w.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create withdrawal: %w", err)
	}
	return nil
}

func (q *Queries) GetWithdrawalForUpdate(ctx context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	w := &domain.Withdrawal{}
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE id = $1 FOR UPDATE`
	err := q.db.QueryRow(ctx, query, id).Scan(&w.ID, &w.AccountID, &w.Kind, &w.Amount, &w.Network, &w.WalletAddress,
		&w.BankName, &w.AccountNumber, &w.AccountHolder, &w.Status, &w.TransferRef, &w.ProcessedAt, &w.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return w, nil
}

func (q *Queries) UpdateWithdrawal(ctx context.Context, w *domain.Withdrawal) error {
	query := `UPDATE withdrawals SET status = $2, transfer_ref = $3, processed_at = $4 WHERE id = $1`
	tag, err := q.db.Exec(ctx, query, w.ID, w.Status, w.TransferRef, w.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to update withdrawal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (q *Queries) ListWithdrawalsByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Withdrawal, error) {
	query := `SELECT ` + withdrawalColumns + ` FROM withdrawals WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	rows, err := q.db.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list withdrawals: %w", err)
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var w domain.Withdrawal
		if err := rows.Scan(&w.ID, &w.AccountID, &w.Kind, &w.Amount, &w.Network, &w.WalletAddress,
			&w.BankName, &w.AccountNumber, &w.AccountHolder, &w.Status, &w.TransferRef, &w.ProcessedAt, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan withdrawal: %w", err)
		}
		withdrawals = append(withdrawals, w)
	}
	return withdrawals, rows.Err()
}

// --- daily rewards ---

func (q *Queries) LastRewardClaim(ctx context.Context, accountID uuid.UUID) (*domain.RewardClaim, error) {
	c := &domain.RewardClaim{}
	query := `SELECT id, account_id, amount, claimed_at FROM reward_claims
		WHERE account_id = $1 ORDER BY claimed_at DESC LIMIT 1`
	err := q.db.QueryRow(ctx, query, accountID).Scan(&c.ID, &c.AccountID, &c.Amount, &c.ClaimedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

func (q *Queries) CreateRewardClaim(ctx context.Context, c *domain.RewardClaim) error {
	query := `INSERT INTO reward_claims (id, account_id, amount, claimed_at) VALUES ($1, $2, $3, $4)`
	if _, err := q.db.Exec(ctx, query, c.ID, c.AccountID, c.Amount, c.ClaimedAt); err != nil {
		return fmt.Errorf("failed to create reward claim: %w", err)
	}
	return nil
}

// --- notifications ---

func (q *Queries) CreateNotification(ctx context.Context, n *domain.Notification) error {
	query := `INSERT INTO notifications (id, account_id, message, read, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := q.db.Exec(ctx, query, n.ID, n.AccountID, n.Message, n.Read, n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (q *Queries) ListNotificationsByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]domain.Notification, error) {
	query := `SELECT id, account_id, message, read, created_at FROM notifications
		WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := q.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var notifications []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
