// Package memory implements storage.Store on plain maps. It backs the unit
// tests and local development without a Postgres instance. A single mutex
// stands in for row locking: RunInTx holds it for the whole transaction and
// restores a snapshot on error, which gives the same all-or-nothing and
// serialization guarantees the pgx store gets from FOR UPDATE.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

type leaseKey struct {
	network string
	address string
}

type redemptionKey struct {
	accountID uuid.UUID
	promoID   uuid.UUID
}

type state struct {
	accounts      map[uuid.UUID]*domain.Account
	rankBands     map[uuid.UUID]*domain.RankBand
	deposits      map[uuid.UUID]*domain.Deposit
	referrals     map[uuid.UUID]*domain.Referral
	trades        map[uuid.UUID]*domain.CopyTrade
	promos        map[uuid.UUID]*domain.PromoCode
	redemptions   map[redemptionKey]*domain.PromoRedemption
	leases        map[leaseKey]*domain.WalletLease
	withdrawals   map[uuid.UUID]*domain.Withdrawal
	rewards       map[uuid.UUID]*domain.RewardClaim
	notifications map[uuid.UUID]*domain.Notification
}

func newState() *state {
	return &state{
		accounts:      map[uuid.UUID]*domain.Account{},
		rankBands:     map[uuid.UUID]*domain.RankBand{},
		deposits:      map[uuid.UUID]*domain.Deposit{},
		referrals:     map[uuid.UUID]*domain.Referral{},
		trades:        map[uuid.UUID]*domain.CopyTrade{},
		promos:        map[uuid.UUID]*domain.PromoCode{},
		redemptions:   map[redemptionKey]*domain.PromoRedemption{},
		leases:        map[leaseKey]*domain.WalletLease{},
		withdrawals:   map[uuid.UUID]*domain.Withdrawal{},
		rewards:       map[uuid.UUID]*domain.RewardClaim{},
		notifications: map[uuid.UUID]*domain.Notification{},
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.accounts {
		cp := *v
		c.accounts[k] = &cp
	}
	for k, v := range s.rankBands {
		cp := *v
		c.rankBands[k] = &cp
	}
	for k, v := range s.deposits {
		cp := *v
		c.deposits[k] = &cp
	}
	for k, v := range s.referrals {
		cp := *v
		c.referrals[k] = &cp
	}
	for k, v := range s.trades {
		cp := *v
		c.trades[k] = &cp
	}
	for k, v := range s.promos {
		cp := *v
		c.promos[k] = &cp
	}
	for k, v := range s.redemptions {
		cp := *v
		c.redemptions[k] = &cp
	}
	for k, v := range s.leases {
		cp := *v
		c.leases[k] = &cp
	}
	for k, v := range s.withdrawals {
		cp := *v
		c.withdrawals[k] = &cp
	}
	for k, v := range s.rewards {
		cp := *v
		c.rewards[k] = &cp
	}
	for k, v := range s.notifications {
		cp := *v
		c.notifications[k] = &cp
	}
	return c
}

// Store is the in-memory storage.Store.
type Store struct {
	mu   sync.Mutex
	data *state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

// RunInTx executes fn under the store mutex and restores the pre-transaction
// snapshot when fn fails.
func (st *Store) RunInTx(ctx context.Context, fn func(q storage.Querier) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	snapshot := st.data.clone()
	if err := fn(&view{data: st.data}); err != nil {
		st.data = snapshot
		return err
	}
	return nil
}

// view implements storage.Querier against a state without locking; the Store
// methods below take the mutex and delegate to it.
type view struct {
	data *state
}

var _ storage.Querier = (*view)(nil)
var _ storage.Store = (*Store)(nil)

func copyAccount(a *domain.Account) *domain.Account {
	cp := *a
	return &cp
}

// --- accounts ---

func (v *view) CreateAccount(_ context.Context, a *domain.Account) error {
	// Mirror the unique indexes on email and referral_code.
	for _, existing := range v.data.accounts {
		if existing.ReferralCode == a.ReferralCode {
			return fmt.Errorf("duplicate referral code %s", a.ReferralCode)
		}
		if existing.Email == a.Email {
			return fmt.Errorf("duplicate email %s", a.Email)
		}
	}
	v.data.accounts[a.ID] = copyAccount(a)
	return nil
}

func (v *view) GetAccount(_ context.Context, id uuid.UUID) (*domain.Account, error) {
	a, ok := v.data.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyAccount(a), nil
}

func (v *view) GetAccountForUpdate(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return v.GetAccount(ctx, id)
}

func (v *view) GetAccountByReferralCode(_ context.Context, code string) (*domain.Account, error) {
	for _, a := range v.data.accounts {
		if a.ReferralCode == code {
			return copyAccount(a), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (v *view) UpdateAccountBalances(_ context.Context, id uuid.UUID, locked, withdrawable decimal.Decimal) error {
	a, ok := v.data.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.LockedBalance = locked
	a.WithdrawableBalance = withdrawable
	return nil
}

func (v *view) UpdateAccountRank(_ context.Context, id uuid.UUID, rankID *uuid.UUID) error {
	a, ok := v.data.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.RankID = rankID
	return nil
}

func (v *view) UpdateAccountReferralStats(_ context.Context, id uuid.UUID, total, valid int, earnings decimal.Decimal) error {
	a, ok := v.data.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.TotalReferrals = total
	a.ValidReferrals = valid
	a.ReferralEarnings = earnings
	return nil
}

func (v *view) SetAccountBanned(_ context.Context, id uuid.UUID, banned bool) error {
	a, ok := v.data.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Banned = banned
	return nil
}

func (v *view) SetAccountLastWithdrawal(_ context.Context, id uuid.UUID, at time.Time) error {
	a, ok := v.data.accounts[id]
	if !ok {
		return domain.ErrNotFound
	}
	t := at
	a.LastWithdrawalAt = &t
	return nil
}

// --- rank bands ---

func (v *view) ListRankBands(_ context.Context) ([]domain.RankBand, error) {
	out := make([]domain.RankBand, 0, len(v.data.rankBands))
	for _, b := range v.data.rankBands {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].MinBalance.LessThan(out[j].MinBalance)
	})
	return out, nil
}

func (v *view) UpsertRankBand(_ context.Context, b *domain.RankBand) error {
	cp := *b
	v.data.rankBands[b.ID] = &cp
	return nil
}

// --- deposits ---

func (v *view) CreateDeposit(_ context.Context, d *domain.Deposit) error {
	cp := *d
	v.data.deposits[d.ID] = &cp
	return nil
}

func (v *view) GetDeposit(_ context.Context, id uuid.UUID) (*domain.Deposit, error) {
	d, ok := v.data.deposits[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (v *view) GetDepositForUpdate(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	return v.GetDeposit(ctx, id)
}

func (v *view) GetDepositByReference(_ context.Context, reference string) (*domain.Deposit, error) {
	for _, d := range v.data.deposits {
		if d.Reference != "" && d.Reference == reference {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (v *view) UpdateDeposit(_ context.Context, d *domain.Deposit) error {
	if _, ok := v.data.deposits[d.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *d
	v.data.deposits[d.ID] = &cp
	return nil
}

func (v *view) ListDepositsByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Deposit, error) {
	var out []domain.Deposit
	for _, d := range v.data.deposits {
		if d.AccountID == accountID {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (v *view) ListExpiredApprovedDeposits(_ context.Context, now time.Time) ([]domain.Deposit, error) {
	var out []domain.Deposit
	for _, d := range v.data.deposits {
		if d.Status == domain.DepositApproved && d.ExpiresAt != nil && !d.ExpiresAt.After(now) {
			out = append(out, *d)
		}
	}
	// FIFO: oldest approval first.
	sort.Slice(out, func(i, j int) bool {
		return approvedAt(&out[i]).Before(approvedAt(&out[j]))
	})
	return out, nil
}

func approvedAt(d *domain.Deposit) time.Time {
	if d.ApprovedAt != nil {
		return *d.ApprovedAt
	}
	return d.CreatedAt
}

// --- referrals ---

func (v *view) CreateReferral(_ context.Context, r *domain.Referral) error {
	cp := *r
	v.data.referrals[r.ID] = &cp
	return nil
}

func (v *view) ReferralExistsForDeposit(_ context.Context, depositID uuid.UUID) (bool, error) {
	for _, r := range v.data.referrals {
		if r.DepositID == depositID {
			return true, nil
		}
	}
	return false, nil
}

// --- copy trades ---

func (v *view) CreateTrade(_ context.Context, t *domain.CopyTrade) error {
	cp := *t
	v.data.trades[t.ID] = &cp
	return nil
}

func (v *view) GetTrade(_ context.Context, id uuid.UUID) (*domain.CopyTrade, error) {
	t, ok := v.data.trades[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (v *view) GetTradeForUpdate(ctx context.Context, id uuid.UUID) (*domain.CopyTrade, error) {
	return v.GetTrade(ctx, id)
}

func (v *view) UpdateTrade(_ context.Context, t *domain.CopyTrade) error {
	if _, ok := v.data.trades[t.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *t
	v.data.trades[t.ID] = &cp
	return nil
}

func (v *view) ListTradesByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]domain.CopyTrade, error) {
	var out []domain.CopyTrade
	for _, t := range v.data.trades {
		if t.AccountID == accountID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

func (v *view) ListPendingTrades(_ context.Context) ([]domain.CopyTrade, error) {
	var out []domain.CopyTrade
	for _, t := range v.data.trades {
		if t.Status == domain.TradePending {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (v *view) CountTradesSince(_ context.Context, accountID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, t := range v.data.trades {
		if t.AccountID == accountID && !t.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// --- promo codes ---

func (v *view) CreatePromoCode(_ context.Context, p *domain.PromoCode) error {
	cp := *p
	v.data.promos[p.ID] = &cp
	return nil
}

func (v *view) GetPromoByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	for _, p := range v.data.promos {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (v *view) GetPromoForUpdate(_ context.Context, id uuid.UUID) (*domain.PromoCode, error) {
	p, ok := v.data.promos[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (v *view) UpdatePromoCode(_ context.Context, p *domain.PromoCode) error {
	if _, ok := v.data.promos[p.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *p
	v.data.promos[p.ID] = &cp
	return nil
}

func (v *view) PromoRedemptionExists(_ context.Context, accountID, promoID uuid.UUID) (bool, error) {
	_, ok := v.data.redemptions[redemptionKey{accountID, promoID}]
	return ok, nil
}

func (v *view) CreatePromoRedemption(_ context.Context, r *domain.PromoRedemption) error {
	key := redemptionKey{r.AccountID, r.PromoID}
	if _, ok := v.data.redemptions[key]; ok {
		return domain.ErrAlreadyRedeemed
	}
	cp := *r
	v.data.redemptions[key] = &cp
	return nil
}

// --- wallet leases ---

func (v *view) DeleteExpiredLeases(_ context.Context, network string, now time.Time) error {
	for k, l := range v.data.leases {
		if k.network == network && !l.ExpiresAt.After(now) {
			delete(v.data.leases, k)
		}
	}
	return nil
}

func (v *view) ListActiveLeases(_ context.Context, network string, now time.Time) ([]domain.WalletLease, error) {
	var out []domain.WalletLease
	for k, l := range v.data.leases {
		if k.network == network && l.ExpiresAt.After(now) {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out, nil
}

func (v *view) UpsertLease(_ context.Context, l *domain.WalletLease) error {
	cp := *l
	v.data.leases[leaseKey{l.Network, l.Address}] = &cp
	return nil
}

// --- withdrawals ---

func (v *view) CreateWithdrawal(_ context.Context, w *domain.Withdrawal) error {
	cp := *w
	v.data.withdrawals[w.ID] = &cp
	return nil
}

func (v *view) GetWithdrawalForUpdate(_ context.Context, id uuid.UUID) (*domain.Withdrawal, error) {
	w, ok := v.data.withdrawals[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *w
	return &cp, nil
}

func (v *view) UpdateWithdrawal(_ context.Context, w *domain.Withdrawal) error {
	if _, ok := v.data.withdrawals[w.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *w
	v.data.withdrawals[w.ID] = &cp
	return nil
}

func (v *view) ListWithdrawalsByAccount(_ context.Context, accountID uuid.UUID, limit, offset int) ([]domain.Withdrawal, error) {
	var out []domain.Withdrawal
	for _, w := range v.data.withdrawals {
		if w.AccountID == accountID {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

// --- daily rewards ---

func (v *view) LastRewardClaim(_ context.Context, accountID uuid.UUID) (*domain.RewardClaim, error) {
	var last *domain.RewardClaim
	for _, c := range v.data.rewards {
		if c.AccountID != accountID {
			continue
		}
		if last == nil || c.ClaimedAt.After(last.ClaimedAt) {
			last = c
		}
	}
	if last == nil {
		return nil, domain.ErrNotFound
	}
	cp := *last
	return &cp, nil
}

func (v *view) CreateRewardClaim(_ context.Context, c *domain.RewardClaim) error {
	cp := *c
	v.data.rewards[c.ID] = &cp
	return nil
}

// --- notifications ---

func (v *view) CreateNotification(_ context.Context, n *domain.Notification) error {
	cp := *n
	v.data.notifications[n.ID] = &cp
	return nil
}

func (v *view) ListNotificationsByAccount(_ context.Context, accountID uuid.UUID, limit int) ([]domain.Notification, error) {
	var out []domain.Notification
	for _, n := range v.data.notifications {
		if n.AccountID == accountID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func page[T any](in []T, limit, offset int) []T {
	if offset >= len(in) {
		return nil
	}
	in = in[offset:]
	if limit > 0 && len(in) > limit {
		in = in[:limit]
	}
	return in
}
