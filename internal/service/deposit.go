package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/observability"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

var ErrDepositBelowMinimum = errors.New("deposit amount below minimum")

// DepositService drives the deposit lifecycle: pending, approved or rejected,
// and approved to expired via the reaper.
type DepositService struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
}

func NewDepositService(store storage.Store, notifier Notifier) *DepositService {
	return &DepositService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// SubmitDepositRequest is a direct crypto deposit claim awaiting admin
// approval.
type SubmitDepositRequest struct {
	AccountID     uuid.UUID
	Amount        decimal.Decimal
	Network       string
	WalletAddress string
	ReferrerCode  string
}

// Submit records a pending crypto deposit. A referrer code that resolves to
// the submitting account itself, or to nothing, is silently dropped.
func (s *DepositService) Submit(ctx context.Context, req SubmitDepositRequest) (*domain.Deposit, error) {
	if req.Amount.LessThan(domain.MinDeposit) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrDepositBelowMinimum, domain.MinDeposit)
	}

	deposit := &domain.Deposit{
		ID:            uuid.New(),
		AccountID:     req.AccountID,
		Kind:          domain.DepositKindCrypto,
		Amount:        req.Amount.Round(2),
		Network:       req.Network,
		WalletAddress: req.WalletAddress,
		Status:        domain.DepositPending,
		CreatedAt:     s.now(),
	}

	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		if _, err := requireActive(ctx, q, req.AccountID); err != nil {
			return err
		}
		if code := strings.TrimSpace(req.ReferrerCode); code != "" {
			referrer, err := q.GetAccountByReferralCode(ctx, code)
			switch {
			case err == nil && referrer.ID != req.AccountID:
				deposit.ReferrerID = &referrer.ID
			case err != nil && !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("failed to resolve referrer code: %w", err)
			}
		}
		return q.CreateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// SubmitGateway records a pending local-currency deposit identified by the
// payment provider's reference. ConfirmGateway approves it when the provider
// reports the funds.
func (s *DepositService) SubmitGateway(ctx context.Context, accountID uuid.UUID, amount decimal.Decimal, reference string) (*domain.Deposit, error) {
	if amount.LessThan(domain.MinDeposit) {
		return nil, fmt.Errorf("%w: minimum is %s", ErrDepositBelowMinimum, domain.MinDeposit)
	}
	if strings.TrimSpace(reference) == "" {
		return nil, errors.New("reference is required")
	}

	deposit := &domain.Deposit{
		ID:        uuid.New(),
		AccountID: accountID,
		Kind:      domain.DepositKindGateway,
		Amount:    amount.Round(2),
		Reference: reference,
		Status:    domain.DepositPending,
		CreatedAt: s.now(),
	}

	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		if _, err := requireActive(ctx, q, accountID); err != nil {
			return err
		}
		return q.CreateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// ConfirmGateway approves the deposit matching a provider confirmation. The
// confirmed amount must cover the claimed amount.
func (s *DepositService) ConfirmGateway(ctx context.Context, reference string, amountConfirmed decimal.Decimal) (*domain.Deposit, error) {
	deposit, err := s.store.GetDepositByReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if amountConfirmed.LessThan(deposit.Amount) {
		return nil, fmt.Errorf("confirmed amount %s below claimed %s", amountConfirmed, deposit.Amount)
	}
	return s.Approve(ctx, deposit.ID)
}

// Approve moves a pending deposit to approved: the amount is credited to the
// locked bucket, the lock clock starts, and any attached referral settles in
// the same transaction. Approving a non-pending deposit is a no-op, so
// duplicate admin actions are harmless.
func (s *DepositService) Approve(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error) {
	var (
		deposit *domain.Deposit
		events  []event
	)
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		var err error
		deposit, err = q.GetDepositForUpdate(ctx, depositID)
		if err != nil {
			return err
		}
		if deposit.Status != domain.DepositPending {
			return nil
		}

		now := s.now()
		deposit.Status = domain.DepositApproved
		deposit.ApprovedAt = &now
		if deposit.ExpiresAt == nil {
			expires := now.AddDate(0, 0, domain.LockDays)
			deposit.ExpiresAt = &expires
		}
		if err := q.UpdateDeposit(ctx, deposit); err != nil {
			return err
		}

		account, err := q.GetAccountForUpdate(ctx, deposit.AccountID)
		if err != nil {
			return err
		}
		if err := creditTx(ctx, q, account, domain.BucketLocked, deposit.Amount); err != nil {
			return err
		}
		change, err := recomputeRankTx(ctx, q, account)
		if err != nil {
			return err
		}
		if change != nil {
			if err := recordEvent(ctx, q, &events, account.ID, now, change.message()); err != nil {
				return err
			}
		}
		if err := recordEvent(ctx, q, &events, account.ID, now,
			fmt.Sprintf("Your deposit of %s was approved.", deposit.Amount)); err != nil {
			return err
		}

		return settleReferralTx(ctx, q, &events, deposit, now)
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, events)
	return deposit, nil
}

// Reject moves a pending deposit to rejected with no balance effect. A no-op
// for non-pending deposits.
func (s *DepositService) Reject(ctx context.Context, depositID uuid.UUID) (*domain.Deposit, error) {
	var deposit *domain.Deposit
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		var err error
		deposit, err = q.GetDepositForUpdate(ctx, depositID)
		if err != nil {
			return err
		}
		if deposit.Status != domain.DepositPending {
			return nil
		}
		deposit.Status = domain.DepositRejected
		return q.UpdateDeposit(ctx, deposit)
	})
	if err != nil {
		return nil, err
	}
	return deposit, nil
}

// ReapExpired releases every approved deposit whose lock window has passed,
// oldest approval first. Each deposit is claimed under its own row lock in
// its own transaction, so the reaper can run repeatedly and concurrently.
// Returns the number of deposits expired.
func (s *DepositService) ReapExpired(ctx context.Context) (int, error) {
	now := s.now()
	candidates, err := s.store.ListExpiredApprovedDeposits(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired deposits: %w", err)
	}

	reaped := 0
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return reaped, err
		}
		expired, err := s.reapOne(ctx, candidates[i].ID, now)
		if err != nil {
			if errors.Is(err, domain.ErrLedgerInconsistent) {
				// The deposit stays approved for manual review. Forcing the
				// debit through would drive the locked balance negative.
				zap.L().Error("locked balance below expiring deposit amount",
					zap.String("deposit_id", candidates[i].ID.String()),
					zap.String("account_id", candidates[i].AccountID.String()),
					zap.String("amount", candidates[i].Amount.String()),
				)
				observability.IncrementLedgerInconsistency()
				continue
			}
			return reaped, err
		}
		if expired {
			reaped++
		}
	}
	return reaped, nil
}

func (s *DepositService) reapOne(ctx context.Context, depositID uuid.UUID, now time.Time) (bool, error) {
	var (
		expired bool
		events  []event
	)
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		deposit, err := q.GetDepositForUpdate(ctx, depositID)
		if err != nil {
			return err
		}
		// Another reaper pass may have claimed it between the list and the
		// lock.
		if deposit.Status != domain.DepositApproved || deposit.ExpiresAt == nil || deposit.ExpiresAt.After(now) {
			return nil
		}

		account, err := q.GetAccountForUpdate(ctx, deposit.AccountID)
		if err != nil {
			return err
		}
		if account.LockedBalance.LessThan(deposit.Amount) {
			return domain.ErrLedgerInconsistent
		}

		if err := debitTx(ctx, q, account, domain.BucketLocked, deposit.Amount); err != nil {
			return err
		}
		deposit.Status = domain.DepositExpired
		if err := q.UpdateDeposit(ctx, deposit); err != nil {
			return err
		}

		change, err := recomputeRankTx(ctx, q, account)
		if err != nil {
			return err
		}
		if change != nil {
			if err := recordEvent(ctx, q, &events, account.ID, now, change.message()); err != nil {
				return err
			}
		}
		if err := recordEvent(ctx, q, &events, account.ID, now,
			fmt.Sprintf("Your deposit of %s reached the end of its %d-day lock and was released.", deposit.Amount, domain.LockDays)); err != nil {
			return err
		}

		expired = true
		return nil
	})
	if err != nil {
		return false, err
	}
	publish(ctx, s.notifier, events)
	return expired, nil
}

func (s *DepositService) Get(ctx context.Context, id uuid.UUID) (*domain.Deposit, error) {
	return s.store.GetDeposit(ctx, id)
}

func (s *DepositService) ListByAccount(ctx context.Context, accountID uuid.UUID, page, pageSize int) ([]domain.Deposit, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.store.ListDepositsByAccount(ctx, accountID, pageSize, (page-1)*pageSize)
}
