package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// LedgerService mutates the two principal buckets of an account. Every
// mutation recomputes the rank in the same transaction.
type LedgerService struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
}

func NewLedgerService(store storage.Store, notifier Notifier) *LedgerService {
	return &LedgerService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Credit adds amount to the named bucket of the account.
func (s *LedgerService) Credit(ctx context.Context, accountID uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invalid amount: %s", amount)
	}

	var events []event
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		account, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err := creditTx(ctx, q, account, bucket, amount); err != nil {
			return err
		}
		change, err := recomputeRankTx(ctx, q, account)
		if err != nil {
			return err
		}
		if change != nil {
			return recordEvent(ctx, q, &events, account.ID, s.now(), change.message())
		}
		return nil
	})
	if err != nil {
		return err
	}
	publish(ctx, s.notifier, events)
	return nil
}

// Debit subtracts amount from the named bucket, failing with
// domain.ErrInsufficientFunds when the bucket holds less than amount.
func (s *LedgerService) Debit(ctx context.Context, accountID uuid.UUID, bucket domain.Bucket, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("invalid amount: %s", amount)
	}

	var events []event
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		account, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if err := debitTx(ctx, q, account, bucket, amount); err != nil {
			return err
		}
		change, err := recomputeRankTx(ctx, q, account)
		if err != nil {
			return err
		}
		if change != nil {
			return recordEvent(ctx, q, &events, account.ID, s.now(), change.message())
		}
		return nil
	})
	if err != nil {
		return err
	}
	publish(ctx, s.notifier, events)
	return nil
}

// creditTx applies a bucket credit to a locked account row and persists the
// new balances. The caller holds the row lock.
func creditTx(ctx context.Context, q storage.Querier, a *domain.Account, bucket domain.Bucket, amount decimal.Decimal) error {
	switch bucket {
	case domain.BucketLocked:
		a.LockedBalance = a.LockedBalance.Add(amount)
	case domain.BucketWithdrawable:
		a.WithdrawableBalance = a.WithdrawableBalance.Add(amount)
	default:
		return fmt.Errorf("unknown bucket: %s", bucket)
	}
	return q.UpdateAccountBalances(ctx, a.ID, a.LockedBalance, a.WithdrawableBalance)
}

// debitTx applies a bucket debit, rejecting amounts above the bucket value.
func debitTx(ctx context.Context, q storage.Querier, a *domain.Account, bucket domain.Bucket, amount decimal.Decimal) error {
	switch bucket {
	case domain.BucketLocked:
		if a.LockedBalance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}
		a.LockedBalance = a.LockedBalance.Sub(amount)
	case domain.BucketWithdrawable:
		if a.WithdrawableBalance.LessThan(amount) {
			return domain.ErrInsufficientFunds
		}
		a.WithdrawableBalance = a.WithdrawableBalance.Sub(amount)
	default:
		return fmt.Errorf("unknown bucket: %s", bucket)
	}
	return q.UpdateAccountBalances(ctx, a.ID, a.LockedBalance, a.WithdrawableBalance)
}
