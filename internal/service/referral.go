package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// settleReferralTx credits the referrer's bonus for an approved deposit. It
// runs inside the approval transaction so the deposit credit and the referral
// credit land both-or-neither. The Referral row doubles as the idempotency
// marker: if one already exists for the deposit, settlement is a no-op.
func settleReferralTx(ctx context.Context, q storage.Querier, events *[]event, d *domain.Deposit, now time.Time) error {
	if d.ReferrerID == nil || *d.ReferrerID == d.AccountID {
		return nil
	}

	exists, err := q.ReferralExistsForDeposit(ctx, d.ID)
	if err != nil {
		return fmt.Errorf("failed to check referral: %w", err)
	}
	if exists {
		return nil
	}

	referrer, err := q.GetAccountForUpdate(ctx, *d.ReferrerID)
	if err != nil {
		return fmt.Errorf("failed to lock referrer: %w", err)
	}

	bonus := d.Amount.Mul(domain.ReferralPct).Round(2)
	if err := creditTx(ctx, q, referrer, domain.BucketLocked, bonus); err != nil {
		return err
	}
	if err := q.UpdateAccountReferralStats(ctx, referrer.ID,
		referrer.TotalReferrals+1,
		referrer.ValidReferrals+1,
		referrer.ReferralEarnings.Add(bonus),
	); err != nil {
		return fmt.Errorf("failed to update referral stats: %w", err)
	}

	if err := q.CreateReferral(ctx, &domain.Referral{
		ID:         uuid.New(),
		ReferrerID: referrer.ID,
		RefereeID:  d.AccountID,
		DepositID:  d.ID,
		Bonus:      bonus,
		CreatedAt:  now,
	}); err != nil {
		return fmt.Errorf("failed to create referral: %w", err)
	}

	change, err := recomputeRankTx(ctx, q, referrer)
	if err != nil {
		return err
	}
	if change != nil {
		if err := recordEvent(ctx, q, events, referrer.ID, now, change.message()); err != nil {
			return err
		}
	}
	if err := recordEvent(ctx, q, events, referrer.ID, now,
		fmt.Sprintf("You earned a %s referral bonus.", bonus)); err != nil {
		return err
	}

	zap.L().Info("referral settled",
		zap.String("referrer_id", referrer.ID.String()),
		zap.String("deposit_id", d.ID.String()),
		zap.String("bonus", bonus.String()),
	)
	return nil
}
