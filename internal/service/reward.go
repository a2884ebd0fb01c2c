package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/greyfinance/ledger-engine/internal/domain"
	"github.com/greyfinance/ledger-engine/internal/storage"
)

// RewardService hands out the fixed daily login reward, at most once per UTC
// calendar day per account.
type RewardService struct {
	store    storage.Store
	notifier Notifier
	now      func() time.Time
}

func NewRewardService(store storage.Store, notifier Notifier) *RewardService {
	return &RewardService{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// Claim credits the daily reward to the withdrawable bucket.
func (s *RewardService) Claim(ctx context.Context, accountID uuid.UUID) (*domain.RewardClaim, error) {
	var (
		claim  *domain.RewardClaim
		events []event
	)
	err := s.store.RunInTx(ctx, func(q storage.Querier) error {
		account, err := q.GetAccountForUpdate(ctx, accountID)
		if err != nil {
			return err
		}
		if account.Banned {
			return domain.ErrAccountBanned
		}

		now := s.now()
		last, err := q.LastRewardClaim(ctx, accountID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if last != nil && sameUTCDay(last.ClaimedAt, now) {
			return domain.ErrRewardClaimed
		}

		if err := creditTx(ctx, q, account, domain.BucketWithdrawable, domain.DailyReward); err != nil {
			return err
		}
		change, err := recomputeRankTx(ctx, q, account)
		if err != nil {
			return err
		}
		if change != nil {
			if err := recordEvent(ctx, q, &events, accountID, now, change.message()); err != nil {
				return err
			}
		}

		claim = &domain.RewardClaim{
			ID:        uuid.New(),
			AccountID: accountID,
			Amount:    domain.DailyReward,
			ClaimedAt: now,
		}
		if err := q.CreateRewardClaim(ctx, claim); err != nil {
			return err
		}
		return recordEvent(ctx, q, &events, accountID, now,
			fmt.Sprintf("Daily reward of %s claimed.", domain.DailyReward))
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.notifier, events)
	return claim, nil
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
