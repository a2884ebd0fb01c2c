package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

func TestRewardClaimOncePerDay(t *testing.T) {
	st := setupTestStore(t)
	svc := NewRewardService(st, NopNotifier{})
	now := testTime
	svc.now = func() time.Time { return now }
	account := createTestAccount(t, st, "REWARD01")
	ctx := context.Background()

	claim, err := svc.Claim(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, claim.Amount.Equal(domain.DailyReward))
	requireBalances(t, st, account.ID, "0", "0.1")

	// Same UTC day, even hours later.
	now = testTime.Add(11 * time.Hour)
	_, err = svc.Claim(ctx, account.ID)
	require.ErrorIs(t, err, domain.ErrRewardClaimed)
	requireBalances(t, st, account.ID, "0", "0.1")

	// Midnight rolls over, claimable again.
	now = testTime.Add(13 * time.Hour)
	_, err = svc.Claim(ctx, account.ID)
	require.NoError(t, err)
	requireBalances(t, st, account.ID, "0", "0.2")
}

func TestRewardClaimBannedAccount(t *testing.T) {
	st := setupTestStore(t)
	svc := NewRewardService(st, NopNotifier{})
	account := createTestAccount(t, st, "REWARD02")
	ctx := context.Background()

	require.NoError(t, st.SetAccountBanned(ctx, account.ID, true))
	_, err := svc.Claim(ctx, account.ID)
	require.ErrorIs(t, err, domain.ErrAccountBanned)
}
