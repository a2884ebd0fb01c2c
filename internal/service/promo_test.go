package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

func TestPromoRedeemCreatesLockedDeposit(t *testing.T) {
	st := setupTestStore(t)
	svc := NewPromoService(st, NopNotifier{})
	svc.now = func() time.Time { return testTime }
	account := createTestAccount(t, st, "PROMO001")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePromoRequest{
		Code:     "WELCOME10",
		BonusMin: dec("10"),
		BonusMax: dec("20"),
	})
	require.NoError(t, err)

	deposit, err := svc.Redeem(ctx, account.ID, "WELCOME10")
	require.NoError(t, err)
	require.Equal(t, domain.DepositKindPromo, deposit.Kind)
	require.Equal(t, domain.DepositApproved, deposit.Status)
	require.True(t, deposit.Amount.GreaterThanOrEqual(dec("10")))
	require.True(t, deposit.Amount.LessThanOrEqual(dec("20")))
	require.NotNil(t, deposit.ExpiresAt)
	require.Equal(t, testTime.AddDate(0, 0, domain.PromoLockDays), *deposit.ExpiresAt)

	account2, err := st.GetAccount(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, account2.LockedBalance.Equal(deposit.Amount))
	require.Equal(t, "Bronze", rankName(t, st, account.ID))
}

func TestPromoRedeemOncePerAccount(t *testing.T) {
	st := setupTestStore(t)
	svc := NewPromoService(st, NopNotifier{})
	account := createTestAccount(t, st, "PROMO002")
	ctx := context.Background()

	_, err := svc.Create(ctx, CreatePromoRequest{Code: "ONCE", BonusMin: dec("5"), BonusMax: dec("5")})
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, account.ID, "ONCE")
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, account.ID, "ONCE")
	require.ErrorIs(t, err, domain.ErrAlreadyRedeemed)
	requireBalances(t, st, account.ID, "5", "0")
}

func TestPromoRedeemValidation(t *testing.T) {
	st := setupTestStore(t)
	svc := NewPromoService(st, NopNotifier{})
	svc.now = func() time.Time { return testTime }
	account := createTestAccount(t, st, "PROMO003")
	other := createTestAccount(t, st, "PROMO004")
	ctx := context.Background()

	_, err := svc.Redeem(ctx, account.ID, "MISSING")
	require.ErrorIs(t, err, domain.ErrInvalidCode)

	expired := testTime.Add(-time.Hour)
	_, err = svc.Create(ctx, CreatePromoRequest{Code: "OLD", BonusMin: dec("5"), BonusMax: dec("5"), Expiration: &expired})
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, account.ID, "OLD")
	require.ErrorIs(t, err, domain.ErrPromoExpired)

	limit := 1
	_, err = svc.Create(ctx, CreatePromoRequest{Code: "SCARCE", BonusMin: dec("5"), BonusMax: dec("5"), UsageLimit: &limit})
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, account.ID, "SCARCE")
	require.NoError(t, err)
	_, err = svc.Redeem(ctx, other.ID, "SCARCE")
	require.ErrorIs(t, err, domain.ErrUsageLimitReached)

	_, err = svc.Create(ctx, CreatePromoRequest{Code: "GONE", BonusMin: dec("5"), BonusMax: dec("5")})
	require.NoError(t, err)
	require.NoError(t, svc.Disable(ctx, "GONE"))
	_, err = svc.Redeem(ctx, account.ID, "GONE")
	require.ErrorIs(t, err, domain.ErrInvalidCode)

	_, err = svc.Create(ctx, CreatePromoRequest{Code: "BADRANGE", BonusMin: dec("10"), BonusMax: dec("5")})
	require.Error(t, err)
}

func TestPromoDepositReapedLikeAnyOther(t *testing.T) {
	st := setupTestStore(t)
	promoSvc := NewPromoService(st, NopNotifier{})
	promoSvc.now = func() time.Time { return testTime }
	depositSvc := NewDepositService(st, NopNotifier{})
	account := createTestAccount(t, st, "PROMO005")
	ctx := context.Background()

	_, err := promoSvc.Create(ctx, CreatePromoRequest{Code: "REAPME", BonusMin: dec("8"), BonusMax: dec("8")})
	require.NoError(t, err)
	_, err = promoSvc.Redeem(ctx, account.ID, "REAPME")
	require.NoError(t, err)
	requireBalances(t, st, account.ID, "8", "0")

	depositSvc.now = func() time.Time { return testTime.AddDate(0, 0, domain.PromoLockDays+1) }
	reaped, err := depositSvc.ReapExpired(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, reaped)
	requireBalances(t, st, account.ID, "0", "0")
}
