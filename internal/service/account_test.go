package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

func TestAccountCreate(t *testing.T) {
	st := setupTestStore(t)
	svc, err := NewAccountService(st)
	require.NoError(t, err)
	ctx := context.Background()

	account, err := svc.Create(ctx, "  Alice@Example.COM ")
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", account.Email)
	require.Len(t, account.ReferralCode, domain.ReferralCodeLen)
	for _, r := range account.ReferralCode {
		require.Contains(t, domain.ReferralCodeAlphabet, string(r),
			"referral code %q uses a character outside the alphabet", account.ReferralCode)
	}
	require.True(t, account.LockedBalance.IsZero())
	require.True(t, account.WithdrawableBalance.IsZero())

	_, err = svc.Create(ctx, "   ")
	require.Error(t, err)
}

func TestAccountCreateRetriesCodeCollision(t *testing.T) {
	st := setupTestStore(t)
	svc, err := NewAccountService(st)
	require.NoError(t, err)
	ctx := context.Background()

	codes := []string{"SAMECODE", "SAMECODE", "FRESHCDE"}
	svc.newCode = func() string {
		code := codes[0]
		if len(codes) > 1 {
			codes = codes[1:]
		}
		return code
	}

	first, err := svc.Create(ctx, "first@example.com")
	require.NoError(t, err)
	require.Equal(t, "SAMECODE", first.ReferralCode)

	second, err := svc.Create(ctx, "second@example.com")
	require.NoError(t, err)
	require.Equal(t, "FRESHCDE", second.ReferralCode)
}

func TestAccountNotificationsLimitClamp(t *testing.T) {
	st := setupTestStore(t)
	svc, err := NewAccountService(st)
	require.NoError(t, err)
	account := createTestAccount(t, st, "ACCOUNT1")
	ctx := context.Background()

	ledger := NewLedgerService(st, NopNotifier{})
	require.NoError(t, ledger.Credit(ctx, account.ID, domain.BucketLocked, dec("100")))

	for _, limit := range []int{0, -3, 500} {
		notifications, err := svc.Notifications(ctx, account.ID, limit)
		require.NoError(t, err)
		require.Len(t, notifications, 1)
		require.Contains(t, notifications[0].Message, "Bronze")
	}
}

func TestAccountBanToggle(t *testing.T) {
	st := setupTestStore(t)
	svc, err := NewAccountService(st)
	require.NoError(t, err)
	account := createTestAccount(t, st, "ACCOUNT2")
	ctx := context.Background()

	require.NoError(t, svc.SetBanned(ctx, account.ID, true))
	banned, err := svc.IsBanned(ctx, account.ID)
	require.NoError(t, err)
	require.True(t, banned)

	require.NoError(t, svc.SetBanned(ctx, account.ID, false))
	banned, err = svc.IsBanned(ctx, account.ID)
	require.NoError(t, err)
	require.False(t, banned)
}
