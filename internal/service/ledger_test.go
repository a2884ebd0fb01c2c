package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/greyfinance/ledger-engine/internal/domain"
)

func TestLedgerCreditAssignsRank(t *testing.T) {
	st := setupTestStore(t)
	svc := NewLedgerService(st, NopNotifier{})
	account := createTestAccount(t, st, "LEDGER01")
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, account.ID, domain.BucketLocked, dec("100")))
	requireBalances(t, st, account.ID, "100", "0")
	require.Equal(t, "Bronze", rankName(t, st, account.ID))

	require.NoError(t, svc.Credit(ctx, account.ID, domain.BucketWithdrawable, dec("500")))
	requireBalances(t, st, account.ID, "100", "500")
	require.Equal(t, "Silver", rankName(t, st, account.ID))
}

func TestLedgerDebitDemotesRank(t *testing.T) {
	st := setupTestStore(t)
	svc := NewLedgerService(st, NopNotifier{})
	account := createTestAccount(t, st, "LEDGER02")
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, account.ID, domain.BucketLocked, dec("600")))
	require.Equal(t, "Silver", rankName(t, st, account.ID))

	require.NoError(t, svc.Debit(ctx, account.ID, domain.BucketLocked, dec("400")))
	require.Equal(t, "Bronze", rankName(t, st, account.ID))

	require.NoError(t, svc.Debit(ctx, account.ID, domain.BucketLocked, dec("195")))
	requireBalances(t, st, account.ID, "5", "0")
	require.Equal(t, "", rankName(t, st, account.ID))
}

func TestLedgerDebitInsufficientFunds(t *testing.T) {
	st := setupTestStore(t)
	svc := NewLedgerService(st, NopNotifier{})
	account := createTestAccount(t, st, "LEDGER03")
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, account.ID, domain.BucketWithdrawable, dec("10")))

	err := svc.Debit(ctx, account.ID, domain.BucketWithdrawable, dec("10.01"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// A debit against the other bucket fails too; buckets never borrow from
	// each other.
	err = svc.Debit(ctx, account.ID, domain.BucketLocked, dec("1"))
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	requireBalances(t, st, account.ID, "0", "10")
}

func TestLedgerRejectsNonPositiveAmounts(t *testing.T) {
	st := setupTestStore(t)
	svc := NewLedgerService(st, NopNotifier{})
	account := createTestAccount(t, st, "LEDGER04")
	ctx := context.Background()

	require.Error(t, svc.Credit(ctx, account.ID, domain.BucketLocked, dec("0")))
	require.Error(t, svc.Credit(ctx, account.ID, domain.BucketLocked, dec("-5")))
	require.Error(t, svc.Debit(ctx, account.ID, domain.BucketLocked, dec("0")))
}

func TestLedgerRankChangeNotifies(t *testing.T) {
	st := setupTestStore(t)
	notifier := &captureNotifier{}
	svc := NewLedgerService(st, notifier)
	account := createTestAccount(t, st, "LEDGER05")
	ctx := context.Background()

	require.NoError(t, svc.Credit(ctx, account.ID, domain.BucketLocked, dec("50")))
	messages := notifier.all()
	require.Len(t, messages, 1)
	require.Contains(t, messages[0], "Bronze")

	notifications, err := st.ListNotificationsByAccount(ctx, account.ID, 10)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
}
